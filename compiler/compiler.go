// Package compiler lowers source text directly into bytecode in a single
// pass. A Pratt parser drives the lexer one token ahead; each token type
// maps to a parse rule holding its optional prefix and infix handlers and
// its precedence level. There is no intermediate AST: handlers emit into
// the chunk as they parse.
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"rlox/chunk"
	"rlox/heap"
	"rlox/lexer"
	"rlox/token"
	"rlox/value"
)

// Precedence levels for the grammar's rules, ordered from lowest to
// highest. Higher rules bind tighter and are compiled before lower
// precedence rules.
const (
	PREC_NONE       = iota
	PREC_ASSIGNMENT // =
	PREC_OR         // or
	PREC_AND        // and
	PREC_EQUALITY   // ==, !=
	PREC_COMPARISON // <, >, <=, >=
	PREC_TERM       // +, -
	PREC_FACTOR     // *, /
	PREC_UNARY      // !, -
	PREC_CALL       // ., ()
	PREC_PRIMARY
)

type ParseFunc func(*Compiler)

// parseRule defines the parsing behavior for a specific token type: an
// optional prefix handler, an optional infix handler, and the token's
// precedence level when used as an infix operator.
type parseRule struct {
	prefix     ParseFunc
	infix      ParseFunc
	precedence int
}

// Compiler holds the parser state for one compilation: the lexer it pulls
// tokens from, the chunk it emits into, and the heap it allocates string
// literals on.
type Compiler struct {
	lex   *lexer.Lexer
	chunk *chunk.Chunk
	heap  *heap.Heap

	current  token.Token
	previous token.Token

	// hadError records that at least one diagnostic was reported; the
	// compilation as a whole fails. panicMode suppresses the cascade of
	// follow-on diagnostics after the first until a synchronization
	// point (the expression grammar has none, so suppression lasts for
	// the rest of the compile).
	hadError  bool
	panicMode bool

	errOut io.Writer

	parsingRules map[token.TokenType]parseRule
}

// New creates a Compiler over the given source, emitting into ch and
// allocating string literals on h. Diagnostics are written to errOut.
func New(source string, ch *chunk.Chunk, h *heap.Heap, errOut io.Writer) *Compiler {
	c := &Compiler{
		lex:    lexer.New(source),
		chunk:  ch,
		heap:   h,
		errOut: errOut,

		parsingRules: map[token.TokenType]parseRule{
			token.LPA:          {prefix: (*Compiler).grouping, infix: nil, precedence: PREC_NONE},
			token.SUB:          {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PREC_TERM},
			token.ADD:          {prefix: nil, infix: (*Compiler).binary, precedence: PREC_TERM},
			token.DIV:          {prefix: nil, infix: (*Compiler).binary, precedence: PREC_FACTOR},
			token.MULT:         {prefix: nil, infix: (*Compiler).binary, precedence: PREC_FACTOR},
			token.BANG:         {prefix: (*Compiler).unary, infix: nil, precedence: PREC_NONE},
			token.NOT_EQUAL:    {prefix: nil, infix: (*Compiler).binary, precedence: PREC_EQUALITY},
			token.EQUAL_EQUAL:  {prefix: nil, infix: (*Compiler).binary, precedence: PREC_EQUALITY},
			token.LARGER:       {prefix: nil, infix: (*Compiler).binary, precedence: PREC_COMPARISON},
			token.LARGER_EQUAL: {prefix: nil, infix: (*Compiler).binary, precedence: PREC_COMPARISON},
			token.LESS:         {prefix: nil, infix: (*Compiler).binary, precedence: PREC_COMPARISON},
			token.LESS_EQUAL:   {prefix: nil, infix: (*Compiler).binary, precedence: PREC_COMPARISON},
			token.NUMBER:       {prefix: (*Compiler).number, infix: nil, precedence: PREC_NONE},
			token.STRING:       {prefix: (*Compiler).stringLiteral, infix: nil, precedence: PREC_NONE},
			token.TRUE:         {prefix: (*Compiler).literal, infix: nil, precedence: PREC_NONE},
			token.FALSE:        {prefix: (*Compiler).literal, infix: nil, precedence: PREC_NONE},
			token.NIL:          {prefix: (*Compiler).literal, infix: nil, precedence: PREC_NONE},
		},
	}
	return c
}

// Compile parses one expression followed by end of input and emits the
// bytecode for it, terminated by OP_RETURN. It reports a CompileError if
// any diagnostic was produced along the way.
func Compile(source string, ch *chunk.Chunk, h *heap.Heap, errOut io.Writer) error {
	c := New(source, ch, h, errOut)

	c.advance()
	c.expression()
	c.consume(token.EOF, "Expect end of expression.")
	c.emitOp(chunk.OP_RETURN)

	if c.hadError {
		return CompileError{}
	}
	return nil
}

// advance moves the parser one token forward. ERROR tokens produced by
// the lexer are reported here and skipped, so parse handlers only ever
// see well-formed tokens.
func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.ScanToken()
		if c.current.TokenType != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

// consume advances past the current token if it has the expected type,
// and reports the given diagnostic otherwise.
func (c *Compiler) consume(tokenType token.TokenType, message string) {
	if c.current.TokenType == tokenType {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// getParseRule retrieves the parsing rule associated with the given token
// type. Token types without an entry get a rule with no handlers and the
// lowest precedence, which makes them terminate any expression.
func (c *Compiler) getParseRule(tokenType token.TokenType) parseRule {
	rule, ok := c.parsingRules[tokenType]
	if !ok {
		return parseRule{prefix: nil, infix: nil, precedence: PREC_NONE}
	}
	return rule
}

// expression parses a single expression at the lowest binding power.
func (c *Compiler) expression() {
	c.parsePrecedence(PREC_ASSIGNMENT)
}

// parsePrecedence parses expressions at the provided precedence level or
// tighter. It consumes the leading token, applies its prefix rule, and
// then keeps applying infix rules while the next token binds at least as
// tightly as the requested level.
func (c *Compiler) parsePrecedence(precedence int) {
	c.advance()

	rule := c.getParseRule(c.previous.TokenType)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}
	rule.prefix(c)

	for precedence <= c.getParseRule(c.current.TokenType).precedence {
		c.advance()
		infix := c.getParseRule(c.previous.TokenType).infix
		infix(c)
	}
}

// grouping handles parenthesized expressions. The '(' has already been
// consumed as the prefix token.
func (c *Compiler) grouping() {
	c.expression()
	c.consume(token.RPA, "Expect ')' after expression.")
}

// unary parses the operand at unary precedence, then emits the negation
// or logical-not instruction. Parsing the operand first means the operand
// value sits on top of the stack when the operator executes.
func (c *Compiler) unary() {
	operator := c.previous.TokenType

	c.parsePrecedence(PREC_UNARY)

	switch operator {
	case token.SUB:
		c.emitOp(chunk.OP_NEGATE)
	case token.BANG:
		c.emitOp(chunk.OP_NOT)
	}
}

// binary parses and emits code for binary operators. The right-hand
// operand is parsed one precedence level above the operator's own, which
// makes every binary operator left-associative. The comparison operators
// without a dedicated opcode compile to their complement followed by
// OP_NOT.
func (c *Compiler) binary() {
	operator := c.previous.TokenType
	rule := c.getParseRule(operator)
	c.parsePrecedence(rule.precedence + 1)

	switch operator {
	case token.ADD:
		c.emitOp(chunk.OP_ADD)
	case token.SUB:
		c.emitOp(chunk.OP_SUBTRACT)
	case token.MULT:
		c.emitOp(chunk.OP_MULTIPLY)
	case token.DIV:
		c.emitOp(chunk.OP_DIVIDE)
	case token.EQUAL_EQUAL:
		c.emitOp(chunk.OP_EQUAL)
	case token.NOT_EQUAL:
		c.emitOp(chunk.OP_EQUAL)
		c.emitOp(chunk.OP_NOT)
	case token.LESS:
		c.emitOp(chunk.OP_LESS)
	case token.LESS_EQUAL:
		c.emitOp(chunk.OP_GREATER)
		c.emitOp(chunk.OP_NOT)
	case token.LARGER:
		c.emitOp(chunk.OP_GREATER)
	case token.LARGER_EQUAL:
		c.emitOp(chunk.OP_LESS)
		c.emitOp(chunk.OP_NOT)
	}
}

// number parses the previous lexeme as a 64-bit float and emits a
// constant load for it.
func (c *Compiler) number() {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Failed to parse number.")
		return
	}
	c.emitConstant(value.Double(n))
}

// stringLiteral allocates an interned string object from the previous
// lexeme and emits a constant load for its handle. The handle is pinned
// in the heap's root set: the constant pool keeps it reachable for the
// life of the program, so it must never be collected.
func (c *Compiler) stringLiteral() {
	h := c.heap.AllocString(c.previous.Lexeme)
	c.heap.AddRoot(h)
	c.emitConstant(value.Object(h))
}

// literal emits the instruction for nil, true or false.
func (c *Compiler) literal() {
	switch c.previous.TokenType {
	case token.NIL:
		c.emitOp(chunk.OP_NIL)
	case token.TRUE:
		c.emitOp(chunk.OP_TRUE)
	case token.FALSE:
		c.emitOp(chunk.OP_FALSE)
	}
}

// emitOp appends one instruction attributed to the line of the token that
// produced it.
func (c *Compiler) emitOp(op chunk.Opcode) {
	c.chunk.WriteOp(op, c.previous.Line)
}

// emitConstant adds a value to the constant pool and emits the load for
// it, picking the short form while the index fits in one byte and the
// long form while it fits in three.
func (c *Compiler) emitConstant(v value.Value) {
	index := c.chunk.AddConstant(v)
	line := c.previous.Line

	switch {
	case index <= chunk.MaxShortConstantIndex:
		c.chunk.WriteOp(chunk.OP_CONSTANT, line)
		c.chunk.WriteConstantOperand(index, line)
	case index <= chunk.MaxConstantIndex:
		c.chunk.WriteOp(chunk.OP_CONSTANT_LONG, line)
		c.chunk.WriteConstantLongOperand(index, line)
	default:
		c.error("Too many constants in one chunk.")
	}
}

// error reports a diagnostic at the token just consumed.
func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

// errorAtCurrent reports a diagnostic at the token being looked at.
func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

// errorAt writes a diagnostic naming the offending token's line and
// lexeme. The first error switches the compiler into panic mode, which
// swallows every further diagnostic so one mistake does not cascade.
func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	fmt.Fprintf(c.errOut, "[line %d] Error", tok.Line)
	switch tok.TokenType {
	case token.EOF:
		fmt.Fprintf(c.errOut, " at end")
	case token.ERROR:
		// the message is the diagnostic; there is no lexeme to point at
	default:
		fmt.Fprintf(c.errOut, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.errOut, ": %s\n", message)

	c.hadError = true
}
