// Package vm executes compiled chunks on a stack-based virtual machine.
// The VM borrows the chunk and the heap for the duration of a run; while
// running it registers itself as a GC root source so every value on its
// stack survives collections that fire mid-execution.
package vm

import (
	"fmt"
	"io"
	"os"

	"rlox/chunk"
	"rlox/compiler"
	"rlox/heap"
	"rlox/value"
)

// STACK_MAX is the fixed capacity of the value stack.
const STACK_MAX = 256

// VM is the runtime environment where bytecode gets executed. The
// instruction pointer is an offset into the chunk's code, never a raw
// pointer, so relocation of the underlying slice can never leave it
// dangling.
type VM struct {
	chunk    *chunk.Chunk
	ip       int
	stack    [STACK_MAX]value.Value
	stackTop int

	heap *heap.Heap

	out    io.Writer
	errOut io.Writer

	// trace prints the stack contents and the disassembled instruction
	// before each dispatch.
	trace bool
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithOutput redirects result printing (the output of OP_RETURN).
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithErrorOutput redirects diagnostics and trace output.
func WithErrorOutput(w io.Writer) Option {
	return func(vm *VM) { vm.errOut = w }
}

// WithTrace switches per-instruction execution tracing.
func WithTrace(enabled bool) Option {
	return func(vm *VM) { vm.trace = enabled }
}

// New creates a VM backed by the given heap. By default results go to
// stdout and diagnostics to stderr.
func New(h *heap.Heap, opts ...Option) *VM {
	vm := &VM{
		heap:   h,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Interpret compiles the source into a fresh chunk and executes it. The
// error, if any, is a compiler.CompileError or a RuntimeError; the
// diagnostics themselves have already been printed.
func (vm *VM) Interpret(source string) error {
	ch := chunk.New()
	if err := compiler.Compile(source, ch, vm.heap, vm.errOut); err != nil {
		return err
	}
	return vm.Run(ch)
}

// Run executes the chunk's bytecode from its first byte. It terminates
// successfully on OP_RETURN, with a RuntimeError on a type error, or with
// a plain error on a corrupted instruction stream.
func (vm *VM) Run(ch *chunk.Chunk) error {
	vm.chunk = ch
	vm.ip = 0
	vm.stackTop = 0

	// Every allocation below may trigger a collection; the stack scan
	// keeps mid-execution temporaries alive.
	vm.heap.AddRootSource(vm)
	defer vm.heap.RemoveRootSource(vm)

	for {
		if vm.trace {
			vm.printStack()
			vm.chunk.DisassembleInstruction(vm.errOut, vm.ip)
		}

		opStart := vm.ip
		op := chunk.Opcode(vm.readByte())

		switch op {
		case chunk.OP_RETURN:
			fmt.Fprintln(vm.out, vm.formatValue(vm.pop()))
			return nil

		case chunk.OP_CONSTANT:
			if err := vm.push(vm.chunk.Constants[vm.readByte()], opStart); err != nil {
				return err
			}

		case chunk.OP_CONSTANT_LONG:
			index := vm.chunk.ReadU24(vm.ip)
			vm.ip += 3
			if err := vm.push(vm.chunk.Constants[index], opStart); err != nil {
				return err
			}

		case chunk.OP_NIL:
			if err := vm.push(value.Nil(), opStart); err != nil {
				return err
			}

		case chunk.OP_TRUE:
			if err := vm.push(value.Bool(true), opStart); err != nil {
				return err
			}

		case chunk.OP_FALSE:
			if err := vm.push(value.Bool(false), opStart); err != nil {
				return err
			}

		case chunk.OP_NEGATE:
			if vm.peek(0).Type != value.DOUBLE {
				return vm.runtimeError(opStart, "Operand must be a number.")
			}
			vm.stack[vm.stackTop-1] = value.Double(-vm.stack[vm.stackTop-1].Number)

		case chunk.OP_NOT:
			vm.stack[vm.stackTop-1] = value.Bool(vm.stack[vm.stackTop-1].IsFalsey())

		case chunk.OP_EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.stack[vm.stackTop] = value.Bool(vm.valuesEqual(a, b))
			vm.stackTop++

		case chunk.OP_GREATER:
			if err := vm.numericOperands(opStart); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.stack[vm.stackTop] = value.Bool(a.Number > b.Number)
			vm.stackTop++

		case chunk.OP_LESS:
			if err := vm.numericOperands(opStart); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.stack[vm.stackTop] = value.Bool(a.Number < b.Number)
			vm.stackTop++

		case chunk.OP_ADD:
			if _, ok := vm.asString(vm.peek(0)); ok {
				if _, ok := vm.asString(vm.peek(1)); ok {
					vm.concatenate()
					break
				}
			}
			if vm.peek(0).Type != value.DOUBLE || vm.peek(1).Type != value.DOUBLE {
				return vm.runtimeError(opStart, "Operands must be two numbers or two strings.")
			}
			b := vm.pop()
			a := vm.pop()
			vm.stack[vm.stackTop] = value.Double(a.Number + b.Number)
			vm.stackTop++

		case chunk.OP_SUBTRACT:
			if err := vm.numericOperands(opStart); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.stack[vm.stackTop] = value.Double(a.Number - b.Number)
			vm.stackTop++

		case chunk.OP_MULTIPLY:
			if err := vm.numericOperands(opStart); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.stack[vm.stackTop] = value.Double(a.Number * b.Number)
			vm.stackTop++

		case chunk.OP_DIVIDE:
			if err := vm.numericOperands(opStart); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			// division by zero follows IEEE-754: 1/0 is +Inf
			vm.stack[vm.stackTop] = value.Double(a.Number / b.Number)
			vm.stackTop++

		default:
			// a corrupted instruction stream, not a user error
			return fmt.Errorf("unknown opcode %d at ip %d", byte(op), opStart)
		}
	}
}

// MarkRoots reports the live prefix of the value stack and the current
// chunk's constants to the collector. This implements heap.RootSource.
func (vm *VM) MarkRoots(mark func(heap.Handle)) {
	for i := 0; i < vm.stackTop; i++ {
		if vm.stack[i].Type == value.OBJECT {
			mark(vm.stack[i].Obj)
		}
	}
	if vm.chunk != nil {
		for _, c := range vm.chunk.Constants {
			if c.Type == value.OBJECT {
				mark(c.Obj)
			}
		}
	}
}

// readByte fetches the byte at the instruction pointer and advances it.
func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

// push places a value on top of the stack, failing with a runtime error
// when the fixed capacity is exhausted.
func (vm *VM) push(v value.Value, opStart int) error {
	if vm.stackTop >= STACK_MAX {
		return vm.runtimeError(opStart, "Stack overflow.")
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
	return nil
}

// pop removes and returns the top of the stack.
func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

// peek returns the value distance slots down from the top without
// removing it.
func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// numericOperands verifies that the top two stack values are doubles.
func (vm *VM) numericOperands(opStart int) error {
	if vm.peek(0).Type != value.DOUBLE || vm.peek(1).Type != value.DOUBLE {
		return vm.runtimeError(opStart, "Operands must be numbers.")
	}
	return nil
}

// concatenate replaces the two string operands on top of the stack with
// their concatenation. The operands are peeked, not popped, before the
// allocation: the allocation may run a collection, and the stack scan is
// what keeps them alive through it.
func (vm *VM) concatenate() {
	right, _ := vm.asString(vm.peek(0))
	left, _ := vm.asString(vm.peek(1))

	h := vm.heap.AllocString(left + right)

	vm.pop()
	vm.pop()
	vm.stack[vm.stackTop] = value.Object(h)
	vm.stackTop++
}

// asString resolves a value to string content if it is a handle to a
// string object.
func (vm *VM) asString(v value.Value) (string, bool) {
	if v.Type != value.OBJECT {
		return "", false
	}
	return vm.heap.GetString(v.Obj)
}

// valuesEqual implements the language's equality: cross-variant
// comparisons are false, and strings compare by content. Interning makes
// equal handles the common case, but the byte comparison keeps the
// user-facing semantics independent of that optimization.
func (vm *VM) valuesEqual(a, b value.Value) bool {
	if a.Type == value.OBJECT && b.Type == value.OBJECT {
		if a.Obj == b.Obj {
			return true
		}
		as, aok := vm.asString(a)
		bs, bok := vm.asString(b)
		if aok && bok {
			return as == bs
		}
	}
	return a.Equals(b)
}

// formatValue renders a value for user-facing output, resolving string
// handles to their raw bytes.
func (vm *VM) formatValue(v value.Value) string {
	if s, ok := vm.asString(v); ok {
		return s
	}
	return v.String()
}

// printStack writes the current stack contents for the trace mode.
func (vm *VM) printStack() {
	fmt.Fprintf(vm.errOut, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.errOut, "[ %s ]", vm.formatValue(vm.stack[i]))
	}
	fmt.Fprintln(vm.errOut)
}

// runtimeError reports a diagnostic with the source line of the failing
// instruction and produces the RuntimeError that halts the run. The stack
// is not restored.
func (vm *VM) runtimeError(opStart int, format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	line := vm.chunk.Lines[opStart]

	fmt.Fprintln(vm.errOut, message)
	fmt.Fprintf(vm.errOut, "line [%d] in script\n", line)

	return RuntimeError{Message: message, Line: line}
}
