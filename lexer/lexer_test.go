package lexer

import (
	"reflect"
	"testing"

	"rlox/token"
)

// scanAll drains the lexer up to and including the first EOF token.
func scanAll(lex *Lexer) []token.Token {
	var tokens []token.Token
	for {
		tok := lex.ScanToken()
		tokens = append(tokens, tok)
		if tok.TokenType == token.EOF {
			return tokens
		}
	}
}

func types(tokens []token.Token) []token.TokenType {
	result := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		result[i] = tok.TokenType
	}
	return result
}

func TestScanOperators(t *testing.T) {
	expected := []token.TokenType{
		token.EQUAL_EQUAL,
		token.DIV,
		token.ASSIGN,
		token.MULT,
		token.ADD,
		token.LARGER,
		token.SUB,
		token.LESS,
		token.NOT_EQUAL,
		token.LESS_EQUAL,
		token.LARGER_EQUAL,
		token.BANG,
		token.BANG,
		token.EOF,
	}

	got := types(scanAll(New("==/=*+>-<!=<=>=!!")))
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("scanned token types = %v, want %v", got, expected)
	}
}

func TestScanPunctuation(t *testing.T) {
	expected := []token.TokenType{
		token.LPA,
		token.RPA,
		token.LCUR,
		token.RCUR,
		token.COMMA,
		token.DOT,
		token.SEMICOLON,
		token.EOF,
	}

	got := types(scanAll(New("(){},.;")))
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("scanned token types = %v, want %v", got, expected)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		source   string
		expected token.TokenType
	}{
		{"and", token.AND},
		{"class", token.CLASS},
		{"else", token.ELSE},
		{"false", token.FALSE},
		{"for", token.FOR},
		{"fun", token.FUNC},
		{"if", token.IF},
		{"nil", token.NIL},
		{"or", token.OR},
		{"print", token.PRINT},
		{"return", token.RETURN},
		{"super", token.SUPER},
		{"this", token.THIS},
		{"true", token.TRUE},
		{"var", token.VAR},
		{"while", token.WHILE},
		{"andy", token.IDENTIFIER},
		{"_foo", token.IDENTIFIER},
		{"Nil", token.IDENTIFIER},
	}

	for _, tt := range tests {
		tok := New(tt.source).ScanToken()
		if tok.TokenType != tt.expected {
			t.Errorf("ScanToken(%q) type = %v, want %v", tt.source, tok.TokenType, tt.expected)
		}
		if tok.Lexeme != tt.source {
			t.Errorf("ScanToken(%q) lexeme = %q, want %q", tt.source, tok.Lexeme, tt.source)
		}
	}
}

func TestStringLiteralLexemeIsInterior(t *testing.T) {
	tok := New(`"foo bar"`).ScanToken()
	if tok.TokenType != token.STRING {
		t.Fatalf("token type = %v, want STRING", tok.TokenType)
	}
	if tok.Lexeme != "foo bar" {
		t.Errorf("lexeme = %q, want %q", tok.Lexeme, "foo bar")
	}
}

func TestStringLiteralSpansLines(t *testing.T) {
	lex := New("\"a\nb\" 1")
	str := lex.ScanToken()
	if str.TokenType != token.STRING || str.Lexeme != "a\nb" {
		t.Fatalf("got %v, want STRING with interior lexeme", str)
	}
	number := lex.ScanToken()
	if number.Line != 2 {
		t.Errorf("token after multi-line string on line %d, want 2", number.Line)
	}
}

func TestUnterminatedString(t *testing.T) {
	tok := New(`"abc`).ScanToken()
	if tok.TokenType != token.ERROR {
		t.Fatalf("token type = %v, want ERROR", tok.TokenType)
	}
	if tok.Lexeme != "Unterminated string literal." {
		t.Errorf("diagnostic = %q", tok.Lexeme)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		source   string
		expected []token.TokenType
		lexemes  []string
	}{
		{"123", []token.TokenType{token.NUMBER, token.EOF}, []string{"123", ""}},
		{"12.5", []token.TokenType{token.NUMBER, token.EOF}, []string{"12.5", ""}},
		// a trailing '.' is not part of the number
		{"123.", []token.TokenType{token.NUMBER, token.DOT, token.EOF}, []string{"123", ".", ""}},
		{"1.2.3", []token.TokenType{token.NUMBER, token.DOT, token.NUMBER, token.EOF}, []string{"1.2", ".", "3", ""}},
	}

	for _, tt := range tests {
		tokens := scanAll(New(tt.source))
		if !reflect.DeepEqual(types(tokens), tt.expected) {
			t.Errorf("types(%q) = %v, want %v", tt.source, types(tokens), tt.expected)
			continue
		}
		for i, lexeme := range tt.lexemes {
			if lexeme == "" {
				continue
			}
			if tokens[i].Lexeme != lexeme {
				t.Errorf("lexeme %d of %q = %q, want %q", i, tt.source, tokens[i].Lexeme, lexeme)
			}
		}
	}
}

func TestCommentsAndLineCounting(t *testing.T) {
	lex := New("1 // a comment\n2\n// only a comment\n3")

	one := lex.ScanToken()
	two := lex.ScanToken()
	three := lex.ScanToken()
	eof := lex.ScanToken()

	if one.Line != 1 || two.Line != 2 || three.Line != 4 {
		t.Errorf("lines = %d, %d, %d, want 1, 2, 4", one.Line, two.Line, three.Line)
	}
	if eof.TokenType != token.EOF {
		t.Errorf("final token = %v, want EOF", eof.TokenType)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	tok := New("@").ScanToken()
	if tok.TokenType != token.ERROR {
		t.Fatalf("token type = %v, want ERROR", tok.TokenType)
	}
	if tok.Lexeme != "Unexpected character." {
		t.Errorf("diagnostic = %q", tok.Lexeme)
	}
}

func TestEOFIsIdempotent(t *testing.T) {
	lex := New("1")
	lex.ScanToken()
	for i := 0; i < 5; i++ {
		tok := lex.ScanToken()
		if tok.TokenType != token.EOF {
			t.Fatalf("call %d after EOF returned %v, want EOF", i, tok.TokenType)
		}
	}
}

// Scanning two programs with separate lexers yields the same tokens as
// scanning their concatenation, provided no token spans the boundary.
func TestScanIsAssociativeOverConcatenation(t *testing.T) {
	a := "1 + 2"
	b := "(3 * 4)"

	var separate []token.TokenType
	separate = append(separate, types(scanAll(New(a)))...)
	separate = separate[:len(separate)-1] // drop the EOF between the halves
	separate = append(separate, types(scanAll(New(b)))...)

	joined := types(scanAll(New(a + " " + b)))

	if !reflect.DeepEqual(joined, separate) {
		t.Errorf("tokens(%q) = %v, want %v", a+" "+b, joined, separate)
	}
}
