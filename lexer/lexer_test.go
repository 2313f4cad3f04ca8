package lexer

import "testing"

func TestScanTokenPunctuationAndOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"(", LeftParen},
		{")", RightParen},
		{"{", LeftBrace},
		{"}", RightBrace},
		{",", Comma},
		{".", Dot},
		{"-", Minus},
		{"+", Plus},
		{";", Semicolon},
		{"/", Slash},
		{"*", Star},
		{"!", Bang},
		{"!=", BangEqual},
		{"=", Equal},
		{"==", EqualEqual},
		{">", Greater},
		{">=", GreaterEqual},
		{"<", Less},
		{"<=", LessEqual},
	}

	for _, tt := range tests {
		s := NewScanner(tt.input)
		tok := s.ScanToken()
		if tok.Type != tt.expected {
			t.Errorf("input %q: expected %s, got %s", tt.input, tt.expected, tok.Type)
		}
		if eof := s.ScanToken(); eof.Type != EOF {
			t.Errorf("input %q: expected single token, trailing %s", tt.input, eof.Type)
		}
	}
}

func TestScanTokenKeywordsVsIdentifiers(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"and", And}, {"class", Class}, {"else", Else}, {"false", False},
		{"for", For}, {"fun", Fun}, {"if", If}, {"nil", Nil}, {"or", Or},
		{"print", Print}, {"return", Return}, {"super", Super}, {"this", This},
		{"true", True}, {"var", Var}, {"while", While},
		{"classy", Identifier}, {"_underscore", Identifier}, {"x1", Identifier},
	}

	for _, tt := range tests {
		s := NewScanner(tt.input)
		tok := s.ScanToken()
		if tok.Type != tt.expected {
			t.Errorf("input %q: expected %s, got %s", tt.input, tt.expected, tok.Type)
		}
		if tok.Lexeme != tt.input {
			t.Errorf("input %q: expected lexeme %q, got %q", tt.input, tt.input, tok.Lexeme)
		}
	}
}

func TestScanTokenNumbers(t *testing.T) {
	for _, input := range []string{"0", "42", "3.14", "0.5"} {
		s := NewScanner(input)
		tok := s.ScanToken()
		if tok.Type != Number || tok.Lexeme != input {
			t.Errorf("input %q: got type %s lexeme %q", input, tok.Type, tok.Lexeme)
		}
	}
}

func TestScanTokenStrings(t *testing.T) {
	s := NewScanner(`"hello world"`)
	tok := s.ScanToken()
	if tok.Type != String {
		t.Fatalf("expected String, got %s", tok.Type)
	}
	if tok.Lexeme != `"hello world"` {
		t.Errorf("unexpected lexeme %q", tok.Lexeme)
	}
}

func TestScanTokenUnterminatedString(t *testing.T) {
	s := NewScanner(`"oops`)
	tok := s.ScanToken()
	if tok.Type != Error {
		t.Fatalf("expected Error, got %s", tok.Type)
	}
	if tok.Message != "Unterminated string." {
		t.Errorf("unexpected message %q", tok.Message)
	}
}

func TestScanTokenSkipsCommentsAndWhitespace(t *testing.T) {
	s := NewScanner("  // a comment\n  \t 42")
	tok := s.ScanToken()
	if tok.Type != Number || tok.Lexeme != "42" {
		t.Errorf("expected Number 42, got %s %q", tok.Type, tok.Lexeme)
	}
	if tok.Line != 2 {
		t.Errorf("expected line 2, got %d", tok.Line)
	}
}

func TestScanTokenLineTracking(t *testing.T) {
	s := NewScanner("var a\n= 1\n;")
	var lines []int
	for {
		tok := s.ScanToken()
		if tok.Type == EOF {
			break
		}
		lines = append(lines, tok.Line)
	}
	expected := []int{1, 1, 2, 2, 3}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(expected), len(lines), lines)
	}
	for i, l := range expected {
		if lines[i] != l {
			t.Errorf("token %d: expected line %d, got %d", i, l, lines[i])
		}
	}
}

func TestScanTokenEOFIsIdempotent(t *testing.T) {
	s := NewScanner("")
	for i := 0; i < 3; i++ {
		if tok := s.ScanToken(); tok.Type != EOF {
			t.Fatalf("call %d: expected EOF, got %s", i, tok.Type)
		}
	}
}
