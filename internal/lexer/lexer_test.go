package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `val a = 3;
	var b := a + 10.5 - 1 * 2 / 3;
	if a <= b and not false { "x" } else { 'y' }`

	tests := []struct {
		expectedLiteral string
		expectedType    TokenType
	}{
		{"val", VAL},
		{"a", IDENT},
		{"=", ASSIGN},
		{"3", INT},
		{";", SEMICOLON},
		{"var", VAR},
		{"b", IDENT},
		{":", COLON},
		{"=", ASSIGN},
		{"a", IDENT},
		{"+", PLUS},
		{"10.5", FLOAT},
		{"-", MINUS},
		{"1", INT},
		{"*", STAR},
		{"2", INT},
		{"/", SLASH},
		{"3", INT},
		{";", SEMICOLON},
		{"if", IF},
		{"a", IDENT},
		{"<=", LTEQ},
		{"b", IDENT},
		{"and", AND},
		{"not", NOT},
		{"false", FALSE},
		{"{", LBRACE},
		{"x", STRING},
		{"}", RBRACE},
		{"else", ELSE},
		{"{", LBRACE},
		{"y", CHAR},
		{"}", RBRACE},
		{"", EOF},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s (literal=%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	input := `val var any null int float bool char string array map nullable as
		true false struct mkstruct enum interface ref This this fun if else match and or not`

	tests := []TokenType{
		VAL, VAR, ANY, NULL, INT_KW, FLOAT_KW, BOOL_KW, CHAR_KW, STRING_KW,
		ARRAY, MAP, NULLABLE, AS,
		TRUE, FALSE, STRUCT, MKSTRUCT, ENUM, INTERFACE, REF, THIS_CAP, THIS, FUN,
		IF, ELSE, MATCH, AND, OR, NOT,
	}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - expected=%s, got=%s (literal=%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestCaseSensitiveThis(t *testing.T) {
	// "This" (receiver type) and "this" (receiver value) must lex to
	// different token types, unlike go-dws's case-insensitive keywords.
	l := New(`This this`)
	first := l.NextToken()
	second := l.NextToken()
	if first.Type != THIS_CAP {
		t.Fatalf("expected THIS_CAP, got %s", first.Type)
	}
	if second.Type != THIS {
		t.Fatalf("expected THIS, got %s", second.Type)
	}
}

func TestPunctuationAndCompoundOperators(t *testing.T) {
	l := New(`{ } [ ] ( ) ; , . .. : :: + - * / += -= *= /= = == != < <= > >= ->`)
	want := []TokenType{
		LBRACE, RBRACE, LBRACKET, RBRACKET, LPAREN, RPAREN,
		SEMICOLON, COMMA, DOT, DOTDOT, COLON, COLONCOLON,
		PLUS, MINUS, STAR, SLASH, PLUSEQ, MINUSEQ, STAREQ, SLASHEQ,
		ASSIGN, EQ, NOTEQ, LT, LTEQ, GT, GTEQ, ARROW,
	}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Fatalf("tests[%d] - expected=%s, got=%s", i, w, tok.Type)
		}
	}
}

func TestComments(t *testing.T) {
	l := New("1 // this is a comment\n+ 2")
	want := []TokenType{INT, PLUS, INT, EOF}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Fatalf("tests[%d] - expected=%s, got=%s", i, w, tok.Type)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\tc\\d"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %s", tok.Type)
	}
	want := "a\nb\tc\\d"
	if tok.Literal != want {
		t.Fatalf("expected %q, got %q", want, tok.Literal)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"abc`)
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s", tok.Type)
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("expected 1 lex error, got %d", len(l.Errors()))
	}
}

func TestOverlongCharLiteral(t *testing.T) {
	l := New(`'ab'`)
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s", tok.Type)
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("expected 1 lex error, got %d", len(l.Errors()))
	}
}

func TestUnknownCharacter(t *testing.T) {
	l := New("1 $ 2")
	l.NextToken() // 1
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s", tok.Type)
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("expected 1 lex error, got %d", len(l.Errors()))
	}
}

func TestMultibyteColumnsCountAsOneRune(t *testing.T) {
	l := New("日 x")
	first := l.NextToken()
	if first.Pos.Column != 1 {
		t.Fatalf("expected column 1 for first rune, got %d", first.Pos.Column)
	}
	second := l.NextToken()
	if second.Literal != "x" || second.Pos.Column != 3 {
		t.Fatalf("expected x at column 3, got %q at %d", second.Literal, second.Pos.Column)
	}
}
