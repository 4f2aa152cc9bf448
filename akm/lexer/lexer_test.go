package lexer

import "testing"

func TestBasicTokens(t *testing.T) {
	input := `( ) { } [ ] , . ; : => =`
	expected := []TokenType{
		LPAREN, RPAREN, LBRACE, RBRACE, LBRACKET, RBRACKET,
		COMMA, DOT, SEMI, COLON, ARROW, ASSIGN, EOF,
	}
	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token[%d] = %v, want %v", i, tok.Type, want)
		}
	}
}

func TestKeywords(t *testing.T) {
	l := New("function return let const var export true false null")
	want := []TokenType{FUNCTION, RETURN, LET, CONST, VAR, EXPORT, TRUE, FALSE, NULL}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Errorf("token[%d] = %v, want %v", i, tok.Type, w)
		}
	}
}

func TestIdentifiers(t *testing.T) {
	l := New("AKM _priv $dollar foo123")
	for _, want := range []string{"AKM", "_priv", "$dollar", "foo123"} {
		tok := l.NextToken()
		if tok.Type != IDENT || tok.Literal != want {
			t.Errorf("got %v(%q), want IDENT(%q)", tok.Type, tok.Literal, want)
		}
	}
}

func TestNumbers(t *testing.T) {
	cases := []string{"42", "3.14", "1e10", "2.5e-3"}
	for _, c := range cases {
		l := New(c)
		tok := l.NextToken()
		if tok.Type != NUMBER || tok.Literal != c {
			t.Errorf("Lex(%q) = %v(%q)", c, tok.Type, tok.Literal)
		}
	}
}

func TestStrings(t *testing.T) {
	l := New(`"hello" 'world' "esc\n\t"`)
	tok := l.NextToken()
	if tok.Type != STRING || tok.Literal != "hello" {
		t.Fatalf("got %v(%q)", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != STRING || tok.Literal != "world" {
		t.Fatalf("got %v(%q)", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != STRING || tok.Literal != "esc\n\t" {
		t.Fatalf("got %v(%q)", tok.Type, tok.Literal)
	}
}

func TestTemplateLiteral(t *testing.T) {
	l := New("`hi ${name}`")
	tok := l.NextToken()
	if tok.Type != TEMPLATE || tok.Literal != "hi ${name}" {
		t.Fatalf("got %v(%q)", tok.Type, tok.Literal)
	}
}

func TestComments(t *testing.T) {
	l := New("// line comment\n42 /* block\ncomment */ 43")
	tok := l.NextToken()
	if tok.Type != NUMBER || tok.Literal != "42" {
		t.Fatalf("got %v(%q)", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != NUMBER || tok.Literal != "43" {
		t.Fatalf("got %v(%q)", tok.Type, tok.Literal)
	}
}

func TestMultiCharOperators(t *testing.T) {
	l := New("=== !== == != <= >= && ||")
	want := []TokenType{EQEQEQ, NEEQ, EQ, NE, LE, GE, ANDAND, OROR}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Errorf("token[%d] = %v, want %v", i, tok.Type, w)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"oops`)
	tok := l.NextToken()
	if tok.Type != ERROR {
		t.Fatalf("got %v, want ERROR", tok.Type)
	}
}

func TestPositionTracking(t *testing.T) {
	l := New("a\nb")
	first := l.NextToken()
	if first.Pos.Line != 1 {
		t.Errorf("first token line = %d, want 1", first.Pos.Line)
	}
	second := l.NextToken()
	if second.Pos.Line != 2 {
		t.Errorf("second token line = %d, want 2", second.Pos.Line)
	}
}
