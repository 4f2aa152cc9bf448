// Package parser implements a hand-written recursive-descent parser over
// akm/lexer's token stream, producing akm/ast nodes. It accepts a
// practical ES2020-level subset: the grammar a reimplementation needs is
// small, so there is no dependency on a general-purpose JavaScript parser
// (none exists among the example libraries this project draws from).
package parser

import (
	"fmt"
	"strconv"

	"github.com/chazu/akmc/akm/ast"
	"github.com/chazu/akmc/akm/lexer"
)

// Parser turns a token stream into an akm/ast.Program, accumulating
// structured syntax errors instead of panicking on the first one where
// recovery is straightforward (statement boundaries).
type Parser struct {
	file string
	lex  *lexer.Lexer
	tok  lexer.Token
	errs []*SyntaxError
}

// New creates a Parser for the given source, tagging errors with file
// (typically the input path, used only for diagnostics).
func New(file, src string) *Parser {
	p := &Parser{file: file, lex: lexer.New(src)}
	p.advance()
	return p
}

// Errors returns every syntax error accumulated during parsing.
func (p *Parser) Errors() []*SyntaxError { return p.errs }

func (p *Parser) advance() {
	p.tok = p.lex.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs = append(p.errs, &SyntaxError{
		File:    p.file,
		Line:    p.tok.Pos.Line,
		Column:  p.tok.Pos.Column,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	tok := p.tok
	if tok.Type != tt {
		p.errorf("expected %s, got %s", tt, tok.Type)
	} else {
		p.advance()
	}
	return tok
}

func (p *Parser) span(start ast.Position) ast.Span {
	return ast.Span{Start: start, End: toASTPos(p.tok.Pos)}
}

func toASTPos(pos lexer.Position) ast.Position {
	return ast.Position{Offset: pos.Offset, Line: pos.Line, Column: pos.Column}
}

// ParseProgram parses the entire source as a sequence of top-level
// statements, recovering to the next statement boundary on error.
func (p *Parser) ParseProgram() *ast.Program {
	start := toASTPos(p.tok.Pos)
	prog := &ast.Program{}
	for p.tok.Type != lexer.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		} else {
			p.recover()
		}
	}
	prog.SpanVal = ast.Span{Start: start, End: toASTPos(p.tok.Pos)}
	return prog
}

// recover skips tokens until the next statement boundary so one syntax
// error doesn't cascade into spurious follow-on errors.
func (p *Parser) recover() {
	for p.tok.Type != lexer.SEMI && p.tok.Type != lexer.EOF && p.tok.Type != lexer.RBRACE {
		p.advance()
	}
	if p.tok.Type == lexer.SEMI {
		p.advance()
	}
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.tok.Type {
	case lexer.FUNCTION:
		return p.parseFunctionDecl()
	case lexer.LET, lexer.CONST, lexer.VAR:
		return p.parseVarDecl()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.EXPORT:
		return p.parseExport()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IDENT:
		switch p.tok.Literal {
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		}
		return p.parseExprStatement()
	case lexer.SEMI:
		p.advance()
		return &ast.OtherStmt{Kind: "empty"}
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseExprStatement() ast.Stmt {
	start := toASTPos(p.tok.Pos)
	expr := p.parseExpr()
	if p.tok.Type == lexer.SEMI {
		p.advance()
	}
	stmt := &ast.ExprStmt{Expr: expr}
	stmt.SpanVal = p.span(start)
	return stmt
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := toASTPos(p.tok.Pos)
	p.expect(lexer.LBRACE)
	blk := &ast.BlockStmt{}
	for p.tok.Type != lexer.RBRACE && p.tok.Type != lexer.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			blk.Body = append(blk.Body, stmt)
		} else {
			p.recover()
		}
	}
	p.expect(lexer.RBRACE)
	blk.SpanVal = p.span(start)
	return blk
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	start := toASTPos(p.tok.Pos)
	p.expect(lexer.FUNCTION)
	name := p.expect(lexer.IDENT).Literal
	params := p.parseParamList()
	body := p.parseBlock()
	decl := &ast.FunctionDecl{Name: name, Params: params, Body: body}
	decl.SpanVal = p.span(start)
	return decl
}

func (p *Parser) parseParamList() []string {
	p.expect(lexer.LPAREN)
	var params []string
	for p.tok.Type != lexer.RPAREN && p.tok.Type != lexer.EOF {
		if p.tok.Type == lexer.IDENT {
			params = append(params, p.tok.Literal)
			p.advance()
		} else {
			p.errorf("expected parameter name, got %s", p.tok.Type)
			p.advance()
		}
		// Default values are accepted and skipped (spec §4.1: "pattern
		// defaults accepted"); rest parameters are not supported.
		if p.tok.Type == lexer.ASSIGN {
			p.advance()
			p.parseAssignExpr()
		}
		if p.tok.Type == lexer.COMMA {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := toASTPos(p.tok.Pos)
	kind := p.tok.Literal
	p.advance() // let/const/var
	decl := &ast.VarDecl{Kind: kind}
	for {
		name := p.expect(lexer.IDENT).Literal
		var init ast.Expr
		if p.tok.Type == lexer.ASSIGN {
			p.advance()
			init = p.parseAssignExpr()
		}
		decl.Declarators = append(decl.Declarators, ast.VarDeclarator{Name: name, Init: init})
		if p.tok.Type != lexer.COMMA {
			break
		}
		p.advance()
	}
	if p.tok.Type == lexer.SEMI {
		p.advance()
	}
	decl.SpanVal = p.span(start)
	return decl
}

func (p *Parser) parseReturn() *ast.ReturnStmt {
	start := toASTPos(p.tok.Pos)
	p.expect(lexer.RETURN)
	var arg ast.Expr
	if p.tok.Type != lexer.SEMI && p.tok.Type != lexer.RBRACE && p.tok.Type != lexer.EOF {
		arg = p.parseExpr()
	}
	if p.tok.Type == lexer.SEMI {
		p.advance()
	}
	ret := &ast.ReturnStmt{Argument: arg}
	ret.SpanVal = p.span(start)
	return ret
}

func (p *Parser) parseExport() ast.Stmt {
	start := toASTPos(p.tok.Pos)
	p.expect(lexer.EXPORT)
	if p.tok.Type == lexer.LBRACE {
		p.advance()
		var specs []ast.ExportSpecifier
		for p.tok.Type != lexer.RBRACE && p.tok.Type != lexer.EOF {
			specs = append(specs, ast.ExportSpecifier{Name: p.expect(lexer.IDENT).Literal})
			if p.tok.Type == lexer.COMMA {
				p.advance()
			}
		}
		p.expect(lexer.RBRACE)
		if p.tok.Type == lexer.SEMI {
			p.advance()
		}
		exp := &ast.ExportNamedDecl{Specifiers: specs}
		exp.SpanVal = p.span(start)
		return exp
	}
	decl := p.parseStatement()
	exp := &ast.ExportNamedDecl{Declaration: decl}
	exp.SpanVal = p.span(start)
	return exp
}

func (p *Parser) parseIf() ast.Stmt {
	start := toASTPos(p.tok.Pos)
	p.advance() // "if"
	p.expect(lexer.LPAREN)
	cond := p.parseExpr()
	p.expect(lexer.RPAREN)
	then := p.parseStatement()
	children := []ast.Node{cond, then}
	if p.tok.Type == lexer.IDENT && p.tok.Literal == "else" {
		p.advance()
		children = append(children, p.parseStatement())
	}
	st := &ast.OtherStmt{Kind: "if", Children: children}
	st.SpanVal = p.span(start)
	return st
}

func (p *Parser) parseWhile() ast.Stmt {
	start := toASTPos(p.tok.Pos)
	p.advance() // "while"
	p.expect(lexer.LPAREN)
	cond := p.parseExpr()
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	st := &ast.OtherStmt{Kind: "while", Children: []ast.Node{cond, body}}
	st.SpanVal = p.span(start)
	return st
}

func (p *Parser) parseFor() ast.Stmt {
	start := toASTPos(p.tok.Pos)
	p.advance() // "for"
	p.expect(lexer.LPAREN)
	var children []ast.Node
	if p.tok.Type != lexer.SEMI {
		if p.tok.Type == lexer.LET || p.tok.Type == lexer.CONST || p.tok.Type == lexer.VAR {
			children = append(children, p.parseVarDecl())
		} else {
			children = append(children, p.parseExpr())
			p.expect(lexer.SEMI)
		}
	} else {
		p.advance()
	}
	if p.tok.Type != lexer.SEMI {
		children = append(children, p.parseExpr())
	}
	p.expect(lexer.SEMI)
	if p.tok.Type != lexer.RPAREN {
		children = append(children, p.parseExpr())
	}
	p.expect(lexer.RPAREN)
	children = append(children, p.parseStatement())
	st := &ast.OtherStmt{Kind: "for", Children: children}
	st.SpanVal = p.span(start)
	return st
}

// ---------------------------------------------------------------------
// Expressions, lowest to highest precedence.
// ---------------------------------------------------------------------

func (p *Parser) parseExpr() ast.Expr { return p.parseAssignExpr() }

func (p *Parser) parseAssignExpr() ast.Expr {
	if p.tok.Type == lexer.LPAREN || p.tok.Type == lexer.IDENT {
		if fn, ok := p.tryParseArrow(); ok {
			return fn
		}
	}
	left := p.parseOr()
	if p.tok.Type == lexer.ASSIGN {
		start := left.Span().Start
		p.advance()
		right := p.parseAssignExpr()
		bin := &ast.BinaryExpr{Op: "=", Left: left, Right: right}
		bin.SpanVal = p.span(start)
		return bin
	}
	return left
}

// tryParseArrow speculatively parses "(params) => body" or "x => body".
// It snapshots the lexer/parser state and only commits if an ARROW token
// actually follows the parameter list.
func (p *Parser) tryParseArrow() (*ast.FunctionExpr, bool) {
	// Single bare identifier arrow: "x => expr"
	if p.tok.Type == lexer.IDENT {
		save, lexSave := *p, *p.lex
		name := p.tok.Literal
		startPos := toASTPos(p.tok.Pos)
		p.advance()
		if p.tok.Type == lexer.ARROW {
			p.advance()
			body := p.parseArrowBody()
			fn := &ast.FunctionExpr{Params: []string{name}, Body: body}
			fn.SpanVal = p.span(startPos)
			return fn, true
		}
		*p = save
		*p.lex = lexSave
		return nil, false
	}
	// Parenthesized param list arrow: "(a, b) => expr"
	save, lexSave := *p, *p.lex
	start := toASTPos(p.tok.Pos)
	params, ok := p.tryParseParamListOnly()
	if !ok || p.tok.Type != lexer.ARROW {
		*p = save
		*p.lex = lexSave
		return nil, false
	}
	p.advance()
	body := p.parseArrowBody()
	fn := &ast.FunctionExpr{Params: params, Body: body}
	fn.SpanVal = p.span(start)
	return fn, true
}

// tryParseParamListOnly parses "(ident, ident, ...)" without reporting
// errors; it's used purely to look ahead for an arrow function.
func (p *Parser) tryParseParamListOnly() ([]string, bool) {
	if p.tok.Type != lexer.LPAREN {
		return nil, false
	}
	p.advance()
	var params []string
	for p.tok.Type != lexer.RPAREN {
		if p.tok.Type != lexer.IDENT {
			return nil, false
		}
		params = append(params, p.tok.Literal)
		p.advance()
		if p.tok.Type == lexer.ASSIGN {
			p.advance()
			p.parseAssignExpr()
		}
		if p.tok.Type == lexer.COMMA {
			p.advance()
			continue
		}
		if p.tok.Type != lexer.RPAREN {
			return nil, false
		}
	}
	p.advance() // RPAREN
	return params, true
}

func (p *Parser) parseArrowBody() *ast.BlockStmt {
	if p.tok.Type == lexer.LBRACE {
		return p.parseBlock()
	}
	start := toASTPos(p.tok.Pos)
	expr := p.parseAssignExpr()
	ret := &ast.ReturnStmt{Argument: expr}
	ret.SpanVal = p.span(start)
	blk := &ast.BlockStmt{Body: []ast.Stmt{ret}}
	blk.SpanVal = p.span(start)
	return blk
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.tok.Type == lexer.OROR {
		op := p.tok.Literal
		p.advance()
		right := p.parseAnd()
		left = mkBinary(p, left, op, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseBitOr()
	for p.tok.Type == lexer.ANDAND {
		op := p.tok.Literal
		p.advance()
		right := p.parseBitOr()
		left = mkBinary(p, left, op, right)
	}
	return left
}

func (p *Parser) parseBitOr() ast.Expr {
	left := p.parseBitXor()
	for p.tok.Type == lexer.PIPE {
		p.advance()
		right := p.parseBitXor()
		left = mkBinary(p, left, "|", right)
	}
	return left
}

func (p *Parser) parseBitXor() ast.Expr {
	left := p.parseBitAnd()
	for p.tok.Type == lexer.CARET {
		p.advance()
		right := p.parseBitAnd()
		left = mkBinary(p, left, "^", right)
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Expr {
	left := p.parseEquality()
	for p.tok.Type == lexer.AMP {
		p.advance()
		right := p.parseEquality()
		left = mkBinary(p, left, "&", right)
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.tok.Type == lexer.EQ || p.tok.Type == lexer.EQEQEQ || p.tok.Type == lexer.NE || p.tok.Type == lexer.NEEQ {
		op := p.tok.Literal
		p.advance()
		right := p.parseRelational()
		left = mkBinary(p, left, op, right)
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for p.tok.Type == lexer.LT || p.tok.Type == lexer.GT || p.tok.Type == lexer.LE || p.tok.Type == lexer.GE {
		op := p.tok.Literal
		p.advance()
		right := p.parseAdditive()
		left = mkBinary(p, left, op, right)
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.tok.Type == lexer.PLUS || p.tok.Type == lexer.MINUS {
		op := p.tok.Literal
		p.advance()
		right := p.parseMultiplicative()
		left = mkBinary(p, left, op, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.tok.Type == lexer.STAR || p.tok.Type == lexer.SLASH {
		op := p.tok.Literal
		p.advance()
		right := p.parseUnary()
		left = mkBinary(p, left, op, right)
	}
	return left
}

func mkBinary(p *Parser, left ast.Expr, op string, right ast.Expr) *ast.BinaryExpr {
	bin := &ast.BinaryExpr{Op: op, Left: left, Right: right}
	bin.SpanVal = p.span(left.Span().Start)
	return bin
}

func (p *Parser) parseUnary() ast.Expr {
	if p.tok.Type == lexer.MINUS || p.tok.Type == lexer.BANG || p.tok.Type == lexer.TILDE {
		start := toASTPos(p.tok.Pos)
		op := p.tok.Literal
		p.advance()
		operand := p.parseUnary()
		u := &ast.UnaryExpr{Op: op, Operand: operand}
		u.SpanVal = p.span(start)
		return u
	}
	return p.parseCallOrMember()
}

func (p *Parser) parseCallOrMember() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.tok.Type {
		case lexer.DOT:
			p.advance()
			prop := p.expect(lexer.IDENT).Literal
			m := &ast.MemberExpr{Object: expr, Property: prop}
			m.SpanVal = p.span(expr.Span().Start)
			expr = m
		case lexer.LPAREN:
			args := p.parseArgs()
			c := &ast.CallExpr{Callee: expr, Arguments: args}
			c.SpanVal = p.span(expr.Span().Start)
			expr = c
		case lexer.LBRACKET:
			// Computed member access is accepted syntactically but not a
			// recognized extraction form; it's wrapped opaquely since no
			// value is derivable by the restricted evaluator.
			p.advance()
			p.parseExpr()
			p.expect(lexer.RBRACKET)
			u := &ast.UnaryExpr{Op: "[]", Operand: expr}
			u.SpanVal = p.span(expr.Span().Start)
			expr = u
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect(lexer.LPAREN)
	var args []ast.Expr
	for p.tok.Type != lexer.RPAREN && p.tok.Type != lexer.EOF {
		args = append(args, p.parseAssignExpr())
		if p.tok.Type == lexer.COMMA {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	start := toASTPos(p.tok.Pos)
	switch p.tok.Type {
	case lexer.NUMBER:
		lit := p.tok.Literal
		p.advance()
		v, _ := strconv.ParseFloat(lit, 64)
		n := &ast.NumberLiteral{Value: v}
		n.SpanVal = p.span(start)
		return n
	case lexer.STRING:
		lit := p.tok.Literal
		p.advance()
		s := &ast.StringLiteral{Value: lit}
		s.SpanVal = p.span(start)
		return s
	case lexer.TEMPLATE:
		lit := p.tok.Literal
		p.advance()
		t := &ast.TemplateLiteral{Raw: lit, HasSubstitutions: hasSubstitution(lit)}
		t.SpanVal = p.span(start)
		return t
	case lexer.TRUE:
		p.advance()
		b := &ast.BoolLiteral{Value: true}
		b.SpanVal = p.span(start)
		return b
	case lexer.FALSE:
		p.advance()
		b := &ast.BoolLiteral{Value: false}
		b.SpanVal = p.span(start)
		return b
	case lexer.NULL:
		p.advance()
		nl := &ast.NullLiteral{}
		nl.SpanVal = p.span(start)
		return nl
	case lexer.IDENT:
		name := p.tok.Literal
		p.advance()
		id := &ast.Identifier{Name: name}
		id.SpanVal = p.span(start)
		return id
	case lexer.FUNCTION:
		return p.parseFunctionExpr()
	case lexer.LPAREN:
		p.advance()
		expr := p.parseExpr()
		p.expect(lexer.RPAREN)
		return expr
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.LBRACE:
		return p.parseObjectLiteral()
	default:
		p.errorf("unexpected token %s in expression", p.tok.Type)
		tok := p.tok
		p.advance()
		id := &ast.Identifier{Name: tok.Literal}
		id.SpanVal = p.span(start)
		return id
	}
}

func hasSubstitution(raw string) bool {
	for i := 0; i+1 < len(raw); i++ {
		if raw[i] == '$' && raw[i+1] == '{' {
			return true
		}
	}
	return false
}

func (p *Parser) parseFunctionExpr() *ast.FunctionExpr {
	start := toASTPos(p.tok.Pos)
	p.expect(lexer.FUNCTION)
	name := ""
	if p.tok.Type == lexer.IDENT {
		name = p.tok.Literal
		p.advance()
	}
	params := p.parseParamList()
	body := p.parseBlock()
	fn := &ast.FunctionExpr{Name: name, Params: params, Body: body}
	fn.SpanVal = p.span(start)
	return fn
}

func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	start := toASTPos(p.tok.Pos)
	p.expect(lexer.LBRACKET)
	arr := &ast.ArrayLiteral{}
	for p.tok.Type != lexer.RBRACKET && p.tok.Type != lexer.EOF {
		arr.Elements = append(arr.Elements, p.parseAssignExpr())
		if p.tok.Type == lexer.COMMA {
			p.advance()
		}
	}
	p.expect(lexer.RBRACKET)
	arr.SpanVal = p.span(start)
	return arr
}

func (p *Parser) parseObjectLiteral() *ast.ObjectLiteral {
	start := toASTPos(p.tok.Pos)
	p.expect(lexer.LBRACE)
	obj := &ast.ObjectLiteral{}
	for p.tok.Type != lexer.RBRACE && p.tok.Type != lexer.EOF {
		var key string
		switch p.tok.Type {
		case lexer.IDENT, lexer.FUNCTION, lexer.RETURN, lexer.LET, lexer.CONST, lexer.VAR, lexer.EXPORT, lexer.TRUE, lexer.FALSE, lexer.NULL:
			key = p.tok.Literal
			p.advance()
		case lexer.STRING:
			key = p.tok.Literal
			p.advance()
		default:
			p.errorf("expected property key, got %s", p.tok.Type)
			p.advance()
		}
		p.expect(lexer.COLON)
		value := p.parseAssignExpr()
		obj.Properties = append(obj.Properties, ast.Property{Key: key, Value: value})
		if p.tok.Type == lexer.COMMA {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	obj.SpanVal = p.span(start)
	return obj
}
