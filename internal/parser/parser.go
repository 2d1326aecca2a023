// Package parser implements a Pratt expression parser turning the lexer's
// token stream into the ast.Expr tree the analyzer, compiler and VM consume.
//
// Like the lexer, the parser is treated as an external collaborator to the
// core triad (spec §1): only the AST shape it produces matters, so it
// favors a direct, readable recursive-descent-with-precedence-climbing
// style over exhaustive error recovery.
package parser

import (
	"fmt"

	"github.com/cwbudde/go-l/internal/ast"
	"github.com/cwbudde/go-l/internal/lexer"
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	LOGICOR
	LOGICAND
	EQUALITY
	COMPARE
	SUM
	PRODUCT
	PREFIX
	CALL
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:    LOGICOR,
	lexer.AND:   LOGICAND,
	lexer.EQ:    EQUALITY,
	lexer.NOTEQ: EQUALITY,
	lexer.LT:    COMPARE,
	lexer.LTEQ:  COMPARE,
	lexer.GT:    COMPARE,
	lexer.GTEQ:  COMPARE,
	lexer.PLUS:  SUM,
	lexer.MINUS: SUM,
	lexer.STAR:  PRODUCT,
	lexer.SLASH: PRODUCT,
}

// ParseError is a single parser diagnostic with its source line.
type ParseError struct {
	Message string
	Line    int
}

// Parser consumes a Lexer's token stream and builds an ast.Expr tree.
//
// The whole token stream is read up front into a slice: L programs are
// short scripts, and buffering every token lets the parser freely mark and
// reset its position (needed to disambiguate the receiver-function-def
// syntax below) without re-lexing or pushing tokens back onto the lexer.
type Parser struct {
	lex    *lexer.Lexer
	tokens []lexer.Token
	idx    int
	errors []ParseError

	cur  lexer.Token
	peek lexer.Token

	// noStructLiteral is set while an if condition is parsed, so that in
	// `if a > b { ... }` the `b {` is read as an identifier followed by the
	// then-block, not as the start of a `b { ... }` struct literal.
	noStructLiteral bool
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lex: l}
	for {
		tok := l.NextToken()
		p.tokens = append(p.tokens, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}
	p.syncCurPeek()
	return p
}

// Errors returns every parse error collected so far.
func (p *Parser) Errors() []ParseError { return p.errors }

// LexErrors returns every lexical error produced while tokenizing.
func (p *Parser) LexErrors() []lexer.LexError { return p.lex.Errors() }

func (p *Parser) syncCurPeek() {
	p.cur = p.tokens[p.idx]
	if p.idx+1 < len(p.tokens) {
		p.peek = p.tokens[p.idx+1]
	} else {
		p.peek = p.tokens[len(p.tokens)-1] // EOF
	}
}

func (p *Parser) next() {
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	p.syncCurPeek()
}

// mark returns the current position for later rollback via reset.
func (p *Parser) mark() int { return p.idx }

// reset rewinds the parser to a position previously returned by mark.
func (p *Parser) reset(pos int) {
	p.idx = pos
	p.syncCurPeek()
}

func (p *Parser) errorf(line int, format string, args ...any) {
	p.errors = append(p.errors, ParseError{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curIs(t) {
		p.next()
		return true
	}
	p.errorf(p.cur.Pos.Line, "expected %s, got %s", t, p.cur.Type)
	return false
}

// ParseProgram parses a whole source file: a sequence of top-level
// statements (spec §6) until EOF.
func (p *Parser) ParseProgram() *ast.Block {
	line := p.cur.Pos.Line
	exprs, trailing := p.parseStatementSequence(lexer.EOF, true)
	return ast.NewBlock(line, exprs, trailing)
}

// parseStatementSequence parses expressions up to (not including) a token
// of type terminator, applying the separator rule from spec §6: named
// function/struct definitions and if-expressions need no trailing ';' —
// everything else does, unless immediately followed by the terminator.
func (p *Parser) parseStatementSequence(terminator lexer.TokenType, topLevel bool) ([]ast.Expr, bool) {
	var exprs []ast.Expr
	trailing := false

	for !p.curIs(terminator) && !p.curIs(lexer.EOF) {
		expr := p.parseTopLevelItem(topLevel)
		exprs = append(exprs, expr)
		trailing = false

		if p.curIs(lexer.SEMICOLON) {
			p.next()
			trailing = true
			continue
		}

		if !selfTerminating(expr) && !p.curIs(terminator) && !p.curIs(lexer.EOF) {
			p.errorf(expr.Line(), "missing ';' after statement")
			p.next() // don't loop forever on a malformed statement
		}
	}

	return exprs, trailing
}

// selfTerminating reports whether expr may appear without a trailing ';'.
func selfTerminating(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.FunctionDefinition:
		return v.Name != nil
	case *ast.StructDefinition:
		return v.Name != nil
	case *ast.IfCondition:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTopLevelItem(topLevel bool) ast.Expr {
	switch p.cur.Type {
	case lexer.FUN:
		return p.parseFunctionDefinition(topLevel)
	case lexer.STRUCT:
		return p.parseStructDefinition(topLevel)
	default:
		return p.parseExpression(LOWEST)
	}
}

func (p *Parser) parseExpression(precedence int) ast.Expr {
	left := p.parsePrefix()
	if left == nil {
		return ast.NewNullLiteral(p.cur.Pos.Line)
	}

	left = p.parsePostfixChain(left)

	// Assignment binds looser than everything else and is only legal when
	// the chain built so far is a bare variable or a pure field-access
	// chain rooted at one (spec §3 VariableAssignment{name, accessors}).
	if precedence == LOWEST && p.curIs(lexer.ASSIGN) {
		if name, accessors, ok := asAccessorChain(left); ok {
			p.next()
			value := p.parseExpression(LOWEST)
			return ast.NewVariableAssignment(left.Line(), name, accessors, value)
		}
	}

	for !p.curIs(lexer.SEMICOLON) && precedence < p.curPrecedence() {
		op, ok := infixOperatorText(p.cur.Type)
		if !ok {
			break
		}
		line := p.cur.Pos.Line
		opPrec := p.curPrecedence()
		p.next()
		right := p.parseExpression(opPrec)
		left = ast.NewInfix(line, left, op, right)
		left = p.parsePostfixChain(left)
	}

	return left
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.cur.Type]; ok {
		return prec
	}
	return LOWEST
}

func infixOperatorText(t lexer.TokenType) (string, bool) {
	switch t {
	case lexer.PLUS:
		return "+", true
	case lexer.MINUS:
		return "-", true
	case lexer.STAR:
		return "*", true
	case lexer.SLASH:
		return "/", true
	case lexer.LT:
		return "<", true
	case lexer.LTEQ:
		return "<=", true
	case lexer.GT:
		return ">", true
	case lexer.GTEQ:
		return ">=", true
	case lexer.EQ:
		return "==", true
	case lexer.NOTEQ:
		return "!=", true
	case lexer.AND:
		return "and", true
	case lexer.OR:
		return "or", true
	default:
		return "", false
	}
}

// parsePostfixChain handles the left-to-right chain of calls, field
// accesses and receiver-method calls that may follow any primary
// expression: a.b.c(), n:inc():abs(), add(1)(2), etc.
func (p *Parser) parsePostfixChain(left ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case lexer.LPAREN:
			left = p.parseCallArguments(left)
		case lexer.DOT:
			line := p.cur.Pos.Line
			p.next()
			name := p.cur.Literal
			p.expect(lexer.IDENT)
			left = ast.NewFieldAccess(line, left, name)
		case lexer.COLON:
			line := p.cur.Pos.Line
			p.next()
			method := p.cur.Literal
			p.expect(lexer.IDENT)
			if !p.expect(lexer.LPAREN) {
				return left
			}
			args := p.parseExpressionList(lexer.RPAREN)
			left = ast.NewValueFunctionCall(line, left, method, args)
		default:
			return left
		}
	}
}

func (p *Parser) parseCallArguments(callee ast.Expr) ast.Expr {
	line := p.cur.Pos.Line
	p.next() // consume '('
	args := p.parseExpressionList(lexer.RPAREN)
	return ast.NewFunctionCall(line, callee, args)
}

func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expr {
	var list []ast.Expr
	if p.curIs(end) {
		p.next()
		return list
	}

	list = append(list, p.parseExpression(LOWEST))
	for p.curIs(lexer.COMMA) {
		p.next()
		list = append(list, p.parseExpression(LOWEST))
	}

	p.expect(end)
	return list
}

func (p *Parser) parsePrefix() ast.Expr {
	switch p.cur.Type {
	case lexer.NULL:
		line := p.cur.Pos.Line
		p.next()
		return ast.NewNullLiteral(line)

	case lexer.TRUE, lexer.FALSE:
		line := p.cur.Pos.Line
		v := p.cur.Type == lexer.TRUE
		p.next()
		return ast.NewBoolLiteral(line, v)

	case lexer.INT:
		return p.parseIntLiteral()

	case lexer.FLOAT:
		return p.parseFloatLiteral()

	case lexer.STRING:
		line := p.cur.Pos.Line
		v := p.cur.Literal
		p.next()
		return ast.NewStringLiteral(line, v)

	case lexer.CHAR:
		line := p.cur.Pos.Line
		v := []rune(p.cur.Literal)
		var r rune
		if len(v) > 0 {
			r = v[0]
		}
		p.next()
		return ast.NewCharLiteral(line, r)

	case lexer.MINUS:
		line := p.cur.Pos.Line
		p.next()
		operand := p.parseExpression(PREFIX)
		return ast.NewPrefix(line, "-", operand)

	case lexer.NOT:
		line := p.cur.Pos.Line
		p.next()
		operand := p.parseExpression(PREFIX)
		return ast.NewPrefix(line, "not", operand)

	case lexer.LPAREN:
		p.next()
		expr := p.parseExpression(LOWEST)
		p.expect(lexer.RPAREN)
		return expr

	case lexer.LBRACE:
		return p.parseBlock()

	case lexer.IF:
		return p.parseIfCondition()

	case lexer.VAL, lexer.VAR:
		return p.parseVariableDefinition()

	case lexer.FUN:
		return p.parseFunctionDefinition(false)

	case lexer.STRUCT:
		return p.parseStructDefinition(false)

	case lexer.MKSTRUCT:
		return p.parseMakeStruct(nil)

	case lexer.IDENT:
		return p.parseIdentifierLike()

	case lexer.THIS, lexer.THIS_CAP:
		line := p.cur.Pos.Line
		name := p.cur.Literal
		p.next()
		return ast.NewIdentifier(line, name)

	default:
		p.errorf(p.cur.Pos.Line, "unexpected token %s", p.cur.Type)
		p.next()
		return nil
	}
}

func (p *Parser) parseIntLiteral() ast.Expr {
	line := p.cur.Pos.Line
	lit := p.cur.Literal
	p.next()

	var v int64
	_, err := fmt.Sscanf(lit, "%d", &v)
	if err != nil {
		p.errorf(line, "invalid integer literal %q", lit)
	}
	return ast.NewIntLiteral(line, v)
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	line := p.cur.Pos.Line
	lit := p.cur.Literal
	p.next()

	var v float64
	_, err := fmt.Sscanf(lit, "%g", &v)
	if err != nil {
		p.errorf(line, "invalid float literal %q", lit)
	}
	return ast.NewFloatLiteral(line, v)
}

func (p *Parser) parseBlock() *ast.Block {
	line := p.cur.Pos.Line
	p.next() // consume '{'
	exprs, trailing := p.parseStatementSequence(lexer.RBRACE, false)
	p.expect(lexer.RBRACE)
	return ast.NewBlock(line, exprs, trailing)
}

func (p *Parser) parseIfCondition() ast.Expr {
	line := p.cur.Pos.Line
	p.next() // consume 'if'
	saved := p.noStructLiteral
	p.noStructLiteral = true
	cond := p.parseExpression(LOWEST)
	p.noStructLiteral = saved
	then := p.parseBlock()

	var els ast.Expr
	if p.curIs(lexer.ELSE) {
		p.next()
		if p.curIs(lexer.IF) {
			els = p.parseIfCondition()
		} else {
			els = p.parseBlock()
		}
	}

	return ast.NewIfCondition(line, cond, then, els)
}

// parseVariableDefinition handles `val`/`var name[: type] = value`.
func (p *Parser) parseVariableDefinition() ast.Expr {
	line := p.cur.Pos.Line
	constant := p.curIs(lexer.VAL)
	p.next() // consume val/var

	name := p.cur.Literal
	p.expect(lexer.IDENT)

	var declared *ast.Type
	if p.curIs(lexer.COLON) {
		p.next()
		t := p.parseType()
		declared = &t
	}

	p.expect(lexer.ASSIGN)
	value := p.parseExpression(LOWEST)

	return ast.NewVariableDefinition(line, constant, name, declared, value)
}

// parseIdentifierLike disambiguates a bare identifier: struct-literal
// construction (`Name { field: value, ... }`) versus a plain identifier,
// which the postfix chain and the assignment check in parseExpression
// then turn into a field access, call, receiver call, or assignment.
// Inside an if condition a following '{' always opens the then-block, so
// a named struct literal is not recognised there.
func (p *Parser) parseIdentifierLike() ast.Expr {
	line := p.cur.Pos.Line
	name := p.cur.Literal
	p.next()

	if p.curIs(lexer.LBRACE) && !p.noStructLiteral {
		n := name
		return p.parseMakeStruct(&n)
	}

	return ast.NewIdentifier(line, name)
}

// asAccessorChain unwinds a FieldAccess chain rooted at an Identifier into
// (name, accessors), the shape VariableAssignment needs. A chain that
// bottoms out in anything else (a call, a literal, ...) is not assignable.
func asAccessorChain(e ast.Expr) (string, []ast.StructFieldAccessor, bool) {
	switch v := e.(type) {
	case *ast.Identifier:
		return v.Name, nil, true
	case *ast.FieldAccess:
		name, accessors, ok := asAccessorChain(v.Expr)
		if !ok {
			return "", nil, false
		}
		return name, append(accessors, ast.StructFieldAccessor{FieldName: v.Field}), true
	default:
		return "", nil, false
	}
}

func (p *Parser) parseMakeStruct(name *string) ast.Expr {
	line := p.cur.Pos.Line
	if p.curIs(lexer.MKSTRUCT) {
		p.next() // consume 'mkstruct'; a struct name was already consumed by parseIdentifierLike
	}
	p.expect(lexer.LBRACE)

	var fields []ast.MakeStructField
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fieldName := p.cur.Literal
		p.expect(lexer.IDENT)
		p.expect(lexer.COLON)
		value := p.parseExpression(LOWEST)
		fields = append(fields, ast.MakeStructField{Name: fieldName, Value: value})

		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)

	return ast.NewMakeStruct(line, name, fields)
}

// parseFunctionDefinition parses `fun [(pre T):]name(params) retType body`
// or, anonymously, `fun (params) retType body`. allowNamed selects whether
// a name is permitted (true only at top level, per spec §6).
func (p *Parser) parseFunctionDefinition(allowNamed bool) ast.Expr {
	line := p.cur.Pos.Line
	p.next() // consume 'fun'

	var preParam *ast.FunctionParam
	var name *string

	if p.curIs(lexer.LPAREN) {
		// Could be `(pre T):name(...)` receiver form, or the anonymous
		// parameter list `(params)`. Disambiguate by scanning for a
		// trailing ':' before the parameter list closes.
		if p.looksLikeReceiverForm() {
			p.next() // '('
			constant := true
			if p.curIs(lexer.VAR) {
				constant = false
				p.next()
			}
			paramName := p.cur.Literal
			p.expect(lexer.IDENT)
			pt := p.parseType()
			p.expect(lexer.RPAREN)
			preParam = &ast.FunctionParam{Name: paramName, Type: pt, Constant: constant}

			p.expect(lexer.COLON)
			n := p.cur.Literal
			p.expect(lexer.IDENT)
			name = &n
		}
	} else if p.curIs(lexer.IDENT) {
		n := p.cur.Literal
		p.next()
		name = &n
	}

	if name != nil && !allowNamed {
		p.errorf(line, "named function definitions are only allowed at top level")
	}

	p.expect(lexer.LPAREN)
	params := p.parseFunctionParams()

	returnType := p.parseType()
	body := p.parseBlock()

	return ast.NewFunctionDefinition(line, name, preParam, params, returnType, body)
}

// looksLikeReceiverForm scans the upcoming `( ... )` for a `:` immediately
// after its closing paren, without permanently consuming tokens on a
// negative result.
func (p *Parser) looksLikeReceiverForm() bool {
	save := p.mark()
	defer p.reset(save)

	if !p.curIs(lexer.LPAREN) {
		return false
	}
	depth := 0
	for {
		if p.curIs(lexer.EOF) {
			return false
		}
		if p.curIs(lexer.LPAREN) {
			depth++
		}
		if p.curIs(lexer.RPAREN) {
			depth--
			p.next()
			if depth == 0 {
				return p.curIs(lexer.COLON)
			}
			continue
		}
		p.next()
	}
}

func (p *Parser) parseFunctionParams() []ast.FunctionParam {
	var params []ast.FunctionParam
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		constant := true
		if p.curIs(lexer.VAR) {
			constant = false
			p.next()
		} else if p.curIs(lexer.VAL) {
			p.next()
		}

		name := p.cur.Literal
		p.expect(lexer.IDENT)
		t := p.parseType()
		params = append(params, ast.FunctionParam{Name: name, Type: t, Constant: constant})

		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseStructDefinition(allowNamed bool) ast.Expr {
	line := p.cur.Pos.Line
	p.next() // consume 'struct'

	var name *string
	if p.curIs(lexer.IDENT) {
		n := p.cur.Literal
		p.next()
		name = &n
	}

	if name != nil && !allowNamed {
		p.errorf(line, "named struct definitions are only allowed at top level")
	}

	p.expect(lexer.LBRACE)
	var fields []ast.StructFieldDecl
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fieldName := p.cur.Literal
		p.expect(lexer.IDENT)
		t := p.parseType()
		fields = append(fields, ast.StructFieldDecl{Name: fieldName, Type: t})

		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)

	return ast.NewStructDefinition(line, name, fields)
}

// parseType parses a type expression: a primitive keyword, an identifier
// naming a struct (UserDefined), or an inline structural struct type.
func (p *Parser) parseType() ast.Type {
	switch p.cur.Type {
	case lexer.ANY:
		p.next()
		return ast.Any()
	case lexer.NULL:
		p.next()
		return ast.Null()
	case lexer.INT_KW:
		p.next()
		return ast.IntT()
	case lexer.FLOAT_KW:
		p.next()
		return ast.FloatT()
	case lexer.BOOL_KW:
		p.next()
		return ast.BoolT()
	case lexer.CHAR_KW:
		p.next()
		return ast.CharT()
	case lexer.STRING_KW:
		p.next()
		return ast.StringT()
	case lexer.STRUCT:
		p.next()
		p.expect(lexer.LBRACE)
		fields := ast.NewStructFields()
		for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			name := p.cur.Literal
			p.expect(lexer.IDENT)
			t := p.parseType()
			fields.Add(name, t)
			if p.curIs(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RBRACE)
		return ast.StructT(fields)
	case lexer.IDENT:
		name := p.cur.Literal
		p.next()
		return ast.UserDefinedT(name)
	default:
		p.errorf(p.cur.Pos.Line, "expected a type, got %s", p.cur.Type)
		return ast.Any()
	}
}
