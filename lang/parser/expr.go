package parser

import (
	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/token"
)

// binopPriority gives the left/right binding power of each binary operator
// (spec §4.2: "0 assign … 10 mul/div/mod"). Assignment is right-associative
// and binds loosest; multiplicative operators bind tightest among the
// binary operators.
var binopPriority = map[token.Token]struct{ left, right int }{
	token.EQ:     {1, 0}, // right-associative assignment
	token.OROR:   {2, 2},
	token.ANDAND: {3, 3},
	token.EQL:    {4, 4}, token.NEQ: {4, 4},
	token.LT: {5, 5}, token.GT: {5, 5}, token.LE: {5, 5}, token.GE: {5, 5},
	token.PIPE:      {6, 6},
	token.CIRCUMFLEX: {7, 7},
	token.AMPERSAND: {8, 8},
	token.LTLT:      {9, 9}, token.GTGT: {9, 9},
	token.PLUS: {10, 10}, token.MINUS: {10, 10},
	token.STAR: {11, 11}, token.SLASH: {11, 11}, token.PERCENT: {11, 11},
}

const unaryPriority = 12

func isUnaryOp(tok token.Token) bool {
	switch tok {
	case token.PLUS, token.MINUS, token.BANG, token.TILDE:
		return true
	default:
		return false
	}
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseSubExpr(0)
}

// parseSubExpr implements precedence climbing: it parses operators whose
// left binding power is strictly greater than minPriority.
func (p *parser) parseSubExpr(minPriority int) ast.Expr {
	var left ast.Expr
	if isUnaryOp(p.tok) {
		op, opPos := p.tok, p.val.Pos
		p.advance()
		operand := p.parseSubExpr(unaryPriority)
		left = &ast.Unary{Op: op, OpPos: opPos, Expr: operand}
	} else {
		left = p.parseSuffixedExpr()
	}

	for {
		prio, ok := binopPriority[p.tok]
		if !ok || prio.left <= minPriority {
			break
		}
		op, opPos := p.tok, p.val.Pos
		p.advance()
		right := p.parseSubExpr(prio.right)
		left = &ast.Binary{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

// parseSuffixedExpr parses a primary expression followed by any chain of
// call/subscript/dot suffixes (spec §4.2: "post-primary suffixes chain").
func (p *parser) parseSuffixedExpr() ast.Expr {
	x := p.parsePrimaryExpr()
	for {
		switch p.tok {
		case token.LPAREN:
			x = p.parseCallSuffix(x)
		case token.LBRACK:
			x = p.parseSubscriptSuffix(x)
		case token.DOT:
			x = p.parseDotSuffix(x)
		default:
			return x
		}
	}
}

func (p *parser) parseCallSuffix(callee ast.Expr) *ast.Call {
	lparen := p.expect(token.LPAREN)
	var args []ast.Expr
	for p.tok != token.RPAREN && p.tok != token.EOF {
		args = append(args, p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	rparen := p.expect(token.RPAREN)
	return &ast.Call{Callee: callee, Lparen: lparen, Args: args, Rparen: rparen}
}

func (p *parser) parseSubscriptSuffix(x ast.Expr) *ast.Subscript {
	lbrack := p.expect(token.LBRACK)
	key := p.parseExpr()
	p.expect(token.RBRACK)
	return &ast.Subscript{X: x, Lbrack: lbrack, Key: key, Dotted: false}
}

// parseDotSuffix parses the sugared a.k form, used for method calls and
// built-ins (spec §4.2, §4.4.1): the key is the identifier name itself,
// represented as an Ident so the compiler can resolve it against the
// receiver's type.
func (p *parser) parseDotSuffix(x ast.Expr) *ast.Subscript {
	dot := p.expect(token.DOT)
	namePos := p.val.Pos
	name := p.val.Raw
	p.expect(token.IDENT)
	key := &ast.Ident{NamePos: namePos, Name: name}
	return &ast.Subscript{X: x, Lbrack: dot, Key: key, Dotted: true}
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	pos := p.val.Pos
	switch p.tok {
	case token.INT:
		v := p.val.Int
		p.advance()
		return &ast.Int{ValPos: pos, Val: v}
	case token.FLOAT:
		v := p.val.Float
		p.advance()
		return &ast.Float{ValPos: pos, Val: v}
	case token.CHAR:
		v := p.val.Char
		p.advance()
		return &ast.Char{ValPos: pos, Val: v}
	case token.STRING:
		v := p.val.Str
		p.advance()
		return &ast.String{ValPos: pos, Val: v}
	case token.TRUE:
		p.advance()
		return &ast.Bool{ValPos: pos, Val: true}
	case token.FALSE:
		p.advance()
		return &ast.Bool{ValPos: pos, Val: false}
	case token.NONE:
		p.advance()
		var typeArg *ast.TypeExpr
		if p.accept(token.LT) {
			typeArg = p.parseTypeExpr()
			p.expect(token.GT)
		}
		return &ast.None{NonePos: pos, TypeArg: typeArg}
	case token.IDENT:
		name := p.val.Raw
		p.advance()
		return &ast.Ident{NamePos: pos, Name: name}
	case token.LBRACK:
		return p.parseArrayExpr()
	case token.LPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x
	default:
		p.errorf(pos, "expected an expression, found %s", p.tok.GoString())
		panic(errPanic{})
	}
}

func (p *parser) parseArrayExpr() *ast.Array {
	lbrack := p.expect(token.LBRACK)
	var elems []ast.Expr
	for p.tok != token.RBRACK && p.tok != token.EOF {
		elems = append(elems, p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	rbrack := p.expect(token.RBRACK)
	return &ast.Array{Lbrack: lbrack, Elements: elems, Rbrack: rbrack}
}
