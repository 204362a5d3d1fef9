package parser

import (
	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/token"
)

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok {
	case token.SEMI:
		p.advance() // empty statement, e.g. a `;` after a closing brace
		return nil
	case token.AT:
		return p.parseAnnotatedStmt()
	case token.LET:
		s := p.parseDeclVar(nil)
		p.expect(token.SEMI)
		return s
	case token.FUNC:
		return p.parseDeclFunc()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.RETURN:
		return p.parseReturn()
	case token.TYPE:
		return p.parseClass()
	case token.USING:
		return p.parseImport()
	default:
		x := p.parseExpr()
		p.expect(token.SEMI)
		return &ast.ExprStmt{X: x}
	}
}

// parseAnnotatedStmt consumes a leading `@Getter`/`@Setter`/`@Unused` marker
// and attaches it to the DeclVar that must immediately follow (§4.3).
func (p *parser) parseAnnotatedStmt() ast.Stmt {
	at := p.expect(token.AT)
	namePos := p.val.Pos
	name := p.val.Raw
	p.expect(token.IDENT)

	var kind ast.AnnotationKind
	switch name {
	case "Getter":
		kind = ast.Getter
	case "Setter":
		kind = ast.Setter
	case "Unused":
		kind = ast.Unused
	default:
		p.errorf(namePos, "unknown annotation %q, expected Getter, Setter or Unused", name)
	}
	ann := &ast.Annotation{AtPos: at, Kind: kind}

	if p.tok != token.LET {
		p.errorf(p.val.Pos, "expected a 'let' declaration after annotation")
		return ann
	}
	decl := p.parseDeclVar(ann)
	p.expect(token.SEMI)
	return decl
}

func (p *parser) parseDeclVar(ann *ast.Annotation) *ast.DeclVar {
	letPos := p.expect(token.LET)
	mutable := p.accept(token.MUT)

	namePos := p.val.Pos
	name := p.val.Raw
	p.expect(token.IDENT)

	var typ *ast.TypeExpr
	if p.accept(token.COLON) {
		typ = p.parseTypeExpr()
	}

	p.expect(token.EQ)
	init := p.parseExpr()

	return &ast.DeclVar{
		LetPos:     letPos,
		Name:       name,
		NamePos:    namePos,
		Mutable:    mutable,
		Type:       typ,
		Init:       init,
		Annotation: ann,
	}
}

func (p *parser) parseParams() []*ast.Param {
	p.expect(token.LPAREN)
	var params []*ast.Param
	for p.tok != token.RPAREN && p.tok != token.EOF {
		namePos := p.val.Pos
		name := p.val.Raw
		p.expect(token.IDENT)
		p.expect(token.COLON)
		typ := p.parseTypeExpr()
		params = append(params, &ast.Param{NamePos: namePos, Name: name, Type: typ})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return params
}

// parseTypeExpr parses a type annotation: a bare name, an "[T]" array form,
// or either of those followed by a trailing "?" marking an option type.
func (p *parser) parseTypeExpr() *ast.TypeExpr {
	start := p.val.Pos
	var base *ast.TypeExpr
	if p.tok == token.LBRACK {
		p.advance()
		elem := p.parseTypeExpr()
		p.expect(token.RBRACK)
		base = &ast.TypeExpr{Start: start, Array: elem}
	} else {
		name := p.val.Raw
		p.expect(token.IDENT)
		base = &ast.TypeExpr{Start: start, Name: name}
	}
	if p.accept(token.QUESTION) {
		return &ast.TypeExpr{Start: start, Option: base}
	}
	return base
}

func (p *parser) parseDeclFunc() *ast.DeclFunc {
	funcPos := p.expect(token.FUNC)
	namePos := p.val.Pos
	name := p.val.Raw
	p.expect(token.IDENT)

	formals := p.parseParams()

	var ret *ast.TypeExpr
	if p.accept(token.ARROW) {
		ret = p.parseTypeExpr()
	}

	p.funcDepth++
	body := p.parseBlock()
	p.funcDepth--

	return &ast.DeclFunc{
		FuncPos: funcPos,
		Name:    name,
		NamePos: namePos,
		Formals: formals,
		Body:    body,
		RetType: ret,
	}
}

func (p *parser) parseIf() *ast.If {
	var clauses []*ast.IfClause
	ifPos := p.expect(token.IF)
	cond := p.parseExpr()
	body := p.parseBlock()
	clauses = append(clauses, &ast.IfClause{IfPos: ifPos, Cond: cond, Body: body})

	for p.tok == token.ELSE {
		elsePos := p.expect(token.ELSE)
		if p.tok == token.IF {
			p.advance()
			cond := p.parseExpr()
			body := p.parseBlock()
			clauses = append(clauses, &ast.IfClause{IfPos: elsePos, Cond: cond, Body: body})
			continue
		}
		body := p.parseBlock()
		clauses = append(clauses, &ast.IfClause{IfPos: elsePos, Cond: nil, Body: body})
		break
	}
	return &ast.If{Clauses: clauses}
}

func (p *parser) parseWhile() *ast.While {
	whilePos := p.expect(token.WHILE)
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.While{WhilePos: whilePos, Cond: cond, Body: body}
}

func (p *parser) parseReturn() *ast.Return {
	retPos := p.expect(token.RETURN)
	if p.funcDepth == 0 {
		p.errorf(retPos, "return outside of a function")
	}
	var x ast.Expr
	if p.tok != token.SEMI {
		x = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.Return{ReturnPos: retPos, X: x}
}

func (p *parser) parseClass() *ast.Class {
	typePos := p.expect(token.TYPE)
	namePos := p.val.Pos
	name := p.val.Raw
	p.expect(token.IDENT)
	formals := p.parseParams()

	p.classDepth++
	p.expect(token.LBRACE)
	var body []ast.Stmt
	for p.tok != token.RBRACE && p.tok != token.EOF {
		if s := p.parseStmtRecover(); s != nil {
			switch s.(type) {
			case *ast.DeclVar, *ast.DeclFunc:
				body = append(body, s)
			default:
				p.errorf(s.Pos(), "only field and method declarations are allowed in a class body")
			}
		}
	}
	p.expect(token.RBRACE)
	p.classDepth--

	return &ast.Class{
		TypePos: typePos,
		Name:    name,
		NamePos: namePos,
		Formals: formals,
		Body:    body,
		Fields:  make(map[string]int),
	}
}

func (p *parser) parseImport() *ast.Import {
	usingPos := p.expect(token.USING)
	var path string
	switch p.tok {
	case token.IDENT:
		path = p.val.Raw
		p.advance()
	case token.STRING:
		path = p.val.Str
		p.advance()
	default:
		p.errorExpected(p.val.Pos, token.IDENT, token.STRING)
	}
	p.expect(token.SEMI)
	return &ast.Import{UsingPos: usingPos, Path: path}
}
