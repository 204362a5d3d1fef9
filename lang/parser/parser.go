// Package parser implements the precedence parser that turns the lexer's
// token stream into a typed AST (spec §4.2).
package parser

import (
	"strings"

	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/diag"
	"github.com/mna/vela/lang/lexer"
	"github.com/mna/vela/lang/token"
)

// Parse tokenizes and parses src (the contents of a file named name),
// returning the root Block of top-level statements. Parse errors are
// accumulated in errs rather than returned directly; on error the returned
// block may be partial.
func Parse(name string, src []byte, errs *diag.List) *ast.Block {
	toks := lexer.Scan(name, src, errs)
	var p parser
	p.init(name, toks, errs)
	return p.parseTopLevel()
}

// parser consumes a pre-scanned token stream and builds an AST.
type parser struct {
	name string
	toks []lexer.TokenAndValue
	pos  int // index of the current token in toks
	errs *diag.List

	tok token.Token
	val lexer.Value

	// funcDepth > 0 while inside a function or method body, used to reject
	// `return` at the top level.
	funcDepth int
	// classDepth > 0 while inside a class body; parseClass maintains it and
	// nothing else reads it.
	classDepth int
}

func (p *parser) init(name string, toks []lexer.TokenAndValue, errs *diag.List) {
	p.name = name
	p.toks = toks
	p.errs = errs
	p.pos = 0
	p.advance()
}

func (p *parser) advance() {
	tv := p.toks[p.pos]
	p.tok, p.val = tv.Token, tv.Value
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *parser) position(pos token.Pos) token.Position {
	line, col := pos.LineCol()
	return token.Position{Filename: p.name, Line: line, Col: col}
}

func (p *parser) errorf(pos token.Pos, format string, args ...interface{}) {
	p.errs.Add(diag.Syntax, p.position(pos), format, args...)
}

// errPanic unwinds parsing of the current statement back to
// parseStmtRecover's recover, which resynchronises at the next SEMI or
// closing brace.
type errPanic struct{}

func (p *parser) expect(toks ...token.Token) token.Pos {
	pos := p.val.Pos
	for _, t := range toks {
		if p.tok == t {
			p.advance()
			return pos
		}
	}
	p.errorExpected(pos, toks...)
	panic(errPanic{})
}

func (p *parser) errorExpected(pos token.Pos, want ...token.Token) {
	var sb strings.Builder
	if len(want) > 1 {
		sb.WriteString("one of ")
	}
	for i, t := range want {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.GoString())
	}
	found := p.tok.GoString()
	if lit := p.tok.Literal(); lit == "" && p.val.Raw != "" {
		found = p.val.Raw
	}
	p.errorf(pos, "expected %s, found %s", sb.String(), found)
}

// accept consumes and returns true if the current token is tok.
func (p *parser) accept(tok token.Token) bool {
	if p.tok == tok {
		p.advance()
		return true
	}
	return false
}

// parseTopLevel parses the whole file as an (unbraced) top-level block.
func (p *parser) parseTopLevel() *ast.Block {
	block := &ast.Block{Lbrace: p.val.Pos}
	for p.tok != token.EOF {
		if s := p.parseStmtRecover(); s != nil {
			block.Stmts = append(block.Stmts, s)
		}
	}
	block.Rbrace = p.val.Pos
	return block
}

// parseStmtRecover parses one statement, recovering from a syntax error by
// skipping tokens until the next SEMI or RBRACE so that one bad statement
// does not abort the whole parse.
func (p *parser) parseStmtRecover() (s ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(errPanic); !ok {
				panic(r)
			}
			s = nil
			for p.tok != token.SEMI && p.tok != token.RBRACE && p.tok != token.EOF {
				p.advance()
			}
			p.accept(token.SEMI)
		}
	}()
	return p.parseStmt()
}

func (p *parser) parseBlock() *ast.Block {
	block := &ast.Block{Lbrace: p.expect(token.LBRACE)}
	for p.tok != token.RBRACE && p.tok != token.EOF {
		if s := p.parseStmtRecover(); s != nil {
			block.Stmts = append(block.Stmts, s)
		}
	}
	block.Rbrace = p.expect(token.RBRACE)
	return block
}
