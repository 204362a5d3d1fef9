package parser

import (
	"testing"

	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/diag"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, src string) *ast.Block {
	t.Helper()
	var errs diag.List
	block := Parse("t.vela", []byte(src), &errs)
	require.False(t, errs.HasErrors(), errs.String())
	return block
}

func TestParseArithmeticPrecedence(t *testing.T) {
	block := parseOK(t, `println(1 + 2 * 3);`)
	require.Len(t, block.Stmts, 1)
	es := block.Stmts[0].(*ast.ExprStmt)
	call := es.X.(*ast.Call)
	require.Len(t, call.Args, 1)
	bin := call.Args[0].(*ast.Binary)
	require.Equal(t, int64(1), bin.Left.(*ast.Int).Val)
	mul := bin.Right.(*ast.Binary)
	require.Equal(t, int64(2), mul.Left.(*ast.Int).Val)
	require.Equal(t, int64(3), mul.Right.(*ast.Int).Val)
}

func TestParseDeclVarAndAssignment(t *testing.T) {
	block := parseOK(t, `let mut s = "hi"; s = s + "!";`)
	require.Len(t, block.Stmts, 2)
	decl := block.Stmts[0].(*ast.DeclVar)
	require.Equal(t, "s", decl.Name)
	require.True(t, decl.Mutable)

	assignStmt := block.Stmts[1].(*ast.ExprStmt)
	assign := assignStmt.X.(*ast.Binary)
	require.Equal(t, "=", assign.Op.Literal())
	require.Equal(t, "s", assign.Left.(*ast.Ident).Name)
}

func TestParseFuncAndIfReturn(t *testing.T) {
	block := parseOK(t, `func fib(n:int)->int { if n<2 {return n}; return fib(n-1)+fib(n-2) }`)
	require.Len(t, block.Stmts, 1)
	fn := block.Stmts[0].(*ast.DeclFunc)
	require.Equal(t, "fib", fn.Name)
	require.Len(t, fn.Formals, 1)
	require.Equal(t, "n", fn.Formals[0].Name)
	require.Equal(t, "int", fn.Formals[0].Type.Name)
	require.Equal(t, "int", fn.RetType.Name)
	require.Len(t, fn.Body.Stmts, 2)

	ifStmt := fn.Body.Stmts[0].(*ast.If)
	require.Len(t, ifStmt.Clauses, 1)
	require.NotNil(t, ifStmt.Clauses[0].Cond)
}

func TestParseClassWithAnnotations(t *testing.T) {
	block := parseOK(t, `type Pt(x:int,y:int){ @Getter let x = x; @Getter let y = y }`)
	class := block.Stmts[0].(*ast.Class)
	require.Equal(t, "Pt", class.Name)
	require.Len(t, class.Formals, 2)
	require.Len(t, class.Body, 2)
	field := class.Body[0].(*ast.DeclVar)
	require.NotNil(t, field.Annotation)
	require.Equal(t, ast.Getter, field.Annotation.Kind)
}

func TestParseArrayLiteralAndMethodCall(t *testing.T) {
	block := parseOK(t, `let a = [1,2,3]; println(a.length());`)
	decl := block.Stmts[0].(*ast.DeclVar)
	arr := decl.Init.(*ast.Array)
	require.Len(t, arr.Elements, 3)

	call := block.Stmts[1].(*ast.ExprStmt).X.(*ast.Call)
	inner := call.Args[0].(*ast.Call)
	sub := inner.Callee.(*ast.Subscript)
	require.True(t, sub.Dotted)
	require.Equal(t, "length", sub.Key.(*ast.Ident).Name)
}

func TestParseUsingImport(t *testing.T) {
	block := parseOK(t, `using core;`)
	imp := block.Stmts[0].(*ast.Import)
	require.Equal(t, "core", imp.Path)
}

func TestParseSyntaxErrorRecovers(t *testing.T) {
	var errs diag.List
	block := Parse("t.vela", []byte(`let x = ; let y = 1;`), &errs)
	require.True(t, errs.HasErrors())
	// recovery should still pick up the second, well-formed declaration
	var names []string
	for _, s := range block.Stmts {
		if d, ok := s.(*ast.DeclVar); ok {
			names = append(names, d.Name)
		}
	}
	require.Contains(t, names, "y")
}
