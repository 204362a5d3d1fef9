// Package ast defines the tagged-variant abstract syntax tree produced by
// the parser and consumed by the compiler (spec §3). Every node carries its
// source (line, column) location so diagnostics can always point back at
// the offending source text.
package ast

import "github.com/mna/vela/lang/token"

// Node is implemented by every AST node.
type Node interface {
	// Pos returns the node's source location.
	Pos() token.Pos

	// Walk visits the node's direct children, in declaration order.
	Walk(v Visitor)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement/declaration node.
type Stmt interface {
	Node
	stmtNode()
}

// Param is a single (name, type) formal parameter, shared by DeclFunc and
// Class formals.
type Param struct {
	NamePos token.Pos
	Name    string
	Type    *TypeExpr
}

// TypeExpr is the syntactic spelling of a Datatype in source: an identifier
// (primitive or class name), possibly wrapped in array/option syntax.
type TypeExpr struct {
	Start token.Pos
	Name  string     // primitive or class name; "" if Array or Option is set
	Array *TypeExpr  // element type, for "[T]" syntax
	Option *TypeExpr // wrapped type, for "T?" syntax
}

func (t *TypeExpr) Pos() token.Pos { return t.Start }
