package ast

import "github.com/mna/vela/lang/token"

// ====================
// EXPRESSIONS
// ====================

type (
	// Ident is a bare identifier reference, e.g. x.
	Ident struct {
		NamePos token.Pos
		Name    string
	}

	// Int is an integer literal, e.g. 123.
	Int struct {
		ValPos token.Pos
		Val    int64
	}

	// Float is a float literal, e.g. 1.5.
	Float struct {
		ValPos token.Pos
		Val    float64
	}

	// Bool is a boolean literal, true or false.
	Bool struct {
		ValPos token.Pos
		Val    bool
	}

	// Char is a character literal, e.g. 'a'.
	Char struct {
		ValPos token.Pos
		Val    rune
	}

	// String is a (possibly $-interpolated) string literal.
	String struct {
		ValPos token.Pos
		Val    string // raw literal text, with escapes already resolved
	}

	// None is the `None` literal, optionally carrying an explicit type
	// argument (e.g. `None<int>`) used when it cannot be inferred from
	// context.
	None struct {
		NonePos token.Pos
		TypeArg *TypeExpr // nil if not given
	}

	// Array is an array literal, e.g. [1, 2, 3].
	Array struct {
		Lbrack   token.Pos
		Elements []Expr
		Rbrack   token.Pos
	}

	// Binary is a binary operator expression, e.g. a + b, or an assignment
	// a = b (Op == token.EQ).
	Binary struct {
		Left  Expr
		Op    token.Token
		OpPos token.Pos
		Right Expr
	}

	// Unary is a unary operator expression, e.g. -a, !a, ~a.
	Unary struct {
		Op    token.Token
		OpPos token.Pos
		Expr  Expr
	}

	// Subscript is an index expression, e.g. a[k], or the sugared a.k form
	// (Dotted == true) used for method/builtin calls.
	Subscript struct {
		X      Expr
		Lbrack token.Pos
		Key    Expr
		Dotted bool
	}

	// Call is a function/method/constructor call, e.g. f(a, b).
	Call struct {
		Callee Expr
		Lparen token.Pos
		Args   []Expr
		Rparen token.Pos
	}
)

func (*Ident) exprNode()     {}
func (*Int) exprNode()       {}
func (*Float) exprNode()     {}
func (*Bool) exprNode()      {}
func (*Char) exprNode()      {}
func (*String) exprNode()    {}
func (*None) exprNode()      {}
func (*Array) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Unary) exprNode()     {}
func (*Subscript) exprNode() {}
func (*Call) exprNode()      {}

func (n *Ident) Pos() token.Pos  { return n.NamePos }
func (n *Int) Pos() token.Pos    { return n.ValPos }
func (n *Float) Pos() token.Pos  { return n.ValPos }
func (n *Bool) Pos() token.Pos   { return n.ValPos }
func (n *Char) Pos() token.Pos   { return n.ValPos }
func (n *String) Pos() token.Pos { return n.ValPos }
func (n *None) Pos() token.Pos   { return n.NonePos }
func (n *Array) Pos() token.Pos  { return n.Lbrack }
func (n *Binary) Pos() token.Pos { return n.Left.Pos() }
func (n *Unary) Pos() token.Pos  { return n.OpPos }
func (n *Subscript) Pos() token.Pos { return n.X.Pos() }
func (n *Call) Pos() token.Pos   { return n.Callee.Pos() }

func (n *Ident) Walk(v Visitor)  {}
func (n *Int) Walk(v Visitor)    {}
func (n *Float) Walk(v Visitor)  {}
func (n *Bool) Walk(v Visitor)   {}
func (n *Char) Walk(v Visitor)   {}
func (n *String) Walk(v Visitor) {}
func (n *None) Walk(v Visitor)   {}
func (n *Array) Walk(v Visitor) {
	for _, e := range n.Elements {
		Walk(v, e)
	}
}
func (n *Binary) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *Unary) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *Subscript) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Key)
}
func (n *Call) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
