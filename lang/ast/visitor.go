package ast

// Visitor is implemented by callers that want to walk an AST. Visit is
// called for every node; if it returns a non-nil Visitor, Walk continues
// into that node's children using the returned Visitor.
type Visitor interface {
	Visit(n Node) (w Visitor)
}

// Walk traverses the AST rooted at n in depth-first order, calling
// v.Visit for n and then, if it returns non-nil, for each of n's children.
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	if v = v.Visit(n); v == nil {
		return
	}
	n.Walk(v)
}

// inspector adapts a plain function to the Visitor interface, following the
// teacher's go/ast.Inspect pattern.
type inspector func(Node) bool

func (f inspector) Visit(n Node) Visitor {
	if f(n) {
		return f
	}
	return nil
}

// Inspect traverses the AST rooted at n, calling f for each node. Walk
// continues into a node's children only if f returns true.
func Inspect(n Node, f func(Node) bool) {
	Walk(inspector(f), n)
}
