// Package scope implements the tree of lexical scopes and the symbols they
// bind (spec §3, §4.3): virtual (non-counting) subscopes for control-flow
// bodies, closure-depth lookup, and per-scope class-name tables.
package scope

import (
	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/types"
)

// Symbol records everything the compiler needs to know about a declared
// name: where it lives in storage, its static type, and (for class fields)
// the class that owns it.
type Symbol struct {
	Node    ast.Node
	Address int32
	Type    *types.Datatype
	Global  bool

	// IsClassParam marks a symbol bound from a class's constructor formals,
	// accessible only at closure depth 0 inside that class's methods.
	IsClassParam bool

	// Owner points at the enclosing class's symbol when this symbol is a
	// class field (including synthesized getter/setter methods); nil for a
	// free function, local or global.
	Owner *Symbol

	// ArraySize is the compile-time-known literal array length, or -1 if
	// unknown (spec §4.4.1 Subscript bounds checking).
	ArraySize int32

	// Mutable records whether the binding was declared with `let mut`.
	Mutable bool

	// Name is kept alongside the owning scope's map key for diagnostics.
	Name string
}
