// Package compiler lowers a parsed vela AST to the linear bytecode
// instruction vector executed by lang/vm (spec §4.4 — the core of the
// system). Grounded on the teacher's lang/compiler package: a single
// forward-emitting pass over the AST and an accumulating diagnostic list,
// adapted from the teacher's CFG/block-linearizing compiler to vela's
// simpler patch-forward-jump model since the instruction vector here is
// already linear (no later block reordering is needed).
package compiler

import (
	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/bytecode"
	"github.com/mna/vela/lang/diag"
	"github.com/mna/vela/lang/scope"
	"github.com/mna/vela/lang/token"
	"github.com/mna/vela/lang/types"
)

// Compiler holds the state threaded through a single compilation: the
// instruction vector being built, the diagnostic sink, the type context,
// and the current scope chain. Spec §4.4 calls for "a single error flag";
// diag.List.HasErrors plays that role here.
type Compiler struct {
	prog *bytecode.Program
	errs *diag.List
	file *token.File
	ctx  *types.Context

	root  *scope.Scope
	scope *scope.Scope

	// funcDepth is >0 while compiling any function or method body; Return
	// outside of it is a semantic error (§4.4.2).
	funcDepth int

	// classSym is non-nil while compiling a class's constructor/method
	// bodies: the enclosing class's own symbol (sym.Owner for its members).
	classSym *scope.Symbol

	// classScopes maps a class's djb2 id to the scope holding its field and
	// method symbols, so an external `recv.member(...)` call can resolve
	// names declared inside that class's body.
	classScopes map[uint64]*scope.Scope

	// imported deduplicates `using` targets by path (§4.4.2).
	imported map[string]bool
}

// Compile lowers block, the parsed top-level program, into a bytecode
// Program. file resolves the block's token.Pos values to human Positions
// for diagnostics. A compile that records any diagnostic in errs still
// returns a (possibly partial) Program; per §7 propagation policy, that
// bytecode must never be executed.
func Compile(file *token.File, block *ast.Block, errs *diag.List) *bytecode.Program {
	root := scope.Push(nil)
	c := &Compiler{
		prog:        &bytecode.Program{},
		errs:        errs,
		file:        file,
		ctx:         types.NewContext(),
		root:        root,
		scope:       root,
		classScopes: make(map[uint64]*scope.Scope),
		imported:    make(map[string]bool),
	}
	c.compileFrameBody(block.Stmts)
	c.prog.Emit(bytecode.HLT)
	return c.prog
}

// failed reports whether any diagnostic has already been recorded; callers
// use it to implement the "subsequent visitors emit nothing" policy of §7.
func (c *Compiler) failed() bool { return c.errs.HasErrors() }

func (c *Compiler) errorf(pos token.Pos, kind diag.Kind, format string, args ...interface{}) {
	var p token.Position
	if c.file != nil {
		p = c.file.Position(pos)
	}
	c.errs.Add(kind, p, format, args...)
}

// resolveTypeExpr converts the parser's syntactic TypeExpr into a canonical
// Datatype from the compiler's type context.
func (c *Compiler) resolveTypeExpr(te *ast.TypeExpr) *types.Datatype {
	switch {
	case te == nil:
		return c.ctx.NullType()
	case te.Array != nil:
		return c.ctx.Array(c.resolveTypeExpr(te.Array))
	case te.Option != nil:
		return c.ctx.OptionOf(c.resolveTypeExpr(te.Option))
	default:
		return c.ctx.Intern(te.Name)
	}
}

// loadSymbol emits the load sequence appropriate to how sym is bound:
// a class field via its receiver, a global, a same-frame local, or a
// free variable reached by crossing depth closure boundaries (§4.4.1).
func (c *Compiler) loadSymbol(sym *scope.Symbol, depth int) {
	switch {
	case sym.Owner != nil:
		c.prog.Emit(bytecode.LDARG0)
		c.prog.Emit1(bytecode.GETFIELD, int(sym.Address))
	case sym.Global:
		c.prog.Emit1(bytecode.GLOAD, int(sym.Address))
	case depth == 0:
		c.prog.Emit1(bytecode.LOAD, int(sym.Address))
	default:
		c.prog.Emit2(bytecode.UPVAL, depth, int(sym.Address))
	}
}

// storeSymbol emits the store sequence for an already-compiled rhs value
// sitting on top of the stack, mirroring loadSymbol's address modes.
func (c *Compiler) storeSymbol(sym *scope.Symbol, depth int) {
	switch {
	case sym.Owner != nil:
		c.prog.Emit1(bytecode.SETFIELD, int(sym.Address))
	case sym.Global:
		c.prog.Emit1(bytecode.GSTORE, int(sym.Address))
	case depth == 0:
		c.prog.Emit1(bytecode.STORE, int(sym.Address))
	default:
		c.prog.Emit2(bytecode.UPSTORE, depth, int(sym.Address))
	}
}

// countLocals counts the DeclVars that will claim a slot in the current
// counting frame: direct children of stmts, plus any nested inside
// if/while bodies (virtual scopes share the frame), but not inside nested
// func/class bodies (those open their own counting frame).
func countLocals(stmts []ast.Stmt) int {
	n := 0
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.DeclVar:
			n++
		case *ast.If:
			for _, cl := range s.Clauses {
				n += countLocals(cl.Body.Stmts)
			}
		case *ast.While:
			n += countLocals(s.Body.Stmts)
		}
	}
	return n
}
