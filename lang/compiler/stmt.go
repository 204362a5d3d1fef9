package compiler

import (
	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/bytecode"
	"github.com/mna/vela/lang/diag"
	"github.com/mna/vela/lang/scope"
	"github.com/mna/vela/lang/token"
	"github.com/mna/vela/lang/types"
)

// compileFrameBody lowers the statements of a new counting frame (the
// top-level program or a function body): it reserves the frame's local
// slots up front, per §4.4.2's Block rule, compiles each statement in
// order, then releases the slots with a negative RESERVE unless the last
// instruction emitted is a RET/RETVIRTUAL.
func (c *Compiler) compileFrameBody(stmts []ast.Stmt) {
	n := countLocals(stmts)
	if n > 0 {
		c.prog.Emit1(bytecode.RESERVE, n)
	}
	c.stmts(stmts)
	if n > 0 && !c.failed() {
		last := c.prog.Instructions[len(c.prog.Instructions)-1].Op
		if last != bytecode.RET && last != bytecode.RETVIRTUAL {
			c.prog.Emit1(bytecode.RESERVE, -n)
		}
	}
}

// stmts compiles a statement list in declared order without touching the
// RESERVE accounting (used both for a frame's own body and for the shared-
// counter body of an if/while virtual scope).
func (c *Compiler) stmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.stmt(s)
	}
}

func (c *Compiler) stmt(s ast.Stmt) {
	if c.failed() {
		return
	}
	switch s := s.(type) {
	case *ast.ExprStmt:
		c.exprStmt(s)
	case *ast.DeclVar:
		c.declVar(s)
	case *ast.DeclFunc:
		c.declFunc(s)
	case *ast.If:
		c.ifStmt(s)
	case *ast.While:
		c.whileStmt(s)
	case *ast.Return:
		c.returnStmt(s)
	case *ast.Class:
		c.classStmt(s)
	case *ast.Import:
		c.importStmt(s)
	case *ast.Annotation:
		c.annotationStmt(s)
	default:
		c.errorf(s.Pos(), diag.Semantic, "unsupported statement %T", s)
	}
}

// exprStmt compiles an expression used as a statement. A void-typed
// expression (a void call, or an assignment, whose STORE/SETFIELD already
// consumes its value) leaves nothing to balance; anything else pushed
// exactly one value that nothing will consume, so it is popped.
func (c *Compiler) exprStmt(s *ast.ExprStmt) {
	t := c.expr(s.X)
	if c.failed() {
		return
	}
	if t.Variant == types.Void {
		return
	}
	c.prog.Emit(bytecode.POP)
}

// declVar lowers a `let`/`let mut` declaration (§4.4.2). Inside a class
// body (c.classSym set), the declared symbol is a field: its storage is
// written with SETFIELD rather than STORE/GSTORE, which storeSymbol
// already picks based on sym.Owner, so declVar only has to push the
// receiver (LDARG0) before the initializer in that case.
func (c *Compiler) declVar(s *ast.DeclVar) {
	if s.Annotation != nil && s.Annotation.Kind == ast.Unused {
		return // @Unused suppresses the declaration entirely
	}

	if c.redefined(s.Name) {
		c.errorf(s.NamePos, diag.Semantic, "redefinition of '%s'", s.Name)
		return
	}

	isField := c.classSym != nil
	if isField {
		c.prog.Emit(bytecode.LDARG0)
	}

	initType := c.expr(s.Init)
	if c.failed() {
		return
	}
	if initType.Variant == types.Void || initType.Variant == types.Null {
		c.errorf(s.Pos(), diag.Semantic, "variable '%s' cannot be initialized to void or null", s.Name)
		return
	}
	declType := initType
	if s.Type != nil {
		declType = c.resolveTypeExpr(s.Type)
	}
	if isField && declType.Variant == types.Class && declType.ClassID == c.classSym.Type.ClassID {
		c.errorf(s.Pos(), diag.Semantic, "circular reference: field '%s' has the enclosing class's own type", s.Name)
		return
	}

	sym := &scope.Symbol{
		Node:      s,
		Type:      declType,
		Mutable:   s.Mutable,
		Global:    c.scope == c.root,
		ArraySize: -1,
	}
	if arr, ok := s.Init.(*ast.Array); ok {
		sym.ArraySize = int32(len(arr.Elements))
	}
	if isField {
		sym.Owner = c.classSym
	}
	sym.Address = c.scope.NextAddress
	c.scope.NextAddress++
	c.scope.Declare(s.Name, sym)

	c.storeSymbol(sym, 0)
	if isField {
		// SETFIELD leaves self on the stack (so an ordinary field assignment
		// expression can feed SETARG0); a field-initializer statement has no
		// SETARG0 waiting to consume it, so it must be dropped here instead.
		c.prog.Emit(bytecode.POP)
	}

	if s.Annotation != nil && isField {
		c.synthesizeAccessor(s, sym)
	}
}

// redefined reports whether name is already bound directly in c.scope, or
// in a virtual ancestor sharing its frame (§4.4.2's redefinition check does
// not fire for ordinary shadowing of an outer, non-virtual binding). A class
// constructor parameter does not count, so a field may shadow it.
func (c *Compiler) redefined(name string) bool {
	for s := c.scope; s != nil; s = s.Parent {
		if sym, depth := s.LookupWithDepth(name); sym != nil && depth == 0 && !sym.IsClassParam {
			return true
		}
		if !s.Virtual {
			return false
		}
	}
	return false
}

// ifStmt lowers an if/else-if/else chain (§4.4.2).
func (c *Compiler) ifStmt(s *ast.If) {
	var ends []int
	for i, cl := range s.Clauses {
		if cl.Cond != nil {
			t := c.expr(cl.Cond)
			if c.failed() {
				return
			}
			if t.Variant != types.Bool {
				c.errorf(cl.Pos(), diag.Semantic, "if condition must be bool, got %s", t)
				return
			}
			jf := c.prog.Emit1(bytecode.JMPF, -1)

			c.withVirtualScope(func() { c.stmts(cl.Body.Stmts) })

			if i < len(s.Clauses)-1 {
				ends = append(ends, c.prog.Emit1(bytecode.JMP, -1))
			}
			c.prog.Patch(jf, c.prog.Here())
		} else {
			c.withVirtualScope(func() { c.stmts(cl.Body.Stmts) })
		}
		if c.failed() {
			return
		}
	}
	for _, j := range ends {
		c.prog.Patch(j, c.prog.Here())
	}
}

// withVirtualScope runs body with a fresh virtual (non-counting) subscope
// of c.scope pushed and popped around it, per §4.3's if/while scoping rule.
func (c *Compiler) withVirtualScope(body func()) {
	v := scope.PushVirtual(c.scope)
	c.scope = v
	body()
	c.scope = v.Parent
	v.Pop()
}

// whileStmt lowers a while loop (§4.4.2).
func (c *Compiler) whileStmt(s *ast.While) {
	head := c.prog.Here()
	t := c.expr(s.Cond)
	if c.failed() {
		return
	}
	if t.Variant != types.Bool {
		c.errorf(s.Cond.Pos(), diag.Semantic, "while condition must be bool, got %s", t)
		return
	}
	exit := c.prog.Emit1(bytecode.JMPF, -1)
	c.withVirtualScope(func() { c.stmts(s.Body.Stmts) })
	if c.failed() {
		return
	}
	c.prog.Emit1(bytecode.JMP, head)
	c.prog.Patch(exit, c.prog.Here())
}

// returnStmt lowers a return statement (§4.4.2).
func (c *Compiler) returnStmt(s *ast.Return) {
	if c.funcDepth == 0 {
		c.errorf(s.Pos(), diag.Semantic, "return outside function")
		return
	}
	if s.X != nil {
		c.expr(s.X)
	} else {
		c.prog.EmitPush(bytecode.Int32Val(0))
	}
	if c.failed() {
		return
	}
	if c.classSym != nil {
		c.prog.Emit(bytecode.RETVIRTUAL)
	} else {
		c.prog.Emit(bytecode.RET)
	}
}

// declFunc lowers a free function, method, or external intrinsic
// declaration (§4.4.2).
func (c *Compiler) declFunc(d *ast.DeclFunc) {
	if c.redefined(d.Name) {
		c.errorf(d.NamePos, diag.Semantic, "redefinition of '%s'", d.Name)
		return
	}

	sym := &scope.Symbol{Node: d, Type: c.resolveTypeExpr(d.RetType), Global: c.scope == c.root}
	if c.classSym != nil {
		sym.Owner = c.classSym
	}

	if d.External {
		sym.Address = -1
		c.scope.Declare(d.Name, sym)
		return
	}

	entry := c.prog.Here() + 1
	sym.Address = int32(entry)
	c.scope.Declare(d.Name, sym)

	jmp := c.prog.Emit1(bytecode.JMP, -1)

	fnScope := scope.Push(c.scope)
	c.scope = fnScope
	nparams := len(d.Formals)
	for i, p := range d.Formals {
		psym := &scope.Symbol{
			Node:      p,
			Type:      c.resolveTypeExpr(p.Type),
			Address:   int32(-(nparams + 3) + i),
			ArraySize: -1,
		}
		fnScope.Declare(p.Name, psym)
	}

	c.funcDepth++
	c.compileFrameBody(d.Body.Stmts)
	c.funcDepth--

	if !c.failed() && !bodyAlwaysReturns(d.Body.Stmts) {
		c.prog.EmitPush(bytecode.Int32Val(0))
		if c.classSym != nil {
			c.prog.Emit(bytecode.RETVIRTUAL)
		} else {
			c.prog.Emit(bytecode.RET)
		}
	}

	c.scope = fnScope.Parent
	c.prog.Patch(jmp, c.prog.Here())
}

// bodyAlwaysReturns is a conservative check used only to decide whether a
// synthetic trailing return is needed: true when the last statement of the
// body is itself a Return, or an If whose every clause (including a final
// unconditional else) always returns.
func bodyAlwaysReturns(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch last := stmts[len(stmts)-1].(type) {
	case *ast.Return:
		return true
	case *ast.If:
		if last.Clauses[len(last.Clauses)-1].Cond != nil {
			return false // no final unconditional else
		}
		for _, cl := range last.Clauses {
			if !bodyAlwaysReturns(cl.Body.Stmts) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// classStmt lowers a `type Name(formals) { body }` declaration (§4.4.2).
// The parser attaches an @Getter/@Setter/@Unused annotation directly to the
// DeclVar it precedes (see lang/parser's parseAnnotatedStmt), so no
// standalone *ast.Annotation ever appears in cl.Body; synthesis is driven
// entirely from DeclVar.Annotation.
func (c *Compiler) classStmt(cl *ast.Class) {
	if existing := c.scope.LookupClass(cl.Name); existing != nil {
		c.errorf(cl.NamePos, diag.Semantic, "redefinition of class '%s'", cl.Name)
		return
	}

	classType := c.ctx.Intern(cl.Name)
	entry := c.prog.Here() + 1
	classSym := &scope.Symbol{Node: cl, Type: classType, Address: int32(entry), Global: c.scope == c.root}
	c.scope.DeclareClass(cl.Name, classSym)

	jmp := c.prog.Emit1(bytecode.JMP, -1)
	classOp := c.prog.Emit1(bytecode.CLASS, -1)

	bodyScope := scope.Push(c.scope)

	nparams := len(cl.Formals)
	for i, p := range cl.Formals {
		psym := &scope.Symbol{
			Node:         p,
			Type:         c.resolveTypeExpr(p.Type),
			Address:      int32(-(nparams + 3) + i),
			IsClassParam: true,
			ArraySize:    -1,
		}
		bodyScope.Declare(p.Name, psym)
	}

	// Fields and methods are declared in a virtual child of the parameter
	// scope, so a field may shadow the parameter it is initialized from.
	memberScope := scope.PushVirtual(bodyScope)
	c.scope = memberScope
	c.classScopes[classType.ClassID] = memberScope

	savedClassSym, savedDepth := c.classSym, c.funcDepth
	c.classSym = classSym
	c.funcDepth++

	if cl.Fields == nil {
		cl.Fields = make(map[string]int)
	}
	nfields := 0
	for _, s := range cl.Body {
		switch s := s.(type) {
		case *ast.DeclVar:
			addr := memberScope.NextAddress
			c.declVar(s)
			if c.failed() {
				return
			}
			cl.Fields[s.Name] = int(addr)
			nfields++
		case *ast.DeclFunc:
			c.declFunc(s)
		}
		if c.failed() {
			return
		}
	}

	// RETVIRTUAL, not RET: the caller pushed self as parameter 0 (CLASS
	// overwrites that slot with the new instance), and only RETVIRTUAL
	// re-pushes it alongside the return value instead of discarding it.
	c.prog.Emit(bytecode.RETVIRTUAL)

	c.funcDepth = savedDepth
	c.classSym = savedClassSym
	c.scope = bodyScope.Parent
	c.prog.Patch(classOp, nfields)
	c.prog.Patch(jmp, c.prog.Here())
}

// synthesizeAccessor builds and compiles the getX/setX method implied by an
// @Getter/@Setter annotation on a class field (§4.4.2). fieldSym is already
// declared in the class's scope by the time this runs, so the synthesized
// body's Ident lookups resolve to it through the usual Owner-based path.
func (c *Compiler) synthesizeAccessor(s *ast.DeclVar, fieldSym *scope.Symbol) {
	switch s.Annotation.Kind {
	case ast.Getter:
		fn := &ast.DeclFunc{
			Name:    "get" + titleFirst(s.Name),
			NamePos: s.Annotation.AtPos,
			RetType: nil,
			Body: &ast.Block{Stmts: []ast.Stmt{
				&ast.Return{ReturnPos: s.Annotation.AtPos, X: &ast.Ident{NamePos: s.NamePos, Name: s.Name}},
			}},
		}
		c.declFuncAccessor(fn, fieldSym.Type)
	case ast.Setter:
		if !fieldSym.Mutable {
			c.errorf(s.Pos(), diag.Semantic, "@Setter on immutable field '%s'", s.Name)
			return
		}
		const paramName = "value"
		fn := &ast.DeclFunc{
			Name:    "set" + titleFirst(s.Name),
			NamePos: s.Annotation.AtPos,
			Formals: []*ast.Param{{NamePos: s.Annotation.AtPos, Name: paramName}},
			RetType: nil,
			Body: &ast.Block{Stmts: []ast.Stmt{
				&ast.Return{ReturnPos: s.Annotation.AtPos, X: &ast.Binary{
					Left:  &ast.Ident{NamePos: s.NamePos, Name: s.Name},
					Op:    token.EQ,
					OpPos: s.Annotation.AtPos,
					Right: &ast.Ident{NamePos: s.Annotation.AtPos, Name: paramName},
				}},
			}},
		}
		c.declFuncAccessor(fn, fieldSym.Type)
	}
}

// declFuncAccessor compiles a synthesized accessor using the same lowering
// as an ordinary method, except its formal/return types are taken directly
// from the field's already-resolved Datatype rather than parsed TypeExprs
// (accessors never appear in source, so there is no syntax to parse).
func (c *Compiler) declFuncAccessor(d *ast.DeclFunc, fieldType *types.Datatype) {
	if c.redefined(d.Name) {
		c.errorf(d.NamePos, diag.Semantic, "redefinition of '%s'", d.Name)
		return
	}
	sym := &scope.Symbol{Node: d, Type: fieldType, Owner: c.classSym}
	if len(d.Formals) == 0 {
		sym.Type = fieldType
	} else {
		sym.Type = c.ctx.VoidType() // setter returns void
	}

	entry := c.prog.Here() + 1
	sym.Address = int32(entry)
	c.scope.Declare(d.Name, sym)

	jmp := c.prog.Emit1(bytecode.JMP, -1)

	fnScope := scope.Push(c.scope)
	c.scope = fnScope
	nparams := len(d.Formals)
	for i, p := range d.Formals {
		psym := &scope.Symbol{Node: p, Type: fieldType, Address: int32(-(nparams + 3) + i), ArraySize: -1}
		fnScope.Declare(p.Name, psym)
	}

	c.funcDepth++
	c.compileFrameBody(d.Body.Stmts)
	c.funcDepth--

	c.scope = fnScope.Parent
	c.prog.Patch(jmp, c.prog.Here())
}

// titleFirst upper-cases the first rune of a field name for getX/setX
// synthesis (§4.4.2: "first letter of field name capitalised").
func titleFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

// importStmt lowers a `using path;` statement (§4.4.2). "core"/"math"/"io"
// register the host intrinsic signatures of lang/runtime; anything else is
// treated as a source filename to be parsed and compiled inline, which
// this compiler (operating on an already-parsed Block) cannot do — it
// reports a semantic error instead, matching the "source ingestion" being
// an out-of-scope collaborator (spec §1).
func (c *Compiler) importStmt(im *ast.Import) {
	if c.imported[im.Path] {
		return
	}
	c.imported[im.Path] = true

	switch im.Path {
	case "core", "math", "io":
		for _, sig := range stdlibSignatures(im.Path) {
			c.declFunc(sig.asDeclFunc())
		}
	default:
		c.errorf(im.Pos(), diag.Semantic, "unresolved import path %q: only core/math/io are resolved by the compiler itself", im.Path)
	}
}

// annotationStmt records a pending annotation on the current scope. The
// parser emits a standalone *ast.Annotation only together with a syntax
// error (an annotation not followed by `let`), so compilation never sees
// one from a clean parse; this exists because the AST permits it as a Stmt
// variant.
func (c *Compiler) annotationStmt(a *ast.Annotation) {
	switch a.Kind {
	case ast.Getter:
		c.scope.AnnotationFlags |= scope.FlagGetter
	case ast.Setter:
		c.scope.AnnotationFlags |= scope.FlagSetter
	case ast.Unused:
		c.scope.AnnotationFlags |= scope.FlagUnused
	}
}
