package compiler

import (
	"strings"

	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/bytecode"
	"github.com/mna/vela/lang/diag"
	"github.com/mna/vela/lang/scope"
	"github.com/mna/vela/lang/token"
	"github.com/mna/vela/lang/types"
)

// expr lowers e, emitting the instructions that compute its value onto the
// operand stack, and returns its static type (§4.4.1). A failed compilation
// always returns void; callers never need to check c.failed() themselves
// before reading the result, only before emitting further code from it.
func (c *Compiler) expr(e ast.Expr) *types.Datatype {
	if c.failed() {
		return c.ctx.VoidType()
	}
	switch e := e.(type) {
	case *ast.Ident:
		return c.identExpr(e)
	case *ast.Int:
		c.prog.EmitPush(bytecode.Int32Val(int32(e.Val)))
		return c.ctx.Intern("int")
	case *ast.Float:
		c.prog.EmitPush(bytecode.NumVal(e.Val))
		return c.ctx.Intern("float")
	case *ast.Bool:
		c.prog.EmitPush(bytecode.BoolVal(e.Val))
		return c.ctx.Intern("bool")
	case *ast.Char:
		c.prog.EmitPush(bytecode.Int32Val(int32(e.Val)))
		return c.ctx.Intern("char")
	case *ast.String:
		return c.stringExpr(e)
	case *ast.None:
		return c.noneExpr(e)
	case *ast.Array:
		return c.arrayExpr(e)
	case *ast.Binary:
		return c.binaryExpr(e)
	case *ast.Unary:
		return c.unaryExpr(e)
	case *ast.Subscript:
		return c.subscriptExpr(e)
	case *ast.Call:
		return c.callExpr(e)
	default:
		c.errorf(e.Pos(), diag.Semantic, "unsupported expression %T", e)
		return c.ctx.VoidType()
	}
}

// identExpr lowers a bare name reference (§4.4.1).
func (c *Compiler) identExpr(id *ast.Ident) *types.Datatype {
	sym, depth := c.scope.LookupWithDepth(id.Name)
	if sym == nil {
		c.errorf(id.NamePos, diag.Semantic, "implicit declaration of field '%s'", id.Name)
		return c.ctx.VoidType()
	}
	c.loadSymbol(sym, depth)
	return sym.Type
}

// stringExpr lowers a string literal, splicing in any "$name" interpolation
// sites (§4.4.1, §6).
func (c *Compiler) stringExpr(s *ast.String) *types.Datatype {
	if !strings.Contains(s.Val, "$") {
		c.prog.EmitPush(bytecode.ObjVal(bytecode.NewString(s.Val)))
		return c.ctx.StrType()
	}
	return c.interpolate(s)
}

func (c *Compiler) interpolate(s *ast.String) *types.Datatype {
	text := s.Val
	first := true
	for i := 0; i < len(text); {
		j := i
		for j < len(text) {
			if text[j] == '$' && j+1 < len(text) && isIdentStart(rune(text[j+1])) {
				break
			}
			j++
		}
		lit := text[i:j]
		switch {
		case first:
			c.prog.EmitPush(bytecode.ObjVal(bytecode.NewString(lit)))
			first = false
		case lit != "":
			c.prog.EmitPush(bytecode.ObjVal(bytecode.NewString(lit)))
			c.prog.Emit(bytecode.APPEND)
		}
		i = j
		if i >= len(text) {
			break
		}

		k := i + 1
		for k < len(text) && isIdentPart(rune(text[k])) {
			k++
		}
		name := text[i+1 : k]
		i = k

		sym, depth := c.scope.LookupWithDepth(name)
		if sym == nil {
			c.errorf(s.ValPos, diag.Semantic, "implicit declaration of field '%s'", name)
			return c.ctx.VoidType()
		}
		c.loadSymbol(sym, depth)
		if !sym.Type.IsStr() {
			c.prog.Emit(bytecode.TOSTR)
		}
		c.prog.Emit(bytecode.APPEND)
	}
	return c.ctx.StrType()
}

func isIdentStart(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || '0' <= r && r <= '9'
}

// noneExpr lowers the `None` literal. No opcode is emitted for the option
// wrapper itself (§4.4.1): None is simply the int32 zero value, which the
// isSome/isNone builtins distinguish from a Some-wrapped non-zero payload by
// ordinary equality against 0 (a wrapped object value can never compare
// equal to an INT32_VAL, so this works uniformly across element types).
func (c *Compiler) noneExpr(n *ast.None) *types.Datatype {
	c.prog.EmitPush(bytecode.Int32Val(0))
	elem := c.ctx.Intern("generic")
	if n.TypeArg != nil {
		elem = c.resolveTypeExpr(n.TypeArg)
	}
	return c.ctx.OptionOf(elem)
}

// arrayExpr lowers an array literal (§4.4.1): a char-element literal merges
// into a string (STR), everything else becomes an array (ARR).
func (c *Compiler) arrayExpr(a *ast.Array) *types.Datatype {
	if len(a.Elements) == 0 {
		c.errorf(a.Pos(), diag.Semantic, "array literal must have at least one element")
		return c.ctx.VoidType()
	}
	first := c.expr(a.Elements[0])
	if c.failed() {
		return c.ctx.VoidType()
	}
	if first.Variant == types.Void || first.Variant == types.Null {
		c.errorf(a.Pos(), diag.Semantic, "array element type cannot be void or null")
		return c.ctx.VoidType()
	}
	for _, el := range a.Elements[1:] {
		t := c.expr(el)
		if c.failed() {
			return c.ctx.VoidType()
		}
		if !types.Match(t, first) {
			c.errorf(el.Pos(), diag.Semantic, "array element type mismatch: want %s, got %s", first, t)
			return c.ctx.VoidType()
		}
	}
	if first.Variant == types.Char {
		c.prog.Emit1(bytecode.STR, len(a.Elements))
		return c.ctx.StrType()
	}
	c.prog.Emit1(bytecode.ARR, len(a.Elements))
	return c.ctx.Array(first)
}

// binaryExpr lowers a binary expression, including assignment (§4.4.1,
// §4.4.3). Constant folding runs first and unconditionally, since it also
// mutates non-foldable nodes' children in place (fold.go folds bottom-up).
func (c *Compiler) binaryExpr(b *ast.Binary) *types.Datatype {
	if folded := foldConstants(b); folded != ast.Expr(b) {
		return c.expr(folded)
	}
	if b.Op == token.EQ {
		return c.assignExpr(b)
	}

	lt := c.expr(b.Left)
	if c.failed() {
		return c.ctx.VoidType()
	}
	strConcat := lt.IsStr() && b.Op == token.PLUS
	if strConcat {
		// CONS appends in place, so str + str concatenates onto a fresh copy
		// of the left operand rather than onto the string object it names.
		c.prog.Emit(bytecode.TOSTR)
	}
	rt := c.expr(b.Right)
	if c.failed() {
		return c.ctx.VoidType()
	}
	if !types.Match(lt, rt) {
		c.errorf(b.OpPos, diag.Semantic, "type mismatch: %s %s %s", lt, b.Op.GoString(), rt)
		return c.ctx.VoidType()
	}
	if strConcat {
		c.prog.Emit(bytecode.CONS)
		return lt
	}
	return c.emitBinaryOp(b, lt)
}

func (c *Compiler) emitBinaryOp(b *ast.Binary, t *types.Datatype) *types.Datatype {
	switch t.Variant {
	case types.Int, types.Char:
		return c.emitIntOp(b, t)
	case types.Float:
		return c.emitFloatOp(b, t)
	case types.Bool:
		return c.emitBoolOp(b, t)
	default:
		c.errorf(b.OpPos, diag.Semantic, "operator %s not supported for %s", b.Op.GoString(), t)
		return c.ctx.VoidType()
	}
}

func (c *Compiler) emitIntOp(b *ast.Binary, t *types.Datatype) *types.Datatype {
	boolT := c.ctx.Intern("bool")
	switch b.Op {
	case token.PLUS:
		c.prog.Emit(bytecode.IADD)
		return t
	case token.MINUS:
		c.prog.Emit(bytecode.ISUB)
		return t
	case token.STAR:
		c.prog.Emit(bytecode.IMUL)
		return t
	case token.SLASH:
		c.prog.Emit(bytecode.IDIV)
		return t
	case token.PERCENT:
		c.prog.Emit(bytecode.MOD)
		return t
	case token.LTLT:
		c.prog.Emit(bytecode.BITL)
		return t
	case token.GTGT:
		c.prog.Emit(bytecode.BITR)
		return t
	case token.AMPERSAND:
		c.prog.Emit(bytecode.BITAND)
		return t
	case token.PIPE:
		c.prog.Emit(bytecode.BITOR)
		return t
	case token.CIRCUMFLEX:
		c.prog.Emit(bytecode.BITXOR)
		return t
	case token.EQL:
		c.prog.Emit(bytecode.IEQ)
		return boolT
	case token.NEQ:
		c.prog.Emit(bytecode.INE)
		return boolT
	case token.LT:
		c.prog.Emit(bytecode.ILT)
		return boolT
	case token.GT:
		c.prog.Emit(bytecode.IGT)
		return boolT
	case token.LE:
		c.prog.Emit(bytecode.ILE)
		return boolT
	case token.GE:
		c.prog.Emit(bytecode.IGE)
		return boolT
	default:
		c.errorf(b.OpPos, diag.Semantic, "operator %s not supported for int", b.Op.GoString())
		return c.ctx.VoidType()
	}
}

func (c *Compiler) emitFloatOp(b *ast.Binary, t *types.Datatype) *types.Datatype {
	boolT := c.ctx.Intern("bool")
	switch b.Op {
	case token.PLUS:
		c.prog.Emit(bytecode.FADD)
		return t
	case token.MINUS:
		c.prog.Emit(bytecode.FSUB)
		return t
	case token.STAR:
		c.prog.Emit(bytecode.FMUL)
		return t
	case token.SLASH:
		c.prog.Emit(bytecode.FDIV)
		return t
	case token.EQL:
		c.prog.Emit(bytecode.FEQ)
		return boolT
	case token.NEQ:
		c.prog.Emit(bytecode.FNE)
		return boolT
	case token.LT:
		c.prog.Emit(bytecode.FLT)
		return boolT
	case token.GT:
		c.prog.Emit(bytecode.FGT)
		return boolT
	case token.LE:
		c.prog.Emit(bytecode.FLE)
		return boolT
	case token.GE:
		c.prog.Emit(bytecode.FGE)
		return boolT
	default:
		c.errorf(b.OpPos, diag.Semantic, "operator %s not supported for float", b.Op.GoString())
		return c.ctx.VoidType()
	}
}

func (c *Compiler) emitBoolOp(b *ast.Binary, t *types.Datatype) *types.Datatype {
	switch b.Op {
	case token.EQL:
		c.prog.Emit(bytecode.BEQ)
		return t
	case token.NEQ:
		c.prog.Emit(bytecode.BNE)
		return t
	case token.ANDAND:
		c.prog.Emit(bytecode.BAND)
		return t
	case token.OROR:
		c.prog.Emit(bytecode.BOR)
		return t
	default:
		c.errorf(b.OpPos, diag.Semantic, "operator %s not supported for bool", b.Op.GoString())
		return c.ctx.VoidType()
	}
}

// assignExpr lowers `lhs = rhs` (§4.4.1). An assignment never leaves a
// value on the stack: every emission path below pushes the rhs once and
// consumes it with exactly one store, so it is void by construction (there
// is no DUP opcode to keep a copy around for chained/nested use, which is
// consistent with assignment not being documented as composable here).
func (c *Compiler) assignExpr(b *ast.Binary) *types.Datatype {
	switch lhs := b.Left.(type) {
	case *ast.Ident:
		return c.assignIdent(b, lhs)
	case *ast.Subscript:
		return c.assignSubscript(b, lhs)
	default:
		c.errorf(b.OpPos, diag.Semantic, "invalid assignment target")
		return c.ctx.VoidType()
	}
}

func (c *Compiler) assignIdent(b *ast.Binary, lhs *ast.Ident) *types.Datatype {
	sym, depth := c.scope.LookupWithDepth(lhs.Name)
	if sym == nil {
		c.errorf(lhs.NamePos, diag.Semantic, "implicit declaration of field '%s'", lhs.Name)
		return c.ctx.VoidType()
	}
	if !sym.Mutable {
		c.errorf(lhs.NamePos, diag.Semantic, "mutation of immutable '%s'", lhs.Name)
		return c.ctx.VoidType()
	}
	if sym.Owner != nil {
		c.prog.Emit(bytecode.LDARG0)
	}
	rhsType := c.expr(b.Right)
	if c.failed() {
		return c.ctx.VoidType()
	}
	if !types.Match(rhsType, sym.Type) {
		c.errorf(b.OpPos, diag.Semantic, "type mismatch: cannot assign %s to '%s' of type %s", rhsType, lhs.Name, sym.Type)
		return c.ctx.VoidType()
	}
	c.storeSymbol(sym, depth)
	if sym.Owner != nil {
		c.prog.Emit(bytecode.SETARG0)
	}
	return c.ctx.VoidType()
}

func (c *Compiler) assignSubscript(b *ast.Binary, lhs *ast.Subscript) *types.Datatype {
	id, ok := lhs.X.(*ast.Ident)
	if !ok || lhs.Dotted {
		c.errorf(b.OpPos, diag.Semantic, "invalid assignment target")
		return c.ctx.VoidType()
	}
	sym, _ := c.scope.LookupWithDepth(id.Name)
	if sym == nil {
		c.errorf(id.NamePos, diag.Semantic, "implicit declaration of field '%s'", id.Name)
		return c.ctx.VoidType()
	}
	if !sym.Mutable {
		c.errorf(id.NamePos, diag.Semantic, "mutation of immutable '%s'", id.Name)
		return c.ctx.VoidType()
	}

	xt := c.expr(lhs.X)
	if c.failed() {
		return c.ctx.VoidType()
	}
	if xt.Variant != types.Array {
		c.errorf(lhs.Pos(), diag.Semantic, "subscript assignment target must be an array, got %s", xt)
		return c.ctx.VoidType()
	}
	kt := c.expr(lhs.Key)
	if c.failed() {
		return c.ctx.VoidType()
	}
	if kt.Variant != types.Int {
		c.errorf(lhs.Key.Pos(), diag.Semantic, "array index must be int, got %s", kt)
		return c.ctx.VoidType()
	}
	rt := c.expr(b.Right)
	if c.failed() {
		return c.ctx.VoidType()
	}
	if !types.Match(rt, xt.Elem) {
		c.errorf(b.OpPos, diag.Semantic, "type mismatch: cannot assign %s into array of %s", rt, xt.Elem)
		return c.ctx.VoidType()
	}
	c.prog.Emit(bytecode.SETSUB)
	return c.ctx.VoidType()
}

// unaryExpr lowers a unary expression (§4.4.1).
func (c *Compiler) unaryExpr(u *ast.Unary) *types.Datatype {
	t := c.expr(u.Expr)
	if c.failed() {
		return c.ctx.VoidType()
	}
	switch u.Op {
	case token.PLUS:
		if t.Variant != types.Int && t.Variant != types.Float {
			c.errorf(u.OpPos, diag.Semantic, "unary + requires int or float, got %s", t)
			return c.ctx.VoidType()
		}
		return t
	case token.MINUS:
		switch t.Variant {
		case types.Int:
			c.prog.Emit(bytecode.IMINUS)
		case types.Float:
			c.prog.Emit(bytecode.FMINUS)
		default:
			c.errorf(u.OpPos, diag.Semantic, "unary - requires int or float, got %s", t)
			return c.ctx.VoidType()
		}
		return t
	case token.TILDE:
		if t.Variant != types.Int {
			c.errorf(u.OpPos, diag.Semantic, "unary ~ requires int, got %s", t)
			return c.ctx.VoidType()
		}
		c.prog.Emit(bytecode.BITNOT)
		return t
	case token.BANG:
		if t.Variant != types.Bool {
			c.errorf(u.OpPos, diag.Semantic, "unary ! requires bool, got %s", t)
			return c.ctx.VoidType()
		}
		c.prog.Emit(bytecode.NOT)
		return t
	default:
		c.errorf(u.OpPos, diag.Semantic, "unsupported unary operator %s", u.Op.GoString())
		return c.ctx.VoidType()
	}
}

// subscriptExpr lowers a[k] or, when Dotted, a plain field read a.k (§4.4.1).
func (c *Compiler) subscriptExpr(s *ast.Subscript) *types.Datatype {
	if s.Dotted {
		return c.dottedFieldExpr(s)
	}

	size := c.literalArraySize(s.X)
	if lit, ok := s.Key.(*ast.Int); ok && size >= 0 && (lit.Val < 0 || lit.Val >= int64(size)) {
		c.errorf(s.Key.Pos(), diag.Semantic, "array index %d out of bounds for size %d", lit.Val, size)
		return c.ctx.VoidType()
	}

	xt := c.expr(s.X)
	if c.failed() {
		return c.ctx.VoidType()
	}
	if xt.Variant != types.Array {
		c.errorf(s.Pos(), diag.Semantic, "subscript target must be an array, got %s", xt)
		return c.ctx.VoidType()
	}
	kt := c.expr(s.Key)
	if c.failed() {
		return c.ctx.VoidType()
	}
	if kt.Variant != types.Int {
		c.errorf(s.Key.Pos(), diag.Semantic, "array index must be int, got %s", kt)
		return c.ctx.VoidType()
	}
	c.prog.Emit(bytecode.GETSUB)
	return xt.Elem
}

// literalArraySize returns the compile-time-known length of x, or -1 if
// unknown (§4.4.1's compile-time bounds check).
func (c *Compiler) literalArraySize(x ast.Expr) int {
	switch x := x.(type) {
	case *ast.Array:
		return len(x.Elements)
	case *ast.Ident:
		if sym := c.scope.Lookup(x.Name); sym != nil {
			return int(sym.ArraySize)
		}
	}
	return -1
}

// dottedFieldExpr lowers a plain `recv.field` read outside of a call.
func (c *Compiler) dottedFieldExpr(s *ast.Subscript) *types.Datatype {
	xt := c.expr(s.X)
	if c.failed() {
		return c.ctx.VoidType()
	}
	if xt.Variant != types.Class {
		c.errorf(s.Pos(), diag.Semantic, "'.' field access requires a class instance, got %s", xt)
		return c.ctx.VoidType()
	}
	key, ok := s.Key.(*ast.Ident)
	if !ok {
		c.errorf(s.Key.Pos(), diag.Semantic, "invalid field name")
		return c.ctx.VoidType()
	}
	sym := c.classMember(xt, key.Name)
	if sym == nil {
		c.errorf(key.Pos(), diag.Semantic, "unknown member '%s' of %s", key.Name, xt)
		return c.ctx.VoidType()
	}
	if _, isFn := sym.Node.(*ast.DeclFunc); isFn {
		c.errorf(key.Pos(), diag.Semantic, "'%s' is a method and must be called", key.Name)
		return c.ctx.VoidType()
	}
	c.prog.Emit1(bytecode.GETFIELD, int(sym.Address))
	return sym.Type
}

// classMember looks up name in the body scope of the class identified by
// ct's class id, or nil if ct is not a known class or has no such member.
func (c *Compiler) classMember(ct *types.Datatype, name string) *scope.Symbol {
	bodyScope := c.classScopes[ct.ClassID]
	if bodyScope == nil {
		return nil
	}
	return bodyScope.Lookup(name)
}

// callExpr lowers a call expression (§4.4.1): a plain name (free function,
// constructor, or the `Some` pseudo-constructor) or a dotted `recv.name(...)`
// form (method call or a built-in dispatched on the receiver's type).
func (c *Compiler) callExpr(call *ast.Call) *types.Datatype {
	switch callee := call.Callee.(type) {
	case *ast.Ident:
		return c.callIdentExpr(call, callee)
	case *ast.Subscript:
		if !callee.Dotted {
			c.errorf(call.Pos(), diag.Semantic, "call target is not callable")
			return c.ctx.VoidType()
		}
		return c.callDottedExpr(call, callee)
	default:
		c.errorf(call.Pos(), diag.Semantic, "call target is not callable")
		return c.ctx.VoidType()
	}
}

func (c *Compiler) callIdentExpr(call *ast.Call, id *ast.Ident) *types.Datatype {
	if id.Name == "Some" {
		if len(call.Args) != 1 {
			c.errorf(call.Pos(), diag.Semantic, "'Some' takes exactly one argument")
			return c.ctx.VoidType()
		}
		elem := c.expr(call.Args[0])
		if c.failed() {
			return c.ctx.VoidType()
		}
		return c.ctx.OptionOf(elem)
	}
	if classSym := c.scope.LookupClass(id.Name); classSym != nil {
		return c.callConstructorExpr(call, classSym)
	}

	sym, _ := c.scope.LookupWithDepth(id.Name)
	if sym == nil {
		c.errorf(id.NamePos, diag.Semantic, "implicit declaration of field '%s'", id.Name)
		return c.ctx.VoidType()
	}
	fn, ok := sym.Node.(*ast.DeclFunc)
	if !ok {
		c.errorf(id.NamePos, diag.Semantic, "'%s' is not callable", id.Name)
		return c.ctx.VoidType()
	}

	isMethod := sym.Owner != nil
	if isMethod {
		c.prog.Emit(bytecode.LDARG0)
	}
	if !c.compileCallArgs(call, fn.Formals) {
		return c.ctx.VoidType()
	}
	argc := len(call.Args)
	if isMethod {
		// self was pushed as an extra leading argument; it counts toward
		// argc like any other parameter (LDARG0/SETARG0 address it as
		// parameter 0, see the VM's calling convention).
		argc++
	}
	if sym.Address == -1 {
		c.prog.Emit1(bytecode.SYSCALL, fn.ExternalIndex-1)
	} else {
		c.prog.Emit2(bytecode.INVOKE, int(sym.Address), argc)
	}
	if isMethod {
		// RETVIRTUAL leaves [ret, self] (self on top); SETARG0 consumes
		// self and rebinds the current frame's own receiver, leaving ret.
		c.prog.Emit(bytecode.SETARG0)
	}

	retType := sym.Type
	if retType.Variant == types.Void {
		c.prog.Emit(bytecode.POP)
	}
	return retType
}

// callConstructorExpr lowers `ClassName(args...)` (§4.4.1, §4.4.2). The
// caller pushes a placeholder self below the arguments; CLASS overwrites
// that slot with the freshly allocated instance and also pushes it once,
// which is the value the constructor's closing RETVIRTUAL later pops as its
// "return value". RETVIRTUAL then re-pushes [instance, instance] (ret and
// self are the same object here); the trailing POP drops the duplicate.
func (c *Compiler) callConstructorExpr(call *ast.Call, classSym *scope.Symbol) *types.Datatype {
	var formals []*ast.Param
	if cl, ok := classSym.Node.(*ast.Class); ok {
		formals = cl.Formals
	}
	c.prog.EmitPush(bytecode.UndefinedVal)
	if !c.compileCallArgs(call, formals) {
		return c.ctx.VoidType()
	}
	c.prog.Emit2(bytecode.INVOKE, int(classSym.Address), len(call.Args)+1)
	c.prog.Emit(bytecode.POP)
	return classSym.Type
}

// callDottedExpr lowers `recv.name(args...)`, dispatching on the receiver's
// static type (§4.4.1).
func (c *Compiler) callDottedExpr(call *ast.Call, sub *ast.Subscript) *types.Datatype {
	xt := c.expr(sub.X)
	if c.failed() {
		return c.ctx.VoidType()
	}
	key, ok := sub.Key.(*ast.Ident)
	if !ok {
		c.errorf(sub.Key.Pos(), diag.Semantic, "invalid method name")
		return c.ctx.VoidType()
	}

	switch xt.Variant {
	case types.Array:
		return c.callArrayBuiltin(call, sub, xt, key.Name)
	case types.Int, types.Char, types.Float, types.Bool:
		return c.callPrimitiveBuiltin(call, xt, key.Name)
	case types.Option:
		return c.callOptionBuiltin(call, xt, key.Name)
	case types.Class:
		return c.callMethodExpr(call, sub, xt, key.Name)
	default:
		c.errorf(sub.Pos(), diag.Semantic, "unknown method '%s' on %s", key.Name, xt)
		return c.ctx.VoidType()
	}
}

// callMethodExpr lowers a dotted method call on a class instance already
// evaluated onto the stack by callDottedExpr (that push is the method's
// real self, not a synthesized LDARG0). RETVIRTUAL leaves [ret, self]; the
// updated self is written back to the receiver's own storage when the
// receiver expression is an addressable Ident, or dropped otherwise (§4.4.1
// "replace the stored instance ... or POP if anonymous").
func (c *Compiler) callMethodExpr(call *ast.Call, sub *ast.Subscript, xt *types.Datatype, name string) *types.Datatype {
	sym := c.classMember(xt, name)
	if sym == nil {
		c.errorf(sub.Pos(), diag.Semantic, "unknown method '%s' on %s", name, xt)
		return c.ctx.VoidType()
	}
	fn, ok := sym.Node.(*ast.DeclFunc)
	if !ok {
		c.errorf(sub.Pos(), diag.Semantic, "'%s' is not a method", name)
		return c.ctx.VoidType()
	}
	if !c.compileCallArgs(call, fn.Formals) {
		return c.ctx.VoidType()
	}
	if sym.Address == -1 {
		c.prog.Emit1(bytecode.SYSCALL, fn.ExternalIndex-1)
	} else {
		// The receiver pushed by callDottedExpr counts as argument 0.
		c.prog.Emit2(bytecode.INVOKE, int(sym.Address), len(call.Args)+1)
	}

	if id, ok := sub.X.(*ast.Ident); ok {
		if recvSym, depth := c.scope.LookupWithDepth(id.Name); recvSym != nil {
			c.storeSymbol(recvSym, depth)
		} else {
			c.prog.Emit(bytecode.POP)
		}
	} else {
		c.prog.Emit(bytecode.POP)
	}

	retType := sym.Type
	if retType.Variant == types.Void {
		c.prog.Emit(bytecode.POP)
	}
	return retType
}

// callArrayBuiltin lowers the built-in methods of array(T) (§4.4.1).
func (c *Compiler) callArrayBuiltin(call *ast.Call, sub *ast.Subscript, xt *types.Datatype, name string) *types.Datatype {
	switch name {
	case "length":
		if len(call.Args) != 0 {
			c.errorf(call.Pos(), diag.Semantic, "'length' takes no arguments")
			return c.ctx.VoidType()
		}
		c.prog.Emit(bytecode.LEN)
		return c.ctx.Intern("int")
	case "empty":
		if len(call.Args) != 0 {
			c.errorf(call.Pos(), diag.Semantic, "'empty' takes no arguments")
			return c.ctx.VoidType()
		}
		c.prog.Emit(bytecode.LEN)
		c.prog.EmitPush(bytecode.Int32Val(0))
		c.prog.Emit(bytecode.ILE)
		return c.ctx.Intern("bool")
	case "append":
		if len(call.Args) != 1 {
			c.errorf(call.Pos(), diag.Semantic, "'append' takes exactly one argument")
			return c.ctx.VoidType()
		}
		at := c.expr(call.Args[0])
		if c.failed() {
			return c.ctx.VoidType()
		}
		if !types.Match(at, xt.Elem) {
			c.errorf(call.Args[0].Pos(), diag.Semantic, "append: want %s, got %s", xt.Elem, at)
			return c.ctx.VoidType()
		}
		c.prog.Emit(bytecode.APPEND)
		return c.ctx.VoidType()
	case "add":
		if len(call.Args) != 1 {
			c.errorf(call.Pos(), diag.Semantic, "'add' takes exactly one argument")
			return c.ctx.VoidType()
		}
		at := c.expr(call.Args[0])
		if c.failed() {
			return c.ctx.VoidType()
		}
		if !types.Match(at, xt.Elem) {
			c.errorf(call.Args[0].Pos(), diag.Semantic, "add: want %s, got %s", xt.Elem, at)
			return c.ctx.VoidType()
		}
		c.prog.Emit(bytecode.CONS)
		return xt
	case "at":
		if len(call.Args) != 1 {
			c.errorf(call.Pos(), diag.Semantic, "'at' takes exactly one argument")
			return c.ctx.VoidType()
		}
		it := c.expr(call.Args[0])
		if c.failed() {
			return c.ctx.VoidType()
		}
		if it.Variant != types.Int {
			c.errorf(call.Args[0].Pos(), diag.Semantic, "at: index must be int, got %s", it)
			return c.ctx.VoidType()
		}
		c.prog.Emit(bytecode.GETSUB)
		return xt.Elem
	default:
		c.errorf(sub.Pos(), diag.Semantic, "unknown array method '%s'", name)
		return c.ctx.VoidType()
	}
}

// callPrimitiveBuiltin lowers the conversion built-ins on int/char/float/bool
// (§4.4.1). char is aliased to the int32 runtime representation (§9's open
// question, resolved per the test suite's shape), so int<->char conversions
// emit no opcode at all.
func (c *Compiler) callPrimitiveBuiltin(call *ast.Call, xt *types.Datatype, name string) *types.Datatype {
	if len(call.Args) != 0 {
		c.errorf(call.Pos(), diag.Semantic, "'%s' takes no arguments", name)
		return c.ctx.VoidType()
	}
	switch name {
	case "to_i":
		switch xt.Variant {
		case types.Int, types.Char:
		case types.Float:
			c.prog.Emit(bytecode.F2I)
		case types.Bool:
			c.prog.Emit(bytecode.B2I)
		default:
			c.errorf(call.Pos(), diag.Semantic, "to_i not supported on %s", xt)
			return c.ctx.VoidType()
		}
		return c.ctx.Intern("int")
	case "to_f":
		switch xt.Variant {
		case types.Int, types.Char:
			c.prog.Emit(bytecode.I2F)
		case types.Float:
		default:
			c.errorf(call.Pos(), diag.Semantic, "to_f not supported on %s", xt)
			return c.ctx.VoidType()
		}
		return c.ctx.Intern("float")
	case "to_c":
		switch xt.Variant {
		case types.Int, types.Char:
		case types.Float:
			c.prog.Emit(bytecode.F2I)
		default:
			c.errorf(call.Pos(), diag.Semantic, "to_c not supported on %s", xt)
			return c.ctx.VoidType()
		}
		return c.ctx.Intern("char")
	case "to_str":
		c.prog.Emit(bytecode.TOSTR)
		return c.ctx.StrType()
	default:
		c.errorf(call.Pos(), diag.Semantic, "unknown method '%s' on %s", name, xt)
		return c.ctx.VoidType()
	}
}

// callOptionBuiltin lowers the built-in methods of option(T) (§4.4.1).
func (c *Compiler) callOptionBuiltin(call *ast.Call, xt *types.Datatype, name string) *types.Datatype {
	if len(call.Args) != 0 {
		c.errorf(call.Pos(), diag.Semantic, "'%s' takes no arguments", name)
		return c.ctx.VoidType()
	}
	switch name {
	case "unwrap":
		return xt.Elem
	case "isSome":
		c.prog.EmitPush(bytecode.Int32Val(0))
		c.prog.Emit(bytecode.INE)
		return c.ctx.Intern("bool")
	case "isNone":
		c.prog.EmitPush(bytecode.Int32Val(0))
		c.prog.Emit(bytecode.IEQ)
		return c.ctx.Intern("bool")
	default:
		c.errorf(call.Pos(), diag.Semantic, "unknown option method '%s'", name)
		return c.ctx.VoidType()
	}
}

// compileCallArgs type-checks and compiles call's arguments against formals,
// in order, returning false (and recording a diagnostic) on arity or type
// mismatch (§4.4.1: "a parameter of generic accepts anything").
func (c *Compiler) compileCallArgs(call *ast.Call, formals []*ast.Param) bool {
	if len(call.Args) != len(formals) {
		c.errorf(call.Pos(), diag.Semantic, "wrong number of arguments: want %d, got %d", len(formals), len(call.Args))
		return false
	}
	for i, a := range call.Args {
		at := c.expr(a)
		if c.failed() {
			return false
		}
		want := c.resolveTypeExpr(formals[i].Type)
		if want.Variant != types.Generic && !types.Match(at, want) {
			c.errorf(a.Pos(), diag.Semantic, "argument %d has wrong type: want %s, got %s", i+1, want, at)
			return false
		}
	}
	return true
}
