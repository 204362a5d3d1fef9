package compiler

import "github.com/mna/vela/lang/ast"

// signature describes one host intrinsic registered by a `using core/math/io`
// statement: enough to synthesize the external DeclFunc the rest of the
// compiler treats exactly like any other function symbol (§4.4.2's import
// rule).
type signature struct {
	lib    string
	name   string
	params []string // parameter type names, resolved via the compiler's own Context
	ret    string   // "" means void
}

// intrinsics is the single global, fixed-order catalog of every host
// intrinsic across core/math/io. Its order assigns each entry's 1-based
// external index independently of which subset of libraries a given
// program actually `using`s, so `SYSCALL<n-1>` names the same entry
// whether the program imported only "math" or all three: lang/runtime's
// AllIntrinsics table is declared in this exact same order.
var intrinsics = []signature{
	{lib: "core", name: "println", params: []string{"generic"}, ret: ""},
	{lib: "core", name: "print", params: []string{"generic"}, ret: ""},
	{lib: "core", name: "sysarg", params: []string{"int"}, ret: "str"},

	{lib: "math", name: "sin", params: []string{"float"}, ret: "float"},
	{lib: "math", name: "cos", params: []string{"float"}, ret: "float"},
	{lib: "math", name: "tan", params: []string{"float"}, ret: "float"},
	{lib: "math", name: "sqrt", params: []string{"float"}, ret: "float"},
	{lib: "math", name: "pow", params: []string{"float", "float"}, ret: "float"},
	{lib: "math", name: "abs", params: []string{"float"}, ret: "float"},
	{lib: "math", name: "floor", params: []string{"float"}, ret: "float"},
	{lib: "math", name: "ceil", params: []string{"float"}, ret: "float"},

	{lib: "io", name: "readLine", params: nil, ret: "str"},
	{lib: "io", name: "writeFile", params: []string{"str", "str"}, ret: "bool"},
}

// stdlibSignatures returns, for a given `using path`, the (index, signature)
// pairs path registers, index being the fixed 1-based position of each
// entry in the global intrinsics catalog above.
func stdlibSignatures(path string) []indexedSignature {
	var out []indexedSignature
	for i, sig := range intrinsics {
		if sig.lib == path {
			out = append(out, indexedSignature{index: i + 1, sig: sig})
		}
	}
	return out
}

type indexedSignature struct {
	index int
	sig   signature
}

// asDeclFunc synthesizes the external DeclFunc node the rest of the
// compiler lowers identically to a source-declared `func` (declFunc already
// branches on d.External to skip body compilation and assign Address=-1).
func (is indexedSignature) asDeclFunc() *ast.DeclFunc {
	sig := is.sig
	formals := make([]*ast.Param, len(sig.params))
	for i, p := range sig.params {
		formals[i] = &ast.Param{Name: paramName(i), Type: &ast.TypeExpr{Name: p}}
	}
	var ret *ast.TypeExpr
	if sig.ret != "" {
		ret = &ast.TypeExpr{Name: sig.ret}
	}
	return &ast.DeclFunc{
		Name:          sig.name,
		Formals:       formals,
		RetType:       ret,
		External:      true,
		ExternalIndex: is.index,
	}
}

func paramName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return "p"
}
