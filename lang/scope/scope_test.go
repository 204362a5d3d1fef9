package scope

import (
	"testing"

	"github.com/mna/vela/lang/types"
	"github.com/stretchr/testify/require"
)

func TestDeclareAndLookup(t *testing.T) {
	root := Push(nil)
	ctx := types.NewContext()
	sym := &Symbol{Type: ctx.Intern("int")}
	require.True(t, root.Declare("x", sym))
	require.False(t, root.Declare("x", sym)) // redefinition

	got := root.Lookup("x")
	require.Same(t, sym, got)
	require.Nil(t, root.Lookup("y"))
}

func TestVirtualScopeSharesAddressCounter(t *testing.T) {
	root := Push(nil)
	root.NextAddress = 3

	v := PushVirtual(root)
	require.Equal(t, int32(3), v.NextAddress)
	v.NextAddress = 5
	v.Pop()
	require.Equal(t, int32(5), root.NextAddress)
}

func TestCountingScopeDoesNotLeakAddress(t *testing.T) {
	root := Push(nil)
	root.NextAddress = 2
	child := Push(root)
	child.NextAddress = 9
	child.Pop()
	require.Equal(t, int32(2), root.NextAddress)
}

func TestClosureDepthCrossesOnlyNonVirtualBoundaries(t *testing.T) {
	ctx := types.NewContext()
	fn := Push(nil) // function scope
	sym := &Symbol{Type: ctx.Intern("int")}
	fn.Declare("x", sym)

	ifBody := PushVirtual(fn)
	innerFn := Push(ifBody) // nested function: a real closure boundary

	got, depth := innerFn.LookupWithDepth("x")
	require.Same(t, sym, got)
	require.Equal(t, 1, depth)

	// From directly inside the virtual if-body, no boundary is crossed.
	got2, depth2 := ifBody.LookupWithDepth("x")
	require.Same(t, sym, got2)
	require.Equal(t, 0, depth2)
}

func TestClassLookup(t *testing.T) {
	root := Push(nil)
	ctx := types.NewContext()
	classSym := &Symbol{Type: ctx.Intern("Point")}
	require.True(t, root.DeclareClass("Point", classSym))
	require.Same(t, classSym, root.LookupClass("Point"))
	require.Nil(t, root.LookupClass("Missing"))

	found := root.FindClassByID(classSym.Type.ClassID, func(s *Symbol) bool {
		return s.Type.ClassID == classSym.Type.ClassID
	})
	require.Same(t, classSym, found)
}

func TestAnnotationFlagsConsumedOnce(t *testing.T) {
	root := Push(nil)
	root.AnnotationFlags = FlagGetter
	require.Equal(t, FlagGetter, root.ConsumeAnnotations())
	require.Equal(t, AnnotationFlags(0), root.ConsumeAnnotations())
}
