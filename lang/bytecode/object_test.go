package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStringAndArray(t *testing.T) {
	s := NewString("hello")
	require.Equal(t, ObjString, s.Kind)
	require.Equal(t, "hello", s.Str())
	require.Equal(t, 5, s.Len())

	a := NewArray([]Value{Int32Val(1), Int32Val(2)})
	require.Equal(t, ObjArray, a.Kind)
	require.Equal(t, 2, a.Len())
}

func TestNewClassZeroedFields(t *testing.T) {
	c := NewClass(3)
	require.Equal(t, ObjClass, c.Kind)
	require.Len(t, c.Elems(), 3)
	for _, f := range c.Elems() {
		require.True(t, f.IsNull())
	}
}

func TestFreelistLinking(t *testing.T) {
	a := NewString("a")
	b := NewString("b")
	a.SetNext(b)
	require.Same(t, b, a.Next())
}
