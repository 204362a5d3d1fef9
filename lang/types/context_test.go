package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternPrimitivesIdentity(t *testing.T) {
	c := NewContext()
	require.Same(t, c.Intern("int"), c.Intern("int"))
	require.Same(t, c.Intern("bool"), c.Intern("bool"))
	require.NotSame(t, c.Intern("int"), c.Intern("float"))
}

func TestInternClassByDjb2(t *testing.T) {
	c := NewContext()
	a := c.Intern("Point")
	b := c.Intern("Point")
	require.Same(t, a, b)
	require.Equal(t, Djb2("Point"), a.ClassID)
	require.NotSame(t, a, c.Intern("Other"))
}

func TestArrayAndOptionCanonicalization(t *testing.T) {
	c := NewContext()
	intT := c.Intern("int")
	a1 := c.Array(intT)
	a2 := c.Array(intT)
	require.Same(t, a1, a2)

	o1 := c.OptionOf(intT)
	o2 := c.OptionOf(intT)
	require.Same(t, o1, o2)
	require.NotSame(t, a1, o1)

	nested1 := c.Array(c.Array(intT))
	nested2 := c.Array(c.Array(intT))
	require.Same(t, nested1, nested2)
}

func TestMatchStructural(t *testing.T) {
	c := NewContext()
	intT := c.Intern("int")
	floatT := c.Intern("float")
	require.True(t, Match(c.Array(intT), c.Array(intT)))
	require.False(t, Match(c.Array(intT), c.Array(floatT)))
	require.True(t, Match(intT, intT))
}

func TestStrIsArrayOfChar(t *testing.T) {
	c := NewContext()
	str := c.StrType()
	require.True(t, str.IsStr())
	require.Same(t, str, c.Array(c.Intern("char")))
	require.Equal(t, "str", str.String())
}

func TestPointerEqualityIffStructuralEquality(t *testing.T) {
	c := NewContext()
	intT := c.Intern("int")
	a := c.Array(intT)
	b := c.FindOrCreate(&Datatype{Variant: Array, Elem: intT})
	require.True(t, (a == b) == Match(a, b))
}
