package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInt32RoundTrip(t *testing.T) {
	for _, i := range []int32{0, 1, -1, 2147483647, -2147483648} {
		v := Int32Val(i)
		require.True(t, v.IsInt32())
		require.False(t, v.IsNum())
		require.Equal(t, i, v.AsInt32())
	}
}

func TestNumRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1.5, -3.25, 1e300} {
		v := NumVal(f)
		require.True(t, v.IsNum())
		require.False(t, v.IsInt32())
		require.Equal(t, f, v.AsNum())
	}
}

func TestBoolSingletons(t *testing.T) {
	require.Equal(t, TrueVal, BoolVal(true))
	require.Equal(t, FalseVal, BoolVal(false))
	require.True(t, TrueVal.IsBool())
	require.True(t, TrueVal.AsBool())
	require.False(t, FalseVal.AsBool())
}

func TestNullAndUndefined(t *testing.T) {
	require.True(t, NullVal.IsNull())
	require.False(t, NullVal.IsUndefined())
	require.True(t, UndefinedVal.IsUndefined())
}

func TestObjRoundTrip(t *testing.T) {
	o := NewString("hi")
	v := ObjVal(o)
	require.True(t, v.IsObj())
	require.Same(t, o, v.AsObj())
}

func TestTruthy(t *testing.T) {
	require.True(t, TrueVal.Truthy())
	require.False(t, FalseVal.Truthy())
	require.False(t, NullVal.Truthy())
	require.False(t, Int32Val(0).Truthy())
	require.True(t, Int32Val(1).Truthy())
	require.True(t, NumVal(0.5).Truthy())
	require.False(t, NumVal(0).Truthy())
}

func TestEqual(t *testing.T) {
	require.True(t, Int32Val(3).Equal(Int32Val(3)))
	require.False(t, Int32Val(3).Equal(Int32Val(4)))
	require.True(t, NumVal(1.5).Equal(NumVal(1.5)))
	require.False(t, Int32Val(3).Equal(NumVal(3)))
	o := NewString("x")
	require.True(t, ObjVal(o).Equal(ObjVal(o)))
	require.False(t, ObjVal(o).Equal(ObjVal(NewString("x"))))
}
