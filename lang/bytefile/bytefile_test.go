package bytefile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/vela/lang/bytecode"
)

func TestRoundTripEmptyProgram(t *testing.T) {
	p := &bytecode.Program{}
	b := Encode(p)
	got, err := Decode(b)
	require.NoError(t, err)
	require.Empty(t, got.Instructions)
}

func TestRoundTripMixedInstructions(t *testing.T) {
	var p bytecode.Program
	p.EmitPush(bytecode.Int32Val(42))
	p.EmitPush(bytecode.NumVal(3.25))
	p.EmitPush(bytecode.TrueVal)
	p.EmitPush(bytecode.NullVal)
	p.EmitPush(bytecode.ObjVal(bytecode.NewString("hello")))
	p.Emit(bytecode.IADD)
	p.Emit1(bytecode.JMP, 0)
	p.Emit2(bytecode.INVOKE, 3, 2)
	p.Emit1(bytecode.RESERVE, 5)
	p.Emit(bytecode.RET)

	b := Encode(&p)
	got, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, got.Instructions, len(p.Instructions))

	for i, want := range p.Instructions {
		have := got.Instructions[i]
		require.Equal(t, want.Op, have.Op, "instruction %d opcode", i)
		argc := want.Op.ArgCount()
		for a := 0; a < argc; a++ {
			wantArg, haveArg := want.Args[a], have.Args[a]
			if wantArg.IsObj() {
				require.True(t, haveArg.IsObj(), "instruction %d operand %d", i, a)
				require.Equal(t, wantArg.AsObj().Str(), haveArg.AsObj().Str())
			} else {
				require.Equal(t, wantArg.Bits(), haveArg.Bits(), "instruction %d operand %d", i, a)
			}
		}
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	b := Encode(&bytecode.Program{})
	b[0] ^= 0xFF
	_, err := Decode(b)
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedInstruction(t *testing.T) {
	var p bytecode.Program
	p.EmitPush(bytecode.Int32Val(1))
	b := Encode(&p)
	_, err := Decode(b[:len(b)-3])
	require.Error(t, err)
}

func TestDecodeRejectsArgCountMismatch(t *testing.T) {
	var p bytecode.Program
	p.Emit(bytecode.HLT)
	b := Encode(&p)
	// corrupt the arg_count byte of the single HLT instruction (argc=0 -> 1)
	b[9] = 1
	_, err := Decode(b)
	require.Error(t, err)
}
