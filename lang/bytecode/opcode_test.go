package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcodeOrderIsContiguous(t *testing.T) {
	require.Equal(t, Opcode(0), HLT)
	require.Equal(t, HLT+1, PUSH)
	require.True(t, numOpcodes > GETFIELD)
}

func TestOpcodeStringAndArgCount(t *testing.T) {
	require.Equal(t, "PUSH", PUSH.String())
	require.Equal(t, 1, PUSH.ArgCount())
	require.Equal(t, 0, POP.ArgCount())
	require.Equal(t, 2, INVOKE.ArgCount())
	require.Equal(t, 2, UPVAL.ArgCount())
}

func TestProgramEmitAndPatch(t *testing.T) {
	var p Program
	j := p.Emit1(JMP, -1)
	p.Emit(HLT)
	require.Equal(t, 2, p.Here())
	p.Patch(j, p.Here())
	require.Equal(t, 2, p.Instructions[j].Arg0())
}

func TestInstructionArgs(t *testing.T) {
	var p Program
	addr := p.Emit2(INVOKE, 10, 3)
	ins := p.Instructions[addr]
	require.Equal(t, 10, ins.Arg0())
	require.Equal(t, 3, ins.Arg1())
}
