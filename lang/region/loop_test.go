package region

import (
	"testing"

	"github.com/mna/vmdecompile/lang/ir"
	"github.com/stretchr/testify/require"
)

func insn(addr uint32, op ir.Op, target ...uint32) ir.Instruction {
	i := ir.Instruction{Addr: addr, Op: op, OpName: op.String()}
	if len(target) > 0 {
		i.Args = []ir.Arg{{Kind: ir.KindAddress, Value: target[0]}}
	}
	return i
}

func TestDetectLoopsV2PreTest(t *testing.T) {
	// 0: JUMP_IF_FALSE -> 4 (exit); 1..2: body; 3: JUMP -> 0 (back edge); 4: RETURN
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 4),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpStoreVariable),
		insn(3, ir.OpJump, 0),
		insn(4, ir.OpReturn),
	}
	loops, consumed := DetectLoops(insns)
	require.Len(t, loops, 1)
	l := loops[0]
	require.Equal(t, ir.LoopV2PreTest, l.Pattern)
	require.Equal(t, 0, l.CondStart)
	require.Equal(t, 0, l.CondJumpIdx)
	require.Equal(t, 1, l.BodyStart)
	require.Equal(t, 3, l.BodyEnd)
	require.Equal(t, 3, l.BackJumpIdx)
	require.Equal(t, 4, l.ExitIdx)
	require.False(t, l.IsTrue)
	require.True(t, consumed[0])
	require.True(t, consumed[3])
}

func TestDetectLoopsV1PostTest(t *testing.T) {
	// 0: JUMP -> 3 (init); 1..2: body; 3: PUSH_BOOL (cond start); 4: JUMP_IF_TRUE -> 1 (back edge); 5: RETURN
	insns := []ir.Instruction{
		insn(0, ir.OpJump, 3),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpStoreVariable),
		insn(3, ir.OpPushBool),
		insn(4, ir.OpJumpIfTrue, 1),
		insn(5, ir.OpReturn),
	}
	loops, consumed := DetectLoops(insns)
	require.Len(t, loops, 1)
	l := loops[0]
	require.Equal(t, ir.LoopV1PostTest, l.Pattern)
	require.Equal(t, 0, l.InitJumpIdx)
	require.Equal(t, 1, l.BodyStart)
	require.Equal(t, 3, l.BodyEnd)
	require.Equal(t, 3, l.CondStart)
	require.Equal(t, 4, l.CondJumpIdx)
	require.Equal(t, 5, l.ExitIdx)
	require.True(t, l.IsTrue)
	require.True(t, consumed[0])
	require.True(t, consumed[4])
}

func TestDetectLoopsNoFalsePositiveOnPlainIfElse(t *testing.T) {
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 2),
		insn(1, ir.OpJump, 3),
		insn(2, ir.OpJump, 3),
		insn(3, ir.OpReturn),
	}
	loops, consumed := DetectLoops(insns)
	require.Empty(t, loops)
	require.Empty(t, consumed)
}

func TestDetectLoopsNoInstructionInTwoLoops(t *testing.T) {
	// Two independent V2 pre-test loops back to back; every consumed index
	// must belong to exactly one of them.
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 3),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpJump, 0),
		insn(3, ir.OpJumpIfFalse, 6),
		insn(4, ir.OpPushInt),
		insn(5, ir.OpJump, 3),
		insn(6, ir.OpReturn),
	}
	loops, consumed := DetectLoops(insns)
	require.Len(t, loops, 2)
	require.True(t, consumed[0])
	require.True(t, consumed[2])
	require.True(t, consumed[3])
	require.True(t, consumed[5])
}
