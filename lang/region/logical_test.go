package region

import (
	"testing"

	"github.com/mna/vmdecompile/lang/ir"
	"github.com/stretchr/testify/require"
)

func TestDetectLogicalAnd(t *testing.T) {
	// 0: STACK_PUSH_DUPLICATE; 1: JUMP_IF_FALSE->4; 2: STACK_POP; 3: PUSH_INT
	// (right operand); 4: RETURN
	insns := []ir.Instruction{
		insn(0, ir.OpStackDuplicate),
		insn(1, ir.OpJumpIfFalse, 4),
		insn(2, ir.OpStackPop),
		insn(3, ir.OpPushInt),
		insn(4, ir.OpReturn),
	}
	regions := DetectLogical(insns)
	require.Len(t, regions, 1)
	r := regions[0]
	require.Equal(t, "&&", r.Operator)
	require.Equal(t, 0, r.DuplicateIdx)
	require.Equal(t, 1, r.JumpIdx)
	require.Equal(t, 2, r.PopIdx)
	require.Equal(t, 3, r.RightStart)
	require.Equal(t, 4, r.RightEnd)
	require.Equal(t, 4, r.TargetIdx)
}

func TestDetectLogicalOr(t *testing.T) {
	insns := []ir.Instruction{
		insn(0, ir.OpStackDuplicate),
		insn(1, ir.OpJumpIfTrue, 4),
		insn(2, ir.OpStackPop),
		insn(3, ir.OpPushInt),
		insn(4, ir.OpReturn),
	}
	regions := DetectLogical(insns)
	require.Len(t, regions, 1)
	require.Equal(t, "||", regions[0].Operator)
}

func TestDetectLogicalRejectsBackwardTarget(t *testing.T) {
	insns := []ir.Instruction{
		insn(0, ir.OpStackDuplicate),
		insn(1, ir.OpJumpIfFalse, 0),
		insn(2, ir.OpStackPop),
	}
	regions := DetectLogical(insns)
	require.Empty(t, regions)
}

func TestDetectLogicalRequiresExactTriple(t *testing.T) {
	insns := []ir.Instruction{
		insn(0, ir.OpStackDuplicate),
		insn(1, ir.OpJumpIfFalse, 3),
		insn(2, ir.OpPushInt), // not a STACK_POP
	}
	regions := DetectLogical(insns)
	require.Empty(t, regions)
}
