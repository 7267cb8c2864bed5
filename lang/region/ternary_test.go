package region

import (
	"testing"

	"github.com/mna/vmdecompile/lang/cfg"
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/stretchr/testify/require"
)

func TestAsTernaryBothBranchesPureExpressions(t *testing.T) {
	// 0: JUMP_IF_FALSE->3; 1: PUSH_INT (true, pure); 2: JUMP->4; 3: PUSH_INT
	// (false, pure, falls through); 4: RETURN
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 3),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpJump, 4),
		insn(3, ir.OpPushInt),
		insn(4, ir.OpReturn),
	}
	c := cfg.Build(insns)
	dom := cfg.ComputeDominators(c)
	pdom := cfg.ComputePostDominators(c)

	regions := DetectIfElse(c, dom, pdom, map[int]bool{})
	require.Len(t, regions, 1)
	require.True(t, AsTernary(regions[0], c))
}

func TestAsTernaryRejectsMultiBlockBranch(t *testing.T) {
	// true branch spans two blocks (1 and 2) before reaching the merge.
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 5),
		insn(1, ir.OpJumpIfTrue, 3),
		insn(2, ir.OpPushInt),
		insn(3, ir.OpPushInt),
		insn(4, ir.OpJump, 6),
		insn(5, ir.OpPushInt),
		insn(6, ir.OpReturn),
	}
	c := cfg.Build(insns)
	dom := cfg.ComputeDominators(c)
	pdom := cfg.ComputePostDominators(c)

	regions := DetectIfElse(c, dom, pdom, map[int]bool{})
	for _, r := range regions {
		if len(r.TrueBlocks) > 1 || len(r.FalseBlocks) > 1 {
			require.False(t, AsTernary(r, c))
			return
		}
	}
}

func TestAsTernaryRejectsThrow(t *testing.T) {
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 3),
		insn(1, ir.OpThrow),
		insn(2, ir.OpJump, 4),
		insn(3, ir.OpPushInt),
		insn(4, ir.OpReturn),
	}
	c := cfg.Build(insns)
	dom := cfg.ComputeDominators(c)
	pdom := cfg.ComputePostDominators(c)

	regions := DetectIfElse(c, dom, pdom, map[int]bool{})
	require.Len(t, regions, 1)
	require.False(t, AsTernary(regions[0], c))
}
