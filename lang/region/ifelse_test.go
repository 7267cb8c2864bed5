package region

import (
	"testing"

	"github.com/mna/vmdecompile/lang/cfg"
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/stretchr/testify/require"
)

func TestDetectIfElsePlain(t *testing.T) {
	// 0: JUMP_IF_FALSE->3 (else); 1: STORE_VARIABLE (true body, side effect);
	// 2: JUMP->4 (merge); 3: PUSH_INT (false body, falls through); 4: RETURN
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 3),
		insn(1, ir.OpStoreVariable),
		insn(2, ir.OpJump, 4),
		insn(3, ir.OpPushInt),
		insn(4, ir.OpReturn),
	}
	c := cfg.Build(insns)
	dom := cfg.ComputeDominators(c)
	pdom := cfg.ComputePostDominators(c)

	regions := DetectIfElse(c, dom, pdom, map[int]bool{})
	require.Len(t, regions, 1)
	r := regions[0]
	require.Equal(t, 0, r.CondJumpIdx)
	require.Len(t, r.TrueBlocks, 1)
	require.Len(t, r.FalseBlocks, 1)

	require.False(t, AsTernary(r, c), "true branch has a STORE_VARIABLE side effect")
}

func TestDetectIfElseExcludesLoopConditional(t *testing.T) {
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 4),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpStoreVariable),
		insn(3, ir.OpJump, 0),
		insn(4, ir.OpReturn),
	}
	_, loopConsumed := DetectLoops(insns)
	require.True(t, loopConsumed[0])

	c := cfg.Build(insns)
	dom := cfg.ComputeDominators(c)
	pdom := cfg.ComputePostDominators(c)

	regions := DetectIfElse(c, dom, pdom, loopConsumed)
	require.Empty(t, regions, "the loop's own conditional must not also surface as an if-else")
}
