package region

import "github.com/mna/vmdecompile/lang/ir"

// ternaryExcluded lists the ops that disqualify a branch from being a pure
// expression sequence for ternary purposes (original §4.6): assignment and
// control-transfer ops have observable side effects or change flow in ways
// a single conditional expression cannot represent.
var ternaryExcluded = map[ir.Op]bool{
	ir.OpStoreVariable: true,
	ir.OpSetProperty:   true,
	ir.OpThrow:         true,
	ir.OpReturn:        true,
	ir.OpDebugger:      true,
}

// AsTernary reports whether an if-else region qualifies as a ternary
// (original §4.6): both branches are exactly one basic block, and every
// instruction in each block is a pure expression once a terminal JUMP (the
// jump to the merge block) is stripped.
func AsTernary(r ir.IfElseRegion, c *ir.CFG) bool {
	if len(r.TrueBlocks) != 1 || len(r.FalseBlocks) != 1 {
		return false
	}
	return isPureExpressionBlock(c, r.TrueBlocks[0]) && isPureExpressionBlock(c, r.FalseBlocks[0])
}

func isPureExpressionBlock(c *ir.CFG, blockId int) bool {
	b := c.Block(blockId)
	if b == nil {
		return false
	}
	insns := b.Instructions(c.Insns)
	for i, insn := range insns {
		if insn.Op == ir.OpJump && i == len(insns)-1 {
			continue // terminal jump to the merge block, stripped
		}
		if ternaryExcluded[insn.Op] {
			return false
		}
	}
	return true
}
