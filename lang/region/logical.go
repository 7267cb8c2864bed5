package region

import "github.com/mna/vmdecompile/lang/ir"

// DetectLogical scans insns for the short-circuit logical triple (original
// §4.6): STACK_PUSH_DUPLICATE, JUMP_IF_{FALSE,TRUE} with a forward target,
// STACK_POP, then a pure-expression tail running up to the target.
// JUMP_IF_FALSE corresponds to &&, JUMP_IF_TRUE to ||.
func DetectLogical(insns []ir.Instruction) []ir.LogicalRegion {
	addrIdx := make(map[uint32]int, len(insns))
	for i, insn := range insns {
		addrIdx[insn.Addr] = i
	}

	var regions []ir.LogicalRegion
	for i := 0; i+2 < len(insns); i++ {
		dup, jmp, pop := insns[i], insns[i+1], insns[i+2]
		if dup.Op != ir.OpStackDuplicate || !jmp.IsConditionalJump() || pop.Op != ir.OpStackPop {
			continue
		}

		target, ok := jmp.JumpTarget()
		if !ok {
			continue
		}
		targetIdx, found := addrIdx[target]
		if !found || targetIdx <= i+2 {
			continue // must be a forward target past the triple
		}
		pure := true
		for _, t := range insns[i+3 : targetIdx] {
			if ternaryExcluded[t.Op] {
				pure = false // same pure-expression test as AsTernary
				break
			}
		}
		if !pure {
			continue
		}

		operator := "&&"
		if jmp.Op == ir.OpJumpIfTrue {
			operator = "||"
		}

		regions = append(regions, ir.LogicalRegion{
			Operator:     operator,
			DuplicateIdx: i,
			JumpIdx:      i + 1,
			PopIdx:       i + 2,
			RightStart:   i + 3,
			RightEnd:     targetIdx,
			TargetIdx:    targetIdx,
		})
	}
	return regions
}
