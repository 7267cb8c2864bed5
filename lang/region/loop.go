// Package region implements the Region Recognizer (original §4.6): from a
// disassembled instruction stream and its CFG (dominators and
// post-dominators from lang/cfg), it recovers the structured shapes the
// lifter consumes -- loops, if/if-else, ternaries, short-circuit logicals,
// and try/catch/finally -- as read-only views over the instruction indices
// they span. Region maps never own blocks; lang/ir.CFG remains their single
// source of truth.
package region

import "github.com/mna/vmdecompile/lang/ir"

// DetectLoops scans insns for both loop shapes described in original §4.6.
// consumed marks every instruction index already claimed by a recognized
// loop's jumps, enforcing "no instruction belongs to two loop regions" --
// V2 detection consumes the conditional jump and the back jump, V1
// consumes the initial jump and the conditional jump, and an index already
// in consumed is skipped by subsequent scans.
func DetectLoops(insns []ir.Instruction) ([]ir.LoopRegion, map[int]bool) {
	consumed := make(map[int]bool)
	var loops []ir.LoopRegion

	addrIdx := make(map[uint32]int, len(insns))
	for i, insn := range insns {
		addrIdx[insn.Addr] = i
	}
	indexOfAddr := func(addr uint32) int {
		if idx, ok := addrIdx[addr]; ok {
			return idx
		}
		return -1
	}

	// V2 pre-test: JUMP_IF_{FALSE,TRUE} forward exit, body, then an
	// unconditional JUMP back to or before the conditional.
	for i, insn := range insns {
		if consumed[i] || !insn.IsConditionalJump() {
			continue
		}
		exitAddr, ok := insn.JumpTarget()
		if !ok {
			continue
		}
		exitIdx := indexOfAddr(exitAddr)
		if exitIdx < 0 || exitIdx <= i {
			continue // not a forward exit
		}
		// find the terminating back-jump: the unconditional JUMP at exitIdx-1
		// whose target is at or before the conditional.
		backIdx := exitIdx - 1
		if backIdx <= i || backIdx >= len(insns) {
			continue
		}
		back := insns[backIdx]
		if back.Op != ir.OpJump {
			continue
		}
		backTarget, ok := back.JumpTarget()
		if !ok {
			continue
		}
		backTargetIdx := indexOfAddr(backTarget)
		if backTargetIdx < 0 || backTargetIdx > i {
			continue
		}

		loops = append(loops, ir.LoopRegion{
			Pattern:     ir.LoopV2PreTest,
			CondStart:   i,
			CondEnd:     i,
			CondJumpIdx: i,
			BodyStart:   i + 1,
			BodyEnd:     backIdx,
			BackJumpIdx: backIdx,
			ExitIdx:     exitIdx,
			IsTrue:      insn.Op == ir.OpJumpIfTrue,
		})
		consumed[i] = true
		consumed[backIdx] = true
	}

	// V1 post-test: unconditional forward JUMP to a later condition region,
	// followed (eventually) by a JUMP_IF_{TRUE,FALSE} whose target is a
	// back-edge re-entering at or before the loop body's first instruction.
	for i, insn := range insns {
		if consumed[i] || insn.Op != ir.OpJump {
			continue
		}
		condStart, ok := insn.JumpTarget()
		if !ok {
			continue
		}
		condStartIdx := indexOfAddr(condStart)
		if condStartIdx < 0 || condStartIdx <= i {
			continue // not a forward jump to a later condition
		}
		condJumpIdx := findConditionalJumpFrom(insns, condStartIdx, consumed)
		if condJumpIdx < 0 {
			continue
		}
		condJump := insns[condJumpIdx]
		backTarget, ok := condJump.JumpTarget()
		if !ok {
			continue
		}
		backTargetIdx := indexOfAddr(backTarget)
		if backTargetIdx < 0 || backTargetIdx > i+1 {
			continue // must re-enter at or before the loop body's first instruction
		}

		loops = append(loops, ir.LoopRegion{
			Pattern:     ir.LoopV1PostTest,
			InitJumpIdx: i,
			BodyStart:   i + 1,
			BodyEnd:     condStartIdx,
			CondStart:   condStartIdx,
			CondEnd:     condJumpIdx,
			CondJumpIdx: condJumpIdx,
			ExitIdx:     condJumpIdx + 1,
			IsTrue:      condJump.Op == ir.OpJumpIfTrue,
		})
		consumed[i] = true
		consumed[condJumpIdx] = true
	}

	return loops, consumed
}

// findConditionalJumpFrom scans forward from start for the first
// conditional jump not already consumed by another loop.
func findConditionalJumpFrom(insns []ir.Instruction, start int, consumed map[int]bool) int {
	for i := start; i < len(insns); i++ {
		if consumed[i] {
			continue
		}
		if insns[i].IsConditionalJump() {
			return i
		}
		if insns[i].Op == ir.OpReturn {
			return -1
		}
	}
	return -1
}
