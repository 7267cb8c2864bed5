package region

import "github.com/mna/vmdecompile/lang/ir"

// tryFrame tracks one open TRY_PUSH while DetectTryCatch scans linearly.
type tryFrame struct {
	tryStart    int
	catchAddr   uint32
	finallyAddr uint32
	hasFinally  bool
}

// DetectTryCatch scans insns linearly for TRY_PUSH/TRY_POP pairs (original
// §4.6), assuming well-nested try/catch/finally constructs. TRY_PUSH opens a
// frame recording its catch_addr (and finally_addr, V1 only); the matching
// TRY_POP closes it. The JUMP immediately following TRY_POP, if present,
// names the after-construct address, and the catch block is scanned forward
// from catch_addr for the JUMP that targets it.
func DetectTryCatch(insns []ir.Instruction) []ir.TryCatchRegion {
	addrIdx := make(map[uint32]int, len(insns))
	for i, insn := range insns {
		addrIdx[insn.Addr] = i
	}

	var regions []ir.TryCatchRegion
	var stack []tryFrame

	for i, insn := range insns {
		switch insn.Op {
		case ir.OpTryPush:
			frame := tryFrame{tryStart: i + 1}
			for _, a := range insn.Args {
				switch a.Kind {
				case ir.KindCatchAddr:
					frame.catchAddr = a.Uint32()
				case ir.KindFinallyAddr:
					frame.finallyAddr = a.Uint32()
					frame.hasFinally = true
				}
			}
			stack = append(stack, frame)

		case ir.OpTryPop:
			if len(stack) == 0 {
				continue
			}
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			catchStart, ok := addrIdx[frame.catchAddr]
			if !ok {
				continue
			}

			var afterAddr uint32
			var afterIdx int
			hasAfter := false
			if i+1 < len(insns) && insns[i+1].Op == ir.OpJump {
				if target, ok := insns[i+1].JumpTarget(); ok {
					afterAddr = target
					if idx, found := addrIdx[afterAddr]; found {
						afterIdx = idx
						hasAfter = true
					}
				}
			}

			catchEnd := len(insns)
			if hasAfter {
				catchEnd = findCatchEnd(insns, catchStart, afterAddr)
			}

			var finallyStart, finallyEnd int
			if frame.hasFinally {
				if fs, ok := addrIdx[frame.finallyAddr]; ok {
					finallyStart = fs
					finallyEnd = catchEnd
					if hasAfter {
						finallyEnd = afterIdx
					}
				}
			}

			regions = append(regions, ir.TryCatchRegion{
				TryStart:     frame.tryStart,
				TryEnd:       i,
				CatchAddr:    frame.catchAddr,
				CatchStart:   catchStart,
				CatchEnd:     catchEnd,
				FinallyStart: finallyStart,
				FinallyEnd:   finallyEnd,
				AfterAddr:    afterAddr,
			})
		}
	}

	return regions
}

// findCatchEnd scans forward from catchStart for the JUMP whose target
// equals afterAddr, the boundary original §4.6 names as ending the catch
// block.
func findCatchEnd(insns []ir.Instruction, catchStart int, afterAddr uint32) int {
	for i := catchStart; i < len(insns); i++ {
		if insns[i].Op == ir.OpJump {
			if target, ok := insns[i].JumpTarget(); ok && target == afterAddr {
				return i
			}
		}
	}
	return len(insns)
}
