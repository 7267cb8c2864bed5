package region

import (
	"github.com/mna/vmdecompile/lang/cfg"
	"github.com/mna/vmdecompile/lang/ir"
)

// Set is everything the lifter needs from region recognition: the regions
// recognized by every pass, plus by-index lookups so the lifter's forward
// pass (original §4.7) can ask "does some region start here?" in O(1) at
// every instruction.
type Set struct {
	Loops      []ir.LoopRegion
	IfElses    []ir.IfElseRegion // ternaries filtered out; see Ternaries
	Ternaries  []ir.IfElseRegion
	Logicals   []ir.LogicalRegion
	TryCatches []ir.TryCatchRegion

	byCondStart    map[int]*ir.LoopRegion // V2PreTest, keyed by CondStart
	byInitJump     map[int]*ir.LoopRegion // V1PostTest, keyed by InitJumpIdx
	byCondBlock    map[int]*ir.IfElseRegion
	byTernaryBlock map[int]*ir.IfElseRegion
	byCondJumpIdx  map[int]*ir.IfElseRegion // plain if/else, keyed by CondJumpIdx
	byTernaryJump  map[int]*ir.IfElseRegion // ternary, keyed by CondJumpIdx
	byDuplicateIdx map[int]*ir.LogicalRegion
	byTryPushIdx   map[int]*ir.TryCatchRegion

	inLoopCond map[int]bool
}

// Recognize runs every region-recognition pass over one function body's CFG
// and instruction stream (original §4.6) and returns the combined set the
// lifter consults. diags is currently unused by recognition itself (every
// pass degrades gracefully to "no region found" on its own) but is threaded
// through for future passes that may want to report structuring ambiguity.
func Recognize(c *ir.CFG, diags *ir.DiagnosticSink) *Set {
	insns := c.Insns

	loops, loopConsumed := DetectLoops(insns)
	dom := cfg.ComputeDominators(c)
	pdom := cfg.ComputePostDominators(c)

	ifElses := DetectIfElse(c, dom, pdom, loopConsumed)

	var ternaries, plainIfElses []ir.IfElseRegion
	for _, r := range ifElses {
		if AsTernary(r, c) {
			ternaries = append(ternaries, r)
		} else {
			plainIfElses = append(plainIfElses, r)
		}
	}

	s := &Set{
		Loops:      loops,
		IfElses:    plainIfElses,
		Ternaries:  ternaries,
		Logicals:   DetectLogical(insns),
		TryCatches: DetectTryCatch(insns),

		byCondStart:    make(map[int]*ir.LoopRegion),
		byInitJump:     make(map[int]*ir.LoopRegion),
		byCondBlock:    make(map[int]*ir.IfElseRegion),
		byTernaryBlock: make(map[int]*ir.IfElseRegion),
		byCondJumpIdx:  make(map[int]*ir.IfElseRegion),
		byTernaryJump:  make(map[int]*ir.IfElseRegion),
		byDuplicateIdx: make(map[int]*ir.LogicalRegion),
		byTryPushIdx:   make(map[int]*ir.TryCatchRegion),
		inLoopCond:     make(map[int]bool),
	}

	for i := range s.Loops {
		l := &s.Loops[i]
		switch l.Pattern {
		case ir.LoopV2PreTest:
			s.byCondStart[l.CondStart] = l
		case ir.LoopV1PostTest:
			s.byInitJump[l.InitJumpIdx] = l
		}
		for idx := l.CondStart; idx < l.CondEnd; idx++ {
			s.inLoopCond[idx] = true
		}
	}
	for i := range s.IfElses {
		s.byCondBlock[s.IfElses[i].CondBlock] = &s.IfElses[i]
		s.byCondJumpIdx[s.IfElses[i].CondJumpIdx] = &s.IfElses[i]
	}
	for i := range s.Ternaries {
		s.byTernaryBlock[s.Ternaries[i].CondBlock] = &s.Ternaries[i]
		s.byTernaryJump[s.Ternaries[i].CondJumpIdx] = &s.Ternaries[i]
	}
	for i := range s.Logicals {
		s.byDuplicateIdx[s.Logicals[i].DuplicateIdx] = &s.Logicals[i]
	}
	for i := range s.TryCatches {
		s.byTryPushIdx[s.TryCatches[i].TryStart-1] = &s.TryCatches[i]
	}

	return s
}

// LoopAt returns the loop region starting (V2: conditional; V1: initial
// jump) at idx, and whether one was found.
func (s *Set) LoopAt(idx int) (*ir.LoopRegion, bool) {
	if l, ok := s.byCondStart[idx]; ok {
		return l, true
	}
	if l, ok := s.byInitJump[idx]; ok {
		return l, true
	}
	return nil, false
}

// InLoopCondition reports whether idx lies inside some loop's condition
// span (excluding the deciding jump itself, handled via LoopAt).
func (s *Set) InLoopCondition(idx int) bool {
	return s.inLoopCond[idx]
}

// TernaryAt returns the ternary region whose conditional block is blockId.
func (s *Set) TernaryAt(blockId int) (*ir.IfElseRegion, bool) {
	r, ok := s.byTernaryBlock[blockId]
	return r, ok
}

// IfElseAt returns the if/else region whose conditional block is blockId.
func (s *Set) IfElseAt(blockId int) (*ir.IfElseRegion, bool) {
	r, ok := s.byCondBlock[blockId]
	return r, ok
}

// IfElseAtJump returns the plain if/else region whose conditional jump
// instruction is at idx, for the lifter's per-instruction forward pass.
func (s *Set) IfElseAtJump(idx int) (*ir.IfElseRegion, bool) {
	r, ok := s.byCondJumpIdx[idx]
	return r, ok
}

// TernaryAtJump returns the ternary region whose conditional jump
// instruction is at idx, for the lifter's per-instruction forward pass.
func (s *Set) TernaryAtJump(idx int) (*ir.IfElseRegion, bool) {
	r, ok := s.byTernaryJump[idx]
	return r, ok
}

// LogicalAt returns the logical region whose STACK_PUSH_DUPLICATE is at idx.
func (s *Set) LogicalAt(idx int) (*ir.LogicalRegion, bool) {
	r, ok := s.byDuplicateIdx[idx]
	return r, ok
}

// TryCatchAt returns the try/catch region whose TRY_PUSH instruction is at
// idx.
func (s *Set) TryCatchAt(idx int) (*ir.TryCatchRegion, bool) {
	r, ok := s.byTryPushIdx[idx]
	return r, ok
}
