package ir

// BasicBlock is a maximal straight-line run of instructions with a single
// entry and a single exit (original glossary). Blocks are identified by a
// stable integer Id; successor/predecessor relationships are represented as
// Id lists rather than pointers so the graph (which has cycles on loops) can
// be walked and garbage-collected without cross-pointer bookkeeping
// (original §9, "cycles in the data model").
type BasicBlock struct {
	Id       int
	StartIdx int // index into the owning CFG's instruction slice, inclusive
	EndIdx   int // half-open: the block covers [StartIdx, EndIdx)

	Successors   []int
	Predecessors []int

	IsConditional  bool
	TrueSuccessor  int // block Id; meaningful only if IsConditional
	FalseSuccessor int // block Id; meaningful only if IsConditional
}

// Instructions returns the slice of instructions covered by b within insns,
// the full instruction slice of the owning CFG.
func (b *BasicBlock) Instructions(insns []Instruction) []Instruction {
	return insns[b.StartIdx:b.EndIdx]
}

// IsExit reports whether the block has no successors (it ends in RETURN, or
// disassembly of that path halted on error).
func (b *BasicBlock) IsExit() bool {
	return len(b.Successors) == 0
}

// addSuccessor appends to to b's successor list if not already present. It
// only updates b's own side; recording b as a predecessor of the block with
// Id to is left to the caller, so no whole-CFG reference is needed here.
func (b *BasicBlock) addSuccessor(to int) {
	for _, s := range b.Successors {
		if s == to {
			return
		}
	}
	b.Successors = append(b.Successors, to)
}

func (b *BasicBlock) addPredecessor(from int) {
	for _, p := range b.Predecessors {
		if p == from {
			return
		}
	}
	b.Predecessors = append(b.Predecessors, from)
}
