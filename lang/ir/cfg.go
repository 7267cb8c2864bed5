package ir

import "github.com/dolthub/swiss"

// CFG is the control-flow graph of one function body: its basic blocks, an
// entry block, the set of exit blocks, and the address/index lookups the CFG
// builder, dominator analysis and region recognizer all need repeatedly
// (original §3). It is built once per function body and never mutated after
// construction finishes.
type CFG struct {
	Insns []Instruction

	Blocks  []*BasicBlock
	EntryId int
	ExitIds []int

	// addrToIdx maps an instruction's Addr to its index in Insns. Built once,
	// queried on every jump-target resolution during CFG construction and
	// region recognition, hence the swiss.Map: a large, static, integer-keyed
	// index exactly like the shape the teacher already reaches for swiss to
	// back (lang/machine/map.go's language-level Map).
	addrToIdx *swiss.Map[uint32, int]

	// idxToBlock maps an instruction index to the Id of the block containing
	// it.
	idxToBlock []int
}

// NewCFG builds the lookup indexes for insns and returns an otherwise-empty
// CFG; the caller (lang/cfg) populates Blocks, EntryId and ExitIds.
func NewCFG(insns []Instruction) *CFG {
	c := &CFG{
		Insns:      insns,
		addrToIdx:  swiss.NewMap[uint32, int](uint32(len(insns))),
		idxToBlock: make([]int, len(insns)),
	}
	for i, insn := range insns {
		c.addrToIdx.Put(insn.Addr, i)
	}
	for i := range c.idxToBlock {
		c.idxToBlock[i] = -1
	}
	return c
}

// IndexOfAddr returns the instruction index whose Addr equals addr, and
// whether one was found. Every jump argument is expected to resolve here
// (original invariant I2); a miss means the disassembler should have
// recorded a diagnostic already.
func (c *CFG) IndexOfAddr(addr uint32) (int, bool) {
	return c.addrToIdx.Get(addr)
}

// Block returns the block with the given Id, or nil if out of range.
func (c *CFG) Block(id int) *BasicBlock {
	if id < 0 || id >= len(c.Blocks) {
		return nil
	}
	return c.Blocks[id]
}

// BlockContainingIdx returns the block whose [StartIdx,EndIdx) range
// contains instruction index idx.
func (c *CFG) BlockContainingIdx(idx int) *BasicBlock {
	if idx < 0 || idx >= len(c.idxToBlock) {
		return nil
	}
	id := c.idxToBlock[idx]
	if id < 0 {
		return nil
	}
	return c.Blocks[id]
}

// AssignBlock marks every instruction index in [start,end) as belonging to
// block id. Called once per block by the CFG builder (lang/cfg) as it
// appends to Blocks.
func (c *CFG) AssignBlock(id, start, end int) {
	for i := start; i < end; i++ {
		c.idxToBlock[i] = id
	}
}

// Entry returns the CFG's entry block.
func (c *CFG) Entry() *BasicBlock {
	return c.Block(c.EntryId)
}

// Exits returns the CFG's exit blocks, in Id order.
func (c *CFG) Exits() []*BasicBlock {
	bs := make([]*BasicBlock, 0, len(c.ExitIds))
	for _, id := range c.ExitIds {
		bs = append(bs, c.Block(id))
	}
	return bs
}
