// Package cfg builds the control-flow graph of one disassembled function
// body (original §4.4): it finds basic-block leaders, partitions the
// instruction stream into blocks, and wires successor/predecessor edges.
// Dominator and post-dominator analysis (original §4.5) lives alongside it
// in dominators.go, since both stages operate on the same *ir.CFG and
// neither is useful standalone to the region recognizer that consumes them.
package cfg

import (
	"golang.org/x/exp/slices"

	"github.com/mna/vmdecompile/lang/ir"
)

// Build partitions insns into basic blocks and wires their edges, per
// original §4.4. insns must come from a single disassembled function body
// (addrs strictly increasing, original invariant I1).
func Build(insns []ir.Instruction) *ir.CFG {
	c := ir.NewCFG(insns)
	if len(insns) == 0 {
		return c
	}

	leaders := leaderIndexes(c, insns)
	blocks := partition(c, insns, leaders)
	c.Blocks = blocks
	c.EntryId = 0
	wireEdges(c, insns, blocks)
	c.ExitIds = exitIds(blocks)
	return c
}

// leaderIndexes computes the set of leader instruction indexes: index 0,
// every jump target, and the instruction immediately after any jump or
// RETURN (original §4.4).
func leaderIndexes(c *ir.CFG, insns []ir.Instruction) []int {
	set := map[int]bool{0: true}

	for i, insn := range insns {
		if target, ok := insn.JumpTarget(); ok {
			if idx, found := c.IndexOfAddr(target); found {
				set[idx] = true
			}
		}
		if insn.IsTerminator() && i+1 < len(insns) {
			set[i+1] = true
		}
	}

	leaders := make([]int, 0, len(set))
	for idx := range set {
		leaders = append(leaders, idx)
	}
	slices.Sort(leaders)
	return leaders
}

// partition builds one BasicBlock per consecutive pair of leaders, spanning
// [leader_i, leader_{i+1}) (half-open, per original §4.4), and records the
// instruction-index-to-block mapping on c.
func partition(c *ir.CFG, insns []ir.Instruction, leaders []int) []*ir.BasicBlock {
	blocks := make([]*ir.BasicBlock, 0, len(leaders))
	for i, start := range leaders {
		end := len(insns)
		if i+1 < len(leaders) {
			end = leaders[i+1]
		}
		b := &ir.BasicBlock{Id: i, StartIdx: start, EndIdx: end}
		blocks = append(blocks, b)
		c.AssignBlock(i, start, end)
	}
	return blocks
}

// wireEdges connects each block to its successors per original §4.4:
// unconditional JUMP -> one successor; conditional JUMP_IF_{TRUE,FALSE} ->
// target plus fallthrough; RETURN -> no successor (exit); otherwise ->
// fallthrough.
func wireEdges(c *ir.CFG, insns []ir.Instruction, blocks []*ir.BasicBlock) {
	for _, b := range blocks {
		if b.EndIdx == 0 {
			continue
		}
		last := insns[b.EndIdx-1]

		fallthroughId := -1
		if b.EndIdx < len(insns) {
			if fb := c.BlockContainingIdx(b.EndIdx); fb != nil {
				fallthroughId = fb.Id
			}
		}

		switch {
		case last.Op == ir.OpReturn:
			// exit block: no successors.

		case last.Op == ir.OpJump:
			if target, ok := last.JumpTarget(); ok {
				if idx, found := c.IndexOfAddr(target); found {
					if tb := c.BlockContainingIdx(idx); tb != nil {
						connect(c, b.Id, tb.Id)
					}
				}
			}

		case last.IsConditionalJump():
			b.IsConditional = true
			targetId := -1
			if target, ok := last.JumpTarget(); ok {
				if idx, found := c.IndexOfAddr(target); found {
					if tb := c.BlockContainingIdx(idx); tb != nil {
						targetId = tb.Id
					}
				}
			}
			if last.Op == ir.OpJumpIfTrue {
				b.TrueSuccessor = targetId
				b.FalseSuccessor = fallthroughId
			} else {
				b.FalseSuccessor = targetId
				b.TrueSuccessor = fallthroughId
			}
			if targetId >= 0 {
				connect(c, b.Id, targetId)
			}
			if fallthroughId >= 0 {
				connect(c, b.Id, fallthroughId)
			}

		default:
			if fallthroughId >= 0 {
				connect(c, b.Id, fallthroughId)
			}
		}
	}
}

// connect records a successor/predecessor edge on both endpoints, deduping
// as ir.BasicBlock's own unexported helpers would (those helpers are
// unexported to lang/ir, so the builder keeps its own equivalent dedup
// here).
func connect(c *ir.CFG, fromId, toId int) {
	from, to := c.Block(fromId), c.Block(toId)
	if from == nil || to == nil {
		return
	}
	for _, s := range from.Successors {
		if s == toId {
			return
		}
	}
	from.Successors = append(from.Successors, toId)
	for _, p := range to.Predecessors {
		if p == fromId {
			return
		}
	}
	to.Predecessors = append(to.Predecessors, fromId)
}

func exitIds(blocks []*ir.BasicBlock) []int {
	var ids []int
	for _, b := range blocks {
		if b.IsExit() {
			ids = append(ids, b.Id)
		}
	}
	return ids
}
