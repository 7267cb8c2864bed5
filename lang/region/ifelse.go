package region

import (
	"github.com/mna/vmdecompile/lang/cfg"
	"github.com/mna/vmdecompile/lang/ir"
)

// DetectIfElse recognizes conditional basic blocks whose true and false
// successors are both dominated by the conditional block and converge at a
// common immediate post-dominator, the merge block (original §4.6).
// Conditionals already claimed by a loop region are excluded via
// loopCondJumps, keyed by condJumpIdx.
func DetectIfElse(c *ir.CFG, dom *cfg.Dominators, pdom *cfg.PostDominators, loopCondJumps map[int]bool) []ir.IfElseRegion {
	var regions []ir.IfElseRegion

	for _, b := range c.Blocks {
		if !b.IsConditional {
			continue
		}
		condJumpIdx := b.EndIdx - 1
		if loopCondJumps[condJumpIdx] {
			continue
		}
		if b.TrueSuccessor < 0 || b.FalseSuccessor < 0 {
			continue
		}
		if !dom.Dominates(b.Id, b.TrueSuccessor) || !dom.Dominates(b.Id, b.FalseSuccessor) {
			continue
		}

		merge := pdom.Immediate(b.Id)

		var trueBlocks, falseBlocks []int
		if b.TrueSuccessor != merge {
			trueBlocks = collectUntil(c, b.TrueSuccessor, merge)
		}
		if b.FalseSuccessor != merge {
			falseBlocks = collectUntil(c, b.FalseSuccessor, merge)
		}

		regions = append(regions, ir.IfElseRegion{
			CondBlock:   b.Id,
			CondJumpIdx: condJumpIdx,
			TrueBlocks:  trueBlocks,
			FalseBlocks: falseBlocks,
			MergeBlock:  merge,
		})
	}

	return regions
}

// collectUntil breadth-first walks blocks reachable from start without
// crossing into stop, returning every block visited in visitation order.
func collectUntil(c *ir.CFG, start, stop int) []int {
	if start < 0 || start == stop {
		return nil
	}
	seen := map[int]bool{start: true}
	queue := []int{start}
	var order []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		b := c.Block(id)
		if b == nil {
			continue
		}
		for _, s := range b.Successors {
			if s == stop || seen[s] {
				continue
			}
			seen[s] = true
			queue = append(queue, s)
		}
	}
	return order
}
