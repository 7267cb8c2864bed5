package cfg

import "github.com/mna/vmdecompile/lang/ir"

// Dominators holds the result of forward dominator analysis over one CFG:
// for every block id, the set of block ids that dominate it, and its
// immediate dominator (original §4.5).
type Dominators struct {
	dom    []map[int]bool
	idom   []int // idom[id] == -1 for the entry block
}

// PostDominators is the symmetric backward analysis, seeded from the exit
// blocks instead of the entry block.
type PostDominators struct {
	dom  []map[int]bool
	idom []int
}

// ComputeDominators runs the iterative intersect-to-fixpoint algorithm
// described in original §4.5: Dom(entry) = {entry}; for every other block,
// Dom(n) = {n} U (intersection of Dom(p) over predecessors p), starting
// from the all-blocks over-approximation.
func ComputeDominators(c *ir.CFG) *Dominators {
	n := len(c.Blocks)
	dom := allBlocksApprox(n)
	dom[c.EntryId] = map[int]bool{c.EntryId: true}

	changed := true
	for changed {
		changed = false
		for _, b := range c.Blocks {
			if b.Id == c.EntryId {
				continue
			}
			next := intersectPredecessorDoms(c, dom, b.Predecessors)
			next[b.Id] = true
			if !setsEqual(next, dom[b.Id]) {
				dom[b.Id] = next
				changed = true
			}
		}
	}

	return &Dominators{dom: dom, idom: immediateFrom(c.Blocks, dom)}
}

// ComputePostDominators mirrors ComputeDominators using successors instead
// of predecessors, seeded with every exit block (original §4.5's "symmetric
// backward computation... seeded with exit blocks").
func ComputePostDominators(c *ir.CFG) *PostDominators {
	n := len(c.Blocks)
	dom := allBlocksApprox(n)
	for _, id := range c.ExitIds {
		dom[id] = map[int]bool{id: true}
	}
	exitSet := make(map[int]bool, len(c.ExitIds))
	for _, id := range c.ExitIds {
		exitSet[id] = true
	}

	changed := true
	for changed {
		changed = false
		for _, b := range c.Blocks {
			if exitSet[b.Id] {
				continue
			}
			next := intersectSuccessorDoms(c, dom, b.Successors)
			next[b.Id] = true
			if !setsEqual(next, dom[b.Id]) {
				dom[b.Id] = next
				changed = true
			}
		}
	}

	return &PostDominators{dom: dom, idom: immediateFrom(c.Blocks, dom)}
}

// Dominates reports whether a dominates b (a ∈ Dom(b)).
func (d *Dominators) Dominates(a, b int) bool {
	if b < 0 || b >= len(d.dom) || d.dom[b] == nil {
		return false
	}
	return d.dom[b][a]
}

// Set returns the dominator set of block id.
func (d *Dominators) Set(id int) map[int]bool {
	if id < 0 || id >= len(d.dom) {
		return nil
	}
	return d.dom[id]
}

// Immediate returns the immediate dominator of id, or -1 if id is the entry
// block (or out of range).
func (d *Dominators) Immediate(id int) int {
	if id < 0 || id >= len(d.idom) {
		return -1
	}
	return d.idom[id]
}

// PostDominates reports whether a post-dominates b (a ∈ PostDom(b)).
func (d *PostDominators) PostDominates(a, b int) bool {
	if b < 0 || b >= len(d.dom) || d.dom[b] == nil {
		return false
	}
	return d.dom[b][a]
}

// Set returns the post-dominator set of block id.
func (d *PostDominators) Set(id int) map[int]bool {
	if id < 0 || id >= len(d.dom) {
		return nil
	}
	return d.dom[id]
}

// Immediate returns the immediate post-dominator of id, or -1 if none
// could be determined (original §4.5's anchor for region recovery; a -1
// here is what triggers original §7's "structuring ambiguity" fallback).
func (d *PostDominators) Immediate(id int) int {
	if id < 0 || id >= len(d.idom) {
		return -1
	}
	return d.idom[id]
}

func allBlocksApprox(n int) []map[int]bool {
	all := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		all[i] = true
	}
	dom := make([]map[int]bool, n)
	for i := 0; i < n; i++ {
		dom[i] = cloneSet(all)
	}
	return dom
}

func intersectPredecessorDoms(c *ir.CFG, dom []map[int]bool, preds []int) map[int]bool {
	return intersectAll(preds, dom)
}

func intersectSuccessorDoms(c *ir.CFG, dom []map[int]bool, succs []int) map[int]bool {
	return intersectAll(succs, dom)
}

func intersectAll(ids []int, dom []map[int]bool) map[int]bool {
	if len(ids) == 0 {
		return map[int]bool{}
	}
	result := cloneSet(dom[ids[0]])
	for _, id := range ids[1:] {
		for k := range result {
			if !dom[id][k] {
				delete(result, k)
			}
		}
	}
	return result
}

func cloneSet(s map[int]bool) map[int]bool {
	out := make(map[int]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func setsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// immediateFrom derives each block's immediate dominator: among
// Dom(n)\{n}, the element whose own Dom set contains every other candidate
// (original §4.5, "the closest in the dominance order").
func immediateFrom(blocks []*ir.BasicBlock, dom []map[int]bool) []int {
	idom := make([]int, len(blocks))
	for _, b := range blocks {
		candidates := make([]int, 0, len(dom[b.Id]))
		for k := range dom[b.Id] {
			if k != b.Id {
				candidates = append(candidates, k)
			}
		}
		idom[b.Id] = closestDominator(candidates, dom)
	}
	return idom
}

func closestDominator(candidates []int, dom []map[int]bool) int {
	for _, c := range candidates {
		isClosest := true
		for _, other := range candidates {
			if other == c {
				continue
			}
			if !dom[c][other] {
				isClosest = false
				break
			}
		}
		if isClosest {
			return c
		}
	}
	return -1
}
