package hostir

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// Loop is an opaque handle for a natural loop in a function's CFG. Loops
// form a tree: Parent is the nearest enclosing loop, or nil at the root.
//
// Adapted from the teacher's simplified Loop type in
// internal/codegen/optimizer.go (identifyLoops/dominates/getLoopBlocks),
// generalized from a flat list over an index-order dominance approximation
// to a real dominator-tree-backed forest with parent/child nesting, since
// the range evaluator needs "innermost enclosing loop" queries (spec §6).
type Loop struct {
	Header *ir.Block
	Latch  *ir.Block
	blocks map[*ir.Block]bool
	Parent *Loop
	Kids   []*Loop
}

// Contains reports whether block b is part of the loop (header included).
func (l *Loop) Contains(b *ir.Block) bool {
	return l.blocks[b]
}

// ContainsDef reports whether v is defined by an instruction inside this
// loop's blocks, satisfying indvar.HLoop. Function parameters and
// instructions from other functions are never loop-local.
func (l *Loop) ContainsDef(v value.Value) bool {
	if l == nil {
		return false
	}
	inst, ok := v.(ir.Instruction)
	if !ok {
		return false
	}
	for b := range l.blocks {
		for _, cand := range b.Insts {
			if cand == inst {
				return true
			}
		}
	}
	return false
}

// ContainsLoop reports whether inner is l itself or nested within l.
func (l *Loop) ContainsLoop(inner *Loop) bool {
	for cur := inner; cur != nil; cur = cur.Parent {
		if cur == l {
			return true
		}
	}
	return false
}

// Graph wraps a function's CFG with a precomputed dominator relation and
// loop forest, the structural queries spec.md §6 asks the host IR for.
type Graph struct {
	Func  *ir.Func
	idom  map[*ir.Block]*ir.Block
	order []*ir.Block
	index map[*ir.Block]int
	loops []*Loop
}

// NewGraph computes dominance and the loop forest for fn.
func NewGraph(fn *ir.Func) *Graph {
	g := &Graph{Func: fn}
	g.order = reversePostorder(fn)
	g.index = make(map[*ir.Block]int, len(g.order))
	for i, b := range g.order {
		g.index[b] = i
	}
	g.idom = computeDominators(fn, g.order, g.index)
	g.loops = buildLoopForest(fn, g.idom, g.index)
	return g
}

// Dominates reports whether block a dominates block b.
func (g *Graph) Dominates(a, b *ir.Block) bool {
	if a == b {
		return true
	}
	cur, ok := g.idom[b]
	for ok {
		if cur == a {
			return true
		}
		cur, ok = g.idom[cur]
	}
	return false
}

// InnermostLoopContaining returns the innermost loop whose block set
// contains b, or nil if b is outside every loop.
func (g *Graph) InnermostLoopContaining(b *ir.Block) *Loop {
	var best *Loop
	for _, lp := range g.loops {
		if !lp.Contains(b) {
			continue
		}
		if best == nil || len(lp.blocks) < len(best.blocks) {
			best = lp
		}
	}
	return best
}

// Loops returns every natural loop discovered in the function, in no
// particular order.
func (g *Graph) Loops() []*Loop {
	return g.loops
}

// DefBlock returns the block that defines v, if v is an instruction of
// this function.
func (g *Graph) DefBlock(v value.Value) (*ir.Block, bool) {
	inst, ok := v.(ir.Instruction)
	if !ok {
		return nil, false
	}
	for _, b := range g.Func.Blocks {
		for _, cand := range b.Insts {
			if cand == inst {
				return b, true
			}
		}
	}
	return nil, false
}

// InnermostLoopContainingDef returns the innermost loop containing v's
// defining block, or nil if v is defined outside every loop (or isn't an
// instruction of this function at all).
func (g *Graph) InnermostLoopContainingDef(v value.Value) *Loop {
	b, ok := g.DefBlock(v)
	if !ok {
		return nil
	}
	return g.InnermostLoopContaining(b)
}

func reversePostorder(fn *ir.Func) []*ir.Block {
	if len(fn.Blocks) == 0 {
		return nil
	}
	visited := make(map[*ir.Block]bool, len(fn.Blocks))
	var post []*ir.Block
	var visit func(b *ir.Block)
	visit = func(b *ir.Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		if b.Term != nil {
			for _, s := range b.Term.Succs() {
				visit(s)
			}
		}
		post = append(post, b)
	}
	visit(fn.Blocks[0])
	// Include unreachable blocks (shouldn't occur in well-formed IR, but the
	// analyzer must not panic on it) at the end, in declaration order.
	for _, b := range fn.Blocks {
		visit(b)
	}
	rpo := make([]*ir.Block, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return rpo
}

// computeDominators runs the standard iterative dominator algorithm
// (Cooper, Harvey & Kennedy, "A Simple, Fast Dominance Algorithm") over the
// reverse-postorder block list. This replaces the teacher's simplified
// "earlier in block list" stand-in for dominance in
// internal/codegen/optimizer.go with a real fixpoint computation.
func computeDominators(fn *ir.Func, order []*ir.Block, index map[*ir.Block]int) map[*ir.Block]*ir.Block {
	idom := make(map[*ir.Block]*ir.Block, len(order))
	if len(order) == 0 {
		return idom
	}
	entry := order[0]
	idom[entry] = entry

	preds := make(map[*ir.Block][]*ir.Block)
	for _, b := range fn.Blocks {
		if b.Term == nil {
			continue
		}
		for _, s := range b.Term.Succs() {
			preds[s] = append(preds[s], b)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range order[1:] {
			var newIdom *ir.Block
			for _, p := range preds[b] {
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(p, newIdom, idom, index)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, entry) // entry has no strict dominator
	return idom
}

func intersect(a, b *ir.Block, idom map[*ir.Block]*ir.Block, index map[*ir.Block]int) *ir.Block {
	for a != b {
		for index[a] > index[b] {
			a = idom[a]
			if a == nil {
				return b
			}
		}
		for index[b] > index[a] {
			b = idom[b]
			if b == nil {
				return a
			}
		}
	}
	return a
}

// buildLoopForest finds natural loops via back edges (a CFG edge whose
// target dominates its source, exactly the teacher's back-edge test in
// identifyLoops) and nests them by block-set containment.
func buildLoopForest(fn *ir.Func, idom map[*ir.Block]*ir.Block, index map[*ir.Block]int) []*Loop {
	dominates := func(a, b *ir.Block) bool {
		if a == b {
			return true
		}
		cur, ok := idom[b]
		for ok {
			if cur == a {
				return true
			}
			cur, ok = idom[cur]
		}
		return false
	}

	preds := make(map[*ir.Block][]*ir.Block)
	for _, b := range fn.Blocks {
		if b.Term == nil {
			continue
		}
		for _, s := range b.Term.Succs() {
			preds[s] = append(preds[s], b)
		}
	}

	var loops []*Loop
	headerLoop := make(map[*ir.Block]*Loop)
	for _, latch := range fn.Blocks {
		if latch.Term == nil {
			continue
		}
		for _, header := range latch.Term.Succs() {
			if !dominates(header, latch) {
				continue
			}
			lp, ok := headerLoop[header]
			if !ok {
				lp = &Loop{Header: header, Latch: latch, blocks: map[*ir.Block]bool{header: true}}
				headerLoop[header] = lp
				loops = append(loops, lp)
			}
			collectLoopBody(header, latch, preds, lp.blocks)
		}
	}

	// Nest loops by block-set containment: the smallest strict superset
	// becomes the immediate parent.
	for _, inner := range loops {
		var parent *Loop
		for _, outer := range loops {
			if outer == inner {
				continue
			}
			if len(outer.blocks) <= len(inner.blocks) {
				continue
			}
			if !supersetOf(outer.blocks, inner.blocks) {
				continue
			}
			if parent == nil || len(outer.blocks) < len(parent.blocks) {
				parent = outer
			}
		}
		inner.Parent = parent
		if parent != nil {
			parent.Kids = append(parent.Kids, inner)
		}
	}
	return loops
}

// collectLoopBody walks predecessors backward from latch to header, adding
// every block reached without crossing header again, mirroring the
// teacher's getLoopBlocks but via a real predecessor walk instead of a
// contiguous block-index range.
func collectLoopBody(header, latch *ir.Block, preds map[*ir.Block][]*ir.Block, body map[*ir.Block]bool) {
	body[latch] = true
	if header == latch {
		return
	}
	stack := []*ir.Block{latch}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range preds[b] {
			if body[p] {
				continue
			}
			body[p] = true
			if p != header {
				stack = append(stack, p)
			}
		}
	}
}

func supersetOf(a, b map[*ir.Block]bool) bool {
	for k := range b {
		if !a[k] {
			return false
		}
	}
	return true
}
