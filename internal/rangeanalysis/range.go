package rangeanalysis

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/indvar/internal/hostir"
	"github.com/dshills/indvar/internal/indvar"
	"github.com/dshills/indvar/internal/rangeval"
)

// InductionVarRange is the public facade spec.md §2/§4.2 describes: it
// ties the range evaluator and trip-count oracle to a concrete function's
// loop forest and the classifier's store. It holds no state of its own
// beyond those two non-owning back-references (spec.md §3, "Ownership"):
// the store and the graph both outlive every query the facade answers.
type InductionVarRange struct {
	Store *indvar.Store
	Graph *hostir.Graph
}

// New builds a facade over the given function's CFG/loop forest and the
// classifier's store.
func New(store *indvar.Store, fn *ir.Func) *InductionVarRange {
	return &InductionVarRange{Store: store, Graph: hostir.NewGraph(fn)}
}

// resolve finds the innermost loop containing target's definition, and its
// classified Info and Trip, or reports ok=false when the target is not
// classified anywhere — the "no information" failure spec.md §7 describes.
func (r *InductionVarRange) resolve(target value.Value) (loop *hostir.Loop, info *indvar.Info, trip *indvar.Trip, ok bool) {
	loop = r.Graph.InnermostLoopContainingDef(target)
	if loop == nil {
		return nil, nil, nil, false
	}
	info, found := r.Store.LookupInfo(loop, target)
	if !found {
		return nil, nil, nil, false
	}
	trip, _ = r.Store.LookupTripCount(loop)
	return loop, info, trip, true
}

// GetInductionRange returns a possibly conservative lower and upper bound
// on target's value observed at context, plus whether an additional
// finite-test is needed to guard the range inside its loop. chaseHint
// bounds how deep GetFetch chases through pure arithmetic definitions.
// Returns ok=false when target is not classified (spec.md §4.2).
func (r *InductionVarRange) GetInductionRange(context *ir.Block, target, chaseHint value.Value) (min, max rangeval.Value, needsFiniteTest bool, ok bool) {
	_ = context // reserved for context-sensitive refinement; resolution is driven by target's own defining loop per spec.md §4.2
	loop, info, trip, found := r.resolve(target)
	if !found {
		return rangeval.Unknown(), rangeval.Unknown(), false, false
	}
	ctx := &EvalContext{store: r.Store, loop: loop, trip: trip, chaseHint: chaseHint}
	minV, f1 := Eval(ctx, info, true)
	maxV, f2 := Eval(ctx, info, false)
	return minV, maxV, f1 || f2, true
}

// IsClassified reports whether phi has been classified as anything by
// induction variable analysis (spec.md §4's "IsClassified").
func (r *InductionVarRange) IsClassified(phi value.Value) bool {
	loop := r.Graph.InnermostLoopContainingDef(phi)
	if loop == nil {
		return false
	}
	_, found := r.Store.LookupInfo(loop, phi)
	return found
}

// LookupCycle returns the set of instructions in phi's recognized cycle,
// if the classifier tracked one (spec.md §5, Supplemented features).
func (r *InductionVarRange) LookupCycle(phi value.Value) (map[value.Value]bool, bool) {
	return r.Store.LookupCycle(phi)
}

// IsFinite checks whether loop's header logic terminates on every entry.
func (r *InductionVarRange) IsFinite(loop *hostir.Loop) (tripCount int64, ok bool) {
	return IsFinite(r.Store, loop)
}

// HasKnownTripCount checks whether loop's trip count is an exact constant.
func (r *InductionVarRange) HasKnownTripCount(loop *hostir.Loop) (tripCount int64, ok bool) {
	return HasKnownTripCount(r.Store, loop)
}

// IsUnitStride checks whether instr is a unit-stride induction variable in
// the closest enveloping loop of context, returning its invariant offset.
func (r *InductionVarRange) IsUnitStride(context *ir.Block, instr value.Value) (offset value.Value, ok bool) {
	loop := r.Graph.InnermostLoopContaining(context)
	if loop == nil {
		return nil, false
	}
	return IsUnitStride(r.Store, loop, instr)
}

// ReVisit incrementally updates induction information for just the given
// loop, dropping the cached classification and asking the classifier to
// re-run over it (spec.md §4.4).
func (r *InductionVarRange) ReVisit(loop *hostir.Loop) {
	r.Store.VisitLoop(loop)
}

// Replace updates all matching fetches of `fetch` with `replacement` in
// every induction description reachable from the loops containing instr
// (spec.md §4.4). Since an Info tree belongs to a single home loop, this
// walks from instr's own innermost loop up through every enclosing parent,
// because a fetch of an inner-loop value can appear in an outer loop's
// description of a value that wraps around the inner loop.
func (r *InductionVarRange) Replace(instr, fetch, replacement value.Value) {
	loop := r.Graph.InnermostLoopContainingDef(instr)
	for cur := loop; cur != nil; cur = cur.Parent {
		r.Store.RewriteFetch(cur, fetch, replacement)
	}
}
