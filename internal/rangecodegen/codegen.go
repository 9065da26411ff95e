// Package rangecodegen implements the IR code generator spec.md §4.4
// describes: it mirrors the range evaluator but materializes bounds and
// last values as real LLVM IR, refusing to emit forms that would require
// unproven non-overflow unless the caller opts in.
//
// Grounded on InductionVarRange::GenerateRange /
// GenerateRangeOrLastValue / TryGenerateAddWithoutOverflow in
// original_source/compiler/optimizing/induction_var_range.h, targeting
// github.com/llir/llvm/ir the way internal/codegen/llvm.go in the teacher
// repo emits instructions (block.NewXxx append-and-return builders).
package rangecodegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/indvar/internal/hostir"
	"github.com/dshills/indvar/internal/indvar"
	"github.com/dshills/indvar/internal/rangeanalysis"
)

// Generator is the public IR code generator facade. It borrows an
// InductionVarRange (non-owning, per spec.md §3's ownership model) and
// emits into graphs/blocks the caller supplies.
type Generator struct {
	Range *rangeanalysis.InductionVarRange

	// AllowPotentialOverflow permits emission to fall back to narrow,
	// potentially-overflowing arithmetic instead of refusing or widening,
	// mirroring the original's allow_potential_overflow flag.
	AllowPotentialOverflow bool
}

// New creates a code generator over r.
func New(r *rangeanalysis.InductionVarRange) *Generator {
	return &Generator{Range: r}
}

func (g *Generator) resolve(target value.Value) (loop *hostir.Loop, info *indvar.Info, trip *indvar.Trip, ok bool) {
	loop = g.Range.Graph.InnermostLoopContainingDef(target)
	if loop == nil {
		return nil, nil, nil, false
	}
	info, found := g.Range.Store.LookupInfo(loop, target)
	if !found {
		return nil, nil, nil, false
	}
	trip, _ = g.Range.Store.LookupTripCount(loop)
	return loop, info, trip, true
}

// CanGenerateRange dry-runs GenerateRange, reporting whether it would
// succeed and what guards the materialized code would need.
func (g *Generator) CanGenerateRange(context *ir.Block, target value.Value) (ok, needsFiniteTest, needsTakenTest bool) {
	loop, info, trip, found := g.resolve(target)
	if !found {
		return false, false, false
	}
	min, max, ft, loopVariant := g.probe(loop, info, trip)
	return min && max, ft, loopVariant && needsTakenTestFor(trip)
}

// probe determines, without emitting anything, whether the low and high
// bound expressions can be generated, whether a finite-test would be
// needed, and whether target is loop-variant at all (when it is not, only
// the upper bound is materialized, per spec.md §4.4). When the loop needs a
// taken-test, the bounds additionally require a determinate loop-entry seed
// to guard with — GenerateRange can't wrap an undeterminable seed in a
// select, so probe reports failure rather than promising code it can't emit.
func (g *Generator) probe(loop *hostir.Loop, info *indvar.Info, trip *indvar.Trip) (canLow, canHigh, needsFiniteTest, isLoopVariant bool) {
	isLoopVariant = isVariant(info)
	ctx := evalCtxLoop(g.Range, loop, trip)
	_, canHigh2 := g.tryValue(ctx, info, trip, false)
	canHigh = canHigh2
	if !isLoopVariant {
		return true, canHigh, false, false
	}
	_, canLow2 := g.tryValue(ctx, info, trip, true)
	canLow = canLow2
	_, ftLow := rangeanalysis.Eval(ctx, info, true)
	_, ftHigh := rangeanalysis.Eval(ctx, info, false)
	if needsTakenTestFor(trip) {
		if _, ok := seedValue(ctx, info); !ok {
			canLow, canHigh = false, false
		}
	}
	return canLow, canHigh, ftLow || ftHigh, true
}

// isVariant reports whether info actually depends on the loop's iteration
// (anything but a pure invariant tree of operators over fetches/constants).
func isVariant(info *indvar.Info) bool {
	if info == nil {
		return false
	}
	switch info.Kind {
	case indvar.KindConst, indvar.KindFetch, indvar.KindFetchArray:
		return false
	case indvar.KindLinear, indvar.KindPolynomial, indvar.KindGeometric, indvar.KindWrapAround, indvar.KindPeriodic:
		return true
	default:
		return isVariant(info.Op1) || isVariant(info.Op2)
	}
}

func needsTakenTestFor(trip *indvar.Trip) bool {
	return trip != nil && trip.Class == indvar.BodyTrip
}

// GenerateRange emits IR for target's lower and upper bound at context,
// appending to block. For a loop-invariant result only hi is set. When the
// loop needs a taken-test, both bounds are wrapped in a select that
// degenerates to the loop-entry seed if the body never executes (spec.md
// §4.4, "Taken-test materialization").
// Precondition: CanGenerateRange returned ok=true.
func (g *Generator) GenerateRange(context *ir.Block, target value.Value, block *ir.Block) (lo, hi value.Value, err error) {
	loop, info, trip, found := g.resolve(target)
	if !found {
		return nil, nil, fmt.Errorf("rangecodegen: %v is not classified", target)
	}
	ctx := evalCtxLoop(g.Range, loop, trip)
	hi, err = g.generateEndpoint(ctx, info, trip, block, false)
	if err != nil {
		return nil, nil, err
	}
	if !isVariant(info) {
		return nil, hi, nil
	}
	lo, err = g.generateEndpoint(ctx, info, trip, block, true)
	if err != nil {
		return nil, nil, err
	}
	if needsTakenTestFor(trip) {
		lo, hi, err = g.guardRangeWithTakenTest(ctx, info, trip, block, lo, hi)
		if err != nil {
			return nil, nil, err
		}
	}
	return lo, hi, nil
}

// guardRangeWithTakenTest wraps lo and hi in a select against "the loop body
// executes at least once", degenerating both to info's loop-entry seed
// otherwise — the case where the computed bounds assumed at least one
// iteration ran but it didn't (spec.md §4.4).
func (g *Generator) guardRangeWithTakenTest(ctx *rangeanalysis.EvalContext, info *indvar.Info, trip *indvar.Trip, block *ir.Block, lo, hi value.Value) (value.Value, value.Value, error) {
	seed, ok := seedValue(ctx, info)
	if !ok {
		return nil, nil, fmt.Errorf("rangecodegen: loop-entry seed isn't determinate, cannot guard range with a taken-test")
	}
	seedIR, err := g.materialize(info.Type, block, seed)
	if err != nil {
		return nil, nil, err
	}
	tripIR, err := g.tripCountIR(ctx, trip, block)
	if err != nil {
		return nil, nil, err
	}
	it, ok := trip.Count.Type.(*types.IntType)
	if !ok {
		return nil, nil, fmt.Errorf("rangecodegen: trip count has a non-integer type")
	}
	cond := g.takenCond(it, block, tripIR)
	return block.NewSelect(cond, lo, seedIR), block.NewSelect(cond, hi, seedIR), nil
}
