package rangecodegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/indvar/internal/hostir"
	"github.com/dshills/indvar/internal/indvar"
	"github.com/dshills/indvar/internal/rangeanalysis"
	"github.com/dshills/indvar/internal/rangeval"
)

// CanGenerateLastValue reports whether target's value just past its loop's
// final iteration can be materialized: any loop-invariant value, or one of
// the five induction forms whose last-value routine below can resolve
// (spec.md §4.4, "GenerateLastValue").
func (g *Generator) CanGenerateLastValue(target value.Value) bool {
	loop, info, trip, found := g.resolve(target)
	if !found {
		return false
	}
	if !isVariant(info) {
		return true
	}
	if trip == nil || trip.Count == nil {
		return false
	}
	ctx := evalCtxLoop(g.Range, loop, trip)
	if _, ok := determinate(ctx, trip.Count); !ok {
		return false
	}
	if needsTakenTestFor(trip) {
		if _, ok := seedValue(ctx, info); !ok {
			return false
		}
	}
	return canLastValueKind(g, ctx, loop, info)
}

func canLastValueKind(g *Generator, ctx *rangeanalysis.EvalContext, loop *hostir.Loop, info *indvar.Info) bool {
	switch info.Kind {
	case indvar.KindLinear:
		_, okStep := determinate(ctx, info.Op1)
		_, okBase := determinate(ctx, info.Op2)
		return okStep && okBase
	case indvar.KindPolynomial:
		inner := info.Op1
		if inner == nil || inner.Kind != indvar.KindLinear {
			return false
		}
		_, aok := leafConst(inner.Op1)
		_, bok := leafConst(inner.Op2)
		return aok && bok
	case indvar.KindGeometric:
		if _, ok := g.Range.HasKnownTripCount(loop); !ok {
			return false
		}
		_, bok := leafConst(info.Op1)
		_, rok := leafConst(info.Op2)
		return bok && rok
	case indvar.KindWrapAround:
		return canLastValueKind(g, ctx, loop, info.Op2)
	case indvar.KindPeriodic:
		if len(info.Phases) == 0 {
			return false
		}
		for _, p := range info.Phases {
			if _, ok := determinate(ctx, p); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// GenerateLastValue materializes the value target holds immediately after
// its loop runs to completion, emitting IR into block. Grounded on
// InductionVarRange::GenerateLastValueLinear/Polynomial/Geometric/
// WrapAround/Periodic in
// original_source/compiler/optimizing/induction_var_range.h. Linear and
// polynomial last values are pure closed-form arithmetic in the trip count,
// so the trip count is materialized as IR and combined symbolically rather
// than requiring it to already be a compile-time constant (spec.md §8
// boundary scenario 4); geometric still requires a constant trip count to
// unroll, matching the range evaluator's own GetGeometric restriction. When
// the loop needs a taken-test, the result is wrapped in a select that
// degenerates to the loop-entry seed.
func (g *Generator) GenerateLastValue(target value.Value, block *ir.Block) (value.Value, error) {
	loop, info, trip, found := g.resolve(target)
	if !found {
		return nil, fmt.Errorf("rangecodegen: %v is not classified", target)
	}
	ctx := evalCtxLoop(g.Range, loop, trip)
	if !isVariant(info) {
		return g.generateEndpoint(ctx, info, trip, block, false)
	}
	tripIR, err := g.tripCountIR(ctx, trip, block)
	if err != nil {
		return nil, fmt.Errorf("rangecodegen: %v has no materializable trip count for last-value generation: %w", target, err)
	}
	result, err := g.lastValueOf(ctx, loop, info, tripIR, block)
	if err != nil {
		return nil, err
	}
	if !needsTakenTestFor(trip) {
		return result, nil
	}
	seed, ok := seedValue(ctx, info)
	if !ok {
		return nil, fmt.Errorf("rangecodegen: %v's loop-entry seed isn't determinate, cannot guard with a taken-test", target)
	}
	seedIR, err := g.materialize(info.Type, block, seed)
	if err != nil {
		return nil, err
	}
	it, ok := trip.Count.Type.(*types.IntType)
	if !ok {
		return nil, fmt.Errorf("rangecodegen: trip count has a non-integer type")
	}
	cond := g.takenCond(it, block, tripIR)
	return block.NewSelect(cond, result, seedIR), nil
}

// lastValueOf dispatches to the per-induction-form routine. WrapAround
// recurses into its body, since the body governs every iteration the taken
// test's own seed (the wraparound's seed operand) doesn't already cover.
func (g *Generator) lastValueOf(ctx *rangeanalysis.EvalContext, loop *hostir.Loop, info *indvar.Info, tripIR value.Value, block *ir.Block) (value.Value, error) {
	switch info.Kind {
	case indvar.KindLinear:
		return g.lastValueLinear(ctx, info, tripIR, block)
	case indvar.KindPolynomial:
		return g.lastValuePolynomial(ctx, info, tripIR, block)
	case indvar.KindGeometric:
		n, ok := g.Range.HasKnownTripCount(loop)
		if !ok {
			return nil, fmt.Errorf("rangecodegen: geometric induction requires a statically known trip count")
		}
		return g.lastValueGeometric(info, n, block)
	case indvar.KindWrapAround:
		return g.lastValueOf(ctx, loop, info.Op2, tripIR, block)
	case indvar.KindPeriodic:
		return g.lastValuePeriodic(ctx, info, tripIR, block)
	default:
		return nil, fmt.Errorf("rangecodegen: induction form has no closed last value")
	}
}

// lastValueLinear emits base + step·tripIR, folding to a literal when step,
// base and tripIR are all compile-time constants and otherwise emitting the
// multiply-add against the materialized trip count IR directly (spec.md
// §4.4; original's GenerateLastValueLinear).
func (g *Generator) lastValueLinear(ctx *rangeanalysis.EvalContext, info *indvar.Info, tripIR value.Value, block *ir.Block) (value.Value, error) {
	step, okStep := determinate(ctx, info.Op1)
	base, okBase := determinate(ctx, info.Op2)
	if !okStep || !okBase {
		return nil, fmt.Errorf("rangecodegen: linear induction's step or base isn't determinate")
	}
	it, ok := info.Type.(*types.IntType)
	if !ok {
		return nil, fmt.Errorf("rangecodegen: non-integer type %v", info.Type)
	}
	stepIR, err := g.materialize(info.Type, block, step)
	if err != nil {
		return nil, err
	}
	prod, err := g.tryMul(it, block, stepIR, tripIR)
	if err != nil {
		return nil, err
	}
	baseIR, err := g.materialize(info.Type, block, base)
	if err != nil {
		return nil, err
	}
	return g.tryAdd(it, block, prod, baseIR)
}

// lastValuePolynomial emits the closed form a·T·(T−1)/2 + b·T for the
// materialized trip count IR T, same as the range evaluator's
// GetPolynomial closed form but built as IR instead of folded in the
// symbolic algebra, so T need not be a compile-time constant.
func (g *Generator) lastValuePolynomial(ctx *rangeanalysis.EvalContext, info *indvar.Info, tripIR value.Value, block *ir.Block) (value.Value, error) {
	inner := info.Op1
	if inner == nil || inner.Kind != indvar.KindLinear {
		return nil, fmt.Errorf("rangecodegen: polynomial induction's inner term isn't linear")
	}
	a, aok := leafConst(inner.Op1)
	b, bok := leafConst(inner.Op2)
	if !aok || !bok {
		return nil, fmt.Errorf("rangecodegen: polynomial induction's coefficients aren't literal constants")
	}
	it, ok := info.Type.(*types.IntType)
	if !ok {
		return nil, fmt.Errorf("rangecodegen: non-integer type %v", info.Type)
	}
	two := constant.NewInt(it, 2)
	tMinus1, err := g.tryAdd(it, block, tripIR, constant.NewInt(it, -1))
	if err != nil {
		return nil, err
	}
	prod, err := g.tryMul(it, block, tripIR, tMinus1)
	if err != nil {
		return nil, err
	}
	half := block.NewSDiv(prod, two)
	aTerm, err := g.tryMul(it, block, half, constant.NewInt(it, a))
	if err != nil {
		return nil, err
	}
	bTerm, err := g.tryMul(it, block, tripIR, constant.NewInt(it, b))
	if err != nil {
		return nil, err
	}
	return g.tryAdd(it, block, aTerm, bTerm)
}

// lastValueGeometric unrolls b·r^n over the statically known trip count n,
// folding the result to a literal constant. Geometric induction has no
// closed form that avoids exponentiation, so (unlike linear/polynomial) it
// can't be generalized to a symbolic trip count; this mirrors the range
// evaluator's own GetGeometric restriction to a constant T.
func (g *Generator) lastValueGeometric(info *indvar.Info, n int64, block *ir.Block) (value.Value, error) {
	b, bok := leafConst(info.Op1)
	r, rok := leafConst(info.Op2)
	if !bok || !rok || r == 0 {
		return nil, fmt.Errorf("rangecodegen: geometric induction's base or ratio isn't a literal non-zero constant")
	}
	end := b
	for i := int64(0); i < n; i++ {
		switch info.GeoOp {
		case indvar.GeometricMul:
			end *= r
		case indvar.GeometricDiv:
			end /= r
		}
		if end > 1<<31-1 || end < -(1<<31) {
			return nil, fmt.Errorf("rangecodegen: geometric last value overflows 32 bits at step %d", i)
		}
	}
	return g.materialize(info.Type, block, rangeval.Const(int32(end)))
}

// lastValuePeriodic selects among the phase values by the position the
// cycle has reached once the loop exits: tripIR mod len(phases), the phase
// following the last iteration's (matching the linear and geometric
// routines, which also give the value after T iterations), chained as a sequence
// of equality-guarded selects (the two-phase case is exactly a parity test,
// per the review's description; this generalizes it to any phase count),
// grounded on GenerateLastValuePeriodic in the original header.
func (g *Generator) lastValuePeriodic(ctx *rangeanalysis.EvalContext, info *indvar.Info, tripIR value.Value, block *ir.Block) (value.Value, error) {
	n := len(info.Phases)
	if n == 0 {
		return nil, fmt.Errorf("rangecodegen: periodic induction has no phases")
	}
	phaseIR := make([]value.Value, n)
	for i, p := range info.Phases {
		v, ok := determinate(ctx, p)
		if !ok {
			return nil, fmt.Errorf("rangecodegen: periodic induction's phase %d isn't determinate", i)
		}
		iv, err := g.materialize(info.Type, block, v)
		if err != nil {
			return nil, err
		}
		phaseIR[i] = iv
	}
	if n == 1 {
		return phaseIR[0], nil
	}
	it, ok := info.Type.(*types.IntType)
	if !ok {
		return nil, fmt.Errorf("rangecodegen: non-integer type %v", info.Type)
	}
	modIdx := block.NewSRem(tripIR, constant.NewInt(it, int64(n)))
	result := phaseIR[n-1]
	for i := n - 2; i >= 0; i-- {
		cond := block.NewICmp(enum.IPredEQ, modIdx, constant.NewInt(it, int64(i)))
		result = block.NewSelect(cond, phaseIR[i], result)
	}
	return result, nil
}

func leafConst(info *indvar.Info) (int64, bool) {
	if info == nil || info.Kind != indvar.KindConst {
		return 0, false
	}
	return info.ConstValue, true
}

// determinate evaluates info's min and max bound and reports ok only when
// they agree: a single fixed symbolic value rather than a genuine range.
func determinate(ctx *rangeanalysis.EvalContext, info *indvar.Info) (rangeval.Value, bool) {
	minV, _ := rangeanalysis.Eval(ctx, info, true)
	maxV, _ := rangeanalysis.Eval(ctx, info, false)
	if !rangeval.Equal(minV, maxV) {
		return rangeval.Unknown(), false
	}
	return minV, minV.Known
}

// GenerateTripCount materializes loop's trip count as IR, when it resolves
// to a single determinate value; a genuinely data-dependent trip count is
// refused (spec.md §4.4, "GenerateTripCount"). BodyTrip-classified loops
// guard the count with a taken-test, selecting 0 when the loop would not
// execute (spec.md §4.3, original header: "guarded by a taken test if
// needed").
func (g *Generator) GenerateTripCount(loop *hostir.Loop, block *ir.Block) (value.Value, error) {
	trip, found := g.Range.Store.LookupTripCount(loop)
	if !found || trip.Count == nil {
		return nil, fmt.Errorf("rangecodegen: loop has no classified trip count")
	}
	ctx := evalCtxLoop(g.Range, loop, trip)
	if _, ok := determinate(ctx, trip.Count); !ok {
		return nil, fmt.Errorf("rangecodegen: loop's trip count isn't a single determinate value")
	}
	n, err := g.tripCountIR(ctx, trip, block)
	if err != nil {
		return nil, err
	}
	if !needsTakenTestFor(trip) {
		return n, nil
	}
	it, ok := trip.Count.Type.(*types.IntType)
	if !ok {
		return nil, fmt.Errorf("rangecodegen: trip count has a non-integer type")
	}
	cond := g.takenCond(it, block, n)
	zero := constant.NewInt(it, 0)
	return block.NewSelect(cond, n, zero), nil
}

// GenerateTakenTest emits an i1 reporting whether loop's body executes at
// least once, the guard a BodyTrip-classified trip count needs before any
// derived range can be trusted (spec.md §4.3/§4.4).
func (g *Generator) GenerateTakenTest(loop *hostir.Loop, block *ir.Block) (value.Value, error) {
	trip, found := g.Range.Store.LookupTripCount(loop)
	if !found || trip.Count == nil {
		return nil, fmt.Errorf("rangecodegen: loop has no classified trip count")
	}
	ctx := evalCtxLoop(g.Range, loop, trip)
	n, err := g.tripCountIR(ctx, trip, block)
	if err != nil {
		return nil, err
	}
	it, ok := trip.Count.Type.(*types.IntType)
	if !ok {
		return nil, fmt.Errorf("rangecodegen: trip count has a non-integer type")
	}
	return g.takenCond(it, block, n), nil
}
