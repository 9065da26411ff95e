package rangeanalysis

import (
	"github.com/dshills/indvar/internal/indvar"
	"github.com/dshills/indvar/internal/rangeval"
)

// tripValue evaluates the trip-count Info under the given direction,
// reporting whether the result depends on a trip count the oracle hasn't
// proven finite under every execution.
func tripValue(ctx *EvalContext, isMin bool) (rangeval.Value, bool) {
	if ctx.trip == nil || ctx.trip.Count == nil {
		return rangeval.Unknown(), true
	}
	v, needsFiniteFromEval := Eval(ctx, ctx.trip.Count, isMin)
	return v, needsFiniteFromEval || !ctx.trip.Class.IsFiniteClass()
}

func tripMinusOne(ctx *EvalContext, isMin bool) (rangeval.Value, bool) {
	t, needsFinite := tripValue(ctx, isMin)
	return rangeval.Sub(t, rangeval.Const(1)), needsFinite
}

// MulRangeAndConstant evaluates k * Eval(other), applying isMin when k is
// non-negative and flipping it when k is negative (spec.md §4.2, `·`).
func MulRangeAndConstant(ctx *EvalContext, k int64, other *indvar.Info, isMin bool) (rangeval.Value, bool) {
	dir := isMin
	if k < 0 {
		dir = !isMin
	}
	v, needsFinite := Eval(ctx, other, dir)
	return rangeval.Mul(rangeval.Const(int32(k)), v), needsFinite
}

// DivRangeAndConstant evaluates Eval(other) / k, symmetric to
// MulRangeAndConstant (spec.md §4.2, `/`).
func DivRangeAndConstant(ctx *EvalContext, k int64, other *indvar.Info, isMin bool) (rangeval.Value, bool) {
	dir := isMin
	if k < 0 {
		dir = !isMin
	}
	v, needsFinite := Eval(ctx, other, dir)
	return rangeval.Div(v, rangeval.Const(int32(k))), needsFinite
}

// GetLinear evaluates a·k+b for k ranging over the home loop's iteration
// counter k∈[0,T), per spec.md §4.2.2. When the step is a literal constant
// its sign pins down which of k=0 or k=T-1 is the minimum vs. the maximum;
// otherwise both candidates are evaluated under isMin and Merge combines
// them, degrading to Unknown when their shapes are incompatible.
func GetLinear(ctx *EvalContext, info *indvar.Info, isMin bool) (rangeval.Value, bool) {
	step, base := info.Op1, info.Op2

	if a, ok := constLeaf(step); ok {
		if a >= 0 {
			if isMin {
				return Eval(ctx, base, true)
			}
			tm1, needsFinite := tripMinusOne(ctx, false)
			baseMax, f := Eval(ctx, base, false)
			return rangeval.Add(rangeval.Mul(rangeval.Const(int32(a)), tm1), baseMax), needsFinite || f
		}
		// a < 0: decreasing in k, so the minimum sits at k=T-1 and the
		// maximum at k=0.
		if isMin {
			tm1, needsFinite := tripMinusOne(ctx, false)
			baseMin, f := Eval(ctx, base, true)
			return rangeval.Add(rangeval.Mul(rangeval.Const(int32(a)), tm1), baseMin), needsFinite || f
		}
		return Eval(ctx, base, false)
	}

	// Symbolic step: compute the k=0 and k=T-1 candidates under the
	// requested direction and let Merge pick, per spec.md §4.2.2.
	atZero, f1 := Eval(ctx, base, isMin)
	aDir, f2 := Eval(ctx, step, isMin)
	tm1, f3 := tripMinusOne(ctx, isMin)
	atEnd := rangeval.Add(rangeval.Mul(aDir, tm1), atZero)
	return rangeval.Merge(atZero, atEnd, isMin), f1 || f2 || f3
}

// GetPolynomial evaluates Σ a·k for k∈[0,T), where the inner term is a
// linear a·k+b with non-negative constant a and b: closed form
// a·T·(T−1)/2 + b·T. The minimum sits at k=0 (the b term alone); the
// maximum is the full sum. Anything else is Unknown (spec.md §4.2.2).
func GetPolynomial(ctx *EvalContext, info *indvar.Info, isMin bool) (rangeval.Value, bool) {
	inner := info.Op1
	if inner == nil || inner.Kind != indvar.KindLinear {
		return rangeval.Unknown(), false
	}
	a, aok := constLeaf(inner.Op1)
	b, bok := constLeaf(inner.Op2)
	if !aok || !bok || a < 0 || b < 0 {
		return rangeval.Unknown(), false
	}
	t, needsFinite := tripValue(ctx, false)
	if !t.IsConstant() {
		return rangeval.Unknown(), needsFinite
	}
	if isMin {
		return rangeval.Const(int32(b)), needsFinite
	}
	n := int64(t.ConstValue())
	sum := a*n*(n-1)/2 + b*n
	if sum > 1<<31-1 || sum < -(1<<31) {
		return rangeval.Unknown(), needsFinite
	}
	return rangeval.Const(int32(sum)), needsFinite
}

// GetGeometric evaluates b·r^k for k∈[0,T): admissible only when both base
// and ratio are literal constants with a non-zero ratio. The two endpoints
// (k=0 and k=T-1) are computed directly and the smaller one returned as the
// minimum, the larger as the maximum, which folds in the "b or r^T bounded by a constant" exceptions spec.md
// §4.2.2 calls out as a side effect of comparing concrete integers rather
// than reasoning about sign symbolically.
func GetGeometric(ctx *EvalContext, info *indvar.Info, isMin bool) (rangeval.Value, bool) {
	b, bok := constLeaf(info.Op1)
	r, rok := constLeaf(info.Op2)
	if !bok || !rok || r == 0 {
		return rangeval.Unknown(), false
	}
	t, needsFinite := tripValue(ctx, false)
	if !t.IsConstant() {
		return rangeval.Unknown(), needsFinite
	}
	n := int64(t.ConstValue())
	if n <= 0 {
		return rangeval.Const(int32(b)), needsFinite
	}
	end := b
	overflow := false
	for i := int64(0); i < n-1; i++ {
		switch info.GeoOp {
		case indvar.GeometricMul:
			end *= r
		case indvar.GeometricDiv:
			if r == 0 {
				overflow = true
			} else {
				end /= r
			}
		}
		if end > 1<<31-1 || end < -(1<<31) {
			overflow = true
			break
		}
	}
	if overflow {
		return rangeval.Unknown(), needsFinite
	}
	lo, hi := b, end
	if lo > hi {
		lo, hi = hi, lo
	}
	if isMin {
		return rangeval.Const(int32(lo)), needsFinite
	}
	return rangeval.Const(int32(hi)), needsFinite
}

// GetWrapAround evaluates w ↪ body: w on the first iteration, body's
// classification on every subsequent one, merging both (spec.md §4.2.2).
func GetWrapAround(ctx *EvalContext, info *indvar.Info, isMin bool) (rangeval.Value, bool) {
	w, f1 := Eval(ctx, info.Op1, isMin)
	body, f2 := Eval(ctx, info.Op2, isMin)
	return rangeval.Merge(w, body, isMin), f1 || f2
}

// GetPeriodic evaluates a cycle by merging every phase's bound under the
// requested direction (spec.md §4.2.2).
func GetPeriodic(ctx *EvalContext, info *indvar.Info, isMin bool) (rangeval.Value, bool) {
	if len(info.Phases) == 0 {
		return rangeval.Unknown(), false
	}
	result, needsFinite := Eval(ctx, info.Phases[0], isMin)
	for _, p := range info.Phases[1:] {
		v, f := Eval(ctx, p, isMin)
		needsFinite = needsFinite || f
		result = rangeval.Merge(result, v, isMin)
	}
	return result, needsFinite
}
