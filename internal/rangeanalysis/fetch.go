package rangeanalysis

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/indvar/internal/rangeval"
)

// GetFetch decides whether instr can be chased deeper or must be left as a
// symbol, per spec.md §4.2.1. It chases through pure arithmetic IR nodes up
// to ctx.chaseHint: IR constants fold, add/sub of a constant become b
// adjustments, and a reference to the loop's own primary induction variable
// substitutes its bound (0 at isMin, trip-1 at !isMin) — this is how
// symbolic trip counts close under evaluation.
func GetFetch(ctx *EvalContext, instr value.Value, isMin bool) (rangeval.Value, bool) {
	return chase(ctx, instr, 1, 0, isMin)
}

// chase accumulates a running a·cur+acc while walking pure arithmetic
// definitions of cur, stopping at ctx.chaseHint, at anything not defined in
// ctx.loop, or at the recognized primary induction variable.
func chase(ctx *EvalContext, cur value.Value, a, acc int32, isMin bool) (rangeval.Value, bool) {
	if cur == ctx.chaseHint {
		return foldLeaf(cur, a, acc), false
	}
	if c, ok := cur.(*constant.Int); ok {
		k := int32(c.X.Int64())
		v, over := mulAdd(a, k, acc)
		if over {
			return rangeval.Unknown(), false
		}
		return rangeval.Const(v), false
	}
	if ctx.loop != nil && isPrimaryIV(ctx, cur) {
		return boundPrimaryIV(ctx, a, acc, isMin)
	}
	if ctx.loop == nil || !ctx.loop.ContainsDef(cur) {
		return foldLeaf(cur, a, acc), false
	}
	inst, ok := cur.(ir.Instruction)
	if !ok {
		return foldLeaf(cur, a, acc), false
	}
	switch in := inst.(type) {
	case *ir.InstAdd:
		if k, ok := intLiteral(in.Y); ok {
			return chaseAdjusted(ctx, in.X, a, acc, k, isMin)
		}
		if k, ok := intLiteral(in.X); ok {
			return chaseAdjusted(ctx, in.Y, a, acc, k, isMin)
		}
	case *ir.InstSub:
		if k, ok := intLiteral(in.Y); ok {
			return chaseAdjusted(ctx, in.X, a, acc, -k, isMin)
		}
	}
	return foldLeaf(cur, a, acc), false
}

// chaseAdjusted folds a further add/sub-by-constant-k step into the running
// a·cur+acc and continues chasing next, i.e. acc' = acc + a*k.
func chaseAdjusted(ctx *EvalContext, next value.Value, a, acc, k int32, isMin bool) (rangeval.Value, bool) {
	scaled, over := mulI32(a, k)
	if over {
		return rangeval.Unknown(), false
	}
	finalAcc, over2 := addI32(acc, scaled)
	if over2 {
		return rangeval.Unknown(), false
	}
	return chase(ctx, next, a, finalAcc, isMin)
}

func foldLeaf(cur value.Value, a, acc int32) rangeval.Value {
	if a == 0 {
		return rangeval.Const(acc)
	}
	return rangeval.Affine(cur, a, acc)
}

func mulAdd(a, k, acc int32) (int32, bool) {
	scaled, over := mulI32(a, k)
	if over {
		return 0, true
	}
	return addI32(scaled, acc)
}

func mulI32(a, b int32) (int32, bool) {
	p := int64(a) * int64(b)
	if p < -2147483648 || p > 2147483647 {
		return 0, true
	}
	return int32(p), false
}

func addI32(a, b int32) (int32, bool) {
	s := int64(a) + int64(b)
	if s < -2147483648 || s > 2147483647 {
		return 0, true
	}
	return int32(s), false
}

func intLiteral(v value.Value) (int32, bool) {
	c, ok := v.(*constant.Int)
	if !ok {
		return 0, false
	}
	return int32(c.X.Int64()), true
}

// isPrimaryIV reports whether cur is the phi instruction that the loop's
// trip count was classified against, i.e. the loop header phi feeding
// ctx.trip. The analyzer recognizes it by identity: it's a Phi that is
// ctx.trip.PrimaryIV itself.
func isPrimaryIV(ctx *EvalContext, cur value.Value) bool {
	phi, ok := cur.(*ir.InstPhi)
	if !ok {
		return false
	}
	if ctx.trip == nil || ctx.trip.PrimaryIV == nil {
		return false
	}
	return value.Value(phi) == ctx.trip.PrimaryIV
}

// boundPrimaryIV substitutes the loop iteration counter k∈[0,T) with its
// isMin bound (0 or T-1), scaled by the running a·k+acc.
func boundPrimaryIV(ctx *EvalContext, a, acc int32, isMin bool) (rangeval.Value, bool) {
	if isMin {
		return rangeval.Const(acc), false
	}
	t, needsFinite := tripValue(ctx, isMin)
	if !t.IsConstant() {
		return rangeval.Unknown(), needsFinite
	}
	scaled, over := mulI32(a, t.ConstValue()-1)
	if over {
		return rangeval.Unknown(), needsFinite
	}
	sum, over2 := addI32(scaled, acc)
	if over2 {
		return rangeval.Unknown(), needsFinite
	}
	return rangeval.Const(sum), needsFinite
}
