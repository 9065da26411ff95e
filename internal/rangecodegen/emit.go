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

func evalCtxLoop(r *rangeanalysis.InductionVarRange, loop indvar.HLoop, trip *indvar.Trip) *rangeanalysis.EvalContext {
	return rangeanalysis.NewEvalContext(r.Store, loop, trip, nil)
}

// tryValue checks (without emitting) that info's bound under isMin resolves
// to a known rangeval.Value whose type checks out for materialization.
func (g *Generator) tryValue(ctx *rangeanalysis.EvalContext, info *indvar.Info, trip *indvar.Trip, isMin bool) (rangeval.Value, bool) {
	v, _ := rangeanalysis.Eval(ctx, info, isMin)
	return v, v.Known
}

// generateEndpoint evaluates info's bound under isMin and materializes it as
// real IR appended to block.
func (g *Generator) generateEndpoint(ctx *rangeanalysis.EvalContext, info *indvar.Info, trip *indvar.Trip, block *ir.Block, isMin bool) (value.Value, error) {
	v, _ := rangeanalysis.Eval(ctx, info, isMin)
	if !v.Known {
		return nil, fmt.Errorf("rangecodegen: bound is unknown, cannot generate code")
	}
	return g.materialize(info.Type, block, v)
}

// materialize emits IR computing a·Instr+b for v, or just the literal
// constant b when v has no symbolic part. Multiplication and addition are
// both routed through the overflow-aware helpers below, honoring
// AllowPotentialOverflow (spec.md §4.4).
func (g *Generator) materialize(t types.Type, block *ir.Block, v rangeval.Value) (value.Value, error) {
	it, ok := t.(*types.IntType)
	if !ok {
		return nil, fmt.Errorf("rangecodegen: non-integer type %v", t)
	}
	if v.A == 0 {
		return constant.NewInt(it, int64(v.B)), nil
	}
	result := v.Instr
	if v.A != 1 {
		coef := constant.NewInt(it, int64(v.A))
		scaled, err := g.tryMul(it, block, result, coef)
		if err != nil {
			return nil, err
		}
		result = scaled
	}
	if v.B != 0 {
		off := constant.NewInt(it, int64(v.B))
		sum, err := g.tryAdd(it, block, result, off)
		if err != nil {
			return nil, err
		}
		result = sum
	}
	return result, nil
}

// tryAdd emits x+y, mirroring TryGenerateAddWithoutOverflow: when both
// operands are literal constants it folds the narrow sum directly if it
// fits, and fails if it doesn't unless AllowPotentialOverflow is set;
// otherwise, unless AllowPotentialOverflow is set, it widens both operands
// and returns the 64-bit add, which callers use as is.
func (g *Generator) tryAdd(it *types.IntType, block *ir.Block, x, y value.Value) (value.Value, error) {
	if xc, xok := x.(*constant.Int); xok {
		if yc, yok := y.(*constant.Int); yok {
			sum := xc.X.Int64() + yc.X.Int64()
			lo, hi := hostir.IntBounds(it)
			if sum >= lo && sum <= hi {
				return constant.NewInt(it, sum), nil
			}
			if !g.AllowPotentialOverflow {
				return nil, fmt.Errorf("rangecodegen: constant add %d+%d overflows %v", xc.X.Int64(), yc.X.Int64(), it)
			}
		}
	}
	if g.AllowPotentialOverflow {
		return block.NewAdd(x, y), nil
	}
	wx := widen(block, x)
	wy := widen(block, y)
	return block.NewAdd(wx, wy), nil
}

// tryMul is tryAdd's multiplicative counterpart.
func (g *Generator) tryMul(it *types.IntType, block *ir.Block, x, y value.Value) (value.Value, error) {
	if xc, xok := x.(*constant.Int); xok {
		if yc, yok := y.(*constant.Int); yok {
			prod := xc.X.Int64() * yc.X.Int64()
			lo, hi := hostir.IntBounds(it)
			if prod >= lo && prod <= hi {
				return constant.NewInt(it, prod), nil
			}
			if !g.AllowPotentialOverflow {
				return nil, fmt.Errorf("rangecodegen: constant mul %d*%d overflows %v", xc.X.Int64(), yc.X.Int64(), it)
			}
		}
	}
	if g.AllowPotentialOverflow {
		return block.NewMul(x, y), nil
	}
	wx := widen(block, x)
	wy := widen(block, y)
	return block.NewMul(wx, wy), nil
}

// widen sign-extends v to i64 so an add/mul the analyzer couldn't prove safe
// in v's native width can't silently wrap; the caller accepts a wider result
// type rather than a falsified narrow one (spec.md §4.4, "Overflow
// discipline").
func widen(block *ir.Block, v value.Value) value.Value {
	it, ok := v.Type().(*types.IntType)
	if !ok || it.BitSize >= 64 {
		return v
	}
	if c, ok := v.(*constant.Int); ok {
		return constant.NewInt(types.I64, c.X.Int64())
	}
	return block.NewSExt(v, types.I64)
}

// tripCountIR materializes loop's trip-count expression as IR, without any
// taken-test guard: the symbolic trip count is emitted the same way any
// other bound is (constant folding where possible, a plain reference to the
// count instruction otherwise), so callers that need to guard the result
// themselves (GenerateTripCount, last-value generation, range generation)
// all share the one materialization (spec.md §4.4, "GenerateTripCount").
func (g *Generator) tripCountIR(ctx *rangeanalysis.EvalContext, trip *indvar.Trip, block *ir.Block) (value.Value, error) {
	if trip == nil || trip.Count == nil {
		return nil, fmt.Errorf("rangecodegen: loop has no classified trip count")
	}
	return g.generateEndpoint(ctx, trip.Count, trip, block, false)
}

// takenCond emits the i1 "the loop body executes at least once" predicate
// against an already-materialized trip count n (spec.md §4.3/§4.4, "Taken-
// test materialization").
func (g *Generator) takenCond(it *types.IntType, block *ir.Block, n value.Value) value.Value {
	zero := constant.NewInt(it, 0)
	return block.NewICmp(enum.IPredSGT, n, zero)
}

// seedValue returns the value an induction form holds before its home loop
// has executed at all: the fallback a taken-test guard selects when the
// loop body never runs (spec.md §4.4, "Taken-test materialization").
// Linear's seed is its base (the value at iteration k=0); geometric's and
// wrap-around's is their respective base/first-iteration operand;
// polynomial's accumulator always starts at zero; periodic's is its first
// phase, matching the phi's initial input before the loop is entered.
func seedValue(ctx *rangeanalysis.EvalContext, info *indvar.Info) (rangeval.Value, bool) {
	switch info.Kind {
	case indvar.KindLinear:
		return determinate(ctx, info.Op2)
	case indvar.KindGeometric, indvar.KindWrapAround:
		return determinate(ctx, info.Op1)
	case indvar.KindPolynomial:
		return rangeval.Const(0), true
	case indvar.KindPeriodic:
		if len(info.Phases) == 0 {
			return rangeval.Unknown(), false
		}
		return determinate(ctx, info.Phases[0])
	default:
		return determinate(ctx, info)
	}
}
