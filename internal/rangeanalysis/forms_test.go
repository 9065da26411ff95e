package rangeanalysis

import (
	"testing"

	"github.com/llir/llvm/ir/types"

	"github.com/dshills/indvar/internal/indvar"
)

func constTrip(n int64) *indvar.Trip {
	return &indvar.Trip{Count: indvar.Const(types.I32, n), Class: indvar.ConstantTrip}
}

func TestGetLinearPositiveStep(t *testing.T) {
	// i = 2*k + 5 for k in [0,10): min=5 (k=0), max=2*9+5=23 (k=9).
	info := indvar.Linear(types.I32, nil, indvar.Const(types.I32, 2), indvar.Const(types.I32, 5))
	ctx := NewEvalContext(indvar.NewStore(nil), nil, constTrip(10), nil)

	min, _ := Eval(ctx, info, true)
	if !min.IsConstant() || min.ConstValue() != 5 {
		t.Errorf("min = %+v, want Const(5)", min)
	}
	max, _ := Eval(ctx, info, false)
	if !max.IsConstant() || max.ConstValue() != 23 {
		t.Errorf("max = %+v, want Const(23)", max)
	}
}

func TestGetLinearNegativeStep(t *testing.T) {
	// i = -3*k + 50 for k in [0,10): min at k=9: -27+50=23, max at k=0: 50.
	info := indvar.Linear(types.I32, nil, indvar.Const(types.I32, -3), indvar.Const(types.I32, 50))
	ctx := NewEvalContext(indvar.NewStore(nil), nil, constTrip(10), nil)

	min, _ := Eval(ctx, info, true)
	if !min.IsConstant() || min.ConstValue() != 23 {
		t.Errorf("min = %+v, want Const(23)", min)
	}
	max, _ := Eval(ctx, info, false)
	if !max.IsConstant() || max.ConstValue() != 50 {
		t.Errorf("max = %+v, want Const(50)", max)
	}
}

func TestGetPolynomial(t *testing.T) {
	// Σ(2k+1) for k in [0,5): min=1 (k=0 term alone), max=2*5*4/2+1*5=25.
	inner := indvar.Linear(types.I32, nil, indvar.Const(types.I32, 2), indvar.Const(types.I32, 1))
	info := indvar.Polynomial(types.I32, nil, inner)
	ctx := NewEvalContext(indvar.NewStore(nil), nil, constTrip(5), nil)

	min, _ := Eval(ctx, info, true)
	if !min.IsConstant() || min.ConstValue() != 1 {
		t.Errorf("min = %+v, want Const(1)", min)
	}
	max, _ := Eval(ctx, info, false)
	if !max.IsConstant() || max.ConstValue() != 25 {
		t.Errorf("max = %+v, want Const(25)", max)
	}
}

func TestGetGeometricDoublingSequence(t *testing.T) {
	// x=1; x*=2 for 10 iterations: lo=1, hi=512.
	info := indvar.Geometric(types.I32, nil, indvar.Const(types.I32, 1), indvar.Const(types.I32, 2), indvar.GeometricMul)
	ctx := NewEvalContext(indvar.NewStore(nil), nil, constTrip(10), nil)

	min, _ := Eval(ctx, info, true)
	if !min.IsConstant() || min.ConstValue() != 1 {
		t.Errorf("min = %+v, want Const(1)", min)
	}
	max, _ := Eval(ctx, info, false)
	if !max.IsConstant() || max.ConstValue() != 512 {
		t.Errorf("max = %+v, want Const(512)", max)
	}
}

func TestGetPeriodicTogglingPhases(t *testing.T) {
	info := indvar.Periodic(types.I32, nil, indvar.Const(types.I32, 0), indvar.Const(types.I32, 1))
	ctx := NewEvalContext(indvar.NewStore(nil), nil, nil, nil)

	min, _ := Eval(ctx, info, true)
	if !min.IsConstant() || min.ConstValue() != 0 {
		t.Errorf("min = %+v, want Const(0)", min)
	}
	max, _ := Eval(ctx, info, false)
	if !max.IsConstant() || max.ConstValue() != 1 {
		t.Errorf("max = %+v, want Const(1)", max)
	}
}

func TestGetWrapAroundMergesSeedAndBody(t *testing.T) {
	info := indvar.WrapAround(types.I32, nil, indvar.Const(types.I32, -1), indvar.Const(types.I32, 3))
	ctx := NewEvalContext(indvar.NewStore(nil), nil, nil, nil)

	min, _ := Eval(ctx, info, true)
	if !min.IsConstant() || min.ConstValue() != -1 {
		t.Errorf("min = %+v, want Const(-1)", min)
	}
	max, _ := Eval(ctx, info, false)
	if !max.IsConstant() || max.ConstValue() != 3 {
		t.Errorf("max = %+v, want Const(3)", max)
	}
}
