package indvar

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

func TestConst(t *testing.T) {
	info := Const(types.I32, 7)
	if info.Kind != KindConst || info.ConstValue != 7 || info.Type != types.I32 {
		t.Errorf("Const = %+v, want Kind=KindConst Type=I32 ConstValue=7", info)
	}
}

func TestFetch(t *testing.T) {
	x := ir.NewParam("x", types.I32)
	info := Fetch(types.I32, x)
	if info.Kind != KindFetch || info.Fetch != x {
		t.Errorf("Fetch = %+v, want Kind=KindFetch Fetch=x", info)
	}
}

func TestFetchArray(t *testing.T) {
	x := ir.NewParam("x", types.I32)
	info := FetchArray(types.I32, x)
	if info.Kind != KindFetchArray || info.Fetch != x {
		t.Errorf("FetchArray = %+v, want Kind=KindFetchArray Fetch=x", info)
	}
}

func TestBinOp(t *testing.T) {
	a, b := Const(types.I32, 1), Const(types.I32, 2)
	info := BinOp(KindAdd, types.I32, a, b)
	if info.Kind != KindAdd || info.Op1 != a || info.Op2 != b {
		t.Errorf("BinOp = %+v, want Kind=KindAdd Op1=a Op2=b", info)
	}
}

func TestNeg(t *testing.T) {
	a := Const(types.I32, 5)
	info := Neg(types.I32, a)
	if info.Kind != KindNeg || info.Op1 != a {
		t.Errorf("Neg = %+v, want Kind=KindNeg Op1=a", info)
	}
}

func TestConvert(t *testing.T) {
	a := Const(types.I32, 1000)
	info := Convert(types.I32, types.I8, a)
	if info.Kind != KindTypeConversion || info.ConvFrom != types.I32 || info.ConvTo != types.I8 || info.Op1 != a {
		t.Errorf("Convert = %+v, want Kind=KindTypeConversion ConvFrom=I32 ConvTo=I8 Op1=a", info)
	}
	if info.Type != types.I8 {
		t.Errorf("Convert.Type should be the destination type, got %v", info.Type)
	}
}

func TestLinear(t *testing.T) {
	loop := &fakeLoop{name: "loop"}
	step, base := Const(types.I32, 2), Const(types.I32, 1)
	info := Linear(types.I32, loop, step, base)
	if info.Kind != KindLinear || info.Loop != loop || info.Op1 != step || info.Op2 != base {
		t.Errorf("Linear = %+v, want Kind=KindLinear Loop=loop Op1=step Op2=base", info)
	}
}

func TestPolynomial(t *testing.T) {
	loop := &fakeLoop{name: "loop"}
	inner := Linear(types.I32, loop, Const(types.I32, 2), Const(types.I32, 1))
	info := Polynomial(types.I32, loop, inner)
	if info.Kind != KindPolynomial || info.Loop != loop || info.Op1 != inner {
		t.Errorf("Polynomial = %+v, want Kind=KindPolynomial Loop=loop Op1=inner", info)
	}
}

func TestGeometric(t *testing.T) {
	loop := &fakeLoop{name: "loop"}
	base, ratio := Const(types.I32, 1), Const(types.I32, 2)
	info := Geometric(types.I32, loop, base, ratio, GeometricMul)
	if info.Kind != KindGeometric || info.Op1 != base || info.Op2 != ratio || info.GeoOp != GeometricMul {
		t.Errorf("Geometric = %+v, want Kind=KindGeometric Op1=base Op2=ratio GeoOp=GeometricMul", info)
	}
}

func TestWrapAround(t *testing.T) {
	loop := &fakeLoop{name: "loop"}
	seed, body := Const(types.I32, -1), Const(types.I32, 3)
	info := WrapAround(types.I32, loop, seed, body)
	if info.Kind != KindWrapAround || info.Op1 != seed || info.Op2 != body {
		t.Errorf("WrapAround = %+v, want Kind=KindWrapAround Op1=seed Op2=body", info)
	}
}

func TestPeriodic(t *testing.T) {
	loop := &fakeLoop{name: "loop"}
	p0, p1 := Const(types.I32, 0), Const(types.I32, 1)
	info := Periodic(types.I32, loop, p0, p1)
	if info.Kind != KindPeriodic || len(info.Phases) != 2 || info.Phases[0] != p0 || info.Phases[1] != p1 {
		t.Errorf("Periodic = %+v, want Kind=KindPeriodic Phases=[p0,p1]", info)
	}
}
