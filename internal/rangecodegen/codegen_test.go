package rangecodegen

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/dshills/indvar/internal/hostir"
	"github.com/dshills/indvar/internal/indvar"
	"github.com/dshills/indvar/internal/rangeanalysis"
	"github.com/dshills/indvar/internal/rangeval"
)

// buildCountedLoop builds entry -> header(phi) -> body(inc) -> header, exit,
// classifies phi as a·k+b = 1·k+0 over a 10-iteration ConstantTrip, and
// returns the generator plus the phi, its home loop, and a scratch block to
// emit into.
func buildCountedLoop(t *testing.T) (*Generator, *ir.InstPhi, *hostir.Loop, *ir.Block) {
	t.Helper()
	m := ir.NewModule()
	fn := m.NewFunc("f", types.Void)
	entry := fn.NewBlock("entry")
	header := fn.NewBlock("header")
	body := fn.NewBlock("body")
	exit := fn.NewBlock("exit")
	scratch := fn.NewBlock("scratch")

	entry.NewBr(header)
	phi := header.NewPhi(ir.NewIncoming(constant.NewInt(types.I32, 0), entry))
	header.NewCondBr(constant.NewInt(types.I1, 1), body, exit)
	inc := body.NewAdd(phi, constant.NewInt(types.I32, 1))
	body.NewBr(header)
	phi.Incs = append(phi.Incs, ir.NewIncoming(inc, body))
	exit.NewRet(nil)

	graph := hostir.NewGraph(fn)
	loop := graph.InnermostLoopContaining(header)
	if loop == nil {
		t.Fatalf("expected a natural loop rooted at header")
	}

	store := indvar.NewStore(nil)
	info := indvar.Linear(types.I32, loop, indvar.Const(types.I32, 1), indvar.Const(types.I32, 0))
	trip := &indvar.Trip{Count: indvar.Const(types.I32, 10), Class: indvar.ConstantTrip, PrimaryIV: phi}
	store.Define(loop, phi, info)
	store.DefineTripCount(loop, trip)

	r := &rangeanalysis.InductionVarRange{Store: store, Graph: graph}
	return New(r), phi, loop, scratch
}

func TestGenerateRangeLinear(t *testing.T) {
	g, phi, _, scratch := buildCountedLoop(t)

	lo, hi, err := g.GenerateRange(nil, phi, scratch)
	if err != nil {
		t.Fatalf("GenerateRange: %v", err)
	}
	loC, ok := lo.(*constant.Int)
	if !ok || loC.X.Int64() != 0 {
		t.Errorf("lo = %v, want constant 0", lo)
	}
	hiC, ok := hi.(*constant.Int)
	if !ok || hiC.X.Int64() != 9 {
		t.Errorf("hi = %v, want constant 9", hi)
	}
}

func TestCanGenerateRange(t *testing.T) {
	g, phi, _, _ := buildCountedLoop(t)

	ok, needsFiniteTest, needsTakenTest := g.CanGenerateRange(nil, phi)
	if !ok {
		t.Fatalf("CanGenerateRange should succeed for a classified linear induction")
	}
	if needsFiniteTest {
		t.Errorf("a ConstantTrip loop shouldn't need a finite test")
	}
	if needsTakenTest {
		t.Errorf("a ConstantTrip loop shouldn't need a taken test")
	}
}

func TestGenerateLastValueLinear(t *testing.T) {
	g, phi, _, scratch := buildCountedLoop(t)

	last, err := g.GenerateLastValue(phi, scratch)
	if err != nil {
		t.Fatalf("GenerateLastValue: %v", err)
	}
	c, ok := last.(*constant.Int)
	if !ok || c.X.Int64() != 10 {
		t.Errorf("last value = %v, want constant 10 (step*trip+base)", last)
	}
}

func TestGenerateTripCount(t *testing.T) {
	g, _, loop, scratch := buildCountedLoop(t)

	n, err := g.GenerateTripCount(loop, scratch)
	if err != nil {
		t.Fatalf("GenerateTripCount: %v", err)
	}
	c, ok := n.(*constant.Int)
	if !ok || c.X.Int64() != 10 {
		t.Errorf("trip count = %v, want constant 10", n)
	}
}

func TestGenerateTakenTest(t *testing.T) {
	g, _, loop, scratch := buildCountedLoop(t)

	taken, err := g.GenerateTakenTest(loop, scratch)
	if err != nil {
		t.Fatalf("GenerateTakenTest: %v", err)
	}
	if taken.Type() != types.I1 {
		t.Errorf("taken test should produce an i1, got %v", taken.Type())
	}
}

func TestGenerateRangeRefusesUnclassifiedValue(t *testing.T) {
	g, _, _, scratch := buildCountedLoop(t)
	other := ir.NewParam("other", types.I32)

	if _, _, err := g.GenerateRange(nil, other, scratch); err == nil {
		t.Errorf("GenerateRange should refuse an unclassified value")
	}
}

func TestMaterializeNonIntegerTypeRefused(t *testing.T) {
	g, _, _, scratch := buildCountedLoop(t)
	_, err := g.materialize(types.Void, scratch, rangeval.Const(5))
	if err == nil {
		t.Errorf("materialize should refuse a non-integer type")
	}
}
