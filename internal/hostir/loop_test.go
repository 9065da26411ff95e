package hostir

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// buildSimpleLoop builds entry -> header -> body -> header (back edge) ->
// exit, the minimal single natural loop shape the forest builder needs to
// recognize.
func buildSimpleLoop(t *testing.T) (*ir.Func, *ir.Block, *ir.Block, *ir.Block, *ir.Block) {
	t.Helper()
	m := ir.NewModule()
	fn := m.NewFunc("f", types.Void)
	entry := fn.NewBlock("entry")
	header := fn.NewBlock("header")
	body := fn.NewBlock("body")
	exit := fn.NewBlock("exit")

	entry.NewBr(header)
	header.NewCondBr(constant.NewInt(types.I1, 1), body, exit)
	body.NewBr(header)
	exit.NewRet(nil)

	return fn, entry, header, body, exit
}

func TestNewGraphFindsSingleLoop(t *testing.T) {
	fn, _, header, body, exit := buildSimpleLoop(t)
	g := NewGraph(fn)

	loops := g.Loops()
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	lp := loops[0]
	if lp.Header != header {
		t.Errorf("loop header = %v, want %v", lp.Header, header)
	}
	if !lp.Contains(header) || !lp.Contains(body) {
		t.Errorf("loop should contain header and body")
	}
	if lp.Contains(exit) {
		t.Errorf("loop shouldn't contain the exit block")
	}
}

func TestGraphDominates(t *testing.T) {
	fn, entry, header, body, exit := buildSimpleLoop(t)
	g := NewGraph(fn)

	if !g.Dominates(entry, header) {
		t.Errorf("entry should dominate header")
	}
	if !g.Dominates(header, body) {
		t.Errorf("header should dominate body")
	}
	if !g.Dominates(header, exit) {
		t.Errorf("header should dominate exit (the only way out)")
	}
	if g.Dominates(body, header) {
		t.Errorf("body shouldn't dominate header (header runs first)")
	}
}

func TestInnermostLoopContainingDef(t *testing.T) {
	fn, _, header, body, _ := buildSimpleLoop(t)
	g := NewGraph(fn)

	iv := header.NewPhi(ir.NewIncoming(constant.NewInt(types.I32, 0), fn.Blocks[0]))
	inc := body.NewAdd(iv, constant.NewInt(types.I32, 1))

	lp := g.InnermostLoopContainingDef(inc)
	if lp == nil || !lp.Contains(body) {
		t.Errorf("InnermostLoopContainingDef(inc) should resolve to the loop containing body")
	}
	if !lp.ContainsDef(inc) {
		t.Errorf("ContainsDef(inc) should be true for an instruction defined inside the loop")
	}

	outside := ir.NewParam("x", types.I32)
	if lp.ContainsDef(outside) {
		t.Errorf("ContainsDef should be false for a value not defined by any instruction in the loop")
	}
}

func TestNestedLoops(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.Void)
	entry := fn.NewBlock("entry")
	outerHeader := fn.NewBlock("outer.header")
	innerHeader := fn.NewBlock("inner.header")
	innerBody := fn.NewBlock("inner.body")
	outerLatch := fn.NewBlock("outer.latch")
	exit := fn.NewBlock("exit")

	entry.NewBr(outerHeader)
	outerHeader.NewBr(innerHeader)
	innerHeader.NewCondBr(constant.NewInt(types.I1, 1), innerBody, outerLatch)
	innerBody.NewBr(innerHeader)
	outerLatch.NewCondBr(constant.NewInt(types.I1, 1), outerHeader, exit)
	exit.NewRet(nil)

	g := NewGraph(fn)
	loops := g.Loops()
	if len(loops) != 2 {
		t.Fatalf("got %d loops, want 2", len(loops))
	}

	inner := g.InnermostLoopContaining(innerBody)
	outer := g.InnermostLoopContaining(outerLatch)
	if inner == nil || outer == nil {
		t.Fatalf("expected both loops to be found")
	}
	if inner == outer {
		t.Fatalf("inner and outer loops should be distinct")
	}
	if inner.Parent != outer {
		t.Errorf("inner loop's parent should be the outer loop")
	}
	if !outer.ContainsLoop(inner) {
		t.Errorf("outer.ContainsLoop(inner) should be true")
	}
}
