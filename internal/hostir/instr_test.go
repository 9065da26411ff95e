package hostir

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

func TestIsIntegral(t *testing.T) {
	if !IsIntegral(types.I32) {
		t.Errorf("I32 should be integral")
	}
	if IsIntegral(types.Double) {
		t.Errorf("Double should not be integral")
	}
}

func TestWidth32(t *testing.T) {
	if !Width32(types.I8) {
		t.Errorf("I8 should fall in the 32-bit domain")
	}
	if !Width32(types.I32) {
		t.Errorf("I32 should fall in the 32-bit domain")
	}
	if Width32(types.I64) {
		t.Errorf("I64 should not fall in the 32-bit domain")
	}
	if !Width32(types.Double) {
		t.Errorf("non-integer types should default to the 32-bit domain")
	}
}

func TestIntBounds(t *testing.T) {
	tests := []struct {
		name string
		typ  types.Type
		lo   int64
		hi   int64
	}{
		{"i8", types.I8, -128, 127},
		{"i32", types.I32, -2147483648, 2147483647},
		{"i64", types.I64, -(1 << 63), (1 << 63) - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := IntBounds(tt.typ)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("IntBounds(%v) = %d, %d; want %d, %d", tt.typ, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestIntBoundsNonIntegerIsZero(t *testing.T) {
	lo, hi := IntBounds(types.Double)
	if lo != 0 || hi != 0 {
		t.Errorf("IntBounds(non-integer) = %d, %d; want 0, 0", lo, hi)
	}
}

func TestConstInt(t *testing.T) {
	v, ok := ConstInt(constant.NewInt(types.I32, 42))
	if !ok || v != 42 {
		t.Errorf("ConstInt(42) = %d, %v; want 42, true", v, ok)
	}

	_, ok = ConstInt(ir.NewParam("x", types.I32))
	if ok {
		t.Errorf("ConstInt(param) should fail")
	}
}

func TestIsArrayGet(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.Void)
	block := fn.NewBlock("entry")

	ptr := ir.NewParam("p", types.NewPointer(types.I32))
	gep := block.NewGetElementPtr(types.I32, ptr, constant.NewInt(types.I32, 0))
	load := block.NewLoad(types.I32, gep)
	add := block.NewAdd(constant.NewInt(types.I32, 1), constant.NewInt(types.I32, 2))

	if !IsArrayGet(gep) {
		t.Errorf("GetElementPtr should be treated as an array fetch")
	}
	if !IsArrayGet(load) {
		t.Errorf("Load should be treated as an array fetch")
	}
	if IsArrayGet(add) {
		t.Errorf("Add should not be treated as an array fetch")
	}
}
