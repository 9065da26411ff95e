// Package hostir adapts the LLVM IR produced by the host compiler into the
// narrow structural surface the range analyzer needs: instruction identity,
// integral typing, block/loop containment, and emission helpers.
package hostir

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Instr is the opaque instruction handle the analyzer reasons about. It is
// backed directly by llir/llvm's value.Value so host blocks, constants, and
// parameters can all be compared by identity without an adapter layer.
type Instr = value.Value

// IsIntegral reports whether t is an integer type the analyzer can classify.
// Narrower-than-32-bit types are treated as 32-bit per the engine's domain;
// floating point is never induction-classified.
func IsIntegral(t types.Type) bool {
	_, ok := t.(*types.IntType)
	return ok
}

// Width32 reports whether t should be treated as the engine's 32-bit domain.
// Types narrower than or equal to 32 bits fall here; wider types are 64-bit.
func Width32(t types.Type) bool {
	it, ok := t.(*types.IntType)
	if !ok {
		return true
	}
	return it.BitSize <= 32
}

// IntBounds returns the representable [min, max] range for the given integral
// type, used by TypeConversion narrowing (spec §4.2, TypeConversion case).
func IntBounds(t types.Type) (lo, hi int64) {
	it, ok := t.(*types.IntType)
	if !ok {
		return 0, 0
	}
	if it.BitSize >= 64 {
		return -(1 << 63), (1 << 63) - 1
	}
	bits := it.BitSize
	if bits == 0 {
		bits = 32
	}
	lo = -(int64(1) << (bits - 1))
	hi = (int64(1) << (bits - 1)) - 1
	return lo, hi
}

// ConstInt extracts a signed 64-bit value from a constant integer operand.
func ConstInt(v value.Value) (int64, bool) {
	c, ok := v.(*constant.Int)
	if !ok {
		return 0, false
	}
	return c.X.Int64(), true
}

// IsArrayGet reports whether inst is part of the address-computation fetch
// sentinel spec.md calls FetchArray: any GetElementPtr or any Load, each
// accepted on its own without checking that one feeds the other. The
// analyzer never looks inside it, it is always a fetch leaf.
func IsArrayGet(inst ir.Instruction) bool {
	switch inst.(type) {
	case *ir.InstGetElementPtr, *ir.InstLoad:
		return true
	default:
		return false
	}
}
