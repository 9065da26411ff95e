// Package rangeval implements the symbolic value domain the range analyzer
// computes with: a·instr + b for 32-bit signed constants a, b, where
// "unknown" is both the minimum over all lower bounds and the maximum over
// all upper bounds.
//
// Grounded on the Value struct in
// original_source/compiler/optimizing/induction_var_range.h and on the
// teacher's checked-arithmetic style in
// internal/codegen/optimizer.go's foldIntBinaryOp.
package rangeval

import (
	"math"

	"github.com/llir/llvm/ir/value"
)

// Value represents a·Instr + B, or the plain constant B when Instr is nil
// and A is 0. Known false means "unknown": no information.
type Value struct {
	Instr value.Value
	A     int32
	B     int32
	Known bool
}

// Unknown returns the value representing "no information".
func Unknown() Value {
	return Value{}
}

// Const returns the plain constant b.
func Const(b int32) Value {
	return Value{A: 0, B: b, Known: true}
}

// Affine returns a·instr + b. Per the normalization rule in spec.md §4.1, a
// zero coefficient drops the instruction reference entirely so that two
// constants with the same b compare equal regardless of how they arose.
func Affine(instr value.Value, a, b int32) Value {
	if a == 0 {
		instr = nil
	}
	return Value{Instr: instr, A: a, B: b, Known: true}
}

// IsConstant reports whether v is a known value with no symbolic part.
func (v Value) IsConstant() bool {
	return v.Known && v.A == 0
}

// ConstValue returns v's constant component; only meaningful when
// IsConstant reports true.
func (v Value) ConstValue() int32 {
	return v.B
}

// sameShape reports whether two known, non-constant values refer to the
// same instruction with the same coefficient, i.e. they can be combined by
// adjusting only the b term.
func sameShape(v1, v2 Value) bool {
	return v1.Known && v2.Known && v1.Instr == v2.Instr && v1.A == v2.A
}

func addOverflowsI32(a, b int32) bool {
	sum := int64(a) + int64(b)
	return sum < math.MinInt32 || sum > math.MaxInt32
}

func subOverflowsI32(a, b int32) bool {
	diff := int64(a) - int64(b)
	return diff < math.MinInt32 || diff > math.MaxInt32
}

func mulOverflowsI32(a, b int32) bool {
	prod := int64(a) * int64(b)
	return prod < math.MinInt32 || prod > math.MaxInt32
}

func negOverflowsI32(a int32) bool {
	return a == math.MinInt32
}

// Add returns v1 + v2, or Unknown if the shapes are incompatible or the
// coefficient/constant arithmetic overflows 32-bit signed range.
func Add(v1, v2 Value) Value {
	if !v1.Known || !v2.Known {
		return Unknown()
	}
	if v1.IsConstant() && v2.IsConstant() {
		if addOverflowsI32(v1.B, v2.B) {
			return Unknown()
		}
		return Const(v1.B + v2.B)
	}
	if v1.IsConstant() {
		return addConstToAffine(v2, v1.B)
	}
	if v2.IsConstant() {
		return addConstToAffine(v1, v2.B)
	}
	if sameShape(v1, v2) {
		if addOverflowsI32(v1.B, v2.B) {
			return Unknown()
		}
		return Affine(v1.Instr, v1.A, v1.B+v2.B)
	}
	return Unknown()
}

func addConstToAffine(v Value, k int32) Value {
	if addOverflowsI32(v.B, k) {
		return Unknown()
	}
	return Affine(v.Instr, v.A, v.B+k)
}

// Sub returns v1 - v2, symmetric to Add.
func Sub(v1, v2 Value) Value {
	if !v1.Known || !v2.Known {
		return Unknown()
	}
	if v1.IsConstant() && v2.IsConstant() {
		if subOverflowsI32(v1.B, v2.B) {
			return Unknown()
		}
		return Const(v1.B - v2.B)
	}
	if v2.IsConstant() {
		if subOverflowsI32(v1.B, v2.B) {
			return Unknown()
		}
		return Affine(v1.Instr, v1.A, v1.B-v2.B)
	}
	if v1.IsConstant() {
		if negOverflowsI32(v2.A) || subOverflowsI32(v1.B, v2.B) {
			return Unknown()
		}
		return Affine(v2.Instr, -v2.A, v1.B-v2.B)
	}
	if sameShape(v1, v2) {
		if subOverflowsI32(v1.B, v2.B) {
			return Unknown()
		}
		return Const(v1.B - v2.B)
	}
	return Unknown()
}

// Mul returns v1 * v2. Allowed only when at least one operand is a pure
// constant; scales both the coefficient and the constant term of the other.
func Mul(v1, v2 Value) Value {
	if !v1.Known || !v2.Known {
		return Unknown()
	}
	if v1.IsConstant() && v2.IsConstant() {
		if mulOverflowsI32(v1.B, v2.B) {
			return Unknown()
		}
		return Const(v1.B * v2.B)
	}
	if v1.IsConstant() {
		return mulConstByAffine(v1.B, v2)
	}
	if v2.IsConstant() {
		return mulConstByAffine(v2.B, v1)
	}
	return Unknown()
}

func mulConstByAffine(k int32, v Value) Value {
	if mulOverflowsI32(k, v.A) || mulOverflowsI32(k, v.B) {
		return Unknown()
	}
	return Affine(v.Instr, k*v.A, k*v.B)
}

// Div returns v1 / v2. Allowed only when v2 is a non-zero pure constant
// that divides both the coefficient and constant term of v1 exactly.
func Div(v1, v2 Value) Value {
	if !v1.Known || !v2.Known || !v2.IsConstant() || v2.B == 0 {
		return Unknown()
	}
	d := v2.B
	if v1.IsConstant() {
		if v1.B%d != 0 {
			return Unknown()
		}
		return Const(v1.B / d)
	}
	if v1.A%d != 0 || v1.B%d != 0 {
		return Unknown()
	}
	return Affine(v1.Instr, v1.A/d, v1.B/d)
}

// Merge returns one bound covering both v1 and v2 under isMin (true keeps
// the smaller lower bound, false the larger upper bound). Two pure
// constants merge to their signed min/max. Compatible affine shapes merge
// by comparing their constant term. Anything else degrades to Unknown.
func Merge(v1, v2 Value, isMin bool) Value {
	if !v1.Known || !v2.Known {
		return Unknown()
	}
	if v1.IsConstant() && v2.IsConstant() {
		if isMin {
			if v1.B < v2.B {
				return v1
			}
			return v2
		}
		if v1.B > v2.B {
			return v1
		}
		return v2
	}
	if sameShape(v1, v2) {
		if isMin {
			if v1.B <= v2.B {
				return v1
			}
			return v2
		}
		if v1.B >= v2.B {
			return v1
		}
		return v2
	}
	return Unknown()
}

// Equal reports structural equality, used by tests and by the algebraic
// laws in spec.md §8 (Merge(v, v, isMin) = v, etc).
func Equal(v1, v2 Value) bool {
	if v1.Known != v2.Known {
		return false
	}
	if !v1.Known {
		return true
	}
	return v1.Instr == v2.Instr && v1.A == v2.A && v1.B == v2.B
}
