// Package indvar holds the induction-description data model spec.md §3
// defines: the Info tree a prior classification pass produces, and the
// Trip description summarizing a loop's trip count. The core only ever
// borrows these read-only; it never constructs them from scratch.
//
// Grounded on HInductionVarAnalysis::InductionInfo in
// original_source/compiler/optimizing/induction_var_range.h. Per spec.md
// §9's Design Notes, the original's polymorphic node hierarchy is
// re-expressed here as a closed sum type (Kind + exhaustive switch in the
// evaluator) instead of an open class hierarchy.
package indvar

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Kind discriminates the node types an Info tree can contain.
type Kind int

const (
	// Leaves.
	KindConst Kind = iota
	KindFetch

	// Invariant operators.
	KindAdd
	KindSub
	KindNeg
	KindMul
	KindDiv
	KindRem
	KindXor
	KindTypeConversion
	KindFetchArray

	// Induction forms.
	KindLinear
	KindPolynomial
	KindGeometric
	KindWrapAround
	KindPeriodic
)

// GeometricOp distinguishes the two geometric recurrences the original
// supports: x = x*r (multiplication) and x = x/r (division), mirroring the
// original's kMultiply/kDivide IsGeometric operation tag.
type GeometricOp int

const (
	GeometricMul GeometricOp = iota
	GeometricDiv
)

// Info is one node of an induction description tree. Only the fields
// relevant to Kind are populated; callers must dispatch on Kind before
// reading any other field (spec.md §9: "exhaustive case analysis").
type Info struct {
	Kind Kind

	// Type is the integral type this node computes in. Every operator
	// preserves it across children except TypeConversion, which records
	// both (ConvFrom/ConvTo below).
	Type types.Type

	// KindConst.
	ConstValue int64

	// KindFetch / KindFetchArray: the opaque IR value this node reads.
	Fetch value.Value

	// Invariant operators and Linear's step/base: children.
	Op1, Op2 *Info

	// KindTypeConversion.
	ConvFrom, ConvTo types.Type

	// Induction forms: the home loop this node is classified against.
	Loop HLoop

	// KindGeometric.
	GeoOp GeometricOp

	// KindPeriodic: the phase values cycled through across iterations.
	Phases []*Info
}

// HLoop is the minimal loop handle the induction data model needs: identity
// plus the "contains definition" relation used to decide whether a fetch is
// loop-invariant. It is intentionally decoupled from hostir.Loop (which
// adds CFG-specific fields the data model itself doesn't need) via a small
// interface so indvar has no import-cycle dependency on the IR package.
type HLoop interface {
	// ContainsDef reports whether v is defined inside this loop (or a loop
	// nested within it), used to decide whether a Fetch must be resolved
	// through the loop's primary induction variable rather than treated as
	// an opaque symbol.
	ContainsDef(v value.Value) bool
}

// Const builds a constant leaf.
func Const(t types.Type, c int64) *Info {
	return &Info{Kind: KindConst, Type: t, ConstValue: c}
}

// Fetch builds a fetch leaf referencing an invariant instruction.
func Fetch(t types.Type, v value.Value) *Info {
	return &Info{Kind: KindFetch, Type: t, Fetch: v}
}

// FetchArray builds the address-computation fetch sentinel.
func FetchArray(t types.Type, v value.Value) *Info {
	return &Info{Kind: KindFetchArray, Type: t, Fetch: v}
}

// BinOp builds an invariant binary operator node (+, -, ·, /, %, ^).
func BinOp(kind Kind, t types.Type, x, y *Info) *Info {
	return &Info{Kind: kind, Type: t, Op1: x, Op2: y}
}

// Neg builds the unary negation node.
func Neg(t types.Type, x *Info) *Info {
	return &Info{Kind: KindNeg, Type: t, Op1: x}
}

// Convert builds a TypeConversion node recording both the source and
// destination integral type.
func Convert(from, to types.Type, x *Info) *Info {
	return &Info{Kind: KindTypeConversion, Type: to, ConvFrom: from, ConvTo: to, Op1: x}
}

// Linear builds a·k+b for the loop's primary induction variable k, with
// step a (Op1) and base b (Op2).
func Linear(t types.Type, loop HLoop, step, base *Info) *Info {
	return &Info{Kind: KindLinear, Type: t, Loop: loop, Op1: step, Op2: base}
}

// Polynomial builds Σ a·k over k∈[0,T) with inner linear term (Op1).
func Polynomial(t types.Type, loop HLoop, inner *Info) *Info {
	return &Info{Kind: KindPolynomial, Type: t, Loop: loop, Op1: inner}
}

// Geometric builds b·r^k: Op1 is the base b, Op2 is the ratio r (a constant
// leaf), and GeoOp distinguishes x*=r from x/=r recurrences.
func Geometric(t types.Type, loop HLoop, base, ratio *Info, op GeometricOp) *Info {
	return &Info{Kind: KindGeometric, Type: t, Loop: loop, Op1: base, Op2: ratio, GeoOp: op}
}

// WrapAround builds w ↪ body: w (Op1) on the first iteration, body's value
// (Op2) on every subsequent one.
func WrapAround(t types.Type, loop HLoop, seed, body *Info) *Info {
	return &Info{Kind: KindWrapAround, Type: t, Loop: loop, Op1: seed, Op2: body}
}

// Periodic builds a cycle across the given phase values.
func Periodic(t types.Type, loop HLoop, phases ...*Info) *Info {
	return &Info{Kind: KindPeriodic, Type: t, Loop: loop, Phases: phases}
}
