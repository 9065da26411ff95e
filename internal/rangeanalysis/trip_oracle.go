package rangeanalysis

import (
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/indvar/internal/indvar"
)

// constantRequest mirrors the original's three-way constant query
// (ConstantRequest{kExact, kAtMost, kAtLeast} in
// original_source/compiler/optimizing/induction_var_range.h) used
// internally to back HasKnownTripCount and IsFinite (kExact), without
// widening the public surface spec.md defines (spec.md §5, "Supplemented
// features"). isConstant also answers kAtMost/kAtLeast, but no caller in
// this package issues those requests.
type constantRequest int

const (
	reqExact constantRequest = iota
	reqAtMost
	reqAtLeast
)

// isConstant reports whether trip's count resolves to a 64-bit constant
// satisfying request, returning that value.
func isConstant(ctx *EvalContext, trip *indvar.Trip, request constantRequest) (int64, bool) {
	if trip == nil || trip.Count == nil {
		return 0, false
	}
	minV, _ := Eval(ctx, trip.Count, true)
	maxV, _ := Eval(ctx, trip.Count, false)
	switch request {
	case reqExact:
		if minV.IsConstant() && maxV.IsConstant() && minV.ConstValue() == maxV.ConstValue() {
			return int64(minV.ConstValue()), true
		}
	case reqAtMost:
		if maxV.IsConstant() {
			return int64(maxV.ConstValue()), true
		}
	case reqAtLeast:
		if minV.IsConstant() {
			return int64(minV.ConstValue()), true
		}
	}
	return 0, false
}

// IsFinite reports whether loop's trip count is known to terminate on
// every entry, setting tripCount when the count is additionally an exact
// constant (spec.md §4.3).
func IsFinite(store *indvar.Store, loop indvar.HLoop) (tripCount int64, ok bool) {
	trip, found := store.LookupTripCount(loop)
	if !found || !trip.Class.IsFiniteClass() {
		return 0, false
	}
	ctx := &EvalContext{store: store, loop: loop, trip: trip}
	if n, exact := isConstant(ctx, trip, reqExact); exact {
		return n, true
	}
	return 0, true
}

// HasKnownTripCount succeeds only when loop's class is ConstantTrip,
// returning the exact value (spec.md §4.3).
func HasKnownTripCount(store *indvar.Store, loop indvar.HLoop) (tripCount int64, ok bool) {
	trip, found := store.LookupTripCount(loop)
	if !found || trip.Class != indvar.ConstantTrip {
		return 0, false
	}
	ctx := &EvalContext{store: store, loop: loop, trip: trip}
	return isConstant(ctx, trip, reqExact)
}

// IsWellBehavedTripCount reports whether loop's trip is finite and its
// primary induction variable strides by a unit in its integer type,
// guaranteeing no counter overflow (spec.md §4.3, "well-behaved").
func IsWellBehavedTripCount(store *indvar.Store, loop indvar.HLoop) bool {
	trip, found := store.LookupTripCount(loop)
	if !found || !trip.Class.IsFiniteClass() {
		return false
	}
	if trip.PrimaryIV == nil {
		return false
	}
	info, found := store.LookupInfo(loop, trip.PrimaryIV)
	if !found || info.Kind != indvar.KindLinear {
		return false
	}
	step, ok := constLeaf(info.Op1)
	return ok && (step == 1 || step == -1)
}

// NeedsTripCount reports whether evaluating info requires consulting the
// loop's trip count at all (a Linear/Polynomial/Geometric/WrapAround/
// Periodic descendant), and if so, returns the primary induction variable's stride
// when it is a literal constant.
func NeedsTripCount(info *indvar.Info) (strideValue int64, needs bool) {
	if info == nil {
		return 0, false
	}
	switch info.Kind {
	case indvar.KindLinear:
		if step, ok := constLeaf(info.Op1); ok {
			return step, true
		}
		return 0, true
	case indvar.KindPolynomial, indvar.KindGeometric, indvar.KindWrapAround, indvar.KindPeriodic:
		return 0, true
	case indvar.KindConst, indvar.KindFetch, indvar.KindFetchArray:
		return 0, false
	default:
		s1, n1 := NeedsTripCount(info.Op1)
		if n1 {
			return s1, true
		}
		s2, n2 := NeedsTripCount(info.Op2)
		return s2, n2
	}
}

// IsBodyTripCount reports whether trip's class requires at least one body
// execution to be accurate (post-test loop style).
func IsBodyTripCount(trip *indvar.Trip) bool {
	return trip != nil && trip.Class == indvar.BodyTrip
}

// IsUnsafeTripCount reports whether trip's own count expression may
// overflow, invalidating any bound derived from it unless the code
// generator is explicitly permitted to produce potentially-overflowing IR.
func IsUnsafeTripCount(trip *indvar.Trip) bool {
	return trip != nil && trip.Class == indvar.UnsafeTrip
}

// IsUnitStride reports whether instr is a unit-stride induction variable
// of loop, returning its invariant
// offset on success (spec.md §4.3). Only the common case of a plain
// invariant-fetch offset is resolved to a concrete Instr; a composite
// offset expression reports ok=false, conservatively.
func IsUnitStride(store *indvar.Store, loop indvar.HLoop, instr value.Value) (offset value.Value, ok bool) {
	info, found := store.LookupInfo(loop, instr)
	if !found || info.Kind != indvar.KindLinear {
		return nil, false
	}
	step, stepOK := constLeaf(info.Op1)
	if !stepOK || (step != 1 && step != -1) {
		return nil, false
	}
	switch info.Op2.Kind {
	case indvar.KindFetch:
		return info.Op2.Fetch, true
	case indvar.KindConst:
		return nil, true
	default:
		return nil, false
	}
}
