package indvar

import "github.com/llir/llvm/ir/value"

// TripClass classifies how a loop's trip count behaves, per spec.md §4.3.
type TripClass int

const (
	// ConstantTrip: an exact non-negative integer trip count is known.
	ConstantTrip TripClass = iota
	// FiniteTrip: the loop terminates on every entry, but the count is
	// symbolic.
	FiniteTrip
	// BodyTrip: finite once the body executes at least once (post-test
	// loops); the count may be one smaller outside the body.
	BodyTrip
	// UnsafeTrip: the count expression itself may overflow.
	UnsafeTrip
	// UnknownTrip: nothing is known about termination.
	UnknownTrip
)

// Trip wraps the Info tree computing a loop's trip count together with its
// classification tag.
type Trip struct {
	Count *Info
	Class TripClass
	// PrimaryIV is the loop header phi the trip count was derived from —
	// the "k" in a Linear node's a·k+b. GetFetch substitutes this phi's
	// bound (0 at the minimum, Count-1 at the maximum) when chasing
	// reaches it (spec.md §4.2.1).
	PrimaryIV value.Value
}

// IsFiniteClass reports whether c guarantees termination on every entry
// (spec.md §4.3: IsFinite succeeds iff ConstantTrip or FiniteTrip).
func (c TripClass) IsFiniteClass() bool {
	return c == ConstantTrip || c == FiniteTrip
}
