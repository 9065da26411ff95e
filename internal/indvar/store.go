package indvar

import (
	"github.com/llir/llvm/ir/value"
)

// Classifier is the external induction-variable classification pass the
// core treats as a narrow, read-only collaborator (spec.md §1, "Out of
// scope"). The core never re-implements it; it only asks it to re-run over
// a single loop via Store.VisitLoop, which ReVisit drives.
type Classifier interface {
	// VisitLoop (re-)classifies loop, populating the store with fresh Info
	// trees for its header phis and trip count.
	VisitLoop(loop HLoop)
}

// Store is the classifier's mutable backing store: induction_[loop] and
// cycles_[phi] in spec.md §6's terms. The range analyzer borrows it
// read-only through LookupInfo/LookupCycle; only ReVisit (via VisitLoop)
// and Replace (via RewriteFetch) are allowed to mutate it, per the narrow
// mutation API spec.md §9's Design Notes recommend in place of the
// original's friend-class access.
type Store struct {
	induction  map[HLoop]map[value.Value]*Info
	tripCounts map[HLoop]*Trip
	cycles     map[value.Value]map[value.Value]bool
	classifier Classifier
}

// NewStore creates an empty store backed by the given classifier. The
// classifier may be nil for tests that populate the store directly and
// never call ReVisit.
func NewStore(classifier Classifier) *Store {
	return &Store{
		induction:  make(map[HLoop]map[value.Value]*Info),
		tripCounts: make(map[HLoop]*Trip),
		cycles:     make(map[value.Value]map[value.Value]bool),
		classifier: classifier,
	}
}

// Define records the induction description for instr within loop. Used by
// the classifier (or, in tests, directly) to populate the store.
func (s *Store) Define(loop HLoop, instr value.Value, info *Info) {
	m, ok := s.induction[loop]
	if !ok {
		m = make(map[value.Value]*Info)
		s.induction[loop] = m
	}
	m[instr] = info
}

// DefineTripCount records loop's trip-count description.
func (s *Store) DefineTripCount(loop HLoop, trip *Trip) {
	s.tripCounts[loop] = trip
}

// DefineCycle records the set of instructions in phi's recognized cycle
// (spec.md §5, "Supplemented features": LookupCycle).
func (s *Store) DefineCycle(phi value.Value, cycle map[value.Value]bool) {
	s.cycles[phi] = cycle
}

// LookupInfo returns the induction description for instr within loop, if
// any has been classified.
func (s *Store) LookupInfo(loop HLoop, instr value.Value) (*Info, bool) {
	m, ok := s.induction[loop]
	if !ok {
		return nil, false
	}
	info, ok := m[instr]
	return info, ok
}

// LookupTripCount returns loop's trip-count description, if classified.
func (s *Store) LookupTripCount(loop HLoop) (*Trip, bool) {
	t, ok := s.tripCounts[loop]
	return t, ok
}

// LookupCycle returns the cycle associated with phi, if tracked.
func (s *Store) LookupCycle(phi value.Value) (map[value.Value]bool, bool) {
	c, ok := s.cycles[phi]
	return c, ok
}

// VisitLoop drops the cached classification for loop and asks the
// classifier to re-run over it, implementing the ReVisit half of spec.md
// §4.4's public contract.
func (s *Store) VisitLoop(loop HLoop) {
	s.Invalidate(loop)
	if s.classifier != nil {
		s.classifier.VisitLoop(loop)
	}
}

// Invalidate drops loop's cached induction info and trip count, plus the
// tracked cycles for every phi currently recorded under it. It does not
// re-run the classifier; callers that want fresh info call VisitLoop.
func (s *Store) Invalidate(loop HLoop) {
	for instr := range s.induction[loop] {
		delete(s.cycles, instr)
	}
	delete(s.induction, loop)
	delete(s.tripCounts, loop)
}

// RewriteFetch replaces every fetch of old with replacement in every Info
// tree reachable from loop, implementing the Replace half of spec.md §4.4's
// public contract. DAG sharing means a single rewrite can touch the same
// subtree from multiple parents; each Info node is visited once.
func (s *Store) RewriteFetch(loop HLoop, old, replacement value.Value) {
	m, ok := s.induction[loop]
	if !ok {
		return
	}
	seen := make(map[*Info]bool)
	for instr, info := range m {
		m[instr] = rewriteInfo(info, old, replacement, seen)
	}
	if t, ok := s.tripCounts[loop]; ok {
		t.Count = rewriteInfo(t.Count, old, replacement, seen)
	}
}

func rewriteInfo(info *Info, old, replacement value.Value, seen map[*Info]bool) *Info {
	if info == nil || seen[info] {
		return info
	}
	seen[info] = true
	switch info.Kind {
	case KindFetch, KindFetchArray:
		if info.Fetch == old {
			info.Fetch = replacement
		}
	case KindConst:
		// no fetch to rewrite
	case KindPeriodic:
		for i, p := range info.Phases {
			info.Phases[i] = rewriteInfo(p, old, replacement, seen)
		}
	default:
		info.Op1 = rewriteInfo(info.Op1, old, replacement, seen)
		info.Op2 = rewriteInfo(info.Op2, old, replacement, seen)
	}
	return info
}
