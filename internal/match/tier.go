package match

import "strings"

// TierState is the cumulative criterion-selection state: a single pointer
// into the criterion order. Every criterion at or below the pointer is
// active. Non-prefix selections are not representable.
type TierState struct {
	active Criterion
}

// NewTierState returns the initial state with the strictest tier active.
func NewTierState() TierState {
	return TierState{active: SameYongShen}
}

// TierStateAt restores a state with the given tier active, e.g. from a
// query parameter. Out-of-range criteria yield the initial state.
func TierStateAt(c Criterion) TierState {
	if c < 0 || c >= criterionCount {
		return NewTierState()
	}
	return TierState{active: c}
}

// Active returns the current tier pointer.
func (t TierState) Active() Criterion {
	return t.active
}

// Selected reports whether a criterion is part of the active prefix.
func (t TierState) Selected(c Criterion) bool {
	return c <= t.active
}

// Click applies one UI interaction. Clicking the criterion at the active
// tier relaxes the selection by one step (no-op at the loosest tier);
// clicking any other criterion jumps the pointer directly to it.
func (t *TierState) Click(c Criterion) {
	if c < 0 || c >= criterionCount {
		return
	}
	if c == t.active {
		if t.active > 0 {
			t.active--
		}
		return
	}
	t.active = c
}

// CriteriaText describes the active prefix for display, e.g.
// "同年柱 · 同月柱 · 同日柱".
func (t TierState) CriteriaText() string {
	labels := make([]string, 0, int(t.active)+1)
	for c := SameYearPillar; c <= t.active; c++ {
		labels = append(labels, c.Label())
	}
	return strings.Join(labels, " · ")
}
