package client

// DefaultFollowThreshold is the number of lines from the newest entry within
// which the view still counts as "at the bottom". A small buffer absorbs
// rounding discrepancies from wrapped lines.
const DefaultFollowThreshold = 2

// Follow arbitrates, for every log mutation, between auto-scrolling to the
// newest entry and surfacing a "new messages" affordance. The decision uses
// the viewport position from before the mutation.
type Follow struct {
	Threshold int

	offset  int // lines between the viewport bottom and the newest entry
	pending bool
}

// NewFollow creates an arbiter with the given threshold; values below zero
// fall back to DefaultFollowThreshold.
func NewFollow(threshold int) Follow {
	if threshold < 0 {
		threshold = DefaultFollowThreshold
	}
	return Follow{Threshold: threshold}
}

// SetOffset records the viewport's current distance from the newest entry.
// Manually scrolling back within the threshold clears the affordance.
func (f *Follow) SetOffset(lines int) {
	if lines < 0 {
		lines = 0
	}
	f.offset = lines
	if f.offset <= f.Threshold {
		f.pending = false
	}
}

// Observe is called once per log mutation, before the view applies it. It
// returns true when the view should auto-scroll; otherwise the "new messages"
// affordance becomes visible and stays until acknowledged.
func (f *Follow) Observe() bool {
	if f.offset <= f.Threshold {
		f.pending = false
		return true
	}
	f.pending = true
	return false
}

// Pending reports whether the "new messages" affordance is visible.
func (f *Follow) Pending() bool { return f.pending }

// Acknowledge records a user-initiated jump to the newest entry and clears
// the affordance.
func (f *Follow) Acknowledge() {
	f.offset = 0
	f.pending = false
}
