package hotstuff

import (
	"time"
)

// SynchronyDetector observes the arrival pattern of consensus messages and
// decides whether this replica may participate in the optimistic fast path.
// The verdict is advisory for proposals (the leader sets the fast_eligible
// flag) and binding for the replica's own fast votes: a fast vote is emitted
// only if the leader's flag is set AND the local detector agrees.
//
// Concurrency safe: arrival samples are recorded from the networking layer
// while the event loop reads the verdict.
type SynchronyDetector interface {
	// OnMessageArrival records the arrival of a consensus message at the
	// given time.
	OnMessageArrival(arrival time.Time)

	// EligibleForFastPath returns true iff the measured dispersion has been
	// below the configured bound for the required number of consecutive
	// observations and no recent breach is still being held against the
	// network (hysteresis).
	EligibleForFastPath() bool

	// Stats returns a snapshot of the detector's internal state for the
	// host's inspection.
	Stats() SynchronyStats
}

// SynchronyStats is a point-in-time snapshot of the detector.
type SynchronyStats struct {
	Eligible        bool
	Dispersion      time.Duration // current windowed dispersion estimate
	WindowFill      int           // number of samples currently in the window
	StableStreak    int           // consecutive in-threshold observations
	DemoteRemaining int           // samples left until a breach is forgiven
}
