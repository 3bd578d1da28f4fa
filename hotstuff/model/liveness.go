package model

import "time"

// SafetyData is the safety-critical state of the voting rules. It is
// persisted with fsync semantics before any vote or NewView message derived
// from it leaves the replica. A replica that cannot persist must not vote.
type SafetyData struct {
	// LockedQC is the highest QC this replica has committed to protect.
	// Initially the genesis QC surrogate (nil means genesis).
	LockedQC *QuorumCertificate
	// LastVotedView is strictly monotonic across all votes emitted, in any
	// phase.
	LastVotedView uint64
	// LastTimeoutView is the highest view for which a NewView message was
	// signed; prevents equivocating timeouts after a crash.
	LastTimeoutView uint64
}

// LivenessData is the pacemaker's persisted state. CurrentView is monotonic;
// NewestQC is the highest QC observed (high_qc ≥ locked_qc by construction,
// since locks are only taken on observed QCs).
type LivenessData struct {
	CurrentView uint64
	NewestQC    *QuorumCertificate
	LastViewTC  *TimeoutCertificate // nil if the previous view ended with a QC
}

// TimerInfo represents a time period that the pacemaker is waiting for a
// specific event in the current view.
type TimerInfo struct {
	View      uint64
	StartTime time.Time
	Duration  time.Duration
}

// NewViewEvent indicates that the pacemaker has entered View.
type NewViewEvent struct {
	View uint64
}
