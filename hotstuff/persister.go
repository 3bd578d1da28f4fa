package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Persister persists the safety-critical and liveness state of the replica
// with fsync semantics. Writes must be durable before the caller releases
// any message derived from the written state: SafetyRules persists before
// returning a vote, the PaceMaker persists before entering a view. A failed
// write is fatal for the replica.
type Persister interface {
	// GetSafetyData recovers the last persisted safety data at startup.
	GetSafetyData() (*model.SafetyData, error)

	// PutSafetyData persists the safety data, fsynced.
	PutSafetyData(safetyData *model.SafetyData) error

	// GetLivenessData recovers the last persisted liveness data at startup.
	GetLivenessData() (*model.LivenessData, error)

	// PutLivenessData persists the liveness data, fsynced.
	PutLivenessData(livenessData *model.LivenessData) error
}
