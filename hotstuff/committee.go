package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Replicas provides the fixed consensus committee: membership, canonical
// ordering, and leader selection. The committee does not change for the
// lifetime of the engine; safety is independent of the rotation function as
// long as it is deterministic and known to all replicas.
//
// Implementations are immutable after construction and concurrency safe.
type Replicas interface {
	// Identities returns the committee in canonical order.
	Identities() model.IdentityList

	// IdentityByID returns the committee member with the given node ID.
	// Returns model.InvalidSignerError if the node is not a member.
	IdentityByID(nodeID model.Identifier) (*model.Identity, error)

	// IdentitiesByIndices resolves a decoded signer-index list to
	// identities. Returns model.InvalidSignerError for out-of-range indices.
	IdentitiesByIndices(indices []int) (model.IdentityList, error)

	// LeaderForView returns the node ID of the leader for the given view.
	LeaderForView(view uint64) (model.Identifier, error)

	// Self returns this replica's own node ID.
	Self() model.Identifier

	// Size returns n, the number of committee members.
	Size() int

	// QuorumThreshold returns the signer count required for a regular QC or
	// TC (2f+1).
	QuorumThreshold() int

	// FastThreshold returns the signer count required for a FastQC under the
	// configured fast-threshold policy.
	FastThreshold() int
}

// LeaderRotation maps a view to the index of its leader in the canonical
// committee ordering. The default is round-robin; alternative deterministic
// rotations can be plugged in without affecting safety.
type LeaderRotation interface {
	LeaderIndexForView(view uint64, committeeSize int) int
}
