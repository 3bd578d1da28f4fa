package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// BlockProducer builds a new block proposal on top of the block certified by
// the given QC, pulling the body from the mempool collaborator and signing
// the proposal. Used only when this replica is the leader of the view.
type BlockProducer interface {
	// MakeBlockProposal builds the proposal for the given view, justified by
	// qc. lastViewTC must be attached when qc is not for view-1.
	MakeBlockProposal(qc *model.QuorumCertificate, view uint64, lastViewTC *model.TimeoutCertificate, fastEligible bool) (*model.Proposal, error)
}

// Executor is the application state machine contract. ExecuteCommitted is
// called for every committed block, in strict height order.
type Executor interface {
	// ExecuteCommitted applies the committed block's body and returns the
	// resulting state root.
	ExecuteCommitted(block *model.Block) (model.Identifier, error)
}

// Communicator abstracts the transport owned by the host. Sends are
// best-effort with no delivery guarantee; messages for the same destination
// are handed to the transport in the order produced.
type Communicator interface {
	// BroadcastProposal sends the proposal to all other committee members.
	BroadcastProposal(proposal *model.Proposal) error

	// SendVote sends a vote to the leader collecting votes for its view.
	SendVote(vote *model.Vote, recipientID model.Identifier) error

	// BroadcastNewView sends a NewView message to all other members.
	BroadcastNewView(msg *model.NewViewMsg) error
}
