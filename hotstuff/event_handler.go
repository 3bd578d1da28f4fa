package hotstuff

import (
	"time"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// EventHandler runs the replica's protocol state machine. It exposes an API
// to process one event at a time synchronously; the event loop is
// responsible for serializing calls. The handler never reentrantly mutates
// state from a callback: certificates built by the aggregators re-enter
// through the On*Constructed methods.
type EventHandler interface {
	// OnReceiveProposal processes a validated block proposal: store it,
	// incorporate its justification, vote if safe.
	OnReceiveProposal(proposal *model.Proposal) error

	// OnQCConstructed processes a QC built by our own vote aggregator.
	OnQCConstructed(qc *model.QuorumCertificate) error

	// OnTCConstructed processes a TC built by our timeout aggregator or
	// observed from a peer.
	OnTCConstructed(tc *model.TimeoutCertificate) error

	// OnLocalTimeout is called when the view timer has fired: produce and
	// broadcast a NewView message.
	OnLocalTimeout() error

	// OnPartialNewView is called when f+1 NewView messages for the given
	// view have been observed.
	OnPartialNewView(view uint64) error

	// TimeoutChannel returns the pacemaker's channel for the active timeout.
	TimeoutChannel() <-chan time.Time

	// Start initializes the pacemaker timer and performs the initial view
	// entry (proposing if this replica leads the current view).
	Start() error
}

// Validator performs the structural and cryptographic checks on inbound
// messages before they reach the event handler: signature verification,
// certificate thresholds, justification consistency, leader correctness.
// Concurrency safe; may be executed on the verification worker pool.
type Validator interface {
	// ValidateProposal checks a decoded proposal end to end.
	// Expected errors during normal operation:
	//   - model.InvalidProposalError (wrapping the specific cause)
	//   - model.ErrUnverifiableBlock if the justification is below pruning
	ValidateProposal(proposal *model.Proposal) error

	// ValidateVote checks a vote's shape and partial signature.
	// Expected: model.InvalidVoteError.
	ValidateVote(vote *model.Vote) error

	// ValidateNewView checks a NewView message and its embedded high QC.
	// Expected: model.InvalidNewViewError.
	ValidateNewView(msg *model.NewViewMsg) error

	// ValidateQC checks a stand-alone QC at the regular or fast threshold,
	// depending on the certificate's phase.
	ValidateQC(qc *model.QuorumCertificate) error

	// ValidateTC checks a timeout certificate.
	ValidateTC(tc *model.TimeoutCertificate) error
}
