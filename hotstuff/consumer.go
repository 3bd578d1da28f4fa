package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// FinalizationConsumer consumes outcomes of the commit logic. Callbacks are
// invoked in strict height order with no gaps, after the commit watermark was
// persisted. Implementations must be non-blocking and concurrency safe.
type FinalizationConsumer interface {
	// OnBlockIncorporated is invoked when a valid block was added to the
	// block store.
	OnBlockIncorporated(block *model.Block)

	// OnCommittedBlock is invoked when a block is committed, either through
	// the two-consecutive-QC rule or through a fast-commit certificate.
	OnCommittedBlock(block *model.Block)
}

// ProtocolViolationConsumer consumes evidence of Byzantine behavior observed
// by the engine. Implementations must be non-blocking and concurrency safe.
type ProtocolViolationConsumer interface {
	// OnDoubleVotingDetected is invoked when an equivocation pair is
	// observed: two votes from one signer for the same (view, phase) on
	// different blocks. Both votes are the retained evidence.
	OnDoubleVotingDetected(firstVote *model.Vote, conflictingVote *model.Vote)

	// OnDoubleProposeDetected is invoked when a leader proposed two
	// different blocks for the same view.
	OnDoubleProposeDetected(firstBlock *model.Block, conflictingBlock *model.Block)

	// OnDoubleNewViewDetected is invoked when a replica signed two different
	// NewView messages for the same view.
	OnDoubleNewViewDetected(firstMsg *model.NewViewMsg, conflictingMsg *model.NewViewMsg)

	// OnInvalidMessageDetected is invoked when a message carrying an invalid
	// signature or malformed content was received from a committee member.
	OnInvalidMessageDetected(originID model.Identifier, err error)
}

// Consumer consumes outbound notifications produced by the consensus engine.
// Notifications are guaranteed to be delivered at least once; they are
// emitted synchronously from the event loop, so implementations must be
// non-blocking.
type Consumer interface {
	FinalizationConsumer
	ProtocolViolationConsumer

	// OnEventProcessed is invoked when the event handler has finished
	// processing one event from the serial stream.
	OnEventProcessed()

	// OnEnteringView is invoked when the replica enters a new view.
	OnEnteringView(viewNumber uint64, leader model.Identifier)

	// OnReceiveProposal is invoked when a proposal enters the event handler.
	OnReceiveProposal(currentView uint64, proposal *model.Proposal)

	// OnQcConstructedFromVotes is invoked by the vote aggregator when enough
	// votes accumulated into a certificate.
	OnQcConstructedFromVotes(qc *model.QuorumCertificate)

	// OnFastQcConstructed is invoked when the fast-commit bucket reached its
	// threshold.
	OnFastQcConstructed(qc *model.QuorumCertificate)

	// OnTcConstructed is invoked by the timeout aggregator when a timeout
	// certificate was formed.
	OnTcConstructed(tc *model.TimeoutCertificate)

	// OnQcTriggeredViewChange is invoked when a QC causes the pacemaker to
	// fast-forward past the current view.
	OnQcTriggeredViewChange(qc *model.QuorumCertificate, newView uint64)

	// OnTcTriggeredViewChange is invoked when a TC causes a view change.
	OnTcTriggeredViewChange(tc *model.TimeoutCertificate, newView uint64)

	// OnStartingTimeout is invoked when the pacemaker arms the timeout for a
	// view.
	OnStartingTimeout(info model.TimerInfo)

	// OnLocalTimeout is invoked when the view timer fires without progress.
	OnLocalTimeout(currentView uint64)

	// OnProposingBlock is invoked when this replica, as leader, broadcasts a
	// proposal.
	OnProposingBlock(proposal *model.Proposal)

	// OnVoting is invoked when this replica emits a vote. For fast-eligible
	// proposals the callback fires once per emitted vote (regular and fast).
	OnVoting(vote *model.Vote)

	// OnFastPathEligibilityChanged is invoked when the synchrony detector
	// changes its fast-path verdict.
	OnFastPathEligibilityChanged(eligible bool)
}
