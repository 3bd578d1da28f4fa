package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// SafetyRules is the stateful voting rule of the replica. It tracks the
// locked QC and the last voted view, decides whether a proposal is safe to
// vote for, and produces NewView messages on timeout. All state mutations are
// persisted before the corresponding vote or NewView is returned; a replica
// that cannot persist does not vote.
//
// Not concurrency safe: owned by the single-threaded event processing.
type SafetyRules interface {
	// ProduceVote decides whether to vote for the given proposal.
	// Returns:
	//   - (vote, nil): on the first safe block for the proposal's view.
	//   - (nil, model.NoVoteError): abstain; the wrapped reason is
	//     model.ErrStaleView or model.ErrViolatesLock. Expected during
	//     normal operation.
	// All other errors are symptoms of corrupted internal state or failed
	// persistence and are fatal.
	// For fast-eligible proposals, the returned vote is the Propose-phase
	// vote; the matching fast vote is produced with ProduceFastVote.
	ProduceVote(proposal *model.Proposal, curView uint64) (*model.Vote, error)

	// ProduceFastVote produces the FastCommit-phase companion vote for a
	// proposal that ProduceVote already accepted in the same view. It does
	// not advance LastVotedView again; voting fast for a block that was not
	// regularly voted for is an error.
	ProduceFastVote(proposal *model.Proposal, curView uint64) (*model.Vote, error)

	// ProduceNewView decides whether to sign a NewView message abandoning
	// curView, carrying the given newest QC.
	// Returns:
	//   - (msg, nil): the signed NewView message for view curView+1.
	//   - (nil, model.NoTimeoutError): not safe to time out (sentinel).
	// All other errors are fatal.
	ProduceNewView(curView uint64, newestQC *model.QuorumCertificate) (*model.NewViewMsg, error)

	// ObserveQC lets the safety module track certificate formation: the lock
	// advances to the first QC of every consecutive pair observed.
	ObserveQC(qc *model.QuorumCertificate, certifiedBlock *model.Block) error

	// LockedQC returns the QC the replica currently defends (nil until the
	// first lock is taken; genesis is implicitly protected).
	LockedQC() *model.QuorumCertificate

	// Violations returns the bounded journal of rejected voting attempts,
	// newest last. For operator inspection; not part of the voting rule.
	Violations() []model.NoVoteError
}
