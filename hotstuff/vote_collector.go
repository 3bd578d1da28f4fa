package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/irrecoverable"
)

// OnQCCreated is the callback through which a vote collector submits a newly
// constructed certificate, regular or fast, for further processing.
type OnQCCreated func(*model.QuorumCertificate)

// VoteCollectorStatus indicates the VoteCollector's status.
type VoteCollectorStatus int

const (
	// VoteCollectorStatusCaching: the block has not been received yet; votes
	// are cached without verification.
	VoteCollectorStatusCaching VoteCollectorStatus = iota

	// VoteCollectorStatusVerifying: the proposal has been received; votes
	// are verified and accumulated into certificates.
	VoteCollectorStatusVerifying

	// VoteCollectorStatusAbandoned: the view was abandoned via view change;
	// late votes are dropped.
	VoteCollectorStatusAbandoned
)

var collectorStatusNames = [...]string{"caching", "verifying", "abandoned"}

func (ps VoteCollectorStatus) String() string {
	if ps < 0 || int(ps) >= len(collectorStatusNames) {
		return "UNKNOWN"
	}
	return collectorStatusNames[ps]
}

// VoteCollector collects all votes for one view. It maintains one bucket per
// (phase, block) pair; on the happy path there is exactly one block and two
// buckets, regular and fast. On reaching a threshold, the corresponding
// certificate is built exactly once and the bucket sealed; late votes are
// dropped. Byzantine edge cases (duplicate signer, equivocation) are handled
// internally and reported through the violation consumer.
//
// Concurrency safe: fed by the vote aggregator's worker pool.
type VoteCollector interface {
	// ProcessBlock transitions the collector from caching to verifying using
	// the given validated proposal, replays cached votes, and seeds the
	// regular bucket with the proposer's embedded vote.
	// Expected errors during normal operation:
	//   - model.DuplicateProposalError if a different proposal was already processed
	ProcessBlock(proposal *model.Proposal) error

	// AddVote adds a vote to the collector. Votes for a view other than the
	// collector's are rejected as an exception. Expected sentinel errors:
	//   - model.InvalidVoteError for bad signatures
	//   - model.DoubleVoteError for equivocating votes (evidence attached)
	// Duplicates from the same signer are dropped silently.
	AddVote(vote *model.Vote) error

	// View returns the view this collector is collecting votes for.
	View() uint64

	// Status returns the current status of the collector.
	Status() VoteCollectorStatus

	// Abandon seals all buckets without building certificates; invoked on
	// view change for the abandoned view.
	Abandon()
}

// VoteAggregator verifies and aggregates votes across the pipeline of
// in-flight views. It owns a collector per view, buffers votes arriving
// before their block, routes equivocation evidence, and prunes collectors
// below the committed boundary.
//
// Concurrency safe; vote processing happens asynchronously on worker
// goroutines, certificates re-enter the event loop through OnQCCreated.
type VoteAggregator interface {
	// Start starts the aggregator's worker routines.
	Start(ctx irrecoverable.SignalerContext)

	// Done returns a channel closed once all workers have exited.
	Done() <-chan struct{}

	// AddVote enqueues a vote for asynchronous processing. Votes for pruned
	// views are dropped.
	AddVote(vote *model.Vote)

	// AddBlock enqueues a validated proposal so the collector for its view
	// can transition to verifying. The proposal's embedded proposer vote is
	// counted.
	AddBlock(proposal *model.Proposal)

	// InvalidBlock notifies the aggregator that a proposal was found invalid
	// so it can discard the view's cached votes.
	InvalidBlock(proposal *model.Proposal)

	// AbandonView seals the collector of the given view without building
	// certificates; invoked when the view is abandoned through a TC.
	AbandonView(view uint64)

	// PruneUpToView drops all collectors and cached votes strictly below the
	// given view.
	PruneUpToView(view uint64)
}
