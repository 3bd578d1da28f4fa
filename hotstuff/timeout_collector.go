package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/irrecoverable"
)

// OnTCCreated is the callback through which a timeout collector submits a
// newly constructed timeout certificate.
type OnTCCreated func(*model.TimeoutCertificate)

// OnPartialTCCreated is invoked when f+1 NewView messages for one view have
// accumulated, proving at least one honest replica abandoned it. The
// pacemaker uses this to time out early and keep honest replicas together.
type OnPartialTCCreated func(view uint64)

// TimeoutCollector collects NewView messages for one view transition. On
// accumulating 2f+1 distinct signers, it aggregates their signatures into a
// TC carrying the newest QC among all contributors. TC construction is
// single-shot; late NewView messages are dropped.
//
// Concurrency safe: fed by the timeout aggregator's workers.
type TimeoutCollector interface {
	// AddNewView adds a NewView message to the collector. Expected sentinel
	// errors during normal operation:
	//   - model.InvalidNewViewError for bad signatures
	//   - model.DoubleNewViewError for equivocating NewView messages
	// Duplicates from the same signer are dropped silently.
	AddNewView(msg *model.NewViewMsg) error

	// View returns the view this collector aggregates NewView messages for.
	View() uint64
}

// TimeoutAggregator verifies and aggregates NewView messages across views,
// analogous to the VoteAggregator for votes.
type TimeoutAggregator interface {
	// Start starts the aggregator's worker routines.
	Start(ctx irrecoverable.SignalerContext)

	// Done returns a channel closed once all workers have exited.
	Done() <-chan struct{}

	// AddNewView enqueues a NewView message for asynchronous processing.
	AddNewView(msg *model.NewViewMsg)

	// PruneUpToView drops all collectors strictly below the given view.
	PruneUpToView(view uint64)
}
