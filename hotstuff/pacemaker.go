package hotstuff

import (
	"time"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// PaceMaker for the consensus engine. It is responsible for advancing views
// and emitting local timeouts. The replica is either in a view (waiting for
// the leader's proposal or for votes) or transitioning between views after a
// timeout. A view change is triggered by observing a QC or TC for the
// current or a newer view; views are strictly monotonically increasing.
//
// Not concurrency safe: the PaceMaker is owned by the single-threaded event
// processing.
type PaceMaker interface {

	// CurView returns the current view.
	CurView() uint64

	// NewestQC returns the QC with the highest view known to the pacemaker.
	NewestQC() *model.QuorumCertificate

	// LastViewTC returns the TC for the previous view; nil if the previous
	// view ended with a QC.
	LastViewTC() *model.TimeoutCertificate

	// ProcessQC notifies the pacemaker of a new QC, which might cause it to
	// fast-forward its view. Implements the spec rule: any valid QC with
	// view ≥ current advances the current view to qc.View + 1.
	ProcessQC(qc *model.QuorumCertificate) (*model.NewViewEvent, error)

	// ProcessTC notifies the pacemaker of a TC, entering tc.View + 1 if the
	// TC is not stale. Passing nil is a no-op.
	ProcessTC(tc *model.TimeoutCertificate) (*model.NewViewEvent, error)

	// OnPartialNewView notifies the pacemaker that f+1 replicas have already
	// abandoned the given view. If it matches the current view, the local
	// timeout fires immediately (bridging), keeping honest replicas together.
	OnPartialNewView(view uint64)

	// OnProgress informs the timeout schedule that a block was committed, so
	// the backoff resets to the base timeout.
	OnProgress()

	// TimeoutChannel returns the channel that fires for the active timeout.
	// A new channel is created for each view.
	TimeoutChannel() <-chan time.Time

	// Start starts the timeout for the current view.
	Start()
}
