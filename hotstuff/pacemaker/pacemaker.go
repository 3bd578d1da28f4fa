package pacemaker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/hotstuff/pacemaker/timeout"
)

// ActivePaceMaker implements hotstuff.PaceMaker. It is an aggressive
// pacemaker: any certificate for the current or a newer view advances the
// replica immediately (fast-forward), while the timeout backoff grows
// exponentially under sustained failure and resets on commit. Progress is
// defined as entering view V for which the replica knows a QC with
// V = QC.View + 1.
//
// Liveness data is persisted before the new view becomes observable.
type ActivePaceMaker struct {
	ctx            context.Context
	timeoutControl *timeout.Controller
	notifier       hotstuff.Consumer
	persist        hotstuff.Persister
	livenessData   *model.LivenessData
	started        *atomic.Bool
}

var _ hotstuff.PaceMaker = (*ActivePaceMaker)(nil)

// New creates a new ActivePaceMaker instance, recovering the liveness data
// from the persister. ctx bounds the lifetime of timeout tickers.
func New(
	ctx context.Context,
	timeoutController *timeout.Controller,
	notifier hotstuff.Consumer,
	persist hotstuff.Persister,
) (*ActivePaceMaker, error) {
	livenessData, err := persist.GetLivenessData()
	if err != nil {
		return nil, fmt.Errorf("could not recover liveness data: %w", err)
	}
	if livenessData.CurrentView < 1 {
		return nil, model.NewConfigurationErrorf("PaceMaker cannot start in view 0 (view 0 is reserved for genesis)")
	}
	return &ActivePaceMaker{
		ctx:            ctx,
		timeoutControl: timeoutController,
		notifier:       notifier,
		persist:        persist,
		livenessData:   livenessData,
		started:        atomic.NewBool(false),
	}, nil
}

// updateLivenessData advances the current view. The calling code guarantees
// that view numbers are strictly monotonically increasing; this method
// panics as a last resort if a future modification violates that.
func (p *ActivePaceMaker) updateLivenessData(newView uint64, qc *model.QuorumCertificate, tc *model.TimeoutCertificate) error {
	if newView <= p.livenessData.CurrentView {
		panic(fmt.Sprintf("cannot move from view %d to %d: currentView must be strictly monotonically increasing",
			p.livenessData.CurrentView, newView))
	}

	p.livenessData.CurrentView = newView
	if qc != nil && (p.livenessData.NewestQC == nil || p.livenessData.NewestQC.View < qc.View) {
		p.livenessData.NewestQC = qc
	}
	p.livenessData.LastViewTC = tc
	err := p.persist.PutLivenessData(p.livenessData)
	if err != nil {
		return fmt.Errorf("could not persist liveness data: %w", err)
	}

	timerInfo := p.timeoutControl.StartTimeout(p.ctx, newView)
	p.notifier.OnStartingTimeout(timerInfo)
	return nil
}

// CurView returns the current view.
func (p *ActivePaceMaker) CurView() uint64 {
	return p.livenessData.CurrentView
}

// NewestQC returns the QC with the highest view discovered so far.
func (p *ActivePaceMaker) NewestQC() *model.QuorumCertificate {
	return p.livenessData.NewestQC
}

// LastViewTC returns the TC for the last view; nil if the previous view
// ended with a QC.
func (p *ActivePaceMaker) LastViewTC() *model.TimeoutCertificate {
	return p.livenessData.LastViewTC
}

// TimeoutChannel returns the timeout channel for the current active timeout.
// The channel is replaced on every view change.
func (p *ActivePaceMaker) TimeoutChannel() <-chan time.Time {
	return p.timeoutControl.Channel()
}

// ProcessQC notifies the pacemaker of a new QC. A certificate for the
// current or a newer view proves that a supermajority has advanced past the
// current view, so the replica skips ahead to qc.View + 1.
func (p *ActivePaceMaker) ProcessQC(qc *model.QuorumCertificate) (*model.NewViewEvent, error) {
	if qc == nil || qc.View < p.CurView() {
		return nil, nil
	}

	p.timeoutControl.OnProgressBeforeTimeout()

	newView := qc.View + 1
	err := p.updateLivenessData(newView, qc, nil)
	if err != nil {
		return nil, err
	}

	p.notifier.OnQcTriggeredViewChange(qc, newView)
	return &model.NewViewEvent{View: newView}, nil
}

// ProcessTC notifies the pacemaker of a TC, entering tc.View + 1 and
// adopting the TC's newest QC if it beats our own.
func (p *ActivePaceMaker) ProcessTC(tc *model.TimeoutCertificate) (*model.NewViewEvent, error) {
	if tc == nil || tc.View < p.CurView() {
		return nil, nil
	}

	p.timeoutControl.OnTimeout()

	newView := tc.View + 1
	err := p.updateLivenessData(newView, tc.NewestQC, tc)
	if err != nil {
		return nil, err
	}

	p.notifier.OnTcTriggeredViewChange(tc, newView)
	return &model.NewViewEvent{View: newView}, nil
}

// OnPartialNewView fires the local timeout immediately when f+1 replicas
// have provably abandoned the current view.
func (p *ActivePaceMaker) OnPartialNewView(view uint64) {
	if p.CurView() == view {
		p.timeoutControl.TriggerTimeout()
	}
}

// OnProgress resets the timeout backoff after a commit.
func (p *ActivePaceMaker) OnProgress() {
	p.timeoutControl.OnCommit()
}

// Start starts the pacemaker's timer for the current view.
func (p *ActivePaceMaker) Start() {
	if p.started.Swap(true) {
		return
	}
	timerInfo := p.timeoutControl.StartTimeout(p.ctx, p.CurView())
	p.notifier.OnStartingTimeout(timerInfo)
}
