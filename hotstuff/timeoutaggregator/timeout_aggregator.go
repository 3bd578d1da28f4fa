package timeoutaggregator

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/counters"
	"github.com/altair-bft/hotstuff2/module/fifoqueue"
	"github.com/altair-bft/hotstuff2/module/irrecoverable"
)

// defaultQueueCapacity bounds the inbound NewView queue.
const defaultQueueCapacity = 300

// TimeoutAggregator verifies and aggregates NewView messages across views,
// maintaining one TimeoutCollector per view transition. Messages are queued
// and processed asynchronously; constructed TCs re-enter the event loop
// through the collector's callback.
type TimeoutAggregator struct {
	log             zerolog.Logger
	createCollector CollectorFactory

	mu                 sync.RWMutex
	collectors         map[uint64]hotstuff.TimeoutCollector
	lowestRetainedView counters.StrictMonotonicCounter

	queuedMsgs *fifoqueue.FifoQueue
	newItems   chan struct{}
	done       chan struct{}
}

// CollectorFactory creates the collector for NewView messages entering one
// view.
type CollectorFactory func(view uint64) hotstuff.TimeoutCollector

var _ hotstuff.TimeoutAggregator = (*TimeoutAggregator)(nil)

// New creates a TimeoutAggregator.
func New(
	log zerolog.Logger,
	lowestRetainedView uint64,
	createCollector CollectorFactory,
) *TimeoutAggregator {
	return &TimeoutAggregator{
		log:                log.With().Str("component", "timeout_aggregator").Logger(),
		createCollector:    createCollector,
		collectors:         make(map[uint64]hotstuff.TimeoutCollector),
		lowestRetainedView: counters.NewMonotonicCounter(lowestRetainedView),
		queuedMsgs:         fifoqueue.NewFifoQueue(defaultQueueCapacity),
		newItems:           make(chan struct{}, 1),
		done:               make(chan struct{}),
	}
}

// Start starts the processing loop.
func (a *TimeoutAggregator) Start(ctx irrecoverable.SignalerContext) {
	go func() {
		defer close(a.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-a.newItems:
				a.drainQueue(ctx)
			}
		}
	}()
}

// Done returns a channel closed once the processing loop has exited.
func (a *TimeoutAggregator) Done() <-chan struct{} {
	return a.done
}

// AddNewView enqueues a NewView message for asynchronous processing.
func (a *TimeoutAggregator) AddNewView(msg *model.NewViewMsg) {
	if msg.View < a.lowestRetainedView.Value() {
		return
	}
	if a.queuedMsgs.Push(msg) {
		select {
		case a.newItems <- struct{}{}:
		default:
		}
	} else {
		a.log.Warn().Uint64("view", msg.View).Msg("NewView queue full, dropping message")
	}
}

// PruneUpToView drops all collectors strictly below the given view.
func (a *TimeoutAggregator) PruneUpToView(view uint64) {
	if !a.lowestRetainedView.Set(view) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for collectorView := range a.collectors {
		if collectorView < view {
			delete(a.collectors, collectorView)
		}
	}
}

func (a *TimeoutAggregator) drainQueue(ctx irrecoverable.SignalerContext) {
	for {
		item, ok := a.queuedMsgs.Pop()
		if !ok {
			return
		}
		msg := item.(*model.NewViewMsg)
		a.processNewView(ctx, msg)
	}
}

func (a *TimeoutAggregator) processNewView(ctx irrecoverable.SignalerContext, msg *model.NewViewMsg) {
	collector, ok := a.getOrCreateCollector(msg.View)
	if !ok {
		return
	}
	err := collector.AddNewView(msg)
	if err != nil {
		if model.IsInvalidNewViewError(err) || model.IsDoubleNewViewError(err) {
			a.log.Info().Err(err).Msg("NewView rejected")
			return
		}
		ctx.Throw(err)
	}
}

func (a *TimeoutAggregator) getOrCreateCollector(view uint64) (hotstuff.TimeoutCollector, bool) {
	if view < a.lowestRetainedView.Value() {
		return nil, false
	}

	a.mu.RLock()
	collector, ok := a.collectors[view]
	a.mu.RUnlock()
	if ok {
		return collector, true
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if collector, ok = a.collectors[view]; ok {
		return collector, true
	}
	if view < a.lowestRetainedView.Value() {
		return nil, false
	}
	collector = a.createCollector(view)
	a.collectors[view] = collector
	return collector, true
}
