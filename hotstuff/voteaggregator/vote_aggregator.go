package voteaggregator

import (
	"runtime"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/counters"
	"github.com/altair-bft/hotstuff2/module/fifoqueue"
	"github.com/altair-bft/hotstuff2/module/irrecoverable"
)

// defaultQueueCapacity bounds the inbound queues of the aggregator.
const defaultQueueCapacity = 1000

// VoteAggregator stores votes and aggregates them into QCs when enough votes
// have been collected. It maintains one VoteCollector per in-flight view, so
// that multiple heights of the pipeline progress concurrently. Votes whose
// block has not arrived yet are cached by the view's collector.
//
// Inbound votes and blocks are queued and processed asynchronously: the
// dispatcher drains the queues and offloads the signature-heavy work to a
// worker pool. Constructed certificates re-enter the event loop through the
// OnQCCreated callback of the collectors.
type VoteAggregator struct {
	log             zerolog.Logger
	notifier        hotstuff.Consumer
	createCollector CollectorFactory

	mu                 sync.RWMutex
	collectors         map[uint64]hotstuff.VoteCollector
	lowestRetainedView counters.StrictMonotonicCounter

	queuedVotes  *fifoqueue.FifoQueue
	queuedBlocks *fifoqueue.FifoQueue
	newItems     chan struct{}

	pool *workerpool.WorkerPool
	done chan struct{}
}

// CollectorFactory creates the collector for one view.
type CollectorFactory func(view uint64) hotstuff.VoteCollector

var _ hotstuff.VoteAggregator = (*VoteAggregator)(nil)

// New creates a VoteAggregator. lowestRetainedView is the pruning watermark
// to start from (the committed view after recovery).
func New(
	log zerolog.Logger,
	notifier hotstuff.Consumer,
	lowestRetainedView uint64,
	createCollector CollectorFactory,
) *VoteAggregator {
	return &VoteAggregator{
		log:                log.With().Str("component", "vote_aggregator").Logger(),
		notifier:           notifier,
		createCollector:    createCollector,
		collectors:         make(map[uint64]hotstuff.VoteCollector),
		lowestRetainedView: counters.NewMonotonicCounter(lowestRetainedView),
		queuedVotes:        fifoqueue.NewFifoQueue(defaultQueueCapacity),
		queuedBlocks:       fifoqueue.NewFifoQueue(defaultQueueCapacity),
		newItems:           make(chan struct{}, 1),
		pool:               workerpool.New(poolSize()),
		done:               make(chan struct{}),
	}
}

func poolSize() int {
	size := runtime.NumCPU() - 1
	if size < 2 {
		size = 2
	}
	return size
}

// Start starts the dispatcher; ctx cancellation stops processing, discarding
// partially processed items.
func (a *VoteAggregator) Start(ctx irrecoverable.SignalerContext) {
	go func() {
		defer close(a.done)
		defer a.pool.StopWait()
		for {
			select {
			case <-ctx.Done():
				return
			case <-a.newItems:
				a.drainQueues(ctx)
			}
		}
	}()
}

// Done returns a channel closed once the dispatcher and workers have exited.
func (a *VoteAggregator) Done() <-chan struct{} {
	return a.done
}

func (a *VoteAggregator) drainQueues(ctx irrecoverable.SignalerContext) {
	// blocks strictly before votes, so cached votes replay into a verifying
	// collector as early as possible
	for {
		item, ok := a.queuedBlocks.Pop()
		if !ok {
			break
		}
		proposal := item.(*model.Proposal)
		a.pool.Submit(func() {
			a.processBlock(ctx, proposal)
		})
	}
	for {
		item, ok := a.queuedVotes.Pop()
		if !ok {
			break
		}
		vote := item.(*model.Vote)
		a.pool.Submit(func() {
			a.processVote(ctx, vote)
		})
	}
}

// AddVote enqueues a vote for asynchronous processing.
func (a *VoteAggregator) AddVote(vote *model.Vote) {
	if vote.View < a.lowestRetainedView.Value() {
		return
	}
	if a.queuedVotes.Push(vote) {
		a.signal()
	} else {
		a.log.Warn().Uint64("view", vote.View).Msg("vote queue full, dropping vote")
	}
}

// AddBlock enqueues a validated proposal for asynchronous processing.
func (a *VoteAggregator) AddBlock(proposal *model.Proposal) {
	if proposal.Block.View < a.lowestRetainedView.Value() {
		return
	}
	if a.queuedBlocks.Push(proposal) {
		a.signal()
	} else {
		a.log.Warn().Uint64("view", proposal.Block.View).Msg("block queue full, dropping proposal")
	}
}

// InvalidBlock notifies the aggregator that a proposal was found invalid, so
// the view's cached votes are discarded.
func (a *VoteAggregator) InvalidBlock(proposal *model.Proposal) {
	a.mu.RLock()
	collector, ok := a.collectors[proposal.Block.View]
	a.mu.RUnlock()
	if ok {
		collector.Abandon()
	}
}

// AbandonView seals the collector of the given view without building
// certificates.
func (a *VoteAggregator) AbandonView(view uint64) {
	a.mu.RLock()
	collector, ok := a.collectors[view]
	a.mu.RUnlock()
	if ok {
		collector.Abandon()
	}
}

// PruneUpToView drops all collectors strictly below the given view.
func (a *VoteAggregator) PruneUpToView(view uint64) {
	if !a.lowestRetainedView.Set(view) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for collectorView, collector := range a.collectors {
		if collectorView < view {
			collector.Abandon()
			delete(a.collectors, collectorView)
		}
	}
}

func (a *VoteAggregator) signal() {
	select {
	case a.newItems <- struct{}{}:
	default:
	}
}

func (a *VoteAggregator) processVote(ctx irrecoverable.SignalerContext, vote *model.Vote) {
	collector, ok := a.getOrCreateCollector(vote.View)
	if !ok {
		return // pruned meanwhile
	}
	err := collector.AddVote(vote)
	if err != nil {
		if model.IsInvalidVoteError(err) || model.IsDoubleVoteError(err) {
			// reported through the notifier by the collector
			a.log.Info().Err(err).Msg("vote rejected")
			return
		}
		ctx.Throw(err)
	}
}

func (a *VoteAggregator) processBlock(ctx irrecoverable.SignalerContext, proposal *model.Proposal) {
	collector, ok := a.getOrCreateCollector(proposal.Block.View)
	if !ok {
		return
	}
	err := collector.ProcessBlock(proposal)
	if err != nil {
		if model.IsDuplicateProposalError(err) {
			a.log.Warn().
				Uint64("view", proposal.Block.View).
				Hex("block_id", proposal.Block.BlockID[:]).
				Msg("duplicate proposal dropped by collector")
			return
		}
		ctx.Throw(err)
	}
}

func (a *VoteAggregator) getOrCreateCollector(view uint64) (hotstuff.VoteCollector, bool) {
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
	// re-check under lock, pruning may have advanced
	if view < a.lowestRetainedView.Value() {
		return nil, false
	}
	collector = a.createCollector(view)
	a.collectors[view] = collector
	return collector, true
}
