package voteaggregator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/helper"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/irrecoverable"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

// stubCollector records the traffic routed to it by the aggregator.
type stubCollector struct {
	view uint64

	mu        sync.Mutex
	votes     []*model.Vote
	proposals []*model.Proposal
	abandoned bool
}

var _ hotstuff.VoteCollector = (*stubCollector)(nil)

func (c *stubCollector) ProcessBlock(proposal *model.Proposal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proposals = append(c.proposals, proposal)
	return nil
}

func (c *stubCollector) AddVote(vote *model.Vote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.votes = append(c.votes, vote)
	return nil
}

func (c *stubCollector) View() uint64 { return c.view }

func (c *stubCollector) Status() hotstuff.VoteCollectorStatus {
	return hotstuff.VoteCollectorStatusVerifying
}

func (c *stubCollector) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandoned = true
}

func (c *stubCollector) voteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.votes)
}

func (c *stubCollector) proposalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.proposals)
}

func (c *stubCollector) isAbandoned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.abandoned
}

type aggregatorSetup struct {
	aggregator *VoteAggregator

	mu         sync.Mutex
	collectors map[uint64]*stubCollector
}

func newAggregatorSetup(t *testing.T, lowestRetainedView uint64) *aggregatorSetup {
	s := &aggregatorSetup{collectors: make(map[uint64]*stubCollector)}
	s.aggregator = New(unittest.Logger(), helper.NewRecordingConsumer(), lowestRetainedView,
		func(view uint64) hotstuff.VoteCollector {
			s.mu.Lock()
			defer s.mu.Unlock()
			collector := &stubCollector{view: view}
			s.collectors[view] = collector
			return collector
		})

	signaler, _ := irrecoverable.NewSignaler()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s.aggregator.Start(irrecoverable.WithSignaler(ctx, signaler))
	return s
}

func (s *aggregatorSetup) collector(view uint64) *stubCollector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectors[view]
}

func voteAtView(view uint64) *model.Vote {
	return &model.Vote{
		View:     view,
		Phase:    model.PhasePropose,
		BlockID:  unittest.IdentifierFixture(),
		SignerID: unittest.IdentifierFixture(),
		SigData:  unittest.SeedFixture(48),
	}
}

func TestVotesAndBlocksReachTheirCollector(t *testing.T) {
	s := newAggregatorSetup(t, 0)

	genesis, rootQC := helper.TrustedRoot()
	proposal := helper.MakeProposal(helper.MakeBlock(genesis, 2, unittest.IdentifierFixture(), rootQC))
	s.aggregator.AddBlock(proposal)
	s.aggregator.AddVote(voteAtView(2))
	s.aggregator.AddVote(voteAtView(2))

	unittest.AssertEventuallyTrue(t, func() bool {
		collector := s.collector(2)
		return collector != nil && collector.proposalCount() == 1 && collector.voteCount() == 2
	}, time.Second, "traffic did not reach the collector")
}

func TestVotesBelowWatermarkAreDropped(t *testing.T) {
	s := newAggregatorSetup(t, 5)

	s.aggregator.AddVote(voteAtView(4))
	time.Sleep(50 * time.Millisecond)
	require.Nil(t, s.collector(4))
}

func TestPruneAbandonsOldCollectors(t *testing.T) {
	s := newAggregatorSetup(t, 0)

	s.aggregator.AddVote(voteAtView(1))
	s.aggregator.AddVote(voteAtView(3))
	unittest.AssertEventuallyTrue(t, func() bool {
		return s.collector(1) != nil && s.collector(3) != nil
	}, time.Second, "collectors not created")

	s.aggregator.PruneUpToView(2)
	require.True(t, s.collector(1).isAbandoned())
	require.False(t, s.collector(3).isAbandoned())

	// late votes for the pruned view are rejected at the door
	s.aggregator.AddVote(voteAtView(1))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, s.collector(1).voteCount())
}

func TestAbandonView(t *testing.T) {
	s := newAggregatorSetup(t, 0)

	s.aggregator.AddVote(voteAtView(2))
	unittest.AssertEventuallyTrue(t, func() bool {
		return s.collector(2) != nil
	}, time.Second, "collector not created")

	s.aggregator.AbandonView(2)
	require.True(t, s.collector(2).isAbandoned())
}
