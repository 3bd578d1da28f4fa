package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/forks"
	"github.com/altair-bft/hotstuff2/hotstuff/helper"
	"github.com/altair-bft/hotstuff2/hotstuff/mocks"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/hotstuff/pacemaker"
	"github.com/altair-bft/hotstuff2/hotstuff/pacemaker/timeout"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

type handlerSetup struct {
	fixture       *helper.CommitteeFixture
	selfIndex     int
	handler       *EventHandler
	forks         *forks.Forks
	paceMaker     *pacemaker.ActivePaceMaker
	blockProducer *mocks.BlockProducer
	communicator  *mocks.Communicator
	voteAgg       *mocks.VoteAggregator
	timeoutAgg    *mocks.TimeoutAggregator
	safetyRules   *mocks.SafetyRules
	detector      *mocks.SynchronyDetector
	consumer      *mocks.Consumer
	genesis       *model.Block
	rootQC        *model.QuorumCertificate
}

// newHandlerSetup wires an event handler around a real pacemaker and real
// forks, with mocked collaborators. selfIndex picks which committee member
// this replica is; view 1 is led by member 1 under round-robin.
func newHandlerSetup(t *testing.T, selfIndex int) *handlerSetup {
	fixture := helper.NewCommitteeFixture(t, 4)
	committee := fixture.Committee(t, selfIndex, hotstuff.FastThresholdStrictAllHonest)
	genesis, rootQC := helper.TrustedRoot()

	consumer := mocks.NewConsumer(t)
	consumer.On("OnStartingTimeout", mock.Anything).Maybe()
	consumer.On("OnEventProcessed").Maybe()
	consumer.On("OnEnteringView", mock.Anything, mock.Anything).Maybe()
	consumer.On("OnReceiveProposal", mock.Anything, mock.Anything).Maybe()
	consumer.On("OnBlockIncorporated", mock.Anything).Maybe()
	consumer.On("OnCommittedBlock", mock.Anything).Maybe()
	consumer.On("OnLocalTimeout", mock.Anything).Maybe()

	persist := helper.NewFakePersister(rootQC)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := timeout.DefaultConfig()
	cfg.BaseTimeout = time.Hour // timers do not interfere with these tests
	paceMaker, err := pacemaker.New(ctx, timeout.NewController(cfg), consumer, persist)
	require.NoError(t, err)

	forksInst, err := forks.New(unittest.Logger(), consumer, genesis, rootQC, 2,
		helper.NewFakeBlocks(), helper.NewFakeQCs(), helper.NewFakeCommitted())
	require.NoError(t, err)

	s := &handlerSetup{
		fixture:       fixture,
		selfIndex:     selfIndex,
		forks:         forksInst,
		paceMaker:     paceMaker,
		blockProducer: mocks.NewBlockProducer(t),
		communicator:  mocks.NewCommunicator(t),
		voteAgg:       mocks.NewVoteAggregator(t),
		timeoutAgg:    mocks.NewTimeoutAggregator(t),
		safetyRules:   mocks.NewSafetyRules(t),
		detector:      mocks.NewSynchronyDetector(t),
		consumer:      consumer,
		genesis:       genesis,
		rootQC:        rootQC,
	}
	s.voteAgg.On("PruneUpToView", mock.Anything).Maybe()
	s.timeoutAgg.On("PruneUpToView", mock.Anything).Maybe()

	s.handler, err = NewEventHandler(
		unittest.Logger(), paceMaker, s.blockProducer, forksInst, s.communicator,
		committee, s.voteAgg, s.timeoutAgg, s.safetyRules, s.detector, consumer, 3,
	)
	require.NoError(t, err)
	return s
}

// proposalForView builds a signed proposal for the given view on top of
// genesis by the view's round-robin leader.
func (s *handlerSetup) proposalForView(t *testing.T, view uint64) *model.Proposal {
	leader := s.fixture.LeaderIndex(view)
	block := helper.MakeBlock(s.genesis, view, s.fixture.NodeID(leader), s.rootQC)
	return s.fixture.SignProposal(t, leader, block, false, nil)
}

func (s *handlerSetup) voteFor(proposal *model.Proposal, phase model.Phase) *model.Vote {
	return &model.Vote{
		View:     proposal.Block.View,
		Phase:    phase,
		BlockID:  proposal.Block.BlockID,
		SignerID: s.fixture.NodeID(s.selfIndex),
		SigData:  unittest.SeedFixture(48),
	}
}

func TestReplicaVotesForCurrentViewProposal(t *testing.T) {
	s := newHandlerSetup(t, 0) // member 0 is not the leader of views 1 or 2
	proposal := s.proposalForView(t, 1)
	vote := s.voteFor(proposal, model.PhasePropose)

	s.voteAgg.On("AddBlock", proposal).Once()
	s.safetyRules.On("ObserveQC", proposal.Block.QC, mock.Anything).Return(nil).Once()
	s.safetyRules.On("ProduceVote", proposal, uint64(1)).Return(vote, nil).Once()
	s.consumer.On("OnVoting", vote).Once()
	// the vote goes to the leader of the next view, member 2
	s.communicator.On("SendVote", vote, s.fixture.NodeID(2)).Return(nil).Once()

	require.NoError(t, s.handler.OnReceiveProposal(proposal))
	require.Equal(t, uint64(1), s.paceMaker.CurView())
}

func TestReplicaAbstainsWhenRulesSayNo(t *testing.T) {
	s := newHandlerSetup(t, 0)
	proposal := s.proposalForView(t, 1)

	s.voteAgg.On("AddBlock", proposal).Once()
	s.safetyRules.On("ObserveQC", mock.Anything, mock.Anything).Return(nil).Once()
	s.safetyRules.On("ProduceVote", proposal, uint64(1)).
		Return(nil, model.NewNoVoteErrorf("stale: %w", model.ErrStaleView)).Once()

	// no vote is sent anywhere
	require.NoError(t, s.handler.OnReceiveProposal(proposal))
	s.communicator.AssertNotCalled(t, "SendVote", mock.Anything, mock.Anything)
}

func TestFastVoteEmittedAlongsideRegular(t *testing.T) {
	s := newHandlerSetup(t, 0)
	leader := s.fixture.LeaderIndex(1)
	block := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(leader), s.rootQC)
	proposal := s.fixture.SignProposal(t, leader, block, true, nil)
	vote := s.voteFor(proposal, model.PhasePropose)
	fastVote := s.voteFor(proposal, model.PhaseFastCommit)

	s.voteAgg.On("AddBlock", proposal).Once()
	s.safetyRules.On("ObserveQC", mock.Anything, mock.Anything).Return(nil).Once()
	s.safetyRules.On("ProduceVote", proposal, uint64(1)).Return(vote, nil).Once()
	s.safetyRules.On("ProduceFastVote", proposal, uint64(1)).Return(fastVote, nil).Once()
	s.detector.On("EligibleForFastPath").Return(true).Once()
	s.consumer.On("OnVoting", vote).Once()
	s.consumer.On("OnVoting", fastVote).Once()
	s.communicator.On("SendVote", vote, s.fixture.NodeID(2)).Return(nil).Once()
	s.communicator.On("SendVote", fastVote, s.fixture.NodeID(2)).Return(nil).Once()

	require.NoError(t, s.handler.OnReceiveProposal(proposal))
}

func TestNoFastVoteWithoutLocalAgreement(t *testing.T) {
	s := newHandlerSetup(t, 0)
	leader := s.fixture.LeaderIndex(1)
	block := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(leader), s.rootQC)
	proposal := s.fixture.SignProposal(t, leader, block, true, nil)
	vote := s.voteFor(proposal, model.PhasePropose)

	s.voteAgg.On("AddBlock", proposal).Once()
	s.safetyRules.On("ObserveQC", mock.Anything, mock.Anything).Return(nil).Once()
	s.safetyRules.On("ProduceVote", proposal, uint64(1)).Return(vote, nil).Once()
	s.detector.On("EligibleForFastPath").Return(false).Once()
	s.consumer.On("OnVoting", vote).Once()
	s.communicator.On("SendVote", vote, s.fixture.NodeID(2)).Return(nil).Once()

	require.NoError(t, s.handler.OnReceiveProposal(proposal))
	s.safetyRules.AssertNotCalled(t, "ProduceFastVote", mock.Anything, mock.Anything)
}

func TestLeaderProposesOnStart(t *testing.T) {
	s := newHandlerSetup(t, 1) // member 1 leads view 1
	block := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(1), s.rootQC)
	proposal := s.fixture.SignProposal(t, 1, block, false, nil)
	vote := s.voteFor(proposal, model.PhasePropose)

	s.detector.On("EligibleForFastPath").Return(false).Once()
	s.blockProducer.On("MakeBlockProposal", mock.Anything, uint64(1), (*model.TimeoutCertificate)(nil), false).
		Return(proposal, nil).Once()
	s.consumer.On("OnProposingBlock", proposal).Once()
	s.communicator.On("BroadcastProposal", proposal).Return(nil).Once()

	// the leader processes its own proposal like any other
	s.voteAgg.On("AddBlock", proposal).Once()
	s.safetyRules.On("ObserveQC", mock.Anything, mock.Anything).Return(nil).Once()
	s.safetyRules.On("ProduceVote", proposal, uint64(1)).Return(vote, nil).Once()
	s.consumer.On("OnVoting", vote).Once()
	s.communicator.On("SendVote", vote, s.fixture.NodeID(2)).Return(nil).Once()

	require.NoError(t, s.handler.Start())
}

func TestProposalBeyondPipelineWindowIsBuffered(t *testing.T) {
	s := newHandlerSetup(t, 0)

	// depth 3 with nothing committed: heights 1-3 may fly, height 4 waits
	chain := make([]*model.Proposal, 0, 4)
	parent, parentQC := s.genesis, s.rootQC
	for view := uint64(1); view <= 4; view++ {
		leader := s.fixture.LeaderIndex(view)
		block := helper.MakeBlock(parent, view, s.fixture.NodeID(leader), parentQC)
		chain = append(chain, s.fixture.SignProposal(t, leader, block, false, nil))
		parent, parentQC = block, helper.UnsignedQC(block, model.PhasePropose, nil)
	}
	beyond := chain[3]

	require.NoError(t, s.handler.OnReceiveProposal(beyond))

	// nothing reached the aggregator and the block is not in forks
	s.voteAgg.AssertNotCalled(t, "AddBlock", mock.Anything)
	_, known := s.forks.GetBlock(beyond.Block.BlockID)
	require.False(t, known)
}

func TestTimeoutProducesNewView(t *testing.T) {
	s := newHandlerSetup(t, 0)
	newView := &model.NewViewMsg{View: 2, HighQC: s.rootQC, SignerID: s.fixture.NodeID(0)}

	s.safetyRules.On("ProduceNewView", uint64(1), s.rootQC).Return(newView, nil).Once()
	s.timeoutAgg.On("AddNewView", newView).Once()
	s.communicator.On("BroadcastNewView", newView).Return(nil).Once()

	require.NoError(t, s.handler.OnLocalTimeout())
}

func TestTimeoutRefusedByRulesIsQuiet(t *testing.T) {
	s := newHandlerSetup(t, 0)

	s.safetyRules.On("ProduceNewView", uint64(1), s.rootQC).
		Return(nil, model.NoTimeoutError{Err: model.ErrStaleView}).Once()

	require.NoError(t, s.handler.OnLocalTimeout())
	s.communicator.AssertNotCalled(t, "BroadcastNewView", mock.Anything)
}

func TestTCAdvancesView(t *testing.T) {
	s := newHandlerSetup(t, 0)
	tc := &model.TimeoutCertificate{View: 1, NewestQC: s.rootQC}

	s.voteAgg.On("AbandonView", uint64(1)).Once()
	s.consumer.On("OnTcTriggeredViewChange", tc, uint64(2)).Once()

	require.NoError(t, s.handler.OnTCConstructed(tc))
	require.Equal(t, uint64(2), s.paceMaker.CurView())
}

func TestQCForUnknownBlockIsBufferedAndReplayed(t *testing.T) {
	s := newHandlerSetup(t, 0)
	proposal := s.proposalForView(t, 1)
	qc := helper.UnsignedQC(proposal.Block, model.PhasePropose, nil)

	// the certificate arrives before its block: buffered, no view change
	require.NoError(t, s.handler.OnQCConstructed(qc))
	require.Equal(t, uint64(1), s.paceMaker.CurView())

	// the block arrives; the replayed certificate advances the view
	s.voteAgg.On("AddBlock", proposal).Once()
	s.safetyRules.On("ObserveQC", mock.Anything, mock.Anything).Return(nil)
	s.safetyRules.On("ProduceVote", proposal, uint64(1)).Return(s.voteFor(proposal, model.PhasePropose), nil).Once()
	s.consumer.On("OnVoting", mock.Anything).Once()
	s.communicator.On("SendVote", mock.Anything, mock.Anything).Return(nil).Once()
	s.consumer.On("OnQcTriggeredViewChange", qc, uint64(2)).Once()

	require.NoError(t, s.handler.OnReceiveProposal(proposal))
	require.Equal(t, uint64(2), s.paceMaker.CurView())
}
