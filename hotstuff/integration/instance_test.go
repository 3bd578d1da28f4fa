package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/blockproducer"
	"github.com/altair-bft/hotstuff2/hotstuff/eventhandler"
	"github.com/altair-bft/hotstuff2/hotstuff/eventloop"
	"github.com/altair-bft/hotstuff2/hotstuff/forks"
	"github.com/altair-bft/hotstuff2/hotstuff/helper"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/hotstuff/notifications"
	"github.com/altair-bft/hotstuff2/hotstuff/notifications/pubsub"
	"github.com/altair-bft/hotstuff2/hotstuff/pacemaker"
	"github.com/altair-bft/hotstuff2/hotstuff/pacemaker/timeout"
	"github.com/altair-bft/hotstuff2/hotstuff/safetyrules"
	"github.com/altair-bft/hotstuff2/hotstuff/timeoutaggregator"
	"github.com/altair-bft/hotstuff2/hotstuff/timeoutcollector"
	"github.com/altair-bft/hotstuff2/hotstuff/validator"
	"github.com/altair-bft/hotstuff2/hotstuff/verification"
	"github.com/altair-bft/hotstuff2/hotstuff/voteaggregator"
	"github.com/altair-bft/hotstuff2/hotstuff/votecollector"
	"github.com/altair-bft/hotstuff2/module/irrecoverable"
	"github.com/altair-bft/hotstuff2/module/mempool"
	"github.com/altair-bft/hotstuff2/network"
	"github.com/altair-bft/hotstuff2/network/codec"
	"github.com/altair-bft/hotstuff2/network/stub"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

const pipelineDepth = 3

// forcedDetector is a synchrony detector with a fixed verdict, so scenarios
// control fast-path eligibility directly.
type forcedDetector struct {
	eligible *atomic.Bool
}

var _ hotstuff.SynchronyDetector = (*forcedDetector)(nil)

func newForcedDetector(eligible bool) *forcedDetector {
	return &forcedDetector{eligible: atomic.NewBool(eligible)}
}

func (d *forcedDetector) OnMessageArrival(time.Time) {}

func (d *forcedDetector) EligibleForFastPath() bool { return d.eligible.Load() }

func (d *forcedDetector) Stats() hotstuff.SynchronyStats {
	return hotstuff.SynchronyStats{Eligible: d.eligible.Load()}
}

// lateCommunicator breaks the construction cycle between the event handler
// and the message hub.
type lateCommunicator struct {
	hub *network.MessageHub
}

var _ hotstuff.Communicator = (*lateCommunicator)(nil)

func (l *lateCommunicator) BroadcastProposal(proposal *model.Proposal) error {
	return l.hub.BroadcastProposal(proposal)
}

func (l *lateCommunicator) SendVote(vote *model.Vote, recipientID model.Identifier) error {
	return l.hub.SendVote(vote, recipientID)
}

func (l *lateCommunicator) BroadcastNewView(msg *model.NewViewMsg) error {
	return l.hub.BroadcastNewView(msg)
}

// instance is one fully wired replica, talking to its peers over the
// in-memory hub through the real codec.
type instance struct {
	index       int
	nodeID      model.Identifier
	consumer    *helper.RecordingConsumer
	detector    *forcedDetector
	forks       *forks.Forks
	loop        *eventloop.EventLoop
	hub         *network.MessageHub
	voteAgg     *voteaggregator.VoteAggregator
	tAgg        *timeoutaggregator.TimeoutAggregator
	signalerCtx irrecoverable.SignalerContext
	errs        <-chan error
	cancel      context.CancelFunc
}

type ensembleConfig struct {
	n            int
	baseTimeout  time.Duration
	fastEligible bool
	policy       hotstuff.FastThresholdPolicy
	offline      map[int]bool
}

// newEnsemble builds and starts the configured replicas on one hub.
func newEnsemble(t *testing.T, cfg ensembleConfig) (*helper.CommitteeFixture, *stub.Hub, []*instance) {
	fixture := helper.NewCommitteeFixture(t, cfg.n)
	netHub := stub.NewHub()

	instances := make([]*instance, cfg.n)
	for i := 0; i < cfg.n; i++ {
		if cfg.offline[i] {
			continue
		}
		instances[i] = newInstance(t, fixture, netHub, i, cfg)
	}
	// all replicas are registered on the hub before the first one may
	// propose, so no startup message is lost
	for _, inst := range instances {
		if inst != nil {
			inst.start()
		}
	}
	t.Cleanup(func() {
		for _, inst := range instances {
			if inst != nil {
				inst.cancel()
			}
		}
	})
	return fixture, netHub, instances
}

func newInstance(t *testing.T, fixture *helper.CommitteeFixture, netHub *stub.Hub, index int, cfg ensembleConfig) *instance {
	log := unittest.Logger().With().Int("replica", index).Logger()
	committee := fixture.Committee(t, index, cfg.policy)
	genesis, rootQC := helper.TrustedRoot()

	recording := helper.NewRecordingConsumer()
	dist := pubsub.NewDistributor()
	dist.AddConsumer(recording)
	dist.AddConsumer(notifications.NewLogConsumer(log))

	persist := helper.NewFakePersister(rootQC)
	forksInst, err := forks.New(log, dist, genesis, rootQC, 2,
		helper.NewFakeBlocks(), helper.NewFakeQCs(), helper.NewFakeCommitted())
	require.NoError(t, err)

	signer := fixture.Signer(t, index)
	verifier, err := verification.NewBLSVerifier(committee, rootQC)
	require.NoError(t, err)
	detector := newForcedDetector(cfg.fastEligible)

	rules, err := safetyrules.New(signer, forksInst, persist, committee)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	timeoutCfg := timeout.Config{
		BaseTimeout:         cfg.baseTimeout,
		MaxTimeout:          10 * cfg.baseTimeout,
		Multiplier:          1.5,
		HappyPathRounds:     0,
		RebroadcastInterval: cfg.baseTimeout,
	}
	require.NoError(t, timeoutCfg.Validate())
	paceMaker, err := pacemaker.New(ctx, timeout.NewController(timeoutCfg), dist, persist)
	require.NoError(t, err)

	pool := mempool.NewTransactions(1 << 20)
	producer, err := blockproducer.New(signer, committee, forksInst, pool, 4096)
	require.NoError(t, err)

	comm := &lateCommunicator{}
	inst := &instance{
		index:    index,
		nodeID:   fixture.NodeID(index),
		consumer: recording,
		detector: detector,
		forks:    forksInst,
		cancel:   cancel,
	}

	var loop *eventloop.EventLoop
	inst.voteAgg = voteaggregator.New(log, dist, 0, func(view uint64) hotstuff.VoteCollector {
		return votecollector.NewVoteCollector(log, view, committee, verifier, detector, dist,
			func(qc *model.QuorumCertificate) { loop.SubmitQC(qc) })
	})
	inst.tAgg = timeoutaggregator.New(log, 0, func(view uint64) hotstuff.TimeoutCollector {
		return timeoutcollector.NewTimeoutCollector(log, view, committee, verifier, dist,
			func(v uint64) { loop.SubmitPartialNewView(v) },
			func(tc *model.TimeoutCertificate) { loop.SubmitTC(tc) })
	})

	handler, err := eventhandler.NewEventHandler(log, paceMaker, producer, forksInst, comm,
		committee, inst.voteAgg, inst.tAgg, rules, detector, dist, pipelineDepth)
	require.NoError(t, err)
	loop = eventloop.New(log, handler)
	inst.loop = loop

	conduit := netHub.Register(inst.nodeID, func(originID model.Identifier, data []byte) {
		inst.hub.OnInbound(originID, data)
	})
	inst.hub = network.NewMessageHub(log, codec.NewCodec(), conduit, validator.New(committee, verifier),
		loop, inst.voteAgg, inst.tAgg, detector, dist)
	comm.hub = inst.hub

	signaler, errs := irrecoverable.NewSignaler()
	inst.signalerCtx = irrecoverable.WithSignaler(ctx, signaler)
	inst.errs = errs
	return inst
}

// start launches the replica's workers and its serial event loop.
func (inst *instance) start() {
	inst.voteAgg.Start(inst.signalerCtx)
	inst.tAgg.Start(inst.signalerCtx)
	inst.loop.Start(inst.signalerCtx)
}

// requireHealthy fails the test if any running replica has escalated an
// irrecoverable error.
func requireHealthy(t *testing.T, instances []*instance) {
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		select {
		case err := <-inst.errs:
			t.Fatalf("replica %d halted: %v", inst.index, err)
		default:
		}
	}
}

// waitForCommits blocks until every running replica committed at least the
// given height.
func waitForCommits(t *testing.T, instances []*instance, height uint64, within time.Duration) {
	unittest.AssertEventuallyTrue(t, func() bool {
		for _, inst := range instances {
			if inst == nil {
				continue
			}
			if inst.forks.CommittedHeight() < height {
				return false
			}
		}
		return true
	}, within, "replicas did not commit in time")
}

// requireConsistentCommits checks the global safety property: all replicas
// committed identical blocks at every height all of them reached, and every
// replica's commit notifications are gap-free ascending.
func requireConsistentCommits(t *testing.T, instances []*instance, upToHeight uint64) {
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		heights := inst.consumer.CommittedHeights()
		require.NotEmpty(t, heights)
		for i, height := range heights {
			require.Equal(t, uint64(i+1), height, "replica %d committed out of order", inst.index)
		}
	}
	for height := uint64(1); height <= upToHeight; height++ {
		var expected model.Identifier
		for _, inst := range instances {
			if inst == nil {
				continue
			}
			block, ok := inst.consumer.CommittedAt(height)
			require.True(t, ok, "replica %d is missing height %d", inst.index, height)
			if expected == model.ZeroID {
				expected = block.BlockID
			}
			require.Equal(t, expected, block.BlockID,
				"replica %d committed a conflicting block at height %d", inst.index, height)
		}
	}
}
