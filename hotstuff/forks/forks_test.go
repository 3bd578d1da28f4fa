package forks

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff/helper"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

type forksSetup struct {
	forks     *Forks
	consumer  *helper.RecordingConsumer
	blocks    *helper.FakeBlocks
	qcs       *helper.FakeQCs
	watermark *helper.FakeCommitted
	genesis   *model.Block
	rootQC    *model.QuorumCertificate
	proposer  model.Identifier
}

func newForksSetup(t *testing.T, retention uint64) *forksSetup {
	genesis, rootQC := helper.TrustedRoot()
	consumer := helper.NewRecordingConsumer()
	blocks := helper.NewFakeBlocks()
	qcs := helper.NewFakeQCs()
	watermark := helper.NewFakeCommitted()

	forks, err := New(unittest.Logger(), consumer, genesis, rootQC, retention, blocks, qcs, watermark)
	require.NoError(t, err)

	return &forksSetup{
		forks:     forks,
		consumer:  consumer,
		blocks:    blocks,
		qcs:       qcs,
		watermark: watermark,
		genesis:   genesis,
		rootQC:    rootQC,
		proposer:  unittest.IdentifierFixture(),
	}
}

// chain builds n blocks on top of genesis at views 1..n, each justified by
// an unsigned QC for its parent, and returns blocks and certifying QCs.
func (s *forksSetup) chain(n int) ([]*model.Block, []*model.QuorumCertificate) {
	blocks := make([]*model.Block, 0, n)
	qcs := make([]*model.QuorumCertificate, 0, n)
	parent, parentQC := s.genesis, s.rootQC
	for view := uint64(1); view <= uint64(n); view++ {
		block := helper.MakeBlock(parent, view, s.proposer, parentQC)
		qc := helper.UnsignedQC(block, model.PhasePropose, nil)
		blocks = append(blocks, block)
		qcs = append(qcs, qc)
		parent, parentQC = block, qc
	}
	return blocks, qcs
}

func TestAddValidatedBlock(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, _ := s.chain(1)
	b1 := blocks[0]

	require.NoError(t, s.forks.AddValidatedBlock(b1))

	stored, ok := s.forks.GetBlock(b1.BlockID)
	require.True(t, ok)
	require.Equal(t, b1, stored)
	require.True(t, s.forks.Extends(b1.BlockID, s.genesis.BlockID))
	require.False(t, s.forks.Extends(s.genesis.BlockID, b1.BlockID))
	require.Len(t, s.consumer.Incorporated, 1)

	// idempotent by hash
	require.NoError(t, s.forks.AddValidatedBlock(b1))
	require.Len(t, s.consumer.Incorporated, 1)

	// persisted
	_, err := s.blocks.ByID(b1.BlockID)
	require.NoError(t, err)
}

func TestAncestors(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, _ := s.chain(3)
	for _, block := range blocks {
		require.NoError(t, s.forks.AddValidatedBlock(block))
	}

	ancestors := s.forks.Ancestors(blocks[2].BlockID, 2)
	require.Len(t, ancestors, 2)
	require.Equal(t, blocks[1].BlockID, ancestors[0].BlockID)
	require.Equal(t, blocks[0].BlockID, ancestors[1].BlockID)

	// the walk stops at genesis even for a larger depth
	ancestors = s.forks.Ancestors(blocks[2].BlockID, 10)
	require.Len(t, ancestors, 3)
	require.Equal(t, s.genesis.BlockID, ancestors[2].BlockID)

	require.Empty(t, s.forks.Ancestors(unittest.IdentifierFixture(), 5))
}

func TestAddValidatedBlock_MissingParent(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, _ := s.chain(2)

	err := s.forks.AddValidatedBlock(blocks[1])
	require.True(t, model.IsMissingBlockError(err))
}

func TestAddValidatedBlock_DuplicateView(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, _ := s.chain(1)
	require.NoError(t, s.forks.AddValidatedBlock(blocks[0]))

	conflicting := helper.MakeBlock(s.genesis, 1, s.proposer, s.rootQC)
	err := s.forks.AddValidatedBlock(conflicting)
	require.True(t, model.IsDuplicateProposalError(err))
	require.Len(t, s.consumer.DoublePropose, 1)

	// the first proposal wins
	forView := s.forks.GetBlocksForView(1)
	require.Len(t, forView, 1)
	require.Equal(t, blocks[0].BlockID, forView[0].BlockID)
}

func TestTwoChainCommit(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, qcs := s.chain(2)

	require.NoError(t, s.forks.AddValidatedBlock(blocks[0]))
	require.NoError(t, s.forks.AddValidatedBlock(blocks[1])) // incorporates QC(B1)
	require.Empty(t, s.consumer.Committed)

	// QC(B2) completes the consecutive pair and commits B1
	require.NoError(t, s.forks.AddCertificate(qcs[1]))
	require.Equal(t, []uint64{1}, s.consumer.CommittedHeights())
	require.Equal(t, uint64(1), s.forks.CommittedHeight())
	require.Equal(t, blocks[0].BlockID, s.forks.CommittedBlock().BlockID)

	// the watermark was durable before the notification
	height, blockID, err := s.watermark.Get()
	require.NoError(t, err)
	require.Equal(t, uint64(1), height)
	require.Equal(t, blocks[0].BlockID, blockID)

	// idempotent: replaying the certificate commits nothing new
	require.NoError(t, s.forks.AddCertificate(qcs[1]))
	require.Equal(t, []uint64{1}, s.consumer.CommittedHeights())
}

func TestCommitOrderWithoutGaps(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, qcs := s.chain(4)

	// pipeline all four heights before any commit
	for _, block := range blocks {
		require.NoError(t, s.forks.AddValidatedBlock(block))
	}
	// each incorporated justification committed the grandparent as the
	// pipeline progressed
	require.NoError(t, s.forks.AddCertificate(qcs[3]))
	require.Equal(t, []uint64{1, 2, 3}, s.consumer.CommittedHeights())
	require.Equal(t, s.watermark.Sets, s.consumer.CommittedHeights())
}

func TestCertificateArrivalOrderIndependence(t *testing.T) {
	s := newForksSetup(t, 2)

	// blocks whose embedded justification does not complete a pair, so the
	// certificates below drive the commit on their own, child first
	b1 := model.NewBlock(s.genesis.BlockID, 1, 1, s.proposer, unittest.IdentifierFixture(), s.rootQC)
	b2 := model.NewBlock(b1.BlockID, 2, 2, s.proposer, unittest.IdentifierFixture(), s.rootQC)
	qc1 := helper.UnsignedQC(b1, model.PhasePropose, nil)
	qc2 := helper.UnsignedQC(b2, model.PhasePropose, nil)

	require.NoError(t, s.forks.AddValidatedBlock(b1))
	require.NoError(t, s.forks.AddValidatedBlock(b2))
	require.NoError(t, s.forks.AddCertificate(qc2))
	require.Empty(t, s.consumer.Committed)

	// the parent certificate arriving second still completes the pair
	require.NoError(t, s.forks.AddCertificate(qc1))
	require.Equal(t, []uint64{1}, s.consumer.CommittedHeights())
}

func TestFastCommit(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, _ := s.chain(2)

	require.NoError(t, s.forks.AddValidatedBlock(blocks[0]))
	require.NoError(t, s.forks.AddValidatedBlock(blocks[1]))

	// a fast certificate commits its block and all uncommitted ancestors
	// immediately, ascending
	fastQC := helper.UnsignedQC(blocks[1], model.PhaseFastCommit, nil)
	require.NoError(t, s.forks.AddCertificate(fastQC))
	require.Equal(t, []uint64{1, 2}, s.consumer.CommittedHeights())

	// a late regular certificate for the fast-committed block is a no-op
	require.NoError(t, s.forks.AddCertificate(helper.UnsignedQC(blocks[1], model.PhasePropose, nil)))
	require.Equal(t, []uint64{1, 2}, s.consumer.CommittedHeights())
}

func TestConflictingCommitIsByzantineProof(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, qcs := s.chain(2)

	// conflicting branch off genesis at later views
	c1 := helper.MakeBlock(s.genesis, 3, s.proposer, s.rootQC)
	c1QC := helper.UnsignedQC(c1, model.PhasePropose, nil)
	c2 := helper.MakeBlock(c1, 4, s.proposer, c1QC)

	require.NoError(t, s.forks.AddValidatedBlock(blocks[0]))
	require.NoError(t, s.forks.AddValidatedBlock(blocks[1]))
	require.NoError(t, s.forks.AddValidatedBlock(c1))
	require.NoError(t, s.forks.AddValidatedBlock(c2))

	// commit B1 through the consecutive pair
	require.NoError(t, s.forks.AddCertificate(qcs[1]))
	require.Equal(t, []uint64{1}, s.consumer.CommittedHeights())

	// a fast certificate for the conflicting branch would commit a second
	// block at height 1: only possible beyond the Byzantine threshold
	err := s.forks.AddCertificate(helper.UnsignedQC(c2, model.PhaseFastCommit, nil))
	require.Error(t, err)
	byzErr, ok := err.(model.ByzantineThresholdExceededError)
	require.True(t, ok)
	require.NotEmpty(t, byzErr.Evidence)
}

func TestPruning(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, qcs := s.chain(6)

	for _, block := range blocks {
		require.NoError(t, s.forks.AddValidatedBlock(block))
	}
	require.NoError(t, s.forks.AddCertificate(qcs[5]))
	require.Equal(t, uint64(5), s.forks.CommittedHeight())

	// blocks below committed - K are gone, the boundary block is retained
	_, ok := s.forks.GetBlock(blocks[1].BlockID) // height 2 < 5-2
	require.False(t, ok)
	_, ok = s.forks.GetBlock(blocks[2].BlockID) // height 3 = bound
	require.True(t, ok)

	// genesis is never pruned
	_, ok = s.forks.GetBlock(s.genesis.BlockID)
	require.True(t, ok)

	// committed heights remain resolvable inside the retention window
	byHeight, ok := s.forks.GetBlockByHeight(4)
	require.True(t, ok)
	require.Equal(t, blocks[3].BlockID, byHeight.BlockID)
}

func TestStaleAndUnknownCertificates(t *testing.T) {
	s := newForksSetup(t, 2)
	blocks, qcs := s.chain(3)

	// certificate for an unknown future block: caller must buffer
	err := s.forks.AddCertificate(qcs[2])
	require.True(t, model.IsMissingBlockError(err))

	for _, block := range blocks {
		require.NoError(t, s.forks.AddValidatedBlock(block))
	}
	require.NoError(t, s.forks.AddCertificate(qcs[2]))
	require.Equal(t, []uint64{1, 2}, s.consumer.CommittedHeights())

	// a certificate for a pruned/unknown block at or below the committed
	// view is dropped silently
	orphan := helper.MakeBlock(s.genesis, 1, s.proposer, s.rootQC)
	err = s.forks.AddCertificate(helper.UnsignedQC(orphan, model.PhasePropose, nil))
	require.NoError(t, err)
}

func TestRetentionValidation(t *testing.T) {
	genesis, rootQC := helper.TrustedRoot()
	_, err := New(unittest.Logger(), helper.NewRecordingConsumer(), genesis, rootQC, 1,
		helper.NewFakeBlocks(), helper.NewFakeQCs(), helper.NewFakeCommitted())
	require.True(t, model.IsConfigurationError(err))
}
