package blockproducer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/forks"
	"github.com/altair-bft/hotstuff2/hotstuff/helper"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/mempool"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

func TestMakeBlockProposal(t *testing.T) {
	fixture := helper.NewCommitteeFixture(t, 4)
	committee := fixture.Committee(t, 1, hotstuff.FastThresholdConservative)
	genesis, rootQC := helper.TrustedRoot()

	forksInst, err := forks.New(unittest.Logger(), helper.NewRecordingConsumer(), genesis, rootQC, 2,
		helper.NewFakeBlocks(), helper.NewFakeQCs(), helper.NewFakeCommitted())
	require.NoError(t, err)

	pool := mempool.NewTransactions(1024)
	require.True(t, pool.Add([]byte("tx")))

	producer, err := New(fixture.Signer(t, 1), committee, forksInst, pool, 512)
	require.NoError(t, err)

	proposal, err := producer.MakeBlockProposal(rootQC, 1, nil, true)
	require.NoError(t, err)

	block := proposal.Block
	require.Equal(t, genesis.BlockID, block.ParentID)
	require.Equal(t, uint64(1), block.Height)
	require.Equal(t, uint64(1), block.View)
	require.Equal(t, fixture.NodeID(1), block.ProposerID)
	require.Equal(t, rootQC, block.QC)
	require.True(t, proposal.FastEligible)
	require.Equal(t, 0, pool.Size()) // body drained from the pool

	// the proposal signature doubles as the proposer's vote
	require.NotEmpty(t, proposal.SigData)
	require.Equal(t, block.ProposerID, proposal.ProposerVote().SignerID)
}

func TestCannotProposeOnUnknownBlock(t *testing.T) {
	fixture := helper.NewCommitteeFixture(t, 4)
	committee := fixture.Committee(t, 1, hotstuff.FastThresholdConservative)
	genesis, rootQC := helper.TrustedRoot()

	forksInst, err := forks.New(unittest.Logger(), helper.NewRecordingConsumer(), genesis, rootQC, 2,
		helper.NewFakeBlocks(), helper.NewFakeQCs(), helper.NewFakeCommitted())
	require.NoError(t, err)

	producer, err := New(fixture.Signer(t, 1), committee, forksInst, mempool.NewTransactions(1024), 512)
	require.NoError(t, err)

	unknown := helper.MakeBlock(genesis, 5, fixture.NodeID(1), rootQC)
	_, err = producer.MakeBlockProposal(helper.UnsignedQC(unknown, model.PhasePropose, nil), 6, nil, false)
	require.Error(t, err)
}
