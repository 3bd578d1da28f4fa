package helper

import (
	"testing"

	"github.com/onflow/flow-go/crypto"
	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/hotstuff/verification"
	msig "github.com/altair-bft/hotstuff2/module/signature"
)

// SignVote produces the member's real vote for the block in the given
// phase.
func (f *CommitteeFixture) SignVote(t *testing.T, index int, block *model.Block, phase model.Phase) *model.Vote {
	vote, err := f.Signer(t, index).CreateVote(block, phase)
	require.NoError(t, err)
	return vote
}

// SignNewView produces the member's real NewView message entering the given
// view.
func (f *CommitteeFixture) SignNewView(t *testing.T, index int, view uint64, highQC *model.QuorumCertificate) *model.NewViewMsg {
	msg, err := f.Signer(t, index).CreateNewView(view, highQC)
	require.NoError(t, err)
	return msg
}

// MakeQC builds a verifiable certificate for the block, signed by the
// members at the given indices.
func (f *CommitteeFixture) MakeQC(t *testing.T, block *model.Block, phase model.Phase, signerIdx ...int) *model.QuorumCertificate {
	msg := verification.MakeVoteMessage(block.View, phase, block.BlockID)
	aggregator, err := msig.NewSignatureAggregatorSameMessage(msg, verification.TagForPhase(phase), f.publicKeys())
	require.NoError(t, err)
	for _, index := range signerIdx {
		vote := f.SignVote(t, index, block, phase)
		require.NoError(t, aggregator.TrustedAdd(index, crypto.Signature(vote.SigData)))
	}
	indices, aggSig, err := aggregator.Aggregate()
	require.NoError(t, err)
	signerIndices, err := msig.EncodeSignerIndices(indices, len(f.Identities))
	require.NoError(t, err)
	return &model.QuorumCertificate{
		View:          block.View,
		Phase:         phase,
		BlockID:       block.BlockID,
		SignerIndices: signerIndices,
		SigData:       aggSig,
	}
}

// MakeTC builds a verifiable timeout certificate for the abandoned view,
// signed by the members at the given indices.
func (f *CommitteeFixture) MakeTC(t *testing.T, abandonedView uint64, newestQC *model.QuorumCertificate, signerIdx ...int) *model.TimeoutCertificate {
	enteredView := abandonedView + 1
	msg := verification.MakeNewViewMessage(enteredView)
	aggregator, err := msig.NewSignatureAggregatorSameMessage(msg, msig.NewViewTag, f.publicKeys())
	require.NoError(t, err)
	for _, index := range signerIdx {
		newView := f.SignNewView(t, index, enteredView, newestQC)
		require.NoError(t, aggregator.TrustedAdd(index, crypto.Signature(newView.SigData)))
	}
	indices, aggSig, err := aggregator.Aggregate()
	require.NoError(t, err)
	signerIndices, err := msig.EncodeSignerIndices(indices, len(f.Identities))
	require.NoError(t, err)
	return &model.TimeoutCertificate{
		View:          abandonedView,
		NewestQC:      newestQC,
		SignerIndices: signerIndices,
		SigData:       aggSig,
	}
}

// SignProposal produces the member's real proposal for the block.
func (f *CommitteeFixture) SignProposal(t *testing.T, index int, block *model.Block, fastEligible bool, lastViewTC *model.TimeoutCertificate) *model.Proposal {
	proposal, err := f.Signer(t, index).CreateProposal(block, fastEligible, lastViewTC)
	require.NoError(t, err)
	return proposal
}

func (f *CommitteeFixture) publicKeys() []crypto.PublicKey {
	return f.Identities.PublicKeys()
}
