package helper

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

// MakeBlock builds a child block of the given parent for the given view,
// justified by qc (which certifies the parent in realistic fixtures).
func MakeBlock(parent *model.Block, view uint64, proposer model.Identifier, qc *model.QuorumCertificate) *model.Block {
	return model.NewBlock(parent.BlockID, parent.Height+1, view, proposer, unittest.IdentifierFixture(), qc)
}

// MakeProposal wraps a block into an unsigned proposal, for tests that stub
// out signature verification.
func MakeProposal(block *model.Block) *model.Proposal {
	return &model.Proposal{
		Block:   block,
		SigData: unittest.SeedFixture(48),
	}
}

// UnsignedQC builds a certificate without a valid aggregate signature, for
// components that do not verify (Forks, PaceMaker, SafetyRules lock logic).
func UnsignedQC(block *model.Block, phase model.Phase, signerIndices []byte) *model.QuorumCertificate {
	return &model.QuorumCertificate{
		View:          block.View,
		Phase:         phase,
		BlockID:       block.BlockID,
		SignerIndices: signerIndices,
		SigData:       unittest.SeedFixture(48),
	}
}
