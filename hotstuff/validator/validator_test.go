package validator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/helper"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/hotstuff/validator"
	"github.com/altair-bft/hotstuff2/hotstuff/verification"
)

type validatorSetup struct {
	fixture   *helper.CommitteeFixture
	validator *validator.Validator
	genesis   *model.Block
	rootQC    *model.QuorumCertificate
}

func newValidatorSetup(t *testing.T) *validatorSetup {
	fixture := helper.NewCommitteeFixture(t, 4)
	committee := fixture.Committee(t, 0, hotstuff.FastThresholdConservative)
	_, rootQC := helper.TrustedRoot()
	verifier, err := verification.NewBLSVerifier(committee, rootQC)
	require.NoError(t, err)
	genesis, _ := helper.TrustedRoot()
	return &validatorSetup{
		fixture:   fixture,
		validator: validator.New(committee, verifier),
		genesis:   genesis,
		rootQC:    rootQC,
	}
}

func TestValidProposalPasses(t *testing.T) {
	s := newValidatorSetup(t)
	block := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(1), s.rootQC)
	proposal := s.fixture.SignProposal(t, 1, block, false, nil)

	require.NoError(t, s.validator.ValidateProposal(proposal))
}

func TestProposalFromWrongLeaderRejected(t *testing.T) {
	s := newValidatorSetup(t)
	// view 1 is led by member 1, not member 2
	block := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(2), s.rootQC)
	proposal := s.fixture.SignProposal(t, 2, block, false, nil)

	err := s.validator.ValidateProposal(proposal)
	require.True(t, model.IsInvalidProposalError(err))
}

func TestViewGapRequiresTC(t *testing.T) {
	s := newValidatorSetup(t)
	// view 2 proposal justified by the view-0 genesis QC skips view 1
	block := helper.MakeBlock(s.genesis, 2, s.fixture.NodeID(2), s.rootQC)

	withoutTC := s.fixture.SignProposal(t, 2, block, false, nil)
	err := s.validator.ValidateProposal(withoutTC)
	require.True(t, model.IsInvalidProposalError(err))

	tc := s.fixture.MakeTC(t, 1, s.rootQC, 0, 1, 3)
	withTC := s.fixture.SignProposal(t, 2, block, false, tc)
	require.NoError(t, s.validator.ValidateProposal(withTC))

	// a TC for the wrong view does not close the gap
	wrongTC := s.fixture.MakeTC(t, 2, s.rootQC, 0, 1, 3)
	withWrongTC := s.fixture.SignProposal(t, 2, block, false, wrongTC)
	err = s.validator.ValidateProposal(withWrongTC)
	require.True(t, model.IsInvalidProposalError(err))
}

func TestConsecutiveProposalMustNotAttachTC(t *testing.T) {
	s := newValidatorSetup(t)
	block := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(1), s.rootQC)
	tc := s.fixture.MakeTC(t, 1, s.rootQC, 0, 2, 3)
	proposal := s.fixture.SignProposal(t, 1, block, false, tc)

	err := s.validator.ValidateProposal(proposal)
	require.True(t, model.IsInvalidProposalError(err))
}

func TestTamperedProposerSignatureRejected(t *testing.T) {
	s := newValidatorSetup(t)
	block := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(1), s.rootQC)
	proposal := s.fixture.SignProposal(t, 1, block, false, nil)
	proposal.SigData[0] ^= 0xff

	err := s.validator.ValidateProposal(proposal)
	require.True(t, model.IsInvalidProposalError(err))
}

func TestJustifyMustCertifyParent(t *testing.T) {
	s := newValidatorSetup(t)
	b1 := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(1), s.rootQC)
	qc1 := s.fixture.MakeQC(t, b1, model.PhasePropose, 0, 1, 2)

	// block claims genesis as parent but justifies with QC(B1)
	block := model.NewBlock(s.genesis.BlockID, 2, 2, s.fixture.NodeID(2), b1.PayloadHash, qc1)
	proposal := s.fixture.SignProposal(t, 2, block, false, nil)

	err := s.validator.ValidateProposal(proposal)
	require.True(t, model.IsInvalidProposalError(err))
}

func TestValidateQCUsesPhaseThreshold(t *testing.T) {
	s := newValidatorSetup(t)
	b1 := helper.MakeBlock(s.genesis, 1, s.fixture.NodeID(1), s.rootQC)

	// regular threshold is 3
	qc := s.fixture.MakeQC(t, b1, model.PhasePropose, 0, 1, 2)
	require.NoError(t, s.validator.ValidateQC(qc))

	// conservative fast threshold is the full committee: 3 signers fail
	fast3 := s.fixture.MakeQC(t, b1, model.PhaseFastCommit, 0, 1, 2)
	err := s.validator.ValidateQC(fast3)
	require.True(t, model.IsInsufficientSignaturesError(err))

	fast4 := s.fixture.MakeQC(t, b1, model.PhaseFastCommit, 0, 1, 2, 3)
	require.NoError(t, s.validator.ValidateQC(fast4))
}

func TestValidateNewView(t *testing.T) {
	s := newValidatorSetup(t)
	msg := s.fixture.SignNewView(t, 2, 3, s.rootQC)
	require.NoError(t, s.validator.ValidateNewView(msg))

	zero := s.fixture.SignNewView(t, 2, 0, s.rootQC)
	err := s.validator.ValidateNewView(zero)
	require.True(t, model.IsInvalidNewViewError(err))
}
