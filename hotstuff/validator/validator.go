package validator

import (
	"fmt"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Validator performs the structural and cryptographic checks on inbound
// messages before they reach the event handler. It is stateless and safe for
// concurrent use; the signature-heavy work is delegated to the Verifier,
// which memoizes.
type Validator struct {
	committee hotstuff.Replicas
	verifier  hotstuff.Verifier
}

var _ hotstuff.Validator = (*Validator)(nil)

// New creates a Validator.
func New(committee hotstuff.Replicas, verifier hotstuff.Verifier) *Validator {
	return &Validator{
		committee: committee,
		verifier:  verifier,
	}
}

// ValidateProposal checks a decoded proposal end to end:
// structural invariants, leader correctness, justification consistency and
// the proposer's signature.
func (v *Validator) ValidateProposal(proposal *model.Proposal) error {
	block := proposal.Block
	if block == nil {
		return fmt.Errorf("proposal without block")
	}
	if block.QC == nil {
		return model.NewInvalidProposalErrorf(proposal, "non-genesis block carries no justification")
	}
	if block.QC.View >= block.View {
		return model.NewInvalidProposalErrorf(proposal, "justify QC view %d not below block view %d", block.QC.View, block.View)
	}
	if block.ParentID != block.QC.BlockID {
		return model.NewInvalidProposalErrorf(proposal, "justify QC certifies %x, not the parent %x", block.QC.BlockID, block.ParentID)
	}

	// the proposer must lead the block's view
	leader, err := v.committee.LeaderForView(block.View)
	if err != nil {
		return fmt.Errorf("could not determine leader for view %d: %w", block.View, err)
	}
	if leader != block.ProposerID {
		return model.NewInvalidProposalErrorf(proposal, "proposer %x is not the leader %x of view %d", block.ProposerID, leader, block.View)
	}

	// a leader skipping ahead of its QC must prove the gap was timed out
	if block.QC.View+1 != block.View {
		if proposal.LastViewTC == nil {
			return model.NewInvalidProposalErrorf(proposal, "QC is for view %d but no TC for view %d attached", block.QC.View, block.View-1)
		}
		if proposal.LastViewTC.View+1 != block.View {
			return model.NewInvalidProposalErrorf(proposal, "attached TC is for view %d, expected %d", proposal.LastViewTC.View, block.View-1)
		}
		if proposal.LastViewTC.NewestQC != nil && block.QC.View < proposal.LastViewTC.NewestQC.View {
			return model.NewInvalidProposalErrorf(proposal, "justify QC view %d below the TC's newest QC view %d", block.QC.View, proposal.LastViewTC.NewestQC.View)
		}
		err = v.ValidateTC(proposal.LastViewTC)
		if err != nil {
			return model.NewInvalidProposalErrorf(proposal, "attached TC is invalid: %w", err)
		}
	} else if proposal.LastViewTC != nil {
		return model.NewInvalidProposalErrorf(proposal, "proposal with consecutive QC must not attach a TC")
	}

	err = v.ValidateQC(block.QC)
	if err != nil {
		return model.NewInvalidProposalErrorf(proposal, "justify QC is invalid: %w", err)
	}

	err = v.verifier.VerifyVote(proposal.ProposerVote())
	if err != nil {
		return model.NewInvalidProposalErrorf(proposal, "proposer signature is invalid: %w", err)
	}
	return nil
}

// ValidateVote checks a vote's shape and partial signature.
func (v *Validator) ValidateVote(vote *model.Vote) error {
	if !vote.Phase.Valid() {
		return model.NewInvalidVoteErrorf(vote, "undefined phase %d", vote.Phase)
	}
	err := v.verifier.VerifyVote(vote)
	if err != nil {
		if model.IsInvalidSignerError(err) {
			return model.NewInvalidVoteErrorf(vote, "voter is not a committee member: %w", err)
		}
		return err
	}
	return nil
}

// ValidateNewView checks a NewView message and its embedded high QC.
func (v *Validator) ValidateNewView(msg *model.NewViewMsg) error {
	if msg.View == 0 {
		return model.NewInvalidNewViewErrorf(msg, "view 0 cannot be entered via timeout")
	}
	err := v.verifier.VerifyNewView(msg)
	if err != nil {
		if model.IsInvalidSignerError(err) {
			return model.NewInvalidNewViewErrorf(msg, "sender is not a committee member: %w", err)
		}
		return err
	}
	return nil
}

// ValidateQC checks a stand-alone QC at the threshold implied by its phase.
func (v *Validator) ValidateQC(qc *model.QuorumCertificate) error {
	threshold := v.committee.QuorumThreshold()
	if qc.IsFast() {
		threshold = v.committee.FastThreshold()
	}
	return v.verifier.VerifyQC(qc, threshold)
}

// ValidateTC checks a timeout certificate.
func (v *Validator) ValidateTC(tc *model.TimeoutCertificate) error {
	return v.verifier.VerifyTC(tc, v.committee.QuorumThreshold())
}
