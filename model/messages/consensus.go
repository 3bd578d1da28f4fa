package messages

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// The wire representations of the consensus messages. Field order is fixed
// by the struct definitions and the codec's deterministic encoding, so every
// replica produces byte-identical encodings for identical messages.
//
// Certificates travel in their internal form: QuorumCertificate and
// TimeoutCertificate contain only value types and the canonical signer bit
// vector, so no separate wire struct is needed.

// Proposal is the leader's block proposal for a view. The block itself is
// flattened into the message; the receiver recomputes the content address
// and discards proposals whose recomputed ID disagrees with any embedded
// reference.
type Proposal struct {
	View         uint64
	Height       uint64
	ParentID     model.Identifier
	ProposerID   model.Identifier
	PayloadHash  model.Identifier
	JustifyQC    *model.QuorumCertificate
	LastViewTC   *model.TimeoutCertificate
	FastEligible bool
	SigData      []byte
}

// ProposalFromInternal flattens an internal proposal for the wire.
func ProposalFromInternal(proposal *model.Proposal) *Proposal {
	block := proposal.Block
	return &Proposal{
		View:         block.View,
		Height:       block.Height,
		ParentID:     block.ParentID,
		ProposerID:   block.ProposerID,
		PayloadHash:  block.PayloadHash,
		JustifyQC:    block.QC,
		LastViewTC:   proposal.LastViewTC,
		FastEligible: proposal.FastEligible,
		SigData:      proposal.SigData,
	}
}

// ToInternal reconstructs the internal proposal, recomputing the block's
// content address from the received fields.
func (p *Proposal) ToInternal() *model.Proposal {
	block := model.NewBlock(p.ParentID, p.Height, p.View, p.ProposerID, p.PayloadHash, p.JustifyQC)
	return &model.Proposal{
		Block:        block,
		SigData:      p.SigData,
		FastEligible: p.FastEligible,
		LastViewTC:   p.LastViewTC,
	}
}

// Vote is a replica's vote for one block in one (view, phase) bucket.
type Vote struct {
	View    uint64
	Phase   model.Phase
	BlockID model.Identifier
	SigData []byte
}

// VoteFromInternal strips the signer: on the wire the origin is
// authenticated by the transport, and the signature pins the signer
// cryptographically during verification.
func VoteFromInternal(vote *model.Vote) *Vote {
	return &Vote{
		View:    vote.View,
		Phase:   vote.Phase,
		BlockID: vote.BlockID,
		SigData: vote.SigData,
	}
}

// ToInternal attaches the transport-level origin as the claimed signer.
func (v *Vote) ToInternal(originID model.Identifier) *model.Vote {
	return &model.Vote{
		View:     v.View,
		Phase:    v.Phase,
		BlockID:  v.BlockID,
		SignerID: originID,
		SigData:  v.SigData,
	}
}

// NewView is a replica's signed announcement that it abandoned the previous
// view, carrying its highest known QC.
type NewView struct {
	View    uint64
	HighQC  *model.QuorumCertificate
	SigData []byte
}

// NewViewFromInternal strips the signer for the wire.
func NewViewFromInternal(msg *model.NewViewMsg) *NewView {
	return &NewView{
		View:    msg.View,
		HighQC:  msg.HighQC,
		SigData: msg.SigData,
	}
}

// ToInternal attaches the transport-level origin as the claimed signer.
func (nv *NewView) ToInternal(originID model.Identifier) *model.NewViewMsg {
	return &model.NewViewMsg{
		View:     nv.View,
		HighQC:   nv.HighQC,
		SignerID: originID,
		SigData:  nv.SigData,
	}
}
