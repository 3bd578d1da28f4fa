package model

// Proposal is a block proposal as broadcast by the leader of the block's
// view. SigData is the proposer's Propose-phase vote signature for the block,
// which doubles as the proposal's authenticity proof. FastEligible is the
// leader's claim that its synchrony detector currently allows the fast path;
// replicas only honor it if their own detector agrees.
type Proposal struct {
	Block        *Block
	SigData      []byte
	FastEligible bool
	LastViewTC   *TimeoutCertificate // required when Block.QC is not for View-1
}

// ProposerVote extracts the proposer's vote from the proposal.
func (p *Proposal) ProposerVote() *Vote {
	return VoteFromProposal(p)
}

// NewViewMsg is a replica's signed announcement that it has abandoned the
// previous view, carrying its highest known QC. View is the view being
// entered; aggregating 2f+1 NewView messages for the same view forms the
// timeout certificate for View-1.
type NewViewMsg struct {
	View     uint64
	HighQC   *QuorumCertificate
	SignerID Identifier
	SigData  []byte
}

// ID returns the identifier for the NewView message.
func (nv *NewViewMsg) ID() Identifier {
	return MakeID(nv)
}
