package model

// Vote is a replica's signed endorsement of one block in one (view, phase)
// bucket. SigData is the BLS partial signature over the domain-separated
// canonical vote message.
type Vote struct {
	View     uint64
	Phase    Phase
	BlockID  Identifier
	SignerID Identifier
	SigData  []byte
}

// ID returns the identifier for the vote.
func (v *Vote) ID() Identifier {
	return MakeID(v)
}

// VoteFromProposal extracts the proposer's own vote from a proposal. The
// proposer's signature over the proposal doubles as its Propose-phase vote,
// so leaders never send a separate vote for their own block.
func VoteFromProposal(proposal *Proposal) *Vote {
	return &Vote{
		View:     proposal.Block.View,
		Phase:    PhasePropose,
		BlockID:  proposal.Block.BlockID,
		SignerID: proposal.Block.ProposerID,
		SigData:  proposal.SigData,
	}
}
