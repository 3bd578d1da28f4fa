package verification

import (
	"fmt"

	"github.com/onflow/flow-go/crypto"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	msig "github.com/altair-bft/hotstuff2/module/signature"
)

// BLSSigner produces this replica's partial signatures with the replica's
// BLS private key. Signing is deterministic; the signer holds only immutable
// key material and is safe for concurrent use.
type BLSSigner struct {
	nodeID     model.Identifier
	privateKey crypto.PrivateKey
}

var _ hotstuff.Signer = (*BLSSigner)(nil)

// NewBLSSigner creates a signer for the given node. Errors if the key is not
// a BLS key.
func NewBLSSigner(nodeID model.Identifier, privateKey crypto.PrivateKey) (*BLSSigner, error) {
	if privateKey == nil || privateKey.Algorithm() != crypto.BLSBLS12381 {
		return nil, model.NewConfigurationErrorf("signer requires a BLS private key")
	}
	return &BLSSigner{
		nodeID:     nodeID,
		privateKey: privateKey,
	}, nil
}

// CreateVote signs a vote for the block in the given phase.
func (s *BLSSigner) CreateVote(block *model.Block, phase model.Phase) (*model.Vote, error) {
	if !phase.Valid() {
		return nil, fmt.Errorf("cannot sign vote for undefined phase %d", phase)
	}
	msg := MakeVoteMessage(block.View, phase, block.BlockID)
	sig, err := s.privateKey.Sign(msg, msig.NewBLSHasher(TagForPhase(phase)))
	if err != nil {
		return nil, fmt.Errorf("could not sign %s vote for block %x: %w", phase, block.BlockID, err)
	}
	return &model.Vote{
		View:     block.View,
		Phase:    phase,
		BlockID:  block.BlockID,
		SignerID: s.nodeID,
		SigData:  sig,
	}, nil
}

// CreateProposal signs a block this replica proposes. The proposal signature
// is the proposer's Propose-phase vote.
func (s *BLSSigner) CreateProposal(block *model.Block, fastEligible bool, lastViewTC *model.TimeoutCertificate) (*model.Proposal, error) {
	if block.ProposerID != s.nodeID {
		return nil, fmt.Errorf("cannot sign proposal for block proposed by %x", block.ProposerID)
	}
	vote, err := s.CreateVote(block, model.PhasePropose)
	if err != nil {
		return nil, fmt.Errorf("could not sign proposal: %w", err)
	}
	return &model.Proposal{
		Block:        block,
		SigData:      vote.SigData,
		FastEligible: fastEligible,
		LastViewTC:   lastViewTC,
	}, nil
}

// CreateNewView signs a NewView message entering the given view.
func (s *BLSSigner) CreateNewView(view uint64, highQC *model.QuorumCertificate) (*model.NewViewMsg, error) {
	sig, err := s.privateKey.Sign(MakeNewViewMessage(view), msig.NewBLSHasher(msig.NewViewTag))
	if err != nil {
		return nil, fmt.Errorf("could not sign NewView for view %d: %w", view, err)
	}
	return &model.NewViewMsg{
		View:     view,
		HighQC:   highQC,
		SignerID: s.nodeID,
		SigData:  sig,
	}, nil
}
