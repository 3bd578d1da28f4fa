package blockproducer

import (
	"fmt"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/mempool"
)

// BlockProducer assembles and signs block proposals on top of the block
// certified by the justifying QC, pulling the body from the mempool.
type BlockProducer struct {
	signer       hotstuff.Signer
	committee    hotstuff.Replicas
	forks        hotstuff.Forks
	bodyProducer mempool.BodyProducer
	maxBodyBytes int
}

var _ hotstuff.BlockProducer = (*BlockProducer)(nil)

// New creates a BlockProducer.
func New(
	signer hotstuff.Signer,
	committee hotstuff.Replicas,
	forks hotstuff.Forks,
	bodyProducer mempool.BodyProducer,
	maxBodyBytes int,
) (*BlockProducer, error) {
	if maxBodyBytes <= 0 {
		return nil, model.NewConfigurationErrorf("max body bytes must be positive, got %d", maxBodyBytes)
	}
	return &BlockProducer{
		signer:       signer,
		committee:    committee,
		forks:        forks,
		bodyProducer: bodyProducer,
		maxBodyBytes: maxBodyBytes,
	}, nil
}

// MakeBlockProposal builds the proposal for the given view, justified by qc.
func (p *BlockProducer) MakeBlockProposal(qc *model.QuorumCertificate, view uint64, lastViewTC *model.TimeoutCertificate, fastEligible bool) (*model.Proposal, error) {
	parent, ok := p.forks.GetBlock(qc.BlockID)
	if !ok {
		return nil, fmt.Errorf("cannot propose on top of unknown block %x: %w",
			qc.BlockID, model.MissingBlockError{View: qc.View, BlockID: qc.BlockID})
	}

	payloadHash, _, err := p.bodyProducer.ProposeBody(p.maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("could not assemble block body: %w", err)
	}

	block := model.NewBlock(parent.BlockID, parent.Height+1, view, p.committee.Self(), payloadHash, qc)
	proposal, err := p.signer.CreateProposal(block, fastEligible, lastViewTC)
	if err != nil {
		return nil, fmt.Errorf("could not sign proposal for view %d: %w", view, err)
	}
	return proposal, nil
}
