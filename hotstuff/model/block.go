package model

// Block is the consensus engine's concept of a block: the header fields the
// protocol votes on. The body itself is owned by the mempool collaborator and
// referenced through PayloadHash.
type Block struct {
	BlockID     Identifier
	ParentID    Identifier
	Height      uint64
	View        uint64
	ProposerID  Identifier
	PayloadHash Identifier
	QC          *QuorumCertificate // justification for the proposal; QC for the parent or an ancestor
}

// blockBody is the canonical form hashed to derive the block identifier. The
// justify QC is bound through its own ID so the identifier commits to the
// exact certificate embedded by the proposer.
type blockBody struct {
	ParentID    Identifier
	Height      uint64
	View        uint64
	ProposerID  Identifier
	PayloadHash Identifier
	JustifyID   Identifier
}

// NewBlock constructs a block and computes its content address.
func NewBlock(parentID Identifier, height uint64, view uint64, proposerID Identifier, payloadHash Identifier, justify *QuorumCertificate) *Block {
	block := &Block{
		ParentID:    parentID,
		Height:      height,
		View:        view,
		ProposerID:  proposerID,
		PayloadHash: payloadHash,
		QC:          justify,
	}
	block.BlockID = block.computeID()
	return block
}

func (b *Block) computeID() Identifier {
	body := blockBody{
		ParentID:    b.ParentID,
		Height:      b.Height,
		View:        b.View,
		ProposerID:  b.ProposerID,
		PayloadHash: b.PayloadHash,
	}
	if b.QC != nil {
		body.JustifyID = b.QC.ID()
	}
	return MakeID(body)
}

// GenesisBlock returns the block every replica starts from. It carries no
// justification and is never pruned.
func GenesisBlock() *Block {
	block := &Block{
		ParentID:    ZeroID,
		Height:      0,
		View:        0,
		ProposerID:  ZeroID,
		PayloadHash: ZeroID,
		QC:          nil,
	}
	block.BlockID = block.computeID()
	return block
}

// CertifiedBlock is a block together with a QC pointing to it. A certified
// block satisfies Block.View == QC.View and Block.BlockID == QC.BlockID.
type CertifiedBlock struct {
	Block        *Block
	CertifyingQC *QuorumCertificate
}

// ID returns the unique identifier for the block. To avoid repeated
// computation, we use the value from the QC.
func (b *CertifiedBlock) ID() Identifier {
	return b.CertifyingQC.BlockID
}

// View returns the view in which the block was proposed.
func (b *CertifiedBlock) View() uint64 {
	return b.Block.View
}

// Height returns the height of the block.
func (b *CertifiedBlock) Height() uint64 {
	return b.Block.Height
}
