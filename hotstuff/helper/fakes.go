package helper

import (
	"errors"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/storage"
)

// TrustedRoot returns the genesis block together with its sentinel
// certificate, the trusted root every test replica starts from.
func TrustedRoot() (*model.Block, *model.QuorumCertificate) {
	genesis := model.GenesisBlock()
	return genesis, model.GenesisQC(genesis)
}

// FakePersister is an in-memory persister. FailWrites simulates a broken
// disk: all writes error, which must keep the replica from voting.
type FakePersister struct {
	SafetyData   *model.SafetyData
	LivenessData *model.LivenessData
	SafetyWrites int
	FailWrites   bool
}

var _ hotstuff.Persister = (*FakePersister)(nil)

// NewFakePersister creates a persister holding the bootstrap state of a
// fresh replica.
func NewFakePersister(genesisQC *model.QuorumCertificate) *FakePersister {
	return &FakePersister{
		SafetyData: &model.SafetyData{},
		LivenessData: &model.LivenessData{
			CurrentView: 1,
			NewestQC:    genesisQC,
		},
	}
}

func (p *FakePersister) GetSafetyData() (*model.SafetyData, error) {
	data := *p.SafetyData
	return &data, nil
}

func (p *FakePersister) PutSafetyData(safetyData *model.SafetyData) error {
	if p.FailWrites {
		return errors.New("fake persister: write failed")
	}
	data := *safetyData
	p.SafetyData = &data
	p.SafetyWrites++
	return nil
}

func (p *FakePersister) GetLivenessData() (*model.LivenessData, error) {
	data := *p.LivenessData
	return &data, nil
}

func (p *FakePersister) PutLivenessData(livenessData *model.LivenessData) error {
	if p.FailWrites {
		return errors.New("fake persister: write failed")
	}
	data := *livenessData
	p.LivenessData = &data
	return nil
}

// FakeBlocks is an in-memory storage.Blocks double.
type FakeBlocks struct {
	ByIDMap     map[model.Identifier]*model.Block
	ByHeightMap map[uint64]model.Identifier
}

var _ storage.Blocks = (*FakeBlocks)(nil)

func NewFakeBlocks() *FakeBlocks {
	return &FakeBlocks{
		ByIDMap:     make(map[model.Identifier]*model.Block),
		ByHeightMap: make(map[uint64]model.Identifier),
	}
}

func (b *FakeBlocks) Store(block *model.Block) error {
	b.ByIDMap[block.BlockID] = block
	return nil
}

func (b *FakeBlocks) ByID(blockID model.Identifier) (*model.Block, error) {
	block, ok := b.ByIDMap[blockID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return block, nil
}

func (b *FakeBlocks) ByHeight(height uint64) (*model.Block, error) {
	blockID, ok := b.ByHeightMap[height]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b.ByID(blockID)
}

func (b *FakeBlocks) IndexHeight(height uint64, blockID model.Identifier) error {
	b.ByHeightMap[height] = blockID
	return nil
}

func (b *FakeBlocks) PruneBelowHeight(bound uint64) error {
	for blockID, block := range b.ByIDMap {
		if block.Height < bound && block.Height != 0 {
			delete(b.ByIDMap, blockID)
		}
	}
	return nil
}

// FakeQCs is an in-memory storage.QuorumCertificates double.
type FakeQCs struct {
	ByBlock map[model.Identifier]*model.QuorumCertificate
}

var _ storage.QuorumCertificates = (*FakeQCs)(nil)

func NewFakeQCs() *FakeQCs {
	return &FakeQCs{ByBlock: make(map[model.Identifier]*model.QuorumCertificate)}
}

func (q *FakeQCs) Store(qc *model.QuorumCertificate) error {
	existing, ok := q.ByBlock[qc.BlockID]
	if ok && existing.IsFast() && !qc.IsFast() {
		return nil
	}
	q.ByBlock[qc.BlockID] = qc
	return nil
}

func (q *FakeQCs) ByBlockID(blockID model.Identifier) (*model.QuorumCertificate, error) {
	qc, ok := q.ByBlock[blockID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return qc, nil
}

func (q *FakeQCs) PruneBelowView(bound uint64) error {
	for blockID, qc := range q.ByBlock {
		if qc.View < bound {
			delete(q.ByBlock, blockID)
		}
	}
	return nil
}

// FakeCommitted is an in-memory storage.Committed double.
type FakeCommitted struct {
	Height  uint64
	BlockID model.Identifier
	IsSet   bool
	Sets    []uint64
}

var _ storage.Committed = (*FakeCommitted)(nil)

func NewFakeCommitted() *FakeCommitted {
	return &FakeCommitted{}
}

func (c *FakeCommitted) Set(height uint64, blockID model.Identifier) error {
	if c.IsSet && height <= c.Height {
		return storage.ErrDataMismatch
	}
	c.Height = height
	c.BlockID = blockID
	c.IsSet = true
	c.Sets = append(c.Sets, height)
	return nil
}

func (c *FakeCommitted) Get() (uint64, model.Identifier, error) {
	if !c.IsSet {
		return 0, model.ZeroID, storage.ErrNotFound
	}
	return c.Height, c.BlockID, nil
}
