package helper

import (
	"sync"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/hotstuff/notifications"
)

// RecordingConsumer records the protocol notifications relevant for
// assertions: commits in order, incorporated blocks and Byzantine evidence.
// Concurrency safe.
type RecordingConsumer struct {
	notifications.NoopConsumer

	mu            sync.Mutex
	Committed     []*model.Block
	Incorporated  []*model.Block
	DoubleVotes   [][2]*model.Vote
	DoublePropose [][2]*model.Block
	FastQCs       []*model.QuorumCertificate
	RegularQCs    []*model.QuorumCertificate
	TCs           []*model.TimeoutCertificate
	EnteredViews  []uint64
}

var _ hotstuff.Consumer = (*RecordingConsumer)(nil)

func NewRecordingConsumer() *RecordingConsumer {
	return &RecordingConsumer{}
}

func (c *RecordingConsumer) OnCommittedBlock(block *model.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Committed = append(c.Committed, block)
}

func (c *RecordingConsumer) OnBlockIncorporated(block *model.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Incorporated = append(c.Incorporated, block)
}

func (c *RecordingConsumer) OnDoubleVotingDetected(first *model.Vote, conflicting *model.Vote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DoubleVotes = append(c.DoubleVotes, [2]*model.Vote{first, conflicting})
}

func (c *RecordingConsumer) OnDoubleProposeDetected(first *model.Block, conflicting *model.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DoublePropose = append(c.DoublePropose, [2]*model.Block{first, conflicting})
}

func (c *RecordingConsumer) OnQcConstructedFromVotes(qc *model.QuorumCertificate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RegularQCs = append(c.RegularQCs, qc)
}

func (c *RecordingConsumer) OnFastQcConstructed(qc *model.QuorumCertificate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FastQCs = append(c.FastQCs, qc)
}

func (c *RecordingConsumer) OnTcConstructed(tc *model.TimeoutCertificate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TCs = append(c.TCs, tc)
}

func (c *RecordingConsumer) OnEnteringView(view uint64, _ model.Identifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EnteredViews = append(c.EnteredViews, view)
}

// CommittedBlocks returns a snapshot of all recorded commits, in
// notification order.
func (c *RecordingConsumer) CommittedBlocks() []*model.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.Block(nil), c.Committed...)
}

// IncorporatedBlocks returns a snapshot of all incorporated blocks.
func (c *RecordingConsumer) IncorporatedBlocks() []*model.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.Block(nil), c.Incorporated...)
}

// DoubleVotePairs returns a snapshot of the recorded equivocation pairs.
func (c *RecordingConsumer) DoubleVotePairs() [][2]*model.Vote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][2]*model.Vote(nil), c.DoubleVotes...)
}

// TCCount returns the number of timeout certificates observed.
func (c *RecordingConsumer) TCCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.TCs)
}

// FastQCCount returns the number of fast certificates observed.
func (c *RecordingConsumer) FastQCCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.FastQCs)
}

// CommittedHeights returns the heights of all recorded commits, in
// notification order.
func (c *RecordingConsumer) CommittedHeights() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	heights := make([]uint64, 0, len(c.Committed))
	for _, block := range c.Committed {
		heights = append(heights, block.Height)
	}
	return heights
}

// CommittedAt returns the recorded committed block at the given height, if
// any.
func (c *RecordingConsumer) CommittedAt(height uint64) (*model.Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, block := range c.Committed {
		if block.Height == height {
			return block, true
		}
	}
	return nil, false
}
