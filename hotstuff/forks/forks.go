package forks

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/storage"
)

// Forks is the arena-style, content-addressed block store and index of the
// consensus engine, holding all blocks from the committed boundary upward.
// Ownership of blocks and certificates lives here; every other component
// refers to them by hash.
//
// Forks executes both commit rules:
//   - regular path: two consecutive QCs (child's block extends parent's
//     block, child view ≥ parent view) commit the parent block;
//   - fast path: a fast-commit certificate commits its block immediately.
//
// Commits are reported to the FinalizationConsumer in strict height order
// with no gaps, each after its watermark was made durable. Committing is
// idempotent: targets at or below the committed height are ignored.
//
// Not concurrency safe: exclusively written by the event processing.
type Forks struct {
	log      zerolog.Logger
	notifier hotstuff.Consumer

	blocks       map[model.Identifier]*model.Block
	blocksByView map[uint64][]model.Identifier
	certified    map[model.Identifier]*model.QuorumCertificate // certifying QC per block
	committedAt  map[uint64]model.Identifier                   // height → committed block

	newestQC  *model.QuorumCertificate
	committed *model.Block
	genesisID model.Identifier

	retention uint64 // K: heights retained below the committed block

	// persistent backing
	storedBlocks storage.Blocks
	storedQCs    storage.QuorumCertificates
	watermark    storage.Committed
}

var _ hotstuff.Forks = (*Forks)(nil)

// New initializes Forks from the genesis block (or, after restarts, from the
// persisted committed block, which the caller passes as trusted root
// together with its certifying QC).
func New(
	log zerolog.Logger,
	notifier hotstuff.Consumer,
	trustedRoot *model.Block,
	rootQC *model.QuorumCertificate,
	retention uint64,
	storedBlocks storage.Blocks,
	storedQCs storage.QuorumCertificates,
	watermark storage.Committed,
) (*Forks, error) {
	if trustedRoot == nil || rootQC == nil {
		return nil, model.NewConfigurationErrorf("forks requires a trusted root block with certifying QC")
	}
	if rootQC.BlockID != trustedRoot.BlockID {
		return nil, model.NewConfigurationErrorf("root QC certifies %x, not the root block %x", rootQC.BlockID, trustedRoot.BlockID)
	}
	if retention < 2 {
		return nil, model.NewConfigurationErrorf("retention margin must be at least 2, got %d", retention)
	}

	f := &Forks{
		log:          log.With().Str("component", "forks").Logger(),
		notifier:     notifier,
		blocks:       make(map[model.Identifier]*model.Block),
		blocksByView: make(map[uint64][]model.Identifier),
		certified:    make(map[model.Identifier]*model.QuorumCertificate),
		committedAt:  make(map[uint64]model.Identifier),
		newestQC:     rootQC,
		committed:    trustedRoot,
		genesisID:    trustedRoot.BlockID,
		retention:    retention,
		storedBlocks: storedBlocks,
		storedQCs:    storedQCs,
		watermark:    watermark,
	}
	f.blocks[trustedRoot.BlockID] = trustedRoot
	f.blocksByView[trustedRoot.View] = []model.Identifier{trustedRoot.BlockID}
	f.certified[trustedRoot.BlockID] = rootQC
	f.committedAt[trustedRoot.Height] = trustedRoot.BlockID
	err := storedBlocks.Store(trustedRoot)
	if err != nil {
		return nil, fmt.Errorf("could not store trusted root: %w", err)
	}
	return f, nil
}

// AddValidatedBlock appends a validated block to the store and incorporates
// its justification.
func (f *Forks) AddValidatedBlock(block *model.Block) error {
	if _, known := f.blocks[block.BlockID]; known {
		return nil // idempotent by hash
	}
	if block.Height <= f.committed.Height {
		return fmt.Errorf("block %x at height %d is at or below committed height %d: %w",
			block.BlockID, block.Height, f.committed.Height, model.ErrViewBelowPruned)
	}

	parent, known := f.blocks[block.ParentID]
	if !known {
		return model.MissingBlockError{View: block.View, BlockID: block.ParentID}
	}
	if block.Height != parent.Height+1 {
		return fmt.Errorf("block %x has height %d but parent %x has height %d", block.BlockID, block.Height, block.ParentID, parent.Height)
	}

	// a second block for the same view is proof of leader equivocation
	if others := f.blocksByView[block.View]; len(others) > 0 {
		first := f.blocks[others[0]]
		f.notifier.OnDoubleProposeDetected(first, block)
		return model.DuplicateProposalError{
			FirstBlockID:     first.BlockID,
			DuplicateBlockID: block.BlockID,
			View:             block.View,
		}
	}

	err := f.storedBlocks.Store(block)
	if err != nil {
		return fmt.Errorf("could not persist block %x: %w", block.BlockID, err)
	}
	f.blocks[block.BlockID] = block
	f.blocksByView[block.View] = append(f.blocksByView[block.View], block.BlockID)
	f.notifier.OnBlockIncorporated(block)

	// the embedded justification certifies the parent (or an ancestor)
	if block.QC != nil {
		err = f.AddCertificate(block.QC)
		if err != nil && !model.IsMissingBlockError(err) {
			return fmt.Errorf("could not incorporate justification of block %x: %w", block.BlockID, err)
		}
	}
	return nil
}

// AddCertificate incorporates a QC whose block is already known and applies
// the commit rules.
func (f *Forks) AddCertificate(qc *model.QuorumCertificate) error {
	if qc == nil {
		return nil
	}
	block, known := f.blocks[qc.BlockID]
	if !known {
		if qc.View <= f.committed.View {
			return nil // stale certificate for a pruned block
		}
		return model.MissingBlockError{View: qc.View, BlockID: qc.BlockID}
	}

	existing, hasCert := f.certified[qc.BlockID]
	if hasCert && (existing.IsFast() || !qc.IsFast()) {
		return nil // nothing new: certificates are single-shot per bucket
	}

	err := f.storedQCs.Store(qc)
	if err != nil {
		return fmt.Errorf("could not persist QC for block %x: %w", qc.BlockID, err)
	}
	f.certified[qc.BlockID] = qc
	if f.newestQC == nil || qc.View > f.newestQC.View {
		f.newestQC = qc
	}

	if qc.IsFast() {
		// fast path: the certificate alone commits its block
		return f.commitChain(block)
	}

	// regular path, rule applied in both directions so certificate arrival
	// order does not matter:
	// (1) qc certifies `block`; together with the parent's QC it may commit
	//     the parent
	if parentQC, ok := f.certified[block.ParentID]; ok {
		if model.Consecutive(parentQC, qc, block) {
			parent := f.blocks[block.ParentID]
			err = f.commitChain(parent)
			if err != nil {
				return err
			}
		}
	}
	// (2) a child certified earlier may now complete a pair with qc
	for childID, childQC := range f.certified {
		child, ok := f.blocks[childID]
		if !ok || child.ParentID != qc.BlockID {
			continue
		}
		if model.Consecutive(qc, childQC, child) {
			return f.commitChain(block)
		}
	}
	return nil
}

// commitChain commits the target block and all its uncommitted ancestors, in
// ascending height order. Idempotent for targets at or below the committed
// height.
func (f *Forks) commitChain(target *model.Block) error {
	if target.Height <= f.committed.Height {
		return nil
	}

	// walk down to the committed boundary, then emit upwards
	chain := make([]*model.Block, 0, target.Height-f.committed.Height)
	for b := target; b.Height > f.committed.Height; {
		chain = append(chain, b)
		parent, ok := f.blocks[b.ParentID]
		if !ok {
			return fmt.Errorf("committed chain broken: missing ancestor %x of block %x", b.ParentID, b.BlockID)
		}
		b = parent
	}
	// the walk must land exactly on the committed block, otherwise two
	// conflicting blocks were committed at the same height and the
	// Byzantine threshold is exceeded
	if chain[len(chain)-1].ParentID != f.committed.BlockID {
		return model.ByzantineThresholdExceededError{Evidence: fmt.Sprintf(
			"commit target %x at height %d conflicts with committed block %x",
			target.BlockID, target.Height, f.committed.BlockID)}
	}

	for i := len(chain) - 1; i >= 0; i-- {
		b := chain[i]
		// watermark durability gates the notification
		err := f.watermark.Set(b.Height, b.BlockID)
		if err != nil {
			return fmt.Errorf("could not persist commit watermark at height %d: %w", b.Height, err)
		}
		err = f.storedBlocks.IndexHeight(b.Height, b.BlockID)
		if err != nil {
			return fmt.Errorf("could not index committed height %d: %w", b.Height, err)
		}
		f.committed = b
		f.committedAt[b.Height] = b.BlockID
		f.log.Info().
			Uint64("height", b.Height).
			Uint64("view", b.View).
			Hex("block_id", b.BlockID[:]).
			Msg("block committed")
		f.notifier.OnCommittedBlock(b)
	}

	return f.prune()
}

// prune discards blocks and certificates below committedHeight - K. The
// genesis block is never pruned.
func (f *Forks) prune() error {
	if f.committed.Height < f.retention {
		return nil
	}
	bound := f.committed.Height - f.retention
	for id, block := range f.blocks {
		if block.Height >= bound || id == f.genesisID {
			continue
		}
		delete(f.blocks, id)
		delete(f.certified, id)
		f.removeViewIndex(block.View, id)
		if f.committedAt[block.Height] == id {
			delete(f.committedAt, block.Height)
		}
	}
	// non-committed siblings above the bound but below the committed height
	// can no longer be committed either
	for id, block := range f.blocks {
		if id == f.genesisID || block.Height > f.committed.Height {
			continue
		}
		if f.committedAt[block.Height] != id {
			delete(f.blocks, id)
			delete(f.certified, id)
			f.removeViewIndex(block.View, id)
		}
	}
	err := f.storedBlocks.PruneBelowHeight(bound)
	if err != nil {
		return fmt.Errorf("could not prune stored blocks below height %d: %w", bound, err)
	}
	err = f.storedQCs.PruneBelowView(f.lowestRetainedView())
	if err != nil {
		return fmt.Errorf("could not prune stored QCs: %w", err)
	}
	return nil
}

func (f *Forks) lowestRetainedView() uint64 {
	lowest := f.committed.View
	for _, block := range f.blocks {
		if block.View < lowest {
			lowest = block.View
		}
	}
	return lowest
}

func (f *Forks) removeViewIndex(view uint64, blockID model.Identifier) {
	ids := f.blocksByView[view]
	for i, id := range ids {
		if id == blockID {
			f.blocksByView[view] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(f.blocksByView[view]) == 0 {
		delete(f.blocksByView, view)
	}
}

// GetBlock returns the block with the given ID, if known.
func (f *Forks) GetBlock(blockID model.Identifier) (*model.Block, bool) {
	block, ok := f.blocks[blockID]
	return block, ok
}

// GetBlocksForView returns all known blocks proposed for the given view.
func (f *Forks) GetBlocksForView(view uint64) []*model.Block {
	ids := f.blocksByView[view]
	blocks := make([]*model.Block, 0, len(ids))
	for _, id := range ids {
		blocks = append(blocks, f.blocks[id])
	}
	return blocks
}

// GetBlockByHeight returns the committed block at the given height, if
// retained.
func (f *Forks) GetBlockByHeight(height uint64) (*model.Block, bool) {
	id, ok := f.committedAt[height]
	if !ok {
		return nil, false
	}
	block, ok := f.blocks[id]
	return block, ok
}

// Extends returns true iff ancestorID is on the parent chain of
// descendantID within the retained portion of the store.
func (f *Forks) Extends(descendantID model.Identifier, ancestorID model.Identifier) bool {
	current, ok := f.blocks[descendantID]
	if !ok {
		return false
	}
	for {
		if current.BlockID == ancestorID {
			return true
		}
		parent, ok := f.blocks[current.ParentID]
		if !ok {
			return false
		}
		current = parent
	}
}

// Ancestors returns up to depth ancestors of the given block, direct parent
// first. The walk stops early at the retention boundary.
func (f *Forks) Ancestors(blockID model.Identifier, depth uint64) []*model.Block {
	ancestors := make([]*model.Block, 0, depth)
	current, ok := f.blocks[blockID]
	if !ok {
		return ancestors
	}
	for uint64(len(ancestors)) < depth {
		parent, ok := f.blocks[current.ParentID]
		if !ok {
			break
		}
		ancestors = append(ancestors, parent)
		current = parent
	}
	return ancestors
}

// CertifiedQC returns the QC certifying the given block, if incorporated.
func (f *Forks) CertifiedQC(blockID model.Identifier) (*model.QuorumCertificate, bool) {
	qc, ok := f.certified[blockID]
	return qc, ok
}

// NewestQC returns the highest-view QC incorporated so far.
func (f *Forks) NewestQC() *model.QuorumCertificate {
	return f.newestQC
}

// CommittedBlock returns the latest committed block.
func (f *Forks) CommittedBlock() *model.Block {
	return f.committed
}

// CommittedHeight returns the height of the latest committed block.
func (f *Forks) CommittedHeight() uint64 {
	return f.committed.Height
}
