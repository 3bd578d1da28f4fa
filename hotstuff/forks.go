package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Forks is the in-memory block store and index of the consensus engine. It
// maintains all blocks above the committed height, the "extends" relation,
// and executes the commit rules: two consecutive QCs commit the first, and a
// fast-commit certificate commits its block immediately. Committed blocks
// are reported through the FinalizationConsumer in strict height order.
//
// Not concurrency safe: exclusively written by the single-threaded event
// processing; reads from other goroutines must go through the storage layer.
type Forks interface {

	// AddValidatedBlock appends a validated block to the store. Incorporating
	// the block's justify QC may advance the newest QC, the lock, and commit
	// ancestors. Expected errors during normal operation:
	//   - model.MissingBlockError if the parent is unknown and the block is
	//     not a direct child of the committed boundary
	//   - model.ErrViewBelowPruned for blocks at or below the committed height
	//   - model.DuplicateProposalError for a second block in the same view
	AddValidatedBlock(block *model.Block) error

	// AddCertificate incorporates a QC whose block is already known,
	// applying the commit rules. A certificate for an unknown block yields
	// model.MissingBlockError; the caller buffers and retries.
	AddCertificate(qc *model.QuorumCertificate) error

	// GetBlock returns the block with the given ID, if known.
	GetBlock(blockID model.Identifier) (*model.Block, bool)

	// GetBlocksForView returns all known blocks proposed for the given view.
	// More than one entry is proof of leader equivocation.
	GetBlocksForView(view uint64) []*model.Block

	// GetBlockByHeight returns the committed block at the given height, if
	// retained.
	GetBlockByHeight(height uint64) (*model.Block, bool)

	// Extends returns true iff ancestorID is on the parent chain of
	// descendantID, within the retained portion of the store.
	Extends(descendantID model.Identifier, ancestorID model.Identifier) bool

	// Ancestors returns up to depth ancestors of the given block, walking
	// the parent chain from the direct parent downwards. The walk stops
	// early at the retention boundary.
	Ancestors(blockID model.Identifier, depth uint64) []*model.Block

	// CertifiedQC returns the QC certifying the given block, if one was
	// incorporated.
	CertifiedQC(blockID model.Identifier) (*model.QuorumCertificate, bool)

	// NewestQC returns the highest-view QC incorporated so far.
	NewestQC() *model.QuorumCertificate

	// CommittedBlock returns the latest committed block.
	CommittedBlock() *model.Block

	// CommittedHeight returns the height of the latest committed block.
	CommittedHeight() uint64
}
