package storage

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Blocks is the persistent store of consensus blocks. Writes are durable
// when the call returns. Blocks below the retention boundary are pruned; the
// genesis block is never pruned.
type Blocks interface {
	// Store persists the block, idempotent by ID.
	Store(block *model.Block) error

	// ByID returns the block with the given ID.
	// Returns ErrNotFound if unknown or pruned.
	ByID(blockID model.Identifier) (*model.Block, error)

	// ByHeight returns the committed block at the given height.
	// Returns ErrNotFound if the height is uncommitted or pruned.
	ByHeight(height uint64) (*model.Block, error)

	// IndexHeight marks the block as the committed block of its height.
	IndexHeight(height uint64, blockID model.Identifier) error

	// PruneBelowHeight removes all blocks (and their height indices) with a
	// height strictly below the bound, except genesis.
	PruneBelowHeight(bound uint64) error
}

// QuorumCertificates is the persistent store of quorum certificates, keyed
// by the certified block.
type QuorumCertificates interface {
	// Store persists the certificate, idempotent per block; a fast
	// certificate replaces a regular one for the same block.
	Store(qc *model.QuorumCertificate) error

	// ByBlockID returns the certificate certifying the given block.
	// Returns ErrNotFound if none is stored.
	ByBlockID(blockID model.Identifier) (*model.QuorumCertificate, error)

	// PruneBelowView removes certificates with a view strictly below bound.
	PruneBelowView(bound uint64) error
}

// Committed tracks the commit watermark. The watermark is durable before the
// corresponding commit notification reaches the host, so recovery never
// replays or skips a commit.
type Committed interface {
	// Set advances the watermark; it must be called with strictly
	// increasing heights.
	Set(height uint64, blockID model.Identifier) error

	// Get returns the current watermark.
	// Returns ErrNotFound before the first commit was recorded.
	Get() (uint64, model.Identifier, error)
}
