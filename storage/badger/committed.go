package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/storage"
	"github.com/altair-bft/hotstuff2/storage/badger/operation"
)

// Committed implements the durable commit watermark. Set must be called with
// strictly increasing heights; the write is durable before it returns, so a
// commit notification is never released for a watermark that could be lost.
type Committed struct {
	db *badger.DB
}

var _ storage.Committed = (*Committed)(nil)

// NewCommitted creates the watermark store.
func NewCommitted(db *badger.DB) *Committed {
	return &Committed{db: db}
}

// Set advances the watermark.
func (c *Committed) Set(height uint64, blockID model.Identifier) error {
	err := operation.RetryOnConflict(c.db.Update, func(tx *badger.Txn) error {
		var prevHeight uint64
		var prevID model.Identifier
		err := operation.RetrieveCommitted(&prevHeight, &prevID)(tx)
		if err == nil && height <= prevHeight {
			return fmt.Errorf("watermark at height %d cannot regress to %d: %w", prevHeight, height, storage.ErrDataMismatch)
		}
		return operation.UpsertCommitted(height, blockID)(tx)
	})
	if err != nil {
		return fmt.Errorf("could not set commit watermark to height %d: %w", height, err)
	}
	return nil
}

// Get returns the current watermark.
func (c *Committed) Get() (uint64, model.Identifier, error) {
	var height uint64
	var blockID model.Identifier
	err := c.db.View(operation.RetrieveCommitted(&height, &blockID))
	if err != nil {
		return 0, model.ZeroID, err
	}
	return height, blockID, nil
}
