package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/storage"
	"github.com/altair-bft/hotstuff2/storage/badger/operation"
)

// Blocks implements the persistent block store on top of badger. Blocks are
// keyed by their content address; committed heights are additionally indexed
// so the host can walk the committed chain after a restart.
type Blocks struct {
	db        *badger.DB
	genesisID model.Identifier
}

var _ storage.Blocks = (*Blocks)(nil)

// NewBlocks creates the block store. genesisID marks the one block that is
// never pruned.
func NewBlocks(db *badger.DB, genesisID model.Identifier) *Blocks {
	return &Blocks{
		db:        db,
		genesisID: genesisID,
	}
}

// Store persists the block, idempotent by ID.
func (b *Blocks) Store(block *model.Block) error {
	err := operation.RetryOnConflict(b.db.Update, operation.UpsertBlock(block.BlockID, block))
	if err != nil {
		return fmt.Errorf("could not store block %x: %w", block.BlockID, err)
	}
	return nil
}

// ByID returns the block with the given ID.
func (b *Blocks) ByID(blockID model.Identifier) (*model.Block, error) {
	var block model.Block
	err := b.db.View(operation.RetrieveBlock(blockID, &block))
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// ByHeight returns the committed block at the given height.
func (b *Blocks) ByHeight(height uint64) (*model.Block, error) {
	var blockID model.Identifier
	err := b.db.View(operation.LookupBlockHeight(height, &blockID))
	if err != nil {
		return nil, err
	}
	return b.ByID(blockID)
}

// IndexHeight marks the block as the committed block of its height.
func (b *Blocks) IndexHeight(height uint64, blockID model.Identifier) error {
	err := operation.RetryOnConflict(b.db.Update, operation.IndexBlockHeight(height, blockID))
	if err != nil {
		return fmt.Errorf("could not index height %d: %w", height, err)
	}
	return nil
}

// PruneBelowHeight removes all blocks with a height strictly below the
// bound, except genesis, together with their height indices.
func (b *Blocks) PruneBelowHeight(bound uint64) error {
	return operation.RetryOnConflict(b.db.Update, func(tx *badger.Txn) error {
		var stale []model.Identifier
		err := operation.IterateBlocks(func(block *model.Block) error {
			if block.Height < bound && block.BlockID != b.genesisID {
				stale = append(stale, block.BlockID)
			}
			return nil
		})(tx)
		if err != nil {
			return fmt.Errorf("could not scan blocks for pruning: %w", err)
		}
		for _, blockID := range stale {
			err = operation.RemoveBlock(blockID)(tx)
			if err != nil {
				return fmt.Errorf("could not remove block %x: %w", blockID, err)
			}
		}
		for height := uint64(0); height < bound; height++ {
			var blockID model.Identifier
			err = operation.LookupBlockHeight(height, &blockID)(tx)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("could not look up height %d: %w", height, err)
			}
			if blockID == b.genesisID {
				continue
			}
			err = operation.RemoveBlockHeight(height)(tx)
			if err != nil {
				return fmt.Errorf("could not remove height index %d: %w", height, err)
			}
		}
		return nil
	})
}
