package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/storage"
	"github.com/altair-bft/hotstuff2/storage/badger/operation"
)

// QuorumCertificates implements the persistent QC store, keyed by the
// certified block. A fast certificate replaces a regular one for the same
// block; the reverse never happens (the fast certificate carries a signer
// set at least as large).
type QuorumCertificates struct {
	db *badger.DB
}

var _ storage.QuorumCertificates = (*QuorumCertificates)(nil)

// NewQuorumCertificates creates the QC store.
func NewQuorumCertificates(db *badger.DB) *QuorumCertificates {
	return &QuorumCertificates{db: db}
}

// Store persists the certificate, idempotent per block.
func (q *QuorumCertificates) Store(qc *model.QuorumCertificate) error {
	err := operation.RetryOnConflict(q.db.Update, func(tx *badger.Txn) error {
		var existing model.QuorumCertificate
		err := operation.RetrieveQuorumCertificate(qc.BlockID, &existing)(tx)
		if err == nil && existing.IsFast() && !qc.IsFast() {
			return nil // never downgrade a fast certificate
		}
		err = operation.UpsertQuorumCertificate(qc)(tx)
		if err != nil {
			return err
		}
		return operation.IndexQuorumCertificateView(qc.View, qc.BlockID)(tx)
	})
	if err != nil {
		return fmt.Errorf("could not store QC for block %x: %w", qc.BlockID, err)
	}
	return nil
}

// ByBlockID returns the certificate certifying the given block.
func (q *QuorumCertificates) ByBlockID(blockID model.Identifier) (*model.QuorumCertificate, error) {
	var qc model.QuorumCertificate
	err := q.db.View(operation.RetrieveQuorumCertificate(blockID, &qc))
	if err != nil {
		return nil, err
	}
	return &qc, nil
}

// PruneBelowView removes certificates with a view strictly below the bound.
func (q *QuorumCertificates) PruneBelowView(bound uint64) error {
	return operation.RetryOnConflict(q.db.Update, func(tx *badger.Txn) error {
		var stale []model.Identifier
		err := operation.IterateQuorumCertificates(func(qc *model.QuorumCertificate) error {
			if qc.View < bound {
				stale = append(stale, qc.BlockID)
			}
			return nil
		})(tx)
		if err != nil {
			return fmt.Errorf("could not scan QCs for pruning: %w", err)
		}
		for _, blockID := range stale {
			err = operation.RemoveQuorumCertificate(blockID)(tx)
			if err != nil {
				return fmt.Errorf("could not remove QC for block %x: %w", blockID, err)
			}
		}
		return nil
	})
}
