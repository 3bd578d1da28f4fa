package persister

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/storage"
	"github.com/altair-bft/hotstuff2/storage/badger/operation"
)

// Persister persists the safety and liveness data of the replica in badger.
// Writes are synchronous: when a Put returns, the data is durable, which is
// what allows SafetyRules to release votes after persisting. Both records
// are single-key upserts, so each write is atomic.
type Persister struct {
	db *badger.DB
}

var _ hotstuff.Persister = (*Persister)(nil)

// New creates a persister backed by the given database handle. The database
// must be opened with synchronous writes enabled; a persister on top of an
// asynchronous database silently voids the safety guarantees.
func New(db *badger.DB) *Persister {
	return &Persister{db: db}
}

// GetSafetyData retrieves the last persisted safety data.
func (p *Persister) GetSafetyData() (*model.SafetyData, error) {
	var safetyData model.SafetyData
	err := p.db.View(operation.RetrieveSafetyData(&safetyData))
	if err != nil {
		return nil, err
	}
	return &safetyData, nil
}

// GetLivenessData retrieves the last persisted liveness data.
func (p *Persister) GetLivenessData() (*model.LivenessData, error) {
	var livenessData model.LivenessData
	err := p.db.View(operation.RetrieveLivenessData(&livenessData))
	if err != nil {
		return nil, err
	}
	return &livenessData, nil
}

// PutSafetyData persists the safety data.
func (p *Persister) PutSafetyData(safetyData *model.SafetyData) error {
	return operation.RetryOnConflict(p.db.Update, operation.UpdateSafetyData(safetyData))
}

// PutLivenessData persists the liveness data.
func (p *Persister) PutLivenessData(livenessData *model.LivenessData) error {
	return operation.RetryOnConflict(p.db.Update, operation.UpdateLivenessData(livenessData))
}

// Bootstrap initializes the database for a fresh replica: safety data with
// no votes cast, liveness data entering view 1 with the genesis certificate.
// Idempotent; an already bootstrapped database is left untouched.
func Bootstrap(db *badger.DB, genesisQC *model.QuorumCertificate) error {
	safetyData := &model.SafetyData{
		LockedQC:        nil, // nil stands for the genesis certificate
		LastVotedView:   0,
		LastTimeoutView: 0,
	}
	livenessData := &model.LivenessData{
		CurrentView: 1,
		NewestQC:    genesisQC,
	}
	err := operation.RetryOnConflict(db.Update, operation.InsertSafetyData(safetyData))
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("could not bootstrap safety data: %w", err)
	}
	err = operation.RetryOnConflict(db.Update, operation.InsertLivenessData(livenessData))
	if err != nil {
		return fmt.Errorf("could not bootstrap liveness data: %w", err)
	}
	return nil
}
