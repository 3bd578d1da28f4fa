package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// InsertSafetyData writes the initial safety data; errors if some exists.
func InsertSafetyData(safetyData *model.SafetyData) func(*badger.Txn) error {
	return insert(makePrefix(codeSafetyData), safetyData)
}

// UpdateSafetyData overwrites the persisted safety data.
func UpdateSafetyData(safetyData *model.SafetyData) func(*badger.Txn) error {
	return upsert(makePrefix(codeSafetyData), safetyData)
}

// RetrieveSafetyData reads the persisted safety data.
func RetrieveSafetyData(safetyData *model.SafetyData) func(*badger.Txn) error {
	return retrieve(makePrefix(codeSafetyData), safetyData)
}

// InsertLivenessData writes the initial liveness data; errors if some exists.
func InsertLivenessData(livenessData *model.LivenessData) func(*badger.Txn) error {
	return insert(makePrefix(codeLivenessData), livenessData)
}

// UpdateLivenessData overwrites the persisted liveness data.
func UpdateLivenessData(livenessData *model.LivenessData) func(*badger.Txn) error {
	return upsert(makePrefix(codeLivenessData), livenessData)
}

// RetrieveLivenessData reads the persisted liveness data.
func RetrieveLivenessData(livenessData *model.LivenessData) func(*badger.Txn) error {
	return retrieve(makePrefix(codeLivenessData), livenessData)
}

// UpsertBlock writes the block under its ID. Blocks are content addressed,
// so overwriting is harmless.
func UpsertBlock(blockID model.Identifier, block *model.Block) func(*badger.Txn) error {
	return upsert(makePrefix(codeBlock, blockID), block)
}

// RetrieveBlock reads the block with the given ID.
func RetrieveBlock(blockID model.Identifier, block *model.Block) func(*badger.Txn) error {
	return retrieve(makePrefix(codeBlock, blockID), block)
}

// RemoveBlock deletes the block with the given ID.
func RemoveBlock(blockID model.Identifier) func(*badger.Txn) error {
	return remove(makePrefix(codeBlock, blockID))
}

// IndexBlockHeight records the block as the committed block of its height.
func IndexBlockHeight(height uint64, blockID model.Identifier) func(*badger.Txn) error {
	return upsert(makePrefix(codeHeightToBlock, height), blockID)
}

// LookupBlockHeight reads the ID of the committed block at the given height.
func LookupBlockHeight(height uint64, blockID *model.Identifier) func(*badger.Txn) error {
	return retrieve(makePrefix(codeHeightToBlock, height), blockID)
}

// RemoveBlockHeight deletes the height index entry.
func RemoveBlockHeight(height uint64) func(*badger.Txn) error {
	return remove(makePrefix(codeHeightToBlock, height))
}

// UpsertQuorumCertificate writes the certificate for its block, replacing
// any prior certificate for the same block.
func UpsertQuorumCertificate(qc *model.QuorumCertificate) func(*badger.Txn) error {
	return upsert(makePrefix(codeQuorumCert, qc.BlockID), qc)
}

// RetrieveQuorumCertificate reads the certificate certifying the given
// block.
func RetrieveQuorumCertificate(blockID model.Identifier, qc *model.QuorumCertificate) func(*badger.Txn) error {
	return retrieve(makePrefix(codeQuorumCert, blockID), qc)
}

// RemoveQuorumCertificate deletes the certificate for the given block.
func RemoveQuorumCertificate(blockID model.Identifier) func(*badger.Txn) error {
	return remove(makePrefix(codeQuorumCert, blockID))
}

// IndexQuorumCertificateView records the certified block under the
// certificate's view, enabling view-based pruning.
func IndexQuorumCertificateView(view uint64, blockID model.Identifier) func(*badger.Txn) error {
	return upsert(makePrefix(codeQuorumCertView, view, blockID), blockID)
}

// IterateBlocks calls the handler with every stored block.
func IterateBlocks(handler func(block *model.Block) error) func(*badger.Txn) error {
	return iterateValues(makePrefix(codeBlock), func(val []byte) error {
		var block model.Block
		err := json.Unmarshal(val, &block)
		if err != nil {
			return err
		}
		return handler(&block)
	})
}

// IterateQuorumCertificates calls the handler with every stored certificate.
func IterateQuorumCertificates(handler func(qc *model.QuorumCertificate) error) func(*badger.Txn) error {
	return iterateValues(makePrefix(codeQuorumCert), func(val []byte) error {
		var qc model.QuorumCertificate
		err := json.Unmarshal(val, &qc)
		if err != nil {
			return err
		}
		return handler(&qc)
	})
}

// UpsertCommitted advances the commit watermark.
func UpsertCommitted(height uint64, blockID model.Identifier) func(*badger.Txn) error {
	return upsert(makePrefix(codeCommitted), committedMark{Height: height, BlockID: blockID})
}

// RetrieveCommitted reads the commit watermark.
func RetrieveCommitted(height *uint64, blockID *model.Identifier) func(*badger.Txn) error {
	var mark committedMark
	read := retrieve(makePrefix(codeCommitted), &mark)
	return func(tx *badger.Txn) error {
		err := read(tx)
		if err != nil {
			return err
		}
		*height = mark.Height
		*blockID = mark.BlockID
		return nil
	}
}

type committedMark struct {
	Height  uint64
	BlockID model.Identifier
}
