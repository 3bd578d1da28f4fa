package signature

import (
	"fmt"
	"sync"

	"github.com/onflow/flow-go/crypto"
	"github.com/onflow/flow-go/crypto/hash"
)

// SignatureAggregatorSameMessage aggregates BLS signatures of the same
// message from different signers. The public keys and the message are agreed
// upon upfront; signers are identified by their index in the key list, which
// for consensus is the committee index used by the signer-indices bit vector.
//
// Implementation of SignatureAggregatorSameMessage is not thread-safe, the
// caller should make sure the calls are concurrent safe.
type SignatureAggregatorSameMessage struct {
	message          []byte
	hasher           hash.Hasher
	n                int                // number of participants indexed from 0 to n-1
	publicKeys       []crypto.PublicKey // keys indexed from 0 to n-1, signer i is assigned to public key i
	indexToSignature map[int]string     // signatures indexed by the signer index

	// To remove overproofs, very likely to be overwritten
	cachedSignature     crypto.Signature // cached aggregated signature
	cachedSignerIndices []int            // cached indices related to the cached signature
}

// NewSignatureAggregatorSameMessage returns a new SignatureAggregatorSameMessage structure.
//
// A new SignatureAggregatorSameMessage is needed for each set of public keys. If the key set changes,
// a new structure needs to be instantiated. Participants are defined by their public keys, and are
// indexed from 0 to n-1 where n is the length of the public key slice.
// The aggregator does not verify PoPs of input public keys, it assumes verification was done outside
// this module.
// The constructor errors if:
//   - the list of keys is empty
//   - any input public key is not a BLS 12-381 key
func NewSignatureAggregatorSameMessage(
	message []byte, // message to be aggregate signatures for
	dsTag string, // domain separation tag used for signatures
	publicKeys []crypto.PublicKey, // public keys of participants agreed upon upfront
) (*SignatureAggregatorSameMessage, error) {

	if len(publicKeys) == 0 {
		return nil, fmt.Errorf("number of participants must be larger than 0, got %d", len(publicKeys))
	}
	// sanity check for BLS keys
	for i, key := range publicKeys {
		if key == nil || key.Algorithm() != crypto.BLSBLS12381 {
			return nil, fmt.Errorf("key at index %d is not a BLS key", i)
		}
	}

	return &SignatureAggregatorSameMessage{
		message:          message,
		hasher:           NewBLSHasher(dsTag),
		n:                len(publicKeys),
		publicKeys:       publicKeys,
		indexToSignature: make(map[int]string),
		cachedSignature:  nil,
	}, nil
}

// Verify verifies the input signature under the stored message and stored
// key at the input index.
//
// This function does not update the internal state.
// The function errors:
//   - InvalidSignerIdxError if the signer index is invalid
//   - random error if the execution failed
//
// The function does not return an error for any invalid signature.
// If any error is returned, the returned bool is false.
// If no error is returned, the bool represents the validity of the signature.
// The function is not thread-safe.
func (s *SignatureAggregatorSameMessage) Verify(signer int, sig crypto.Signature) (bool, error) {
	if signer >= s.n || signer < 0 {
		return false, newInvalidSignerIdxError(signer, s.n)
	}
	return s.publicKeys[signer].Verify(sig, s.message, s.hasher)
}

// VerifyAndAdd verifies the input signature under the stored message and stored
// key at the input index. If the verification passes, the signature is added to the internal
// signature state.
// The function errors:
//   - InvalidSignerIdxError if the signer index is invalid
//   - DuplicatedSignerIdxError if a signature from the same signer index has already been added
//   - random error if the execution failed
//
// The function does not return an error for any invalid signature.
// If any error is returned, the returned bool is false.
// If no error is returned, the bool represents the validity of the signature.
// The function is not thread-safe.
func (s *SignatureAggregatorSameMessage) VerifyAndAdd(signer int, sig crypto.Signature) (bool, error) {
	if signer >= s.n || signer < 0 {
		return false, newInvalidSignerIdxError(signer, s.n)
	}
	_, duplicate := s.indexToSignature[signer]
	if duplicate {
		return false, newDuplicatedSignerIdxError(signer)
	}
	// signature is new
	ok, err := s.publicKeys[signer].Verify(sig, s.message, s.hasher) // no errors expected
	if ok {
		s.add(signer, sig)
	}
	return ok, err
}

// adds signature and assumes `signer` is valid
func (s *SignatureAggregatorSameMessage) add(signer int, sig crypto.Signature) {
	// invalidate the cached aggregated signature
	s.cachedSignature = nil
	s.indexToSignature[signer] = string(sig)
}

// TrustedAdd adds a signature to the internal state without verifying it.
//
// The Aggregate function makes a sanity check on the aggregated signature and only
// outputs valid signatures. This would detect if TrustedAdd has added any invalid
// signature.
// The function errors:
//   - InvalidSignerIdxError if the signer index is invalid
//   - DuplicatedSignerIdxError if a signature from the same signer index has already been added
//
// The function is not thread-safe.
func (s *SignatureAggregatorSameMessage) TrustedAdd(signer int, sig crypto.Signature) error {
	if signer >= s.n || signer < 0 {
		return newInvalidSignerIdxError(signer, s.n)
	}
	_, duplicate := s.indexToSignature[signer]
	if duplicate {
		return newDuplicatedSignerIdxError(signer)
	}
	// signature is new
	s.add(signer, sig)
	return nil
}

// HasSignature checks if a signer has already provided a valid signature.
//
// The function errors:
//   - InvalidSignerIdxError if the signer index is invalid
//
// The function is not thread-safe.
func (s *SignatureAggregatorSameMessage) HasSignature(signer int) (bool, error) {
	if signer >= s.n || signer < 0 {
		return false, newInvalidSignerIdxError(signer, s.n)
	}
	_, ok := s.indexToSignature[signer]
	return ok, nil
}

// NumberSignatures returns the number of signatures added so far.
// The function is not thread-safe.
func (s *SignatureAggregatorSameMessage) NumberSignatures() int {
	return len(s.indexToSignature)
}

// Aggregate aggregates the stored BLS signatures and returns the aggregated signature.
//
// The function errors if any stored signature is invalid with respect to its stored public
// key (this can only happen if TrustedAdd was used), or if no signatures have been added
// yet. The aggregation result is cached; repeated calls without new additions return the
// cached signature.
// Post-check: the aggregated signature is verified against the aggregated public key of
// the contributing signers; an invalid result surfaces signatures injected via TrustedAdd.
// Returns:
//   - an error wrapping ErrInsufficientShares if no signatures have been added yet
//   - an error wrapping ErrInvalidSignatureFormat if some signature(s), included via TrustedAdd, are invalid
func (s *SignatureAggregatorSameMessage) Aggregate() ([]int, crypto.Signature, error) {
	sharesNum := len(s.indexToSignature)
	if sharesNum == 0 {
		return nil, nil, fmt.Errorf("cannot aggregate an empty list of signatures: %w", ErrInsufficientShares)
	}

	// check cached aggregated signature
	if s.cachedSignature != nil {
		return s.cachedSignerIndices, s.cachedSignature, nil
	}

	indices := make([]int, 0, sharesNum)
	signatures := make([]crypto.Signature, 0, sharesNum)
	for index, sig := range s.indexToSignature {
		indices = append(indices, index)
		signatures = append(signatures, crypto.Signature(sig))
	}

	aggregatedSignature, err := crypto.AggregateBLSSignatures(signatures)
	if err != nil {
		return nil, nil, fmt.Errorf("BLS signature aggregation failed: %w", err)
	}
	ok, err := s.VerifyAggregate(indices, aggregatedSignature)
	if err != nil {
		return nil, nil, fmt.Errorf("verification of aggregated signature failed: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("resulting aggregated signature is invalid: %w", ErrInvalidSignatureFormat)
	}
	s.cachedSignature = aggregatedSignature
	s.cachedSignerIndices = indices
	return indices, aggregatedSignature, nil
}

// VerifyAggregate verifies an aggregated signature against the stored message and the
// stored keys corresponding to the input signers.
// The aggregation of keys is performed on the fly and is not cached.
// The function errors:
//   - InvalidSignerIdxError if any signer index is invalid
//   - ErrInsufficientShares if the signer list is empty
//
// The function is not thread-safe.
func (s *SignatureAggregatorSameMessage) VerifyAggregate(signers []int, sig crypto.Signature) (bool, error) {
	keys := make([]crypto.PublicKey, 0, len(signers))
	for _, signer := range signers {
		if signer >= s.n || signer < 0 {
			return false, newInvalidSignerIdxError(signer, s.n)
		}
		keys = append(keys, s.publicKeys[signer])
	}
	if len(keys) == 0 {
		return false, fmt.Errorf("cannot verify aggregate against an empty signer set: %w", ErrInsufficientShares)
	}
	return crypto.VerifyBLSSignatureOneMessage(keys, sig, s.message, s.hasher)
}

// ConcurrentAggregator wraps a SignatureAggregatorSameMessage with a mutex,
// so that verification workers can contribute shares concurrently while QC
// construction remains single-shot.
type ConcurrentAggregator struct {
	mu   sync.Mutex
	aggr *SignatureAggregatorSameMessage
}

func NewConcurrentAggregator(aggr *SignatureAggregatorSameMessage) *ConcurrentAggregator {
	return &ConcurrentAggregator{aggr: aggr}
}

func (c *ConcurrentAggregator) Verify(signer int, sig crypto.Signature) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggr.Verify(signer, sig)
}

func (c *ConcurrentAggregator) VerifyAndAdd(signer int, sig crypto.Signature) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggr.VerifyAndAdd(signer, sig)
}

func (c *ConcurrentAggregator) TrustedAdd(signer int, sig crypto.Signature) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggr.TrustedAdd(signer, sig)
}

func (c *ConcurrentAggregator) HasSignature(signer int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggr.HasSignature(signer)
}

func (c *ConcurrentAggregator) NumberSignatures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggr.NumberSignatures()
}

func (c *ConcurrentAggregator) Aggregate() ([]int, crypto.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggr.Aggregate()
}

func (c *ConcurrentAggregator) VerifyAggregate(signers []int, sig crypto.Signature) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggr.VerifyAggregate(signers, sig)
}
