package verification

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/onflow/flow-go/crypto"
	"github.com/onflow/flow-go/crypto/hash"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	msig "github.com/altair-bft/hotstuff2/module/signature"
)

// DefaultCacheSize bounds the verification memoization cache. Entries are
// keyed by (signature, message, tag, public keys), so a hit can only occur
// for a byte identical verification request.
const DefaultCacheSize = 4096

// BLSVerifier verifies partial and aggregated BLS signatures against the
// committee's public keys. The verifier holds only immutable keys plus a
// bounded memoization cache and is safe for concurrent use. The cache lives
// and dies with the verifier, which lives and dies with the committee, so
// cached verdicts can never outlive a validator key change.
type BLSVerifier struct {
	committee hotstuff.Replicas
	genesisQC *model.QuorumCertificate
	cache     *lru.Cache
}

var _ hotstuff.Verifier = (*BLSVerifier)(nil)

// NewBLSVerifier creates a verifier for the given committee. genesisQC is
// the sentinel certificate for the genesis block; it carries no signatures
// and is accepted by identity.
func NewBLSVerifier(committee hotstuff.Replicas, genesisQC *model.QuorumCertificate) (*BLSVerifier, error) {
	cache, err := lru.New(DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create verification cache: %w", err)
	}
	return &BLSVerifier{
		committee: committee,
		genesisQC: genesisQC,
		cache:     cache,
	}, nil
}

// VerifyVote checks the partial signature of a single vote.
func (v *BLSVerifier) VerifyVote(vote *model.Vote) error {
	if !vote.Phase.Valid() {
		return model.NewInvalidVoteErrorf(vote, "undefined phase %d", vote.Phase)
	}
	identity, err := v.committee.IdentityByID(vote.SignerID)
	if err != nil {
		if model.IsInvalidSignerError(err) {
			return err
		}
		return fmt.Errorf("could not resolve voter %x: %w", vote.SignerID, err)
	}
	msg := MakeVoteMessage(vote.View, vote.Phase, vote.BlockID)
	tag := TagForPhase(vote.Phase)
	valid, err := v.verifyPartial(identity.PublicKey, vote.SigData, msg, tag)
	if err != nil {
		return fmt.Errorf("could not verify vote signature: %w", err)
	}
	if !valid {
		return model.NewInvalidVoteErrorf(vote, "signature does not verify: %w", model.ErrInvalidSignature)
	}
	return nil
}

// VerifyQC checks a quorum certificate against the threshold passed by the
// caller.
func (v *BLSVerifier) VerifyQC(qc *model.QuorumCertificate, threshold int) error {
	if qc == nil {
		return fmt.Errorf("cannot verify nil QC")
	}
	if v.genesisQC != nil && qc.View == v.genesisQC.View && qc.BlockID == v.genesisQC.BlockID {
		// genesis certificate is a sentinel without signatures
		return nil
	}
	if !qc.Phase.Valid() {
		return fmt.Errorf("QC for view %d has undefined phase %d: %w", qc.View, qc.Phase, model.ErrInvalidSignature)
	}
	indices, err := msig.DecodeSignerIndices(qc.SignerIndices, v.committee.Size())
	if err != nil {
		return fmt.Errorf("could not decode signer indices of QC for block %x: %w", qc.BlockID, err)
	}
	if len(indices) < threshold {
		return model.NewInsufficientSignaturesErrorf("QC for block %x has %d signers, need %d", qc.BlockID, len(indices), threshold)
	}
	signers, err := v.committee.IdentitiesByIndices(indices)
	if err != nil {
		return fmt.Errorf("could not resolve signers of QC for block %x: %w", qc.BlockID, err)
	}
	msg := MakeVoteMessage(qc.View, qc.Phase, qc.BlockID)
	tag := TagForPhase(qc.Phase)
	valid, err := v.verifyAggregate(signers.PublicKeys(), qc.SigData, msg, tag)
	if err != nil {
		return fmt.Errorf("could not verify aggregate of QC for block %x: %w", qc.BlockID, err)
	}
	if !valid {
		return fmt.Errorf("QC for block %x at view %d: %w", qc.BlockID, qc.View, model.ErrInvalidSignature)
	}
	return nil
}

// VerifyTC checks a timeout certificate and the newest QC it carries.
func (v *BLSVerifier) VerifyTC(tc *model.TimeoutCertificate, threshold int) error {
	if tc == nil {
		return fmt.Errorf("cannot verify nil TC")
	}
	indices, err := msig.DecodeSignerIndices(tc.SignerIndices, v.committee.Size())
	if err != nil {
		return fmt.Errorf("could not decode signer indices of TC for view %d: %w", tc.View, err)
	}
	if len(indices) < threshold {
		return model.NewInsufficientSignaturesErrorf("TC for view %d has %d signers, need %d", tc.View, len(indices), threshold)
	}
	signers, err := v.committee.IdentitiesByIndices(indices)
	if err != nil {
		return fmt.Errorf("could not resolve signers of TC for view %d: %w", tc.View, err)
	}
	// the NewView signatures all cover the view being entered
	msg := MakeNewViewMessage(tc.View + 1)
	valid, err := v.verifyAggregate(signers.PublicKeys(), tc.SigData, msg, msig.NewViewTag)
	if err != nil {
		return fmt.Errorf("could not verify aggregate of TC for view %d: %w", tc.View, err)
	}
	if !valid {
		return fmt.Errorf("TC for view %d: %w", tc.View, model.ErrInvalidSignature)
	}
	if tc.NewestQC == nil {
		return fmt.Errorf("TC for view %d carries no newest QC: %w", tc.View, model.ErrInvalidSignature)
	}
	err = v.VerifyQC(tc.NewestQC, hotstuff.QuorumThreshold(v.committee.Size()))
	if err != nil {
		return fmt.Errorf("newest QC embedded in TC for view %d is invalid: %w", tc.View, err)
	}
	return nil
}

// VerifyNewView checks a NewView message's signature and its embedded QC.
func (v *BLSVerifier) VerifyNewView(nv *model.NewViewMsg) error {
	identity, err := v.committee.IdentityByID(nv.SignerID)
	if err != nil {
		if model.IsInvalidSignerError(err) {
			return err
		}
		return fmt.Errorf("could not resolve NewView sender %x: %w", nv.SignerID, err)
	}
	valid, err := v.verifyPartial(identity.PublicKey, nv.SigData, MakeNewViewMessage(nv.View), msig.NewViewTag)
	if err != nil {
		return fmt.Errorf("could not verify NewView signature: %w", err)
	}
	if !valid {
		return model.NewInvalidNewViewErrorf(nv, "signature does not verify: %w", model.ErrInvalidSignature)
	}
	if nv.HighQC != nil {
		err = v.VerifyQC(nv.HighQC, hotstuff.QuorumThreshold(v.committee.Size()))
		if err != nil {
			return model.NewInvalidNewViewErrorf(nv, "embedded high QC is invalid: %w", err)
		}
	}
	return nil
}

// verifyPartial verifies one partial signature, consulting the memoization
// cache first.
func (v *BLSVerifier) verifyPartial(key crypto.PublicKey, sig []byte, msg []byte, tag string) (bool, error) {
	cacheKey := makeCacheKey(sig, msg, tag, key)
	if cached, ok := v.cache.Get(cacheKey); ok {
		return cached.(bool), nil
	}
	valid, err := key.Verify(sig, msg, msig.NewBLSHasher(tag))
	if err != nil {
		return false, err
	}
	v.cache.Add(cacheKey, valid)
	return valid, nil
}

// verifyAggregate verifies an aggregated signature over one message,
// consulting the memoization cache first.
func (v *BLSVerifier) verifyAggregate(keys []crypto.PublicKey, sig []byte, msg []byte, tag string) (bool, error) {
	cacheKey := makeCacheKey(sig, msg, tag, keys...)
	if cached, ok := v.cache.Get(cacheKey); ok {
		return cached.(bool), nil
	}
	valid, err := crypto.VerifyBLSSignatureOneMessage(keys, sig, msg, msig.NewBLSHasher(tag))
	if err != nil {
		return false, err
	}
	v.cache.Add(cacheKey, valid)
	return valid, nil
}

func makeCacheKey(sig []byte, msg []byte, tag string, keys ...crypto.PublicKey) string {
	hasher := hash.NewSHA3_256()
	data := make([]byte, 0, len(sig)+len(msg)+len(tag))
	data = append(data, sig...)
	data = append(data, msg...)
	data = append(data, tag...)
	for _, key := range keys {
		data = append(data, key.Encode()...)
	}
	return string(hasher.ComputeHash(data))
}
