package hotstuff

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Signer produces this replica's partial signatures. Signing is deterministic
// given the replica key and the signed payload; the payload always includes
// (view, phase, block) and the protocol domain tag for the bucket, so shares
// can never be replayed across phases or message kinds.
type Signer interface {
	// CreateVote signs a vote for the block in the given phase.
	CreateVote(block *model.Block, phase model.Phase) (*model.Vote, error)

	// CreateProposal signs a block this replica proposes as leader. The
	// signature is the proposer's Propose-phase vote for the block.
	CreateProposal(block *model.Block, fastEligible bool, lastViewTC *model.TimeoutCertificate) (*model.Proposal, error)

	// CreateNewView signs a NewView message entering the given view,
	// carrying the replica's newest QC.
	CreateNewView(view uint64, highQC *model.QuorumCertificate) (*model.NewViewMsg, error)
}

// Verifier verifies signatures produced by Signer implementations, both
// individual partials and threshold aggregates. Implementations are
// stateless apart from immutable keys and an optional verification cache and
// are safe for concurrent use.
type Verifier interface {
	// VerifyVote checks the partial signature of a single vote.
	// Expected errors during normal operation:
	//   - model.ErrInvalidSignature if the signature does not verify
	//   - model.InvalidSignerError if the voter is not a committee member
	VerifyVote(vote *model.Vote) error

	// VerifyQC checks a quorum certificate's aggregated signature against
	// the signer set it declares and the threshold passed by the caller.
	// Expected errors during normal operation:
	//   - model.InsufficientSignaturesError if the signer set is below threshold
	//   - model.ErrInvalidSignature if the aggregate does not verify
	VerifyQC(qc *model.QuorumCertificate, threshold int) error

	// VerifyTC checks a timeout certificate's aggregated signature and its
	// embedded newest QC.
	VerifyTC(tc *model.TimeoutCertificate, threshold int) error

	// VerifyNewView checks the signature of a NewView message and of the
	// high QC it carries.
	VerifyNewView(nv *model.NewViewMsg) error
}
