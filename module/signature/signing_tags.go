package signature

import (
	"github.com/onflow/flow-go/crypto"
	"github.com/onflow/flow-go/crypto/hash"
)

// List of domain separation tags for protocol signatures.
//
// Protocol-level signatures use the BLS signature scheme. Each signature
// involves hashing entity bytes during the hash-to-curve operation. To scope
// a signature to a single sub-protocol and simulate multiple orthogonal
// random oracles, the hashing process includes a domain separation tag
// specific to where the signature is used. A partial signature produced for
// one voting phase can therefore never verify under another phase, and
// NewView signatures can never be replayed as votes.

// protocol prefix
const protocolPrefix = "HS2-"

// protocol version
const protocolVersion = "-V00-"

// ciphersuite index; only one BLS ciphersuite is used by the protocol
const cipherSuiteIndex = "CS00-"

func tag(domain string) string {
	return protocolPrefix + domain + protocolVersion + cipherSuiteIndex + "with-"
}

var (
	// ProposeVoteTag is used for Propose-phase votes on the commit chain
	ProposeVoteTag = tag("Propose_Vote")
	// CommitVoteTag is used for Commit-phase votes on the commit chain
	CommitVoteTag = tag("Commit_Vote")
	// FastCommitVoteTag is used for votes in the optimistic fast-commit bucket
	FastCommitVoteTag = tag("Fast_Commit_Vote")
	// NewViewTag is used for NewView messages aggregated into timeout certificates
	NewViewTag = tag("New_View")
)

// NewBLSHasher returns a hasher to be used for BLS signing and verifying with
// the given domain tag. It abstracts the hasher details from the protocol
// logic. The hasher is the expand-message step of the BLS hash-to-curve,
// an XOF based on KMAC128 with 128-byte outputs.
func NewBLSHasher(tag string) hash.Hasher {
	return crypto.NewExpandMsgXOFKMAC128(tag)
}
