package model

import (
	"github.com/onflow/flow-go/crypto"
)

// Identity describes one member of the fixed consensus committee. Index is
// the member's position in the canonical committee ordering; it doubles as
// the signer index in certificate bit vectors.
type Identity struct {
	NodeID    Identifier
	Index     int
	PublicKey crypto.PublicKey
}

// IdentityList is the canonically ordered committee.
type IdentityList []*Identity

// NodeIDs returns the identifiers of all members, in canonical order.
func (il IdentityList) NodeIDs() IdentifierList {
	ids := make(IdentifierList, 0, len(il))
	for _, identity := range il {
		ids = append(ids, identity.NodeID)
	}
	return ids
}

// PublicKeys returns the members' BLS public keys, in canonical order.
func (il IdentityList) PublicKeys() []crypto.PublicKey {
	keys := make([]crypto.PublicKey, 0, len(il))
	for _, identity := range il {
		keys = append(keys, identity.PublicKey)
	}
	return keys
}

// ByNodeID returns the identity with the given node ID, if present.
func (il IdentityList) ByNodeID(nodeID Identifier) (*Identity, bool) {
	for _, identity := range il {
		if identity.NodeID == nodeID {
			return identity, true
		}
	}
	return nil, false
}
