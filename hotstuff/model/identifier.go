package model

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/onflow/flow-go/crypto/hash"
)

// Identifier represents a 32-byte unique identifier for a protocol entity.
// Block identifiers are content addresses: the hash of the block's canonical
// encoding, binding parent, height, view, proposer and body digest.
type Identifier [32]byte

// ZeroID is the lowest value in the 32-byte ID space.
var ZeroID = Identifier{}

// fingerprintMode is the deterministic encoding used for content addressing.
// It is fixed independently of the wire codec so that identifiers stay stable
// across protocol versions.
var fingerprintMode cbor.EncMode

func init() {
	var err error
	fingerprintMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not initialize deterministic encoding mode: %s", err))
	}
}

// MakeID creates an ID from the hash of the canonical encoding of the entity.
func MakeID(entity interface{}) Identifier {
	data, err := fingerprintMode.Marshal(entity)
	if err != nil {
		panic(fmt.Sprintf("could not fingerprint entity: %s", err))
	}
	return HashToID(hash.NewSHA3_256().ComputeHash(data))
}

// HashToID converts a raw hash to an Identifier. Panics if the hash is not
// 32 bytes, which indicates misuse of the hashing primitives.
func HashToID(hash []byte) Identifier {
	var id Identifier
	if len(hash) != len(id) {
		panic(fmt.Sprintf("identifier hash must be %d bytes, got %d", len(id), len(hash)))
	}
	copy(id[:], hash)
	return id
}

func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler, so identifiers render as hex
// in JSON-encoded storage values.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("could not decode identifier hex: %w", err)
	}
	if len(decoded) != len(id) {
		return fmt.Errorf("identifier must be %d bytes, got %d", len(id), len(decoded))
	}
	copy(id[:], decoded)
	return nil
}

// IdentifierList is a list of identifiers, e.g. the canonical ordering of the
// consensus committee.
type IdentifierList []Identifier
