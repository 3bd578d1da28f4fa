package network

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Conduit is the transport contract owned by the host. Sends are best-effort
// with no delivery guarantee; messages for the same destination are handed
// over in the order produced. The payload is the envelope produced by the
// codec (version byte, code byte, CBOR body); length framing is the
// transport's concern.
type Conduit interface {
	// Send transmits the envelope to one committee member.
	Send(to model.Identifier, data []byte) error

	// Broadcast transmits the envelope to all other committee members.
	Broadcast(data []byte) error
}

// Codec translates between wire messages and envelope bytes.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte) (interface{}, error)
}
