package mempool

import (
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// BodyProducer is the contract of the transaction mempool consumed by the
// leader when assembling a proposal. The consensus core never looks inside
// the body; it binds the digest into the block hash and leaves dissemination
// of the bytes to the host.
type BodyProducer interface {
	// ProposeBody assembles a block body of at most maxBytes and returns its
	// digest together with the raw bytes. An empty body is a valid result;
	// leaders propose empty blocks to keep views ticking.
	ProposeBody(maxBytes int) (model.Identifier, []byte, error)
}
