package mempool

import (
	"sync"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Transactions is a bounded in-memory FIFO transaction pool implementing the
// BodyProducer contract. Bodies are the length-prefixed concatenation of
// pending transactions, oldest first.
type Transactions struct {
	mu       sync.Mutex
	pending  [][]byte
	byteSize int
	limit    int // max bytes retained in the pool
}

var _ BodyProducer = (*Transactions)(nil)

// NewTransactions creates a pool retaining at most limit bytes of pending
// transactions.
func NewTransactions(limit int) *Transactions {
	return &Transactions{limit: limit}
}

// Add appends a transaction to the pool. Returns false if the pool is full.
func (t *Transactions) Add(tx []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.byteSize+len(tx) > t.limit {
		return false
	}
	t.pending = append(t.pending, tx)
	t.byteSize += len(tx)
	return true
}

// Size returns the number of pending transactions.
func (t *Transactions) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// ProposeBody drains up to maxBytes of pending transactions into a body and
// returns its digest. The body layout is a sequence of 4-byte big-endian
// length prefixes followed by the transaction bytes.
func (t *Transactions) ProposeBody(maxBytes int) (model.Identifier, []byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	body := make([]byte, 0, maxBytes)
	taken := 0
	for _, tx := range t.pending {
		framed := 4 + len(tx)
		if len(body)+framed > maxBytes {
			break
		}
		body = append(body,
			byte(len(tx)>>24), byte(len(tx)>>16), byte(len(tx)>>8), byte(len(tx)))
		body = append(body, tx...)
		t.byteSize -= len(tx)
		taken++
	}
	t.pending = t.pending[taken:]

	return model.MakeID(body), body, nil
}
