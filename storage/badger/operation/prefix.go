package operation

import (
	"encoding/binary"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Key prefixes for the consensus keyspace.
const (
	codeSafetyData   = 10 // replica safety state
	codeLivenessData = 11 // pacemaker state

	codeBlock          = 20 // block by ID
	codeHeightToBlock  = 21 // committed height → block ID
	codeQuorumCert     = 22 // QC by certified block ID
	codeQuorumCertView = 23 // view → certified block ID (for view-based pruning)

	codeCommitted = 30 // commit watermark
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1, 1+8*len(keys))
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, keyPartToBinary(key)...)
	}
	return prefix
}

func keyPartToBinary(v interface{}) []byte {
	switch i := v.(type) {
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case model.Identifier:
		return i[:]
	default:
		panic("unsupported key part type")
	}
}
