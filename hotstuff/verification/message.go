package verification

import (
	"encoding/binary"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
	msig "github.com/altair-bft/hotstuff2/module/signature"
)

// The signed payloads are fixed-width, order-sensitive encodings. Together
// with the per-bucket domain tag they bind every partial signature to exactly
// one (view, phase, block) triple and one certificate kind, so shares can
// never be replayed across phases, views or message kinds.

// MakeVoteMessage generates the message a vote signs: view, phase and block
// hash in canonical byte order.
func MakeVoteMessage(view uint64, phase model.Phase, blockID model.Identifier) []byte {
	msg := make([]byte, 8+1+len(blockID))
	binary.BigEndian.PutUint64(msg[0:8], view)
	msg[8] = byte(phase)
	copy(msg[9:], blockID[:])
	return msg
}

// MakeNewViewMessage generates the message a NewView signature covers: the
// view being entered. The high QC carried alongside is authenticated by its
// own aggregate signature, so it is deliberately not part of the signed
// payload; this keeps all NewView signatures for one view over the same
// message and therefore aggregatable into a timeout certificate.
func MakeNewViewMessage(view uint64) []byte {
	msg := make([]byte, 8)
	binary.BigEndian.PutUint64(msg, view)
	return msg
}

// TagForPhase returns the domain separation tag for votes of the given
// phase. Panics on undefined phases, which indicates a programming error:
// callers validate phases at the protocol boundary.
func TagForPhase(phase model.Phase) string {
	switch phase {
	case model.PhasePropose:
		return msig.ProposeVoteTag
	case model.PhaseCommit:
		return msig.CommitVoteTag
	case model.PhaseFastCommit:
		return msig.FastCommitVoteTag
	default:
		panic("undefined phase " + phase.String())
	}
}
