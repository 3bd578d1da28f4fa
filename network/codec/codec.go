package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/model/messages"
)

// CurrentVersion is the protocol version tag prefixed to every message.
// Messages with an unknown version are dropped at the codec boundary.
const CurrentVersion uint8 = 1

// Message codes, the second envelope byte.
const (
	CodeMin uint8 = iota + 1

	CodeProposal
	CodeVote
	CodeNewView
	CodeQuorumCertificate
	CodeTimeoutCertificate

	CodeMax
)

// encMode is the deterministic encoding used on the wire: CBOR core
// deterministic mode, so identical messages encode to identical bytes on
// every replica.
var encMode cbor.EncMode

// decMode rejects unknown fields, bounding what a malicious peer can smuggle
// through the codec.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not initialize encoding mode: %s", err))
	}
	decMode, err = cbor.DecOptions{ExtraReturnErrors: cbor.ExtraDecErrorUnknownField}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("could not initialize decoding mode: %s", err))
	}
}

// Codec encodes and decodes consensus messages as
// [version:1B][code:1B][canonical CBOR body].
type Codec struct{}

// NewCodec creates the envelope codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode serializes a wire message into an envelope.
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	code, err := codeFor(v)
	if err != nil {
		return nil, err
	}
	body, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("could not encode message body: %w", err)
	}
	envelope := make([]byte, 0, 2+len(body))
	envelope = append(envelope, CurrentVersion, code)
	envelope = append(envelope, body...)
	return envelope, nil
}

// Decode parses an envelope into the wire message it carries.
// Expected errors during normal operation:
//   - ErrVersionMismatch for an unknown protocol version
//   - ErrUnknownCode for an undefined message code
//   - ErrInvalidEncoding for a malformed body
func (c *Codec) Decode(data []byte) (interface{}, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("envelope of %d bytes is too short: %w", len(data), ErrInvalidEncoding)
	}
	if data[0] != CurrentVersion {
		return nil, fmt.Errorf("message version %d, expected %d: %w", data[0], CurrentVersion, ErrVersionMismatch)
	}
	v, err := messageFor(data[1])
	if err != nil {
		return nil, err
	}
	err = decMode.Unmarshal(data[2:], v)
	if err != nil {
		return nil, fmt.Errorf("could not decode message body with code %d: %w", data[1], ErrInvalidEncoding)
	}
	return v, nil
}

func codeFor(v interface{}) (uint8, error) {
	switch v.(type) {
	case *messages.Proposal:
		return CodeProposal, nil
	case *messages.Vote:
		return CodeVote, nil
	case *messages.NewView:
		return CodeNewView, nil
	case *model.QuorumCertificate:
		return CodeQuorumCertificate, nil
	case *model.TimeoutCertificate:
		return CodeTimeoutCertificate, nil
	default:
		return 0, fmt.Errorf("unencodable message type %T: %w", v, ErrUnknownCode)
	}
}

func messageFor(code uint8) (interface{}, error) {
	switch code {
	case CodeProposal:
		return &messages.Proposal{}, nil
	case CodeVote:
		return &messages.Vote{}, nil
	case CodeNewView:
		return &messages.NewView{}, nil
	case CodeQuorumCertificate:
		return &model.QuorumCertificate{}, nil
	case CodeTimeoutCertificate:
		return &model.TimeoutCertificate{}, nil
	default:
		return nil, fmt.Errorf("undefined message code %d: %w", code, ErrUnknownCode)
	}
}
