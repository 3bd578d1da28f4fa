package codec

import "errors"

var (
	// ErrVersionMismatch indicates a message with an unknown protocol
	// version tag. Dropped without further inspection.
	ErrVersionMismatch = errors.New("protocol version mismatch")

	// ErrUnknownCode indicates a message with an undefined code byte.
	ErrUnknownCode = errors.New("unknown message code")

	// ErrInvalidEncoding indicates a message body that does not decode.
	ErrInvalidEncoding = errors.New("invalid message encoding")
)
