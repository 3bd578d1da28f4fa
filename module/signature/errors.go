package signature

import (
	"errors"
)

var (
	ErrInvalidSignatureFormat = errors.New("invalid signature format")

	// ErrInsufficientShares is returned by an aggregator when aggregation or
	// aggregate verification is attempted without any signature shares.
	ErrInsufficientShares = errors.New("insufficient signature shares for threshold")

	ErrDuplicatedSigner = errors.New("duplicated signer")

	// ErrIncompatibleBitVectorLength indicates that the signer-index bit
	// vector does not match the size of the committee it refers to.
	ErrIncompatibleBitVectorLength = errors.New("signer-index bit vector has incompatible length")

	// ErrIllegallyPaddedBitVector indicates that the signer-index bit vector
	// has tailing bits set beyond the committee size.
	ErrIllegallyPaddedBitVector = errors.New("signer-index bit vector is padded with non-zero bits")
)
