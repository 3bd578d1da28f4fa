package signature

import (
	"errors"
	"fmt"
)

// InvalidSignerIdxError indicates that the signer index is outside the
// committee index range.
type InvalidSignerIdxError struct {
	err error
}

func newInvalidSignerIdxError(signer int, n int) error {
	return InvalidSignerIdxError{err: fmt.Errorf("signer index %d is invalid, must be in [0, %d)", signer, n)}
}

func (e InvalidSignerIdxError) Error() string { return e.err.Error() }
func (e InvalidSignerIdxError) Unwrap() error { return e.err }

// IsInvalidSignerIdxError returns whether err is an InvalidSignerIdxError.
func IsInvalidSignerIdxError(err error) bool {
	var e InvalidSignerIdxError
	return errors.As(err, &e)
}

// DuplicatedSignerIdxError indicates that a signature from the same signer
// index has already been added.
type DuplicatedSignerIdxError struct {
	err error
}

func newDuplicatedSignerIdxError(signer int) error {
	return DuplicatedSignerIdxError{err: fmt.Errorf("signer index %d has already provided a signature: %w", signer, ErrDuplicatedSigner)}
}

func (e DuplicatedSignerIdxError) Error() string { return e.err.Error() }
func (e DuplicatedSignerIdxError) Unwrap() error { return e.err }

// IsDuplicatedSignerIdxError returns whether err is a DuplicatedSignerIdxError.
func IsDuplicatedSignerIdxError(err error) bool {
	var e DuplicatedSignerIdxError
	return errors.As(err, &e)
}
