package model

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleView indicates a message or vote for a view the replica has
	// already passed; dropped silently per protocol policy.
	ErrStaleView = errors.New("view is stale")

	// ErrViolatesLock indicates a proposal which neither extends the locked
	// block nor justifies bypassing the lock with a higher-view QC.
	ErrViolatesLock = errors.New("proposal violates locked QC")

	// ErrUnverifiableBlock indicates a proposal whose justification chains
	// below the pruning boundary, so the ancestry can no longer be checked.
	ErrUnverifiableBlock = errors.New("block proposal can't be verified, because its justification is below the pruned view")

	ErrInvalidSignature = errors.New("invalid signature")

	// ErrViewBelowPruned indicates input referring to a view that has already
	// been garbage-collected.
	ErrViewBelowPruned = errors.New("view below pruned boundary")
)

// NoVoteError contains the reason why the safety module abstained from voting
// for a block proposal. It is a sentinel error, expected during normal
// operation; callers inspect the wrapped reason (ErrStaleView or
// ErrViolatesLock) for the abstain cause.
type NoVoteError struct {
	Err error
}

func (e NoVoteError) Error() string { return "not voting - " + e.Err.Error() }
func (e NoVoteError) Unwrap() error { return e.Err }

// IsNoVoteError returns whether an error is NoVoteError.
func IsNoVoteError(err error) bool {
	var e NoVoteError
	return errors.As(err, &e)
}

func NewNoVoteErrorf(msg string, args ...interface{}) error {
	return NoVoteError{Err: fmt.Errorf(msg, args...)}
}

// NoTimeoutError indicates that the replica decided not to produce a NewView
// message under the current conditions. Sentinel, expected during normal
// operation (e.g. a NewView for this view was already signed).
type NoTimeoutError struct {
	Err error
}

func (e NoTimeoutError) Error() string {
	return "conditions not satisfied to produce timeout: " + e.Err.Error()
}
func (e NoTimeoutError) Unwrap() error { return e.Err }

func IsNoTimeoutError(err error) bool {
	var e NoTimeoutError
	return errors.As(err, &e)
}

// ConfigurationError indicates that a constructor or component was
// initialized with invalid or inconsistent parameters.
type ConfigurationError struct {
	err error
}

func NewConfigurationErrorf(msg string, args ...interface{}) error {
	return ConfigurationError{fmt.Errorf(msg, args...)}
}

func (e ConfigurationError) Error() string { return e.err.Error() }
func (e ConfigurationError) Unwrap() error { return e.err }

func IsConfigurationError(err error) bool {
	var e ConfigurationError
	return errors.As(err, &e)
}

// MissingBlockError indicates that no block with identifier BlockID is known.
// QCs referring to missing blocks are buffered for a bounded interval before
// being discarded.
type MissingBlockError struct {
	View    uint64
	BlockID Identifier
}

func (e MissingBlockError) Error() string {
	return fmt.Sprintf("missing block at view %d with ID %v", e.View, e.BlockID)
}

func IsMissingBlockError(err error) bool {
	var e MissingBlockError
	return errors.As(err, &e)
}

// InvalidProposalError indicates that the proposal with identifier BlockID is
// structurally or cryptographically invalid.
type InvalidProposalError struct {
	BlockID Identifier
	View    uint64
	Err     error
}

func NewInvalidProposalErrorf(proposal *Proposal, msg string, args ...interface{}) error {
	return InvalidProposalError{
		BlockID: proposal.Block.BlockID,
		View:    proposal.Block.View,
		Err:     fmt.Errorf(msg, args...),
	}
}

func (e InvalidProposalError) Error() string {
	return fmt.Sprintf("invalid proposal %x at view %d: %s", e.BlockID, e.View, e.Err.Error())
}
func (e InvalidProposalError) Unwrap() error { return e.Err }

func IsInvalidProposalError(err error) bool {
	var e InvalidProposalError
	return errors.As(err, &e)
}

// InvalidVoteError indicates an invalid vote. The vote is retained so callers
// can demerit the sender.
type InvalidVoteError struct {
	Vote *Vote
	Err  error
}

func NewInvalidVoteErrorf(vote *Vote, msg string, args ...interface{}) error {
	return InvalidVoteError{Vote: vote, Err: fmt.Errorf(msg, args...)}
}

func (e InvalidVoteError) Error() string {
	return fmt.Sprintf("invalid vote at view %d for block %x: %s", e.Vote.View, e.Vote.BlockID, e.Err.Error())
}
func (e InvalidVoteError) Unwrap() error { return e.Err }

func IsInvalidVoteError(err error) bool {
	var e InvalidVoteError
	return errors.As(err, &e)
}

// InvalidNewViewError indicates an invalid NewView message.
type InvalidNewViewError struct {
	View     uint64
	SignerID Identifier
	Err      error
}

func NewInvalidNewViewErrorf(nv *NewViewMsg, msg string, args ...interface{}) error {
	return InvalidNewViewError{View: nv.View, SignerID: nv.SignerID, Err: fmt.Errorf(msg, args...)}
}

func (e InvalidNewViewError) Error() string {
	return fmt.Sprintf("invalid NewView for view %d from %x: %s", e.View, e.SignerID, e.Err.Error())
}
func (e InvalidNewViewError) Unwrap() error { return e.Err }

func IsInvalidNewViewError(err error) bool {
	var e InvalidNewViewError
	return errors.As(err, &e)
}

// DoubleVoteError indicates that a voter has equivocated within one
// (view, phase) bucket: two votes for different blocks. Both votes are
// retained as the equivocation evidence handed to the host.
type DoubleVoteError struct {
	FirstVote       *Vote
	ConflictingVote *Vote
	err             error
}

func (e DoubleVoteError) Error() string { return e.err.Error() }
func (e DoubleVoteError) Unwrap() error { return e.err }

func NewDoubleVoteErrorf(firstVote, conflictingVote *Vote, msg string, args ...interface{}) error {
	return DoubleVoteError{
		FirstVote:       firstVote,
		ConflictingVote: conflictingVote,
		err:             fmt.Errorf(msg, args...),
	}
}

func IsDoubleVoteError(err error) bool {
	var e DoubleVoteError
	return errors.As(err, &e)
}

// AsDoubleVoteError determines whether the given error is a DoubleVoteError
// (potentially wrapped). It follows the same semantics as a checked type cast.
func AsDoubleVoteError(err error) (*DoubleVoteError, bool) {
	var e DoubleVoteError
	ok := errors.As(err, &e)
	if ok {
		return &e, true
	}
	return nil, false
}

// DoubleNewViewError indicates that a replica signed two different NewView
// messages for the same view.
type DoubleNewViewError struct {
	FirstMsg       *NewViewMsg
	ConflictingMsg *NewViewMsg
	err            error
}

func (e DoubleNewViewError) Error() string { return e.err.Error() }
func (e DoubleNewViewError) Unwrap() error { return e.err }

func NewDoubleNewViewErrorf(first, conflicting *NewViewMsg, msg string, args ...interface{}) error {
	return DoubleNewViewError{FirstMsg: first, ConflictingMsg: conflicting, err: fmt.Errorf(msg, args...)}
}

func IsDoubleNewViewError(err error) bool {
	var e DoubleNewViewError
	return errors.As(err, &e)
}

// DuplicatedSignerError indicates that a signature from the same signer was
// already added to a bucket. Duplicates are dropped without evidence.
type DuplicatedSignerError struct {
	err error
}

func NewDuplicatedSignerErrorf(msg string, args ...interface{}) error {
	return DuplicatedSignerError{err: fmt.Errorf(msg, args...)}
}

func (e DuplicatedSignerError) Error() string { return e.err.Error() }
func (e DuplicatedSignerError) Unwrap() error { return e.err }

func IsDuplicatedSignerError(err error) bool {
	var e DuplicatedSignerError
	return errors.As(err, &e)
}

// InsufficientSignaturesError indicates that aggregation was attempted below
// the threshold passed by the caller.
type InsufficientSignaturesError struct {
	err error
}

func NewInsufficientSignaturesErrorf(msg string, args ...interface{}) error {
	return InsufficientSignaturesError{fmt.Errorf(msg, args...)}
}

func (e InsufficientSignaturesError) Error() string { return e.err.Error() }
func (e InsufficientSignaturesError) Unwrap() error { return e.err }

func IsInsufficientSignaturesError(err error) bool {
	var e InsufficientSignaturesError
	return errors.As(err, &e)
}

// InvalidSignerError indicates that the signer is not a committee member.
type InvalidSignerError struct {
	err error
}

func NewInvalidSignerErrorf(msg string, args ...interface{}) error {
	return InvalidSignerError{err: fmt.Errorf(msg, args...)}
}

func (e InvalidSignerError) Error() string { return e.err.Error() }
func (e InvalidSignerError) Unwrap() error { return e.err }

func IsInvalidSignerError(err error) bool {
	var e InvalidSignerError
	return errors.As(err, &e)
}

// DuplicateProposalError indicates a second proposal for a view in which a
// different proposal by the same leader was already processed. The first one
// wins; the duplicate is logged and discarded.
type DuplicateProposalError struct {
	FirstBlockID     Identifier
	DuplicateBlockID Identifier
	View             uint64
}

func (e DuplicateProposalError) Error() string {
	return fmt.Sprintf("duplicate proposal %x at view %d, already processed %x", e.DuplicateBlockID, e.View, e.FirstBlockID)
}

func IsDuplicateProposalError(err error) bool {
	var e DuplicateProposalError
	return errors.As(err, &e)
}

// ByzantineThresholdExceededError is raised if the engine detects malicious
// conditions which prove a Byzantine threshold of replicas was exceeded.
// Safety can no longer be guaranteed; the replica halts.
type ByzantineThresholdExceededError struct {
	Evidence string
}

func (e ByzantineThresholdExceededError) Error() string {
	return e.Evidence
}
