package irrecoverable

import (
	"context"
	"fmt"
	"runtime"
)

// Signaler sends errors which components cannot recover from to the node-level
// supervisor. For the consensus core the only producers are the persistence
// layer (a failed fsync of safety state) and corrupted-internal-state checks.
type Signaler struct {
	errors chan error
}

func NewSignaler() (*Signaler, <-chan error) {
	errors := make(chan error, 1)
	return &Signaler{errors: errors}, errors
}

// Throw is a narrow drop-in replacement for panic, log.Fatal, log.Panic, etc.
// anywhere there's something connected to the error channel. It never returns.
func (s *Signaler) Throw(err error) {
	defer runtime.Goexit()
	select {
	case s.errors <- err:
	default:
		// another component has already thrown; the replica is halting anyway
	}
}

// SignalerContext is a constrained drop-in replacement for context.Context
// which carries the ability to throw irrecoverable errors.
type SignalerContext interface {
	context.Context
	Throw(err error) // delegates to the signaler
	sealed()         // private, to constrain construction to WithSignaler
}

type signalerCtx struct {
	context.Context
	*Signaler
}

func (signalerCtx) sealed() {}

// WithSignaler is the One True Way of getting a SignalerContext.
func WithSignaler(parent context.Context, sig *Signaler) SignalerContext {
	return &signalerCtx{parent, sig}
}

// Throw can be used anywhere a context.Context is threaded through which is
// likely to support irrecoverables. If the context cannot throw, we panic:
// swallowing an irrecoverable error would risk violating safety.
func Throw(ctx context.Context, err error) {
	signalerAbleContext, ok := ctx.(SignalerContext)
	if ok {
		signalerAbleContext.Throw(err)
	}
	panic(fmt.Sprintf("irrecoverable error signaler not found for context, please implement! Unhandled irrecoverable error: %v", err))
}
