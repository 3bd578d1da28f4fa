package eventloop

import (
	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/irrecoverable"
)

// queueCapacity is the buffer size of each inbound event channel. Producers
// block briefly when the loop falls behind; the queues exist to decouple the
// aggregation workers from the serial protocol processing.
const queueCapacity = 10

// EventLoop performs the serial processing of events that drive the replica:
// inbound proposals, locally constructed certificates, partial-timeout
// proofs, and the view timer. It owns the only goroutine that invokes the
// EventHandler, which serializes all mutations of safety, pacemaker and
// pipeline state.
type EventLoop struct {
	log          zerolog.Logger
	eventHandler hotstuff.EventHandler

	proposals       chan *model.Proposal
	qcs             chan *model.QuorumCertificate
	tcs             chan *model.TimeoutCertificate
	partialNewViews chan uint64

	done chan struct{}
}

// New creates an EventLoop around the given handler.
func New(log zerolog.Logger, eventHandler hotstuff.EventHandler) *EventLoop {
	return &EventLoop{
		log:             log.With().Str("component", "event_loop").Logger(),
		eventHandler:    eventHandler,
		proposals:       make(chan *model.Proposal, queueCapacity),
		qcs:             make(chan *model.QuorumCertificate, queueCapacity),
		tcs:             make(chan *model.TimeoutCertificate, queueCapacity),
		partialNewViews: make(chan uint64, queueCapacity),
		done:            make(chan struct{}),
	}
}

// Start launches the processing loop. Errors from the handler are
// irrecoverable: they indicate corrupted state or failed persistence, and
// the replica must stop emitting consensus messages.
func (el *EventLoop) Start(ctx irrecoverable.SignalerContext) {
	go func() {
		defer close(el.done)

		err := el.eventHandler.Start()
		if err != nil {
			ctx.Throw(err)
			return
		}

		for {
			// the timeout channel is replaced on every view change, so it is
			// re-read on every iteration
			timeoutChannel := el.eventHandler.TimeoutChannel()

			select {
			case <-ctx.Done():
				return
			case <-timeoutChannel:
				err = el.eventHandler.OnLocalTimeout()
			case proposal := <-el.proposals:
				err = el.eventHandler.OnReceiveProposal(proposal)
			case qc := <-el.qcs:
				err = el.eventHandler.OnQCConstructed(qc)
			case tc := <-el.tcs:
				err = el.eventHandler.OnTCConstructed(tc)
			case view := <-el.partialNewViews:
				err = el.eventHandler.OnPartialNewView(view)
			}
			if err != nil {
				el.log.Error().Err(err).Msg("irrecoverable event processing error")
				ctx.Throw(err)
				return
			}
		}
	}()
}

// Done returns a channel closed once the loop has exited.
func (el *EventLoop) Done() <-chan struct{} {
	return el.done
}

// SubmitProposal feeds a validated proposal into the loop.
func (el *EventLoop) SubmitProposal(proposal *model.Proposal) {
	select {
	case el.proposals <- proposal:
	case <-el.done:
	}
}

// SubmitQC feeds a certificate into the loop. It serves as the OnQCCreated
// callback of the vote collectors, re-entering aggregation results into the
// serial stream instead of mutating state on the worker goroutine.
func (el *EventLoop) SubmitQC(qc *model.QuorumCertificate) {
	select {
	case el.qcs <- qc:
	case <-el.done:
	}
}

// SubmitTC feeds a timeout certificate into the loop; the OnTCCreated
// callback of the timeout collectors.
func (el *EventLoop) SubmitTC(tc *model.TimeoutCertificate) {
	select {
	case el.tcs <- tc:
	case <-el.done:
	}
}

// SubmitPartialNewView feeds a partial-timeout proof into the loop; the
// OnPartialTCCreated callback of the timeout collectors.
func (el *EventLoop) SubmitPartialNewView(view uint64) {
	select {
	case el.partialNewViews <- view:
	case <-el.done:
	}
}
