package network

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/eventloop"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/model/messages"
	"github.com/altair-bft/hotstuff2/network/codec"
)

// MessageHub is the bridge between the consensus core and the host's
// transport. Outbound, it implements hotstuff.Communicator by encoding
// internal messages into envelopes and handing them to the Conduit.
// Inbound, OnInbound decodes and validates envelopes and routes them: block
// proposals and stand-alone certificates enter the serial event loop, votes
// go to the vote aggregator, NewView messages to the timeout aggregator.
// Every decodable consensus message also feeds the synchrony detector's
// arrival clock.
//
// Concurrency safe: the host may call OnInbound from its receive loops.
type MessageHub struct {
	log               zerolog.Logger
	codec             Codec
	conduit           Conduit
	validator         hotstuff.Validator
	eventLoop         *eventloop.EventLoop
	voteAggregator    hotstuff.VoteAggregator
	timeoutAggregator hotstuff.TimeoutAggregator
	detector          hotstuff.SynchronyDetector
	notifier          hotstuff.Consumer
}

var _ hotstuff.Communicator = (*MessageHub)(nil)

// NewMessageHub creates the hub.
func NewMessageHub(
	log zerolog.Logger,
	wireCodec Codec,
	conduit Conduit,
	validator hotstuff.Validator,
	eventLoop *eventloop.EventLoop,
	voteAggregator hotstuff.VoteAggregator,
	timeoutAggregator hotstuff.TimeoutAggregator,
	detector hotstuff.SynchronyDetector,
	notifier hotstuff.Consumer,
) *MessageHub {
	return &MessageHub{
		log:               log.With().Str("component", "message_hub").Logger(),
		codec:             wireCodec,
		conduit:           conduit,
		validator:         validator,
		eventLoop:         eventLoop,
		voteAggregator:    voteAggregator,
		timeoutAggregator: timeoutAggregator,
		detector:          detector,
		notifier:          notifier,
	}
}

// BroadcastProposal sends the proposal to all other committee members.
func (h *MessageHub) BroadcastProposal(proposal *model.Proposal) error {
	data, err := h.codec.Encode(messages.ProposalFromInternal(proposal))
	if err != nil {
		return fmt.Errorf("could not encode proposal: %w", err)
	}
	return h.conduit.Broadcast(data)
}

// SendVote sends a vote to the leader collecting votes for its view.
func (h *MessageHub) SendVote(vote *model.Vote, recipientID model.Identifier) error {
	data, err := h.codec.Encode(messages.VoteFromInternal(vote))
	if err != nil {
		return fmt.Errorf("could not encode vote: %w", err)
	}
	return h.conduit.Send(recipientID, data)
}

// BroadcastNewView sends a NewView message to all other members.
func (h *MessageHub) BroadcastNewView(msg *model.NewViewMsg) error {
	data, err := h.codec.Encode(messages.NewViewFromInternal(msg))
	if err != nil {
		return fmt.Errorf("could not encode NewView: %w", err)
	}
	return h.conduit.Broadcast(data)
}

// OnInbound is the entry point for decoded-but-unverified envelopes arriving
// from the transport. originID is the authenticated transport-level sender.
// Malformed, unknown-version and invalid messages are dropped here; only
// validated messages reach the consensus core.
func (h *MessageHub) OnInbound(originID model.Identifier, data []byte) {
	decoded, err := h.codec.Decode(data)
	if err != nil {
		if errors.Is(err, codec.ErrVersionMismatch) || errors.Is(err, codec.ErrUnknownCode) {
			h.log.Debug().Hex("origin_id", originID[:]).Err(err).Msg("dropping message")
			return
		}
		h.notifier.OnInvalidMessageDetected(originID, err)
		return
	}

	h.detector.OnMessageArrival(time.Now())

	switch msg := decoded.(type) {
	case *messages.Proposal:
		proposal := msg.ToInternal()
		err := h.validator.ValidateProposal(proposal)
		if err != nil {
			if model.IsInvalidProposalError(err) {
				h.notifier.OnInvalidMessageDetected(originID, err)
				h.voteAggregator.InvalidBlock(proposal)
				return
			}
			if errors.Is(err, model.ErrUnverifiableBlock) {
				h.log.Debug().Hex("origin_id", originID[:]).Msg("dropping unverifiable proposal")
				return
			}
			h.log.Error().Err(err).Msg("could not validate proposal")
			return
		}
		h.eventLoop.SubmitProposal(proposal)

	case *messages.Vote:
		// the vote signature pins the signer; verification happens in the
		// collector, where the result can be aggregated right away
		h.voteAggregator.AddVote(msg.ToInternal(originID))

	case *messages.NewView:
		h.timeoutAggregator.AddNewView(msg.ToInternal(originID))

	case *model.QuorumCertificate:
		err := h.validator.ValidateQC(msg)
		if err != nil {
			h.notifier.OnInvalidMessageDetected(originID, err)
			return
		}
		h.eventLoop.SubmitQC(msg)

	case *model.TimeoutCertificate:
		err := h.validator.ValidateTC(msg)
		if err != nil {
			h.notifier.OnInvalidMessageDetected(originID, err)
			return
		}
		h.eventLoop.SubmitTC(msg)

	default:
		h.log.Debug().Hex("origin_id", originID[:]).Msgf("dropping message of unexpected type %T", decoded)
	}
}
