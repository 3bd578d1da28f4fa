package eventhandler

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// maxBufferedProposals bounds the buffer of proposals waiting for a missing
// parent or for the pipeline window to advance.
const maxBufferedProposals = 64

// maxBufferedQCs bounds the buffer of certificates waiting for their block.
const maxBufferedQCs = 16

// bufferTTL is how long a buffered proposal or certificate may wait for its
// missing dependency before being discarded.
const bufferTTL = 10 * time.Second

// EventHandler is the main handler for individual events that trigger state
// transitions. It exposes an API to handle one event at a time synchronously;
// the event loop is responsible for serializing calls. All mutations of
// safety, pacemaker and pipeline state happen here, on the serial stream.
type EventHandler struct {
	log               zerolog.Logger
	paceMaker         hotstuff.PaceMaker
	blockProducer     hotstuff.BlockProducer
	forks             hotstuff.Forks
	communicator      hotstuff.Communicator
	committee         hotstuff.Replicas
	voteAggregator    hotstuff.VoteAggregator
	timeoutAggregator hotstuff.TimeoutAggregator
	safetyRules       hotstuff.SafetyRules
	detector          hotstuff.SynchronyDetector
	notifier          hotstuff.Consumer

	pipelineDepth uint64

	// proposals waiting for their parent block or for the pipeline window
	pendingProposals map[model.Identifier]pendingProposal
	// certificates waiting for their block
	pendingQCs map[model.Identifier]pendingQC
}

type pendingProposal struct {
	proposal *model.Proposal
	buffered time.Time
}

type pendingQC struct {
	qc       *model.QuorumCertificate
	buffered time.Time
}

var _ hotstuff.EventHandler = (*EventHandler)(nil)

// NewEventHandler creates an EventHandler instance with initial components.
func NewEventHandler(
	log zerolog.Logger,
	paceMaker hotstuff.PaceMaker,
	blockProducer hotstuff.BlockProducer,
	forks hotstuff.Forks,
	communicator hotstuff.Communicator,
	committee hotstuff.Replicas,
	voteAggregator hotstuff.VoteAggregator,
	timeoutAggregator hotstuff.TimeoutAggregator,
	safetyRules hotstuff.SafetyRules,
	detector hotstuff.SynchronyDetector,
	notifier hotstuff.Consumer,
	pipelineDepth uint64,
) (*EventHandler, error) {
	if pipelineDepth < 1 {
		return nil, model.NewConfigurationErrorf("pipeline depth must be at least 1, got %d", pipelineDepth)
	}
	e := &EventHandler{
		log:               log.With().Str("hotstuff", "participant").Logger(),
		paceMaker:         paceMaker,
		blockProducer:     blockProducer,
		forks:             forks,
		communicator:      communicator,
		committee:         committee,
		voteAggregator:    voteAggregator,
		timeoutAggregator: timeoutAggregator,
		safetyRules:       safetyRules,
		detector:          detector,
		notifier:          notifier,
		pipelineDepth:     pipelineDepth,
		pendingProposals:  make(map[model.Identifier]pendingProposal),
		pendingQCs:        make(map[model.Identifier]pendingQC),
	}
	return e, nil
}

// Start will start the pacemaker's timer and enter the current view.
func (e *EventHandler) Start() error {
	e.paceMaker.Start()
	return e.startNewView()
}

// TimeoutChannel returns the pacemaker's channel for the active timeout.
func (e *EventHandler) TimeoutChannel() <-chan time.Time {
	return e.paceMaker.TimeoutChannel()
}

// OnReceiveProposal processes a validated block proposal.
func (e *EventHandler) OnReceiveProposal(proposal *model.Proposal) error {
	block := proposal.Block
	curView := e.paceMaker.CurView()

	log := e.log.With().
		Uint64("cur_view", curView).
		Uint64("block_view", block.View).
		Uint64("height", block.Height).
		Hex("block_id", block.BlockID[:]).
		Hex("proposer_id", block.ProposerID[:]).
		Logger()

	e.notifier.OnReceiveProposal(curView, proposal)
	defer e.notifier.OnEventProcessed()

	// ignore stale proposals
	if block.View <= e.forks.CommittedBlock().View && block.Height <= e.forks.CommittedHeight() {
		log.Debug().Msg("stale proposal")
		return nil
	}

	// bound the pipeline: blocks beyond the window wait, unvoted, until the
	// window advances
	if block.Height > e.forks.CommittedHeight()+e.pipelineDepth {
		log.Debug().Msg("proposal beyond pipeline window, buffering")
		e.bufferProposal(proposal)
		return nil
	}

	// track the lock before the commit rule can fire for the embedded QC
	if certified, ok := e.forks.GetBlock(block.QC.BlockID); ok {
		err := e.safetyRules.ObserveQC(block.QC, certified)
		if err != nil {
			return fmt.Errorf("could not observe justify QC of block %x: %w", block.BlockID, err)
		}
	}

	// store the block
	err := e.forks.AddValidatedBlock(block)
	if err != nil {
		if model.IsMissingBlockError(err) {
			log.Debug().Msg("parent unknown, buffering proposal")
			e.bufferProposal(proposal)
			return nil
		}
		if model.IsDuplicateProposalError(err) {
			log.Warn().Err(err).Msg("duplicate proposal for view, discarding")
			return nil
		}
		if errors.Is(err, model.ErrViewBelowPruned) {
			log.Debug().Msg("proposal below pruned boundary")
			return nil
		}
		return fmt.Errorf("cannot add proposal to forks (%x): %w", block.BlockID, err)
	}

	// notify the vote aggregator, so it can start verifying votes for the
	// block (including the proposer's embedded vote)
	e.voteAggregator.AddBlock(proposal)

	// the embedded certificates may advance our view
	nve, err := e.paceMaker.ProcessQC(block.QC)
	if err != nil {
		return fmt.Errorf("could not process QC for block %x: %w", block.BlockID, err)
	}
	tcnve, err := e.paceMaker.ProcessTC(proposal.LastViewTC)
	if err != nil {
		return fmt.Errorf("could not process TC for block %x: %w", block.BlockID, err)
	}
	if nve != nil || tcnve != nil {
		err = e.startNewView()
		if err != nil {
			return fmt.Errorf("could not start new view: %w", err)
		}
	}

	// if the block is for the current view, try voting for it
	err = e.processBlockForCurrentView(proposal)
	if err != nil {
		return fmt.Errorf("failed processing current block: %w", err)
	}

	// dependent buffered items may be processable now
	return e.replayBuffered(block.BlockID)
}

// OnQCConstructed processes a QC constructed by our own vote aggregator, or
// a validated QC observed in transit.
func (e *EventHandler) OnQCConstructed(qc *model.QuorumCertificate) error {
	curView := e.paceMaker.CurView()

	log := e.log.With().
		Uint64("cur_view", curView).
		Uint64("qc_view", qc.View).
		Str("phase", qc.Phase.String()).
		Hex("qc_block_id", qc.BlockID[:]).
		Logger()
	defer e.notifier.OnEventProcessed()

	// ignore stale certificates
	if qc.View < e.forks.CommittedBlock().View {
		log.Debug().Msg("stale qc")
		return nil
	}

	return e.processQC(qc)
}

// OnTCConstructed processes a TC constructed by our timeout aggregator or
// observed from a peer.
func (e *EventHandler) OnTCConstructed(tc *model.TimeoutCertificate) error {
	defer e.notifier.OnEventProcessed()

	// the abandoned view's vote buckets are cancelled; buffered votes for
	// newer views are retained
	e.voteAggregator.AbandonView(tc.View)

	nve, err := e.paceMaker.ProcessTC(tc)
	if err != nil {
		return fmt.Errorf("could not process TC for view %d: %w", tc.View, err)
	}
	if nve == nil {
		return nil
	}
	return e.startNewView()
}

// OnLocalTimeout produces and broadcasts a NewView message for the current
// view.
func (e *EventHandler) OnLocalTimeout() error {
	curView := e.paceMaker.CurView()
	newestQC := e.paceMaker.NewestQC()
	defer e.notifier.OnEventProcessed()

	e.notifier.OnLocalTimeout(curView)
	log := e.log.With().Uint64("cur_view", curView).Logger()
	log.Debug().Msg("timeout received from event loop")

	newViewMsg, err := e.safetyRules.ProduceNewView(curView, newestQC)
	if err != nil {
		if model.IsNoTimeoutError(err) {
			log.Warn().Err(err).Msg("not safe to time out")
			return nil
		}
		return fmt.Errorf("could not produce NewView message: %w", err)
	}

	// contribute our own message to TC aggregation
	e.timeoutAggregator.AddNewView(newViewMsg)

	err = e.communicator.BroadcastNewView(newViewMsg)
	if err != nil {
		log.Warn().Err(err).Msg("could not broadcast NewView message")
	}
	log.Debug().Msg("local timeout processed")
	return nil
}

// OnPartialNewView reacts to proof that f+1 replicas have abandoned the
// given view.
func (e *EventHandler) OnPartialNewView(view uint64) error {
	e.paceMaker.OnPartialNewView(view)
	return nil
}

// startNewView is called whenever the pacemaker has entered a new view. It
// checks whether this replica leads the view and needs to propose, or
// whether a buffered proposal for the view can be processed.
func (e *EventHandler) startNewView() error {
	curView := e.paceMaker.CurView()

	currentLeader, err := e.committee.LeaderForView(curView)
	if err != nil {
		return fmt.Errorf("failed to determine primary for new view %d: %w", curView, err)
	}

	log := e.log.With().
		Uint64("cur_view", curView).
		Hex("leader_id", currentLeader[:]).Logger()
	log.Debug().
		Uint64("committed_height", e.forks.CommittedHeight()).
		Msg("entering new view")
	e.notifier.OnEnteringView(curView, currentLeader)

	// garbage-collect buckets and buffers below the committed boundary
	committedView := e.forks.CommittedBlock().View
	e.voteAggregator.PruneUpToView(committedView)
	e.timeoutAggregator.PruneUpToView(committedView + 1)
	e.expireBuffers()

	if e.committee.Self() == currentLeader {
		log.Debug().Msg("generating block proposal as leader")
		return e.proposeForView(curView)
	}

	// a proposal for this view may already be waiting
	for _, pending := range e.pendingProposals {
		if pending.proposal.Block.View == curView {
			return e.OnReceiveProposal(pending.proposal)
		}
	}
	log.Debug().Msg("waiting for proposal from leader")
	return nil
}

// proposeForView builds, broadcasts and self-processes this leader's
// proposal for the current view.
func (e *EventHandler) proposeForView(curView uint64) error {
	newestQC := e.paceMaker.NewestQC()
	lastViewTC := e.paceMaker.LastViewTC()

	_, found := e.forks.GetBlock(newestQC.BlockID)
	if !found {
		// without the newest QC's block we cannot guarantee the validity of
		// the payload chain, so we wait instead of proposing
		e.log.Debug().
			Uint64("qc_view", newestQC.View).
			Hex("block_id", newestQC.BlockID[:]).
			Msg("no block for newest QC, can't propose")
		return nil
	}

	// sanity check the leader's justification: entering view v requires a QC
	// or TC for v-1
	if newestQC.View+1 != curView {
		if lastViewTC == nil {
			return fmt.Errorf("possible state corruption: entering view %d without QC or TC for view %d", curView, curView-1)
		}
		if lastViewTC.View+1 != curView {
			return fmt.Errorf("possible state corruption: QC view %d and TC view %d don't justify view %d",
				newestQC.View, lastViewTC.View, curView)
		}
	} else {
		// if the last view produced both a QC and a TC, only the QC is
		// included; a proposal carrying both would be invalid
		lastViewTC = nil
	}

	fastEligible := e.detector.EligibleForFastPath()
	proposal, err := e.blockProducer.MakeBlockProposal(newestQC, curView, lastViewTC, fastEligible)
	if err != nil {
		return fmt.Errorf("can not make block proposal for view %d: %w", curView, err)
	}
	e.notifier.OnProposingBlock(proposal)

	block := proposal.Block
	e.log.Debug().
		Uint64("block_view", block.View).
		Uint64("height", block.Height).
		Hex("block_id", block.BlockID[:]).
		Uint64("parent_view", newestQC.View).
		Hex("parent_id", newestQC.BlockID[:]).
		Bool("fast_eligible", fastEligible).
		Msg("forwarding proposal to communicator for broadcasting")

	err = e.communicator.BroadcastProposal(proposal)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not broadcast proposal")
	}

	// process our own proposal like any other; the recursion terminates
	// because the proposal's justification cannot advance the view again
	return e.OnReceiveProposal(proposal)
}

// processBlockForCurrentView votes for the block if it is for the current
// view and the safety rules allow it.
func (e *EventHandler) processBlockForCurrentView(proposal *model.Proposal) error {
	curView := e.paceMaker.CurView()
	block := proposal.Block
	if block.View != curView {
		// outdated proposals are kept in forks but get no vote
		return nil
	}
	nextLeader, err := e.committee.LeaderForView(curView + 1)
	if err != nil {
		return fmt.Errorf("failed to determine primary for next view %d: %w", curView+1, err)
	}
	return e.ownVote(proposal, curView, nextLeader)
}

// ownVote generates and forwards this replica's vote(s), if the safety rules
// allow voting. For fast-eligible proposals the regular and fast votes are
// emitted together.
func (e *EventHandler) ownVote(proposal *model.Proposal, curView uint64, nextLeader model.Identifier) error {
	block := proposal.Block
	log := e.log.With().
		Uint64("block_view", block.View).
		Hex("block_id", block.BlockID[:]).
		Logger()

	vote, err := e.safetyRules.ProduceVote(proposal, curView)
	if err != nil {
		if !model.IsNoVoteError(err) {
			// unknown error, exit the event loop
			return fmt.Errorf("could not produce vote: %w", err)
		}
		log.Debug().Err(err).Msg("should not vote for this block")
		return nil
	}

	e.notifier.OnVoting(vote)
	e.forwardVote(vote, nextLeader)

	// fast path: vote into the fast bucket only if the leader claims
	// synchrony and our own detector agrees
	if proposal.FastEligible && e.detector.EligibleForFastPath() {
		fastVote, err := e.safetyRules.ProduceFastVote(proposal, curView)
		if err != nil {
			if !model.IsNoVoteError(err) {
				return fmt.Errorf("could not produce fast vote: %w", err)
			}
			log.Debug().Err(err).Msg("skipping fast vote")
			return nil
		}
		e.notifier.OnVoting(fastVote)
		e.forwardVote(fastVote, nextLeader)
	}
	return nil
}

func (e *EventHandler) forwardVote(vote *model.Vote, nextLeader model.Identifier) {
	if e.committee.Self() == nextLeader {
		e.voteAggregator.AddVote(vote)
		return
	}
	err := e.communicator.SendVote(vote, nextLeader)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not forward vote")
	}
}

// processQC stores the QC and checks whether it triggers a view change.
func (e *EventHandler) processQC(qc *model.QuorumCertificate) error {
	log := e.log.With().
		Uint64("qc_view", qc.View).
		Hex("qc_block_id", qc.BlockID[:]).
		Logger()

	committedBefore := e.forks.CommittedHeight()

	// the lock must be durable before the commit rule can act on this QC
	if certified, ok := e.forks.GetBlock(qc.BlockID); ok {
		err := e.safetyRules.ObserveQC(qc, certified)
		if err != nil {
			return fmt.Errorf("could not observe QC: %w", err)
		}
	}

	err := e.forks.AddCertificate(qc)
	if err != nil {
		if model.IsMissingBlockError(err) {
			log.Debug().Msg("QC for unknown block, buffering")
			e.bufferQC(qc)
			return nil
		}
		return fmt.Errorf("could not add certificate: %w", err)
	}

	if e.forks.CommittedHeight() > committedBefore {
		// progress: reset the timeout backoff
		e.paceMaker.OnProgress()
	}

	newViewEvent, err := e.paceMaker.ProcessQC(qc)
	if err != nil {
		return fmt.Errorf("could not process QC: %w", err)
	}
	if newViewEvent == nil {
		log.Debug().Msg("QC didn't trigger view change, nothing to do")
		return nil
	}
	log.Debug().Msg("QC triggered view change, starting new view now")
	return e.startNewView()
}

// bufferProposal remembers a proposal whose dependency is missing, within
// bounds.
func (e *EventHandler) bufferProposal(proposal *model.Proposal) {
	if len(e.pendingProposals) >= maxBufferedProposals {
		return
	}
	blockID := proposal.Block.BlockID
	if _, ok := e.pendingProposals[blockID]; ok {
		return
	}
	e.pendingProposals[blockID] = pendingProposal{proposal: proposal, buffered: time.Now()}
}

// bufferQC remembers a certificate whose block has not arrived, within
// bounds.
func (e *EventHandler) bufferQC(qc *model.QuorumCertificate) {
	if len(e.pendingQCs) >= maxBufferedQCs {
		return
	}
	if _, ok := e.pendingQCs[qc.BlockID]; ok {
		return
	}
	e.pendingQCs[qc.BlockID] = pendingQC{qc: qc, buffered: time.Now()}
}

// replayBuffered re-processes buffered items unblocked by the arrival of the
// given block.
func (e *EventHandler) replayBuffered(arrivedBlockID model.Identifier) error {
	if pending, ok := e.pendingQCs[arrivedBlockID]; ok {
		delete(e.pendingQCs, arrivedBlockID)
		err := e.processQC(pending.qc)
		if err != nil {
			return fmt.Errorf("could not process buffered QC: %w", err)
		}
	}

	window := e.forks.CommittedHeight() + e.pipelineDepth
	for blockID, pending := range e.pendingProposals {
		block := pending.proposal.Block
		if block.Height > window {
			continue
		}
		if _, parentKnown := e.forks.GetBlock(block.ParentID); !parentKnown {
			continue
		}
		delete(e.pendingProposals, blockID)
		err := e.OnReceiveProposal(pending.proposal)
		if err != nil {
			return fmt.Errorf("could not process buffered proposal: %w", err)
		}
	}
	return nil
}

// expireBuffers enforces the TTL and the committed boundary on the pending
// buffers.
func (e *EventHandler) expireBuffers() {
	now := time.Now()
	committedHeight := e.forks.CommittedHeight()
	for blockID, pending := range e.pendingProposals {
		if now.Sub(pending.buffered) > bufferTTL || pending.proposal.Block.Height <= committedHeight {
			delete(e.pendingProposals, blockID)
		}
	}
	for blockID, pending := range e.pendingQCs {
		if now.Sub(pending.buffered) > bufferTTL || pending.qc.View < e.forks.CommittedBlock().View {
			delete(e.pendingQCs, blockID)
		}
	}
}
