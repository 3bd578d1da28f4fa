package notifications

import (
	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// LogConsumer subscribes to protocol events and logs them with zerolog.
type LogConsumer struct {
	log zerolog.Logger
}

var _ hotstuff.Consumer = (*LogConsumer)(nil)

func NewLogConsumer(log zerolog.Logger) *LogConsumer {
	return &LogConsumer{
		log: log.With().Str("component", "hotstuff_notifications").Logger(),
	}
}

func (lc *LogConsumer) OnBlockIncorporated(block *model.Block) {
	lc.logBasicBlockData(lc.log.Debug(), block).Msg("block incorporated")
}

func (lc *LogConsumer) OnCommittedBlock(block *model.Block) {
	lc.logBasicBlockData(lc.log.Info(), block).Msg("block committed")
}

func (lc *LogConsumer) OnDoubleVotingDetected(first *model.Vote, conflicting *model.Vote) {
	lc.log.Warn().
		Uint64("view", first.View).
		Str("phase", first.Phase.String()).
		Hex("voter_id", first.SignerID[:]).
		Hex("first_block", first.BlockID[:]).
		Hex("conflicting_block", conflicting.BlockID[:]).
		Msg("double voting detected")
}

func (lc *LogConsumer) OnDoubleProposeDetected(first *model.Block, conflicting *model.Block) {
	lc.log.Warn().
		Uint64("view", first.View).
		Hex("proposer_id", first.ProposerID[:]).
		Hex("first_block", first.BlockID[:]).
		Hex("conflicting_block", conflicting.BlockID[:]).
		Msg("double proposal detected")
}

func (lc *LogConsumer) OnDoubleNewViewDetected(first *model.NewViewMsg, conflicting *model.NewViewMsg) {
	lc.log.Warn().
		Uint64("view", first.View).
		Hex("signer_id", first.SignerID[:]).
		Msg("conflicting NewView messages detected")
}

func (lc *LogConsumer) OnInvalidMessageDetected(originID model.Identifier, err error) {
	lc.log.Warn().
		Hex("origin_id", originID[:]).
		Err(err).
		Msg("invalid message detected")
}

func (lc *LogConsumer) OnEventProcessed() {
	lc.log.Debug().Msg("event processed")
}

func (lc *LogConsumer) OnEnteringView(view uint64, leader model.Identifier) {
	lc.log.Debug().
		Uint64("view", view).
		Hex("leader", leader[:]).
		Msg("view entered")
}

func (lc *LogConsumer) OnReceiveProposal(currentView uint64, proposal *model.Proposal) {
	logger := lc.logBasicBlockData(lc.log.Debug(), proposal.Block).
		Uint64("cur_view", currentView).
		Bool("fast_eligible", proposal.FastEligible)
	logger.Msg("proposal received")
}

func (lc *LogConsumer) OnQcConstructedFromVotes(qc *model.QuorumCertificate) {
	lc.log.Info().
		Uint64("view", qc.View).
		Str("phase", qc.Phase.String()).
		Hex("block_id", qc.BlockID[:]).
		Msg("QC constructed from votes")
}

func (lc *LogConsumer) OnFastQcConstructed(qc *model.QuorumCertificate) {
	lc.log.Info().
		Uint64("view", qc.View).
		Hex("block_id", qc.BlockID[:]).
		Msg("fast-commit QC constructed")
}

func (lc *LogConsumer) OnTcConstructed(tc *model.TimeoutCertificate) {
	lc.log.Info().
		Uint64("view", tc.View).
		Msg("timeout certificate constructed")
}

func (lc *LogConsumer) OnQcTriggeredViewChange(qc *model.QuorumCertificate, newView uint64) {
	lc.log.Debug().
		Uint64("qc_view", qc.View).
		Uint64("new_view", newView).
		Msg("QC triggered view change")
}

func (lc *LogConsumer) OnTcTriggeredViewChange(tc *model.TimeoutCertificate, newView uint64) {
	lc.log.Debug().
		Uint64("tc_view", tc.View).
		Uint64("new_view", newView).
		Msg("TC triggered view change")
}

func (lc *LogConsumer) OnStartingTimeout(info model.TimerInfo) {
	lc.log.Debug().
		Uint64("view", info.View).
		Dur("duration", info.Duration).
		Msg("timeout started")
}

func (lc *LogConsumer) OnLocalTimeout(currentView uint64) {
	lc.log.Debug().
		Uint64("cur_view", currentView).
		Msg("local timeout fired")
}

func (lc *LogConsumer) OnProposingBlock(proposal *model.Proposal) {
	lc.logBasicBlockData(lc.log.Debug(), proposal.Block).Msg("proposing block")
}

func (lc *LogConsumer) OnVoting(vote *model.Vote) {
	lc.log.Debug().
		Uint64("view", vote.View).
		Str("phase", vote.Phase.String()).
		Hex("block_id", vote.BlockID[:]).
		Msg("voting for block")
}

func (lc *LogConsumer) OnFastPathEligibilityChanged(eligible bool) {
	lc.log.Info().
		Bool("eligible", eligible).
		Msg("fast-path eligibility changed")
}

func (lc *LogConsumer) logBasicBlockData(loggerEvent *zerolog.Event, block *model.Block) *zerolog.Event {
	loggerEvent.
		Uint64("block_view", block.View).
		Uint64("height", block.Height).
		Hex("block_id", block.BlockID[:]).
		Hex("proposer_id", block.ProposerID[:])
	return loggerEvent
}
