package notifications

import (
	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// ExecutionConsumer feeds committed blocks to the application state machine.
// Commit notifications arrive in strict height order with no gaps, so the
// state machine sees an append-only log. An execution failure halts further
// execution: applying later blocks on top of a failed state transition would
// diverge from the rest of the network.
type ExecutionConsumer struct {
	NoopConsumer
	log      zerolog.Logger
	executor hotstuff.Executor
	onResult func(block *model.Block, stateRoot model.Identifier)
	halted   bool
}

var _ hotstuff.Consumer = (*ExecutionConsumer)(nil)

// NewExecutionConsumer creates the bridge to the state machine. onResult is
// invoked with every execution result, in height order; pass nil to ignore.
func NewExecutionConsumer(log zerolog.Logger, executor hotstuff.Executor, onResult func(*model.Block, model.Identifier)) *ExecutionConsumer {
	if onResult == nil {
		onResult = func(*model.Block, model.Identifier) {}
	}
	return &ExecutionConsumer{
		log:      log.With().Str("component", "execution_consumer").Logger(),
		executor: executor,
		onResult: onResult,
	}
}

func (ec *ExecutionConsumer) OnCommittedBlock(block *model.Block) {
	if ec.halted {
		return
	}
	stateRoot, err := ec.executor.ExecuteCommitted(block)
	if err != nil {
		ec.halted = true
		ec.log.Error().
			Err(err).
			Uint64("height", block.Height).
			Hex("block_id", block.BlockID[:]).
			Msg("execution failed, halting state machine")
		return
	}
	ec.onResult(block, stateRoot)
}
