package timeout

import (
	"time"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Config contains the configuration parameters for the timeout controller.
// The view timeout follows a truncated exponential backoff:
//
//	T(v) = BaseTimeout · Multiplier^r, capped at MaxTimeout,
//
// where r counts consecutive failed views beyond the happy-path grace
// rounds. The counter decreases on progress and resets on commit.
type Config struct {
	// BaseTimeout is T_base, the duration a view lasts before the replica
	// gives up on its leader, while the protocol is making progress.
	BaseTimeout time.Duration
	// MaxTimeout caps the backoff.
	MaxTimeout time.Duration
	// Multiplier is m > 1, the factor the timeout grows by per failed view
	// beyond the grace rounds.
	Multiplier float64
	// HappyPathRounds is the number of consecutive failed views tolerated
	// before the backoff starts growing.
	HappyPathRounds uint64
	// RebroadcastInterval bounds how often the NewView message for a stuck
	// view is re-emitted.
	RebroadcastInterval time.Duration
}

// DefaultConfig returns a configuration with a one second base timeout, the
// customary 1.5 growth factor and a one minute cap.
func DefaultConfig() Config {
	return Config{
		BaseTimeout:         time.Second,
		MaxTimeout:          time.Minute,
		Multiplier:          1.5,
		HappyPathRounds:     0,
		RebroadcastInterval: 5 * time.Second,
	}
}

// Validate checks the configuration's consistency.
func (c Config) Validate() error {
	if c.BaseTimeout <= 0 {
		return model.NewConfigurationErrorf("base timeout must be positive, got %s", c.BaseTimeout)
	}
	if c.MaxTimeout < c.BaseTimeout {
		return model.NewConfigurationErrorf("max timeout %s below base timeout %s", c.MaxTimeout, c.BaseTimeout)
	}
	if c.Multiplier <= 1 {
		return model.NewConfigurationErrorf("timeout multiplier must be strictly greater than 1, got %f", c.Multiplier)
	}
	if c.RebroadcastInterval <= 0 {
		return model.NewConfigurationErrorf("rebroadcast interval must be positive, got %s", c.RebroadcastInterval)
	}
	return nil
}
