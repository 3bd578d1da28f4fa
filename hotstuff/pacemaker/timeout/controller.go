package timeout

import (
	"context"
	"math"
	"time"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Controller implements the truncated exponential backoff for view timeouts:
//
//	duration(r) = BaseTimeout · Multiplier^min(r-k, c)   for r > k
//	duration(r) = BaseTimeout                            for r ≤ k
//
// where k is the number of grace rounds (HappyPathRounds), r the failed
// rounds counter and c = log_Multiplier(MaxTimeout/BaseTimeout) the cap
// exponent. The counter r grows on timeouts, shrinks on progress and resets
// to zero on commit, yielding exponential increase under sustained failure
// and fast recovery afterwards.
type Controller struct {
	cfg            Config
	timeoutChannel chan time.Time
	stopTicker     context.CancelFunc
	maxExponent    float64 // derived from the maximum round duration
	r              uint64  // failed rounds counter
}

// NewController creates a new Controller.
func NewController(cfg Config) *Controller {
	// the initial value for the timeout channel is a closed channel which
	// returns immediately; this prevents indefinite blocking when no timeout
	// has been started
	startChannel := make(chan time.Time)
	close(startChannel)

	// Go does not provide logarithms with custom base; apply the change of
	// base transformation log_b(x) = log_e(x) / log_e(b)
	maxExponent := math.Log(float64(cfg.MaxTimeout)/float64(cfg.BaseTimeout)) /
		math.Log(cfg.Multiplier)

	return &Controller{
		cfg:            cfg,
		timeoutChannel: startChannel,
		stopTicker:     func() {},
		maxExponent:    maxExponent,
	}
}

// Channel returns a channel that will receive the specific timeout. A new
// channel is created on each call of StartTimeout. Returns a closed channel
// if no timer has been started.
func (t *Controller) Channel() <-chan time.Time {
	return t.timeoutChannel
}

// StartTimeout starts the timeout for the given view and returns the timer
// info. Any running timeout for a previous view is superseded.
func (t *Controller) StartTimeout(ctx context.Context, view uint64) model.TimerInfo {
	t.stopTicker() // stop old timeout

	duration := t.replicaTimeout()
	rebroadcast := t.cfg.RebroadcastInterval
	if duration < rebroadcast {
		rebroadcast = duration
	}
	t.timeoutChannel = make(chan time.Time, 1)

	var childContext context.Context
	childContext, t.stopTicker = context.WithCancel(ctx)
	go tickAfterTimeout(childContext, duration, rebroadcast, t.timeoutChannel)

	return model.TimerInfo{View: view, StartTime: time.Now().UTC(), Duration: duration}
}

// TriggerTimeout fires the active timeout immediately. Used when f+1 NewView
// messages prove that waiting out the rest of the view is pointless.
func (t *Controller) TriggerTimeout() {
	select {
	case t.timeoutChannel <- time.Now().UTC():
	default:
	}
}

// tickAfterTimeout waits for the initial timeout, forwards it to the channel
// and subsequently ticks every rebroadcast interval, so a stuck replica
// keeps re-emitting its NewView message. Ticks are dropped if the receiver
// falls behind. Cancelling ctx stops all timing logic.
func tickAfterTimeout(ctx context.Context, duration time.Duration, tickInterval time.Duration, timeoutChannel chan<- time.Time) {
	timer := time.NewTimer(duration)
	select {
	case t := <-timer.C:
		select {
		case timeoutChannel <- t:
		case <-ctx.Done():
			return
		}
	case <-ctx.Done():
		timer.Stop()
		return
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case t := <-ticker.C:
			select {
			case timeoutChannel <- t:
			default: // receiver is behind, drop the tick
			}
		case <-ctx.Done():
			return
		}
	}
}

// replicaTimeout returns the duration of the current view before timing out.
func (t *Controller) replicaTimeout() time.Duration {
	if t.r <= t.cfg.HappyPathRounds {
		return t.cfg.BaseTimeout
	}
	r := float64(t.r - t.cfg.HappyPathRounds)
	if r >= t.maxExponent {
		return t.cfg.MaxTimeout
	}
	return time.Duration(float64(t.cfg.BaseTimeout) * math.Pow(t.cfg.Multiplier, r))
}

// OnTimeout indicates that the view ended with a timeout certificate.
func (t *Controller) OnTimeout() {
	if float64(t.r) >= t.maxExponent+float64(t.cfg.HappyPathRounds) {
		return
	}
	t.r++
}

// OnProgressBeforeTimeout indicates that progress was made before the
// timeout was reached.
func (t *Controller) OnProgressBeforeTimeout() {
	if t.r > 0 {
		t.r--
	}
}

// OnCommit resets the backoff entirely: the protocol demonstrably works at
// the base timeout again.
func (t *Controller) OnCommit() {
	t.r = 0
}

// FailedRounds returns the current value of the failed rounds counter.
func (t *Controller) FailedRounds() uint64 {
	return t.r
}
