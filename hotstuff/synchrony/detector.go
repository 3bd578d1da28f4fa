package synchrony

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Config tunes the synchrony detector.
type Config struct {
	// DispersionBound is D_fast: the dispersion estimate must stay below
	// this bound for the network to count as responsive.
	DispersionBound time.Duration
	// WindowSize is the number of inter-arrival gap samples retained.
	WindowSize int
	// StableSamples is W_stable: the number of consecutive in-bound
	// observations required before the fast path opens.
	StableSamples int
	// DemoteSamples is W_demote: the number of samples a single breach
	// closes the fast path for.
	DemoteSamples int
}

// DefaultConfig mirrors the tuning of the reference deployment: a 100ms
// dispersion bound over a 50-sample window.
func DefaultConfig() Config {
	return Config{
		DispersionBound: 100 * time.Millisecond,
		WindowSize:      50,
		StableSamples:   10,
		DemoteSamples:   20,
	}
}

// Validate checks the configuration's consistency.
func (c Config) Validate() error {
	if c.DispersionBound <= 0 {
		return model.NewConfigurationErrorf("dispersion bound must be positive, got %s", c.DispersionBound)
	}
	if c.WindowSize < 2 {
		return model.NewConfigurationErrorf("window size must be at least 2, got %d", c.WindowSize)
	}
	if c.StableSamples < 1 || c.DemoteSamples < 1 {
		return model.NewConfigurationErrorf("hysteresis windows must be positive, got stable=%d demote=%d", c.StableSamples, c.DemoteSamples)
	}
	return nil
}

// Detector estimates whether the network currently behaves synchronously,
// gating the optimistic fast path. The statistic is the 95th-percentile
// inter-arrival gap of consensus messages over a sliding window; large gaps
// indicate delayed or missing messages, the signature of an asynchronous
// period. Eligibility requires StableSamples consecutive observations below
// the bound; a single breach demotes the replica for DemoteSamples samples
// (hysteresis), so the fast path never flaps around the threshold.
//
// Concurrency safe: samples are recorded by the networking layer while the
// event loop reads the verdict.
type Detector struct {
	log zerolog.Logger
	cfg Config

	mu           sync.Mutex
	gaps         []time.Duration // ring buffer of inter-arrival gaps
	next         int             // ring cursor
	fill         int
	lastArrival  time.Time
	stableStreak int
	demoteLeft   int
	eligible     bool
	onChange     func(bool)
}

var _ hotstuff.SynchronyDetector = (*Detector)(nil)

// NewDetector creates a detector. onChange is invoked (with the detector
// unlocked) whenever the eligibility verdict flips; pass nil to ignore.
func NewDetector(log zerolog.Logger, cfg Config, onChange func(bool)) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	callback := onChange
	if callback == nil {
		callback = func(bool) {}
	}
	return &Detector{
		log:      log.With().Str("component", "synchrony_detector").Logger(),
		cfg:      cfg,
		gaps:     make([]time.Duration, cfg.WindowSize),
		onChange: callback,
	}, nil
}

// OnMessageArrival records the arrival of a consensus message.
func (d *Detector) OnMessageArrival(arrival time.Time) {
	d.mu.Lock()

	if d.lastArrival.IsZero() {
		d.lastArrival = arrival
		d.mu.Unlock()
		return
	}
	gap := arrival.Sub(d.lastArrival)
	if gap < 0 {
		gap = 0 // clock adjustments are not the network's fault
	}
	d.lastArrival = arrival

	d.gaps[d.next] = gap
	d.next = (d.next + 1) % d.cfg.WindowSize
	if d.fill < d.cfg.WindowSize {
		d.fill++
	}

	dispersion := d.dispersion()
	switch {
	case d.fill < d.cfg.WindowSize:
		// warming up: no verdict yet, but also no breach to hold against
		// the network
		d.stableStreak = 0
	case dispersion <= d.cfg.DispersionBound:
		d.stableStreak++
		if d.demoteLeft > 0 {
			d.demoteLeft--
		}
	default:
		d.stableStreak = 0
		d.demoteLeft = d.cfg.DemoteSamples
	}

	wasEligible := d.eligible
	d.eligible = d.demoteLeft == 0 && d.stableStreak >= d.cfg.StableSamples
	flipped := d.eligible != wasEligible
	nowEligible := d.eligible
	d.mu.Unlock()

	if flipped {
		d.log.Info().
			Bool("eligible", nowEligible).
			Dur("dispersion", dispersion).
			Msg("fast-path eligibility changed")
		d.onChange(nowEligible)
	}
}

// dispersion computes the 95th-percentile gap over the window. Caller holds
// the lock.
func (d *Detector) dispersion() time.Duration {
	if d.fill == 0 {
		return 0
	}
	sorted := make([]time.Duration, d.fill)
	copy(sorted, d.gaps[:d.fill])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	// nearest-rank 95th percentile
	rank := (95*d.fill + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// EligibleForFastPath returns the current fast-path verdict.
func (d *Detector) EligibleForFastPath() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eligible
}

// Stats returns a snapshot of the detector's internal state.
func (d *Detector) Stats() hotstuff.SynchronyStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return hotstuff.SynchronyStats{
		Eligible:        d.eligible,
		Dispersion:      d.dispersion(),
		WindowFill:      d.fill,
		StableStreak:    d.stableStreak,
		DemoteRemaining: d.demoteLeft,
	}
}
