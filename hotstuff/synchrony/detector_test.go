package synchrony

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

func testConfig() Config {
	return Config{
		DispersionBound: 50 * time.Millisecond,
		WindowSize:      10,
		StableSamples:   3,
		DemoteSamples:   5,
	}
}

func newDetector(t *testing.T, onChange func(bool)) *Detector {
	detector, err := NewDetector(unittest.Logger(), testConfig(), onChange)
	require.NoError(t, err)
	return detector
}

// feed records n message arrivals spaced by the given gap, starting at base.
func feed(d *Detector, base time.Time, gap time.Duration, n int) time.Time {
	at := base
	for i := 0; i < n; i++ {
		at = at.Add(gap)
		d.OnMessageArrival(at)
	}
	return at
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, testConfig().Validate())
	require.NoError(t, DefaultConfig().Validate())

	invalid := testConfig()
	invalid.DispersionBound = 0
	require.True(t, model.IsConfigurationError(invalid.Validate()))

	invalid = testConfig()
	invalid.WindowSize = 1
	require.True(t, model.IsConfigurationError(invalid.Validate()))

	invalid = testConfig()
	invalid.StableSamples = 0
	require.True(t, model.IsConfigurationError(invalid.Validate()))
}

func TestNotEligibleDuringWarmup(t *testing.T) {
	d := newDetector(t, nil)
	require.False(t, d.EligibleForFastPath())

	// fast arrivals, but the window is not full yet
	feed(d, time.Now(), time.Millisecond, 5)
	require.False(t, d.EligibleForFastPath())
	require.Equal(t, 4, d.Stats().WindowFill)
}

func TestEligibleAfterStableStreak(t *testing.T) {
	d := newDetector(t, nil)
	base := time.Now()

	// fill the window with in-bound gaps: 10 gaps fill the window, the
	// streak counts from the first full-window observation
	at := feed(d, base, time.Millisecond, 11)
	require.False(t, d.EligibleForFastPath())

	// two more in-bound observations complete the streak of 3
	feed(d, at, time.Millisecond, 2)
	require.True(t, d.EligibleForFastPath())

	stats := d.Stats()
	require.True(t, stats.Eligible)
	require.Equal(t, testConfig().WindowSize, stats.WindowFill)
	require.LessOrEqual(t, stats.Dispersion, testConfig().DispersionBound)
}

func TestSingleBreachDemotes(t *testing.T) {
	var flips []bool
	d := newDetector(t, func(eligible bool) { flips = append(flips, eligible) })
	base := time.Now()

	at := feed(d, base, time.Millisecond, 13)
	require.True(t, d.EligibleForFastPath())
	require.Equal(t, []bool{true}, flips)

	// one over-bound gap demotes immediately
	at = at.Add(time.Second)
	d.OnMessageArrival(at)
	require.False(t, d.EligibleForFastPath())
	require.Equal(t, []bool{true, false}, flips)
	require.Equal(t, testConfig().DemoteSamples, d.Stats().DemoteRemaining)
}

func TestHysteresisHoldsBreachAgainstNetwork(t *testing.T) {
	d := newDetector(t, nil)
	base := time.Now()

	at := feed(d, base, time.Millisecond, 13)
	require.True(t, d.EligibleForFastPath())
	at = at.Add(time.Second)
	d.OnMessageArrival(at)
	require.False(t, d.EligibleForFastPath())

	// while the slow gap is inside the window, p95 stays over the bound and
	// the demotion counter keeps resetting; feed until the window purges it
	at = feed(d, at, time.Millisecond, testConfig().WindowSize)

	// now the window is clean again, but the demotion window and the stable
	// streak both still have to run down before re-promotion
	require.False(t, d.EligibleForFastPath())
	feed(d, at, time.Millisecond, testConfig().DemoteSamples)
	require.True(t, d.EligibleForFastPath())
}

func TestClockRegressionIsHarmless(t *testing.T) {
	d := newDetector(t, nil)
	base := time.Now()
	d.OnMessageArrival(base)
	d.OnMessageArrival(base.Add(-time.Second)) // clamped to zero gap
	require.Equal(t, 1, d.Stats().WindowFill)
	require.Equal(t, time.Duration(0), d.Stats().Dispersion)
}
