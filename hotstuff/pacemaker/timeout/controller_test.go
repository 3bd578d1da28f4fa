package timeout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

func testConfig() Config {
	return Config{
		BaseTimeout:         100 * time.Millisecond,
		MaxTimeout:          800 * time.Millisecond,
		Multiplier:          2,
		HappyPathRounds:     1,
		RebroadcastInterval: time.Second,
	}
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, testConfig().Validate())
	require.NoError(t, DefaultConfig().Validate())

	invalid := testConfig()
	invalid.BaseTimeout = 0
	require.True(t, model.IsConfigurationError(invalid.Validate()))

	invalid = testConfig()
	invalid.MaxTimeout = 50 * time.Millisecond
	require.True(t, model.IsConfigurationError(invalid.Validate()))

	invalid = testConfig()
	invalid.Multiplier = 1
	require.True(t, model.IsConfigurationError(invalid.Validate()))

	invalid = testConfig()
	invalid.RebroadcastInterval = 0
	require.True(t, model.IsConfigurationError(invalid.Validate()))
}

func startDuration(t *testing.T, c *Controller, view uint64) time.Duration {
	info := c.StartTimeout(context.Background(), view)
	require.Equal(t, view, info.View)
	return info.Duration
}

func TestBackoffCurve(t *testing.T) {
	c := NewController(testConfig())

	// base timeout while the happy-path grace round is not exhausted
	require.Equal(t, 100*time.Millisecond, startDuration(t, c, 1))
	c.OnTimeout()
	require.Equal(t, 100*time.Millisecond, startDuration(t, c, 2))

	// exponential growth beyond the grace rounds
	c.OnTimeout()
	require.Equal(t, 200*time.Millisecond, startDuration(t, c, 3))
	c.OnTimeout()
	require.Equal(t, 400*time.Millisecond, startDuration(t, c, 4))

	// truncated at the cap
	c.OnTimeout()
	require.Equal(t, 800*time.Millisecond, startDuration(t, c, 5))
	failedAtCap := c.FailedRounds()
	c.OnTimeout()
	require.Equal(t, failedAtCap, c.FailedRounds())
	require.Equal(t, 800*time.Millisecond, startDuration(t, c, 6))
}

func TestBackoffRecovery(t *testing.T) {
	c := NewController(testConfig())
	for i := 0; i < 4; i++ {
		c.OnTimeout()
	}
	require.Equal(t, 800*time.Millisecond, startDuration(t, c, 5))

	// progress shrinks the counter one round at a time
	c.OnProgressBeforeTimeout()
	require.Equal(t, 400*time.Millisecond, startDuration(t, c, 6))

	// a commit resets to the base timeout outright
	c.OnCommit()
	require.Equal(t, uint64(0), c.FailedRounds())
	require.Equal(t, 100*time.Millisecond, startDuration(t, c, 7))
}

func TestChannelBeforeStartIsClosed(t *testing.T) {
	c := NewController(testConfig())
	select {
	case <-c.Channel():
	default:
		t.Fatal("channel must not block before the first timeout is started")
	}
}

func TestTimeoutFires(t *testing.T) {
	cfg := testConfig()
	cfg.BaseTimeout = 10 * time.Millisecond
	cfg.RebroadcastInterval = 20 * time.Millisecond
	c := NewController(cfg)
	c.StartTimeout(context.Background(), 1)

	select {
	case <-c.Channel():
	case <-time.After(time.Second):
		t.Fatal("timeout did not fire")
	}

	// the ticker keeps the channel firing for rebroadcasts
	select {
	case <-c.Channel():
	case <-time.After(time.Second):
		t.Fatal("rebroadcast tick did not fire")
	}
}

func TestTriggerTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.BaseTimeout = time.Hour // never fires on its own
	c := NewController(cfg)
	c.StartTimeout(context.Background(), 1)

	c.TriggerTimeout()
	select {
	case <-c.Channel():
	case <-time.After(time.Second):
		t.Fatal("triggered timeout did not fire")
	}
}

func TestNewTimeoutSupersedesOld(t *testing.T) {
	cfg := testConfig()
	cfg.BaseTimeout = 30 * time.Millisecond
	c := NewController(cfg)
	c.StartTimeout(context.Background(), 1)
	oldChannel := c.Channel()

	c.StartTimeout(context.Background(), 2)
	require.NotEqual(t, oldChannel, c.Channel())

	// the superseded view's ticker is stopped; only the new channel fires
	select {
	case <-c.Channel():
	case <-time.After(time.Second):
		t.Fatal("new timeout did not fire")
	}
}
