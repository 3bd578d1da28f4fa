package unittest

import (
	"crypto/rand"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Logger returns a zerolog logger for tests. Set the environment variable
// VERBOSE to stream debug output to stderr.
func Logger() zerolog.Logger {
	writer := zerolog.Nop()
	if os.Getenv("VERBOSE") != "" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
	return writer
}

// IdentifierFixture returns a random identifier.
func IdentifierFixture() model.Identifier {
	var id model.Identifier
	_, err := rand.Read(id[:])
	if err != nil {
		panic("could not read randomness for identifier fixture")
	}
	return id
}

// SeedFixture returns n random bytes.
func SeedFixture(n int) []byte {
	seed := make([]byte, n)
	_, err := rand.Read(seed)
	if err != nil {
		panic("could not read randomness for seed fixture")
	}
	return seed
}

// RunWithBadgerDB creates a temporary badger database, runs the test with
// it, and ensures teardown.
func RunWithBadgerDB(t *testing.T, f func(db *badger.DB)) {
	dir := t.TempDir()
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()
	f(db)
}

// RequireCloseBefore requires that the channel closes before the timeout.
func RequireCloseBefore(t *testing.T, done <-chan struct{}, timeout time.Duration, message string) {
	select {
	case <-done:
	case <-time.After(timeout):
		require.Fail(t, "timed out", message)
	}
}

// RequireReturnsBefore requires that the function returns before the
// timeout.
func RequireReturnsBefore(t *testing.T, f func(), timeout time.Duration, message string) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	RequireCloseBefore(t, done, timeout, message)
}

// AssertEventuallyTrue polls the condition until it holds or the timeout
// expires.
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition never became true", message)
}
