package hotstuff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThresholds(t *testing.T) {
	cases := []struct {
		n          int
		f          int
		quorum     int
		honest     int
		fastStrict int
	}{
		{4, 1, 3, 2, 3},
		{7, 2, 5, 3, 5},
		{10, 3, 7, 4, 7},
		{100, 33, 67, 34, 67},
	}
	for _, tc := range cases {
		require.Equal(t, tc.f, ByzantineThreshold(tc.n), "n=%d", tc.n)
		require.Equal(t, tc.quorum, QuorumThreshold(tc.n), "n=%d", tc.n)
		require.Equal(t, tc.honest, HonestThreshold(tc.n), "n=%d", tc.n)
		require.Equal(t, tc.fastStrict, FastThresholdStrictAllHonest.FastThreshold(tc.n), "n=%d", tc.n)
		require.Equal(t, tc.n, FastThresholdConservative.FastThreshold(tc.n), "n=%d", tc.n)
	}
}

func TestFastThresholdPolicyString(t *testing.T) {
	require.Equal(t, "strict-all-honest", FastThresholdStrictAllHonest.String())
	require.Equal(t, "conservative", FastThresholdConservative.String())
}
