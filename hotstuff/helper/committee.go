package helper

import (
	"testing"

	"github.com/onflow/flow-go/crypto"
	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/committees"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/hotstuff/verification"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

// CommitteeFixture is a consensus committee with real BLS key material, so
// fixtures produce signatures and certificates that verify.
type CommitteeFixture struct {
	Identities  model.IdentityList
	PrivateKeys []crypto.PrivateKey
}

// NewCommitteeFixture generates a committee of n members with fresh BLS
// keys, in canonical order.
func NewCommitteeFixture(t *testing.T, n int) *CommitteeFixture {
	identities := make(model.IdentityList, 0, n)
	keys := make([]crypto.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		key, err := crypto.GeneratePrivateKey(crypto.BLSBLS12381, unittest.SeedFixture(crypto.KeyGenSeedMinLen))
		require.NoError(t, err)
		identities = append(identities, &model.Identity{
			NodeID:    unittest.IdentifierFixture(),
			Index:     i,
			PublicKey: key.PublicKey(),
		})
		keys = append(keys, key)
	}
	return &CommitteeFixture{
		Identities:  identities,
		PrivateKeys: keys,
	}
}

// Committee returns the Replicas view of the fixture for the member at the
// given index, with round-robin rotation and the given fast policy.
func (f *CommitteeFixture) Committee(t *testing.T, selfIndex int, policy hotstuff.FastThresholdPolicy) *committees.Static {
	committee, err := committees.NewStaticCommittee(f.Identities, f.Identities[selfIndex].NodeID, committees.RoundRobin{}, policy)
	require.NoError(t, err)
	return committee
}

// Signer returns a signer for the member at the given index.
func (f *CommitteeFixture) Signer(t *testing.T, index int) *verification.BLSSigner {
	signer, err := verification.NewBLSSigner(f.Identities[index].NodeID, f.PrivateKeys[index])
	require.NoError(t, err)
	return signer
}

// NodeID returns the identifier of the member at the given index.
func (f *CommitteeFixture) NodeID(index int) model.Identifier {
	return f.Identities[index].NodeID
}

// LeaderIndex returns the index of the round-robin leader of the view.
func (f *CommitteeFixture) LeaderIndex(view uint64) int {
	return committees.RoundRobin{}.LeaderIndexForView(view, len(f.Identities))
}
