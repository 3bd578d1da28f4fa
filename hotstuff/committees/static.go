package committees

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/onflow/flow-go/crypto"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Static is the fixed consensus committee of n = 3f+1 replicas. Membership,
// canonical ordering and the leader rotation are agreed upon out of band and
// never change for the lifetime of the engine.
type Static struct {
	identities    model.IdentityList
	indexByNodeID map[model.Identifier]int
	self          model.Identifier
	rotation      hotstuff.LeaderRotation
	fastPolicy    hotstuff.FastThresholdPolicy
}

var _ hotstuff.Replicas = (*Static)(nil)

// NewStaticCommittee creates a committee from the canonically ordered
// identity list. The list order defines the signer indices used in
// certificate bit vectors. Errors on committees smaller than the minimum BFT
// configuration (n=4), on non-BLS keys, and on an unset fast policy.
func NewStaticCommittee(
	identities model.IdentityList,
	self model.Identifier,
	rotation hotstuff.LeaderRotation,
	fastPolicy hotstuff.FastThresholdPolicy,
) (*Static, error) {
	if len(identities) < 4 {
		return nil, model.NewConfigurationErrorf("committee must have at least 4 members, got %d", len(identities))
	}
	if fastPolicy != hotstuff.FastThresholdStrictAllHonest && fastPolicy != hotstuff.FastThresholdConservative {
		return nil, model.NewConfigurationErrorf("fast threshold policy must be chosen explicitly, got %d", fastPolicy)
	}
	if rotation == nil {
		return nil, model.NewConfigurationErrorf("leader rotation must not be nil")
	}

	indexByNodeID := make(map[model.Identifier]int, len(identities))
	for i, identity := range identities {
		if identity.PublicKey == nil || identity.PublicKey.Algorithm() != crypto.BLSBLS12381 {
			return nil, model.NewConfigurationErrorf("committee member %x has no BLS public key", identity.NodeID)
		}
		if identity.Index != i {
			return nil, model.NewConfigurationErrorf("committee member %x has index %d but position %d", identity.NodeID, identity.Index, i)
		}
		if _, ok := indexByNodeID[identity.NodeID]; ok {
			return nil, model.NewConfigurationErrorf("duplicate committee member %x", identity.NodeID)
		}
		indexByNodeID[identity.NodeID] = i
	}
	if _, ok := indexByNodeID[self]; !ok {
		return nil, model.NewConfigurationErrorf("own node ID %x is not a committee member", self)
	}

	return &Static{
		identities:    identities,
		indexByNodeID: indexByNodeID,
		self:          self,
		rotation:      rotation,
		fastPolicy:    fastPolicy,
	}, nil
}

func (s *Static) Identities() model.IdentityList {
	return s.identities
}

func (s *Static) IdentityByID(nodeID model.Identifier) (*model.Identity, error) {
	index, ok := s.indexByNodeID[nodeID]
	if !ok {
		return nil, model.NewInvalidSignerErrorf("node %x is not a committee member", nodeID)
	}
	return s.identities[index], nil
}

func (s *Static) IdentitiesByIndices(indices []int) (model.IdentityList, error) {
	members := make(model.IdentityList, 0, len(indices))
	for _, index := range indices {
		if index < 0 || index >= len(s.identities) {
			return nil, model.NewInvalidSignerErrorf("signer index %d outside committee of size %d", index, len(s.identities))
		}
		members = append(members, s.identities[index])
	}
	return members, nil
}

func (s *Static) LeaderForView(view uint64) (model.Identifier, error) {
	index := s.rotation.LeaderIndexForView(view, len(s.identities))
	if index < 0 || index >= len(s.identities) {
		return model.ZeroID, fmt.Errorf("leader rotation returned invalid index %d for view %d", index, view)
	}
	return s.identities[index].NodeID, nil
}

func (s *Static) Self() model.Identifier {
	return s.self
}

func (s *Static) Size() int {
	return len(s.identities)
}

func (s *Static) QuorumThreshold() int {
	return hotstuff.QuorumThreshold(len(s.identities))
}

func (s *Static) FastThreshold() int {
	return s.fastPolicy.FastThreshold(len(s.identities))
}

// VerifyProofsOfPossession checks a BLS proof of possession for every
// committee member, in committee order. Hosts call this once during setup;
// aggregation soundness relies on it. All failing members are reported, not
// just the first, so a misconfigured deployment can be fixed in one round.
func VerifyProofsOfPossession(identities model.IdentityList, pops []crypto.Signature) error {
	if len(pops) != len(identities) {
		return model.NewConfigurationErrorf("expected %d proofs of possession, got %d", len(identities), len(pops))
	}
	var result *multierror.Error
	for i, identity := range identities {
		valid, err := crypto.BLSVerifyPOP(identity.PublicKey, pops[i])
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("could not verify proof of possession for member %x: %w", identity.NodeID, err))
			continue
		}
		if !valid {
			result = multierror.Append(result, model.NewConfigurationErrorf("invalid proof of possession for member %x", identity.NodeID))
		}
	}
	return result.ErrorOrNil()
}
