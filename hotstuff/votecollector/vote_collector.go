package votecollector

import (
	"fmt"
	"sync"

	"github.com/onflow/flow-go/crypto"
	"github.com/rs/zerolog"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/hotstuff/verification"
	msig "github.com/altair-bft/hotstuff2/module/signature"
)

// maxCachedVotes bounds the number of votes cached per view before the block
// arrives, shielding the replica from memory exhaustion by spam.
const maxCachedVotes = 1024

// VoteCollector collects all votes for one view. Before the view's proposal
// arrives it caches votes unverified; once the proposal is processed it
// verifies and buckets votes per (phase, block). Each bucket forms its
// certificate exactly once on reaching the phase threshold and is sealed
// afterwards.
//
// Equivocation handling: the first vote per (phase, signer) wins. A second
// vote for a different block is reported as a DoubleVoteError with both
// votes attached, and the offender is excluded from all of this view's
// buckets, including shares it contributed before detection (certificate
// construction re-reads the buckets, so exclusion is retroactive until the
// bucket seals).
//
// Concurrency safe: fed by the vote aggregator's worker pool.
type VoteCollector struct {
	log       zerolog.Logger
	view      uint64
	committee hotstuff.Replicas
	verifier  hotstuff.Verifier
	detector  hotstuff.SynchronyDetector
	notifier  hotstuff.Consumer
	onQC      hotstuff.OnQCCreated

	mu          sync.Mutex
	status      hotstuff.VoteCollectorStatus
	cachedVotes []*model.Vote
	proposal    *model.Proposal
	fastEnabled bool

	firstVotes map[model.Phase]map[model.Identifier]*model.Vote // first vote per (phase, signer)
	excluded   map[model.Identifier]struct{}                    // equivocators, excluded from all buckets
	sealed     map[model.Phase]bool                             // single-shot certificate formation
}

var _ hotstuff.VoteCollector = (*VoteCollector)(nil)

// NewVoteCollector creates a collector for the given view, starting in
// caching state.
func NewVoteCollector(
	log zerolog.Logger,
	view uint64,
	committee hotstuff.Replicas,
	verifier hotstuff.Verifier,
	detector hotstuff.SynchronyDetector,
	notifier hotstuff.Consumer,
	onQC hotstuff.OnQCCreated,
) *VoteCollector {
	return &VoteCollector{
		log: log.With().
			Str("component", "vote_collector").
			Uint64("view", view).
			Logger(),
		view:       view,
		committee:  committee,
		verifier:   verifier,
		detector:   detector,
		notifier:   notifier,
		onQC:       onQC,
		status:     hotstuff.VoteCollectorStatusCaching,
		firstVotes: make(map[model.Phase]map[model.Identifier]*model.Vote),
		excluded:   make(map[model.Identifier]struct{}),
		sealed:     make(map[model.Phase]bool),
	}
}

// View returns the view this collector is collecting votes for.
func (c *VoteCollector) View() uint64 {
	return c.view
}

// Status returns the current status of the collector.
func (c *VoteCollector) Status() hotstuff.VoteCollectorStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Abandon seals all buckets without building certificates.
func (c *VoteCollector) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = hotstuff.VoteCollectorStatusAbandoned
	c.cachedVotes = nil
}

// ProcessBlock transitions the collector to verifying state using the given
// validated proposal and replays all cached votes.
func (c *VoteCollector) ProcessBlock(proposal *model.Proposal) error {
	if proposal.Block.View != c.view {
		return fmt.Errorf("collector for view %d received proposal for view %d", c.view, proposal.Block.View)
	}

	c.mu.Lock()
	switch c.status {
	case hotstuff.VoteCollectorStatusAbandoned:
		c.mu.Unlock()
		return nil
	case hotstuff.VoteCollectorStatusVerifying:
		first := c.proposal
		c.mu.Unlock()
		if first.Block.BlockID == proposal.Block.BlockID {
			return nil
		}
		return model.DuplicateProposalError{
			FirstBlockID:     first.Block.BlockID,
			DuplicateBlockID: proposal.Block.BlockID,
			View:             c.view,
		}
	}

	c.proposal = proposal
	// the fast bucket opens only if the leader claims synchrony AND our own
	// detector agrees at the time the proposal is taken up
	c.fastEnabled = proposal.FastEligible && c.detector.EligibleForFastPath()
	c.status = hotstuff.VoteCollectorStatusVerifying
	cached := c.cachedVotes
	c.cachedVotes = nil
	c.mu.Unlock()

	// the proposal embeds the proposer's own Propose-phase vote
	err := c.AddVote(proposal.ProposerVote())
	if err != nil {
		return fmt.Errorf("could not count proposer's vote: %w", err)
	}

	for _, vote := range cached {
		err := c.AddVote(vote)
		if err != nil {
			if model.IsInvalidVoteError(err) || model.IsDoubleVoteError(err) {
				continue // already reported through the notifier
			}
			return fmt.Errorf("could not replay cached vote: %w", err)
		}
	}
	return nil
}

// AddVote adds a vote to the collector.
func (c *VoteCollector) AddVote(vote *model.Vote) error {
	if vote.View != c.view {
		return fmt.Errorf("collector for view %d received vote for view %d", c.view, vote.View)
	}
	if !vote.Phase.Valid() {
		return model.NewInvalidVoteErrorf(vote, "undefined phase %d", vote.Phase)
	}

	c.mu.Lock()
	switch c.status {
	case hotstuff.VoteCollectorStatusCaching:
		if len(c.cachedVotes) < maxCachedVotes {
			c.cachedVotes = append(c.cachedVotes, vote)
		}
		c.mu.Unlock()
		return nil
	case hotstuff.VoteCollectorStatusAbandoned:
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	// verify outside the lock; the verifier memoizes, so replayed votes are
	// cheap
	err := c.verifier.VerifyVote(vote)
	if err != nil {
		if model.IsInvalidVoteError(err) || model.IsInvalidSignerError(err) {
			c.notifier.OnInvalidMessageDetected(vote.SignerID, err)
			return model.NewInvalidVoteErrorf(vote, "vote rejected: %w", err)
		}
		return fmt.Errorf("could not verify vote %x: %w", vote.ID(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != hotstuff.VoteCollectorStatusVerifying {
		return nil
	}
	return c.processVerifiedVote(vote)
}

// processVerifiedVote registers a signature-checked vote. Caller holds the
// lock.
func (c *VoteCollector) processVerifiedVote(vote *model.Vote) error {
	if _, banned := c.excluded[vote.SignerID]; banned {
		return nil
	}

	bucket, ok := c.firstVotes[vote.Phase]
	if !ok {
		bucket = make(map[model.Identifier]*model.Vote)
		c.firstVotes[vote.Phase] = bucket
	}
	if first, seen := bucket[vote.SignerID]; seen {
		if first.BlockID == vote.BlockID {
			return nil // duplicate, dropped silently
		}
		// equivocation: retain the pair, exclude the offender
		c.excluded[vote.SignerID] = struct{}{}
		c.notifier.OnDoubleVotingDetected(first, vote)
		return model.NewDoubleVoteErrorf(first, vote,
			"voter %x equivocated in view %d phase %s", vote.SignerID, c.view, vote.Phase)
	}
	bucket[vote.SignerID] = vote

	return c.tryBuildQC(vote.Phase)
}

// tryBuildQC forms the certificate for the phase's bucket once the threshold
// is met. Caller holds the lock.
func (c *VoteCollector) tryBuildQC(phase model.Phase) error {
	if c.sealed[phase] {
		return nil // late vote for a sealed bucket, dropped
	}

	threshold := c.committee.QuorumThreshold()
	if phase == model.PhaseFastCommit {
		if !c.fastEnabled {
			return nil
		}
		threshold = c.committee.FastThreshold()
	}

	votes := c.matchingVotes(phase)
	if len(votes) < threshold {
		return nil
	}

	qc, err := c.buildQC(phase, votes)
	if err != nil {
		return fmt.Errorf("could not build %s certificate for view %d: %w", phase, c.view, err)
	}
	c.sealed[phase] = true

	if qc.IsFast() {
		// a FastQC supersedes the pending regular certificate for the block
		c.sealed[model.PhasePropose] = true
		c.notifier.OnFastQcConstructed(qc)
	} else {
		c.notifier.OnQcConstructedFromVotes(qc)
	}
	c.onQC(qc)
	return nil
}

// matchingVotes returns the bucket's votes for the proposed block, excluding
// equivocators. Caller holds the lock.
func (c *VoteCollector) matchingVotes(phase model.Phase) []*model.Vote {
	blockID := c.proposal.Block.BlockID
	votes := make([]*model.Vote, 0, len(c.firstVotes[phase]))
	for signerID, vote := range c.firstVotes[phase] {
		if vote.BlockID != blockID {
			continue
		}
		if _, banned := c.excluded[signerID]; banned {
			continue
		}
		votes = append(votes, vote)
	}
	return votes
}

// buildQC aggregates the votes' partial signatures into a certificate.
// Caller holds the lock.
func (c *VoteCollector) buildQC(phase model.Phase, votes []*model.Vote) (*model.QuorumCertificate, error) {
	block := c.proposal.Block
	msg := verification.MakeVoteMessage(block.View, phase, block.BlockID)
	aggregator, err := msig.NewSignatureAggregatorSameMessage(msg, verification.TagForPhase(phase), c.committee.Identities().PublicKeys())
	if err != nil {
		return nil, fmt.Errorf("could not create aggregator: %w", err)
	}

	for _, vote := range votes {
		identity, err := c.committee.IdentityByID(vote.SignerID)
		if err != nil {
			return nil, fmt.Errorf("could not resolve voter %x: %w", vote.SignerID, err)
		}
		// signatures were individually verified on arrival
		err = aggregator.TrustedAdd(identity.Index, crypto.Signature(vote.SigData))
		if err != nil {
			return nil, fmt.Errorf("could not add share of voter %x: %w", vote.SignerID, err)
		}
	}

	indices, aggSig, err := aggregator.Aggregate()
	if err != nil {
		return nil, fmt.Errorf("could not aggregate %d shares: %w", len(votes), err)
	}
	signerIndices, err := msig.EncodeSignerIndices(indices, c.committee.Size())
	if err != nil {
		return nil, fmt.Errorf("could not encode signer indices: %w", err)
	}

	return &model.QuorumCertificate{
		View:          block.View,
		Phase:         phase,
		BlockID:       block.BlockID,
		SignerIndices: signerIndices,
		SigData:       aggSig,
	}, nil
}
