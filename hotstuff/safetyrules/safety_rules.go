package safetyrules

import (
	"fmt"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// maxRetainedViolations bounds the journal of rejected voting attempts kept
// for operator inspection.
const maxRetainedViolations = 100

// SafetyRules is the stateful voting rule of the replica. It tracks the
// locked QC, the last voted view and the last signed NewView, and refuses
// any action it cannot first make durable. The zero-value lock (nil) stands
// for the genesis certificate.
//
// SafetyRules is intentionally the only writer of SafetyData, and SafetyData
// changes only monotonically: LastVotedView and LastTimeoutView strictly
// increase, the locked view never decreases.
type SafetyRules struct {
	signer     hotstuff.Signer
	forks      hotstuff.Forks
	persist    hotstuff.Persister
	committee  hotstuff.Replicas
	safetyData *model.SafetyData

	// lastVotedBlockID is the block voted for in LastVotedView. It gates the
	// fast-path companion vote and is deliberately not persisted: after a
	// crash the replica simply abstains from fast voting in the recovered
	// view.
	lastVotedBlockID model.Identifier

	violations []model.NoVoteError
}

var _ hotstuff.SafetyRules = (*SafetyRules)(nil)

// New creates an instance of SafetyRules, recovering its state from the
// persister.
func New(
	signer hotstuff.Signer,
	forks hotstuff.Forks,
	persist hotstuff.Persister,
	committee hotstuff.Replicas,
) (*SafetyRules, error) {
	safetyData, err := persist.GetSafetyData()
	if err != nil {
		return nil, fmt.Errorf("could not recover safety data: %w", err)
	}
	return &SafetyRules{
		signer:     signer,
		forks:      forks,
		persist:    persist,
		committee:  committee,
		safetyData: safetyData,
	}, nil
}

// ProduceVote decides whether to vote for the given proposal.
// Returns:
//   - (vote, nil): on the first block for the current view that is safe to
//     vote for. Subsequently, no other block with the same or lower view
//     gets a vote.
//   - (nil, model.NoVoteError): the wrapped reason is model.ErrStaleView or
//     model.ErrViolatesLock. Expected during normal operation.
//
// All other errors are unexpected and potential symptoms of corrupted
// internal state or failed persistence (fatal).
func (r *SafetyRules) ProduceVote(proposal *model.Proposal, curView uint64) (*model.Vote, error) {
	block := proposal.Block
	// sanity check: the event handler only asks about current-view blocks
	if curView != block.View {
		return nil, fmt.Errorf("expecting block for current view %d, but block's view is %d", curView, block.View)
	}

	if err := r.checkSafeToVote(block); err != nil {
		return nil, err
	}

	vote, err := r.signer.CreateVote(block, model.PhasePropose)
	if err != nil {
		return nil, fmt.Errorf("could not sign vote for block %x: %w", block.BlockID, err)
	}

	// commit to the vote before it can leave the replica
	r.safetyData.LastVotedView = curView
	err = r.persist.PutSafetyData(r.safetyData)
	if err != nil {
		return nil, fmt.Errorf("could not persist safety data: %w", err)
	}
	r.lastVotedBlockID = block.BlockID

	return vote, nil
}

// ProduceFastVote produces the FastCommit-phase companion for a proposal
// that ProduceVote accepted in the same view. The fast vote endorses the
// same (view, block) pair under a different signing domain, so it does not
// advance LastVotedView.
func (r *SafetyRules) ProduceFastVote(proposal *model.Proposal, curView uint64) (*model.Vote, error) {
	block := proposal.Block
	if r.safetyData.LastVotedView != curView || r.lastVotedBlockID != block.BlockID {
		return nil, model.NewNoVoteErrorf("fast vote requires a matching regular vote in view %d: %w", curView, model.ErrStaleView)
	}
	vote, err := r.signer.CreateVote(block, model.PhaseFastCommit)
	if err != nil {
		return nil, fmt.Errorf("could not sign fast vote for block %x: %w", block.BlockID, err)
	}
	return vote, nil
}

// checkSafeToVote applies the HotStuff-2 voting rule:
//  1. the block's view is above the last voted view, and
//  2. the block extends the locked block, or its justification is a QC from
//     a view above the lock (bypassing a stale lock is what preserves
//     liveness after leader failure).
func (r *SafetyRules) checkSafeToVote(block *model.Block) error {
	if block.View <= r.safetyData.LastVotedView {
		return r.recordViolation(model.NewNoVoteErrorf(
			"block view %d not above last voted view %d: %w",
			block.View, r.safetyData.LastVotedView, model.ErrStaleView))
	}

	locked := r.safetyData.LockedQC
	if locked == nil {
		// genesis lock protects nothing beyond the genesis block itself
		return nil
	}
	if r.forks.Extends(block.BlockID, locked.BlockID) {
		return nil
	}
	if block.QC != nil && block.QC.View > locked.View {
		return nil
	}
	return r.recordViolation(model.NewNoVoteErrorf(
		"block %x neither extends locked block %x nor justifies with view above %d: %w",
		block.BlockID, locked.BlockID, locked.View, model.ErrViolatesLock))
}

// ProduceNewView decides whether to sign a NewView message abandoning
// curView.
func (r *SafetyRules) ProduceNewView(curView uint64, newestQC *model.QuorumCertificate) (*model.NewViewMsg, error) {
	newView := curView + 1
	if newView < r.safetyData.LastTimeoutView {
		return nil, model.NoTimeoutError{Err: fmt.Errorf(
			"already signed a NewView for view %d, not regressing to %d", r.safetyData.LastTimeoutView, newView)}
	}

	// re-signing the same view yields a byte-identical message and signature
	// (deterministic BLS), which makes rebroadcast after stalls safe
	msg, err := r.signer.CreateNewView(newView, newestQC)
	if err != nil {
		return nil, fmt.Errorf("could not sign NewView for view %d: %w", newView, err)
	}

	if newView > r.safetyData.LastTimeoutView {
		r.safetyData.LastTimeoutView = newView
		err = r.persist.PutSafetyData(r.safetyData)
		if err != nil {
			return nil, fmt.Errorf("could not persist safety data: %w", err)
		}
	}
	return msg, nil
}

// ObserveQC tracks certificate formation to advance the lock: when the
// observed QC certifies a block whose parent also has a QC, and the views
// are non-decreasing across the pair, the parent QC becomes the new lock.
// The lock is persisted before the caller may act on the observation.
func (r *SafetyRules) ObserveQC(qc *model.QuorumCertificate, certifiedBlock *model.Block) error {
	if qc == nil || certifiedBlock == nil {
		return nil
	}
	if certifiedBlock.BlockID != qc.BlockID {
		return fmt.Errorf("block %x does not match QC's block %x", certifiedBlock.BlockID, qc.BlockID)
	}
	parentQC, ok := r.forks.CertifiedQC(certifiedBlock.ParentID)
	if !ok {
		return nil
	}
	if !model.Consecutive(parentQC, qc, certifiedBlock) {
		return nil
	}
	locked := r.safetyData.LockedQC
	if locked != nil && parentQC.View <= locked.View {
		return nil
	}
	r.safetyData.LockedQC = parentQC
	err := r.persist.PutSafetyData(r.safetyData)
	if err != nil {
		return fmt.Errorf("could not persist safety data after lock update: %w", err)
	}
	return nil
}

// LockedQC returns the QC the replica currently defends.
func (r *SafetyRules) LockedQC() *model.QuorumCertificate {
	return r.safetyData.LockedQC
}

// Violations returns the bounded journal of rejected voting attempts.
func (r *SafetyRules) Violations() []model.NoVoteError {
	return r.violations
}

func (r *SafetyRules) recordViolation(err error) error {
	var noVote model.NoVoteError
	if v, ok := err.(model.NoVoteError); ok {
		noVote = v
	}
	r.violations = append(r.violations, noVote)
	if len(r.violations) > maxRetainedViolations {
		r.violations = r.violations[len(r.violations)-maxRetainedViolations:]
	}
	return err
}
