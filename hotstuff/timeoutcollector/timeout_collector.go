package timeoutcollector

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

// TimeoutCollector aggregates the NewView messages entering one view. On
// f+1 distinct signers it reports a partial TC (proof that an honest replica
// has abandoned the previous view); on 2f+1 it aggregates the signatures
// into a timeout certificate carrying the newest QC among all contributors.
// Both events fire exactly once.
//
// Concurrency safe.
type TimeoutCollector struct {
	log       zerolog.Logger
	view      uint64 // the view being entered; the TC certifies view-1
	committee hotstuff.Replicas
	verifier  hotstuff.Verifier
	notifier  hotstuff.Consumer
	onPartial hotstuff.OnPartialTCCreated
	onTC      hotstuff.OnTCCreated

	mu           sync.Mutex
	msgs         map[model.Identifier]*model.NewViewMsg // first message per signer
	newestQC     *model.QuorumCertificate
	partialFired bool
	tcBuilt      bool
}

var _ hotstuff.TimeoutCollector = (*TimeoutCollector)(nil)

// NewTimeoutCollector creates a collector for NewView messages entering the
// given view.
func NewTimeoutCollector(
	log zerolog.Logger,
	view uint64,
	committee hotstuff.Replicas,
	verifier hotstuff.Verifier,
	notifier hotstuff.Consumer,
	onPartial hotstuff.OnPartialTCCreated,
	onTC hotstuff.OnTCCreated,
) *TimeoutCollector {
	return &TimeoutCollector{
		log: log.With().
			Str("component", "timeout_collector").
			Uint64("view", view).
			Logger(),
		view:      view,
		committee: committee,
		verifier:  verifier,
		notifier:  notifier,
		onPartial: onPartial,
		onTC:      onTC,
		msgs:      make(map[model.Identifier]*model.NewViewMsg),
	}
}

// View returns the view this collector aggregates NewView messages for.
func (c *TimeoutCollector) View() uint64 {
	return c.view
}

// AddNewView adds a NewView message to the collector.
func (c *TimeoutCollector) AddNewView(msg *model.NewViewMsg) error {
	if msg.View != c.view {
		return fmt.Errorf("collector for view %d received NewView for view %d", c.view, msg.View)
	}

	err := c.verifier.VerifyNewView(msg)
	if err != nil {
		if model.IsInvalidNewViewError(err) || model.IsInvalidSignerError(err) {
			c.notifier.OnInvalidMessageDetected(msg.SignerID, err)
			return model.NewInvalidNewViewErrorf(msg, "NewView rejected: %w", err)
		}
		return fmt.Errorf("could not verify NewView from %x: %w", msg.SignerID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tcBuilt {
		return nil // sealed, late messages dropped
	}

	if first, seen := c.msgs[msg.SignerID]; seen {
		if first.HighQC.ID() != msg.HighQC.ID() {
			// same valid signature, diverging high QCs: retained as evidence
			c.notifier.OnDoubleNewViewDetected(first, msg)
			return model.NewDoubleNewViewErrorf(first, msg,
				"replica %x sent diverging NewView messages for view %d", msg.SignerID, c.view)
		}
		return nil // duplicate, dropped silently
	}
	c.msgs[msg.SignerID] = msg

	if msg.HighQC != nil && (c.newestQC == nil || msg.HighQC.View > c.newestQC.View) {
		c.newestQC = msg.HighQC
	}

	if !c.partialFired && len(c.msgs) >= hotstuff.HonestThreshold(c.committee.Size()) {
		c.partialFired = true
		// report for the abandoned view, which is the one our pacemaker may
		// still be stuck in
		c.onPartial(c.view - 1)
	}

	if len(c.msgs) >= c.committee.QuorumThreshold() {
		tc, err := c.buildTC()
		if err != nil {
			return fmt.Errorf("could not build TC for view %d: %w", c.view-1, err)
		}
		c.tcBuilt = true
		c.notifier.OnTcConstructed(tc)
		c.onTC(tc)
	}
	return nil
}

// buildTC aggregates the collected NewView signatures. Caller holds the
// lock.
func (c *TimeoutCollector) buildTC() (*model.TimeoutCertificate, error) {
	msg := verification.MakeNewViewMessage(c.view)
	aggregator, err := msig.NewSignatureAggregatorSameMessage(msg, msig.NewViewTag, c.committee.Identities().PublicKeys())
	if err != nil {
		return nil, fmt.Errorf("could not create aggregator: %w", err)
	}
	for signerID, newViewMsg := range c.msgs {
		identity, err := c.committee.IdentityByID(signerID)
		if err != nil {
			return nil, fmt.Errorf("could not resolve signer %x: %w", signerID, err)
		}
		err = aggregator.TrustedAdd(identity.Index, crypto.Signature(newViewMsg.SigData))
		if err != nil {
			return nil, fmt.Errorf("could not add share of signer %x: %w", signerID, err)
		}
	}
	indices, aggSig, err := aggregator.Aggregate()
	if err != nil {
		return nil, fmt.Errorf("could not aggregate %d shares: %w", len(c.msgs), err)
	}
	signerIndices, err := msig.EncodeSignerIndices(indices, c.committee.Size())
	if err != nil {
		return nil, fmt.Errorf("could not encode signer indices: %w", err)
	}
	return &model.TimeoutCertificate{
		View:          c.view - 1,
		NewestQC:      c.newestQC,
		SignerIndices: signerIndices,
		SigData:       aggSig,
	}, nil
}
