package pubsub

import (
	"sync"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// Distributor distributes protocol notifications to all subscribed
// consumers. Concurrency safe.
type Distributor struct {
	mu        sync.RWMutex
	consumers []hotstuff.Consumer
}

var _ hotstuff.Consumer = (*Distributor)(nil)

func NewDistributor() *Distributor {
	return &Distributor{}
}

// AddConsumer subscribes a consumer to all future notifications.
func (d *Distributor) AddConsumer(consumer hotstuff.Consumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.consumers = append(d.consumers, consumer)
}

func (d *Distributor) OnBlockIncorporated(block *model.Block) {
	d.each(func(c hotstuff.Consumer) { c.OnBlockIncorporated(block) })
}

func (d *Distributor) OnCommittedBlock(block *model.Block) {
	d.each(func(c hotstuff.Consumer) { c.OnCommittedBlock(block) })
}

func (d *Distributor) OnDoubleVotingDetected(first *model.Vote, conflicting *model.Vote) {
	d.each(func(c hotstuff.Consumer) { c.OnDoubleVotingDetected(first, conflicting) })
}

func (d *Distributor) OnDoubleProposeDetected(first *model.Block, conflicting *model.Block) {
	d.each(func(c hotstuff.Consumer) { c.OnDoubleProposeDetected(first, conflicting) })
}

func (d *Distributor) OnDoubleNewViewDetected(first *model.NewViewMsg, conflicting *model.NewViewMsg) {
	d.each(func(c hotstuff.Consumer) { c.OnDoubleNewViewDetected(first, conflicting) })
}

func (d *Distributor) OnInvalidMessageDetected(originID model.Identifier, err error) {
	d.each(func(c hotstuff.Consumer) { c.OnInvalidMessageDetected(originID, err) })
}

func (d *Distributor) OnEventProcessed() {
	d.each(func(c hotstuff.Consumer) { c.OnEventProcessed() })
}

func (d *Distributor) OnEnteringView(view uint64, leader model.Identifier) {
	d.each(func(c hotstuff.Consumer) { c.OnEnteringView(view, leader) })
}

func (d *Distributor) OnReceiveProposal(currentView uint64, proposal *model.Proposal) {
	d.each(func(c hotstuff.Consumer) { c.OnReceiveProposal(currentView, proposal) })
}

func (d *Distributor) OnQcConstructedFromVotes(qc *model.QuorumCertificate) {
	d.each(func(c hotstuff.Consumer) { c.OnQcConstructedFromVotes(qc) })
}

func (d *Distributor) OnFastQcConstructed(qc *model.QuorumCertificate) {
	d.each(func(c hotstuff.Consumer) { c.OnFastQcConstructed(qc) })
}

func (d *Distributor) OnTcConstructed(tc *model.TimeoutCertificate) {
	d.each(func(c hotstuff.Consumer) { c.OnTcConstructed(tc) })
}

func (d *Distributor) OnQcTriggeredViewChange(qc *model.QuorumCertificate, newView uint64) {
	d.each(func(c hotstuff.Consumer) { c.OnQcTriggeredViewChange(qc, newView) })
}

func (d *Distributor) OnTcTriggeredViewChange(tc *model.TimeoutCertificate, newView uint64) {
	d.each(func(c hotstuff.Consumer) { c.OnTcTriggeredViewChange(tc, newView) })
}

func (d *Distributor) OnStartingTimeout(info model.TimerInfo) {
	d.each(func(c hotstuff.Consumer) { c.OnStartingTimeout(info) })
}

func (d *Distributor) OnLocalTimeout(currentView uint64) {
	d.each(func(c hotstuff.Consumer) { c.OnLocalTimeout(currentView) })
}

func (d *Distributor) OnProposingBlock(proposal *model.Proposal) {
	d.each(func(c hotstuff.Consumer) { c.OnProposingBlock(proposal) })
}

func (d *Distributor) OnVoting(vote *model.Vote) {
	d.each(func(c hotstuff.Consumer) { c.OnVoting(vote) })
}

func (d *Distributor) OnFastPathEligibilityChanged(eligible bool) {
	d.each(func(c hotstuff.Consumer) { c.OnFastPathEligibilityChanged(eligible) })
}

func (d *Distributor) each(fn func(hotstuff.Consumer)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, consumer := range d.consumers {
		fn(consumer)
	}
}
