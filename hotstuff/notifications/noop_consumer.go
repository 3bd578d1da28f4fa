package notifications

import (
	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
)

// NoopConsumer is a no-op implementation of hotstuff.Consumer. Embed it to
// implement only a subset of the callbacks.
type NoopConsumer struct{}

var _ hotstuff.Consumer = (*NoopConsumer)(nil)

func (*NoopConsumer) OnBlockIncorporated(*model.Block)                             {}
func (*NoopConsumer) OnCommittedBlock(*model.Block)                                {}
func (*NoopConsumer) OnDoubleVotingDetected(*model.Vote, *model.Vote)              {}
func (*NoopConsumer) OnDoubleProposeDetected(*model.Block, *model.Block)           {}
func (*NoopConsumer) OnDoubleNewViewDetected(*model.NewViewMsg, *model.NewViewMsg) {}
func (*NoopConsumer) OnInvalidMessageDetected(model.Identifier, error)             {}
func (*NoopConsumer) OnEventProcessed()                                            {}
func (*NoopConsumer) OnEnteringView(uint64, model.Identifier)                      {}
func (*NoopConsumer) OnReceiveProposal(uint64, *model.Proposal)                    {}
func (*NoopConsumer) OnQcConstructedFromVotes(*model.QuorumCertificate)            {}
func (*NoopConsumer) OnFastQcConstructed(*model.QuorumCertificate)                 {}
func (*NoopConsumer) OnTcConstructed(*model.TimeoutCertificate)                    {}
func (*NoopConsumer) OnQcTriggeredViewChange(*model.QuorumCertificate, uint64)     {}
func (*NoopConsumer) OnTcTriggeredViewChange(*model.TimeoutCertificate, uint64)    {}
func (*NoopConsumer) OnStartingTimeout(model.TimerInfo)                            {}
func (*NoopConsumer) OnLocalTimeout(uint64)                                        {}
func (*NoopConsumer) OnProposingBlock(*model.Proposal)                             {}
func (*NoopConsumer) OnVoting(*model.Vote)                                         {}
func (*NoopConsumer) OnFastPathEligibilityChanged(bool)                            {}
