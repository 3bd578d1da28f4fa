package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/altair-bft/hotstuff2/hotstuff"
	"github.com/altair-bft/hotstuff2/hotstuff/helper"
	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/module/irrecoverable"
	"github.com/altair-bft/hotstuff2/utils/unittest"
)

// fakeHandler records which events reached the handler, in order.
type fakeHandler struct {
	mu       sync.Mutex
	events   []string
	timeouts chan time.Time
	failOn   string
}

var _ hotstuff.EventHandler = (*fakeHandler)(nil)

func newFakeHandler() *fakeHandler {
	return &fakeHandler{timeouts: make(chan time.Time, 1)}
}

func (h *fakeHandler) record(event string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	if h.failOn == event {
		return errors.New("handler failure")
	}
	return nil
}

func (h *fakeHandler) recorded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func (h *fakeHandler) Start() error                                    { return h.record("start") }
func (h *fakeHandler) TimeoutChannel() <-chan time.Time                { return h.timeouts }
func (h *fakeHandler) OnReceiveProposal(*model.Proposal) error         { return h.record("proposal") }
func (h *fakeHandler) OnQCConstructed(*model.QuorumCertificate) error  { return h.record("qc") }
func (h *fakeHandler) OnTCConstructed(*model.TimeoutCertificate) error { return h.record("tc") }
func (h *fakeHandler) OnLocalTimeout() error                           { return h.record("timeout") }
func (h *fakeHandler) OnPartialNewView(uint64) error                   { return h.record("partial") }

func startLoop(t *testing.T, handler hotstuff.EventHandler) (*EventLoop, <-chan error, context.CancelFunc) {
	loop := New(unittest.Logger(), handler)
	signaler, errs := irrecoverable.NewSignaler()
	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(irrecoverable.WithSignaler(ctx, signaler))
	return loop, errs, cancel
}

func TestEventsAreSerialized(t *testing.T) {
	handler := newFakeHandler()
	loop, _, cancel := startLoop(t, handler)
	defer cancel()

	genesis, rootQC := helper.TrustedRoot()
	block := helper.MakeBlock(genesis, 1, unittest.IdentifierFixture(), rootQC)

	loop.SubmitProposal(helper.MakeProposal(block))
	loop.SubmitQC(helper.UnsignedQC(block, model.PhasePropose, nil))
	loop.SubmitTC(&model.TimeoutCertificate{View: 1, NewestQC: rootQC})
	loop.SubmitPartialNewView(1)
	handler.timeouts <- time.Now()

	unittest.AssertEventuallyTrue(t, func() bool {
		return len(handler.recorded()) >= 6
	}, time.Second, "not all events processed")

	events := handler.recorded()
	require.Equal(t, "start", events[0])
	require.ElementsMatch(t, []string{"proposal", "qc", "tc", "partial", "timeout"}, events[1:6])
}

func TestHandlerErrorIsIrrecoverable(t *testing.T) {
	handler := newFakeHandler()
	handler.failOn = "qc"
	loop, errs, cancel := startLoop(t, handler)
	defer cancel()

	genesis, rootQC := helper.TrustedRoot()
	block := helper.MakeBlock(genesis, 1, unittest.IdentifierFixture(), rootQC)
	loop.SubmitQC(helper.UnsignedQC(block, model.PhasePropose, nil))

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler error was not escalated")
	}
	unittest.RequireCloseBefore(t, loop.Done(), time.Second, "loop did not stop after throw")
}

func TestCancellationStopsLoop(t *testing.T) {
	handler := newFakeHandler()
	loop, _, cancel := startLoop(t, handler)

	cancel()
	unittest.RequireCloseBefore(t, loop.Done(), time.Second, "loop did not stop on cancellation")
}
