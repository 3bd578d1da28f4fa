package stub

import (
	"sync"

	"github.com/altair-bft/hotstuff2/hotstuff/model"
	"github.com/altair-bft/hotstuff2/network"
)

// Hub is an in-memory message hub connecting the conduits of multiple
// replicas inside one process. Delivery is synchronous and lossless unless a
// drop rule is installed, which makes multi-replica scenarios deterministic.
type Hub struct {
	mu       sync.RWMutex
	handlers map[model.Identifier]func(originID model.Identifier, data []byte)
	dropRule func(from, to model.Identifier, data []byte) bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		handlers: make(map[model.Identifier]func(model.Identifier, []byte)),
	}
}

// Register attaches a replica's inbound handler and returns its conduit.
func (h *Hub) Register(nodeID model.Identifier, handler func(originID model.Identifier, data []byte)) network.Conduit {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[nodeID] = handler
	return &conduit{hub: h, self: nodeID}
}

// WithDropRule installs a predicate; deliveries for which it returns true
// are silently dropped. Pass nil to restore lossless delivery.
func (h *Hub) WithDropRule(rule func(from, to model.Identifier, data []byte) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropRule = rule
}

func (h *Hub) deliver(from, to model.Identifier, data []byte) {
	h.mu.RLock()
	handler, ok := h.handlers[to]
	rule := h.dropRule
	h.mu.RUnlock()
	if !ok {
		return
	}
	if rule != nil && rule(from, to, data) {
		return
	}
	handler(from, data)
}

type conduit struct {
	hub  *Hub
	self model.Identifier
}

var _ network.Conduit = (*conduit)(nil)

func (c *conduit) Send(to model.Identifier, data []byte) error {
	c.hub.deliver(c.self, to, data)
	return nil
}

func (c *conduit) Broadcast(data []byte) error {
	c.hub.mu.RLock()
	targets := make([]model.Identifier, 0, len(c.hub.handlers))
	for nodeID := range c.hub.handlers {
		if nodeID != c.self {
			targets = append(targets, nodeID)
		}
	}
	c.hub.mu.RUnlock()
	for _, to := range targets {
		c.hub.deliver(c.self, to, data)
	}
	return nil
}
