// Package hub fans history change events out to subscribers.
// It is transport-agnostic: peers register, receive events via Send, and are
// expected to forward them (the IPC Watch stream is the main consumer).
package hub

import (
	"log/slog"
	"sync"

	"go.klb.dev/clipkeep/internal/history"
)

// Event is a history change delivered to a peer.
type Event struct {
	Change history.Change
	// Monitoring reports whether capture was active when the change happened.
	Monitoring bool
}

// Peer is anything that can receive history events from the hub.
type Peer interface {
	ID() string
	// Send delivers an event to the peer. Must be non-blocking.
	Send(Event)
}

// Hub routes history events to all registered peers.
type Hub struct {
	mu        sync.RWMutex
	peers     map[string]Peer
	latest    Event
	hasLatest bool
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{peers: make(map[string]Peer)}
}

// Register adds a peer. If replay is true the most recent event, if any, is
// delivered immediately.
func (h *Hub) Register(p Peer, replay bool) {
	h.mu.Lock()
	h.peers[p.ID()] = p
	latest, ok := h.latest, h.hasLatest
	total := len(h.peers)
	h.mu.Unlock()

	slog.Debug("watcher registered", "peer", p.ID(), "total", total)

	if replay && ok {
		p.Send(latest)
	}
}

// Unregister removes a peer from the hub.
func (h *Hub) Unregister(p Peer) {
	h.mu.Lock()
	delete(h.peers, p.ID())
	total := len(h.peers)
	h.mu.Unlock()

	slog.Debug("watcher unregistered", "peer", p.ID(), "total", total)
}

// Publish stores ev as the latest event and fans it out to every peer.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	h.latest, h.hasLatest = ev, true
	targets := make([]Peer, 0, len(h.peers))
	for _, p := range h.peers {
		targets = append(targets, p)
	}
	h.mu.Unlock()

	for _, p := range targets {
		p.Send(ev)
	}
}

// Latest returns the most recently published event.
func (h *Hub) Latest() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.hasLatest
}

// Count returns the number of registered peers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// ChanPeer is a Peer backed by a buffered channel. Events that do not fit
// are dropped with a warning.
type ChanPeer struct {
	id string
	ch chan Event
}

// NewChanPeer returns a ChanPeer with the given buffer size.
func NewChanPeer(id string, buffer int) *ChanPeer {
	return &ChanPeer{id: id, ch: make(chan Event, buffer)}
}

func (p *ChanPeer) ID() string { return p.id }

func (p *ChanPeer) Send(ev Event) {
	select {
	case p.ch <- ev:
	default:
		slog.Warn("watcher channel full, dropping", "peer", p.id)
	}
}

// Events returns the channel events are delivered on.
func (p *ChanPeer) Events() <-chan Event { return p.ch }
