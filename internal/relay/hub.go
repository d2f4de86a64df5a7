package relay

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"poser-sync/internal/metrics"
)

// ErrOffline is returned when routing to a character that is not connected.
var ErrOffline = errors.New("relay: recipient offline")

type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func (p *peer) writeFrame(f Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(f)
}

// Hub routes frames between connected characters.
type Hub struct {
	mu    sync.Mutex
	peers map[uuid.UUID]*peer
}

func newHub() *Hub {
	return &Hub{peers: make(map[uuid.UUID]*peer)}
}

// join registers p for id, replacing an older connection.
func (h *Hub) join(id uuid.UUID, p *peer) {
	h.mu.Lock()
	h.peers[id] = p
	metrics.RelayConnections.Set(float64(len(h.peers)))
	h.mu.Unlock()
	h.broadcastPresence()
}

// leave removes id if p is still its connection.
func (h *Hub) leave(id uuid.UUID, p *peer) {
	h.mu.Lock()
	if h.peers[id] == p {
		delete(h.peers, id)
	}
	metrics.RelayConnections.Set(float64(len(h.peers)))
	h.mu.Unlock()
	h.broadcastPresence()
}

// Online reports whether id is connected.
func (h *Hub) Online(id uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.peers[id]
	return ok
}

// Connected lists connected characters in a stable order.
func (h *Hub) Connected() []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connectedLocked()
}

func (h *Hub) connectedLocked() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(h.peers))
	for id := range h.peers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (h *Hub) route(from uuid.UUID, f Frame) error {
	h.mu.Lock()
	p, ok := h.peers[f.To]
	h.mu.Unlock()
	if !ok {
		metrics.RelayMessages.WithLabelValues("offline").Inc()
		return ErrOffline
	}
	f.From = from
	if err := p.writeFrame(f); err != nil {
		return err
	}
	metrics.RelayMessages.WithLabelValues("delivered").Inc()
	return nil
}

func (h *Hub) broadcastPresence() {
	h.mu.Lock()
	online := h.connectedLocked()
	peers := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	f := Frame{Type: FramePresence, Online: online}
	for _, p := range peers {
		_ = p.writeFrame(f)
	}
}
