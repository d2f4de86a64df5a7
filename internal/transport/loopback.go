package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"poser-sync/internal/collab"
)

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("transport: closed")
	// ErrOffline is returned when the recipient is not reachable.
	ErrOffline = errors.New("transport: recipient offline")
)

const inboxSize = 256

// Hub connects in-process Loopback transports, standing in for the relay in
// tests and the local demo.
type Hub struct {
	mu    sync.RWMutex
	peers map[uuid.UUID]*Loopback
}

func NewHub() *Hub {
	return &Hub{peers: make(map[uuid.UUID]*Loopback)}
}

// Join returns the transport for id. Joining twice replaces the first.
func (h *Hub) Join(id uuid.UUID) *Loopback {
	l := &Loopback{hub: h, id: id, inbox: make(chan collab.Envelope, inboxSize)}
	h.mu.Lock()
	if old, ok := h.peers[id]; ok {
		close(old.inbox)
		old.closed = true
	}
	h.peers[id] = l
	h.mu.Unlock()
	return l
}

// Online reports whether id has joined and not closed.
func (h *Hub) Online(id uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.peers[id]
	return ok
}

// Loopback is one character's end of a Hub.
type Loopback struct {
	hub    *Hub
	id     uuid.UUID
	inbox  chan collab.Envelope
	closed bool
}

// Send delivers payload to the recipient's inbox without blocking.
func (l *Loopback) Send(ctx context.Context, to uuid.UUID, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.hub.mu.RLock()
	defer l.hub.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	peer, ok := l.hub.peers[to]
	if !ok {
		return fmt.Errorf("transport: send to %s: %w", to, ErrOffline)
	}
	select {
	case peer.inbox <- collab.Envelope{From: l.id, To: to, Payload: payload}:
		return nil
	default:
		return fmt.Errorf("transport: send to %s: inbox full", to)
	}
}

func (l *Loopback) Inbox() <-chan collab.Envelope { return l.inbox }

// Online reports whether id is reachable through the hub.
func (l *Loopback) Online(id uuid.UUID) bool { return l.hub.Online(id) }

// Close leaves the hub and closes the inbox.
func (l *Loopback) Close() error {
	l.hub.mu.Lock()
	defer l.hub.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.hub.peers[l.id] == l {
		delete(l.hub.peers, l.id)
	}
	close(l.inbox)
	return nil
}
