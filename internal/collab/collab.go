package collab

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"poser-sync/internal/metrics"
	"poser-sync/internal/wire"
)

// Defaults for Options.
const (
	DefaultDebounceWindow   = 300 * time.Millisecond
	DefaultSendInterval     = 2 * time.Second
	DefaultRetryInterval    = 3 * time.Second
	DefaultRetryLimit       = 5
	DefaultPresenceInterval = 5 * time.Second
	DefaultTickInterval     = 100 * time.Millisecond
)

// Envelope is one chat-style payload between two characters.
type Envelope struct {
	From    uuid.UUID
	To      uuid.UUID
	Payload string
}

// Transport delivers payloads to other characters, fire and forget.
type Transport interface {
	Send(ctx context.Context, to uuid.UUID, payload string) error
	Inbox() <-chan Envelope
}

// Presence tells whether a character is still reachable.
type Presence interface {
	Online(id uuid.UUID) bool
}

// PoseSource produces the payloads describing a character's pose.
type PoseSource interface {
	JointTokens(id uuid.UUID) []wire.JointToken
	PoseTuples(id uuid.UUID) []wire.PoseTuple
}

// PoseSink applies payloads received from a peer.
type PoseSink interface {
	EnsurePosing(id uuid.UUID) bool
	StopPosing(id uuid.UUID) bool
	LoadJointTokens(id uuid.UUID, tokens []wire.JointToken) int
	LoadPoseTuples(id uuid.UUID, tuples []wire.PoseTuple) bool
}

// Poser is both ends of the pose engine.
type Poser interface {
	PoseSource
	PoseSink
}

// Link is this client's relationship with one remote character.
type Link struct {
	State   Permission
	Updated time.Time
}

// Options configure a Synchronizer.
type Options struct {
	// Self is the local user's own character.
	Self uuid.UUID

	DebounceWindow   time.Duration
	SendInterval     time.Duration
	RetryInterval    time.Duration
	RetryLimit       int
	PresenceInterval time.Duration
	TickInterval     time.Duration

	Clock  func() time.Time
	Logger zerolog.Logger
	// OnLinkChange is told about every permission change, for UI refresh.
	OnLinkChange func(id uuid.UUID, state Permission)
}

func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = DefaultDebounceWindow
	}
	if o.SendInterval <= 0 {
		o.SendInterval = DefaultSendInterval
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.RetryLimit <= 0 {
		o.RetryLimit = DefaultRetryLimit
	}
	if o.PresenceInterval <= 0 {
		o.PresenceInterval = DefaultPresenceInterval
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

type outbound struct {
	to      uuid.UUID
	kind    string
	payload string
}

type reload struct {
	tuples   []wire.PoseTuple
	attempts int
}

// Synchronizer keeps posed characters in step with peers over a slow
// chat-style transport. All methods must run on one goroutine; Run provides
// one and Do schedules work on it.
type Synchronizer struct {
	opts      Options
	transport Transport
	presence  Presence
	poser     Poser
	log       zerolog.Logger

	links map[uuid.UUID]*Link

	// stage 1: changed character -> pending payloads
	changes    map[uuid.UUID]wire.ChangeKind
	lastChange time.Time

	// stage 2: throttled FIFO
	queue    []outbound
	lastSend time.Time

	reloads      map[uuid.UUID]*reload
	lastRetry    time.Time
	lastPresence time.Time

	work chan func()
}

// New wires a Synchronizer. presence may be nil, which disables presence checks.
func New(transport Transport, presence Presence, poser Poser, opts Options) *Synchronizer {
	opts = opts.withDefaults()
	return &Synchronizer{
		opts:      opts,
		transport: transport,
		presence:  presence,
		poser:     poser,
		log:       opts.Logger,
		links:     make(map[uuid.UUID]*Link),
		changes:   make(map[uuid.UUID]wire.ChangeKind),
		reloads:   make(map[uuid.UUID]*reload),
		work:      make(chan func(), 64),
	}
}

// State returns the permission held with a remote character.
func (s *Synchronizer) State(id uuid.UUID) Permission {
	if l, ok := s.links[id]; ok {
		return l.State
	}
	return PermNone
}

// Links returns a copy of every link.
func (s *Synchronizer) Links() map[uuid.UUID]Link {
	out := make(map[uuid.UUID]Link, len(s.links))
	for id, l := range s.links {
		out[id] = *l
	}
	return out
}

// linkIDs lists linked characters in a stable order.
func (s *Synchronizer) linkIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.links))
	for id := range s.links {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (s *Synchronizer) setState(id uuid.UUID, state Permission, origin string) {
	l, ok := s.links[id]
	if !ok {
		l = &Link{}
		s.links[id] = l
	}
	if l.State != state {
		s.log.Info().Str("peer", id.String()).Stringer("from", l.State).Stringer("to", state).Str("origin", origin).Msg("permission changed")
		metrics.PermissionChanges.WithLabelValues(state.String(), origin).Inc()
	}
	l.State = state
	l.Updated = s.opts.Clock()
	if s.opts.OnLinkChange != nil {
		s.opts.OnLinkChange(id, state)
	}
}

// Assert sets the local side of the relationship with peer and sends it
// immediately, bypassing the throttle. Reports false for states only a peer
// can grant.
func (s *Synchronizer) Assert(ctx context.Context, peer uuid.UUID, state Permission) bool {
	next, send := Assert(s.State(peer), state)
	if !send {
		s.log.Debug().Str("peer", peer.String()).Stringer("state", state).Msg("state cannot be asserted locally")
		return false
	}
	s.setState(peer, next, "local")
	s.send(ctx, peer, wire.KindPerm, wire.EncodePerm(int(state)))
	return true
}

// NotifyChange records that a character's pose changed. Repeated
// notifications coalesce until edits go quiet for the debounce window.
func (s *Synchronizer) NotifyChange(id uuid.UUID, kind wire.ChangeKind) {
	s.changes[id] |= kind
	s.lastChange = s.opts.Clock()
}

// BroadcastStop tells every peer that asked for or holds a relationship that
// local posing stopped. Sent immediately.
func (s *Synchronizer) BroadcastStop(ctx context.Context) int {
	n := 0
	for _, id := range s.linkIDs() {
		if s.links[id].State < PermTheyAskedMe {
			continue
		}
		s.send(ctx, id, wire.KindStop, wire.EncodeStop("Stopped"))
		n++
	}
	return n
}

// Forget drops every link, queued message and pending reload.
func (s *Synchronizer) Forget() {
	s.links = make(map[uuid.UUID]*Link)
	s.changes = make(map[uuid.UUID]wire.ChangeKind)
	s.reloads = make(map[uuid.UUID]*reload)
	s.queue = nil
	metrics.QueueDepth.Set(0)
}

// Pending returns the number of queued outbound messages.
func (s *Synchronizer) Pending() int { return len(s.queue) }

func (s *Synchronizer) send(ctx context.Context, to uuid.UUID, kind, payload string) {
	if err := s.transport.Send(ctx, to, payload); err != nil {
		metrics.SendFailures.Inc()
		s.log.Warn().Err(err).Str("peer", to.String()).Str("kind", kind).Msg("send failed")
		return
	}
	metrics.MessagesSent.WithLabelValues(kind).Inc()
}

// Tick runs every timed duty that is due: flushing coalesced changes into
// the queue, sending at most one queued message, retrying unresolved pose
// lists and checking presence.
func (s *Synchronizer) Tick(ctx context.Context) {
	now := s.opts.Clock()
	if len(s.changes) > 0 && now.Sub(s.lastChange) >= s.opts.DebounceWindow {
		s.flush()
	}
	if len(s.queue) > 0 && now.Sub(s.lastSend) >= s.opts.SendInterval {
		s.drainOne(ctx, now)
	}
	if len(s.reloads) > 0 && now.Sub(s.lastRetry) >= s.opts.RetryInterval {
		s.lastRetry = now
		s.retryReloads()
	}
	if s.presence != nil && now.Sub(s.lastPresence) >= s.opts.PresenceInterval {
		s.lastPresence = now
		s.checkPresence()
	}
}

// flush encodes each changed character's payloads for every peer at or
// above PermGranted.
func (s *Synchronizer) flush() {
	ids := make([]uuid.UUID, 0, len(s.changes))
	for id := range s.changes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var recipients []uuid.UUID
	for _, id := range s.linkIDs() {
		if s.links[id].State >= PermGranted {
			recipients = append(recipients, id)
		}
	}

	for _, id := range ids {
		kind := s.changes[id]
		if len(recipients) == 0 {
			continue
		}
		var body, poses []string
		if kind.Has(wire.ChangeBody) {
			body = wire.EncodeBody(id, s.poser.JointTokens(id))
		}
		if kind.Has(wire.ChangePoses) {
			poses = wire.EncodePoses(id, s.poser.PoseTuples(id))
		}
		for _, to := range recipients {
			for _, m := range body {
				s.queue = append(s.queue, outbound{to: to, kind: wire.KindBody, payload: m})
			}
			for _, m := range poses {
				s.queue = append(s.queue, outbound{to: to, kind: wire.KindPoses, payload: m})
			}
		}
	}
	s.changes = make(map[uuid.UUID]wire.ChangeKind)
	metrics.QueueDepth.Set(float64(len(s.queue)))
}

// drainOne sends the oldest queued message whose recipient still holds
// PermGranted or better. Messages for revoked links are discarded.
func (s *Synchronizer) drainOne(ctx context.Context, now time.Time) {
	for len(s.queue) > 0 {
		m := s.queue[0]
		s.queue = s.queue[1:]
		if s.State(m.to) < PermGranted {
			continue
		}
		s.send(ctx, m.to, m.kind, m.payload)
		s.lastSend = now
		break
	}
	metrics.QueueDepth.Set(float64(len(s.queue)))
}

func (s *Synchronizer) retryReloads() {
	ids := make([]uuid.UUID, 0, len(s.reloads))
	for id := range s.reloads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		r := s.reloads[id]
		r.attempts++
		if s.poser.LoadPoseTuples(id, r.tuples) {
			metrics.ReloadRetries.WithLabelValues("resolved").Inc()
			s.log.Debug().Str("character", id.String()).Int("attempts", r.attempts).Msg("pose list resolved")
			delete(s.reloads, id)
			continue
		}
		if r.attempts >= s.opts.RetryLimit {
			metrics.ReloadRetries.WithLabelValues("exhausted").Inc()
			s.log.Warn().Str("character", id.String()).Int("attempts", r.attempts).Msg("pose list unresolved, giving up")
			delete(s.reloads, id)
			continue
		}
		metrics.ReloadRetries.WithLabelValues("pending").Inc()
	}
}

// checkPresence downgrades links to characters that went offline.
func (s *Synchronizer) checkPresence() {
	for _, id := range s.linkIDs() {
		l := s.links[id]
		if l.State == PermNone || s.presence.Online(id) {
			continue
		}
		next := PermNone
		if l.State >= PermIAskedThem {
			next = PermEnded
		}
		s.setState(id, next, "presence")
	}
}

// Do schedules fn on the goroutine running Run.
func (s *Synchronizer) Do(ctx context.Context, fn func()) error {
	select {
	case s.work <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run owns the synchronizer until ctx is done: it ticks, processes inbound
// payloads and runs work scheduled with Do.
func (s *Synchronizer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	inbox := s.transport.Inbox()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		case env, ok := <-inbox:
			if !ok {
				return nil
			}
			s.Receive(ctx, env.From, env.Payload)
		case fn := <-s.work:
			fn()
		}
	}
}
