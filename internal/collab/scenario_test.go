package collab_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poser-sync/internal/animstate"
	"poser-sync/internal/collab"
	"poser-sync/internal/mathutil"
	"poser-sync/internal/poser"
	"poser-sync/internal/posing"
	"poser-sync/internal/skeleton"
	"poser-sync/internal/transport"
	"poser-sync/internal/wire"
)

type rigSet map[uuid.UUID]*skeleton.Rig

func (r rigSet) Rig(id uuid.UUID) (*skeleton.Rig, bool) {
	rig, ok := r[id]
	return rig, ok
}

type client struct {
	self  uuid.UUID
	rigs  rigSet
	poser *poser.Poser
	sync  *collab.Synchronizer
	inbox <-chan collab.Envelope
}

// newClient builds one viewer that sees every character in ids.
func newClient(hub *transport.Hub, self uuid.UUID, ids []uuid.UUID, cat *skeleton.Catalog, now func() time.Time) *client {
	rigs := rigSet{}
	for _, id := range ids {
		rigs[id] = skeleton.NewRig(id, cat)
	}
	reg := posing.NewRegistry(posing.Options{Clock: now})
	store := animstate.NewStore(reg, nil, nil, nil, zerolog.Nop())
	p := poser.New(reg, store, poser.Options{Rigs: rigs, Logger: zerolog.Nop()})

	tr := hub.Join(self)
	s := collab.New(tr, tr, p, collab.Options{Self: self, Clock: now, Logger: zerolog.Nop()})
	p.OnChange(s.NotifyChange)
	return &client{self: self, rigs: rigs, poser: p, sync: s, inbox: tr.Inbox()}
}

// pump delivers everything waiting in the client's inbox and returns the payloads.
func (c *client) pump(ctx context.Context) []string {
	var got []string
	for {
		select {
		case env := <-c.inbox:
			got = append(got, env.Payload)
			c.sync.Receive(ctx, env.From, env.Payload)
		default:
			return got
		}
	}
}

func TestPoseEachOtherOverLoopback(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(9000, 0)
	clock := func() time.Time { return now }
	cat := skeleton.Default()
	hub := transport.NewHub()
	alice, bob := uuid.New(), uuid.New()
	ids := []uuid.UUID{alice, bob}

	a := newClient(hub, alice, ids, cat, clock)
	b := newClient(hub, bob, ids, cat, clock)

	// Handshake to PoseEachOther.
	require.True(t, a.sync.Assert(ctx, bob, collab.PermIAskedThem))
	b.pump(ctx)
	assert.Equal(t, collab.PermTheyAskedMe, b.sync.State(alice))
	require.True(t, b.sync.Assert(ctx, alice, collab.PermIAskedThem))
	a.pump(ctx)
	b.pump(ctx)
	require.Equal(t, collab.PermGranted, a.sync.State(bob))
	require.Equal(t, collab.PermGranted, b.sync.State(alice))

	a.sync.Assert(ctx, bob, collab.PermTheyPoseMe)
	b.pump(ctx)
	b.sync.Assert(ctx, alice, collab.PermTheyPoseMe)
	a.pump(ctx)
	require.Equal(t, collab.PermPoseEachOther, a.sync.State(bob))
	require.Equal(t, collab.PermPoseEachOther, b.sync.State(alice))

	// Alice poses herself.
	chest := cat.MustLookup("mChest")
	require.True(t, a.poser.StartPosing(a.rigs[alice]))
	require.True(t, a.poser.SetRotation(alice, chest, mathutil.Vec3{0.3, 0, 0}, poser.Edit()))

	a.sync.Tick(ctx)
	assert.Empty(t, b.pump(ctx), "nothing leaves before the debounce window")

	now = now.Add(collab.DefaultDebounceWindow)
	a.sync.Tick(ctx)
	got := b.pump(ctx)
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], wire.Prefix+",SBOD,"+alice.String()))

	require.True(t, b.poser.IsPosing(alice))
	rot, ok := b.poser.RotationOf(alice, chest, poser.Edit())
	require.True(t, ok)
	assert.InDelta(t, 0.3, rot[0], 2e-3)
	assert.InDelta(t, 0, rot[1], 2e-3)
	assert.InDelta(t, 0, rot[2], 2e-3)

	// Loading a peer's pose does not echo back.
	now = now.Add(time.Minute)
	b.sync.Tick(ctx)
	assert.Equal(t, 0, b.sync.Pending())
	assert.Empty(t, a.pump(ctx))

	// Bob poses Alice's avatar for her.
	neck := cat.MustLookup("mNeck")
	require.True(t, b.poser.SetRotation(alice, neck, mathutil.Vec3{0, 0, -0.4}, poser.Edit()))
	now = now.Add(collab.DefaultDebounceWindow)
	b.sync.Tick(ctx)
	require.Len(t, a.pump(ctx), 1)
	rot, ok = a.poser.RotationOf(alice, neck, poser.Edit())
	require.True(t, ok)
	assert.InDelta(t, -0.4, rot[2], 2e-3)

	// Stopping ends the link on the other side.
	a.poser.StopPosing(alice)
	assert.Equal(t, 1, a.sync.BroadcastStop(ctx))
	b.pump(ctx)
	assert.False(t, b.poser.IsPosing(alice))
	assert.Equal(t, collab.PermEnded, b.sync.State(alice))
}
