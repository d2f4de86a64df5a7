package poser

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poser-sync/internal/animstate"
	"poser-sync/internal/jointpose"
	"poser-sync/internal/mathutil"
	"poser-sync/internal/posing"
	"poser-sync/internal/skeleton"
	"poser-sync/internal/wire"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	p     *Poser
	rig   *skeleton.Rig
	clock *fakeClock
	kinds []wire.ChangeKind
}

func newFixture(t *testing.T, cat *skeleton.Catalog, prepare func(*skeleton.Rig)) *fixture {
	t.Helper()
	f := &fixture{clock: &fakeClock{now: time.Unix(1000, 0)}}
	reg := posing.NewRegistry(posing.Options{Clock: f.clock.Now})
	store := animstate.NewStore(reg, nil, nil, nil, zerolog.Nop())
	f.p = New(reg, store, Options{
		OnChange: func(_ uuid.UUID, k wire.ChangeKind) { f.kinds = append(f.kinds, k) },
		Logger:   zerolog.Nop(),
	})
	f.rig = skeleton.NewRig(uuid.New(), cat)
	if prepare != nil {
		prepare(f.rig)
	}
	require.True(t, f.p.StartPosing(f.rig))
	return f
}

func (f *fixture) state(t *testing.T, j skeleton.JointID) *jointpose.State {
	t.Helper()
	s, ok := f.p.sessions.Get(f.rig.ID)
	require.True(t, ok)
	js := s.Joint(j)
	require.NotNil(t, js)
	return js
}

func (f *fixture) world(t *testing.T, j skeleton.JointID) mathutil.Quat {
	t.Helper()
	w, ok := f.p.WorldRotationOf(f.rig.ID, j)
	require.True(t, ok)
	return w
}

func sameRotation(t *testing.T, want, got mathutil.Quat, msg string) {
	t.Helper()
	assert.Less(t, want.AngleTo(got), 1e-6, msg)
}

// A has children B and C; C has child D.
func treeCatalog(t *testing.T) *skeleton.Catalog {
	t.Helper()
	cat, err := skeleton.NewCatalog([]skeleton.JointDef{
		{Name: "A", Category: skeleton.Body, Children: []string{"B", "C"}},
		{Name: "B", Category: skeleton.Body, Children: []string{"E"}},
		{Name: "C", Category: skeleton.Body, Children: []string{"D"}},
		{Name: "D", Category: skeleton.Body},
		{Name: "E", Category: skeleton.Body},
	})
	require.NoError(t, err)
	return cat
}

func TestMirrorStyleNegatesPartnerX(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mCollarLeft"), cat.MustLookup("mCollarRight")

	ok := f.p.SetRotation(f.rig.ID, left, mathutil.Vec3{mathutil.Deg2Rad(10), 0, 0}, Edit().Deflect(StyleMirror))
	require.True(t, ok)

	l := f.state(t, left).Rotation().Euler()
	r := f.state(t, right).Rotation().Euler()
	assert.InDelta(t, mathutil.Deg2Rad(10), l[0], 1e-9)
	assert.InDelta(t, -l[0], r[0], 1e-9)
	assert.InDelta(t, l[1], r[1], 1e-9)
}

func TestSympatheticDeltaAppliesSameChange(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mShoulderLeft"), cat.MustLookup("mShoulderRight")

	f.state(t, right).LoadRotation(mathutil.EulerToQuat(0, 0.2, 0))
	f.p.SetRotation(f.rig.ID, left, mathutil.Vec3{0.3, 0, 0}, Edit().Deflect(StyleSympatheticDelta))

	applied := f.state(t, left).Rotation()
	sameRotation(t, applied.Mul(mathutil.EulerToQuat(0, 0.2, 0)), f.state(t, right).Rotation(), "partner composed")
}

func TestMirrorDeltaReflectsChange(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mHipLeft"), cat.MustLookup("mHipRight")

	f.p.SetRotation(f.rig.ID, left, mathutil.Vec3{0.3, 0.1, 0.2}, Edit().Deflect(StyleMirrorDelta))
	sameRotation(t, f.state(t, left).Rotation().Reflect(), f.state(t, right).Rotation(), "partner reflected")
}

func TestDeltaStyleComposesAndLeavesPartner(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mHipLeft"), cat.MustLookup("mHipRight")
	opts := Edit().Deflect(StyleDelta).WithAxes(skeleton.RemapNone, 0)

	f.p.SetRotation(f.rig.ID, left, mathutil.Vec3{0.2, 0, 0}, opts)
	f.p.SetRotation(f.rig.ID, left, mathutil.Vec3{0.2, 0, 0}, opts)

	assert.InDelta(t, 0.4, f.state(t, left).Rotation().Euler()[0], 1e-9)
	assert.True(t, f.state(t, right).Rotation().IsIdentity(1e-12))
}

func TestRotationOfInvertsAxisRemap(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	for _, name := range []string{"mChest", "mCollarRight", "mHead"} {
		j := cat.MustLookup(name)
		in := mathutil.Vec3{0.1, 0.2, 0.3}
		require.True(t, f.p.SetRotation(f.rig.ID, j, in, Edit()))
		got, ok := f.p.RotationOf(f.rig.ID, j, Edit())
		require.True(t, ok)
		for i := range in {
			assert.InDelta(t, in[i], got[i], 1e-9, name)
		}
	}
}

func TestMirroredJointReflectsInput(t *testing.T) {
	f := newFixture(t, treeCatalog(t), nil)
	a := f.rig.Catalog.MustLookup("A")
	f.p.SetMirrored(f.rig.ID, a, true)

	f.p.SetRotation(f.rig.ID, a, mathutil.Vec3{0.3, 0, 0}, Edit())
	assert.InDelta(t, -0.3, f.state(t, a).Rotation().Euler()[0], 1e-9)

	got, _ := f.p.RotationOf(f.rig.ID, a, Edit())
	assert.InDelta(t, 0.3, got[0], 1e-9)
}

func TestWorldFrameRotatesInWorldSpace(t *testing.T) {
	f := newFixture(t, treeCatalog(t), func(r *skeleton.Rig) {
		r.Root = mathutil.AxisAngle(mathutil.Vec3{0, 0, 1}, 1.2)
		r.SetRotation(r.Catalog.MustLookup("C"), mathutil.AxisAngle(mathutil.Vec3{0, 1, 0}, 0.4))
	})
	c := f.rig.Catalog.MustLookup("C")
	before := f.world(t, c)

	f.p.SetRotation(f.rig.ID, c, mathutil.Vec3{0.3, 0, 0}, Edit().InFrame(FrameWorld))
	sameRotation(t, mathutil.FromEuler(mathutil.Vec3{0.3, 0, 0}).Mul(before), f.world(t, c), "world-frame edit")

	before = f.world(t, c)
	f.p.SetRotation(f.rig.ID, c, mathutil.Vec3{0, 0.2, 0}, Edit().InFrame(FrameCharacter))
	root := f.rig.Root
	want := root.Mul(mathutil.FromEuler(mathutil.Vec3{0, 0.2, 0})).Mul(root.Inverse()).Mul(before)
	sameRotation(t, want, f.world(t, c), "character-frame edit")
}

func TestWorldLockKeepsLockedSiblingAndMovesTheOther(t *testing.T) {
	f := newFixture(t, treeCatalog(t), func(r *skeleton.Rig) {
		r.Root = mathutil.AxisAngle(mathutil.Vec3{0, 0, 1}, 0.3)
		r.SetRotation(r.Catalog.MustLookup("B"), mathutil.AxisAngle(mathutil.Vec3{1, 0, 0}, 0.2))
	})
	cat := f.rig.Catalog
	a, b, c := cat.MustLookup("A"), cat.MustLookup("B"), cat.MustLookup("C")
	f.p.SetWorldLocked(f.rig.ID, b, true)

	a0, b0, c0 := f.world(t, a), f.world(t, b), f.world(t, c)
	f.p.SetRotation(f.rig.ID, a, mathutil.Vec3{0.1, 0.5, -0.2}, Edit())

	a1 := f.world(t, a)
	delta := a1.Mul(a0.Inverse())
	assert.Greater(t, delta.AngleTo(mathutil.QuatIdentity()), 0.1)
	sameRotation(t, b0, f.world(t, b), "locked joint keeps world rotation")
	sameRotation(t, delta.Mul(c0), f.world(t, c), "unlocked joint follows")
}

func TestWorldLockStopsAtFirstLockedJoint(t *testing.T) {
	f := newFixture(t, treeCatalog(t), nil)
	cat := f.rig.Catalog
	a, b, e := cat.MustLookup("A"), cat.MustLookup("B"), cat.MustLookup("E")
	f.p.SetWorldLocked(f.rig.ID, b, true)
	f.p.SetWorldLocked(f.rig.ID, e, true)

	e0 := f.world(t, e)
	f.p.SetRotation(f.rig.ID, a, mathutil.Vec3{0.4, 0, 0}, Edit())

	assert.False(t, f.state(t, b).Rotation().IsIdentity(1e-6))
	assert.True(t, f.state(t, e).Rotation().IsIdentity(1e-9), "deeper lock is left alone")
	sameRotation(t, e0, f.world(t, e), "chain below lock is stable")
}

func TestCompensationBypassesHistory(t *testing.T) {
	f := newFixture(t, treeCatalog(t), nil)
	cat := f.rig.Catalog
	a, b := cat.MustLookup("A"), cat.MustLookup("B")
	f.p.SetWorldLocked(f.rig.ID, b, true)

	f.p.SetRotation(f.rig.ID, a, mathutil.Vec3{0.4, 0, 0}, Edit())
	assert.Zero(t, f.state(t, b).HistoryLen(jointpose.Rotation))
	assert.False(t, f.p.CanUndo(f.rig.ID, b, jointpose.Rotation))
}

func TestUndoRedoRepropagates(t *testing.T) {
	f := newFixture(t, treeCatalog(t), func(r *skeleton.Rig) {
		r.SetRotation(r.Catalog.MustLookup("B"), mathutil.AxisAngle(mathutil.Vec3{0, 1, 0}, 0.3))
	})
	cat := f.rig.Catalog
	a, b := cat.MustLookup("A"), cat.MustLookup("B")
	f.p.SetWorldLocked(f.rig.ID, b, true)
	b0 := f.world(t, b)

	f.p.SetRotation(f.rig.ID, a, mathutil.Vec3{0, 0, 0.7}, Edit())
	edited := f.state(t, a).Rotation()
	sameRotation(t, b0, f.world(t, b), "after edit")

	require.True(t, f.p.CanUndo(f.rig.ID, a, jointpose.Rotation))
	require.True(t, f.p.Undo(f.rig.ID, a, jointpose.Rotation, Edit()))
	assert.True(t, f.state(t, a).Rotation().IsIdentity(1e-9))
	assert.True(t, f.state(t, b).Rotation().IsIdentity(1e-6), "compensation undone with the parent")
	sameRotation(t, b0, f.world(t, b), "after undo")

	require.True(t, f.p.CanRedo(f.rig.ID, a, jointpose.Rotation))
	require.True(t, f.p.Redo(f.rig.ID, a, jointpose.Rotation, Edit()))
	sameRotation(t, edited, f.state(t, a).Rotation(), "redo restores")
	sameRotation(t, b0, f.world(t, b), "after redo")
}

func TestUndoWithDeflectionStepsPartner(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mElbowLeft"), cat.MustLookup("mElbowRight")
	opts := Edit().Deflect(StyleMirror)

	f.p.SetRotation(f.rig.ID, left, mathutil.Vec3{0.5, 0, 0}, opts)
	require.False(t, f.state(t, right).Rotation().IsIdentity(1e-6))

	f.p.Undo(f.rig.ID, left, jointpose.Rotation, opts)
	assert.True(t, f.state(t, left).Rotation().IsIdentity(1e-9))
	assert.True(t, f.state(t, right).Rotation().IsIdentity(1e-9))
}

func TestSetPositionDeflection(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mHipLeft"), cat.MustLookup("mHipRight")

	f.p.SetPosition(f.rig.ID, left, mathutil.Vec3{0.1, 0.2, 0.3}, Edit().Deflect(StyleMirror))
	got, ok := f.p.PositionOf(f.rig.ID, right)
	require.True(t, ok)
	assert.Equal(t, mathutil.Vec3{0.1, -0.2, 0.3}, got)

	f.clock.Advance(time.Second)
	f.p.SetPosition(f.rig.ID, left, mathutil.Vec3{0, 0.1, 0}, Edit().Deflect(StyleDelta))
	got, _ = f.p.PositionOf(f.rig.ID, left)
	assert.InDelta(t, 0.3, got[1], 1e-12)
	got, _ = f.p.PositionOf(f.rig.ID, right)
	assert.InDelta(t, -0.2, got[1], 1e-12)

	f.p.SetScale(f.rig.ID, left, mathutil.Vec3{0.1, 0.1, 0.1}, Edit().Deflect(StyleSympathetic))
	got, _ = f.p.ScaleOf(f.rig.ID, right)
	assert.Equal(t, mathutil.Vec3{0.1, 0.1, 0.1}, got)
}

func TestReflectJointSwapsWithPosedPartner(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mCollarLeft"), cat.MustLookup("mCollarRight")
	q := mathutil.EulerToQuat(0.2, 0.1, 0.3)
	f.state(t, left).LoadRotation(q)

	require.True(t, f.p.ReflectJoint(f.rig.ID, left))
	assert.True(t, f.state(t, left).Rotation().IsIdentity(1e-12))
	sameRotation(t, q.Reflect(), f.state(t, right).Rotation(), "partner holds the reflection")
}

func TestReflectJointWithoutPosedPartner(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mCollarLeft"), cat.MustLookup("mCollarRight")
	q := mathutil.EulerToQuat(0.2, 0.1, 0.3)
	f.state(t, left).LoadRotation(q)
	f.p.SetPosingJoint(f.rig.ID, right, false)

	f.p.ReflectJoint(f.rig.ID, left)
	sameRotation(t, q.Reflect(), f.state(t, left).Rotation(), "reflected in place")
}

func TestFlipPoseTwiceRestores(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	edits := map[string]mathutil.Quat{
		"mChest":        mathutil.EulerToQuat(0.1, 0.2, 0.3),
		"mShoulderLeft": mathutil.EulerToQuat(0.4, 0, -0.2),
		"mKneeRight":    mathutil.EulerToQuat(0, 0.5, 0),
	}
	for name, q := range edits {
		f.state(t, cat.MustLookup(name)).LoadRotation(q)
	}

	require.True(t, f.p.FlipPose(f.rig.ID))
	sameRotation(t, edits["mShoulderLeft"].Reflect(), f.state(t, cat.MustLookup("mShoulderRight")).Rotation(), "moved across")
	sameRotation(t, edits["mChest"].Reflect(), f.state(t, cat.MustLookup("mChest")).Rotation(), "center reflected")

	f.p.FlipPose(f.rig.ID)
	for name, q := range edits {
		sameRotation(t, q, f.state(t, cat.MustLookup(name)).Rotation(), name)
	}
}

func TestFlipPoseSkipsJointsWithUnposedPartner(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	left, right := cat.MustLookup("mWristLeft"), cat.MustLookup("mWristRight")
	q := mathutil.EulerToQuat(0.3, 0, 0)
	f.state(t, left).LoadRotation(q)
	f.p.SetPosingJoint(f.rig.ID, right, false)

	f.p.FlipPose(f.rig.ID)
	sameRotation(t, q, f.state(t, left).Rotation(), "left untouched")
}

func TestFlipPoseKeepsWorldLockedJoints(t *testing.T) {
	cat, err := skeleton.NewCatalog([]skeleton.JointDef{
		{Name: "A", Category: skeleton.Body, Children: []string{"B", "C"}},
		{Name: "B", Category: skeleton.Body, NoAutoFlip: true},
		{Name: "C", Category: skeleton.Body, NoAutoFlip: true},
	})
	require.NoError(t, err)
	f := newFixture(t, cat, func(r *skeleton.Rig) {
		r.SetRotation(r.Catalog.MustLookup("B"), mathutil.AxisAngle(mathutil.Vec3{0, 1, 0}, 0.4))
	})
	a, b, c := cat.MustLookup("A"), cat.MustLookup("B"), cat.MustLookup("C")
	q := mathutil.EulerToQuat(0.3, 0.2, 0.5)
	f.state(t, a).LoadRotation(q)
	f.p.SetWorldLocked(f.rig.ID, b, true)
	b0, c0 := f.world(t, b), f.world(t, c)

	require.True(t, f.p.FlipPose(f.rig.ID))
	sameRotation(t, q.Reflect(), f.state(t, a).Rotation(), "parent flipped")
	sameRotation(t, b0, f.world(t, b), "locked child holds its world rotation")
	assert.Greater(t, c0.AngleTo(f.world(t, c)), 0.1, "unlocked child follows the parent")
	assert.Zero(t, f.state(t, b).HistoryLen(jointpose.Rotation))
}

func TestExportSafety(t *testing.T) {
	f := newFixture(t, skeleton.Default(), func(r *skeleton.Rig) {
		r.SetRotation(r.Catalog.MustLookup("mNeck"), mathutil.EulerToQuat(0.1, 0, 0))
	})
	cat := f.rig.Catalog
	neck := cat.MustLookup("mNeck")

	assert.False(t, f.p.SafeToBake(f.rig.ID, neck))
	target := f.state(t, neck).TargetRotation()
	require.True(t, f.p.ZeroBaseRotation(f.rig.ID, neck))
	assert.True(t, f.p.SafeToBake(f.rig.ID, neck))
	sameRotation(t, target, f.state(t, neck).TargetRotation(), "target kept")

	f.p.SetRotation(f.rig.ID, cat.MustLookup("mHead"), mathutil.Vec3{0.2, 0, 0}, Edit())
	assert.Equal(t, []skeleton.JointID{cat.MustLookup("mHead")}, f.p.UnsafeJoints(f.rig.ID))

	assert.InDelta(t, 0.02/1.32, MinimumRotation(cat, cat.MustLookup("mElbowLeft")), 1e-12)
	assert.InDelta(t, 0.02, MinimumRotation(cat, cat.MustLookup("mAnkleLeft")), 1e-12)
}

func TestMissingReferencesNoOp(t *testing.T) {
	f := newFixture(t, treeCatalog(t), nil)
	other := uuid.New()
	assert.False(t, f.p.SetRotation(other, 0, mathutil.Vec3{1, 0, 0}, Edit()))
	assert.False(t, f.p.SetRotation(f.rig.ID, 99, mathutil.Vec3{1, 0, 0}, Edit()))
	assert.False(t, f.p.Undo(f.rig.ID, 99, jointpose.Rotation, Edit()))
	assert.False(t, f.p.ReflectJoint(other, 0))
	assert.False(t, f.p.FlipPose(other))
	_, ok := f.p.RotationOf(other, 0, Edit())
	assert.False(t, ok)
	assert.Nil(t, f.p.JointTokens(other))
}

func TestRecaptureOnlyTouchesReleasedJoints(t *testing.T) {
	f := newFixture(t, treeCatalog(t), nil)
	cat := f.rig.Catalog
	a, c := cat.MustLookup("A"), cat.MustLookup("C")
	f.p.SetPosingJoint(f.rig.ID, c, false)
	live := mathutil.EulerToQuat(0, 0.6, 0)
	f.rig.SetRotation(c, live)
	f.state(t, c).LoadRotation(mathutil.EulerToQuat(0.1, 0, 0))

	n := f.p.Recapture(f.rig.ID, []skeleton.JointID{a, c})
	assert.Equal(t, 1, n)
	assert.True(t, f.p.IsPosingJoint(f.rig.ID, c))
	sameRotation(t, live, f.state(t, c).Base().Rotation, "rebased")
	assert.False(t, f.state(t, c).Rotation().IsIdentity(1e-6), "delta kept")
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	f := newFixture(t, skeleton.Default(), nil)
	cat := f.rig.Catalog
	chest, neck := cat.MustLookup("mChest"), cat.MustLookup("mNeck")
	f.p.SetRotation(f.rig.ID, chest, mathutil.Vec3{0.1, 0.2, 0.3}, Edit())
	f.p.SetPosition(f.rig.ID, chest, mathutil.Vec3{0, 0, 0.05}, Edit())
	f.p.SetWorldLocked(f.rig.ID, neck, true)
	f.p.ZeroBaseRotation(f.rig.ID, neck)

	rec, ok := f.p.Save(f.rig.ID, false)
	require.True(t, ok)
	assert.Equal(t, RecordVersion, rec.Version)
	want := f.state(t, chest).Rotation()

	require.True(t, f.p.StopPosing(f.rig.ID))
	require.True(t, f.p.StartPosing(f.rig))
	require.True(t, f.p.Restore(f.rig.ID, rec))

	sameRotation(t, want, f.state(t, chest).Rotation(), "rotation restored")
	got, _ := f.p.PositionOf(f.rig.ID, chest)
	assert.Equal(t, mathutil.Vec3{0, 0, 0.05}, got)
	assert.True(t, f.state(t, neck).WorldLocked)
	assert.True(t, f.state(t, neck).UserBaseZero())
	assert.False(t, f.p.CanUndo(f.rig.ID, chest, jointpose.Rotation))
}

func TestJointTokensLoadOnPeer(t *testing.T) {
	src := newFixture(t, skeleton.Default(), nil)
	cat := src.rig.Catalog
	knee := cat.MustLookup("mKneeLeft")
	src.p.SetRotation(src.rig.ID, knee, mathutil.Vec3{0.5, 0, 0}, Edit())
	src.p.SetMirrored(src.rig.ID, knee, true)

	toks := src.p.JointTokens(src.rig.ID)
	require.Len(t, toks, 1)
	assert.Equal(t, int(knee), toks[0].Number)
	assert.Equal(t, wire.FlagMirrored, toks[0].Flags)

	dst := newFixture(t, skeleton.Default(), nil)
	dst.kinds = nil
	assert.Equal(t, 1, dst.p.LoadJointTokens(dst.rig.ID, toks))
	sameRotation(t, src.state(t, knee).Rotation(), dst.state(t, knee).Rotation(), "peer delta")
	assert.True(t, dst.state(t, knee).Mirrored)
	assert.Empty(t, dst.kinds, "loading from a peer does not echo")
	assert.Zero(t, dst.state(t, knee).HistoryLen(jointpose.Rotation))
}

func TestJointTokensSkipReleasedJoints(t *testing.T) {
	src := newFixture(t, skeleton.Default(), nil)
	cat := src.rig.Catalog
	knee, chest := cat.MustLookup("mKneeLeft"), cat.MustLookup("mChest")
	src.p.SetRotation(src.rig.ID, knee, mathutil.Vec3{0.5, 0, 0}, Edit())
	src.p.SetRotation(src.rig.ID, chest, mathutil.Vec3{0, 0.2, 0}, Edit())
	require.True(t, src.p.SetPosingJoint(src.rig.ID, knee, false))

	toks := src.p.JointTokens(src.rig.ID)
	require.Len(t, toks, 1)
	assert.Equal(t, int(chest), toks[0].Number)

	dst := newFixture(t, skeleton.Default(), nil)
	assert.Equal(t, 1, dst.p.LoadJointTokens(dst.rig.ID, toks))
	assert.True(t, dst.state(t, knee).Rotation().IsIdentity(1e-9), "released joint not carried")
}

func TestFlagToggleMarksJointForSync(t *testing.T) {
	src := newFixture(t, skeleton.Default(), nil)
	cat := src.rig.Catalog
	neck, hip := cat.MustLookup("mNeck"), cat.MustLookup("mHipLeft")
	require.Empty(t, src.p.JointTokens(src.rig.ID))

	src.p.SetWorldLocked(src.rig.ID, neck, true)
	src.p.SetMirrored(src.rig.ID, hip, true)

	toks := src.p.JointTokens(src.rig.ID)
	require.Len(t, toks, 2)
	flags := map[int]wire.JointFlags{}
	for _, tok := range toks {
		flags[tok.Number] = tok.Flags
	}
	assert.Equal(t, wire.FlagWorldLocked, flags[int(neck)])
	assert.Equal(t, wire.FlagMirrored, flags[int(hip)])

	dst := newFixture(t, skeleton.Default(), nil)
	assert.Equal(t, 2, dst.p.LoadJointTokens(dst.rig.ID, toks))
	assert.True(t, dst.state(t, neck).WorldLocked)
	assert.True(t, dst.state(t, hip).Mirrored)
}

func TestEditsNotifyBodyChanges(t *testing.T) {
	f := newFixture(t, treeCatalog(t), nil)
	assert.Equal(t, []wire.ChangeKind{wire.ChangeBoth}, f.kinds)
	f.p.SetRotation(f.rig.ID, 0, mathutil.Vec3{0.1, 0, 0}, Edit())
	assert.Equal(t, wire.ChangeBody, f.kinds[len(f.kinds)-1])
}

func TestEditOptionsBuilder(t *testing.T) {
	o := Edit().Deflect(StyleMirror).InFrame(FrameCamera)
	assert.Equal(t, StyleMirror, o.Style())
	assert.Equal(t, FrameCamera, o.Frame())
	assert.True(t, o.composes())
	assert.False(t, Edit().Deflect(StyleMirror).composes())
	assert.True(t, Edit().Deflect(StyleDelta).composes())

	s, ok := ParseStyle("sympathetic-delta")
	assert.True(t, ok)
	assert.Equal(t, StyleSympatheticDelta, s)
	fr, ok := ParseFrame("world")
	assert.True(t, ok)
	assert.Equal(t, FrameWorld, fr)
}
