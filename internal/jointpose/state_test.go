package jointpose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poser-sync/internal/mathutil"
	"poser-sync/internal/skeleton"
)

type fakeClock struct{ now time.Time }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newState(c *fakeClock) *State {
	return New(0, skeleton.IdentityTransform(), false, WithClock(c.Now))
}

func rotX(a float64) mathutil.Quat { return mathutil.EulerToQuat(a, 0, 0) }

func TestBurstProducesOneUndoEntry(t *testing.T) {
	clk := newClock()
	s := newState(clk)

	for i := 1; i <= 10; i++ {
		s.SetRotation(rotX(float64(i) * 0.01))
		clk.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, 1, s.HistoryLen(Rotation))

	require.True(t, s.Undo(Rotation))
	assert.True(t, s.Rotation().IsIdentity(1e-12))
}

func TestSpacedWritesEachProduceAnEntry(t *testing.T) {
	clk := newClock()
	s := newState(clk)

	for i := 1; i <= 5; i++ {
		s.SetPosition(mathutil.Vec3{float64(i), 0, 0})
		clk.Advance(400 * time.Millisecond)
	}
	assert.Equal(t, 5, s.HistoryLen(Position))
	assert.Equal(t, 0, s.HistoryLen(Rotation))
}

func TestWritesExactlyOneWindowApartEachProduceAnEntry(t *testing.T) {
	clk := newClock()
	s := newState(clk)

	for i := 1; i <= 3; i++ {
		s.SetPosition(mathutil.Vec3{float64(i), 0, 0})
		clk.Advance(DebounceWindow)
	}
	assert.Equal(t, 3, s.HistoryLen(Position))

	require.True(t, s.Undo(Position))
	assert.Equal(t, mathutil.Vec3{2, 0, 0}, s.Position())
}

func TestHistoryCapDropsOldest(t *testing.T) {
	clk := newClock()
	s := newState(clk)

	for i := 1; i <= 30; i++ {
		s.SetScale(mathutil.Vec3{float64(i), 0, 0})
		clk.Advance(time.Second)
	}
	assert.Equal(t, HistoryCap, s.HistoryLen(Scale))

	for s.CanUndo(Scale) {
		s.Undo(Scale)
	}
	// The oldest surviving entry is the value written by the 10th set.
	assert.Equal(t, mathutil.Vec3{10, 0, 0}, s.Scale())
}

func TestUndoRedoRestoresValue(t *testing.T) {
	clk := newClock()
	s := newState(clk)

	s.SetPosition(mathutil.Vec3{1, 0, 0})
	clk.Advance(time.Second)
	s.SetPosition(mathutil.Vec3{2, 0, 0})
	clk.Advance(time.Second)
	s.SetPosition(mathutil.Vec3{3, 0, 0})

	require.False(t, s.CanRedo(Position))
	require.True(t, s.Undo(Position))
	assert.Equal(t, mathutil.Vec3{2, 0, 0}, s.Position())
	require.True(t, s.CanRedo(Position))
	require.True(t, s.Redo(Position))
	assert.Equal(t, mathutil.Vec3{3, 0, 0}, s.Position())
	assert.False(t, s.CanRedo(Position))

	s.Undo(Position)
	s.Undo(Position)
	assert.Equal(t, mathutil.Vec3{1, 0, 0}, s.Position())
	s.Redo(Position)
	assert.Equal(t, mathutil.Vec3{2, 0, 0}, s.Position())
	s.Redo(Position)
	assert.Equal(t, mathutil.Vec3{3, 0, 0}, s.Position())
	assert.Equal(t, 3, s.HistoryLen(Position))
}

func TestUndoClampsAtOldest(t *testing.T) {
	clk := newClock()
	s := newState(clk)
	s.SetRotation(rotX(0.5))

	s.Undo(Rotation)
	s.Undo(Rotation)
	s.Undo(Rotation)
	assert.True(t, s.Rotation().IsIdentity(1e-12))
	assert.False(t, s.CanUndo(Rotation))

	s.Redo(Rotation)
	assert.InDelta(t, 0, rotX(0.5).AngleTo(s.Rotation()), 1e-9)
}

func TestUndoOnEmptyHistoryIsNoop(t *testing.T) {
	s := newState(newClock())
	assert.False(t, s.Undo(Scale))
	assert.False(t, s.Redo(Scale))
	assert.False(t, s.CanUndo(Scale))
}

func TestSetAfterUndoDiscardsRedoBranch(t *testing.T) {
	clk := newClock()
	s := newState(clk)

	s.SetPosition(mathutil.Vec3{1, 0, 0})
	clk.Advance(time.Second)
	s.SetPosition(mathutil.Vec3{2, 0, 0})
	clk.Advance(time.Second)
	s.Undo(Position)
	clk.Advance(time.Second)
	s.SetPosition(mathutil.Vec3{5, 0, 0})

	assert.False(t, s.CanRedo(Position))
	s.Undo(Position)
	assert.Equal(t, mathutil.Vec3{1, 0, 0}, s.Position())
}

func TestLoadBypassesHistory(t *testing.T) {
	s := newState(newClock())
	s.LoadRotation(rotX(0.3))
	s.LoadPosition(mathutil.Vec3{1, 2, 3})
	assert.Equal(t, 0, s.HistoryLen(Rotation))
	assert.Equal(t, 0, s.HistoryLen(Position))
	assert.True(t, s.Changed())
}

func TestReflectTwiceIsNoop(t *testing.T) {
	live := skeleton.IdentityTransform()
	live.Rotation = mathutil.EulerToQuat(0.1, 0.2, 0.3)
	s := New(0, live, false)
	s.LoadRotation(mathutil.EulerToQuat(-0.4, 0.5, 0.6))

	before := s.Target()
	s.Reflect()
	assert.NotEqual(t, before.Rotation, s.TargetRotation())
	s.Reflect()
	assert.Equal(t, before, s.Target())
}

func TestReflectSkipsCollisionVolumes(t *testing.T) {
	s := New(0, skeleton.IdentityTransform(), true)
	s.LoadRotation(rotX(0.3))
	s.Reflect()
	assert.InDelta(t, 0, rotX(0.3).AngleTo(s.Rotation()), 1e-12)
}

func TestTargetComposition(t *testing.T) {
	live := skeleton.Transform{
		Rotation: mathutil.EulerToQuat(0, 0, 0.5),
		Position: mathutil.Vec3{1, 0, 0},
		Scale:    mathutil.Vec3{1, 1, 1},
	}
	s := New(0, live, false)
	s.LoadRotation(rotX(0.2))
	s.LoadPosition(mathutil.Vec3{0, 1, 0})
	s.LoadScale(mathutil.Vec3{0.5, 0, 0})

	want := rotX(0.2).Mul(live.Rotation)
	assert.InDelta(t, 0, want.AngleTo(s.TargetRotation()), 1e-12)
	assert.Equal(t, mathutil.Vec3{1, 1, 0}, s.TargetPosition())
	assert.Equal(t, mathutil.Vec3{1.5, 1, 1}, s.TargetScale())
}

func TestRecaptureKeepsDelta(t *testing.T) {
	s := newState(newClock())
	s.LoadRotation(rotX(0.2))

	live := skeleton.IdentityTransform()
	live.Rotation = mathutil.EulerToQuat(0, 0.7, 0)
	s.Recapture(live)

	assert.Equal(t, live, s.Base())
	assert.InDelta(t, 0, rotX(0.2).AngleTo(s.Rotation()), 1e-12)
	assert.Equal(t, live, s.Revert())
}

func TestZeroBaseRotationKeepsTarget(t *testing.T) {
	live := skeleton.IdentityTransform()
	live.Rotation = mathutil.EulerToQuat(0.3, 0, 0.2)
	s := New(0, live, false)
	s.LoadRotation(mathutil.EulerToQuat(0, 0.4, 0))

	before := s.TargetRotation()
	require.False(t, s.BaseRotationIsZero())
	s.ZeroBaseRotation()

	assert.True(t, s.BaseRotationIsZero())
	assert.True(t, s.UserBaseZero())
	assert.InDelta(t, 0, before.AngleTo(s.TargetRotation()), 1e-12)
}

func TestBasePriority(t *testing.T) {
	s := newState(newClock())
	require.True(t, s.SetBaseRotation(rotX(0.1), HighPriority))
	assert.False(t, s.SetBaseRotation(rotX(0.2), MediumPriority))
	assert.InDelta(t, 0, rotX(0.1).AngleTo(s.Base().Rotation), 1e-12)

	s.ResetPriority()
	assert.True(t, s.SetBaseRotation(rotX(0.2), MediumPriority))
	assert.Equal(t, MediumPriority, s.BasePriority())
}

func TestSwapAndMirrorRotation(t *testing.T) {
	a := newState(newClock())
	b := newState(newClock())
	a.LoadRotation(mathutil.EulerToQuat(0.1, 0.2, 0.3))

	b.MirrorRotationFrom(a)
	assert.InDelta(t, 0, a.Rotation().Reflect().AngleTo(b.Rotation()), 1e-12)

	ra, rb := a.Rotation(), b.Rotation()
	a.SwapRotationWith(b)
	assert.Equal(t, rb, a.Rotation())
	assert.Equal(t, ra, b.Rotation())
}

func TestResetRecordsHistory(t *testing.T) {
	clk := newClock()
	s := newState(clk)
	s.SetPosition(mathutil.Vec3{1, 0, 0})
	clk.Advance(time.Second)
	s.Reset()

	assert.Equal(t, mathutil.Vec3{}, s.Position())
	require.True(t, s.Undo(Position))
	assert.Equal(t, mathutil.Vec3{1, 0, 0}, s.Position())
}
