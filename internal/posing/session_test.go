package posing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poser-sync/internal/mathutil"
	"poser-sync/internal/skeleton"
)

func newRig() *skeleton.Rig {
	return skeleton.NewRig(uuid.New(), skeleton.Default())
}

func TestActivateSnapshotsEveryJoint(t *testing.T) {
	rig := newRig()
	chest := rig.Catalog.MustLookup("mChest")
	rig.SetRotation(chest, mathutil.EulerToQuat(0.2, 0, 0))

	s := New(rig, Options{})
	assert.Nil(t, s.Joint(chest))
	s.Activate()

	require.Len(t, s.Joints(), rig.Catalog.Len())
	js := s.Joint(chest)
	require.NotNil(t, js)
	assert.Equal(t, rig.Local(chest), js.Base())
	assert.True(t, js.Posed)

	belly := s.Joint(rig.Catalog.MustLookup("BELLY"))
	assert.True(t, belly.IsCollisionVolume())
}

func TestUpdateBlendsTowardTarget(t *testing.T) {
	rig := newRig()
	s := New(rig, Options{TimeConstant: 100 * time.Millisecond})
	s.Activate()

	neck := rig.Catalog.MustLookup("mNeck")
	target := mathutil.EulerToQuat(0, 0, 0.8)
	s.Joint(neck).LoadRotation(target)

	moved := s.Update(100 * time.Millisecond)
	assert.Equal(t, 1, moved)

	// One time constant covers 1-1/e of the remaining angle.
	remaining := rig.Local(neck).Rotation.AngleTo(target)
	assert.InDelta(t, 0.8/2.718281828, remaining, 1e-3)

	for i := 0; i < 100; i++ {
		s.Update(50 * time.Millisecond)
	}
	assert.Less(t, rig.Local(neck).Rotation.AngleTo(target), 2*mathutil.RotationEpsilon)
	assert.Equal(t, 0, s.Update(50*time.Millisecond))
}

func TestUpdateSkipsUnposedAndCulled(t *testing.T) {
	rig := newRig()
	s := New(rig, Options{})
	s.Activate()

	hip := rig.Catalog.MustLookup("mHipLeft")
	s.Joint(hip).LoadPosition(mathutil.Vec3{0.1, 0, 0})
	s.Joint(hip).Posed = false
	assert.Equal(t, 0, s.Update(time.Second))

	s.Joint(hip).Posed = true
	rig.PixelArea = 1
	assert.Equal(t, 0, s.Update(time.Second))

	rig.PixelArea = 1e6
	assert.Equal(t, 1, s.Update(time.Second))
}

func TestDeactivateRevertsPositionScaleAndCollisionVolumes(t *testing.T) {
	rig := newRig()
	s := New(rig, Options{})
	s.Activate()

	knee := rig.Catalog.MustLookup("mKneeLeft")
	pec := rig.Catalog.MustLookup("LEFT_PEC")
	s.Joint(knee).LoadPosition(mathutil.Vec3{0.3, 0, 0})
	s.Joint(knee).LoadScale(mathutil.Vec3{0.2, 0.2, 0.2})
	s.Joint(pec).LoadScale(mathutil.Vec3{0.5, 0, 0})
	for i := 0; i < 50; i++ {
		s.Update(100 * time.Millisecond)
	}
	require.NotEqual(t, skeleton.IdentityTransform(), rig.Local(knee))

	s.Deactivate()
	assert.False(t, s.Active())
	assert.Equal(t, skeleton.IdentityTransform(), rig.Local(knee))
	assert.Equal(t, skeleton.IdentityTransform(), rig.Local(pec))
	assert.Nil(t, s.Joint(knee))
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(Options{})
	rig := newRig()

	s := reg.Start(rig)
	assert.Same(t, s, reg.Start(rig))

	got, ok := reg.Get(rig.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, []uuid.UUID{rig.ID}, reg.IDs())

	assert.True(t, reg.Stop(rig.ID))
	assert.False(t, reg.Stop(rig.ID))
	_, ok = reg.Get(rig.ID)
	assert.False(t, ok)
}
