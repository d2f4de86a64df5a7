package jointpose

import (
	"time"

	"poser-sync/internal/mathutil"
	"poser-sync/internal/skeleton"
)

// Channel selects one of a joint's three undoable values.
type Channel int

const (
	Rotation Channel = iota
	Position
	Scale
)

func (c Channel) String() string {
	switch c {
	case Rotation:
		return "rotation"
	case Position:
		return "position"
	case Scale:
		return "scale"
	}
	return "unknown"
}

// Priority orders writes into a joint's base. A lower priority write cannot
// replace a base set at a higher one until ResetPriority.
type Priority int

const (
	LowPriority    Priority = 0
	MediumPriority Priority = 3
	HighPriority   Priority = 5
	// AdditivePriority is the priority posing contributes with.
	AdditivePriority Priority = 7
)

// State is the pose of one joint of one posed character: a captured base and
// a user delta per channel. Target rotation is delta × base; target position
// and scale are base + delta.
type State struct {
	Joint skeleton.JointID

	// Mirrored enables mirrored-rotation editing with the partner joint.
	Mirrored bool
	// WorldLocked keeps the joint's world rotation fixed when an ancestor turns.
	WorldLocked bool
	// Posed is false when the joint is released to external animation.
	Posed bool

	collisionVolume bool
	clock           func() time.Time
	window          time.Duration

	base         skeleton.Transform
	basePriority Priority
	userBaseZero bool
	modified     bool

	rot   channel[mathutil.Quat]
	pos   channel[mathutil.Vec3]
	scale channel[mathutil.Vec3]
}

// Option configures a State.
type Option func(*State)

// WithClock replaces time.Now as the debounce clock.
func WithClock(clock func() time.Time) Option {
	return func(s *State) { s.clock = clock }
}

// WithDebounceWindow overrides DebounceWindow.
func WithDebounceWindow(d time.Duration) Option {
	return func(s *State) { s.window = d }
}

// New creates the pose state for a joint whose live transform is live.
func New(joint skeleton.JointID, live skeleton.Transform, collisionVolume bool, opts ...Option) *State {
	s := &State{
		Joint:           joint,
		Posed:           true,
		collisionVolume: collisionVolume,
		clock:           time.Now,
		window:          DebounceWindow,
		base:            live,
	}
	s.rot.delta = mathutil.QuatIdentity()
	for _, o := range opts {
		o(s)
	}
	return s
}

// IsCollisionVolume reports whether the joint is a collision volume.
func (s *State) IsCollisionVolume() bool { return s.collisionVolume }

// Delta accessors.
func (s *State) Rotation() mathutil.Quat { return s.rot.delta }
func (s *State) Position() mathutil.Vec3 { return s.pos.delta }
func (s *State) Scale() mathutil.Vec3    { return s.scale.delta }

// Base returns the captured base transform.
func (s *State) Base() skeleton.Transform { return s.base }

// BasePriority returns the priority the base was last written at.
func (s *State) BasePriority() Priority { return s.basePriority }

// TargetRotation is the rotation the joint blends toward.
func (s *State) TargetRotation() mathutil.Quat {
	return s.rot.delta.Mul(s.base.Rotation).Normalize()
}

func (s *State) TargetPosition() mathutil.Vec3 { return s.base.Position.Add(s.pos.delta) }
func (s *State) TargetScale() mathutil.Vec3    { return s.base.Scale.Add(s.scale.delta) }

// Target returns all three target channels.
func (s *State) Target() skeleton.Transform {
	return skeleton.Transform{
		Rotation: s.TargetRotation(),
		Position: s.TargetPosition(),
		Scale:    s.TargetScale(),
	}
}

// SetRotation replaces the rotation delta, recording undo history.
func (s *State) SetRotation(q mathutil.Quat) {
	s.modified = true
	s.rot.set(q.Normalize(), s.clock(), s.window)
}

// SetPosition replaces the position delta, recording undo history.
func (s *State) SetPosition(v mathutil.Vec3) {
	s.modified = true
	s.pos.set(v, s.clock(), s.window)
}

// SetScale replaces the scale delta, recording undo history.
func (s *State) SetScale(v mathutil.Vec3) {
	s.modified = true
	s.scale.set(v, s.clock(), s.window)
}

// LoadRotation writes the rotation delta directly, bypassing history. Used for
// world-lock compensation and for values received from a peer.
func (s *State) LoadRotation(q mathutil.Quat) {
	s.modified = true
	s.rot.load(q.Normalize())
}

func (s *State) LoadPosition(v mathutil.Vec3) {
	s.modified = true
	s.pos.load(v)
}

func (s *State) LoadScale(v mathutil.Vec3) {
	s.modified = true
	s.scale.load(v)
}

// Undo steps the channel back one history entry.
func (s *State) Undo(c Channel) bool {
	switch c {
	case Rotation:
		return s.rot.undo()
	case Position:
		return s.pos.undo()
	case Scale:
		return s.scale.undo()
	}
	return false
}

// Redo steps the channel forward one history entry.
func (s *State) Redo(c Channel) bool {
	switch c {
	case Rotation:
		return s.rot.redo()
	case Position:
		return s.pos.redo()
	case Scale:
		return s.scale.redo()
	}
	return false
}

func (s *State) CanUndo(c Channel) bool {
	switch c {
	case Rotation:
		return s.rot.canUndo()
	case Position:
		return s.pos.canUndo()
	case Scale:
		return s.scale.canUndo()
	}
	return false
}

func (s *State) CanRedo(c Channel) bool {
	switch c {
	case Rotation:
		return s.rot.canRedo()
	case Position:
		return s.pos.canRedo()
	case Scale:
		return s.scale.canRedo()
	}
	return false
}

// HistoryLen returns the number of entries in the channel's history.
func (s *State) HistoryLen(c Channel) int {
	switch c {
	case Rotation:
		return len(s.rot.history)
	case Position:
		return len(s.pos.history)
	case Scale:
		return len(s.scale.history)
	}
	return 0
}

// PurgeHistory drops every channel's undo history.
func (s *State) PurgeHistory() {
	s.rot.purge()
	s.pos.purge()
	s.scale.purge()
}

// Reset zeroes every delta through the history path.
func (s *State) Reset() {
	s.SetRotation(mathutil.QuatIdentity())
	s.SetPosition(mathutil.Vec3{})
	s.SetScale(mathutil.Vec3{})
}

// Reflect mirrors base and delta rotation across the character's sagittal plane.
func (s *State) Reflect() {
	if s.collisionVolume {
		return
	}
	s.modified = true
	s.base.Rotation = s.base.Rotation.Reflect()
	s.rot.delta = s.rot.delta.Reflect()
}

// SwapRotationWith exchanges base and delta rotation with other.
func (s *State) SwapRotationWith(other *State) {
	if other == nil || s.collisionVolume || other.collisionVolume {
		return
	}
	s.base.Rotation, other.base.Rotation = other.base.Rotation, s.base.Rotation
	s.rot.delta, other.rot.delta = other.rot.delta, s.rot.delta
	s.userBaseZero, other.userBaseZero = other.userBaseZero, s.userBaseZero
	s.modified, other.modified = true, true
}

// CloneRotationFrom copies other's base and delta rotation, recording history.
func (s *State) CloneRotationFrom(other *State) {
	if other == nil {
		return
	}
	s.base.Rotation = other.base.Rotation
	s.userBaseZero = other.userBaseZero
	s.SetRotation(other.rot.delta)
}

// MirrorRotationFrom is CloneRotationFrom followed by Reflect.
func (s *State) MirrorRotationFrom(other *State) {
	if other == nil {
		return
	}
	s.CloneRotationFrom(other)
	s.Reflect()
}

// Recapture rebases onto the live transform and keeps the deltas.
func (s *State) Recapture(live skeleton.Transform) {
	s.base = live
	s.userBaseZero = false
}

// Revert returns the transform to restore on the live joint when posing ends.
func (s *State) Revert() skeleton.Transform {
	return s.base
}

// SetBaseRotation writes the base rotation if priority is at least the
// current base priority. Reports whether the write happened.
func (s *State) SetBaseRotation(q mathutil.Quat, priority Priority) bool {
	if priority < s.basePriority {
		return false
	}
	s.base.Rotation = q.Normalize()
	s.basePriority = priority
	s.userBaseZero = false
	return true
}

func (s *State) SetBasePosition(v mathutil.Vec3, priority Priority) bool {
	if priority < s.basePriority {
		return false
	}
	s.base.Position = v
	s.basePriority = priority
	return true
}

// ResetPriority lowers the base priority so the next base write always lands.
func (s *State) ResetPriority() {
	s.basePriority = LowPriority
}

// ZeroBaseRotation folds the base into the delta, leaving the target
// unchanged and the base at identity. The joint is then safe to bake.
func (s *State) ZeroBaseRotation() {
	if s.collisionVolume {
		return
	}
	s.rot.delta = s.rot.delta.Mul(s.base.Rotation).Normalize()
	s.base.Rotation = mathutil.QuatIdentity()
	s.userBaseZero = true
	s.modified = true
}

// UserBaseZero reports whether the user zeroed the base rotation.
func (s *State) UserBaseZero() bool {
	if s.collisionVolume {
		return false
	}
	return s.userBaseZero
}

// BaseRotationIsZero reports whether the base rotation is exactly identity.
func (s *State) BaseRotationIsZero() bool {
	if s.collisionVolume {
		return true
	}
	return s.base.Rotation == mathutil.QuatIdentity()
}

// SetWorldLocked changes the world-lock flag, marking the joint modified when
// the flag flips.
func (s *State) SetWorldLocked(locked bool) {
	if s.WorldLocked != locked {
		s.WorldLocked = locked
		s.modified = true
	}
}

// SetMirrored changes the mirrored-editing flag. See SetWorldLocked.
func (s *State) SetMirrored(mirrored bool) {
	if s.Mirrored != mirrored {
		s.Mirrored = mirrored
		s.modified = true
	}
}

// Modified reports whether anything wrote to the joint this session.
func (s *State) Modified() bool { return s.modified }

// Changed reports whether any delta differs from rest.
func (s *State) Changed() bool {
	return s.userBaseZero ||
		!s.rot.delta.IsIdentity(mathutil.RotationEpsilon) ||
		!s.pos.delta.IsZero(mathutil.VectorEpsilon) ||
		!s.scale.delta.IsZero(mathutil.VectorEpsilon)
}
