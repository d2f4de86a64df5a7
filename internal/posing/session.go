package posing

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"poser-sync/internal/jointpose"
	"poser-sync/internal/mathutil"
	"poser-sync/internal/skeleton"
)

const (
	// DefaultTimeConstant is the blend decay time constant.
	DefaultTimeConstant = 100 * time.Millisecond
	// DefaultMinPixelArea culls blending for characters smaller than this on screen.
	DefaultMinPixelArea = 50.0
)

// Options tune sessions created by a Registry or New.
type Options struct {
	TimeConstant time.Duration
	MinPixelArea float64
	Clock        func() time.Time
	Logger       zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.TimeConstant <= 0 {
		o.TimeConstant = DefaultTimeConstant
	}
	if o.MinPixelArea <= 0 {
		o.MinPixelArea = DefaultMinPixelArea
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Session poses one character: it owns a joint pose state per catalog joint
// and blends the rig toward the targets every frame.
type Session struct {
	Rig *skeleton.Rig

	opts   Options
	joints []*jointpose.State
	active bool
}

// New creates an inactive session for rig.
func New(rig *skeleton.Rig, opts Options) *Session {
	return &Session{Rig: rig, opts: opts.withDefaults()}
}

// Activate snapshots the live transform of every joint, collision volumes
// included, and starts contributing to the rig.
func (s *Session) Activate() {
	cat := s.Rig.Catalog
	s.joints = make([]*jointpose.State, cat.Len())
	for _, jd := range cat.Joints() {
		s.joints[jd.ID] = jointpose.New(jd.ID, s.Rig.Local(jd.ID), jd.IsCollisionVolume(),
			jointpose.WithClock(s.opts.Clock))
	}
	s.active = true
	s.opts.Logger.Info().Str("character", s.Rig.ID.String()).Int("joints", len(s.joints)).Msg("posing started")
}

// Deactivate stops posing. Position and scale are restored on every joint
// and collision volumes are restored completely. Rotations return to base as
// the posing layer is removed.
func (s *Session) Deactivate() {
	if !s.active {
		return
	}
	for _, js := range s.joints {
		base := js.Revert()
		if js.IsCollisionVolume() {
			s.Rig.SetLocal(js.Joint, base)
			continue
		}
		s.Rig.SetPosition(js.Joint, base.Position)
		s.Rig.SetScale(js.Joint, base.Scale)
		s.Rig.SetRotation(js.Joint, base.Rotation)
	}
	s.active = false
	s.opts.Logger.Info().Str("character", s.Rig.ID.String()).Msg("posing stopped")
}

// Active reports whether the session is posing.
func (s *Session) Active() bool { return s.active }

// Joint returns the pose state for id, or nil when inactive or unknown.
func (s *Session) Joint(id skeleton.JointID) *jointpose.State {
	if !s.active || id < 0 || int(id) >= len(s.joints) {
		return nil
	}
	return s.joints[id]
}

// Joints returns every joint state in catalog order.
func (s *Session) Joints() []*jointpose.State {
	if !s.active {
		return nil
	}
	return s.joints
}

// Update blends each posed joint toward its target. Rotation uses slerp and
// position and scale lerp, with factor 1-exp(-dt/τ). Returns how many joints moved.
func (s *Session) Update(dt time.Duration) int {
	if !s.active || dt <= 0 {
		return 0
	}
	if s.Rig.PixelArea < s.opts.MinPixelArea {
		return 0
	}

	f := 1 - math.Exp(-dt.Seconds()/s.opts.TimeConstant.Seconds())
	moved := 0
	for _, js := range s.joints {
		if !js.Posed {
			continue
		}
		live := s.Rig.Local(js.Joint)
		target := js.Target()
		changed := false

		if live.Rotation.AngleTo(target.Rotation) > mathutil.RotationEpsilon {
			live.Rotation = live.Rotation.Slerp(target.Rotation, f)
			changed = true
		}
		if live.Position.Dist(target.Position) > mathutil.VectorEpsilon {
			live.Position = live.Position.Lerp(target.Position, f)
			changed = true
		}
		if live.Scale.Dist(target.Scale) > mathutil.VectorEpsilon {
			live.Scale = live.Scale.Lerp(target.Scale, f)
			changed = true
		}

		if changed {
			s.Rig.SetLocal(js.Joint, live)
			moved++
		}
	}
	return moved
}
