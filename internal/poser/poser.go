package poser

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"poser-sync/internal/animstate"
	"poser-sync/internal/jointpose"
	"poser-sync/internal/mathutil"
	"poser-sync/internal/posing"
	"poser-sync/internal/skeleton"
	"poser-sync/internal/wire"
)

// ChangeFunc is told which payloads of a character changed after an edit.
type ChangeFunc func(character uuid.UUID, kind wire.ChangeKind)

// RigSource finds the live skeleton of a character this client can see.
type RigSource interface {
	Rig(character uuid.UUID) (*skeleton.Rig, bool)
}

// Options configure a Poser.
type Options struct {
	// Camera returns the camera-facing basis used by FrameCamera. Identity when nil.
	Camera func(character uuid.UUID) mathutil.Quat
	// Rigs lets EnsurePosing start sessions for characters posed remotely.
	Rigs     RigSource
	OnChange ChangeFunc
	Logger   zerolog.Logger
}

// Poser is the catalog-aware editing API over the posing sessions of every
// character. It is not safe for concurrent use.
type Poser struct {
	sessions *posing.Registry
	store    *animstate.Store
	camera   func(uuid.UUID) mathutil.Quat
	rigs     RigSource
	onChange ChangeFunc
	log      zerolog.Logger
}

// New wires a Poser over sessions and the snapshot store.
func New(sessions *posing.Registry, store *animstate.Store, opts Options) *Poser {
	return &Poser{
		sessions: sessions,
		store:    store,
		camera:   opts.Camera,
		rigs:     opts.Rigs,
		onChange: opts.OnChange,
		log:      opts.Logger,
	}
}

// OnChange replaces the change hook.
func (p *Poser) OnChange(fn ChangeFunc) {
	p.onChange = fn
}

func (p *Poser) notify(id uuid.UUID, kind wire.ChangeKind) {
	if p.onChange != nil {
		p.onChange(id, kind)
	}
}

// Sessions exposes the underlying registry, for the frame loop.
func (p *Poser) Sessions() *posing.Registry { return p.sessions }

// StartPosing begins posing rig and captures the animations already playing
// on it. Reports false if the character was already posed.
func (p *Poser) StartPosing(rig *skeleton.Rig) bool {
	if rig == nil {
		return false
	}
	if _, ok := p.sessions.Get(rig.ID); ok {
		return false
	}
	p.start(rig)
	p.notify(rig.ID, wire.ChangeBoth)
	return true
}

func (p *Poser) start(rig *skeleton.Rig) {
	p.sessions.Start(rig)
	if p.store != nil {
		p.store.Capture(rig.ID)
	}
}

// EnsurePosing starts posing a character by id when it is not posed yet.
// Used for characters posed remotely, so it does not fire the change hook.
func (p *Poser) EnsurePosing(id uuid.UUID) bool {
	if p.IsPosing(id) {
		return true
	}
	if p.rigs == nil {
		return false
	}
	rig, ok := p.rigs.Rig(id)
	if !ok {
		p.log.Debug().Str("character", id.String()).Msg("no rig to pose")
		return false
	}
	p.start(rig)
	return true
}

// StopPosing ends posing and forgets the character's snapshots.
func (p *Poser) StopPosing(id uuid.UUID) bool {
	if p.store != nil {
		p.store.Purge(id)
	}
	return p.sessions.Stop(id)
}

// IsPosing reports whether the character has an active session.
func (p *Poser) IsPosing(id uuid.UUID) bool {
	_, ok := p.sessions.Get(id)
	return ok
}

// lookup resolves a joint of a posed character. js is nil when either is missing.
func (p *Poser) lookup(id uuid.UUID, j skeleton.JointID) (*posing.Session, *jointpose.State, *skeleton.JointDescriptor) {
	s, ok := p.sessions.Get(id)
	if !ok {
		return nil, nil, nil
	}
	js := s.Joint(j)
	jd := s.Rig.Catalog.Joint(j)
	if js == nil || jd == nil {
		p.log.Debug().Str("character", id.String()).Int("joint", int(j)).Msg("joint not found")
		return nil, nil, nil
	}
	return s, js, jd
}

func (p *Poser) partner(s *posing.Session, jd *skeleton.JointDescriptor) *jointpose.State {
	if !jd.HasMirror() {
		return nil
	}
	return s.Joint(jd.Mirror)
}

// SetPosingJoint releases a joint to external animation or takes it back.
func (p *Poser) SetPosingJoint(id uuid.UUID, j skeleton.JointID, posed bool) bool {
	_, js, _ := p.lookup(id, j)
	if js == nil {
		return false
	}
	js.Posed = posed
	p.notify(id, wire.ChangeBody)
	return true
}

// IsPosingJoint reports whether the joint is currently posed.
func (p *Poser) IsPosingJoint(id uuid.UUID, j skeleton.JointID) bool {
	_, js, _ := p.lookup(id, j)
	return js != nil && js.Posed
}

// SetWorldLocked toggles world-rotation lock on a joint.
func (p *Poser) SetWorldLocked(id uuid.UUID, j skeleton.JointID, locked bool) bool {
	_, js, _ := p.lookup(id, j)
	if js == nil {
		return false
	}
	js.SetWorldLocked(locked)
	p.notify(id, wire.ChangeBody)
	return true
}

// SetMirrored toggles mirrored-rotation editing on a joint.
func (p *Poser) SetMirrored(id uuid.UUID, j skeleton.JointID, mirrored bool) bool {
	_, js, _ := p.lookup(id, j)
	if js == nil {
		return false
	}
	js.SetMirrored(mirrored)
	p.notify(id, wire.ChangeBody)
	return true
}

// ZeroBaseRotation folds the joint's base rotation into its delta.
func (p *Poser) ZeroBaseRotation(id uuid.UUID, j skeleton.JointID) bool {
	_, js, _ := p.lookup(id, j)
	if js == nil || js.IsCollisionVolume() {
		return false
	}
	js.ZeroBaseRotation()
	p.notify(id, wire.ChangeBody)
	return true
}

// Recapture rebases every listed joint that is not currently posed onto its
// live transform, posing it again, and layers the animations playing on
// those joints above earlier captures. Returns how many joints were recaptured.
func (p *Poser) Recapture(id uuid.UUID, joints []skeleton.JointID) int {
	s, ok := p.sessions.Get(id)
	if !ok {
		return 0
	}
	var recaptured []skeleton.JointID
	for _, j := range joints {
		js := s.Joint(j)
		if js == nil || js.Posed {
			continue
		}
		js.Recapture(s.Rig.Local(j))
		js.Posed = true
		recaptured = append(recaptured, j)
	}
	if len(recaptured) == 0 {
		return 0
	}
	if p.store != nil {
		p.store.UpdateAfterRecapture(id, recaptured)
		p.store.ApplyAll(id)
	}
	p.log.Debug().Str("character", id.String()).Int("joints", len(recaptured)).Msg("recaptured")
	p.notify(id, wire.ChangeBoth)
	return len(recaptured)
}

// ApplySnapshots re-applies the character's background-animation snapshots.
// Returns false while any referenced animation is unresolved.
func (p *Poser) ApplySnapshots(id uuid.UUID) bool {
	if p.store == nil {
		return true
	}
	return p.store.ApplyAll(id)
}
