package poser

import (
	"github.com/google/uuid"

	"poser-sync/internal/jointpose"
	"poser-sync/internal/mathutil"
	"poser-sync/internal/posing"
	"poser-sync/internal/skeleton"
	"poser-sync/internal/wire"
)

// poseLocal is the rotation a joint is heading to: its target while posed,
// its live rotation otherwise.
func poseLocal(s *posing.Session) func(skeleton.JointID) mathutil.Quat {
	return func(j skeleton.JointID) mathutil.Quat {
		if js := s.Joint(j); js != nil && js.Posed {
			return js.TargetRotation()
		}
		return s.Rig.Local(j).Rotation
	}
}

func poseWorlds(s *posing.Session) []mathutil.Quat {
	return skeleton.BuildWorldRotations(s.Rig.Catalog, s.Rig.Root, poseLocal(s))
}

func poseWorld(s *posing.Session, j skeleton.JointID) mathutil.Quat {
	return skeleton.WorldRotation(s.Rig.Catalog, s.Rig.Root, j, poseLocal(s))
}

func parentWorld(s *posing.Session, jd *skeleton.JointDescriptor) mathutil.Quat {
	if jd.Parent == skeleton.NoJoint {
		return s.Rig.Root
	}
	return poseWorld(s, jd.Parent)
}

func (p *Poser) frameRotation(s *posing.Session, f Frame) mathutil.Quat {
	switch f {
	case FrameCharacter:
		return s.Rig.Root
	case FrameCamera:
		if p.camera != nil {
			return p.camera(s.Rig.ID)
		}
	}
	return mathutil.QuatIdentity()
}

// SetRotation edits a joint's rotation. euler is the input (roll, pitch, yaw)
// in radians; it is remapped onto the joint's axes, converted out of the
// options' frame, and applied. World-locked descendants are compensated and
// the mirror partner is deflected per the options' style.
func (p *Poser) SetRotation(id uuid.UUID, j skeleton.JointID, euler mathutil.Vec3, opts EditOptions) bool {
	s, js, jd := p.lookup(id, j)
	if js == nil {
		return false
	}

	remap, negate := opts.axesFor(jd)
	q := mathutil.FromEuler(negate.Apply(remap.Apply(euler)))
	if js.Mirrored {
		q = q.Reflect()
	}
	if opts.frame != FrameBone {
		q = mathutil.FrameToParent(q, parentWorld(s, jd), p.frameRotation(s, opts.frame))
	}

	before := poseWorlds(s)
	old := js.Rotation()
	if opts.composes() {
		js.SetRotation(q.Mul(old))
	} else {
		js.SetRotation(q)
	}
	applied := js.Rotation().Mul(old.Inverse()).Normalize()
	p.propagate(s, j, before)

	if opts.style.deflects() {
		p.deflectRotation(s, jd, applied, opts.style)
	}
	p.notify(id, wire.ChangeBody)
	return true
}

// deflectRotation carries an edit over to the mirror partner.
func (p *Poser) deflectRotation(s *posing.Session, jd *skeleton.JointDescriptor, applied mathutil.Quat, style Style) {
	partner := p.partner(s, jd)
	if partner == nil {
		return
	}
	src := s.Joint(jd.ID)
	before := poseWorlds(s)
	switch style {
	case StyleMirror:
		partner.MirrorRotationFrom(src)
	case StyleSympathetic:
		partner.CloneRotationFrom(src)
	case StyleMirrorDelta:
		partner.SetRotation(applied.Reflect().Mul(partner.Rotation()))
	case StyleSympatheticDelta:
		partner.SetRotation(applied.Mul(partner.Rotation()))
	}
	p.propagate(s, jd.Mirror, before)
}

// propagate keeps world-locked descendants of j at their world rotation from
// before, given as world rotations indexed by joint. The walk stops at the
// first locked joint on each branch.
func (p *Poser) propagate(s *posing.Session, j skeleton.JointID, before []mathutil.Quat) {
	jd := s.Rig.Catalog.Joint(j)
	if jd == nil {
		return
	}
	for _, c := range jd.Children {
		cs := s.Joint(c)
		if cs == nil {
			continue
		}
		if !cs.WorldLocked || !cs.Posed {
			p.propagate(s, c, before)
			continue
		}
		p.hold(s, j, c, before)
	}
}

// hold rewrites c's delta so its world rotation under parent j is before[c].
func (p *Poser) hold(s *posing.Session, j, c skeleton.JointID, before []mathutil.Quat) {
	local := poseWorld(s, j).Inverse().Mul(before[c])
	s.Joint(c).LoadRotation(local.Mul(s.Joint(c).Base().Rotation.Inverse()))
}

// RotationOf returns the joint's rotation delta as the input triple that
// would produce it in bone-local space.
func (p *Poser) RotationOf(id uuid.UUID, j skeleton.JointID, opts EditOptions) (mathutil.Vec3, bool) {
	_, js, jd := p.lookup(id, j)
	if js == nil {
		return mathutil.Vec3{}, false
	}
	q := js.Rotation()
	if js.Mirrored {
		q = q.Reflect()
	}
	remap, negate := opts.axesFor(jd)
	return remap.Invert(negate.Apply(q.Euler())), true
}

// WorldRotationOf returns the joint's posed world rotation.
func (p *Poser) WorldRotationOf(id uuid.UUID, j skeleton.JointID) (mathutil.Quat, bool) {
	s, js, _ := p.lookup(id, j)
	if js == nil {
		return mathutil.QuatIdentity(), false
	}
	return poseWorld(s, j), true
}

// SetPosition edits a joint's position delta. StyleDelta adds to the current
// delta. Mirror styles reflect the value across the sagittal plane for the partner.
func (p *Poser) SetPosition(id uuid.UUID, j skeleton.JointID, v mathutil.Vec3, opts EditOptions) bool {
	return p.setVector(id, j, jointpose.Position, v, opts)
}

// SetScale edits a joint's scale delta. Scale deflects unreflected.
func (p *Poser) SetScale(id uuid.UUID, j skeleton.JointID, v mathutil.Vec3, opts EditOptions) bool {
	return p.setVector(id, j, jointpose.Scale, v, opts)
}

func vectorOf(js *jointpose.State, ch jointpose.Channel) mathutil.Vec3 {
	if ch == jointpose.Scale {
		return js.Scale()
	}
	return js.Position()
}

func setVector(js *jointpose.State, ch jointpose.Channel, v mathutil.Vec3) {
	if ch == jointpose.Scale {
		js.SetScale(v)
		return
	}
	js.SetPosition(v)
}

func (p *Poser) setVector(id uuid.UUID, j skeleton.JointID, ch jointpose.Channel, v mathutil.Vec3, opts EditOptions) bool {
	s, js, jd := p.lookup(id, j)
	if js == nil {
		return false
	}
	old := vectorOf(js, ch)
	if opts.style == StyleDelta {
		v = old.Add(v)
	}
	setVector(js, ch, v)
	change := v.Sub(old)

	if partner := p.partner(s, jd); partner != nil && opts.style.deflects() {
		reflect := func(x mathutil.Vec3) mathutil.Vec3 {
			if ch == jointpose.Position {
				return x.MirrorY()
			}
			return x
		}
		switch opts.style {
		case StyleMirror:
			setVector(partner, ch, reflect(v))
		case StyleSympathetic:
			setVector(partner, ch, v)
		case StyleMirrorDelta:
			setVector(partner, ch, vectorOf(partner, ch).Add(reflect(change)))
		case StyleSympatheticDelta:
			setVector(partner, ch, vectorOf(partner, ch).Add(change))
		}
	}
	p.notify(id, wire.ChangeBody)
	return true
}

// PositionOf returns the joint's position delta.
func (p *Poser) PositionOf(id uuid.UUID, j skeleton.JointID) (mathutil.Vec3, bool) {
	_, js, _ := p.lookup(id, j)
	if js == nil {
		return mathutil.Vec3{}, false
	}
	return js.Position(), true
}

// ScaleOf returns the joint's scale delta.
func (p *Poser) ScaleOf(id uuid.UUID, j skeleton.JointID) (mathutil.Vec3, bool) {
	_, js, _ := p.lookup(id, j)
	if js == nil {
		return mathutil.Vec3{}, false
	}
	return js.Scale(), true
}

// Undo steps a joint's channel back. A rotation step re-runs world-lock
// compensation, and a deflecting style steps the partner too.
func (p *Poser) Undo(id uuid.UUID, j skeleton.JointID, ch jointpose.Channel, opts EditOptions) bool {
	return p.step(id, j, ch, opts, (*jointpose.State).Undo)
}

// Redo steps a joint's channel forward. See Undo.
func (p *Poser) Redo(id uuid.UUID, j skeleton.JointID, ch jointpose.Channel, opts EditOptions) bool {
	return p.step(id, j, ch, opts, (*jointpose.State).Redo)
}

func (p *Poser) step(id uuid.UUID, j skeleton.JointID, ch jointpose.Channel, opts EditOptions, move func(*jointpose.State, jointpose.Channel) bool) bool {
	s, js, jd := p.lookup(id, j)
	if js == nil {
		return false
	}
	before := poseWorlds(s)
	if !move(js, ch) {
		return false
	}
	if ch == jointpose.Rotation {
		p.propagate(s, j, before)
	}
	if partner := p.partner(s, jd); partner != nil && opts.style.deflects() {
		before = poseWorlds(s)
		if move(partner, ch) && ch == jointpose.Rotation {
			p.propagate(s, jd.Mirror, before)
		}
	}
	p.notify(id, wire.ChangeBody)
	return true
}

// CanUndo reports whether the joint's channel has history to step back into.
func (p *Poser) CanUndo(id uuid.UUID, j skeleton.JointID, ch jointpose.Channel) bool {
	_, js, _ := p.lookup(id, j)
	return js != nil && js.CanUndo(ch)
}

// CanRedo reports whether the joint's channel can step forward.
func (p *Poser) CanRedo(id uuid.UUID, j skeleton.JointID, ch jointpose.Channel) bool {
	_, js, _ := p.lookup(id, j)
	return js != nil && js.CanRedo(ch)
}

// ResetJoint zeroes every delta of a joint, recording history.
func (p *Poser) ResetJoint(id uuid.UUID, j skeleton.JointID) bool {
	s, js, _ := p.lookup(id, j)
	if js == nil {
		return false
	}
	before := poseWorlds(s)
	js.Reset()
	p.propagate(s, j, before)
	p.notify(id, wire.ChangeBody)
	return true
}
