package poser

import (
	"math"

	"github.com/google/uuid"

	"poser-sync/internal/mathutil"
	"poser-sync/internal/posing"
	"poser-sync/internal/skeleton"
	"poser-sync/internal/wire"
)

// ExportRotationThreshold is the rotation, in radians, a root-level joint
// must exceed to register as animated in an exported file.
const ExportRotationThreshold = 0.02

// ReflectJoint mirrors a joint's rotation across the sagittal plane. If the
// partner is posed as well, it is reflected and the two swap rotations, so a
// symmetric pair selected together flips once.
func (p *Poser) ReflectJoint(id uuid.UUID, j skeleton.JointID) bool {
	s, js, jd := p.lookup(id, j)
	if js == nil {
		return false
	}
	before := poseWorlds(s)
	p.reflect(s, jd)
	p.propagate(s, j, before)
	if jd.HasMirror() {
		p.propagate(s, jd.Mirror, before)
	}
	p.notify(id, wire.ChangeBody)
	return true
}

func (p *Poser) reflect(s *posing.Session, jd *skeleton.JointDescriptor) {
	js := s.Joint(jd.ID)
	js.Reflect()
	if partner := p.partner(s, jd); partner != nil && partner.Posed {
		partner.Reflect()
		js.SwapRotationWith(partner)
	}
}

// FlipPose mirrors the whole pose. Joints marked never-auto-flip are skipped,
// as is any joint whose partner is not posed; each symmetric pair is handled
// from its auto-flipping side.
func (p *Poser) FlipPose(id uuid.UUID) bool {
	s, ok := p.sessions.Get(id)
	if !ok {
		return false
	}
	cat := s.Rig.Catalog
	before := poseWorlds(s)
	done := make(map[skeleton.JointID]bool)
	flipped := 0
	for i := range cat.Joints() {
		jd := &cat.Joints()[i]
		if jd.NoAutoFlip || done[jd.ID] {
			continue
		}
		js := s.Joint(jd.ID)
		if js == nil || !js.Posed {
			continue
		}
		if jd.HasMirror() {
			if partner := s.Joint(jd.Mirror); partner == nil || !partner.Posed {
				continue
			}
		}
		p.reflect(s, jd)
		done[jd.ID] = true
		if jd.HasMirror() {
			done[jd.Mirror] = true
		}
		flipped++
	}
	p.holdLocked(s, before, done)
	p.log.Debug().Str("character", id.String()).Int("joints", flipped).Msg("pose flipped")
	p.notify(id, wire.ChangeBody)
	return true
}

// holdLocked walks the whole tree parents first and gives back their world
// rotation from before to world-locked joints below a flipped joint. Joints
// flipped themselves keep their flipped rotation.
func (p *Poser) holdLocked(s *posing.Session, before []mathutil.Quat, flipped map[skeleton.JointID]bool) {
	cat := s.Rig.Catalog
	var walk func(j skeleton.JointID, moved bool)
	walk = func(j skeleton.JointID, moved bool) {
		for _, c := range cat.Joint(j).Children {
			cs := s.Joint(c)
			switch {
			case cs == nil:
				continue
			case flipped[c]:
				walk(c, true)
			case moved && cs.WorldLocked && cs.Posed:
				p.hold(s, j, c, before)
				walk(c, false)
			default:
				walk(c, moved)
			}
		}
	}
	for _, r := range cat.Roots() {
		walk(r, flipped[r])
	}
}

// SafeToBake reports whether the joint's rotation can be exported as-is:
// its base rotation was explicitly zeroed and is still identity.
func (p *Poser) SafeToBake(id uuid.UUID, j skeleton.JointID) bool {
	_, js, _ := p.lookup(id, j)
	if js == nil {
		return false
	}
	if js.IsCollisionVolume() {
		return true
	}
	return js.UserBaseZero() && js.BaseRotationIsZero()
}

// UnsafeJoints lists the posed, changed joints that are not safe to bake.
func (p *Poser) UnsafeJoints(id uuid.UUID) []skeleton.JointID {
	s, ok := p.sessions.Get(id)
	if !ok {
		return nil
	}
	var out []skeleton.JointID
	for _, js := range s.Joints() {
		if !js.Posed || !js.Changed() || js.IsCollisionVolume() {
			continue
		}
		if !(js.UserBaseZero() && js.BaseRotationIsZero()) {
			out = append(out, js.Joint)
		}
	}
	return out
}

// MinimumRotation is the smallest rotation, in radians, that registers as
// animated for j. Joints with deeper subtrees need less.
func MinimumRotation(cat *skeleton.Catalog, j skeleton.JointID) float64 {
	depth := float64(cat.Depth(j)) * 0.33
	return ExportRotationThreshold / math.Max(depth, 1)
}
