package skeleton

import (
	"github.com/google/uuid"

	"poser-sync/internal/mathutil"
)

// Transform is a joint's local rotation, position and scale relative to its parent.
type Transform struct {
	Rotation mathutil.Quat
	Position mathutil.Vec3
	Scale    mathutil.Vec3
}

// IdentityTransform has no rotation or offset and unit scale.
func IdentityTransform() Transform {
	return Transform{Rotation: mathutil.QuatIdentity(), Scale: mathutil.Vec3{1, 1, 1}}
}

// Rig is the live skeleton of one character: what the renderer would draw.
type Rig struct {
	ID      uuid.UUID
	Catalog *Catalog

	// Root is the character's rotation in world space.
	Root mathutil.Quat
	// PixelArea is the character's on-screen coverage; blending is culled below a threshold.
	PixelArea float64

	locals []Transform
}

// NewRig creates a rig in the identity pose.
func NewRig(id uuid.UUID, cat *Catalog) *Rig {
	r := &Rig{
		ID:        id,
		Catalog:   cat,
		Root:      mathutil.QuatIdentity(),
		PixelArea: 1e6,
		locals:    make([]Transform, cat.Len()),
	}
	for i := range r.locals {
		r.locals[i] = IdentityTransform()
	}
	return r
}

// Local returns the joint's current local transform.
func (r *Rig) Local(id JointID) Transform {
	if id < 0 || int(id) >= len(r.locals) {
		return IdentityTransform()
	}
	return r.locals[id]
}

// SetLocal replaces the joint's local transform. Invalid ids are ignored.
func (r *Rig) SetLocal(id JointID, t Transform) {
	if id < 0 || int(id) >= len(r.locals) {
		return
	}
	r.locals[id] = t
}

func (r *Rig) SetRotation(id JointID, q mathutil.Quat) {
	t := r.Local(id)
	t.Rotation = q
	r.SetLocal(id, t)
}

func (r *Rig) SetPosition(id JointID, p mathutil.Vec3) {
	t := r.Local(id)
	t.Position = p
	r.SetLocal(id, t)
}

func (r *Rig) SetScale(id JointID, s mathutil.Vec3) {
	t := r.Local(id)
	t.Scale = s
	r.SetLocal(id, t)
}

// WorldRotation returns the joint's rotation in world space.
func (r *Rig) WorldRotation(id JointID) mathutil.Quat {
	return WorldRotation(r.Catalog, r.Root, id, func(j JointID) mathutil.Quat { return r.Local(j).Rotation })
}

// WorldRotations computes the world rotation of every joint from the rig's locals.
func (r *Rig) WorldRotations() []mathutil.Quat {
	return BuildWorldRotations(r.Catalog, r.Root, func(j JointID) mathutil.Quat { return r.Local(j).Rotation })
}

// WorldRotation chains local rotations from the root down to id.
// local supplies the rotation to use for each joint on the chain.
func WorldRotation(cat *Catalog, root mathutil.Quat, id JointID, local func(JointID) mathutil.Quat) mathutil.Quat {
	jd := cat.Joint(id)
	if jd == nil {
		return root
	}
	parent := root
	if jd.Parent != NoJoint {
		parent = WorldRotation(cat, root, jd.Parent, local)
	}
	return parent.Mul(local(id)).Normalize()
}

// BuildWorldRotations computes world rotations for every joint, parents first.
// Returns a slice indexed by JointID.
func BuildWorldRotations(cat *Catalog, root mathutil.Quat, local func(JointID) mathutil.Quat) []mathutil.Quat {
	worlds := make([]mathutil.Quat, cat.Len())
	done := make([]bool, cat.Len())

	var visit func(id JointID, parent mathutil.Quat)
	visit = func(id JointID, parent mathutil.Quat) {
		worlds[id] = parent.Mul(local(id)).Normalize()
		done[id] = true
		for _, child := range cat.Joint(id).Children {
			visit(child, worlds[id])
		}
	}

	for _, id := range cat.Roots() {
		visit(id, root)
	}
	for i := range worlds {
		if !done[i] {
			worlds[i] = mathutil.QuatIdentity()
		}
	}

	return worlds
}
