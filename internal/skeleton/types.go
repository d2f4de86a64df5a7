package skeleton

import "poser-sync/internal/mathutil"

// JointID indexes a joint inside a Catalog. IDs are dense, start at zero and
// double as the joint number carried on the wire.
type JointID int

// NoJoint marks a missing parent or mirror edge.
const NoJoint JointID = -1

// Category groups joints the way a posing UI lists them.
type Category int

const (
	WholeCharacter Category = iota
	Body
	Face
	Hands
	Misc
	CollisionVolume
)

var categoryNames = [...]string{"whole", "body", "face", "hands", "misc", "collision"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseCategory maps a category name back to its value.
func ParseCategory(s string) (Category, bool) {
	for i, n := range categoryNames {
		if n == s {
			return Category(i), true
		}
	}
	return 0, false
}

// AxisRemap reorders an input (roll, pitch, yaw) triple so that a generic
// two-axis control means the same thing for every joint.
type AxisRemap int

const (
	RemapNone AxisRemap = iota
	SwapYawAndRoll
	SwapYawAndPitch
	SwapRollAndPitch
	RemapX2YY2ZZ2X
	RemapX2ZY2XZ2Y
)

var remapNames = [...]string{
	"SWAP_NOTHING",
	"SWAP_YAW_AND_ROLL",
	"SWAP_YAW_AND_PITCH",
	"SWAP_ROLL_AND_PITCH",
	"SWAP_X2Y_Y2Z_Z2X",
	"SWAP_X2Z_Y2X_Z2Y",
}

func (r AxisRemap) String() string {
	if r < 0 || int(r) >= len(remapNames) {
		return remapNames[0]
	}
	return remapNames[r]
}

// ParseAxisRemap accepts the names produced by String.
func ParseAxisRemap(s string) (AxisRemap, bool) {
	for i, n := range remapNames {
		if n == s {
			return AxisRemap(i), true
		}
	}
	return RemapNone, false
}

// Apply maps input axes onto joint axes.
func (r AxisRemap) Apply(v mathutil.Vec3) mathutil.Vec3 {
	switch r {
	case SwapYawAndRoll:
		return mathutil.Vec3{v[2], v[1], v[0]}
	case SwapYawAndPitch:
		return mathutil.Vec3{v[0], v[2], v[1]}
	case SwapRollAndPitch:
		return mathutil.Vec3{v[1], v[0], v[2]}
	case RemapX2YY2ZZ2X:
		return mathutil.Vec3{v[2], v[0], v[1]}
	case RemapX2ZY2XZ2Y:
		return mathutil.Vec3{v[1], v[2], v[0]}
	}
	return v
}

// Invert maps joint axes back onto input axes.
func (r AxisRemap) Invert(v mathutil.Vec3) mathutil.Vec3 {
	switch r {
	case RemapX2YY2ZZ2X:
		return RemapX2ZY2XZ2Y.Apply(v)
	case RemapX2ZY2XZ2Y:
		return RemapX2YY2ZZ2X.Apply(v)
	}
	return r.Apply(v)
}

// Negation is a bitmask of axes whose sign flips between input and joint.
type Negation int

const (
	NegateYaw   Negation = 1
	NegatePitch Negation = 2
	NegateRoll  Negation = 4
	NegateAll   Negation = 8
)

// Apply flips the selected axes. It is its own inverse.
func (n Negation) Apply(v mathutil.Vec3) mathutil.Vec3 {
	if n&NegateAll != 0 {
		return mathutil.Vec3{-v[0], -v[1], -v[2]}
	}
	if n&NegateRoll != 0 {
		v[0] = -v[0]
	}
	if n&NegatePitch != 0 {
		v[1] = -v[1]
	}
	if n&NegateYaw != 0 {
		v[2] = -v[2]
	}
	return v
}

// JointDef is the authored form of a joint, before edges are resolved.
type JointDef struct {
	Name       string
	Mirror     string
	Category   Category
	Children   []string
	NoAutoFlip bool
	Remap      AxisRemap
	Negate     Negation
}

// JointDescriptor is an immutable catalog entry with resolved graph edges.
type JointDescriptor struct {
	ID         JointID
	Name       string
	MirrorName string
	Mirror     JointID
	Parent     JointID
	Children   []JointID
	Category   Category
	NoAutoFlip bool
	Remap      AxisRemap
	Negate     Negation
}

// HasMirror reports whether the joint has an opposite-side partner.
func (d *JointDescriptor) HasMirror() bool {
	return d.Mirror != NoJoint
}

// IsCollisionVolume reports whether the joint shapes collision rather than the visible mesh.
func (d *JointDescriptor) IsCollisionVolume() bool {
	return d.Category == CollisionVolume
}
