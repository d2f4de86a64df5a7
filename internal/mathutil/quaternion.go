package mathutil

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Quat represents a quaternion (x, y, z, w).
//
// Composition follows the Hamilton product: a.Mul(b) applies b first, then a.
type Quat f64.Vec4

// QuatIdentity is the no-rotation quaternion.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// EulerToQuat converts Euler XYZ (radians) to a quaternion.
// Roll (X) is applied first, then pitch (Y), then yaw (Z).
func EulerToQuat(rx, ry, rz float64) Quat {
	cx, sx := math.Cos(rx*0.5), math.Sin(rx*0.5)
	cy, sy := math.Cos(ry*0.5), math.Sin(ry*0.5)
	cz, sz := math.Cos(rz*0.5), math.Sin(rz*0.5)

	return Quat{
		sx*cy*cz - cx*sy*sz, // x
		cx*sy*cz + sx*cy*sz, // y
		cx*cy*sz - sx*sy*cz, // z
		cx*cy*cz + sx*sy*sz, // w
	}
}

// FromEuler converts an (roll, pitch, yaw) vector in radians.
func FromEuler(v Vec3) Quat {
	return EulerToQuat(v[0], v[1], v[2])
}

// Euler returns the (roll, pitch, yaw) angles in radians; inverse of EulerToQuat.
func (q Quat) Euler() Vec3 {
	x, y, z, w := q[0], q[1], q[2], q[3]

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sp := 2 * (w*y - z*x)
	if sp > 1 {
		sp = 1
	} else if sp < -1 {
		sp = -1
	}
	pitch := math.Asin(sp)

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Vec3{roll, pitch, yaw}
}

// AxisAngle builds a rotation of angle radians around axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s := math.Sin(angle * 0.5)
	return Quat{a[0] * s, a[1] * s, a[2] * s, math.Cos(angle * 0.5)}
}

// Mul returns the Hamilton product a × b.
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

func (q Quat) Conjugate() Quat {
	return Quat{-q[0], -q[1], -q[2], q[3]}
}

// Inverse returns the multiplicative inverse. Unit quaternions invert by conjugation.
func (q Quat) Inverse() Quat {
	n := q.Dot(q)
	if n < 1e-12 {
		return QuatIdentity()
	}
	c := q.Conjugate()
	return Quat{c[0] / n, c[1] / n, c[2] / n, c[3] / n}
}

func (a Quat) Dot(b Quat) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.Dot(q))
	if l < 1e-12 {
		return QuatIdentity()
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	p := q.Mul(Quat{v[0], v[1], v[2], 0}).Mul(q.Conjugate())
	return Vec3{p[0], p[1], p[2]}
}

// Reflect mirrors the rotation across the character's sagittal (XZ) plane
// by negating the X and Z components.
func (q Quat) Reflect() Quat {
	return Quat{-q[0], q[1], -q[2], q[3]}
}

// AngleTo returns the smallest rotation angle (radians) between a and b.
func (a Quat) AngleTo(b Quat) float64 {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// IsIdentity reports whether q represents no rotation, within eps radians.
func (q Quat) IsIdentity(eps float64) bool {
	return q.AngleTo(QuatIdentity()) <= eps
}

// Slerp spherically interpolates from a to b by t in [0, 1] along the shortest arc.
func (a Quat) Slerp(b Quat, t float64) Quat {
	a = a.Normalize()
	b = b.Normalize()
	d := a.Dot(b)
	if d < 0 {
		b = Quat{-b[0], -b[1], -b[2], -b[3]}
		d = -d
	}
	if d > 0.9995 {
		return Quat{
			a[0] + (b[0]-a[0])*t,
			a[1] + (b[1]-a[1])*t,
			a[2] + (b[2]-a[2])*t,
			a[3] + (b[3]-a[3])*t,
		}.Normalize()
	}
	theta := math.Acos(d)
	s := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / s
	wb := math.Sin(t*theta) / s
	return Quat{
		a[0]*wa + b[0]*wb,
		a[1]*wa + b[1]*wb,
		a[2]*wa + b[2]*wb,
		a[3]*wa + b[3]*wb,
	}
}
