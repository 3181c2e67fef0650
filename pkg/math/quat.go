package math

import "github.com/chewxy/math32"

// Quat is a rotation quaternion. W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity is the rotation that leaves every vector unchanged.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle rotates by angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math32.Sincos(angle / 2)
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: c}
}

// QuatBetween returns the shortest rotation taking the unit vector from onto
// the unit vector to, and its angle in radians. Parallel or opposite vectors
// have no defined axis and yield the identity with their angle.
func QuatBetween(from, to Vec3) (Quat, float32) {
	angle := math32.Acos(Clamp(from.Dot(to), -1, 1))
	axis := from.Cross(to)
	if axis.Length() < 1e-6 {
		return QuatIdentity(), angle
	}
	return QuatFromAxisAngle(axis.Normalize(), angle), angle
}

// IsIdentity reports whether q is exactly the identity rotation.
func (q Quat) IsIdentity() bool {
	return q == QuatIdentity()
}

func (q Quat) vec() Vec3 { return Vec3{X: q.X, Y: q.Y, Z: q.Z} }

// Normalize scales q to unit length. A near-zero q becomes the identity.
func (q Quat) Normalize() Quat {
	n := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n < 1e-4 {
		return QuatIdentity()
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	q = q.Normalize()
	u := q.vec()
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// ToMat4 returns the rotation matrix of q. Each column is the rotated
// basis vector.
func (q Quat) ToMat4() Mat4 {
	x := q.Rotate(Vec3{X: 1})
	y := q.Rotate(Vec3{Y: 1})
	z := q.Rotate(Vec3{Z: 1})
	return Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		0, 0, 0, 1,
	}
}
