package types

import "math"

// Quat is a double-precision unit quaternion used to represent rotations.
// The identity rotation is Quat{0, 0, 0, 1}.
type Quat struct {
	X, Y, Z, W float64
}

// IdentityQuat returns the rotation-free quaternion.
func IdentityQuat() Quat { return Quat{0, 0, 0, 1} }

// Conjugate returns the conjugate of q, which equals its inverse when q is
// a unit quaternion (true for every rotation produced by this package).
func (q Quat) Conjugate() Quat { return Quat{-q.X, -q.Y, -q.Z, q.W} }

// Normalize returns q scaled to unit length. Returns the identity quaternion
// if q has zero length.
func (q Quat) Normalize() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return IdentityQuat()
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

// RotateVec3 rotates v by the unit quaternion q.
func (q Quat) RotateVec3(v Vec3) Vec3 {
	// t = 2 * cross(q.xyz, v)
	qv := Vec3{q.X, q.Y, q.Z}
	t := qv.Cross(v).Scale(2)
	// v' = v + q.w * t + cross(q.xyz, t)
	return v.Add(t.Scale(q.W)).Add(qv.Cross(t))
}

// AxisAngle builds a unit quaternion representing a right-handed rotation of
// angleRadians around the (assumed unit-length) axis.
func AxisAngle(axis Vec3, angleRadians float64) Quat {
	half := angleRadians / 2
	s := math.Sin(half)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, math.Cos(half)}
}

// Transform is a rigid-body transform: a rotation followed by a translation,
// matching the atomCAD convention that GeoNode.Transform and AtomicStructure
// placements both use (rotate then translate).
type Transform struct {
	Translation Vec3
	Rotation    Quat
}

// IdentityTransform returns the no-op transform.
func IdentityTransform() Transform {
	return Transform{Translation: Vec3{}, Rotation: IdentityQuat()}
}

// ApplyToPosition maps a point from the transform's local space into its
// parent space: rotate, then translate.
func (t Transform) ApplyToPosition(p Vec3) Vec3 {
	return t.Rotation.RotateVec3(p).Add(t.Translation)
}

// ApplyToDirection maps a direction vector (ignoring translation).
func (t Transform) ApplyToDirection(d Vec3) Vec3 {
	return t.Rotation.RotateVec3(d)
}

// Inverse returns the transform that undoes t: applying t then t.Inverse()
// to any point returns that point unchanged (up to floating-point error).
func (t Transform) Inverse() Transform {
	invRot := t.Rotation.Conjugate()
	invTrans := invRot.RotateVec3(t.Translation.Negate())
	return Transform{Translation: invTrans, Rotation: invRot}
}

// Compose returns the transform equivalent to applying t first, then other:
// t.Compose(other) maps local t-space directly into other's parent space.
func (t Transform) Compose(other Transform) Transform {
	return Transform{
		Translation: other.ApplyToPosition(t.Translation),
		Rotation:    quatMul(other.Rotation, t.Rotation),
	}
}

// quatMul performs the Hamilton product a*b.
func quatMul(a, b Quat) Quat {
	return Quat{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}
