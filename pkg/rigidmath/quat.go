package rigidmath

import "math"

// Quat is a rotation quaternion stored X,Y,Z,W with 32-bit float components.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat { return Quat{0, 0, 0, 1} }

// QuatMul returns the Hamilton product lhs*rhs: applying the resulting
// rotation to a vector is equivalent to first rotating by rhs, then by lhs.
func QuatMul(lhs, rhs Quat) Quat {
	return Quat{
		X: lhs.W*rhs.X + lhs.X*rhs.W + lhs.Y*rhs.Z - lhs.Z*rhs.Y,
		Y: lhs.W*rhs.Y - lhs.X*rhs.Z + lhs.Y*rhs.W + lhs.Z*rhs.X,
		Z: lhs.W*rhs.Z + lhs.X*rhs.Y - lhs.Y*rhs.X + lhs.Z*rhs.W,
		W: lhs.W*rhs.W - lhs.X*rhs.X - lhs.Y*rhs.Y - lhs.Z*rhs.Z,
	}
}

// Conjugate returns the conjugate of q, equal to its inverse when q is
// normalized.
func (q Quat) Conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Dot returns the dot product of two quaternions, used to detect the short
// arc of interpolation.
func (q Quat) Dot(o Quat) float32 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// LengthSquared returns the squared magnitude of q.
func (q Quat) LengthSquared() float32 {
	return q.Dot(q)
}

// Normalize returns q scaled to unit length. The zero quaternion normalizes
// to identity to keep callers branch-free.
func (q Quat) Normalize() Quat {
	lenSq := q.LengthSquared()
	if lenSq <= 0 {
		return QuatIdentity()
	}
	inv := float32(1.0 / math.Sqrt(float64(lenSq)))
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// RotateVector3 rotates v by q.
func (q Quat) RotateVector3(v Vector3) Vector3 {
	// t = 2 * cross(q.xyz, v)
	qv := Vector3{q.X, q.Y, q.Z}
	t := cross(qv, v).Scale(2)
	// v' = v + q.w * t + cross(q.xyz, t)
	return v.Add(t.Scale(q.W)).Add(cross(qv, t))
}

func cross(a, b Vector3) Vector3 {
	return Vector3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// IsFinite reports whether every component of q is a finite float.
func (q Quat) IsFinite() bool {
	return isFiniteF32(q.X) && isFiniteF32(q.Y) && isFiniteF32(q.Z) && isFiniteF32(q.W)
}

// ReconstructW rebuilds the W component dropped from the wire format,
// clamping the radicand to zero to absorb quantization error (§4.8.4).
func ReconstructW(x, y, z float32) float32 {
	lenSq := x*x + y*y + z*z
	rem := float32(1.0) - lenSq
	if rem < 0 {
		rem = 0
	}
	return float32(math.Sqrt(float64(rem)))
}

// LerpShortPath interpolates from a to b by alpha, flipping b onto a's
// hemisphere first so the interpolation takes the short arc (§4.8.5). The
// result is left unnormalized; callers apply Normalize when required by
// decompression settings.
func LerpShortPath(a, b Quat, alpha float32) Quat {
	if a.Dot(b) < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
	}
	return Quat{
		a.X + (b.X-a.X)*alpha,
		a.Y + (b.Y-a.Y)*alpha,
		a.Z + (b.Z-a.Z)*alpha,
		a.W + (b.W-a.W)*alpha,
	}
}
