// Package rigidmath implements the small set of vector, quaternion and rigid
// transform operations the compression and decompression pipelines need to
// measure and reconstruct bone poses. All components are 32-bit float to
// match the wire format; there is no double-precision path.
package rigidmath

import "math"

// Vector3 is a 3-component vector or point, 32-bit float per component.
type Vector3 struct {
	X, Y, Z float32
}

// Vector3Zero returns the zero vector.
func Vector3Zero() Vector3 { return Vector3{} }

// Vector3One returns a vector with every component set to 1.
func Vector3One() Vector3 { return Vector3{1, 1, 1} }

// Add returns a+b.
func (a Vector3) Add(b Vector3) Vector3 {
	return Vector3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a-b.
func (a Vector3) Sub(b Vector3) Vector3 {
	return Vector3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Mul returns the component-wise product a*b.
func (a Vector3) Mul(b Vector3) Vector3 {
	return Vector3{a.X * b.X, a.Y * b.Y, a.Z * b.Z}
}

// Div returns the component-wise quotient a/b.
func (a Vector3) Div(b Vector3) Vector3 {
	return Vector3{a.X / b.X, a.Y / b.Y, a.Z / b.Z}
}

// Scale returns a scaled uniformly by s.
func (a Vector3) Scale(s float32) Vector3 {
	return Vector3{a.X * s, a.Y * s, a.Z * s}
}

// Dot returns the dot product of a and b.
func (a Vector3) Dot(b Vector3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// LengthSquared returns the squared length of a, avoiding the sqrt.
func (a Vector3) LengthSquared() float32 {
	return a.Dot(a)
}

// Length returns the Euclidean length of a.
func (a Vector3) Length() float32 {
	return float32(math.Sqrt(float64(a.LengthSquared())))
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vector3) float32 {
	return a.Sub(b).Length()
}

// Lerp linearly interpolates between a and b by alpha in [0,1].
func Lerp(a, b Vector3, alpha float32) Vector3 {
	return Vector3{
		a.X + (b.X-a.X)*alpha,
		a.Y + (b.Y-a.Y)*alpha,
		a.Z + (b.Z-a.Z)*alpha,
	}
}

// IsFinite reports whether every component of v is a finite float.
func (a Vector3) IsFinite() bool {
	return isFiniteF32(a.X) && isFiniteF32(a.Y) && isFiniteF32(a.Z)
}

func isFiniteF32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
