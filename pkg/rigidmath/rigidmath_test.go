package rigidmath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuatMulIdentity(t *testing.T) {
	q := Quat{0.1, 0.2, 0.3, 0.9}.Normalize()

	cases := []struct {
		name string
		got  Quat
	}{
		{"identity on right", QuatMul(q, QuatIdentity())},
		{"identity on left", QuatMul(QuatIdentity(), q)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, float64(q.X), float64(tc.got.X), 1e-5)
			require.InDelta(t, float64(q.Y), float64(tc.got.Y), 1e-5)
			require.InDelta(t, float64(q.Z), float64(tc.got.Z), 1e-5)
			require.InDelta(t, float64(q.W), float64(tc.got.W), 1e-5)
		})
	}
}

func TestRotateVector3Identity(t *testing.T) {
	v := Vector3{1, 2, 3}
	got := QuatIdentity().RotateVector3(v)
	require.Equal(t, v, got)
}

func TestReconstructW(t *testing.T) {
	q := Quat{0.5, 0.5, 0.5, 0.5}
	w := ReconstructW(q.X, q.Y, q.Z)
	require.InDelta(t, float64(q.W), float64(w), 1e-5)
}

func TestReconstructWClampsNegativeRadicand(t *testing.T) {
	// Over-quantized components whose squares exceed 1 must not crash on
	// a negative sqrt; they fall back to w=0.
	w := ReconstructW(1, 1, 1)
	require.Equal(t, float32(0), w)
}

func TestMulComposesChain(t *testing.T) {
	parent := QVVTransform{
		Rotation:    QuatIdentity(),
		Translation: Vector3{10, 0, 0},
		Scale:       Vector3One(),
	}
	local := QVVTransform{
		Rotation:    QuatIdentity(),
		Translation: Vector3{0, 5, 0},
		Scale:       Vector3One(),
	}

	object := Mul(local, parent)
	got := object.MulPoint3(Vector3Zero())
	require.InDelta(t, 10.0, float64(got.X), 1e-5)
	require.InDelta(t, 5.0, float64(got.Y), 1e-5)
}

func TestLerpShortPathTakesShortArc(t *testing.T) {
	a := Quat{0, 0, 0, 1}
	b := Quat{0, 0, 0, -1} // same rotation, opposite hemisphere

	got := LerpShortPath(a, b, 0.5)
	require.InDelta(t, 1.0, float64(got.W), 1e-5)
}

func TestApplyAdditiveToBaseNone(t *testing.T) {
	base := Identity()
	additive := QVVTransform{Rotation: QuatIdentity(), Translation: Vector3{1, 1, 1}, Scale: Vector3One()}

	got := ApplyAdditiveToBase(AdditiveNone, base, additive)
	require.Equal(t, additive, got)
}

func TestDefaultScale(t *testing.T) {
	require.Equal(t, Vector3Zero(), DefaultScale(Additive1))
	require.Equal(t, Vector3One(), DefaultScale(Additive0))
	require.Equal(t, Vector3One(), DefaultScale(AdditiveRelative))
}
