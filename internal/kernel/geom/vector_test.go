package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: -1, Z: 0.5}

	require.Equal(t, Vec3{X: 5, Y: 1, Z: 3.5}, a.Add(b))
	require.Equal(t, Vec3{X: -3, Y: 3, Z: 2.5}, a.Sub(b))
	require.Equal(t, Vec3{X: 2, Y: 4, Z: 6}, a.Scale(2))
	require.InDelta(t, 1*4+2*-1+3*0.5, a.Dot(b), 1e-12)
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{X: 1, Y: 0, Z: 0}
	y := Vec3{X: 0, Y: 1, Z: 0}
	got := x.Cross(y)
	require.Equal(t, Vec3{X: 0, Y: 0, Z: 1}, got)
}

func TestVec3LenAndUnit(t *testing.T) {
	v := Vec3{X: 3, Y: 4, Z: 0}
	require.InDelta(t, 25, v.Len2(), 1e-12)
	require.InDelta(t, 5, v.Len(), 1e-12)

	u := v.Unit()
	require.InDelta(t, 1, u.Len(), 1e-12)
}

func TestVec3Unit_ZeroVectorIsZero(t *testing.T) {
	require.Equal(t, Vec3{}, Vec3{}.Unit())
}

func TestVec3MaxAbsComponent(t *testing.T) {
	v := Vec3{X: -5, Y: 2, Z: 4}
	require.Equal(t, 5.0, v.MaxAbsComponent())
}

func TestVec2Arithmetic(t *testing.T) {
	a := Vec2{U: 1, V: 2}
	b := Vec2{U: 3, V: -1}

	require.Equal(t, Vec2{U: 4, V: 1}, a.Add(b))
	require.Equal(t, Vec2{U: -2, V: 3}, a.Sub(b))
	require.Equal(t, Vec2{U: 2, V: 4}, a.Scale(2))
	require.InDelta(t, 1*3+2*-1, a.Dot(b), 1e-12)
}

func TestCross2D(t *testing.T) {
	u := Vec2{U: 1, V: 0}
	v := Vec2{U: 0, V: 1}
	require.InDelta(t, 1, Cross2D(u, v), 1e-12)
	require.InDelta(t, -1, Cross2D(v, u), 1e-12)
}

func TestSignum(t *testing.T) {
	require.Equal(t, 1.0, Signum(3.2))
	require.Equal(t, -1.0, Signum(-0.5))
	require.Equal(t, 0.0, Signum(0))
}

func TestJumpAwayLine_PerturbsDisplacement(t *testing.T) {
	p := Vec3{X: 0.5, Y: 0.5, Z: 0}
	disp := Vec3{X: 0.1, Y: 0, Z: 0}
	A := Vec3{X: 0, Y: 0, Z: 0}
	B := Vec3{X: 1, Y: 0, Z: 0}
	n := Vec3{X: 0, Y: 0, Z: 1}

	got := JumpAwayLine(p, disp, 1, A, B, n, 1)
	require.NotEqual(t, disp, got, "JumpAwayLine must perturb the displacement away from the edge")

	// Flipping sign must perturb in the opposite direction.
	gotOpp := JumpAwayLine(p, disp, 1, A, B, n, -1)
	require.InDelta(t, got.Sub(disp).X, -(gotOpp.Sub(disp).X), 1e-12)
	require.InDelta(t, got.Sub(disp).Y, -(gotOpp.Sub(disp).Y), 1e-12)
}

func TestJumpAwayLine_DegenerateEdgeIsNoOp(t *testing.T) {
	p := Vec3{X: 0, Y: 0, Z: 0}
	disp := Vec3{X: 1, Y: 1, Z: 1}
	A := Vec3{X: 2, Y: 2, Z: 2}

	got := JumpAwayLine(p, disp, 1, A, A, Vec3{Z: 1}, 1)
	require.Equal(t, disp, got, "a zero-length edge must leave the displacement unchanged")
}
