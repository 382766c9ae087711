package kernel

import (
	"math"
	"testing"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

func TestMovingWallSegmentCollision_FindsMidTimestepCrossing(t *testing.T) {
	// Edge (0,0,0)-(1,0,0) rises to (0,0,2)-(1,0,2) over the timestep; a
	// molecule sweeps (0.5,-1,1)->(0.5,1,1). The edge passes through z=1 at
	// t=0.5, exactly where and when the molecule's path crosses y=0.
	k, m := geom.Vec3{X: 0, Y: 0, Z: 0}, geom.Vec3{X: 1, Y: 0, Z: 0}
	l, n := geom.Vec3{X: 0, Y: 0, Z: 2}, geom.Vec3{X: 1, Y: 0, Z: 2}
	e, f := geom.Vec3{X: 0.5, Y: -1, Z: 1}, geom.Vec3{X: 0.5, Y: 1, Z: 1}

	got, crossed := MovingWallSegmentCollision(k, m, l, n, e, f)
	if !crossed {
		t.Fatal("expected a crossing to be found")
	}
	if math.Abs(got-0.5) > 1e-4 {
		t.Errorf("expected crossing time ~0.5, got %v", got)
	}
}

func TestMovingWallSegmentCollision_NoCrossingWhenSegmentsNeverOverlap(t *testing.T) {
	// Same moving edge, but the molecule sweeps far outside the edge's
	// x-extent: the underlying lines are coplanar at t=0.5 but the
	// segments themselves never touch.
	k, m := geom.Vec3{X: 0, Y: 0, Z: 0}, geom.Vec3{X: 1, Y: 0, Z: 0}
	l, n := geom.Vec3{X: 0, Y: 0, Z: 2}, geom.Vec3{X: 1, Y: 0, Z: 2}
	e, f := geom.Vec3{X: 5, Y: -1, Z: 1}, geom.Vec3{X: 5, Y: 1, Z: 1}

	if _, crossed := MovingWallSegmentCollision(k, m, l, n, e, f); crossed {
		t.Fatal("expected no crossing for segments that never overlap")
	}
}

func TestMovingWallSegmentCollision_NoCrossingWhenEdgeNeverMoves(t *testing.T) {
	// A stationary edge (l,n == k,m) that the molecule's segment never
	// touches at all.
	k, m := geom.Vec3{X: 0, Y: 0, Z: 0}, geom.Vec3{X: 1, Y: 0, Z: 0}
	e, f := geom.Vec3{X: 0.5, Y: 5, Z: 5}, geom.Vec3{X: 0.5, Y: 6, Z: 5}

	if _, crossed := MovingWallSegmentCollision(k, m, k, m, e, f); crossed {
		t.Fatal("expected no crossing when the segment stays far from a stationary edge")
	}
}
