package kernel

import (
	"testing"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// buildTetrahedron constructs a small closed tetrahedral mesh (4 triangles)
// inside a partition, enclosing a region near the origin, and returns the
// wall ids of its four faces.
func buildTetrahedron(t *testing.T, p *Partition) []WallID {
	t.Helper()
	v0 := p.AddVertex(geom.Vec3{X: 0, Y: 0, Z: 0})
	v1 := p.AddVertex(geom.Vec3{X: 4, Y: 0, Z: 0})
	v2 := p.AddVertex(geom.Vec3{X: 0, Y: 4, Z: 0})
	v3 := p.AddVertex(geom.Vec3{X: 0, Y: 0, Z: 4})

	faces := [][3]VertexID{
		{v0, v1, v2},
		{v0, v1, v3},
		{v0, v2, v3},
		{v1, v2, v3},
	}
	ids := make([]WallID, 0, len(faces))
	for _, f := range faces {
		id, err := p.AddWall(f[0], f[1], f[2])
		if err != nil {
			t.Fatalf("AddWall: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestPartition_PointInsideWalls(t *testing.T) {
	p := NewPartition(testConfig(), 1, nil)
	wallIDs := buildTetrahedron(t, p)

	if !p.PointInsideWalls(geom.Vec3{X: 1, Y: 1, Z: 1}, wallIDs) {
		t.Error("point (1,1,1) lies inside the tetrahedron x+y+z<4; expected inside=true")
	}
	if p.PointInsideWalls(geom.Vec3{X: 5, Y: 5, Z: 5}, wallIDs) {
		t.Error("point (5,5,5) lies outside the tetrahedron; expected inside=false")
	}
}

func TestPartition_PointInsideRegion(t *testing.T) {
	p := NewPartition(testConfig(), 1, nil)
	wallIDs := buildTetrahedron(t, p)
	p.Regions = append(p.Regions, Region{WallIDs: wallIDs})

	if !p.PointInsideRegion(geom.Vec3{X: 1, Y: 1, Z: 1}, RegionID(0)) {
		t.Error("expected (1,1,1) inside region 0")
	}
	if p.PointInsideRegion(geom.Vec3{X: 5, Y: 5, Z: 5}, RegionID(0)) {
		t.Error("expected (5,5,5) outside region 0")
	}
}
