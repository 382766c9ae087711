package kernel

import (
	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// VertexID and WallID are dense integer indices (spec.md §9: "back-references
// without cycles" — walls and molecules refer to each other by index, never
// by pointer, so the underlying slices stay relocatable).
type VertexID int
type WallID int
type RegionID int

const NoWall WallID = -1

// Vertex is a shared 3D point; Partition keeps a back-index from vertex to
// the walls that use it.
type Vertex struct {
	Pos geom.Vec3
}

// Edge describes one of a wall's three sides: the neighboring wall sharing
// it (or NoWall on a border), which edge index on that neighbor corresponds
// to this one, and the rigid-body transform between the two walls' local uv
// frames, stored identically on both sides with Forward telling which way it
// maps (spec.md §3).
type Edge struct {
	Neighbor      WallID
	NeighborEdge  int
	CosTheta      float64
	SinTheta      float64
	Translate     geom.Vec2
	// Forward is true when this edge's stored transform maps THIS wall's uv
	// onto the neighbor's uv (the "forward" direction of spec.md §4.1's
	// traverse_surface); the reverse direction is always the exact inverse.
	Forward bool
}

// Wall is a mesh triangle: three vertex indices, a precomputed plane, a
// local 2D frame, and optional surface-molecule grid (spec.md §3).
type Wall struct {
	ID WallID

	V0, V1, V2 VertexID

	// Plane equation n·p = D, with n a unit normal.
	Normal geom.Vec3
	D      float64

	// Local 2D frame: Origin is vertex0's world position; UnitU/UnitV are
	// the 3D unit vectors of the frame's u and v axes. Vertex1 sits at
	// (UVVert1U, 0); vertex2 sits at UVVert2, both in this frame.
	Origin   geom.Vec3
	UnitU    geom.Vec3
	UnitV    geom.Vec3
	UVVert1U float64
	UVVert2  geom.Vec2

	Edges [3]Edge

	Grid *Grid

	Regions []RegionID
}

// NewWall computes a wall's plane and local frame from its three vertex
// world positions, per spec.md §3.
func NewWall(id WallID, v0, v1, v2 VertexID, p0, p1, p2 geom.Vec3) Wall {
	e1 := p1.Sub(p0)
	e2 := p2.Sub(p0)

	normal := e1.Cross(e2).Unit()
	unitU := e1.Unit()
	unitV := normal.Cross(unitU).Unit()

	uvVert1U := e1.Len()
	uvVert2 := geom.XYZToUV(p2, p0, unitU, unitV)

	return Wall{
		ID:       id,
		V0:       v0,
		V1:       v1,
		V2:       v2,
		Normal:   normal,
		D:        normal.Dot(p0),
		Origin:   p0,
		UnitU:    unitU,
		UnitV:    unitV,
		UVVert1U: uvVert1U,
		UVVert2:  uvVert2,
		Edges:    [3]Edge{{Neighbor: NoWall}, {Neighbor: NoWall}, {Neighbor: NoWall}},
	}
}

// LocalVertices returns the wall's three vertices expressed in its own uv
// frame: (0,0), (UVVert1U,0) and UVVert2.
func (w *Wall) LocalVertices() (v0, v1, v2 geom.Vec2) {
	return geom.Vec2{}, geom.Vec2{U: w.UVVert1U}, w.UVVert2
}

// UVToXYZ and XYZToUV flatten between this wall's local frame and world
// space (spec.md §4.1).
func (w *Wall) UVToXYZ(a geom.Vec2) geom.Vec3 {
	return geom.UVToXYZ(a, w.Origin, w.UnitU, w.UnitV)
}

func (w *Wall) XYZToUV(p geom.Vec3) geom.Vec2 {
	return geom.XYZToUV(p, w.Origin, w.UnitU, w.UnitV)
}

// TraverseSurface returns the point in the neighboring wall's frame
// reached by crossing edge `which` (spec.md §4.1 traverse_surface). The
// caller is responsible for resolving the neighbor Wall from its id.
func (w *Wall) TraverseSurface(which int, loc geom.Vec2) (WallID, geom.Vec2) {
	e := w.Edges[which]
	if e.Forward {
		return e.Neighbor, geom.EdgeTransform2D(loc, e.CosTheta, e.SinTheta, e.Translate)
	}
	return e.Neighbor, geom.InverseEdgeTransform2D(loc, e.CosTheta, e.SinTheta, e.Translate)
}

// Region is a named subset of a mesh's walls, optionally reactive with a
// surface-class species (spec.md §3).
type Region struct {
	ID           RegionID
	Name         string
	ObjectName   string
	WallIDs      []WallID
	Reactive     bool
	SurfaceClass SpeciesID
}
