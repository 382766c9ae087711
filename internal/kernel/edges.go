package kernel

import "github.com/nrazek/mcellgo/internal/kernel/geom"

type vertexPair struct {
	lo, hi VertexID
}

func makePair(a, b VertexID) vertexPair {
	if a < b {
		return vertexPair{a, b}
	}
	return vertexPair{b, a}
}

func edgeVertexIDs(w *Wall, edge int) (VertexID, VertexID) {
	switch edge {
	case 0:
		return w.V0, w.V1
	case 1:
		return w.V1, w.V2
	default:
		return w.V2, w.V0
	}
}

type edgeOccurrence struct {
	wall WallID
	edge int
}

// wireObjectEdges finds every pair of walls in wallIDs sharing a physical
// edge and computes the rigid-body (rotation+translation) transform
// flattening one wall's local frame onto the other's, satisfying spec.md
// §3's "shared edges" invariant. Edges touched by only one wall (mesh
// borders) are left with Neighbor == NoWall.
func (p *Partition) wireObjectEdges(wallIDs []WallID) {
	occurrences := make(map[vertexPair][]edgeOccurrence)
	for _, wid := range wallIDs {
		w := &p.Walls[wid]
		for e := 0; e < 3; e++ {
			a, b := edgeVertexIDs(w, e)
			key := makePair(a, b)
			occurrences[key] = append(occurrences[key], edgeOccurrence{wall: wid, edge: e})
		}
	}

	for pair, occ := range occurrences {
		if len(occ) != 2 {
			continue
		}
		p.linkEdges(pair, occ[0], occ[1])
	}
}

// linkEdges wires occA and occB, which share the physical edge pair, as
// mutual neighbors and computes the forward transform from occA's wall
// frame to occB's.
func (p *Partition) linkEdges(pair vertexPair, occA, occB edgeOccurrence) {
	wa := &p.Walls[occA.wall]
	wb := &p.Walls[occB.wall]

	p0 := p.Vertices[pair.lo].Pos
	p1 := p.Vertices[pair.hi].Pos

	aUV0 := wa.XYZToUV(p0)
	aUV1 := wa.XYZToUV(p1)
	bUV0 := wb.XYZToUV(p0)
	bUV1 := wb.XYZToUV(p1)

	vecA := aUV1.Sub(aUV0)
	vecB := bUV1.Sub(bUV0)
	lenA2 := vecA.Dot(vecA)
	if lenA2 < geom.EPS {
		return
	}

	cosT := vecA.Dot(vecB) / lenA2
	sinT := geom.Cross2D(vecA, vecB) / lenA2

	rotatedA0 := geom.Vec2{
		U: aUV0.U*cosT - aUV0.V*sinT,
		V: aUV0.U*sinT + aUV0.V*cosT,
	}
	translate := bUV0.Sub(rotatedA0)

	wa.Edges[occA.edge] = Edge{
		Neighbor:     occB.wall,
		NeighborEdge: occB.edge,
		CosTheta:     cosT,
		SinTheta:     sinT,
		Translate:    translate,
		Forward:      true,
	}
	wb.Edges[occB.edge] = Edge{
		Neighbor:     occA.wall,
		NeighborEdge: occA.edge,
		CosTheta:     cosT,
		SinTheta:     sinT,
		Translate:    translate,
		Forward:      false,
	}
}
