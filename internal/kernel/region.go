package kernel

import "github.com/nrazek/mcellgo/internal/kernel/geom"

// PointInsideWalls implements spec.md §4.9's containment test: cast an
// axis-parallel ray of length equal to the partition edge from pt, count
// ray-triangle hits against the given walls, and report inside iff the
// count is odd. TestWallCollision is run with updateMove=false so a
// grazing ray (the ray's line lying in a wall's own plane) resolves to a
// plain miss rather than looping on a perturbed displacement this
// non-diffusing caller has nowhere to retry with. A hit that lands exactly
// on a wall edge still reaches tieBreakEdge regardless of updateMove; spec
// §8 scenario 6 requires treating that point as inside the region, so it
// counts as a hit rather than being resolved by jitter-and-retry the way a
// diffusing molecule's REDO would be.
func (p *Partition) PointInsideWalls(pt geom.Vec3, wallIDs []WallID) bool {
	d := geom.Vec3{X: p.Cfg.PartitionEdgeLength}

	count := 0
	for _, wid := range wallIDs {
		w := &p.Walls[wid]
		switch res := p.TestWallCollision(w, pt, d, false); res.Kind {
		case WallHit, WallRedo:
			count++
		}
	}
	return count%2 == 1
}

// PointInsideRegion reports whether pt lies inside the closed surface
// formed by region r's walls (spec.md §4.9).
func (p *Partition) PointInsideRegion(pt geom.Vec3, r RegionID) bool {
	return p.PointInsideWalls(pt, p.Regions[r].WallIDs)
}
