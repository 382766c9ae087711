package kernel

import (
	"math"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// DiffuseSurfaceMolecule runs one full 2D diffuse-and-react step for
// surface molecule m, per spec.md §4.7.
func (p *Partition) DiffuseSurfaceMolecule(m *Molecule, eventTime, tauLeft float64) error {
	species, ok := p.Species[m.Species]
	if !ok {
		return newKernelError(RuntimeOutOfDomain, "diffuse: unknown species %d for molecule %d", m.Species, m.ID)
	}

	if m.NewbieUnimolClock {
		rc, _ := p.LookupUnimol(m.Species)
		m.UnimolRxTime = ScheduleUnimolecular(p.RNG, rc, eventTime)
		m.NewbieUnimolClock = false
		if !math.IsInf(m.UnimolRxTime, 1) {
			p.Calendar.Insert(Action{Kind: ActionUnimolecular, Time: m.UnimolRxTime, Molecule: m.ID})
		}
	}

	window := tauLeft
	if rem := m.UnimolRxTime - eventTime; rem < window {
		window = rem
	}
	if window < 0 {
		window = 0
	}
	steps := 1.0
	if species.DtS > 0 {
		if s := window / species.DtS; s < steps {
			steps = s
		}
	}
	if steps < geom.EPSCorner {
		steps = geom.EPSCorner
	}
	if steps > 1 {
		steps = 1
	}

	disp := p.RNG.Gaussian2D(math.Sqrt(steps) * species.Sigma)
	scaling := rateScalingForSteps(steps)

	wallID := m.Wall
	loc := m.UV

	const maxEdgeCrossings = 50
	for i := 0; i < maxEdgeCrossings; i++ {
		w := &p.Walls[wallID]
		v0, v1, v2 := w.LocalVertices()

		edge := geom.FindEdgePoint(v0, v1, v2, loc, disp)

		if edge == -2 {
			// Ambiguous: two edges tied for first crossing (e.g. the path
			// exits through a vertex). Which one tied isn't reported by
			// FindEdgePoint, so perturb away from edge 0 arbitrarily; the
			// retry will re-resolve against whichever edge is actually hit.
			sign := p.RNG.SignBit()
			a0, b0 := edgeVerts(0, v0, v1, v2)
			loc, disp = jumpAwaySurface(loc, disp, [2]geom.Vec2{a0, b0}, sign)
			continue
		}

		if edge == -1 {
			p.settleSurfaceMolecule(m, wallID, loc.Add(disp))
			return nil
		}

		a, b := edgeVerts(edge, v0, v1, v2)
		t, s := edgeCrossing(a, b, loc, disp)
		_ = s
		hit := loc.Add(disp.Scale(t))

		neighbor := w.Edges[edge].Neighbor
		if neighbor == NoWall {
			// Mesh border with no neighbor: treat as a hard reflection.
			loc, disp = reflectAcrossEdge2D(a, b, hit, disp, t)
			continue
		}

		rxType, rc, pathway, fired := p.surfaceBorderOutcome(w, edge, m.Species, scaling)
		switch {
		case fired && rxType == AbsorbRegionBorder:
			p.firePathwayProducts(rc, pathway, w.UVToXYZ(hit), []MoleculeID{m.ID})
			return nil
		case fired && rxType == Reflect:
			loc, disp = reflectAcrossEdge2D(a, b, hit, disp, t)
			continue
		default:
			newWall, newLoc := w.TraverseSurface(edge, hit)
			e := w.Edges[edge]
			remaining := disp.Scale(1 - t)
			var rotated geom.Vec2
			if e.Forward {
				rotated = geom.EdgeTransform2D(remaining, e.CosTheta, e.SinTheta, geom.Vec2{})
			} else {
				rotated = geom.InverseEdgeTransform2D(remaining, e.CosTheta, e.SinTheta, geom.Vec2{})
			}
			wallID = newWall
			loc = newLoc
			disp = rotated
		}
	}

	p.settleSurfaceMolecule(m, wallID, loc)
	return nil
}

// settleSurfaceMolecule applies spec.md §4.7 step 3: compute the
// destination tile; if occupied, the molecule stays on its current tile
// this step ("pick again/full here"); otherwise vacate the old tile and
// occupy the new one.
func (p *Partition) settleSurfaceMolecule(m *Molecule, wallID WallID, newLoc geom.Vec2) {
	w := &p.Walls[wallID]
	if w.Grid == nil {
		m.Wall = wallID
		m.UV = newLoc
		m.Pos = w.UVToXYZ(newLoc)
		p.ChangeMoleculeSubpart(m, p.SubpartIndex(m.Pos))
		return
	}

	newTile := w.Grid.UVToTile(newLoc)
	if wallID == m.Wall && newTile == m.Tile {
		m.UV = newLoc
		m.Pos = w.UVToXYZ(newLoc)
		return
	}
	if w.Grid.IsOccupied(newTile) {
		p.Stats.TileFullCount++
		p.Logger.Debugf("surface diffuse: tile %d on wall %d full, molecule %d stays put", newTile, wallID, m.ID)
		return
	}

	if oldWall := p.Walls[m.Wall]; oldWall.Grid != nil {
		oldWall.Grid.Clear(m.Tile)
	}
	w.Grid.Set(newTile, m.ID)
	m.Wall = wallID
	m.Tile = newTile
	m.UV = newLoc
	m.Pos = w.UVToXYZ(newLoc)
	p.ChangeMoleculeSubpart(m, p.SubpartIndex(m.Pos))
}

// surfaceBorderOutcome mirrors wallReactionOutcome (diffuse.go) for the 2D
// edge-crossing case: if the wall belongs to a reactive region whose surface
// class reacts with s, draw the gate and return the chosen pathway's type.
// Only the current wall's regions are consulted; the crossed edge and the
// neighboring wall's regions are not. scaling is the
// calling diffuse step's Monte Carlo rate correction (rateScalingForSteps).
func (p *Partition) surfaceBorderOutcome(w *Wall, edge int, s SpeciesID, scaling float64) (RxnType, *RxnClass, int, bool) {
	for _, rid := range w.Regions {
		region := p.Regions[rid]
		if !region.Reactive {
			continue
		}
		rc, ok := p.LookupBimol(s, region.SurfaceClass)
		if !ok {
			continue
		}
		outcome := rc.TestBimolecular(p.RNG, scaling, 1)
		if !outcome.Fired {
			continue
		}
		return rc.Pathways[outcome.Pathway].Type, rc, outcome.Pathway, true
	}
	return Transparent, nil, 0, false
}

func edgeVerts(edge int, v0, v1, v2 geom.Vec2) (geom.Vec2, geom.Vec2) {
	verts := [3]geom.Vec2{v0, v1, v2}
	if edge < 0 {
		return verts[0], verts[1]
	}
	return verts[edge], verts[(edge+1)%3]
}

// edgeCrossing recomputes the (t, s) parametric solution for where disp,
// started at loc, crosses the line through a,b — the same computation
// geom.FindEdgePoint performs internally, exposed here so the caller can
// recover the hit point once the crossed edge is already known.
func edgeCrossing(a, b, loc, disp geom.Vec2) (t, s float64) {
	edge := b.Sub(a)
	denom := geom.Cross2D(disp, edge)
	if math.Abs(denom) < geom.EPS {
		return 1, 0
	}
	d := a.Sub(loc)
	return geom.Cross2D(d, edge) / denom, geom.Cross2D(d, disp) / denom
}

// jumpAwaySurface is find_edge_point's 2D analog of geom.JumpAwayLine
// (spec.md §4.1): perturb the in-plane displacement by a tiny vector
// perpendicular to the ambiguous edge, signed by one RNG bit.
func jumpAwaySurface(loc, disp geom.Vec2, edge [2]geom.Vec2, sign float64) (geom.Vec2, geom.Vec2) {
	dir := edge[1].Sub(edge[0])
	length := dir.Len()
	if length == 0 {
		return loc, disp
	}
	perp := geom.Vec2{U: -dir.V / length, V: dir.U / length}
	maxAbs := math.Max(math.Abs(loc.U), math.Abs(loc.V))
	maxAbs = math.Max(maxAbs, math.Max(math.Abs(disp.U), math.Abs(disp.V)))
	magnitude := geom.EPSCorner * (maxAbs + 1) * sign
	return loc, disp.Add(perp.Scale(magnitude))
}

// reflectAcrossEdge2D mirrors the remaining in-plane displacement across
// the crossed edge and anchors loc at the hit point, so diffusion
// continues inside the same triangle (spec.md §4.7 step 2 reflect/miss
// border case).
func reflectAcrossEdge2D(a, b, hit, disp geom.Vec2, t float64) (geom.Vec2, geom.Vec2) {
	dir := b.Sub(a)
	length := dir.Len()
	if length == 0 {
		return hit, disp.Scale(1 - t)
	}
	n := geom.Vec2{U: -dir.V / length, V: dir.U / length}
	remaining := disp.Scale(1 - t)
	reflected := remaining.Sub(n.Scale(2 * remaining.Dot(n)))
	return hit, reflected
}
