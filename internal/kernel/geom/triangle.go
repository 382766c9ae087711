package geom

import "math"

// EPS is the general-purpose absolute tolerance used throughout the
// geometry layer for denominator guards and boundary slack (spec.md §4.1,
// §4.4). EPSCorner is the tighter tolerance used to scale jump-away
// perturbations (spec.md §4.1's jump_away_line).
const (
	EPS       = 1e-10
	EPSCorner = 1e-12
)

// PointInTriangle2D reports whether p lies inside (or on the boundary of)
// the triangle a,b,c, using sign agreement of three 2D cross products
// (spec.md §4.1).
func PointInTriangle2D(p, a, b, c Vec2) bool {
	c1 := Cross2D(b.Sub(a), p.Sub(a))
	c2 := Cross2D(c.Sub(b), p.Sub(b))
	c3 := Cross2D(a.Sub(c), p.Sub(c))

	hasNeg := c1 < -EPS || c2 < -EPS || c3 < -EPS
	hasPos := c1 > EPS || c2 > EPS || c3 > EPS
	return !(hasNeg && hasPos)
}

// ClosestPointOnTriangle returns the point on triangle abc nearest p, using
// the exact Voronoi-region algorithm (Ericson, Real-Time Collision
// Detection §5.1.5), as required by spec.md §4.1.
func ClosestPointOnTriangle(p, a, b, c Vec3) Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Scale(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Scale(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Scale(w))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Scale(v)).Add(ac.Scale(w))
}

// EdgeCrossing is a candidate edge hit found while scanning a triangle's
// three edges for a 2D displacement crossing (spec.md §4.1 find_edge_point).
type EdgeCrossing struct {
	Edge int     // 0, 1 or 2
	T    float64 // fractional parameter of disp where the edge is crossed
	S    float64 // fractional parameter along the edge
}

// FindEdgePoint returns which edge of triangle (v0,v1,v2) a 2D displacement
// disp starting at loc crosses first: 0/1/2 for an edge index, -1 if the
// destination stays inside the triangle, -2 if the result is ambiguous (two
// or more edges register an essentially simultaneous crossing, e.g. the path
// exits through a vertex) and the caller must perturb and retry.
func FindEdgePoint(v0, v1, v2, loc, disp Vec2) int {
	verts := [3]Vec2{v0, v1, v2}
	var cands []EdgeCrossing

	for i := 0; i < 3; i++ {
		a := verts[i]
		b := verts[(i+1)%3]
		edge := b.Sub(a)

		denom := Cross2D(disp, edge)
		if math.Abs(denom) < EPS {
			continue // disp parallel to this edge: never the crossed edge
		}

		d := a.Sub(loc)
		t := Cross2D(d, edge) / denom
		s := Cross2D(d, disp) / denom

		if t > EPS && t < 1+EPS && s >= -EPS && s <= 1+EPS {
			cands = append(cands, EdgeCrossing{Edge: i, T: t, S: s})
		}
	}

	if len(cands) == 0 {
		return -1
	}

	best := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].T < cands[best].T {
			best = i
		}
	}

	for i := range cands {
		if i == best {
			continue
		}
		if math.Abs(cands[i].T-cands[best].T) < EPS {
			return -2
		}
	}

	return cands[best].Edge
}

// JumpAwayLine perturbs a displacement by a tiny vector when a collision
// test is ambiguous near an edge or corner (spec.md §4.1). A and B are the
// endpoints of the offending edge, n is the wall's plane normal, sign is a
// random ±1 drawn from one bit of the RNG, and k scales the perturbation
// magnitude down as the caller retries more aggressively.
func JumpAwayLine(p, disp Vec3, k float64, A, B, n Vec3, sign float64) Vec3 {
	edgeDir := B.Sub(A)
	length := edgeDir.Len()
	if length == 0 {
		return disp
	}
	f := n.Cross(edgeDir.Scale(1 / length))
	maxF := f.MaxAbsComponent()
	if maxF == 0 {
		maxF = 1
	}

	magnitude := EPSCorner * (p.MaxAbsComponent() + disp.MaxAbsComponent() + 1) / (k * maxF)
	delta := f.Unit().Scale(magnitude * sign)
	return disp.Add(delta)
}
