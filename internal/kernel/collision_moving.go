package kernel

import (
	"math"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// MovingWallSegmentCollision implements spec.md §4.4's moving-wall vs
// segment test. It is included for interface completeness only: the
// kernel's core diffusion step treats geometry as static (spec.md §9 open
// question 3), so nothing in DiffuseVolumeMolecule/gatherAndPickEvent calls
// this; it exists for a caller building dynamic geometry on top of the
// kernel.
//
// Edge endpoints k,m move linearly from t=0 to t=1, arriving at l,n. e,f is
// the molecule's fixed displacement segment for the step. The candidate
// crossing time is the root of f(t) = <(e-f) x (o(t)-f), p(t)-e>, found by
// Newton's method with a numerical derivative (df=0 with f(t)!=0 means no
// crossing exists); the root is then confirmed by solving for the closest
// approach between segment e-f and the moving edge at that instant, since a
// zero triple product only proves coplanarity, not that the segments
// actually overlap.
func MovingWallSegmentCollision(k, m, l, n, e, f geom.Vec3) (t float64, crossed bool) {
	o := func(t float64) geom.Vec3 { return k.Add(l.Sub(k).Scale(t)) }
	p := func(t float64) geom.Vec3 { return m.Add(n.Sub(m).Scale(t)) }
	ef := e.Sub(f)

	tripleProduct := func(t float64) float64 {
		return ef.Cross(o(t).Sub(f)).Dot(p(t).Sub(e))
	}

	const (
		maxIter    = 50
		h          = 1e-6
		newtonTol  = 1e-9
		coplanarTol = 1e-6
	)
	tGuess := 0.5
	for i := 0; i < maxIter; i++ {
		fVal := tripleProduct(tGuess)
		df := (tripleProduct(tGuess+h) - tripleProduct(tGuess-h)) / (2 * h)
		if df == 0 {
			if math.Abs(fVal) < newtonTol {
				break
			}
			return 0, false
		}
		tNext := tGuess - fVal/df
		converged := math.Abs(tNext-tGuess) < newtonTol
		tGuess = tNext
		if converged {
			break
		}
	}
	if tGuess < 0 || tGuess > 1 {
		return 0, false
	}

	s, r, dist := closestApproach(o(tGuess), p(tGuess), e, f)
	if dist > coplanarTol || s < 0 || s > 1 || r < 0 || r > 1 {
		return 0, false
	}
	return tGuess, true
}

// closestApproach returns the parameters s,r in [line A-B, line C-D] at
// which the two lines are nearest each other, and that minimal distance
// (standard skew-line closest-point formula). When the lines are exactly
// coplanar and crossing, dist is ~0 and s,r locate the intersection.
func closestApproach(a, b, c, d geom.Vec3) (s, r, dist float64) {
	d1 := b.Sub(a)
	d2 := d.Sub(c)
	w0 := a.Sub(c)

	aa := d1.Dot(d1)
	bb := d1.Dot(d2)
	cc := d2.Dot(d2)
	dd := d1.Dot(w0)
	ee := d2.Dot(w0)

	denom := aa*cc - bb*bb
	if math.Abs(denom) < geom.EPS {
		return 0, 0, math.Inf(1)
	}

	s = (bb*ee - cc*dd) / denom
	r = (aa*ee - bb*dd) / denom

	p1 := a.Add(d1.Scale(s))
	p2 := c.Add(d2.Scale(r))
	return s, r, p1.Sub(p2).Len()
}
