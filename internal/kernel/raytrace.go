package kernel

import (
	"math"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// TraceResult is the output of TraceSubparts (spec.md §4.3): the ordered
// list of subparts pierced by the open segment [pos, pos+d) (for wall
// testing), the unordered halo set (for molecule testing), and the
// destination subpart index reached (the last in-domain subpart if the
// segment left the domain).
type TraceResult struct {
	WallOrder   []int
	MoleculeSet map[int]struct{}
	Dest        int
}

func newTraceResult() *TraceResult {
	return &TraceResult{MoleculeSet: make(map[int]struct{})}
}

func (tr *TraceResult) addWall(i int) {
	tr.WallOrder = append(tr.WallOrder, i)
}

func (tr *TraceResult) addHalo(i int) {
	tr.MoleculeSet[i] = struct{}{}
}

// TraceSubparts implements the "slab walker" of spec.md §4.3: it walks the
// uniform subpart grid from pos along displacement d, recording every
// subpart the open segment pierces (in order, for wall collision testing)
// and every subpart within r·√2 of the path (unordered, for molecule
// collision testing, i.e. the "neighbor halo").
func (p *Partition) TraceSubparts(pos geom.Vec3, d geom.Vec3, r float64) *TraceResult {
	tr := newTraceResult()

	cur := p.subpart3D(pos)
	curIdx := p.flatIndex(cur[0], cur[1], cur[2])
	tr.addWall(curIdx)
	p.addHalo(tr, cur, pos, r)

	dArr := [3]float64{d.X, d.Y, d.Z}
	posArr := [3]float64{pos.X, pos.Y, pos.Z}

	destArr := cur

	for {
		// Parametric time to the next subpart boundary along each axis;
		// an axis with |d_k| < EPS never crosses (spec.md §4.3 edge case).
		bestAxis := -1
		bestT := math.Inf(1)
		for axis := 0; axis < 3; axis++ {
			dk := dArr[axis]
			if math.Abs(dk) < geom.EPS {
				continue
			}
			sign := geom.Signum(dk)
			boundaryIdx := destArr[axis]
			if sign > 0 {
				boundaryIdx++
			}
			plane := float64(boundaryIdx) * p.subpartEdge
			t := (plane - posArr[axis]) / dk
			if t < 0 {
				continue
			}
			if t > 1 {
				continue
			}
			if t < bestT-geom.EPS {
				bestT = t
				bestAxis = axis
			} else if math.Abs(t-bestT) <= geom.EPS {
				// Tie: break x -> y -> z (spec.md §4.3).
				if axis < bestAxis {
					bestAxis = axis
				}
			}
		}

		if bestAxis == -1 {
			// Reached the end of the segment without leaving the current
			// subpart: done, destination is the current cell.
			break
		}

		sign := geom.Signum(dArr[bestAxis])
		destArr[bestAxis] += int(sign)
		if destArr[bestAxis] < 0 || destArr[bestAxis] >= p.numSP {
			// Left the domain: a clean miss (spec.md §4.3); destination
			// stays the last in-domain subpart.
			destArr[bestAxis] -= int(sign)
			break
		}

		crossing := geom.Vec3{
			X: posArr[0] + bestT*dArr[0],
			Y: posArr[1] + bestT*dArr[1],
			Z: posArr[2] + bestT*dArr[2],
		}

		idx := p.flatIndex(destArr[0], destArr[1], destArr[2])
		tr.addWall(idx)
		p.addHalo(tr, destArr, crossing, r)
	}

	tr.Dest = p.flatIndex(destArr[0], destArr[1], destArr[2])
	return tr
}

// addHalo includes the neighbors of subpart c within r*sqrt(2) of point pt
// (spec.md §4.3 step 3): per-axis low/high face proximity, plus the
// diagonal edge/corner subparts whose axis flags all triggered.
func (p *Partition) addHalo(tr *TraceResult, c [3]int, pt geom.Vec3, r float64) {
	margin := r * math.Sqrt2
	ptArr := [3]float64{pt.X, pt.Y, pt.Z}

	var lo, hi [3]bool
	for axis := 0; axis < 3; axis++ {
		low := float64(c[axis]) * p.subpartEdge
		high := float64(c[axis]+1) * p.subpartEdge
		lo[axis] = ptArr[axis]-low <= margin
		hi[axis] = high-ptArr[axis] <= margin
	}

	// Enumerate the 3x3x3 neighborhood (including the center, harmless as
	// a duplicate insert into the set); include offset -1/+1 along an axis
	// only when that axis's corresponding face flag triggered.
	for dx := -1; dx <= 1; dx++ {
		if dx == -1 && !lo[0] {
			continue
		}
		if dx == 1 && !hi[0] {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			if dy == -1 && !lo[1] {
				continue
			}
			if dy == 1 && !hi[1] {
				continue
			}
			for dz := -1; dz <= 1; dz++ {
				if dz == -1 && !lo[2] {
					continue
				}
				if dz == 1 && !hi[2] {
					continue
				}
				ix, iy, iz := c[0]+dx, c[1]+dy, c[2]+dz
				if ix < 0 || ix >= p.numSP || iy < 0 || iy >= p.numSP || iz < 0 || iz >= p.numSP {
					continue
				}
				tr.addHalo(p.flatIndex(ix, iy, iz))
			}
		}
	}
}
