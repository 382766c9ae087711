package kernel

import (
	"math"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// Grid subdivides a wall into N*N triangular tiles of equal area, used for
// surface-molecule occupancy (spec.md §3, §4.7). Tiles are numbered by row
// ("strip", 0 at the apex vertex2, N-1 at the base edge v0-v1); row s holds
// 2s+1 tiles occupying index range [s*s, (s+1)*(s+1)).
type Grid struct {
	N    int
	Vert0 geom.Vec2 // offset subtracted from uv before indexing (spec.md §4.1 xyz→uv)

	occupancy []MoleculeID // NoMolecule sentinel marks an empty tile
	occupied  []bool

	// triangle shape in the grid's own local frame, copied from the owning
	// wall so Grid stays self-contained for tests.
	uvVert1U float64
	uvVert2  geom.Vec2
}

const NoMolecule MoleculeID = 0

// NewGrid allocates an N×N tile grid for a wall whose local triangle is
// (0,0), (uvVert1U,0), uvVert2.
func NewGrid(n int, uvVert1U float64, uvVert2 geom.Vec2) *Grid {
	g := &Grid{
		N:        n,
		uvVert1U: uvVert1U,
		uvVert2:  uvVert2,
	}
	g.occupancy = make([]MoleculeID, n*n)
	g.occupied = make([]bool, n*n)
	return g
}

func (g *Grid) NumTiles() int { return g.N * g.N }

func (g *Grid) IsOccupied(t TileID) bool {
	return g.occupied[int(t)]
}

func (g *Grid) Occupant(t TileID) MoleculeID {
	return g.occupancy[int(t)]
}

func (g *Grid) Set(t TileID, id MoleculeID) {
	g.occupancy[int(t)] = id
	g.occupied[int(t)] = true
}

func (g *Grid) Clear(t TileID) {
	g.occupancy[int(t)] = NoMolecule
	g.occupied[int(t)] = false
}

// rowBounds returns the v-range [vLow, vHigh) of row s, and the u-extent
// function evaluated at a given v within that range.
func (g *Grid) rowBounds(s int) (vLow, vHigh float64) {
	h := g.uvVert2.V
	n := float64(g.N)
	vLow = float64(g.N-1-s) * h / n
	vHigh = float64(g.N-s) * h / n
	return
}

func (g *Grid) leftU(v float64) float64 {
	h := g.uvVert2.V
	if h == 0 {
		return 0
	}
	return g.uvVert2.U * (v / h)
}

func (g *Grid) rightU(v float64) float64 {
	h := g.uvVert2.V
	if h == 0 {
		return g.uvVert1U
	}
	return g.uvVert1U + (g.uvVert2.U-g.uvVert1U)*(v/h)
}

// UVToTile maps a uv point (already offset by Vert0 by the caller, see
// Wall.XYZToUV) to the tile that contains it (spec.md §4.7). The three
// triangle vertices map to three distinct corner tiles.
func (g *Grid) UVToTile(uv geom.Vec2) TileID {
	n := g.N
	h := g.uvVert2.V
	invStripWidth := float64(n) / h

	v := uv.V
	if v < 0 {
		v = 0
	}
	if v > h {
		v = h
	}

	raw := int(math.Floor(v * invStripWidth))
	s := n - raw - 1
	if s < 0 {
		s = 0
	}
	if s > n-1 {
		s = n - 1
	}

	if s == 0 {
		return TileID(0)
	}

	vLow, vHigh := g.rowBounds(s)
	if v < vLow {
		v = vLow
	}
	if v >= vHigh {
		v = vHigh - geom.EPS
	}

	rowWidth := g.rightU(v) - g.leftU(v)
	numColumns := s + 1
	colWidth := rowWidth / float64(numColumns)
	if colWidth <= 0 {
		return TileID(s * s)
	}

	relU := uv.U - g.leftU(v)
	col := int(math.Floor(relU / colWidth))
	if col < 0 {
		col = 0
	}
	if col >= numColumns {
		col = numColumns - 1
	}

	if col == s {
		return TileID(s*s + 2*s)
	}

	fracU := relU/colWidth - float64(col)
	fracV := (v - vLow) / (vHigh - vLow)
	flip := 0
	if fracU+fracV >= 1 {
		flip = 1
	}

	return TileID(s*s + 2*col + flip)
}

// TileUV returns a representative uv point inside the given tile: its
// centroid when random is false, or a point sampled uniformly within the
// tile's triangular area when random is true (spec.md §6 randomize_smol_pos).
func (g *Grid) TileUV(t TileID, random bool, u1, u2 float64) geom.Vec2 {
	idx := int(t)
	s := int(math.Sqrt(float64(idx)))
	for s*s > idx {
		s--
	}
	for (s+1)*(s+1) <= idx {
		s++
	}
	offset := idx - s*s

	if s == 0 {
		// Single apex tile: centroid of the row's lower edge and uvVert2.
		if !random {
			vLow, _ := g.rowBounds(0)
			return geom.Vec2{
				U: (g.leftU(vLow) + g.rightU(vLow) + g.uvVert2.U) / 3,
				V: (2*vLow + g.uvVert2.V) / 3,
			}
		}
		return g.sampleApexTile(u1, u2)
	}

	col := offset / 2
	flip := offset % 2
	if offset == 2*s {
		col = s
		flip = 0
	}

	vLow, vHigh := g.rowBounds(s)
	numColumns := s + 1

	// (1/3, 1/3) is the centroid of a column cell's lower half; the fold
	// below moves it to (2/3, 2/3) for the upper half.
	fracU, fracV := 1.0/3, 1.0/3
	if random {
		fracU, fracV = u1, u2
	}
	if col == s && offset == 2*s {
		// Corner tile: a single small triangle at the row's outer edge.
		fracU, fracV = foldToTriangle(fracU, fracV, 0)
	} else if flip == 0 {
		fracU, fracV = foldToTriangle(fracU, fracV, 0)
	} else {
		fracU, fracV = foldToTriangle(fracU, fracV, 1)
	}

	// Column width is taken at v itself, as UVToTile does.
	v := vLow + fracV*(vHigh-vLow)
	colWidth := (g.rightU(v) - g.leftU(v)) / float64(numColumns)
	u := g.leftU(v) + (float64(col)+fracU)*colWidth
	return geom.Vec2{U: u, V: v}
}

// foldToTriangle folds a uniform point in the unit square into the
// upright (which=0, u+v<1) or inverted (which=1, u+v>=1) half, avoiding
// rejection sampling.
func foldToTriangle(u, v float64, which int) (float64, float64) {
	inUpper := u+v >= 1
	if which == 0 && inUpper {
		return 1 - u, 1 - v
	}
	if which == 1 && !inUpper {
		return 1 - u, 1 - v
	}
	return u, v
}

func (g *Grid) sampleApexTile(u1, u2 float64) geom.Vec2 {
	fu, fv := foldToTriangle(u1, u2, 0)
	vLow, _ := g.rowBounds(0)
	p0 := geom.Vec2{U: g.leftU(vLow), V: vLow}
	p1 := geom.Vec2{U: g.rightU(vLow), V: vLow}
	p2 := g.uvVert2
	// Barycentric combination equivalent to the unit-square fold above.
	return p0.Scale(1 - fu - fv).Add(p1.Scale(fu)).Add(p2.Scale(fv))
}
