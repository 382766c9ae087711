package kernel

import (
	"math"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// MoleculeID is a stable, dense, never-reused molecule identifier
// (spec.md §3). Unlike achemdb's random-token ids, this is a monotonic
// counter owned by Partition so that the sequence of ids created is
// reproducible given a fixed seed (spec.md §6).
type MoleculeID uint64

// TileID indexes one tile of a wall's surface Grid.
type TileID int

const NoTile TileID = -1

// Molecule is either a volume molecule (a free 3D position) or a surface
// molecule (anchored to a wall tile with a 2D uv position and in-plane
// orientation), per spec.md §3.
type Molecule struct {
	ID      MoleculeID
	Species SpeciesID

	SubpartIndex int

	// Volume molecule fields.
	Pos geom.Vec3

	// Surface molecule fields.
	Wall        WallID
	Tile        TileID
	UV          geom.Vec2
	Orientation float64 // +1 or -1

	// UnimolRxTime is the absolute time of this molecule's next
	// unimolecular event; +Inf if it has no unimolecular reaction.
	UnimolRxTime float64
	// NewbieUnimolClock is true until the molecule's unimolecular lifetime
	// has been sampled once (spec.md's ACT_NEWBIE flag).
	NewbieUnimolClock bool

	Defunct bool
}

// IsSurface reports whether this molecule record describes a surface
// molecule (has a wall/tile anchor) rather than a free volume molecule.
func (m *Molecule) IsSurface() bool { return m.Tile != NoTile }

// NewVolumeMolecule constructs a freshly-created, not-yet-scheduled volume
// molecule. Its unimolecular clock is not sampled until the diffusion step
// first touches it (spec.md §4.5 step 1).
func NewVolumeMolecule(id MoleculeID, species SpeciesID, pos geom.Vec3) Molecule {
	return Molecule{
		ID:                id,
		Species:           species,
		Pos:               pos,
		Tile:              NoTile,
		UnimolRxTime:      math.Inf(1),
		NewbieUnimolClock: true,
	}
}

// NewSurfaceMolecule constructs a freshly-created surface molecule anchored
// to wall w, tile t, at local position uv.
func NewSurfaceMolecule(id MoleculeID, species SpeciesID, w WallID, t TileID, uv geom.Vec2, orientation float64) Molecule {
	return Molecule{
		ID:                id,
		Species:           species,
		Wall:              w,
		Tile:              t,
		UV:                uv,
		Orientation:       orientation,
		UnimolRxTime:      math.Inf(1),
		NewbieUnimolClock: true,
	}
}
