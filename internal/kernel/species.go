package kernel

// SpeciesID identifies a species. Three ids are reserved sentinels that
// match any molecule of the given family when used as a surface-class
// reaction partner (spec.md §6).
type SpeciesID int

const (
	AllMolecules SpeciesID = -(iota + 1)
	AllVolumeMolecules
	AllSurfaceMolecules
)

// Species carries the diffusion parameters and flags spec.md §3 requires.
type Species struct {
	ID      SpeciesID
	Name    string
	D       float64 // diffusion constant, cm^2/s
	DtS     float64 // per-species timestep (derived from D and the base dt)
	Sigma   float64 // space-step derived from D and DtS

	IsVol            bool
	IsSurf           bool
	CanDiffuse       bool
	CanReactWithSurf bool

	// TimeStepFactor scales the base timestep for this species (spec.md §6
	// per-species configuration, default 1).
	TimeStepFactor float64
}

// matchesSentinel reports whether the sentinel id s matches a molecule of
// the given species (volume vs. surface), per spec.md §6.
func (s SpeciesID) matchesSentinel(target Species) bool {
	switch s {
	case AllMolecules:
		return true
	case AllVolumeMolecules:
		return target.IsVol
	case AllSurfaceMolecules:
		return target.IsSurf
	default:
		return false
	}
}
