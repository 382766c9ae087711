package kernel

import "math"

// Config holds the partition-wide configuration spec.md §6 enumerates.
type Config struct {
	PartitionEdgeLength         float64
	NumSubpartitionsPerPartition int
	RxRadius3D                  float64
	UseExpandedList             bool
	VacancySearchDist2          float64
	RandomizeSmolPos            bool
	// BaseDt is the global base timestep species-specific Δt_s values are
	// derived from (spec.md §6: "the engine derives Δt_s and σ from D and
	// the global base timestep").
	BaseDt float64

	// MaxReflections bounds the number of wall reflections a single
	// diffuse step may process before giving up (spec.md §4.5 step 6,
	// "up to a configurable reflection count"). Zero means the default
	// of 10.
	MaxReflections int
}

// maxReflections returns the effective reflection cap, applying the
// documented default when unset.
func (c Config) maxReflections() int {
	if c.MaxReflections <= 0 {
		return 10
	}
	return c.MaxReflections
}

// Validate checks the cross-field invariants spec.md §6/§7 require,
// returning every violation at once (ConfigInconsistent), modeled on
// achemdb's ValidateSchemaConfig.
func (c Config) Validate() error {
	verr := &ValidationError{}

	if c.PartitionEdgeLength <= 0 {
		verr.Add("partition_edge_length must be positive")
	}
	if c.NumSubpartitionsPerPartition <= 0 {
		verr.Add("num_subpartitions_per_partition must be positive")
	}
	if c.RxRadius3D < 0 {
		verr.Add("rx_radius_3d must not be negative")
	}
	if c.BaseDt <= 0 {
		verr.Add("base timestep must be positive")
	}

	if c.NumSubpartitionsPerPartition > 0 && c.PartitionEdgeLength > 0 {
		subpartEdge := c.PartitionEdgeLength / float64(c.NumSubpartitionsPerPartition)
		if subpartEdge <= c.RxRadius3D {
			verr.Add("subpartition edge (%.6g) must be greater than rx_radius_3d (%.6g)", subpartEdge, c.RxRadius3D)
		}
	}

	if verr.HasIssues() {
		return verr
	}
	return nil
}

// DeriveSpeciesTiming fills in a species' Δt_s and σ from its diffusion
// constant, the base timestep, and its time_step_factor (spec.md §6).
func (c Config) DeriveSpeciesTiming(sp *Species) {
	factor := sp.TimeStepFactor
	if factor <= 0 {
		factor = 1
	}
	sp.DtS = c.BaseDt * factor
	if sp.D > 0 {
		// sigma = sqrt(4*D*dt) for 2D surface motion, sqrt(6*D*dt) for 3D
		// volume motion; the per-axis Gaussian scaling in RNG.Gaussian3D
		// already folds in the factor-of-two difference between the two
		// cases, so both use the same sqrt(D*dt) base here.
		n := 6.0
		if sp.IsSurf {
			n = 4.0
		}
		sp.Sigma = math.Sqrt(n * sp.D * sp.DtS)
	}
}
