package kernel

import "testing"

// minimalBoxConfig builds a one-species, no-geometry simulation config that
// passes validation, for tests that only care about the scalar/species
// bookkeeping.
func minimalBoxConfig() SimulationConfig {
	return SimulationConfig{
		PartitionEdgeLength:          10,
		NumSubpartitionsPerPartition: 5,
		RxRadius3D:                   0.01,
		BaseDt:                       1e-6,
		Seed:                         1,
		Species: []SpeciesConfig{
			{Name: "A", D: 1e-6, IsVol: true, CanDiffuse: true},
		},
	}
}

func TestValidatePartitionConfig_Valid(t *testing.T) {
	if err := ValidatePartitionConfig(minimalBoxConfig()); err != nil {
		t.Fatalf("expected a valid config to pass, got %v", err)
	}
}

func TestValidatePartitionConfig_DuplicateSpeciesName(t *testing.T) {
	cfg := minimalBoxConfig()
	cfg.Species = append(cfg.Species, SpeciesConfig{Name: "A", IsVol: true})
	if err := ValidatePartitionConfig(cfg); err == nil {
		t.Error("expected an error for a duplicate species name")
	}
}

func TestValidatePartitionConfig_SpeciesMustBeVolOrSurf(t *testing.T) {
	cfg := minimalBoxConfig()
	cfg.Species = []SpeciesConfig{{Name: "A"}} // neither is_vol nor is_surf
	if err := ValidatePartitionConfig(cfg); err == nil {
		t.Error("expected an error for a species that is neither volume nor surface")
	}
}

func TestValidatePartitionConfig_SpeciesCannotBeBothVolAndSurf(t *testing.T) {
	cfg := minimalBoxConfig()
	cfg.Species = []SpeciesConfig{{Name: "A", IsVol: true, IsSurf: true}}
	if err := ValidatePartitionConfig(cfg); err == nil {
		t.Error("expected an error for a species flagged both volume and surface")
	}
}

func TestValidatePartitionConfig_WallReferencesOutOfRangeVertex(t *testing.T) {
	cfg := minimalBoxConfig()
	cfg.Geometry.Objects = []ObjectConfig{
		{
			Name:     "box",
			Vertices: []VertexConfig{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
			Walls:    []WallConfig{{V0: 0, V1: 1, V2: 5}},
		},
	}
	if err := ValidatePartitionConfig(cfg); err == nil {
		t.Error("expected an error for a wall referencing an out-of-range vertex")
	}
}

func TestValidatePartitionConfig_ReactiveRegionRequiresSurfaceClass(t *testing.T) {
	cfg := minimalBoxConfig()
	cfg.Geometry.Objects = []ObjectConfig{
		{
			Name:     "box",
			Vertices: []VertexConfig{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
			Walls:    []WallConfig{{V0: 0, V1: 1, V2: 2}},
			Regions:  []RegionConfig{{Name: "r", WallIndices: []int{0}, Reactive: true}},
		},
	}
	if err := ValidatePartitionConfig(cfg); err == nil {
		t.Error("expected an error for a reactive region missing a surface_class")
	}
}

func TestValidatePartitionConfig_ReactionWithWrongReactantCount(t *testing.T) {
	cfg := minimalBoxConfig()
	cfg.Reactions = []ReactionConfig{{Reactants: []string{"A", "A", "A"}}}
	if err := ValidatePartitionConfig(cfg); err == nil {
		t.Error("expected an error for a reaction with more than two reactants")
	}
}

func TestValidatePartitionConfig_ReactionUnknownSpecies(t *testing.T) {
	cfg := minimalBoxConfig()
	cfg.Reactions = []ReactionConfig{{Reactants: []string{"Ghost"}}}
	if err := ValidatePartitionConfig(cfg); err == nil {
		t.Error("expected an error for a reaction referencing an unknown species")
	}
}

func TestBuildPartitionFromConfig_RejectsInvalidConfig(t *testing.T) {
	if _, err := BuildPartitionFromConfig(SimulationConfig{}, nil); err == nil {
		t.Error("expected an error building from an invalid config")
	}
}

func TestBuildPartitionFromConfig_SpeciesRegistered(t *testing.T) {
	p, err := BuildPartitionFromConfig(minimalBoxConfig(), nil)
	if err != nil {
		t.Fatalf("BuildPartitionFromConfig: %v", err)
	}
	if len(p.Species) != 1 {
		t.Fatalf("expected 1 species registered, got %d", len(p.Species))
	}
	sp, ok := p.Species[1]
	if !ok {
		t.Fatal("expected species id 1 (first declared) to be registered")
	}
	if sp.Name != "A" || !sp.IsVol {
		t.Errorf("unexpected species record: %+v", sp)
	}
}

func TestBuildPartitionFromConfig_GeometryAndReactionsWired(t *testing.T) {
	cfg := minimalBoxConfig()
	cfg.Species = append(cfg.Species, SpeciesConfig{Name: "B", IsVol: true})
	cfg.Geometry.Objects = []ObjectConfig{
		{
			Name:     "tri",
			Vertices: []VertexConfig{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
			Walls:    []WallConfig{{V0: 0, V1: 1, V2: 2}},
			Regions:  []RegionConfig{{Name: "r", WallIndices: []int{0}, Reactive: true, SurfaceClass: "B"}},
		},
	}
	cfg.Reactions = []ReactionConfig{
		{
			Reactants: []string{"A"},
			Pathways:  []PathwayConfig{{Probability: 1.0, Products: []ProductConfig{{Species: "B"}}}},
		},
	}

	p, err := BuildPartitionFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("BuildPartitionFromConfig: %v", err)
	}
	if len(p.Walls) != 1 {
		t.Fatalf("expected 1 wall, got %d", len(p.Walls))
	}
	if len(p.Regions) != 1 || p.Regions[0].Name != "r" {
		t.Fatalf("expected region 'r' to be registered, got %+v", p.Regions)
	}
	if _, ok := p.UnimolRxns[1]; !ok {
		t.Error("expected a unimolecular reaction class registered for species A (id 1)")
	}
}
