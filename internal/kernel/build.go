package kernel

import (
	"strconv"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// VertexConfig, WallConfig, RegionConfig, SpeciesConfig, PathwayConfig,
// ReactionConfig, and GeometryConfig are the JSON-facing input types
// spec.md §6 requires; BuildPartitionFromConfig turns a validated
// SimulationConfig into a live Partition, mirroring achemdb's
// BuildSchemaFromConfig.

type VertexConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type WallConfig struct {
	V0 int `json:"v0"`
	V1 int `json:"v1"`
	V2 int `json:"v2"`
}

type RegionConfig struct {
	Name         string `json:"name"`
	WallIndices  []int  `json:"wall_indices"`
	Reactive     bool   `json:"reactive"`
	SurfaceClass string `json:"surface_class,omitempty"`
}

type ObjectConfig struct {
	Name     string         `json:"name"`
	Vertices []VertexConfig `json:"vertices"`
	Walls    []WallConfig   `json:"walls"`
	Regions  []RegionConfig `json:"regions,omitempty"`
}

type GeometryConfig struct {
	Objects []ObjectConfig `json:"objects"`
}

type SpeciesConfig struct {
	Name             string  `json:"name"`
	D                float64 `json:"diffusion_constant"`
	IsVol            bool    `json:"is_vol"`
	IsSurf           bool    `json:"is_surf"`
	CanDiffuse       bool    `json:"can_diffuse"`
	CanReactWithSurf bool    `json:"can_react_with_surf"`
	TimeStepFactor   float64 `json:"time_step_factor,omitempty"`
}

type ProductConfig struct {
	Species     string  `json:"species"`
	Orientation float64 `json:"orientation,omitempty"`
}

type PathwayConfig struct {
	Probability float64         `json:"probability"`
	Products    []ProductConfig `json:"products"`
	Type        string          `json:"type,omitempty"` // "standard"|"transparent"|"reflect"|"absorb_region_border"
}

type ReactionConfig struct {
	Reactants []string        `json:"reactants"`
	Pathways  []PathwayConfig `json:"pathways"`
}

// SimulationConfig is the top-level JSON document accepted by
// BuildPartitionFromConfig, POSTed to cmd/mcellgo-server or loaded from a
// file by cmd/mcellgo-sim (spec.md §6, §4.12).
type SimulationConfig struct {
	PartitionEdgeLength          float64          `json:"partition_edge_length"`
	NumSubpartitionsPerPartition int              `json:"num_subpartitions_per_partition"`
	RxRadius3D                   float64          `json:"rx_radius_3d"`
	UseExpandedList              bool             `json:"use_expanded_list"`
	VacancySearchDist2           float64          `json:"vacancy_search_dist2,omitempty"`
	RandomizeSmolPos             bool             `json:"randomize_smol_pos,omitempty"`
	BaseDt                       float64          `json:"base_dt"`
	Seed                         uint64           `json:"seed"`
	Species                      []SpeciesConfig  `json:"species"`
	Geometry                     GeometryConfig   `json:"geometry"`
	Reactions                    []ReactionConfig `json:"reactions"`
	GridsPerWall                 int              `json:"grids_per_wall,omitempty"`
}

func rxnTypeFromString(s string) RxnType {
	switch s {
	case "transparent":
		return Transparent
	case "reflect":
		return Reflect
	case "absorb_region_border":
		return AbsorbRegionBorder
	default:
		return Standard
	}
}

// ValidatePartitionConfig checks a SimulationConfig for the issues spec.md
// §7's InvalidGeometry/ConfigInconsistent kinds cover, collecting every
// problem into one *ValidationError (achemdb ValidateSchemaConfig style)
// rather than failing on the first.
func ValidatePartitionConfig(cfg SimulationConfig) error {
	verr := &ValidationError{}

	base := Config{
		PartitionEdgeLength:          cfg.PartitionEdgeLength,
		NumSubpartitionsPerPartition: cfg.NumSubpartitionsPerPartition,
		RxRadius3D:                   cfg.RxRadius3D,
		BaseDt:                       cfg.BaseDt,
	}
	if err := base.Validate(); err != nil {
		verr.Add("%s", err.Error())
	}

	names := make(map[string]bool)
	for _, sp := range cfg.Species {
		if sp.Name == "" {
			verr.Add("species entry missing name")
			continue
		}
		if names[sp.Name] {
			verr.Add("duplicate species name %q", sp.Name)
		}
		names[sp.Name] = true
		if !sp.IsVol && !sp.IsSurf {
			verr.Add("species %q must be is_vol or is_surf", sp.Name)
		}
		if sp.IsVol && sp.IsSurf {
			verr.Add("species %q cannot be both is_vol and is_surf", sp.Name)
		}
		if sp.D < 0 {
			verr.Add("species %q has negative diffusion constant", sp.Name)
		}
	}

	for oi, obj := range cfg.Geometry.Objects {
		for wi, w := range obj.Walls {
			if w.V0 < 0 || w.V0 >= len(obj.Vertices) ||
				w.V1 < 0 || w.V1 >= len(obj.Vertices) ||
				w.V2 < 0 || w.V2 >= len(obj.Vertices) {
				verr.Add("object %q wall %d references an out-of-range vertex", objName(obj, oi), wi)
			}
		}
		for _, r := range obj.Regions {
			for _, wi := range r.WallIndices {
				if wi < 0 || wi >= len(obj.Walls) {
					verr.Add("object %q region %q references an out-of-range wall %d", objName(obj, oi), r.Name, wi)
				}
			}
			if r.Reactive && r.SurfaceClass == "" {
				verr.Add("object %q region %q is reactive but has no surface_class", objName(obj, oi), r.Name)
			}
		}
	}

	for ri, r := range cfg.Reactions {
		if len(r.Reactants) == 0 || len(r.Reactants) > 2 {
			verr.Add("reaction %d must have 1 or 2 reactants", ri)
		}
		for _, name := range r.Reactants {
			if name != "" && !names[name] {
				verr.Add("reaction %d references unknown species %q", ri, name)
			}
		}
		var sum float64
		for pi, pw := range r.Pathways {
			if pw.Probability < 0 {
				verr.Add("reaction %d pathway %d has negative probability", ri, pi)
			}
			sum += pw.Probability
			for _, prod := range pw.Products {
				if !names[prod.Species] {
					verr.Add("reaction %d pathway %d references unknown product species %q", ri, pi, prod.Species)
				}
			}
		}
	}

	if verr.HasIssues() {
		return verr
	}
	return nil
}

func objName(obj ObjectConfig, idx int) string {
	if obj.Name != "" {
		return obj.Name
	}
	return "object#" + strconv.Itoa(idx)
}

// BuildPartitionFromConfig validates cfg and, if valid, constructs a fully
// wired Partition: geometry (vertices, walls, edge neighbor linkage,
// regions, optional grids), species (with derived Δt_s/σ), and reaction
// classes (spec.md §6).
func BuildPartitionFromConfig(cfg SimulationConfig, logger Logger) (*Partition, error) {
	if err := ValidatePartitionConfig(cfg); err != nil {
		return nil, err
	}

	base := Config{
		PartitionEdgeLength:          cfg.PartitionEdgeLength,
		NumSubpartitionsPerPartition: cfg.NumSubpartitionsPerPartition,
		RxRadius3D:                   cfg.RxRadius3D,
		UseExpandedList:              cfg.UseExpandedList,
		VacancySearchDist2:           cfg.VacancySearchDist2,
		RandomizeSmolPos:             cfg.RandomizeSmolPos,
		BaseDt:                       cfg.BaseDt,
	}
	p := NewPartition(base, cfg.Seed, logger)

	speciesByName := make(map[string]SpeciesID)
	for i, sc := range cfg.Species {
		id := SpeciesID(i + 1)
		p.AddSpecies(Species{
			ID:               id,
			Name:             sc.Name,
			D:                sc.D,
			IsVol:            sc.IsVol,
			IsSurf:           sc.IsSurf,
			CanDiffuse:       sc.CanDiffuse,
			CanReactWithSurf: sc.CanReactWithSurf,
			TimeStepFactor:   sc.TimeStepFactor,
		})
		speciesByName[sc.Name] = id
	}

	for _, obj := range cfg.Geometry.Objects {
		vids := make([]VertexID, len(obj.Vertices))
		for i, v := range obj.Vertices {
			vids[i] = p.AddVertex(geom.Vec3{X: v.X, Y: v.Y, Z: v.Z})
		}
		wids := make([]WallID, len(obj.Walls))
		for i, wc := range obj.Walls {
			wid, err := p.AddWall(vids[wc.V0], vids[wc.V1], vids[wc.V2])
			if err != nil {
				return nil, err
			}
			wids[i] = wid
		}
		if cfg.GridsPerWall > 0 {
			for _, wid := range wids {
				w := &p.Walls[wid]
				w.Grid = NewGrid(cfg.GridsPerWall, w.UVVert1U, w.UVVert2)
			}
		}
		p.wireObjectEdges(wids)
		for _, rc := range obj.Regions {
			rid := RegionID(len(p.Regions))
			regionWalls := make([]WallID, len(rc.WallIndices))
			for i, wi := range rc.WallIndices {
				regionWalls[i] = wids[wi]
				p.Walls[wids[wi]].Regions = append(p.Walls[wids[wi]].Regions, rid)
			}
			p.Regions = append(p.Regions, Region{
				ID:           rid,
				Name:         rc.Name,
				ObjectName:   obj.Name,
				WallIDs:      regionWalls,
				Reactive:     rc.Reactive,
				SurfaceClass: speciesByName[rc.SurfaceClass],
			})
		}
	}

	for _, rcfg := range cfg.Reactions {
		reactants := make([]SpeciesID, len(rcfg.Reactants))
		for i, name := range rcfg.Reactants {
			reactants[i] = speciesByName[name]
		}
		pathways := make([]Pathway, len(rcfg.Pathways))
		for i, pw := range rcfg.Pathways {
			products := make([]Product, len(pw.Products))
			for j, prod := range pw.Products {
				products[j] = Product{Species: speciesByName[prod.Species], Orientation: prod.Orientation}
			}
			pathways[i] = Pathway{Probability: pw.Probability, Products: products, Type: rxnTypeFromString(pw.Type)}
		}
		rc := NewRxnClass(reactants, pathways)
		if len(reactants) == 1 {
			p.UnimolRxns[reactants[0]] = rc
		} else {
			p.BimolRxns[BimolKey(reactants[0], reactants[1])] = rc
		}
	}

	return p, nil
}
