package kernel

import (
	"math"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// aabb is an axis-aligned bounding box used only for wall-to-subpart
// registration (spec.md §4.2).
type aabb struct {
	Min, Max geom.Vec3
}

func aabbOfTriangle(p0, p1, p2 geom.Vec3) aabb {
	min := geom.Vec3{X: minOf3(p0.X, p1.X, p2.X), Y: minOf3(p0.Y, p1.Y, p2.Y), Z: minOf3(p0.Z, p1.Z, p2.Z)}
	max := geom.Vec3{X: maxOf3(p0.X, p1.X, p2.X), Y: maxOf3(p0.Y, p1.Y, p2.Y), Z: maxOf3(p0.Z, p1.Z, p2.Z)}
	return aabb{Min: min, Max: max}
}

func (b aabb) inflate(r float64) aabb {
	d := geom.Vec3{X: r, Y: r, Z: r}
	return aabb{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

func minOf3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func maxOf3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }

// reactantSet is the per-subpart, per-species set of molecule ids spec.md
// §4.2's reactants_in_subpart query needs to answer in O(1) amortized.
type reactantSet map[MoleculeID]struct{}

// subpart is one cell of the uniform spatial grid partitioning the
// simulation volume (spec.md §4.2): the set of walls whose (inflated) AABB
// overlaps it, and the molecules currently inside it, bucketed by species.
type subpart struct {
	walls     map[WallID]struct{}
	reactants map[SpeciesID]reactantSet
}

func newSubpart() *subpart {
	return &subpart{
		walls:     make(map[WallID]struct{}),
		reactants: make(map[SpeciesID]reactantSet),
	}
}

func (sp *subpart) addReactant(species SpeciesID, id MoleculeID) {
	set, ok := sp.reactants[species]
	if !ok {
		set = make(reactantSet)
		sp.reactants[species] = set
	}
	set[id] = struct{}{}
}

func (sp *subpart) removeReactant(species SpeciesID, id MoleculeID) {
	if set, ok := sp.reactants[species]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(sp.reactants, species)
		}
	}
}

// Stats tracks the non-fatal conditions spec.md §7 requires be counted and
// logged rather than returned as errors.
type Stats struct {
	TileFullCount           int64
	AmbiguousCollisionCount int64
	MissedUnimolecularCount int64
}

// Partition owns every piece of static and dynamic simulation state: the
// mesh (vertices, walls, regions), the species and reaction catalogues, the
// live molecule table, the uniform spatial subpart grid, and the one RNG
// stream every probabilistic decision draws from. It is single-threaded by
// design (spec.md §5) — any concurrency (running several partitions, or
// serving them over a control plane) is hoisted up to internal/simctl, so
// unlike achemdb's Environment this type carries no mutex of its own.
type Partition struct {
	Cfg    Config
	Logger Logger
	RNG    *RNG
	Stats  Stats

	Vertices []Vertex
	// vertexWalls is a back-index from vertex to the walls using it.
	vertexWalls [][]WallID

	Walls   []Wall
	Regions []Region

	Species    map[SpeciesID]Species
	UnimolRxns map[SpeciesID]*RxnClass
	// BimolRxns is keyed by an ordered pair of species ids (lower value
	// first) so a reaction between A and B is stored and looked up once
	// regardless of collision order.
	BimolRxns map[[2]SpeciesID]*RxnClass

	Molecules      map[MoleculeID]*Molecule
	nextMoleculeID MoleculeID

	numSP       int
	subpartEdge float64
	subparts    []*subpart

	Iteration int64
	Time      float64

	Calendar *Calendar
	// inEventQueue holds diffuse actions for products spawned during the
	// current event, processed in FIFO insertion order before the next
	// calendar pop rather than by time (spec.md §4.8). Unimolecular actions
	// always go to the Calendar, including those due within the window.
	inEventQueue []Action

	// lastReflectedWall tracks, per in-flight molecule, the wall it most
	// recently reflected off so the next ray-trace pass excludes it from
	// wall-collision testing for that one pass (spec.md §4.5 step 4).
	lastReflectedWall map[MoleculeID]WallID
}

// NewPartition builds an empty Partition ready to accept geometry, species,
// and reactions; it performs no validation of cfg — callers building from
// external configuration should call cfg.Validate() first (spec.md §6).
func NewPartition(cfg Config, seed uint64, logger Logger) *Partition {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	n := cfg.NumSubpartitionsPerPartition
	if n <= 0 {
		n = 1
	}
	p := &Partition{
		Cfg:            cfg,
		Logger:         logger,
		RNG:            NewRNG(seed),
		Species:        make(map[SpeciesID]Species),
		UnimolRxns:     make(map[SpeciesID]*RxnClass),
		BimolRxns:      make(map[[2]SpeciesID]*RxnClass),
		Molecules:      make(map[MoleculeID]*Molecule),
		nextMoleculeID: 1,
		numSP:          n,
		subpartEdge:    cfg.PartitionEdgeLength / float64(n),
		subparts:       make([]*subpart, n*n*n),
		Calendar:       NewCalendar(cfg.BaseDt),
		lastReflectedWall: make(map[MoleculeID]WallID),
	}
	for i := range p.subparts {
		p.subparts[i] = newSubpart()
	}
	return p
}

// BimolKey normalizes an unordered species pair into BimolRxns's lookup key.
func BimolKey(a, b SpeciesID) [2]SpeciesID {
	if a <= b {
		return [2]SpeciesID{a, b}
	}
	return [2]SpeciesID{b, a}
}

// AddSpecies registers a species, deriving its Δt_s/σ from the partition's
// base timestep (spec.md §6).
func (p *Partition) AddSpecies(sp Species) {
	p.Cfg.DeriveSpeciesTiming(&sp)
	p.Species[sp.ID] = sp
}

// AddVertex appends a new vertex and returns its id.
func (p *Partition) AddVertex(pos geom.Vec3) VertexID {
	id := VertexID(len(p.Vertices))
	p.Vertices = append(p.Vertices, Vertex{Pos: pos})
	p.vertexWalls = append(p.vertexWalls, nil)
	return id
}

// AddWall constructs a new wall from three existing vertex ids, registers it
// into every overlapping subpart, and returns its id. Edge/neighbor linkage
// is the caller's responsibility (BuildPartitionFromConfig wires it after all
// walls of an object are created, per spec.md §4.1).
func (p *Partition) AddWall(v0, v1, v2 VertexID) (WallID, error) {
	if int(v0) >= len(p.Vertices) || int(v1) >= len(p.Vertices) || int(v2) >= len(p.Vertices) {
		return NoWall, newKernelError(InvalidGeometry, "wall references out-of-range vertex")
	}
	p0, p1, p2 := p.Vertices[v0].Pos, p.Vertices[v1].Pos, p.Vertices[v2].Pos
	if p1.Sub(p0).Cross(p2.Sub(p0)).Len2() < geom.EPS*geom.EPS {
		return NoWall, newKernelError(InvalidGeometry, "degenerate (zero-area) wall")
	}

	id := WallID(len(p.Walls))
	w := NewWall(id, v0, v1, v2, p0, p1, p2)
	p.Walls = append(p.Walls, w)

	p.vertexWalls[v0] = append(p.vertexWalls[v0], id)
	p.vertexWalls[v1] = append(p.vertexWalls[v1], id)
	p.vertexWalls[v2] = append(p.vertexWalls[v2], id)

	p.registerWall(id, p0, p1, p2)
	return id, nil
}

// registerWall inserts wall id into every subpart whose box overlaps its
// AABB, inflated by a small epsilon plus rx_radius_3d when
// use_expanded_list is set (spec.md §4.2 "Invariant: a wall is registered
// in every subpartition its bounding box touches, even if only by epsilon").
func (p *Partition) registerWall(id WallID, p0, p1, p2 geom.Vec3) {
	box := aabbOfTriangle(p0, p1, p2)
	inflateBy := geom.EPS
	if p.Cfg.UseExpandedList {
		inflateBy += p.Cfg.RxRadius3D
	}
	box = box.inflate(inflateBy)

	lo := p.subpart3D(box.Min)
	hi := p.subpart3D(box.Max)
	for ix := lo[0]; ix <= hi[0]; ix++ {
		for iy := lo[1]; iy <= hi[1]; iy++ {
			for iz := lo[2]; iz <= hi[2]; iz++ {
				p.subparts[p.flatIndex(ix, iy, iz)].walls[id] = struct{}{}
			}
		}
	}
}

// SubpartIndex returns the flat subpart index containing world position
// pos, clamped to the partition's bounds (spec.md §4.2 subpart_index).
func (p *Partition) SubpartIndex(pos geom.Vec3) int {
	c := p.subpart3D(pos)
	return p.flatIndex(c[0], c[1], c[2])
}

// subpart3D is spec.md §4.2's subpart_3d: the per-axis subpart coordinate of
// a world position, clamped into [0, numSP).
func (p *Partition) subpart3D(pos geom.Vec3) [3]int {
	return [3]int{
		p.clampAxis(pos.X),
		p.clampAxis(pos.Y),
		p.clampAxis(pos.Z),
	}
}

func (p *Partition) clampAxis(v float64) int {
	i := int(math.Floor(v / p.subpartEdge))
	if i < 0 {
		return 0
	}
	if i >= p.numSP {
		return p.numSP - 1
	}
	return i
}

func (p *Partition) flatIndex(ix, iy, iz int) int {
	return ix + iy*p.numSP + iz*p.numSP*p.numSP
}

// NumSubparts returns the total number of subpart cells (numSP^3).
func (p *Partition) NumSubparts() int { return len(p.subparts) }

// WallsInSubpart returns the ids of every wall registered in subpart i
// (spec.md §4.2 walls_in_subpart).
func (p *Partition) WallsInSubpart(i int) []WallID {
	sp := p.subparts[i]
	out := make([]WallID, 0, len(sp.walls))
	for id := range sp.walls {
		out = append(out, id)
	}
	return out
}

// ReactantsInSubpart returns the live molecule ids of the given species
// currently located in subpart i (spec.md §4.2 reactants_in_subpart).
// Sentinel species ids are not expanded here: callers that need "any
// volume molecule" style matching must iterate p.Species themselves.
func (p *Partition) ReactantsInSubpart(i int, species SpeciesID) []MoleculeID {
	sp := p.subparts[i]
	set, ok := sp.reactants[species]
	if !ok {
		return nil
	}
	out := make([]MoleculeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// AddMolecule inserts a freshly constructed molecule into the live table
// and its containing subpart, assigning it the next id in the monotonic
// sequence (spec.md §6's determinism invariant: ids are never drawn from
// the RNG or any OS randomness source).
func (p *Partition) AddMolecule(species SpeciesID, pos geom.Vec3) *Molecule {
	id := p.nextMoleculeID
	p.nextMoleculeID++
	m := NewVolumeMolecule(id, species, pos)
	m.SubpartIndex = p.SubpartIndex(pos)
	p.Molecules[id] = &m
	p.subparts[m.SubpartIndex].addReactant(species, id)
	return &m
}

// AddSurfaceMolecule inserts a freshly constructed surface molecule, placed
// on wall w's tile t at local position uv.
func (p *Partition) AddSurfaceMolecule(species SpeciesID, w WallID, t TileID, uv geom.Vec2, orientation float64) *Molecule {
	id := p.nextMoleculeID
	p.nextMoleculeID++
	m := NewSurfaceMolecule(id, species, w, t, uv, orientation)
	m.Pos = p.Walls[w].UVToXYZ(uv)
	m.SubpartIndex = p.SubpartIndex(m.Pos)
	p.Molecules[id] = &m
	p.subparts[m.SubpartIndex].addReactant(species, id)
	if grid := p.Walls[w].Grid; grid != nil {
		grid.Set(t, id)
	}
	return &m
}

// RemoveMolecule marks a molecule defunct and drops it from its subpart and
// the live table (spec.md §4.6 product/reactant consumption).
func (p *Partition) RemoveMolecule(id MoleculeID) {
	m, ok := p.Molecules[id]
	if !ok {
		return
	}
	m.Defunct = true
	p.subparts[m.SubpartIndex].removeReactant(m.Species, id)
	if m.IsSurface() && m.Wall != NoWall && p.Walls[m.Wall].Grid != nil {
		p.Walls[m.Wall].Grid.Clear(m.Tile)
	}
	delete(p.Molecules, id)
}

// ChangeMoleculeSubpart moves a molecule already in the table from its
// current subpart to newIdx, updating both subparts' reactant sets
// (spec.md §4.2 change_molecule_subpart). It is a no-op if newIdx equals
// the molecule's current subpart.
func (p *Partition) ChangeMoleculeSubpart(m *Molecule, newIdx int) {
	if m.SubpartIndex == newIdx {
		return
	}
	p.subparts[m.SubpartIndex].removeReactant(m.Species, m.ID)
	m.SubpartIndex = newIdx
	p.subparts[newIdx].addReactant(m.Species, m.ID)
}

// LookupUnimol returns the unimolecular RxnClass for species s, if any.
func (p *Partition) LookupUnimol(s SpeciesID) (*RxnClass, bool) {
	rc, ok := p.UnimolRxns[s]
	return rc, ok
}

// LookupBimol returns the bimolecular RxnClass registered for the unordered
// pair (a, b), if any.
func (p *Partition) LookupBimol(a, b SpeciesID) (*RxnClass, bool) {
	rc, ok := p.BimolRxns[BimolKey(a, b)]
	return rc, ok
}
