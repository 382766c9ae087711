package kernel

import (
	"math"
	"sort"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// candidateEvent is one time-ordered collision candidate gathered while
// tracing a molecule's displacement (spec.md §4.5 step 6).
type candidateEvent struct {
	tau    float64
	isWall bool
	wall   WallID
	point  geom.Vec3
	front  bool
	target MoleculeID
}

// DiffuseVolumeMolecule runs one full diffuse-and-react step for volume
// molecule m, per spec.md §4.5. eventTime is the absolute simulation time
// this event was popped at; tauLeft is the remaining time in the current
// window (usually one species timestep).
func (p *Partition) DiffuseVolumeMolecule(m *Molecule, eventTime, tauLeft float64) error {
	species, ok := p.Species[m.Species]
	if !ok {
		return newKernelError(RuntimeOutOfDomain, "diffuse: unknown species %d for molecule %d", m.Species, m.ID)
	}

	if m.NewbieUnimolClock {
		rc, _ := p.LookupUnimol(m.Species)
		m.UnimolRxTime = ScheduleUnimolecular(p.RNG, rc, eventTime)
		m.NewbieUnimolClock = false
		if !math.IsInf(m.UnimolRxTime, 1) {
			p.Calendar.Insert(Action{Kind: ActionUnimolecular, Time: m.UnimolRxTime, Molecule: m.ID})
		}
	}

	window := tauLeft
	if rem := m.UnimolRxTime - eventTime; rem < window {
		window = rem
	}
	if window < 0 {
		window = 0
	}

	steps := 1.0
	if species.DtS > 0 {
		if s := window / species.DtS; s < steps {
			steps = s
		}
	}
	if steps < geom.EPSCorner {
		steps = geom.EPSCorner
	}
	if steps > 1 {
		steps = 1
	}

	disp := p.RNG.Gaussian3D(math.Sqrt(steps) * species.Sigma)
	scaling := rateScalingForSteps(steps)

	pos := m.Pos
	delete(p.lastReflectedWall, m.ID)

	for reflections := 0; ; reflections++ {
		excludeWall, reflected := p.lastReflectedWall[m.ID]
		if !reflected {
			excludeWall = NoWall
		}
		delete(p.lastReflectedWall, m.ID)
		ev, found := p.gatherAndPickEvent(m, pos, disp, species, excludeWall)
		if !found {
			m.Pos = pos.Add(disp)
			p.ChangeMoleculeSubpart(m, p.SubpartIndex(m.Pos))
			return nil
		}

		if !ev.isWall {
			target := p.Molecules[ev.target]
			rc, ok := p.LookupBimol(m.Species, target.Species)
			if !ok {
				// Shouldn't happen: the candidate was only gathered because a
				// class exists. Treat defensively as a miss.
				pos = ev.point
				disp = disp.Scale(1 - ev.tau)
				continue
			}
			outcome := rc.TestBimolecular(p.RNG, scaling, 1)
			if outcome.Fired {
				p.fireBimolecular(rc, outcome.Pathway, ev.point, m, target)
				return nil
			}
			pos = ev.point
			disp = disp.Scale(1 - ev.tau)
			continue
		}

		w := &p.Walls[ev.wall]
		rxType, rc, pathway, fired := p.wallReactionOutcome(w, m.Species, scaling)

		switch {
		case fired && rxType == Transparent:
			pos = ev.point
			disp = disp.Scale(1 - ev.tau)
			continue
		case fired && rxType == AbsorbRegionBorder:
			p.firePathwayProducts(rc, pathway, ev.point, []MoleculeID{m.ID})
			return nil
		default:
			if reflections >= p.Cfg.maxReflections() {
				m.Pos = ev.point
				p.ChangeMoleculeSubpart(m, p.SubpartIndex(m.Pos))
				p.Logger.Warnf("diffuse: molecule %d exhausted reflection budget at wall %d", m.ID, ev.wall)
				return nil
			}
			disp = ReflectVec(disp, w.Normal, ev.tau)
			pos = ev.point
			p.lastReflectedWall[m.ID] = ev.wall
			continue
		}
	}
}

// gatherAndPickEvent runs the subpart tracer, collects every wall and
// mol-mol collision candidate along the path, and returns the
// earliest-time one with tau >= EPS (spec.md §4.5 steps 4-6). On REDO, the
// collision list is cleared and wall iteration restarts with the perturbed
// displacement (spec.md §4.4 REDO semantics), bounded by a small retry
// budget so a pathological ambiguous geometry cannot loop forever.
func (p *Partition) gatherAndPickEvent(m *Molecule, pos, disp geom.Vec3, species Species, excludeWall WallID) (candidateEvent, bool) {
	const maxRedo = 8
	for redo := 0; redo < maxRedo; redo++ {
		tr := p.TraceSubparts(pos, disp, p.Cfg.RxRadius3D)

		var candidates []candidateEvent
		redone := false

		seenWalls := make(map[WallID]struct{})
	wallLoop:
		for _, spIdx := range tr.WallOrder {
			for _, wid := range p.WallsInSubpart(spIdx) {
				if wid == excludeWall {
					continue
				}
				if _, dup := seenWalls[wid]; dup {
					continue
				}
				seenWalls[wid] = struct{}{}
				w := &p.Walls[wid]
				res := p.TestWallCollision(w, pos, disp, true)
				switch res.Kind {
				case WallHit:
					candidates = append(candidates, candidateEvent{tau: res.Tau, isWall: true, wall: wid, point: res.Point, front: res.Front})
				case WallRedo:
					p.Stats.AmbiguousCollisionCount++
					disp = res.NewDisp
					redone = true
					break wallLoop
				}
			}
		}
		if redone {
			continue
		}

		if c, ok := p.gatherMoleculeCandidates(m, pos, disp, tr, candidates); ok {
			return c, true
		}
		return candidateEvent{}, false
	}
	return candidateEvent{}, false
}

func (p *Partition) gatherMoleculeCandidates(m *Molecule, pos, disp geom.Vec3, tr *TraceResult, candidates []candidateEvent) (candidateEvent, bool) {
	for spIdx := range tr.MoleculeSet {
		for otherSpecies := range p.Species {
			if _, ok := p.LookupBimol(m.Species, otherSpecies); !ok {
				continue
			}
			for _, mid := range p.ReactantsInSubpart(spIdx, otherSpecies) {
				if mid == m.ID {
					continue
				}
				target, ok := p.Molecules[mid]
				if !ok || target.Defunct || target.IsSurface() {
					continue
				}
				if hit, ok := TestDiskCollision(pos, disp, target.Pos, p.Cfg.RxRadius3D); ok {
					candidates = append(candidates, candidateEvent{tau: hit.Tau, isWall: false, point: hit.Point, target: mid})
				}
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].tau < candidates[j].tau })

	for _, c := range candidates {
		if c.tau < geom.EPS {
			continue
		}
		return c, true
	}
	return candidateEvent{}, false
}

// wallReactionOutcome determines whether wall w carries a reactive surface
// class that reacts with species s, and if so, draws the gate and returns
// the chosen pathway's type. scaling is the calling diffuse step's Monte
// Carlo rate correction (rateScalingForSteps), not a bare 1.
func (p *Partition) wallReactionOutcome(w *Wall, s SpeciesID, scaling float64) (RxnType, *RxnClass, int, bool) {
	for _, rid := range w.Regions {
		region := p.Regions[rid]
		if !region.Reactive {
			continue
		}
		rc, ok := p.LookupBimol(s, region.SurfaceClass)
		if !ok {
			continue
		}
		outcome := rc.TestBimolecular(p.RNG, scaling, 1)
		if !outcome.Fired {
			continue
		}
		return rc.Pathways[outcome.Pathway].Type, rc, outcome.Pathway, true
	}
	return Reflect, nil, 0, false
}

// fireBimolecular applies a fired bimolecular pathway between two volume
// molecules: both reactants defunct, products placed at the collision
// point (spec.md §4.5 step 6 mol-mol hit).
func (p *Partition) fireBimolecular(rc *RxnClass, pathwayIdx int, point geom.Vec3, a, b *Molecule) {
	p.firePathwayProducts(rc, pathwayIdx, point, []MoleculeID{a.ID, b.ID})
}

// firePathwayProducts defuncts every reactant and places the pathway's
// products at point, as fresh volume molecules (spec.md §4.5/§4.6). Surface
// product placement is handled by the surface diffusion step instead.
func (p *Partition) firePathwayProducts(rc *RxnClass, pathwayIdx int, point geom.Vec3, reactants []MoleculeID) {
	for _, id := range reactants {
		p.RemoveMolecule(id)
	}
	pw := rc.Pathways[pathwayIdx]
	for _, prod := range pw.Products {
		m := p.AddMolecule(prod.Species, point)
		p.enqueueFollowup(m)
	}
}
