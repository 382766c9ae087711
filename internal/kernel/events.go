package kernel

import "github.com/nrazek/mcellgo/internal/kernel/geom"

// ReleaseMolecule creates a new volume molecule at pos and schedules its
// first diffuse-step action into the calendar at the partition's current
// time. It is the kernel-level stand-in for an MDL release site (out of
// scope, spec.md §1) and the entry point higher layers (internal/simctl,
// cmd/mcellgo-sim) use to seed a run.
func (p *Partition) ReleaseMolecule(species SpeciesID, pos geom.Vec3) *Molecule {
	m := p.AddMolecule(species, pos)
	p.Calendar.Insert(Action{Kind: ActionDiffuseVolume, Time: p.Time, Molecule: m.ID})
	return m
}

// ReleaseSurfaceMolecule creates a new surface molecule anchored to wall w,
// tile t, and schedules its first diffuse-step action.
func (p *Partition) ReleaseSurfaceMolecule(species SpeciesID, w WallID, t TileID, uv geom.Vec2, orientation float64) *Molecule {
	m := p.AddSurfaceMolecule(species, w, t, uv, orientation)
	p.Calendar.Insert(Action{Kind: ActionDiffuseSurface, Time: p.Time, Molecule: m.ID})
	return m
}

// enqueueFollowup appends a diffuse action for a freshly created reaction
// product to the in-event FIFO queue, so it gets its residual diffusion
// this same event rather than waiting for the next calendar bucket
// (spec.md §4.8: "freshly spawned products ... handled from an in-event
// FIFO queue in insertion order").
func (p *Partition) enqueueFollowup(m *Molecule) {
	kind := ActionDiffuseVolume
	if m.IsSurface() {
		kind = ActionDiffuseSurface
	}
	p.inEventQueue = append(p.inEventQueue, Action{Kind: kind, Time: p.Time, Molecule: m.ID})
}

// RunIteration advances the partition by one base timestep (spec.md §4.8,
// §5 "each diffuse event runs to completion before the next is dequeued").
// Every action due before the iteration's target time is dispatched, the
// in-event FIFO queue always draining ahead of the calendar so freshly
// spawned products are handled in insertion order within the step (spec.md
// §5 ordering guarantees 2-3); unimolecular reactions are popped from the
// calendar. Molecules that survive their diffuse step are rescheduled for
// the next iteration.
func (p *Partition) RunIteration() error {
	target := p.Time + p.Cfg.BaseDt
	for {
		a, ok := p.nextAction(target)
		if !ok {
			break
		}
		if err := p.dispatchAction(a, target); err != nil {
			return err
		}
	}
	p.Time = target
	p.Iteration++
	return nil
}

// nextAction returns the next action to process: the front of the in-event
// FIFO queue if non-empty, otherwise the calendar's earliest action if it
// falls before target.
func (p *Partition) nextAction(target float64) (Action, bool) {
	if len(p.inEventQueue) > 0 {
		a := p.inEventQueue[0]
		p.inEventQueue = p.inEventQueue[1:]
		return a, true
	}
	if t, ok := p.Calendar.Peek(); ok && t < target {
		return p.Calendar.PopNext()
	}
	return Action{}, false
}

// dispatchAction runs one scheduled action to completion and, for diffuse
// actions whose molecule is still alive, reschedules the follow-up action
// at the iteration's target time.
func (p *Partition) dispatchAction(a Action, target float64) error {
	m, ok := p.Molecules[a.Molecule]
	if !ok || m.Defunct {
		// Consumed by an earlier event this same iteration (e.g. a
		// bimolecular hit); nothing left to do.
		return nil
	}

	switch a.Kind {
	case ActionDiffuseVolume:
		tauLeft := target - a.Time
		if tauLeft < 0 {
			tauLeft = 0
		}
		if err := p.DiffuseVolumeMolecule(m, a.Time, tauLeft); err != nil {
			return err
		}
		if !m.Defunct {
			p.Calendar.Insert(Action{Kind: ActionDiffuseVolume, Time: target, Molecule: m.ID})
		}
	case ActionDiffuseSurface:
		tauLeft := target - a.Time
		if tauLeft < 0 {
			tauLeft = 0
		}
		if err := p.DiffuseSurfaceMolecule(m, a.Time, tauLeft); err != nil {
			return err
		}
		if !m.Defunct {
			p.Calendar.Insert(Action{Kind: ActionDiffuseSurface, Time: target, Molecule: m.ID})
		}
	case ActionUnimolecular:
		return p.fireUnimolecular(m, a.Time)
	}
	return nil
}

// fireUnimolecular applies a molecule's scheduled unimolecular reaction: by
// construction its waiting time has already elapsed (spec.md §4.6), so the
// only remaining decision is pathway choice, drawn uniformly over
// max_fixed_p and resolved by the same binary search the bimolecular gate
// uses. A molecule with no unimolecular class at its scheduled time
// indicates a scheduler bug (spec.md §7 MissedUnimolecular).
func (p *Partition) fireUnimolecular(m *Molecule, eventTime float64) error {
	rc, ok := p.LookupUnimol(m.Species)
	if !ok || rc == nil || len(rc.Pathways) == 0 {
		return newKernelError(MissedUnimolecular, "molecule %d has a scheduled unimolecular event with no reaction class", m.ID)
	}
	draw := p.RNG.Float64() * rc.MaxFixedP
	pathway := rc.PickPathway(draw, 1)
	if pathway < 0 {
		return nil
	}
	p.firePathwayProducts(rc, pathway, m.Pos, []MoleculeID{m.ID})
	return nil
}
