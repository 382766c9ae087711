package kernel

import (
	"math"
	"sort"
)

// rateScalingForSteps is spec.md §4.6's Monte Carlo rate-correction factor
// for a diffuse step that covers only a `steps` fraction (0,1] of a full
// species timestep (a molecule whose window was clamped by an upcoming
// unimolecular deadline): r_rate_factor = 1/rate_factor, rate_factor =
// sqrt(steps) unless steps is exactly 1, in which case rate_factor is 1
// (MCell reference diffuse_react_event.cpp's compute_displacement /
// collide_and_react_with_vol_mol). Every TestBimolecular call site must
// pass this as `scaling`, not a bare 1, or reaction probabilities go
// unscaled for any event that didn't complete a full timestep.
func rateScalingForSteps(steps float64) float64 {
	rateFactor := 1.0
	if steps != 1.0 {
		rateFactor = math.Sqrt(steps)
	}
	return 1.0 / rateFactor
}

// GateOutcome is the result of a bimolecular reaction gate test: whether a
// pathway fired, and if so, which one.
type GateOutcome struct {
	Fired    bool
	Pathway  int
}

// TestBimolecular implements spec.md §4.6's test_bimolecular: a single RNG
// draw that decides whether rxn fires at all and, if so, which pathway,
// given the Monte Carlo `scaling` factor (derived from the timestep and
// local molecule density) and a `localFactor` correction (>1 when the
// reactant's grid cell is denser than the reference concentration; 1
// otherwise). The draw is charged to the RNG regardless of outcome so
// identical seeds reproduce identical event sequences.
func (rc *RxnClass) TestBimolecular(rng *RNG, scaling, localFactor float64) GateOutcome {
	u := rng.Float64()

	lf := localFactor
	if lf < 1 {
		lf = 1
	}
	pMin := rc.MinNoreactionP * lf

	var p float64
	if pMin < scaling {
		p = u * scaling
		if p >= pMin {
			return GateOutcome{}
		}
	} else {
		pMax := rc.MaxFixedP * lf
		if pMax >= scaling {
			p = u * pMax
		} else {
			p = u * scaling
			if p >= pMax {
				return GateOutcome{}
			}
		}
	}

	idx := rc.PickPathway(p, lf)
	if idx < 0 {
		return GateOutcome{}
	}
	return GateOutcome{Fired: true, Pathway: idx}
}

// multiCandidate is one reaction class competing in TestManyBimolecular,
// paired with the Monte Carlo scaling factor specific to the partner
// species/subpart density that produced it.
type multiCandidate struct {
	Class       *RxnClass
	Scaling     float64
	LocalFactor float64
}

// TestManyBimolecular implements spec.md §4.6's test_many_bimolecular: a
// molecule simultaneously co-located with several distinct reaction
// partners picks at most one (class, pathway) across all of them with a
// single RNG draw.
func TestManyBimolecular(rng *RNG, candidates []multiCandidate) (classIdx, pathwayIdx int, fired bool) {
	if len(candidates) == 0 {
		return 0, 0, false
	}

	cum := make([]float64, len(candidates))
	var sum float64
	for i, c := range candidates {
		lf := c.LocalFactor
		if lf < 1 {
			lf = 1
		}
		sum += c.Class.MaxFixedP * lf / c.Scaling
		cum[i] = sum
	}

	u := rng.Float64()
	var p float64
	if cum[len(cum)-1] > 1 {
		p = u * cum[len(cum)-1]
	} else {
		p = u
		if p > cum[len(cum)-1] {
			return 0, 0, false
		}
	}

	i := sort.Search(len(cum), func(i int) bool { return p <= cum[i] })
	if i == len(cum) {
		return 0, 0, false
	}

	residual := p
	if i > 0 {
		residual -= cum[i-1]
	}
	lf := candidates[i].LocalFactor
	if lf < 1 {
		lf = 1
	}
	residual *= candidates[i].Scaling / lf

	pwIdx := candidates[i].Class.PickPathway(residual, 1)
	if pwIdx < 0 {
		return 0, 0, false
	}
	return i, pwIdx, true
}

// ScheduleUnimolecular draws and returns the absolute time of molecule m's
// next unimolecular event, per spec.md §4.6's ACT_NEWBIE rule: t = now +
// (-ln U)/k_tot, where k_tot is rc.MaxFixedP. Returns +Inf if rc is nil
// (the species has no unimolecular reaction).
func ScheduleUnimolecular(rng *RNG, rc *RxnClass, now float64) float64 {
	if rc == nil {
		return rng.ExponentialLifetime(0) + now
	}
	return now + rng.ExponentialLifetime(rc.MaxFixedP)
}
