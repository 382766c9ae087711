package kernel

import "sort"

// RxnType tags the behavior of a reaction class at a wall or molecule
// collision (spec.md §3, §9 — a tagged variant, not a class hierarchy).
type RxnType int

const (
	Standard RxnType = iota
	Transparent
	Reflect
	AbsorbRegionBorder
)

// Product describes one molecule created by a pathway, with its species and
// the orientation it is placed with (relevant for surface products).
type Product struct {
	Species     SpeciesID
	Orientation float64
}

// RatePoint is one (time, rate) sample of a variable-rate schedule
// (spec.md §6); the schedule replaces the class's base rate at these times,
// in increasing time order.
type RatePoint struct {
	Time float64
	Rate float64
}

// Pathway is one outcome (product list) within a reaction class, carrying
// its own probability mass (spec.md §3).
type Pathway struct {
	Probability float64
	Products    []Product
	Type        RxnType
}

// RxnClass is the reaction class for one ordered reactant tuple: one or
// more pathways plus the precomputed cumulative-probability bookkeeping
// spec.md §3/§4.6 requires.
type RxnClass struct {
	Reactants []SpeciesID
	Pathways  []Pathway

	// MinNoreactionP is the first pathway's probability; MaxFixedP is the
	// sum across all pathways (spec.md §3).
	MinNoreactionP float64
	MaxFixedP      float64
	// CumProbs[i] = sum of Pathways[0..i].Probability; non-decreasing, and
	// CumProbs[len-1] == MaxFixedP (spec.md §3 invariant).
	CumProbs []float64

	VariableRate []RatePoint
}

// NewRxnClass builds an RxnClass from its pathways, precomputing the
// cumulative-probability table spec.md §3 requires as an invariant.
func NewRxnClass(reactants []SpeciesID, pathways []Pathway) *RxnClass {
	rc := &RxnClass{
		Reactants: reactants,
		Pathways:  pathways,
	}
	rc.recompute()
	return rc
}

func (rc *RxnClass) recompute() {
	rc.CumProbs = make([]float64, len(rc.Pathways))
	var sum float64
	for i, pw := range rc.Pathways {
		sum += pw.Probability
		rc.CumProbs[i] = sum
	}
	rc.MaxFixedP = sum
	if len(rc.Pathways) > 0 {
		rc.MinNoreactionP = rc.Pathways[0].Probability
	}
}

// RateAt returns the class's scalar rate at time t, applying the
// variable-rate schedule if present (spec.md §6): the schedule replaces the
// base rate at each of its increasing time points.
func (rc *RxnClass) RateAt(t float64) float64 {
	if len(rc.VariableRate) == 0 {
		return rc.MaxFixedP
	}
	rate := rc.VariableRate[0].Rate
	for _, rp := range rc.VariableRate {
		if rp.Time > t {
			break
		}
		rate = rp.Rate
	}
	return rate
}

// PickPathway performs the binary search of spec.md §4.6: the smallest
// index i with p <= CumProbs[i]*localFactor. Returns -1 if p exceeds the
// scaled total (no pathway fires).
func (rc *RxnClass) PickPathway(p, localFactor float64) int {
	if localFactor <= 0 {
		localFactor = 1
	}
	n := len(rc.CumProbs)
	idx := sort.Search(n, func(i int) bool {
		return p <= rc.CumProbs[i]*localFactor
	})
	if idx == n {
		return -1
	}
	return idx
}

// IsUnimolecular reports whether this class has exactly one reactant.
func (rc *RxnClass) IsUnimolecular() bool {
	return len(rc.Reactants) == 1
}
