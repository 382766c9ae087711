package kernel

import "testing"

func TestBimolecular_AlwaysFiresWhenScalingBelowMinNoreaction(t *testing.T) {
	// Two pathways summing to 0.5; a scaling well below MinNoreactionP
	// forces the pMax branch, where p = u*pMax ranges entirely within
	// [0, MaxFixedP) regardless of the RNG draw, so the gate must always
	// fire.
	rc := NewRxnClass(nil, []Pathway{{Probability: 0.1}, {Probability: 0.4}})

	for seed := uint64(1); seed <= 20; seed++ {
		rng := NewRNG(seed)
		out := rc.TestBimolecular(rng, 0.05, 1)
		if !out.Fired {
			t.Fatalf("seed %d: expected a fire, got no reaction", seed)
		}
	}
}

func TestBimolecular_Deterministic(t *testing.T) {
	rc := NewRxnClass(nil, []Pathway{{Probability: 0.3}})

	a := rc.TestBimolecular(NewRNG(11), 2.0, 1)
	b := rc.TestBimolecular(NewRNG(11), 2.0, 1)
	if a != b {
		t.Errorf("same seed produced different gate outcomes: %+v vs %+v", a, b)
	}
}

func TestBimolecular_FrequencyMatchesExpectedProbability(t *testing.T) {
	rc := NewRxnClass(nil, []Pathway{{Probability: 0.5}})
	const scaling = 2.0
	const trials = 200000
	const wantP = rc0MaxFixedP / scaling

	rng := NewRNG(123)
	fired := 0
	for i := 0; i < trials; i++ {
		if rc.TestBimolecular(rng, scaling, 1).Fired {
			fired++
		}
	}
	got := float64(fired) / trials
	if diff := got - wantP; diff < -0.02 || diff > 0.02 {
		t.Errorf("fired frequency = %v, want ~%v (+/- 0.02)", got, wantP)
	}
}

// rc0MaxFixedP mirrors the single-pathway probability used in
// TestBimolecular_FrequencyMatchesExpectedProbability; kept as a named
// constant so the expected-probability arithmetic reads clearly above.
const rc0MaxFixedP = 0.5

func TestManyBimolecular_EmptyCandidatesNeverFires(t *testing.T) {
	_, _, fired := TestManyBimolecular(NewRNG(1), nil)
	if fired {
		t.Error("expected fired=false with no candidates")
	}
}

func TestManyBimolecular_AlwaysFiresWhenOversubscribed(t *testing.T) {
	classA := NewRxnClass(nil, []Pathway{{Probability: 0.5}})
	classB := NewRxnClass(nil, []Pathway{{Probability: 0.5}})
	candidates := []multiCandidate{
		{Class: classA, Scaling: 0.1, LocalFactor: 1},
		{Class: classB, Scaling: 0.1, LocalFactor: 1},
	}

	for seed := uint64(1); seed <= 20; seed++ {
		_, _, fired := TestManyBimolecular(NewRNG(seed), candidates)
		if !fired {
			t.Fatalf("seed %d: expected a fire when cumulative mass exceeds 1", seed)
		}
	}
}

func TestManyBimolecular_PicksAmongCandidatesDeterministically(t *testing.T) {
	classA := NewRxnClass(nil, []Pathway{{Probability: 0.5}})
	classB := NewRxnClass(nil, []Pathway{{Probability: 0.5}})
	candidates := []multiCandidate{
		{Class: classA, Scaling: 0.1, LocalFactor: 1},
		{Class: classB, Scaling: 0.1, LocalFactor: 1},
	}

	ci1, pi1, fired1 := TestManyBimolecular(NewRNG(7), candidates)
	ci2, pi2, fired2 := TestManyBimolecular(NewRNG(7), candidates)
	if ci1 != ci2 || pi1 != pi2 || fired1 != fired2 {
		t.Errorf("same seed produced different picks: (%d,%d,%v) vs (%d,%d,%v)", ci1, pi1, fired1, ci2, pi2, fired2)
	}
	if ci1 < 0 || ci1 >= len(candidates) {
		t.Errorf("classIdx = %d out of range", ci1)
	}
}
