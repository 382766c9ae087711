package kernel

import "testing"

func TestNewRxnClass_CumProbsInvariant(t *testing.T) {
	rc := NewRxnClass([]SpeciesID{1, 2}, []Pathway{
		{Probability: 0.2},
		{Probability: 0.3},
		{Probability: 0.1},
	})

	want := []float64{0.2, 0.5, 0.6}
	if len(rc.CumProbs) != len(want) {
		t.Fatalf("expected %d cum probs, got %d", len(want), len(rc.CumProbs))
	}
	for i, w := range want {
		if rc.CumProbs[i] != w {
			t.Errorf("CumProbs[%d] = %v, want %v", i, rc.CumProbs[i], w)
		}
	}
	if rc.CumProbs[len(rc.CumProbs)-1] != rc.MaxFixedP {
		t.Errorf("CumProbs[last] (%v) must equal MaxFixedP (%v)", rc.CumProbs[len(rc.CumProbs)-1], rc.MaxFixedP)
	}
	if rc.MinNoreactionP != 0.2 {
		t.Errorf("MinNoreactionP = %v, want 0.2", rc.MinNoreactionP)
	}
}

func TestRxnClass_PickPathway(t *testing.T) {
	rc := NewRxnClass(nil, []Pathway{
		{Probability: 0.2},
		{Probability: 0.3},
		{Probability: 0.1},
	})

	tests := []struct {
		name string
		p    float64
		want int
	}{
		{"first pathway boundary", 0.2, 0},
		{"inside first pathway", 0.1, 0},
		{"second pathway", 0.4, 1},
		{"second pathway boundary", 0.5, 1},
		{"third pathway", 0.55, 2},
		{"exact total", 0.6, 2},
		{"beyond total, no reaction", 0.6000001, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rc.PickPathway(tt.p, 1); got != tt.want {
				t.Errorf("PickPathway(%v, 1) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestRxnClass_PickPathway_LocalFactorScales(t *testing.T) {
	rc := NewRxnClass(nil, []Pathway{{Probability: 0.1}, {Probability: 0.1}})
	// With localFactor 2, CumProbs are effectively [0.2, 0.4]; 0.3 should
	// land in the second pathway even though it exceeds the unscaled first
	// bucket.
	if got := rc.PickPathway(0.3, 2); got != 1 {
		t.Errorf("PickPathway(0.3, 2) = %d, want 1", got)
	}
}

func TestRxnClass_IsUnimolecular(t *testing.T) {
	uni := NewRxnClass([]SpeciesID{1}, nil)
	bi := NewRxnClass([]SpeciesID{1, 2}, nil)
	if !uni.IsUnimolecular() {
		t.Error("expected single-reactant class to be unimolecular")
	}
	if bi.IsUnimolecular() {
		t.Error("expected two-reactant class not to be unimolecular")
	}
}

func TestScheduleUnimolecular_NilClassNeverFires(t *testing.T) {
	rng := NewRNG(1)
	got := ScheduleUnimolecular(rng, nil, 5.0)
	if got <= 1e300 {
		t.Errorf("expected +Inf for a nil reaction class, got %v", got)
	}
}

func TestScheduleUnimolecular_Deterministic(t *testing.T) {
	rc := NewRxnClass([]SpeciesID{1}, []Pathway{{Probability: 1.0}})

	a := ScheduleUnimolecular(NewRNG(42), rc, 0)
	b := ScheduleUnimolecular(NewRNG(42), rc, 0)
	if a != b {
		t.Errorf("same seed produced different unimolecular lifetimes: %v vs %v", a, b)
	}

	c := ScheduleUnimolecular(NewRNG(43), rc, 0)
	if a == c {
		t.Error("different seeds produced identical lifetimes; suspiciously deterministic")
	}
}
