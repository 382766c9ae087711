package simctl

import (
	"sync"
	"testing"
	"time"

	"github.com/nrazek/mcellgo/internal/kernel"
)

func newTestRun(t *testing.T) *Run {
	t.Helper()
	p, err := kernel.BuildPartitionFromConfig(validConfig(), nil)
	if err != nil {
		t.Fatalf("BuildPartitionFromConfig: %v", err)
	}
	return newRun("test-run", p)
}

func TestRun_Step_AdvancesIteration(t *testing.T) {
	r := newTestRun(t)
	before := r.Partition.Iteration
	if err := r.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if r.Partition.Iteration != before+1 {
		t.Errorf("Iteration = %d, want %d", r.Partition.Iteration, before+1)
	}
}

func TestRun_Snapshot_CarriesRunID(t *testing.T) {
	r := newTestRun(t)
	snap := r.Snapshot()
	if snap.PartitionID != "test-run" {
		t.Errorf("Snapshot().PartitionID = %q, want %q", snap.PartitionID, "test-run")
	}
}

func TestRun_Run_InvokesOnStepEachTick(t *testing.T) {
	r := newTestRun(t)

	var mu sync.Mutex
	steps := 0
	r.OnStep(func(id string) {
		mu.Lock()
		steps++
		mu.Unlock()
	})

	r.Run(5 * time.Millisecond)
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := steps
		mu.Unlock()
		if n >= 3 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected OnStep to fire at least 3 times within the deadline")
}

func TestRun_Stop_HaltsTicking(t *testing.T) {
	r := newTestRun(t)
	r.Run(5 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	r.Stop()

	time.Sleep(10 * time.Millisecond)
	iterAfterStop := r.Partition.Iteration
	time.Sleep(30 * time.Millisecond)
	if r.Partition.Iteration != iterAfterStop {
		t.Errorf("iteration advanced after Stop: %d -> %d", iterAfterStop, r.Partition.Iteration)
	}
}

func TestRun_Stop_WithoutRunIsNoOp(t *testing.T) {
	r := newTestRun(t)
	r.Stop() // must not panic or block
}
