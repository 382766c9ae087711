package simctl

import (
	"sync"
	"time"

	"github.com/nrazek/mcellgo/internal/kernel"
)

// Run wraps one live kernel.Partition with the start/stop ticker-goroutine
// machinery achemdb's Environment provides, guarded by its own mutex since
// the Partition itself carries none (spec.md §5: single-threaded per
// partition, concurrency hoisted up to this package).
type Run struct {
	mu        sync.RWMutex
	ID        string
	Partition *kernel.Partition
	stopCh    chan struct{}
	isRunning bool
	onError   func(id string, err error)
	onStep    func(id string)
}

func newRun(id string, p *kernel.Partition) *Run {
	return &Run{
		ID:        id,
		Partition: p,
		stopCh:    make(chan struct{}),
	}
}

// Step runs exactly one iteration of the partition synchronously.
func (r *Run) Step() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Partition.RunIteration()
}

// Snapshot captures the partition's current state under this run's id.
func (r *Run) Snapshot() kernel.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Partition.TakeSnapshot(r.ID)
}

// OnError registers a callback invoked from the ticker goroutine whenever
// Step returns a fatal error (spec.md §7 RuntimeOutOfDomain/
// MissedUnimolecular); the goroutine stops itself afterward.
func (r *Run) OnError(f func(id string, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = f
}

// OnStep registers a callback invoked from the ticker goroutine after every
// successful Step, used by cmd/mcellgo-server to drive periodic snapshot
// notifications without the Run itself depending on the notify package.
func (r *Run) OnStep(f func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStep = f
}

// Run starts a ticker goroutine that steps the partition every interval,
// mirroring achemdb Environment.Run(interval): a fresh stop channel each
// call so a stopped run can be restarted.
func (r *Run) Run(interval time.Duration) {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return
	}
	r.stopCh = make(chan struct{})
	r.isRunning = true
	stopCh := r.stopCh
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Step(); err != nil {
					r.mu.RLock()
					cb := r.onError
					r.mu.RUnlock()
					if cb != nil {
						cb(r.ID, err)
					}
					r.Stop()
					return
				}
				r.mu.RLock()
				stepCb := r.onStep
				r.mu.RUnlock()
				if stepCb != nil {
					stepCb(r.ID)
				}
			case <-stopCh:
				r.mu.Lock()
				r.isRunning = false
				r.mu.Unlock()
				return
			}
		}
	}()
}

// Stop signals the running ticker goroutine, if any, to exit.
func (r *Run) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isRunning {
		return
	}
	close(r.stopCh)
}
