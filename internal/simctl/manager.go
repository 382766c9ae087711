// Package simctl is the multi-partition control plane (component L,
// SPEC_FULL.md §2): it owns named, independently running kernel.Partition
// instances and is the only place concurrency enters this module (kernel
// Partitions are themselves single-threaded per spec.md §5).
package simctl

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nrazek/mcellgo/internal/kernel"
)

// Manager owns every active Run, keyed by a uuid-generated partition id.
// Grounded on achemdb's EnvironmentManager, same locking discipline
// (sync.RWMutex guarding a map, read methods take RLock).
type Manager struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{runs: make(map[string]*Run)}
}

// Create validates cfg, builds a Partition from it, and registers a new Run
// under a freshly generated id. Partition/run identifiers use uuid — unlike
// molecule ids, reproducibility across runs is not required here (see
// DESIGN.md).
func (m *Manager) Create(cfg kernel.SimulationConfig, logger kernel.Logger) (string, error) {
	p, err := kernel.BuildPartitionFromConfig(cfg, logger)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	run := newRun(id, p)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[id]; exists {
		return "", fmt.Errorf("partition with id %s already exists", id)
	}
	m.runs[id] = run
	return id, nil
}

// Get retrieves a Run by id.
func (m *Manager) Get(id string) (*Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	return r, ok
}

// Delete stops and removes a Run. Returns an error if id is unknown.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, exists := m.runs[id]
	if !exists {
		return fmt.Errorf("partition with id %s does not exist", id)
	}
	run.Stop()
	delete(m.runs, id)
	return nil
}

// List returns every registered partition id.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	return ids
}
