package kernel

import (
	"encoding/json"
	"fmt"

	"github.com/nrazek/mcellgo/internal/kernel/geom"
)

// MoleculeSnapshot is the wire representation of one live molecule
// (spec.md §3), used by Snapshot below.
type MoleculeSnapshot struct {
	ID          MoleculeID `json:"id"`
	Species     string     `json:"species"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Z           float64    `json:"z"`
	IsSurface   bool       `json:"is_surface,omitempty"`
	Wall        WallID     `json:"wall,omitempty"`
	Orientation float64    `json:"orientation,omitempty"`
}

// Snapshot is a point-in-time capture of a Partition: its iteration, time,
// and every live molecule, grounded on achemdb's Snapshot/EncodeSnapshotJSON.
type Snapshot struct {
	PartitionID string             `json:"partition_id"`
	Iteration   int64              `json:"iteration"`
	Time        float64            `json:"time"`
	Molecules   []MoleculeSnapshot `json:"molecules"`
}

// TakeSnapshot captures the current state of p under the given partitionID.
func (p *Partition) TakeSnapshot(partitionID string) Snapshot {
	snap := Snapshot{
		PartitionID: partitionID,
		Iteration:   p.Iteration,
		Time:        p.Time,
		Molecules:   make([]MoleculeSnapshot, 0, len(p.Molecules)),
	}
	for _, m := range p.Molecules {
		sp := p.Species[m.Species]
		snap.Molecules = append(snap.Molecules, MoleculeSnapshot{
			ID:          m.ID,
			Species:     sp.Name,
			X:           m.Pos.X,
			Y:           m.Pos.Y,
			Z:           m.Pos.Z,
			IsSurface:   m.IsSurface(),
			Wall:        m.Wall,
			Orientation: m.Orientation,
		})
	}
	return snap
}

// ValidateSnapshot checks that every molecule id in snap is unique and, if
// knownSpecies is non-nil, that every referenced species name exists — mirroring
// achemdb's ValidateSnapshot.
func ValidateSnapshot(snap Snapshot, knownSpecies map[string]bool) error {
	seen := make(map[MoleculeID]struct{}, len(snap.Molecules))
	for _, m := range snap.Molecules {
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate molecule id %d in snapshot", m.ID)
		}
		seen[m.ID] = struct{}{}
		if knownSpecies != nil && !knownSpecies[m.Species] {
			return fmt.Errorf("molecule %d has unknown species %q", m.ID, m.Species)
		}
	}
	return nil
}

// EncodeSnapshotJSON and DecodeSnapshotJSON round-trip a Snapshot to/from
// JSON, mirroring achemdb's persistence.go helpers.
func EncodeSnapshotJSON(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// ReactionRecord is one fired-reaction observation, the wire type for the
// reaction-event stream (spec.md §3), grounded on achemdb's
// NotificationEvent.
type ReactionRecord struct {
	PartitionID string       `json:"partition_id"`
	Time        float64      `json:"time"`
	Reactants   []MoleculeID `json:"reactants"`
	Products    []MoleculeID `json:"products,omitempty"`
	Point       geom.Vec3    `json:"point"`
	Kind        string       `json:"kind"` // "unimolecular" | "bimolecular" | "wall"
}

// JSON returns the reaction record encoded as JSON bytes.
func (r ReactionRecord) JSON() ([]byte, error) {
	return json.Marshal(r)
}
