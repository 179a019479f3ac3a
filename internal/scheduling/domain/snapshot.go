package domain

import (
	"time"

	"github.com/google/uuid"
)

// SnapshotKey identifies one cached availability result.
type SnapshotKey struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	Date           Date      `json:"date"`
}

func (k SnapshotKey) String() string {
	return k.ProfessionalID.String() + "/" + k.Date.String()
}

// Snapshot is a stored availability result. It is derived data and never
// consulted when admitting a booking.
type Snapshot struct {
	Availability
	ComputedAt time.Time `json:"computed_at"`
}

// NewSnapshot stamps availability with the computation time.
func NewSnapshot(a *Availability, now time.Time) *Snapshot {
	return &Snapshot{Availability: *a, ComputedAt: now.UTC()}
}

// Key returns the snapshot's identity.
func (s *Snapshot) Key() SnapshotKey {
	return SnapshotKey{ProfessionalID: s.Professional.ID, Date: s.Date}
}

// MergeKeys returns the union of key sets in first-seen order.
func MergeKeys(sets ...[]SnapshotKey) []SnapshotKey {
	var out []SnapshotKey
	seen := make(map[SnapshotKey]struct{})
	for _, set := range sets {
		for _, k := range set {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
