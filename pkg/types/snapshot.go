package types

import "time"

// SnapshotVersion is the format version stamped on every exported Snapshot.
const SnapshotVersion = 1

// Snapshot is the complete, self-consistent export of one backend. It is the
// only artifact moved between backends during a migration.
type Snapshot struct {
	Items     ItemCollection `json:"items"`
	Settings  Settings       `json:"settings"`
	Timestamp time.Time      `json:"timestamp"`
	Version   int            `json:"version"`
}

// NewSnapshot stamps items and settings with the current format version.
func NewSnapshot(items ItemCollection, settings Settings, now time.Time) Snapshot {
	if items.Items == nil {
		items.Items = []Item{}
	}
	return Snapshot{
		Items:     items,
		Settings:  settings,
		Timestamp: now.UTC(),
		Version:   SnapshotVersion,
	}
}

// ItemCount returns the number of items in the snapshot.
func (s Snapshot) ItemCount() int {
	return len(s.Items.Items)
}
