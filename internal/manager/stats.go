package manager

import (
	"context"
	"time"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Stats is an advisory summary of the stored data.
type Stats struct {
	ActiveBackend  types.BackendType `json:"activeBackend"`
	ItemCount      int               `json:"itemCount"`
	EstimatedBytes int64             `json:"estimatedBytes"`
	LastMigration  *time.Time        `json:"lastMigration,omitempty"`
}

// Stats reads the item count from the active backend and estimates the
// footprint from the sizes the host store reports for the reserved keys.
func (m *Manager) Stats(ctx context.Context) types.Result[Stats] {
	p, err := m.Storage()
	if err != nil {
		return types.Fail[Stats](err)
	}
	items := p.GetItems(ctx)
	if !items.Success {
		return types.Forward[Stats](items)
	}

	var size int64
	for _, key := range types.ReservedKeys {
		size += int64(m.host.Size(key))
	}

	m.mu.RLock()
	meta := m.readMetadata()
	m.mu.RUnlock()

	return types.Ok(Stats{
		ActiveBackend:  p.Type(),
		ItemCount:      len(items.Data.Items),
		EstimatedBytes: size,
		LastMigration:  meta.LastMigrationTimestamp,
	})
}
