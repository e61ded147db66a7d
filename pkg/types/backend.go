package types

import (
	"fmt"
	"strings"
	"time"
)

// BackendType names a storage backend.
type BackendType string

// Supported backends.
const (
	BackendKeyValue   BackendType = "keyvalue"
	BackendRelational BackendType = "relational"
)

// MetadataVersion is the format version of BackendMetadata.
const MetadataVersion = 1

// backendAliases maps accepted spellings to backend types.
var backendAliases = map[string]BackendType{
	"keyvalue":     BackendKeyValue,
	"kv":           BackendKeyValue,
	"localstorage": BackendKeyValue,
	"relational":   BackendRelational,
	"sqlite":       BackendRelational,
	"sql":          BackendRelational,
}

// ParseBackendType resolves a user-supplied backend name.
func ParseBackendType(s string) (BackendType, error) {
	bt, ok := backendAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownBackend)
	}
	return bt, nil
}

// Valid reports whether b is a known backend.
func (b BackendType) Valid() bool {
	return b == BackendKeyValue || b == BackendRelational
}

// BackendMetadata records which backend is authoritative. It is stored apart
// from application data and only rewritten after a verified migration, a
// startup fallback, or a reset.
type BackendMetadata struct {
	ActiveBackend          BackendType `json:"activeBackend"`
	LastMigrationTimestamp *time.Time  `json:"lastMigrationTimestamp,omitempty"`
	Version                int         `json:"version"`
}

// DefaultBackendMetadata points at the Key-Value backend.
func DefaultBackendMetadata() BackendMetadata {
	return BackendMetadata{ActiveBackend: BackendKeyValue, Version: MetadataVersion}
}

// MigrationPhase is one step of the migration protocol.
type MigrationPhase string

// Migration phases in protocol order; PhaseError replaces whichever phase failed.
const (
	PhaseExporting  MigrationPhase = "exporting"
	PhaseImporting  MigrationPhase = "importing"
	PhaseValidating MigrationPhase = "validating"
	PhaseComplete   MigrationPhase = "complete"
	PhaseError      MigrationPhase = "error"
)

// Progress is reported to the migration observer at every phase boundary.
type Progress struct {
	Phase   MigrationPhase `json:"phase"`
	Percent int            `json:"percent"`
	Message string         `json:"message"`
}

// ProgressFunc observes migration progress. It is called synchronously.
type ProgressFunc func(Progress)
