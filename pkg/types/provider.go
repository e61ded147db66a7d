package types

import (
	"context"
	"errors"
)

// StorageProvider is the contract every backend implements. All operations
// may block on I/O or engine warm-up and all of them report failure through
// the returned Result rather than an error value.
type StorageProvider interface {
	// Type names the backend.
	Type() BackendType

	// Initialize prepares the backend for use. It fails fast with a
	// descriptive error when the backend cannot run in this environment.
	Initialize(ctx context.Context) Result[struct{}]

	// IsAvailable reports whether the backend can currently be used.
	IsAvailable(ctx context.Context) bool

	// GetItems returns the stored collection, or an empty one if nothing is stored.
	GetItems(ctx context.Context) Result[ItemCollection]

	// SetItems replaces the whole collection.
	SetItems(ctx context.Context, items ItemCollection) Result[struct{}]

	// GetSettings returns the stored settings, or the defaults.
	GetSettings(ctx context.Context) Result[Settings]

	// SetSettings replaces the settings record.
	SetSettings(ctx context.Context, settings Settings) Result[struct{}]

	// ExportAll reads the backend's complete state into one Snapshot.
	ExportAll(ctx context.Context) Result[Snapshot]

	// ImportAll replaces the backend's state with the snapshot contents.
	ImportAll(ctx context.Context, snapshot Snapshot) Result[struct{}]

	// Clear removes all stored data; subsequent reads return defaults.
	Clear(ctx context.Context) Result[struct{}]

	// Close flushes pending state to the durable store and releases resources.
	Close(ctx context.Context) Result[struct{}]
}

// Unavailable backend errors.
var (
	ErrStoreUnavailable  = errors.New("host storage is unavailable")
	ErrEngineUnavailable = errors.New("relational engine failed to load")
)

// Stored data errors.
var (
	ErrMalformedData = errors.New("stored data is malformed")
	ErrInvalidID     = errors.New("item id must not be empty")
	ErrDuplicateID   = errors.New("duplicate item id")
	ErrReservedField = errors.New("payload uses a reserved field name")
)

// Write errors.
var (
	ErrWriteFailed = errors.New("write failed")
)

// Lifecycle and migration errors.
var (
	ErrNotInitialized        = errors.New("backend is not initialized")
	ErrManagerNotInitialized = errors.New("storage manager is not initialized")
	ErrMigrationInProgress   = errors.New("a migration is already in progress")
	ErrValidationMismatch    = errors.New("migration validation failed")
	ErrUnknownBackend        = errors.New("unknown backend")
)
