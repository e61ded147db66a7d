// Package kvstore implements the Key-Value storage backend: settings and the
// item collection each live as one JSON blob under a fixed host store key and
// are always written whole.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

var _ types.StorageProvider = (*Backend)(nil)

// Backend is the Key-Value StorageProvider.
type Backend struct {
	mu          sync.Mutex
	host        hoststore.Store
	log         *observability.Logger
	now         func() time.Time
	initialized bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(l *observability.Logger) Option {
	return func(b *Backend) { b.log = l.Named("kvstore") }
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a Key-Value backend over host. The backend is not
// initialized; call Initialize before use.
func NewBackend(host hoststore.Store, opts ...Option) *Backend {
	b := &Backend{host: host, log: observability.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Type implements types.StorageProvider.
func (b *Backend) Type() types.BackendType {
	return types.BackendKeyValue
}

// Initialize probes that the host store is writable by writing and removing a
// sentinel key.
func (b *Backend) Initialize(ctx context.Context) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.probe(); err != nil {
		b.log.Warn("host store probe failed", "error", err)
		return types.Fail[struct{}](err)
	}
	b.initialized = true
	return types.Done()
}

// IsAvailable implements types.StorageProvider.
func (b *Backend) IsAvailable(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.probe() == nil
}

func (b *Backend) probe() error {
	if b.host == nil {
		return fmt.Errorf("key-value backend: %w", types.ErrStoreUnavailable)
	}
	if err := b.host.Set(types.KeyProbeSentinel, "1"); err != nil {
		return fmt.Errorf("key-value backend: %w: %v", types.ErrStoreUnavailable, err)
	}
	if err := b.host.Remove(types.KeyProbeSentinel); err != nil {
		return fmt.Errorf("key-value backend: %w: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

// GetItems implements types.StorageProvider.
func (b *Backend) GetItems(ctx context.Context) types.Result[types.ItemCollection] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[types.ItemCollection](types.ErrNotInitialized)
	}
	items, err := b.readItems()
	if err != nil {
		return types.Fail[types.ItemCollection](err)
	}
	return types.Ok(items)
}

// SetItems implements types.StorageProvider.
func (b *Backend) SetItems(ctx context.Context, items types.ItemCollection) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	if err := b.writeItems(items); err != nil {
		return types.Fail[struct{}](err)
	}
	return types.Done()
}

// GetSettings implements types.StorageProvider.
func (b *Backend) GetSettings(ctx context.Context) types.Result[types.Settings] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[types.Settings](types.ErrNotInitialized)
	}
	s, err := b.readSettings()
	if err != nil {
		return types.Fail[types.Settings](err)
	}
	return types.Ok(s)
}

// SetSettings implements types.StorageProvider.
func (b *Backend) SetSettings(ctx context.Context, settings types.Settings) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	if err := b.writeSettings(settings); err != nil {
		return types.Fail[struct{}](err)
	}
	return types.Done()
}

// ExportAll reads both blobs under one lock so the snapshot is consistent.
func (b *Backend) ExportAll(ctx context.Context) types.Result[types.Snapshot] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[types.Snapshot](types.ErrNotInitialized)
	}
	items, err := b.readItems()
	if err != nil {
		return types.Failf[types.Snapshot]("export items: %w", err)
	}
	settings, err := b.readSettings()
	if err != nil {
		return types.Failf[types.Snapshot]("export settings: %w", err)
	}
	return types.Ok(types.NewSnapshot(items, settings, b.now()))
}

// ImportAll writes settings, then items.
func (b *Backend) ImportAll(ctx context.Context, snapshot types.Snapshot) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	if err := b.writeSettings(snapshot.Settings); err != nil {
		return types.Failf[struct{}]("import settings: %w", err)
	}
	if err := b.writeItems(snapshot.Items); err != nil {
		return types.Failf[struct{}]("import items: %w", err)
	}
	return types.Done()
}

// Clear removes both blobs.
func (b *Backend) Clear(ctx context.Context) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	err := errors.Join(b.host.Remove(types.KeyItems), b.host.Remove(types.KeySettings))
	if err != nil {
		return types.Failf[struct{}]("clear: %w: %v", types.ErrWriteFailed, err)
	}
	return types.Done()
}

// Close implements types.StorageProvider. Every write already reached the
// host store, so there is nothing to flush.
func (b *Backend) Close(ctx context.Context) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	return types.Done()
}

func (b *Backend) readItems() (types.ItemCollection, error) {
	raw, ok, err := b.host.Get(types.KeyItems)
	if err != nil {
		return types.ItemCollection{}, fmt.Errorf("read items: %w: %v", types.ErrStoreUnavailable, err)
	}
	if !ok || raw == "" {
		return types.EmptyItems(), nil
	}
	items, err := DecodeItems([]byte(raw))
	if err != nil {
		b.log.Error("items blob is malformed", "error", err)
		return types.ItemCollection{}, err
	}
	return items, nil
}

func (b *Backend) writeItems(items types.ItemCollection) error {
	if err := items.Validate(); err != nil {
		return err
	}
	data, err := EncodeItems(items)
	if err != nil {
		return err
	}
	if err := b.host.Set(types.KeyItems, string(data)); err != nil {
		b.log.Error("items write failed", "error", err, "bytes", len(data))
		return fmt.Errorf("write items: %w: %v", types.ErrWriteFailed, err)
	}
	return nil
}

func (b *Backend) readSettings() (types.Settings, error) {
	raw, ok, err := b.host.Get(types.KeySettings)
	if err != nil {
		return types.Settings{}, fmt.Errorf("read settings: %w: %v", types.ErrStoreUnavailable, err)
	}
	if !ok || raw == "" {
		return types.DefaultSettings(), nil
	}
	s, err := DecodeSettings([]byte(raw))
	if err != nil {
		b.log.Error("settings blob is malformed", "error", err)
		return types.Settings{}, err
	}
	return s, nil
}

func (b *Backend) writeSettings(s types.Settings) error {
	data, err := EncodeSettings(s)
	if err != nil {
		return err
	}
	if err := b.host.Set(types.KeySettings, string(data)); err != nil {
		b.log.Error("settings write failed", "error", err)
		return fmt.Errorf("write settings: %w: %v", types.ErrWriteFailed, err)
	}
	return nil
}
