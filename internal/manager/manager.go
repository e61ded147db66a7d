// Package manager owns the two storage backends, decides which one is
// authoritative, and moves data between them.
package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/kvstore"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/internal/sqlite"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Manager selects the active backend and runs migrations. Construct one per
// process with New and publish it with SetDefault.
type Manager struct {
	mu     sync.RWMutex
	host   hoststore.Store
	kv     types.StorageProvider
	rel    types.StorageProvider
	active types.StorageProvider
	ready  map[types.BackendType]bool

	migrating atomic.Bool

	log    *observability.Logger
	now    func() time.Time
	engine string
}

// Option configures a Manager.
type Option func(*Manager)

// WithKeyValueBackend replaces the Key-Value backend.
func WithKeyValueBackend(p types.StorageProvider) Option {
	return func(m *Manager) { m.kv = p }
}

// WithRelationalBackend replaces the Relational backend.
func WithRelationalBackend(p types.StorageProvider) Option {
	return func(m *Manager) { m.rel = p }
}

// WithLogger sets the logger for the manager and the backends it builds.
func WithLogger(l *observability.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock overrides the clock for metadata timestamps and backends.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithEngine selects the SQL engine of the default Relational backend.
func WithEngine(engine string) Option {
	return func(m *Manager) { m.engine = engine }
}

// New builds a Manager over host. Both backends are constructed but neither
// is initialized until Initialize.
func New(host hoststore.Store, opts ...Option) *Manager {
	m := &Manager{
		host:   host,
		ready:  make(map[types.BackendType]bool),
		log:    observability.Discard(),
		now:    time.Now,
		engine: types.EngineModernc,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.kv == nil {
		m.kv = kvstore.NewBackend(host, kvstore.WithLogger(m.log), kvstore.WithClock(m.now))
	}
	if m.rel == nil {
		m.rel = sqlite.NewBackend(host,
			sqlite.WithEngine(m.engine),
			sqlite.WithLogger(m.log),
			sqlite.WithClock(m.now))
	}
	m.log = m.log.Named("manager")
	return m
}

var defaultManager atomic.Pointer[Manager]

// Default returns the process-wide Manager, or nil before SetDefault.
func Default() *Manager {
	return defaultManager.Load()
}

// SetDefault publishes m as the process-wide Manager.
func SetDefault(m *Manager) {
	defaultManager.Store(m)
}

// Initialize activates the backend named in the stored metadata. When that is
// the Relational backend and it cannot start, the Key-Value backend is used
// instead and the corrected metadata is written back. Initialize is
// idempotent.
func (m *Manager) Initialize(ctx context.Context) types.Result[types.BackendType] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return types.Ok(m.active.Type())
	}
	return m.initializeLocked(ctx)
}

func (m *Manager) initializeLocked(ctx context.Context) types.Result[types.BackendType] {
	meta := m.readMetadata()
	intended := m.backend(meta.ActiveBackend)

	err := m.ensureReadyLocked(ctx, intended)
	if err == nil {
		m.active = intended
		m.log.Info("storage initialized", "backend", intended.Type())
		return types.Ok(intended.Type())
	}
	if intended.Type() != types.BackendRelational {
		m.log.Error("storage unavailable", "backend", intended.Type(), "error", err)
		return types.Failf[types.BackendType]("initialize %s: %w", intended.Type(), err)
	}

	m.log.Warn("relational backend failed, falling back to key-value", "error", err)
	backendFallbacks.Inc()
	if kvErr := m.ensureReadyLocked(ctx, m.kv); kvErr != nil {
		m.log.Error("storage unavailable", "backend", m.kv.Type(), "error", kvErr)
		return types.Failf[types.BackendType]("initialize fallback: %w", errors.Join(err, kvErr))
	}
	m.active = m.kv

	corrected := types.DefaultBackendMetadata()
	corrected.LastMigrationTimestamp = meta.LastMigrationTimestamp
	if werr := m.writeMetadata(corrected); werr != nil {
		m.log.Warn("could not persist corrected backend metadata", "error", werr)
	}
	return types.Ok(m.kv.Type())
}

// ensureReadyLocked initializes p once. Callers hold m.mu.
func (m *Manager) ensureReadyLocked(ctx context.Context, p types.StorageProvider) error {
	if m.ready[p.Type()] {
		return nil
	}
	if err := p.Initialize(ctx).Err(); err != nil {
		return err
	}
	m.ready[p.Type()] = true
	return nil
}

func (m *Manager) ensureReady(ctx context.Context, p types.StorageProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureReadyLocked(ctx, p)
}

func (m *Manager) backend(bt types.BackendType) types.StorageProvider {
	if bt == types.BackendRelational {
		return m.rel
	}
	return m.kv
}

// Storage returns the active backend, or ErrManagerNotInitialized before
// Initialize has succeeded.
func (m *Manager) Storage() (types.StorageProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil, types.ErrManagerNotInitialized
	}
	return m.active, nil
}

// ActiveBackendType names the active backend. Before initialization it is
// the backend the stored metadata points at.
func (m *Manager) ActiveBackendType() types.BackendType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active != nil {
		return m.active.Type()
	}
	return m.readMetadata().ActiveBackend
}

// Reset clears both backends, points the metadata back at Key-Value and
// initializes again. No migration can start while a reset runs.
func (m *Manager) Reset(ctx context.Context) types.Result[types.BackendType] {
	if !m.migrating.CompareAndSwap(false, true) {
		return types.Fail[types.BackendType](types.ErrMigrationInProgress)
	}
	defer m.migrating.Store(false)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range []types.StorageProvider{m.kv, m.rel} {
		if err := m.ensureReadyLocked(ctx, p); err != nil {
			if p.Type() == types.BackendRelational {
				m.log.Warn("relational backend unavailable during reset, dropping its image", "error", err)
				if rerr := m.host.Remove(types.KeyRelationalDB); rerr != nil {
					return types.Failf[types.BackendType]("reset: %w", rerr)
				}
				continue
			}
			return types.Failf[types.BackendType]("reset: %w", err)
		}
		if res := p.Clear(ctx); !res.Success {
			return types.Failf[types.BackendType]("reset %s: %w", p.Type(), res.Err())
		}
	}
	if err := m.writeMetadata(types.DefaultBackendMetadata()); err != nil {
		return types.Failf[types.BackendType]("reset: %w", err)
	}

	m.active = nil
	m.log.Info("storage reset")
	return m.initializeLocked(ctx)
}

// Close closes every initialized backend.
func (m *Manager) Close(ctx context.Context) types.Result[struct{}] {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, p := range []types.StorageProvider{m.kv, m.rel} {
		if !m.ready[p.Type()] {
			continue
		}
		if err := p.Close(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.Type(), err))
		}
		delete(m.ready, p.Type())
	}
	m.active = nil
	if err := errors.Join(errs...); err != nil {
		return types.Fail[struct{}](err)
	}
	return types.Done()
}

// readMetadata returns the stored metadata. Missing, unreadable or malformed
// metadata yields the Key-Value default.
func (m *Manager) readMetadata() types.BackendMetadata {
	raw, ok, err := m.host.Get(types.KeyMetadata)
	if err != nil {
		m.log.Warn("reading backend metadata", "error", err)
		return types.DefaultBackendMetadata()
	}
	if !ok || raw == "" {
		return types.DefaultBackendMetadata()
	}
	var meta types.BackendMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil || !meta.ActiveBackend.Valid() {
		m.log.Warn("ignoring malformed backend metadata", "error", err, "value", raw)
		return types.DefaultBackendMetadata()
	}
	return meta
}

func (m *Manager) writeMetadata(meta types.BackendMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := m.host.Set(types.KeyMetadata, string(data)); err != nil {
		return fmt.Errorf("persist backend metadata: %w: %v", types.ErrWriteFailed, err)
	}
	return nil
}
