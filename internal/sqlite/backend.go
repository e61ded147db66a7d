package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

var _ types.StorageProvider = (*Backend)(nil)

// Backend is the Relational StorageProvider. Writes run in a transaction and,
// once committed, the whole database image is persisted to the host store.
type Backend struct {
	mu          sync.Mutex
	host        hoststore.Store
	engine      string
	key         string
	log         *observability.Logger
	now         func() time.Time
	image       *Image
	initialized bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithEngine selects the SQL engine (types.EngineModernc or types.EngineWASM).
func WithEngine(engine string) Option {
	return func(b *Backend) { b.engine = engine }
}

// WithLogger sets the backend logger.
func WithLogger(l *observability.Logger) Option {
	return func(b *Backend) { b.log = l.Named("sqlite") }
}

// WithClock overrides the clock used for snapshots and row timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithImageKey overrides the host store key holding the database image.
func WithImageKey(key string) Option {
	return func(b *Backend) { b.key = key }
}

// NewBackend creates a Relational backend over host. The backend is not
// initialized; call Initialize before use.
func NewBackend(host hoststore.Store, opts ...Option) *Backend {
	b := &Backend{
		host:   host,
		engine: types.EngineModernc,
		key:    types.KeyRelationalDB,
		log:    observability.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Type implements types.StorageProvider.
func (b *Backend) Type() types.BackendType {
	return types.BackendRelational
}

// Initialize loads the engine and opens the persisted image, creating a fresh
// database when none can be restored. Initialize is idempotent.
func (b *Backend) Initialize(ctx context.Context) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return types.Done()
	}

	image := NewImage(b.host, b.key, b.engine, b.log)
	restored, err := image.Open(ctx, schemaDDL)
	if err != nil {
		b.log.Warn("relational backend unavailable", "engine", b.engine, "error", err)
		return types.Failf[struct{}]("relational backend: %w", err)
	}

	b.image = image
	b.initialized = true
	b.log.Info("relational backend initialized", "engine", b.engine, "restored", restored)
	return types.Done()
}

// IsAvailable reports whether the engine loads.
func (b *Backend) IsAvailable(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return true
	}
	_, err := LoadEngine(b.engine)
	return err == nil
}

// GetItems implements types.StorageProvider.
func (b *Backend) GetItems(ctx context.Context) types.Result[types.ItemCollection] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[types.ItemCollection](types.ErrNotInitialized)
	}
	items, err := selectItems(ctx, b.image.DB())
	if err != nil {
		return types.Fail[types.ItemCollection](err)
	}
	return types.Ok(items)
}

// SetItems replaces every row in one transaction, then persists the image.
func (b *Backend) SetItems(ctx context.Context, items types.ItemCollection) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	if err := items.Validate(); err != nil {
		return types.Fail[struct{}](err)
	}
	return b.write(ctx, "set items", func(tx *sql.Tx) error {
		return replaceItems(ctx, tx, items, b.now())
	})
}

// GetSettings implements types.StorageProvider.
func (b *Backend) GetSettings(ctx context.Context) types.Result[types.Settings] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[types.Settings](types.ErrNotInitialized)
	}
	s, err := selectSettings(ctx, b.image.DB())
	if err != nil {
		return types.Fail[types.Settings](err)
	}
	return types.Ok(s)
}

// SetSettings upserts each settings key in one transaction, then persists.
func (b *Backend) SetSettings(ctx context.Context, settings types.Settings) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	return b.write(ctx, "set settings", func(tx *sql.Tx) error {
		return upsertSettings(ctx, tx, settings)
	})
}

// ExportAll implements types.StorageProvider.
func (b *Backend) ExportAll(ctx context.Context) types.Result[types.Snapshot] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[types.Snapshot](types.ErrNotInitialized)
	}
	db := b.image.DB()
	items, err := selectItems(ctx, db)
	if err != nil {
		return types.Failf[types.Snapshot]("export items: %w", err)
	}
	settings, err := selectSettings(ctx, db)
	if err != nil {
		return types.Failf[types.Snapshot]("export settings: %w", err)
	}
	return types.Ok(types.NewSnapshot(items, settings, b.now()))
}

// ImportAll replaces settings and items in a single transaction.
func (b *Backend) ImportAll(ctx context.Context, snapshot types.Snapshot) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	if err := snapshot.Items.Validate(); err != nil {
		return types.Failf[struct{}]("import: %w", err)
	}
	return b.write(ctx, "import", func(tx *sql.Tx) error {
		if err := upsertSettings(ctx, tx, snapshot.Settings); err != nil {
			return err
		}
		return replaceItems(ctx, tx, snapshot.Items, b.now())
	})
}

// Clear deletes every row and persists the empty image.
func (b *Backend) Clear(ctx context.Context) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	return b.write(ctx, "clear", func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM items",
			"DELETE FROM settings",
			"DELETE FROM metadata WHERE key = '" + metaSkipHistory + "'",
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return nil
	})
}

// write runs fn in a transaction, then persists the image. When the image
// cannot be persisted the live database is reverted to the stored image so
// reads keep matching what is durable. Callers hold b.mu.
func (b *Backend) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) types.Result[struct{}] {
	if err := WithTx(ctx, b.image.DB(), fn); err != nil {
		b.log.Error("transaction rolled back", "op", op, "error", err)
		return types.Failf[struct{}]("%s: %w: %v", op, types.ErrWriteFailed, err)
	}
	if err := b.image.Persist(ctx); err != nil {
		if rerr := b.image.Revert(ctx); rerr != nil {
			b.log.Error("relational backend closed after failed revert", "op", op, "error", rerr)
			b.image = nil
			b.initialized = false
			return types.Failf[struct{}]("%s: %w (%v)", op, err, rerr)
		}
		return types.Failf[struct{}]("%s: %w", op, err)
	}
	return types.Done()
}

// Close persists the image a final time and releases the database.
func (b *Backend) Close(ctx context.Context) types.Result[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return types.Done()
	}
	err := b.image.Close(ctx)
	b.image = nil
	b.initialized = false
	if err != nil {
		return types.Failf[struct{}]("close: %w", err)
	}
	return types.Done()
}

// ImageSize returns the encoded size of the persisted image.
func (b *Backend) ImageSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.image == nil {
		return 0
	}
	return b.image.EncodedSize()
}
