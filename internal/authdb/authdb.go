// Package authdb is the authentication datastore. It keeps users and
// sessions in an embedded SQLite database persisted as one blob under
// types.KeyAuthDB, the same way the Relational backend persists app data.
package authdb

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/internal/sqlite"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// SnapshotVersion is stamped on every AuthSnapshot.
const SnapshotVersion = 1

// Errors returned by the auth datastore.
var (
	ErrInvalidUser    = errors.New("user requires id and email")
	ErrInvalidSession = errors.New("session requires token and user id")
)

// User is an account record. Password hashing happens outside this package.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is an issued session token.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthSnapshot is the export/import unit of the datastore.
type AuthSnapshot struct {
	Users     []User    `json:"users"`
	Sessions  []Session `json:"sessions"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
}

// Store is the authentication datastore.
type Store struct {
	mu     sync.Mutex
	host   hoststore.Store
	engine string
	log    *observability.Logger
	now    func() time.Time
	image  *sqlite.Image
}

// Option configures a Store.
type Option func(*Store)

// WithEngine selects the SQL engine.
func WithEngine(engine string) Option {
	return func(s *Store) { s.engine = engine }
}

// WithLogger sets the store logger.
func WithLogger(l *observability.Logger) Option {
	return func(s *Store) { s.log = l.Named("authdb") }
}

// WithClock overrides the clock used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an uninitialized auth datastore over host.
func New(host hoststore.Store, opts ...Option) *Store {
	s := &Store{
		host:   host,
		engine: types.EngineModernc,
		log:    observability.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize opens the persisted image or starts an empty one.
func (s *Store) Initialize(ctx context.Context) types.Result[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image != nil {
		return types.Done()
	}
	image := sqlite.NewImage(s.host, types.KeyAuthDB, s.engine, s.log)
	restored, err := image.Open(ctx, schemaDDL)
	if err != nil {
		return types.Failf[struct{}]("auth datastore: %w", err)
	}
	s.image = image
	s.log.Info("auth datastore initialized", "restored", restored)
	return types.Done()
}

// GetUsers returns every user ordered by creation time.
func (s *Store) GetUsers(ctx context.Context) types.Result[[]User] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return types.Fail[[]User](types.ErrNotInitialized)
	}
	users, err := selectUsers(ctx, s.image.DB())
	if err != nil {
		return types.Fail[[]User](err)
	}
	return types.Ok(users)
}

// SetUsers replaces the users table.
func (s *Store) SetUsers(ctx context.Context, users []User) types.Result[struct{}] {
	return s.write(ctx, "set users", func(tx *sql.Tx) error {
		return replaceUsers(ctx, tx, users)
	})
}

// GetSessions returns every session ordered by creation time.
func (s *Store) GetSessions(ctx context.Context) types.Result[[]Session] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return types.Fail[[]Session](types.ErrNotInitialized)
	}
	sessions, err := selectSessions(ctx, s.image.DB())
	if err != nil {
		return types.Fail[[]Session](err)
	}
	return types.Ok(sessions)
}

// SetSessions replaces the sessions table.
func (s *Store) SetSessions(ctx context.Context, sessions []Session) types.Result[struct{}] {
	return s.write(ctx, "set sessions", func(tx *sql.Tx) error {
		return replaceSessions(ctx, tx, sessions)
	})
}

// ExportAll reads both tables into a snapshot.
func (s *Store) ExportAll(ctx context.Context) types.Result[AuthSnapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return types.Fail[AuthSnapshot](types.ErrNotInitialized)
	}
	db := s.image.DB()
	users, err := selectUsers(ctx, db)
	if err != nil {
		return types.Failf[AuthSnapshot]("export users: %w", err)
	}
	sessions, err := selectSessions(ctx, db)
	if err != nil {
		return types.Failf[AuthSnapshot]("export sessions: %w", err)
	}
	return types.Ok(AuthSnapshot{
		Users:     users,
		Sessions:  sessions,
		Timestamp: s.now(),
		Version:   SnapshotVersion,
	})
}

// ImportAll replaces both tables in one transaction.
func (s *Store) ImportAll(ctx context.Context, snap AuthSnapshot) types.Result[struct{}] {
	return s.write(ctx, "import", func(tx *sql.Tx) error {
		if err := replaceUsers(ctx, tx, snap.Users); err != nil {
			return err
		}
		return replaceSessions(ctx, tx, snap.Sessions)
	})
}

// Clear deletes every user and session.
func (s *Store) Clear(ctx context.Context) types.Result[struct{}] {
	return s.write(ctx, "clear", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM users")
		return err
	})
}

// Close persists the image and releases the database.
func (s *Store) Close(ctx context.Context) types.Result[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return types.Done()
	}
	err := s.image.Close(ctx)
	s.image = nil
	if err != nil {
		return types.Failf[struct{}]("close auth datastore: %w", err)
	}
	return types.Done()
}

func (s *Store) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) types.Result[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return types.Fail[struct{}](types.ErrNotInitialized)
	}
	if err := sqlite.WithTx(ctx, s.image.DB(), fn); err != nil {
		s.log.Error("auth transaction rolled back", "op", op, "error", err)
		return types.Failf[struct{}]("%s: %w", op, err)
	}
	if err := s.image.Persist(ctx); err != nil {
		if rerr := s.image.Revert(ctx); rerr != nil {
			s.log.Error("auth datastore closed after failed revert", "op", op, "error", rerr)
			s.image = nil
			return types.Failf[struct{}]("%s: %w (%v)", op, err, rerr)
		}
		return types.Failf[struct{}]("%s: %w", op, err)
	}
	return types.Done()
}
