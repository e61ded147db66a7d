package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Image is a SQLite database persisted wholesale as a base64 blob under one
// host store key. The live database sits in a private scratch file used by a
// single connection; Persist copies it out with VACUUM INTO and writes the
// encoded bytes back to the host store.
type Image struct {
	host   hoststore.Store
	key    string
	engine string
	log    *observability.Logger

	ddl   []string
	dir   string
	db    *sql.DB
	seq   atomic.Int64
	bytes int
}

// NewImage describes an image stored under key. Nothing is opened until Open.
func NewImage(host hoststore.Store, key, engine string, log *observability.Logger) *Image {
	if log == nil {
		log = observability.Discard()
	}
	return &Image{host: host, key: key, engine: engine, log: log}
}

// Open loads the persisted image, or creates an empty database when there is
// none or the stored one cannot be decoded or opened, then applies ddl.
// restored reports whether the stored image was used.
func (im *Image) Open(ctx context.Context, ddl []string) (restored bool, err error) {
	if im.db != nil {
		return false, nil
	}
	im.ddl = ddl
	driver, err := LoadEngine(im.engine)
	if err != nil {
		return false, err
	}
	if im.host == nil {
		return false, fmt.Errorf("image %s: %w", im.key, types.ErrStoreUnavailable)
	}

	raw, ok, err := im.host.Get(im.key)
	if err != nil {
		return false, fmt.Errorf("image %s: %w: %v", im.key, types.ErrStoreUnavailable, err)
	}

	dir, err := os.MkdirTemp("", "daybook-db-*")
	if err != nil {
		return false, fmt.Errorf("image %s: scratch dir: %w", im.key, err)
	}
	path := filepath.Join(dir, "live.db")

	var db *sql.DB
	if ok && raw != "" {
		db, err = im.restore(ctx, driver, path, raw, ddl)
		if err != nil {
			im.log.Warn("discarding stored database image", "key", im.key, "error", err)
			_ = os.Remove(path)
			db = nil
		} else {
			restored = true
		}
	}
	if db == nil {
		db, err = openAt(ctx, driver, path)
		if err == nil {
			err = applyDDL(ctx, db, ddl)
		}
		if err != nil {
			if db != nil {
				db.Close()
			}
			os.RemoveAll(dir)
			return false, fmt.Errorf("image %s: create database: %w", im.key, err)
		}
	}

	im.dir = dir
	im.db = db
	im.bytes = len(raw)
	im.log.Debug("database image opened", "key", im.key, "restored", restored, "engine", im.engine)
	return restored, nil
}

func (im *Image) restore(ctx context.Context, driver, path, raw string, ddl []string) (*sql.DB, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", types.ErrMalformedData, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch file: %w", err)
	}
	db, err := openAt(ctx, driver, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedData, err)
	}

	var check string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&check); err != nil || check != "ok" {
		db.Close()
		if err == nil {
			err = errors.New(check)
		}
		return nil, fmt.Errorf("%w: integrity check: %v", types.ErrMalformedData, err)
	}
	if err := applyDDL(ctx, db, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", types.ErrMalformedData, err)
	}
	return db, nil
}

func openAt(ctx context.Context, driver, path string) (*sql.DB, error) {
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, err
	}
	// Single connection: one writer owns the scratch file.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applyDDL(ctx context.Context, db *sql.DB, ddl []string) error {
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// DB returns the live handle, nil before Open or after Close.
func (im *Image) DB() *sql.DB {
	return im.db
}

// Persist serializes the whole database and stores it under the image key.
func (im *Image) Persist(ctx context.Context) error {
	if im.db == nil {
		return types.ErrNotInitialized
	}

	out := filepath.Join(im.dir, fmt.Sprintf("export-%d.db", im.seq.Add(1)))
	defer os.Remove(out)

	if _, err := im.db.ExecContext(ctx, "VACUUM INTO ?", out); err != nil {
		return fmt.Errorf("serialize image: %w: %v", types.ErrWriteFailed, err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return fmt.Errorf("serialize image: %w: %v", types.ErrWriteFailed, err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if err := im.host.Set(im.key, encoded); err != nil {
		im.log.Error("persisting database image failed", "key", im.key, "bytes", len(encoded), "error", err)
		return fmt.Errorf("persist image: %w: %v", types.ErrWriteFailed, err)
	}
	im.bytes = len(encoded)
	return nil
}

// Close persists the image one last time and releases the database. The
// handle is released even when the final persist fails.
func (im *Image) Close(ctx context.Context) error {
	if im.db == nil {
		return nil
	}
	persistErr := im.Persist(ctx)
	closeErr := im.db.Close()
	os.RemoveAll(im.dir)
	im.db = nil
	im.dir = ""
	return errors.Join(persistErr, closeErr)
}

// Revert throws away the live database and reopens it from the image last
// stored under the key. Writes committed locally but never persisted are lost.
// After a failed Revert the image is closed.
func (im *Image) Revert(ctx context.Context) error {
	if im.db == nil {
		return types.ErrNotInitialized
	}
	im.db.Close()
	os.RemoveAll(im.dir)
	im.db = nil
	im.dir = ""
	if _, err := im.Open(ctx, im.ddl); err != nil {
		return fmt.Errorf("revert image %s: %w", im.key, err)
	}
	im.log.Warn("database image reverted to last persisted state", "key", im.key)
	return nil
}

// Discard releases the database without persisting and removes the stored
// image from the host store.
func (im *Image) Discard() error {
	if im.db != nil {
		im.db.Close()
		os.RemoveAll(im.dir)
		im.db = nil
		im.dir = ""
	}
	return im.host.Remove(im.key)
}

// EncodedSize returns the length of the last image read or written.
func (im *Image) EncodedSize() int {
	return im.bytes
}

// WithTx runs fn inside a transaction. Any error rolls the transaction back;
// rollback errors are dropped.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
