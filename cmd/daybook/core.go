package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/daybook/internal/authdb"
	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/manager"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/internal/paths"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// core is the storage stack assembled from a Config.
type core struct {
	host   hoststore.Store
	closer io.Closer
	log    *observability.Logger
	mgr    *manager.Manager
	auth   *authdb.Store
}

// openCore opens the host store and initializes the Manager. The auth
// datastore is built but only initialized by the auth commands.
func openCore(ctx context.Context, cfg types.Config, logOut io.Writer) (*core, error) {
	log := observability.NewLogger("daybook", logOut, observability.ParseLevel(cfg.LogLevel))

	c := &core{log: log}
	switch cfg.HostStore {
	case types.HostStoreMemory:
		c.host = hoststore.NewMemoryStore(cfg.CapacityBytes)
	default:
		dir := paths.HostStoreDir(cfg.DataDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, systemErr("create data dir: %w", err)
		}
		store, err := hoststore.OpenBadger(dir, cfg.CapacityBytes)
		if err != nil {
			return nil, systemErr("open host store: %w", err)
		}
		c.host, c.closer = store, store
	}

	c.mgr = manager.New(c.host, manager.WithLogger(log), manager.WithEngine(cfg.Engine))
	c.auth = authdb.New(c.host, authdb.WithLogger(log), authdb.WithEngine(cfg.Engine))

	res := c.mgr.Initialize(ctx)
	if !res.Success {
		c.Close(ctx)
		return nil, systemErr("initialize storage: %s", res.Error)
	}
	manager.SetDefault(c.mgr)
	return c, nil
}

// Close flushes the backends and the auth datastore and closes the host store.
func (c *core) Close(ctx context.Context) error {
	var errs []error
	if err := c.mgr.Close(ctx).Err(); err != nil {
		errs = append(errs, err)
	}
	if err := c.auth.Close(ctx).Err(); err != nil {
		errs = append(errs, fmt.Errorf("auth datastore: %w", err))
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
