// Package initializer boots the storage core: it initializes the Manager,
// rehydrates the reactive containers and wires their changes back through the
// bridge.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/daybook/internal/manager"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/internal/state"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Container is a reactive state container the Initializer keeps in sync.
type Container interface {
	Name() string
	Rehydrate(ctx context.Context) error
	Subscribe(l state.Listener) func()
}

// Writer persists a container's complete value.
type Writer interface {
	SetItem(ctx context.Context, name, value string) error
}

// Initializer owns the boot sequence and the write-through subscriptions.
type Initializer struct {
	mgr        *manager.Manager
	writer     Writer
	containers []Container
	log        *observability.Logger

	mu     sync.Mutex
	unsubs []func()
}

// New creates an Initializer. writer is normally the bridge.
func New(mgr *manager.Manager, writer Writer, containers ...Container) *Initializer {
	return &Initializer{
		mgr:        mgr,
		writer:     writer,
		containers: containers,
		log:        observability.Discard(),
	}
}

// SetLogger sets the logger.
func (in *Initializer) SetLogger(l *observability.Logger) {
	in.log = l.Named("initializer")
}

// Start initializes the Manager, loads every container from the active
// backend and subscribes each one so that changes are written through.
func (in *Initializer) Start(ctx context.Context) error {
	res := in.mgr.Initialize(ctx)
	if !res.Success {
		return fmt.Errorf("initialize storage: %w", res.Err())
	}
	in.log.Info("storage ready", "backend", res.Data)

	if err := in.rehydrate(ctx); err != nil {
		return err
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	for _, c := range in.containers {
		in.unsubs = append(in.unsubs, c.Subscribe(in.writeThrough))
	}
	return nil
}

func (in *Initializer) writeThrough(name, value string) {
	if err := in.writer.SetItem(context.Background(), name, value); err != nil {
		in.log.Error("persisting state failed", "name", name, "error", err)
	}
}

func (in *Initializer) rehydrate(ctx context.Context) error {
	var errs []error
	for _, c := range in.containers {
		if err := c.Rehydrate(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Migrate runs a Manager migration and, when it succeeds, reloads every
// container from the newly active backend.
func (in *Initializer) Migrate(ctx context.Context, target types.BackendType, onProgress types.ProgressFunc) types.Result[manager.MigrationReport] {
	res := in.mgr.Migrate(ctx, target, onProgress)
	if !res.Success {
		return res
	}
	if err := in.rehydrate(ctx); err != nil {
		in.log.Warn("rehydrate after migration", "error", err)
	}
	return res
}

// Stop removes the write-through subscriptions.
func (in *Initializer) Stop() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, unsub := range in.unsubs {
		unsub()
	}
	in.unsubs = nil
}
