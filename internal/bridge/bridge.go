// Package bridge exposes get/set/remove of named blobs on top of the active
// storage backend, so reactive state containers never see which backend is
// in use.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/kvstore"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// ProviderSource yields the active backend. The Manager satisfies it.
type ProviderSource interface {
	Storage() (types.StorageProvider, error)
}

// Bridge routes the items and settings blobs to the active backend and every
// other name to the host store. While the source has no backend (before the
// Manager is initialized) all names go to the host store.
type Bridge struct {
	source ProviderSource
	host   hoststore.Store
	log    *observability.Logger

	mu       sync.Mutex
	versions map[string]int
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l *observability.Logger) Option {
	return func(b *Bridge) { b.log = l.Named("bridge") }
}

// New creates a Bridge.
func New(source ProviderSource, host hoststore.Store, opts ...Option) *Bridge {
	b := &Bridge{
		source:   source,
		host:     host,
		log:      observability.Discard(),
		versions: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func routed(name string) bool {
	return name == types.KeyItems || name == types.KeySettings
}

// provider returns the active backend for routed names, or nil when the
// host store should be used.
func (b *Bridge) provider(name string) types.StorageProvider {
	if !routed(name) {
		return nil
	}
	p, err := b.source.Storage()
	if err != nil {
		b.log.Debug("storage not ready, using host store", "name", name, "error", err)
		return nil
	}
	return p
}

// GetItem returns the stored value for name. Routed names come back in the
// {state, version} wrapper.
func (b *Bridge) GetItem(ctx context.Context, name string) (string, bool, error) {
	p := b.provider(name)
	if p == nil {
		return b.host.Get(name)
	}

	var state any
	switch name {
	case types.KeyItems:
		res := p.GetItems(ctx)
		if !res.Success {
			return "", false, res.Err()
		}
		state = res.Data
	default:
		res := p.GetSettings(ctx)
		if !res.Success {
			return "", false, res.Err()
		}
		state = res.Data
	}

	data, err := kvstore.Wrap(state, b.version(name))
	if err != nil {
		return "", false, fmt.Errorf("encode %s: %w", name, err)
	}
	return string(data), true, nil
}

// SetItem stores value under name. Routed names accept the wrapper or the
// bare state and replace the whole collection.
func (b *Bridge) SetItem(ctx context.Context, name, value string) error {
	p := b.provider(name)
	if p == nil {
		return b.host.Set(name, value)
	}
	b.rememberVersion(name, value)

	switch name {
	case types.KeyItems:
		items, err := kvstore.DecodeItems([]byte(value))
		if err != nil {
			return err
		}
		return p.SetItems(ctx, items).Err()
	default:
		settings, err := kvstore.DecodeSettings([]byte(value))
		if err != nil {
			return err
		}
		return p.SetSettings(ctx, settings).Err()
	}
}

// RemoveItem deletes name. Routed names are reset to their defaults.
func (b *Bridge) RemoveItem(ctx context.Context, name string) error {
	p := b.provider(name)
	if p == nil {
		return b.host.Remove(name)
	}
	if name == types.KeyItems {
		return p.SetItems(ctx, types.EmptyItems()).Err()
	}
	return p.SetSettings(ctx, types.DefaultSettings()).Err()
}

func (b *Bridge) version(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.versions[name]
}

// rememberVersion keeps the container version from a wrapped value so reads
// hand it back unchanged.
func (b *Bridge) rememberVersion(name, value string) {
	var env kvstore.Envelope
	if err := json.Unmarshal([]byte(value), &env); err != nil || env.State == nil {
		return
	}
	b.mu.Lock()
	b.versions[name] = env.Version
	b.mu.Unlock()
}
