package bridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/kvstore"
	"github.com/mesh-intelligence/daybook/internal/manager"
	"github.com/mesh-intelligence/daybook/internal/sqlite"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

const wrappedItems = `{"state":{"items":[{"id":"n1","type":"note","content":"hello","createdAt":"2026-02-01T08:00:00Z"}],"skipHistory":false},"version":2}`

func TestBridge_FallsBackBeforeInitialize(t *testing.T) {
	ctx := context.Background()
	host := hoststore.NewMemoryStore(0)
	m := manager.New(host)
	b := New(m, host)

	require.NoError(t, b.SetItem(ctx, types.KeyItems, wrappedItems))
	raw, ok, err := host.Get(types.KeyItems)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wrappedItems, raw)

	got, ok, err := b.GetItem(ctx, types.KeyItems)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wrappedItems, got)

	// The value written in the boot window is readable once storage is up.
	require.True(t, m.Initialize(ctx).Success)
	defer m.Close(ctx)
	p, err := m.Storage()
	require.NoError(t, err)
	items := p.GetItems(ctx)
	require.True(t, items.Success, items.Error)
	assert.Equal(t, []string{"n1"}, items.Data.IDs())
}

func TestBridge_RoutesToActiveBackend(t *testing.T) {
	ctx := context.Background()
	host := hoststore.NewMemoryStore(0)
	m := manager.New(host)
	require.True(t, m.Initialize(ctx).Success)
	defer m.Close(ctx)
	require.True(t, m.Migrate(ctx, types.BackendRelational, nil).Success)

	b := New(m, host)
	require.NoError(t, b.SetItem(ctx, types.KeyItems, wrappedItems))

	// The relational backend holds the data; the key-value blob is untouched.
	_, ok, err := host.Get(types.KeyItems)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Positive(t, host.Size(types.KeyRelationalDB))

	got, ok, err := b.GetItem(ctx, types.KeyItems)
	require.NoError(t, err)
	require.True(t, ok)

	var env kvstore.Envelope
	require.NoError(t, json.Unmarshal([]byte(got), &env))
	assert.Equal(t, 2, env.Version)
	items, err := kvstore.DecodeItems(env.State)
	require.NoError(t, err)
	require.Len(t, items.Items, 1)
	assert.Equal(t, "hello", items.Items[0].Payload["content"])
}

func TestBridge_SettingsBareValue(t *testing.T) {
	ctx := context.Background()
	host := hoststore.NewMemoryStore(0)
	m := manager.New(host, manager.WithRelationalBackend(sqlite.NewBackend(host)))
	require.True(t, m.Initialize(ctx).Success)
	defer m.Close(ctx)

	b := New(m, host)
	require.NoError(t, b.SetItem(ctx, types.KeySettings, `{"theme":"dark","timeFormat":"24h"}`))

	got, ok, err := b.GetItem(ctx, types.KeySettings)
	require.NoError(t, err)
	require.True(t, ok)
	s, err := kvstore.DecodeSettings([]byte(got))
	require.NoError(t, err)
	assert.Equal(t, "dark", s.Theme)
	assert.Equal(t, "24h", s.TimeFormat)
	assert.Equal(t, types.DefaultViewMode, s.ViewMode)
}

func TestBridge_RemoveRoutedWritesDefaults(t *testing.T) {
	ctx := context.Background()
	host := hoststore.NewMemoryStore(0)
	m := manager.New(host)
	require.True(t, m.Initialize(ctx).Success)
	defer m.Close(ctx)

	b := New(m, host)
	require.NoError(t, b.SetItem(ctx, types.KeyItems, wrappedItems))
	require.NoError(t, b.SetItem(ctx, types.KeySettings, `{"theme":"dark"}`))
	require.NoError(t, b.RemoveItem(ctx, types.KeyItems))
	require.NoError(t, b.RemoveItem(ctx, types.KeySettings))

	p, err := m.Storage()
	require.NoError(t, err)
	assert.Empty(t, p.GetItems(ctx).Data.Items)
	assert.Equal(t, types.DefaultSettings(), p.GetSettings(ctx).Data)
}

func TestBridge_OtherNamesUseHostStore(t *testing.T) {
	ctx := context.Background()
	host := hoststore.NewMemoryStore(0)
	m := manager.New(host)
	require.True(t, m.Initialize(ctx).Success)
	defer m.Close(ctx)

	b := New(m, host)
	require.NoError(t, b.SetItem(ctx, "daybook-ui", `{"state":{"sidebar":true},"version":0}`))
	raw, ok, err := host.Get("daybook-ui")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "sidebar")

	require.NoError(t, b.RemoveItem(ctx, "daybook-ui"))
	_, ok, err = b.GetItem(ctx, "daybook-ui")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBridge_MalformedValueIsError(t *testing.T) {
	ctx := context.Background()
	host := hoststore.NewMemoryStore(0)
	m := manager.New(host)
	require.True(t, m.Initialize(ctx).Success)
	defer m.Close(ctx)

	b := New(m, host)
	err := b.SetItem(ctx, types.KeyItems, `{"state":{"items":[`)
	assert.ErrorIs(t, err, types.ErrMalformedData)
}
