package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
	"github.com/mesh-intelligence/daybook/internal/hoststore/hoststoretest"
	"github.com/mesh-intelligence/daybook/internal/kvstore"
	"github.com/mesh-intelligence/daybook/internal/providertest"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

func TestBackend_Contract(t *testing.T) {
	for _, engine := range []string{types.EngineModernc, types.EngineWASM} {
		t.Run(engine, func(t *testing.T) {
			providertest.Run(t, func(t *testing.T) types.StorageProvider {
				return NewBackend(hoststore.NewMemoryStore(0), WithEngine(engine))
			})
		})
	}
}

func TestBackend_ImageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	host := hoststore.NewMemoryStore(0)

	first := NewBackend(host)
	require.True(t, first.Initialize(ctx).Success)
	want := providertest.SampleItems(4)
	want.SkipHistory = true
	require.True(t, first.SetItems(ctx, want).Success)
	require.True(t, first.SetSettings(ctx, types.Settings{Theme: "dark"}.WithDefaults()).Success)
	assert.Positive(t, first.ImageSize())

	// A second backend over the same host store sees the persisted image
	// without the first one being closed.
	second := NewBackend(host)
	require.True(t, second.Initialize(ctx).Success)
	defer second.Close(ctx)

	got := second.GetItems(ctx)
	require.True(t, got.Success, got.Error)
	providertest.AssertSameItems(t, want, got.Data)
	assert.True(t, got.Data.SkipHistory)

	settings := second.GetSettings(ctx)
	require.True(t, settings.Success, settings.Error)
	assert.Equal(t, "dark", settings.Data.Theme)

	require.True(t, first.Close(ctx).Success)
}

func TestBackend_CorruptImageStartsFresh(t *testing.T) {
	ctx := context.Background()
	for name, blob := range map[string]string{
		"not base64":     "%%%not-base64%%%",
		"not a database": "aGVsbG8gd29ybGQ=",
	} {
		t.Run(name, func(t *testing.T) {
			host := hoststore.NewMemoryStore(0)
			require.NoError(t, host.Set(types.KeyRelationalDB, blob))

			b := NewBackend(host)
			res := b.Initialize(ctx)
			require.True(t, res.Success, res.Error)
			defer b.Close(ctx)

			items := b.GetItems(ctx)
			require.True(t, items.Success, items.Error)
			assert.Empty(t, items.Data.Items)
		})
	}
}

func TestBackend_PersistFailureIsWriteFailed(t *testing.T) {
	ctx := context.Background()
	host := hoststoretest.NewFaulty(nil)

	b := NewBackend(host)
	require.True(t, b.Initialize(ctx).Success)
	defer b.Close(ctx)

	host.FailSets(true, types.KeyRelationalDB)
	res := b.SetItems(ctx, providertest.SampleItems(2))
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err(), types.ErrWriteFailed)
	assert.Zero(t, host.SetCount(types.KeyRelationalDB))
	host.FailSets(false, "")
}

func TestBackend_FailedPersistKeepsStoredState(t *testing.T) {
	ctx := context.Background()
	host := hoststoretest.NewFaulty(nil)
	b := NewBackend(host)
	require.True(t, b.Initialize(ctx).Success)
	defer b.Close(ctx)

	before := providertest.SampleItems(2)
	require.True(t, b.SetItems(ctx, before).Success)
	require.True(t, b.SetSettings(ctx, types.Settings{Theme: "dark"}.WithDefaults()).Success)

	host.FailSets(true, types.KeyRelationalDB)
	assert.False(t, b.SetItems(ctx, providertest.SampleItems(5)).Success)
	assert.False(t, b.SetSettings(ctx, types.Settings{Theme: "light", ViewMode: "calendar"}.WithDefaults()).Success)
	assert.False(t, b.Clear(ctx).Success)
	host.FailSets(false, "")

	items := b.GetItems(ctx)
	require.True(t, items.Success, items.Error)
	providertest.AssertSameItems(t, before, items.Data)

	settings := b.GetSettings(ctx)
	require.True(t, settings.Success, settings.Error)
	assert.Equal(t, "dark", settings.Data.Theme)
	assert.Equal(t, types.DefaultSettings().ViewMode, settings.Data.ViewMode)

	require.True(t, b.SetItems(ctx, providertest.SampleItems(3)).Success, "writes resume once the host recovers")
	items = b.GetItems(ctx)
	require.True(t, items.Success, items.Error)
	assert.Len(t, items.Data.Items, 3)
}

func TestBackend_FailedPersistMatchesKeyValue(t *testing.T) {
	ctx := context.Background()
	backends := map[string]func(hoststore.Store) types.StorageProvider{
		"keyvalue":   func(h hoststore.Store) types.StorageProvider { return kvstore.NewBackend(h) },
		"relational": func(h hoststore.Store) types.StorageProvider { return NewBackend(h) },
	}
	for name, newBackend := range backends {
		t.Run(name, func(t *testing.T) {
			host := hoststoretest.NewFaulty(nil)
			p := newBackend(host)
			require.True(t, p.Initialize(ctx).Success)
			defer p.Close(ctx)

			require.True(t, p.SetItems(ctx, providertest.SampleItems(2)).Success)
			host.FailSets(true, "")
			res := p.SetItems(ctx, providertest.SampleItems(5))
			host.FailSets(false, "")
			require.False(t, res.Success)
			assert.ErrorIs(t, res.Err(), types.ErrWriteFailed)

			got := p.GetItems(ctx)
			require.True(t, got.Success, got.Error)
			assert.Len(t, got.Data.Items, 2)
		})
	}
}

func TestBackend_FailedRevertClosesBackend(t *testing.T) {
	ctx := context.Background()
	host := hoststoretest.NewFaulty(nil)
	b := NewBackend(host)
	require.True(t, b.Initialize(ctx).Success)
	require.True(t, b.SetItems(ctx, providertest.SampleItems(2)).Success)

	host.FailAll(true)
	res := b.SetItems(ctx, providertest.SampleItems(4))
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err(), types.ErrWriteFailed)

	after := b.GetItems(ctx)
	assert.ErrorIs(t, after.Err(), types.ErrNotInitialized)

	host.FailAll(false)
	require.True(t, b.Initialize(ctx).Success)
	items := b.GetItems(ctx)
	require.True(t, items.Success, items.Error)
	assert.Len(t, items.Data.Items, 2)
	require.True(t, b.Close(ctx).Success)
}

func TestBackend_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	host := hoststore.NewMemoryStore(64)

	b := NewBackend(host)
	require.True(t, b.Initialize(ctx).Success)

	res := b.SetItems(ctx, providertest.SampleItems(3))
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err(), types.ErrWriteFailed)
	assert.Contains(t, res.Error, hoststore.ErrQuotaExceeded.Error())
}

func TestBackend_DuplicateIDsLeaveRowsUntouched(t *testing.T) {
	ctx := context.Background()
	b := NewBackend(hoststore.NewMemoryStore(0))
	require.True(t, b.Initialize(ctx).Success)
	defer b.Close(ctx)

	require.True(t, b.SetItems(ctx, providertest.SampleItems(2)).Success)

	dup := types.ItemCollection{Items: []types.Item{
		{ID: "x", Type: "note", Payload: map[string]any{}},
		{ID: "x", Type: "task", Payload: map[string]any{}},
	}}
	res := b.SetItems(ctx, dup)
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err(), types.ErrDuplicateID)

	got := b.GetItems(ctx)
	require.True(t, got.Success, got.Error)
	assert.Equal(t, []string{"item-000", "item-001"}, got.Data.IDs())
}

func TestBackend_RowTimestampsFallBackToClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)
	b := NewBackend(hoststore.NewMemoryStore(0), WithClock(func() time.Time { return now }))
	require.True(t, b.Initialize(ctx).Success)
	defer b.Close(ctx)

	items := types.ItemCollection{Items: []types.Item{{ID: "bare", Type: "note", Payload: map[string]any{}}}}
	require.True(t, b.SetItems(ctx, items).Success)

	var created string
	require.NoError(t, b.image.DB().QueryRowContext(ctx,
		"SELECT created_at FROM items WHERE id = ?", "bare").Scan(&created))
	assert.Equal(t, now.Format(time.RFC3339Nano), created)

	snap := b.ExportAll(ctx)
	require.True(t, snap.Success, snap.Error)
	assert.True(t, snap.Data.Timestamp.Equal(now))
}

func TestBackend_UnknownEngine(t *testing.T) {
	b := NewBackend(hoststore.NewMemoryStore(0), WithEngine("duckdb"))
	res := b.Initialize(context.Background())
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err(), types.ErrEngineUnknown)
	assert.False(t, b.IsAvailable(context.Background()))
}
