// Package providertest holds the behaviour every StorageProvider must show,
// runnable against any backend from that backend's own tests.
package providertest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Factory returns a fresh, uninitialized provider for one subtest.
type Factory func(t *testing.T) types.StorageProvider

// SampleItems builds n items of alternating types with revived timestamps.
func SampleItems(n int) types.ItemCollection {
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	items := make([]types.Item, n)
	for i := range items {
		typ := "task"
		if i%2 == 1 {
			typ = "note"
		}
		items[i] = types.Item{
			ID:   fmt.Sprintf("item-%03d", i),
			Type: typ,
			Payload: map[string]any{
				"content":   fmt.Sprintf("entry %d", i),
				"createdAt": base.Add(time.Duration(n-i) * time.Minute),
				"tags":      []any{"daybook", typ},
			},
		}
	}
	return types.ItemCollection{Items: items}
}

// Run exercises the StorageProvider contract.
func Run(t *testing.T, newProvider Factory) {
	ctx := context.Background()

	open := func(t *testing.T) types.StorageProvider {
		t.Helper()
		p := newProvider(t)
		res := p.Initialize(ctx)
		require.True(t, res.Success, "initialize: %s", res.Error)
		t.Cleanup(func() { p.Close(ctx) })
		return p
	}

	t.Run("defaults when empty", func(t *testing.T) {
		p := open(t)

		items := p.GetItems(ctx)
		require.True(t, items.Success, items.Error)
		assert.Empty(t, items.Data.Items)
		assert.False(t, items.Data.SkipHistory)

		settings := p.GetSettings(ctx)
		require.True(t, settings.Success, settings.Error)
		assert.Equal(t, types.DefaultSettings(), settings.Data)
	})

	t.Run("set and get items keeps order and payload", func(t *testing.T) {
		p := open(t)
		want := SampleItems(5)
		want.SkipHistory = true

		require.True(t, p.SetItems(ctx, want).Success)
		got := p.GetItems(ctx)
		require.True(t, got.Success, got.Error)

		assert.Equal(t, want.IDs(), got.Data.IDs())
		assert.True(t, got.Data.SkipHistory)
		for i := range want.Items {
			assertSameItem(t, want.Items[i], got.Data.Items[i])
		}
	})

	t.Run("set items replaces wholesale", func(t *testing.T) {
		p := open(t)
		require.True(t, p.SetItems(ctx, SampleItems(4)).Success)

		smaller := types.ItemCollection{Items: []types.Item{{ID: "only", Type: "note", Payload: map[string]any{"content": "x"}}}}
		require.True(t, p.SetItems(ctx, smaller).Success)

		got := p.GetItems(ctx)
		require.True(t, got.Success, got.Error)
		assert.Equal(t, []string{"only"}, got.Data.IDs())
	})

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		p := open(t)
		require.True(t, p.SetItems(ctx, SampleItems(2)).Success)

		dup := types.ItemCollection{Items: []types.Item{{ID: "a", Type: "task"}, {ID: "a", Type: "note"}}}
		res := p.SetItems(ctx, dup)
		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err(), types.ErrDuplicateID)

		got := p.GetItems(ctx)
		require.True(t, got.Success)
		assert.Len(t, got.Data.Items, 2, "failed write leaves previous data")
	})

	t.Run("settings replace", func(t *testing.T) {
		p := open(t)
		s := types.Settings{Theme: "dark", ViewMode: "calendar", TimeFormat: "24h", MobilePane: "list"}
		require.True(t, p.SetSettings(ctx, s).Success)

		got := p.GetSettings(ctx)
		require.True(t, got.Success, got.Error)
		assert.Equal(t, s, got.Data)
	})

	t.Run("import then export round trips", func(t *testing.T) {
		p := open(t)
		snap := types.NewSnapshot(SampleItems(7), types.Settings{Theme: "dark"}.WithDefaults(), time.Now())

		require.True(t, p.ImportAll(ctx, snap).Success)
		out := p.ExportAll(ctx)
		require.True(t, out.Success, out.Error)

		assert.Equal(t, snap.Settings, out.Data.Settings)
		assert.Equal(t, snap.Items.IDs(), out.Data.Items.IDs())
		for i := range snap.Items.Items {
			assertSameItem(t, snap.Items.Items[i], out.Data.Items.Items[i])
		}
		assert.Equal(t, types.SnapshotVersion, out.Data.Version)
		assert.False(t, out.Data.Timestamp.IsZero())
	})

	t.Run("clear returns defaults", func(t *testing.T) {
		p := open(t)
		require.True(t, p.SetItems(ctx, SampleItems(3)).Success)
		require.True(t, p.SetSettings(ctx, types.Settings{Theme: "dark"}).Success)

		require.True(t, p.Clear(ctx).Success)

		items := p.GetItems(ctx)
		require.True(t, items.Success)
		assert.Empty(t, items.Data.Items)
		settings := p.GetSettings(ctx)
		require.True(t, settings.Success)
		assert.Equal(t, types.DefaultSettings(), settings.Data)
	})

	t.Run("operations before initialize fail", func(t *testing.T) {
		p := newProvider(t)
		res := p.GetItems(ctx)
		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err(), types.ErrNotInitialized)
	})

	t.Run("is available after initialize", func(t *testing.T) {
		p := open(t)
		assert.True(t, p.IsAvailable(ctx))
	})
}

// assertSameItem compares id, type and payload, normalising revived times.
func assertSameItem(t *testing.T, want, got types.Item) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Type, got.Type)
	require.Len(t, got.Payload, len(want.Payload), "payload of %s", want.ID)
	for k, wv := range want.Payload {
		gv := got.Payload[k]
		if wt, ok := wv.(time.Time); ok {
			gt, ok := gv.(time.Time)
			if assert.True(t, ok, "%s.%s should be a time.Time, got %T", want.ID, k, gv) {
				assert.True(t, wt.Equal(gt), "%s.%s: want %v got %v", want.ID, k, wt, gt)
			}
			continue
		}
		assert.Equal(t, wv, gv, "%s.%s", want.ID, k)
	}
}

// AssertSameItems compares two collections item by item.
func AssertSameItems(t *testing.T, want, got types.ItemCollection) {
	t.Helper()
	require.Equal(t, want.IDs(), got.IDs())
	assert.Equal(t, want.SkipHistory, got.SkipHistory)
	for i := range want.Items {
		assertSameItem(t, want.Items[i], got.Items[i])
	}
}
