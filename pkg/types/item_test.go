package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemJSON_FlatShape(t *testing.T) {
	it := Item{
		ID:      "a1",
		Type:    "task",
		Payload: map[string]any{"content": "buy milk", "done": false},
	}

	data, err := json.Marshal(it)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "a1", flat["id"])
	assert.Equal(t, "task", flat["type"])
	assert.Equal(t, "buy milk", flat["content"])
	assert.Equal(t, false, flat["done"])
}

func TestItemJSON_RevivesDateFields(t *testing.T) {
	raw := `{"id":"n1","type":"note","content":"hi","createdAt":"2026-03-01T09:30:00Z","dueDate":"not a date","title":"2026-03-01T09:30:00Z"}`

	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))

	assert.Equal(t, "n1", it.ID)
	assert.Equal(t, "note", it.Type)
	assert.NotContains(t, it.Payload, "id")
	assert.NotContains(t, it.Payload, "type")

	created, ok := it.Time("createdAt")
	require.True(t, ok, "createdAt should be revived")
	assert.True(t, created.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)))

	// Unparseable dates stay strings, and non-date fields are never revived.
	assert.Equal(t, "not a date", it.Payload["dueDate"])
	assert.Equal(t, "2026-03-01T09:30:00Z", it.Payload["title"])
}

func TestItemJSON_RoundTripKeepsDates(t *testing.T) {
	done := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	it := Item{ID: "t1", Type: "task", Payload: map[string]any{"completedAt": done}}

	data, err := json.Marshal(it)
	require.NoError(t, err)

	var back Item
	require.NoError(t, json.Unmarshal(data, &back))
	got, ok := back.Time("completedAt")
	require.True(t, ok)
	assert.True(t, got.Equal(done))
}

func TestItemJSON_RejectsNonObject(t *testing.T) {
	var it Item
	assert.Error(t, json.Unmarshal([]byte(`null`), &it))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &it))
}

func TestItemCollectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		items   []Item
		wantErr error
	}{
		{name: "empty collection", items: nil},
		{name: "unique ids", items: []Item{{ID: "a"}, {ID: "b"}}},
		{name: "empty id", items: []Item{{ID: "a"}, {ID: ""}}, wantErr: ErrInvalidID},
		{name: "duplicate id", items: []Item{{ID: "a"}, {ID: "a"}}, wantErr: ErrDuplicateID},
		{name: "payload type key", items: []Item{{ID: "a", Type: "task", Payload: map[string]any{"type": "other"}}}, wantErr: ErrReservedField},
		{name: "payload id key", items: []Item{{ID: "a", Payload: map[string]any{"id": "b"}}}, wantErr: ErrReservedField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ItemCollection{Items: tt.items}.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestItemJSON_NumbersDecodeAsJSONNumber(t *testing.T) {
	it := Item{ID: "t1", Type: "task", Payload: map[string]any{"priority": 3, "ratio": 0.5}}
	data, err := json.Marshal(it)
	require.NoError(t, err)

	var got Item
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, json.Number("3"), got.Payload["priority"])
	assert.Equal(t, json.Number("0.5"), got.Payload["ratio"])
}

func TestItemCollectionIDs(t *testing.T) {
	c := ItemCollection{Items: []Item{{ID: "z"}, {ID: "a"}, {ID: "m"}}}
	assert.Equal(t, []string{"z", "a", "m"}, c.IDs())
}
