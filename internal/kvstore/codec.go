package kvstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Envelope is the legacy persisted shape written by reactive state
// containers: the state value plus the container's own version number.
type Envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Unwrap returns the inner state when data is an Envelope, or data itself.
func Unwrap(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedData, err)
	}
	state, ok := probe["state"]
	if !ok {
		return trimmed, nil
	}
	return state, nil
}

// Wrap encodes v inside an Envelope with the given version.
func Wrap(v any, version int) ([]byte, error) {
	state, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{State: state, Version: version})
}

// DecodeItems reads an items blob. It accepts the current shape
// ({items, skipHistory}), the Envelope wrapper around it, and a bare item array.
func DecodeItems(data []byte) (types.ItemCollection, error) {
	inner, err := Unwrap(data)
	if err != nil {
		return types.ItemCollection{}, fmt.Errorf("items: %w", err)
	}
	if len(inner) == 0 || string(inner) == "null" {
		return types.EmptyItems(), nil
	}

	if inner[0] == '[' {
		var items []types.Item
		if err := json.Unmarshal(inner, &items); err != nil {
			return types.ItemCollection{}, fmt.Errorf("items: %w: %v", types.ErrMalformedData, err)
		}
		return types.ItemCollection{Items: nonNil(items)}, nil
	}

	var c types.ItemCollection
	if err := json.Unmarshal(inner, &c); err != nil {
		return types.ItemCollection{}, fmt.Errorf("items: %w: %v", types.ErrMalformedData, err)
	}
	c.Items = nonNil(c.Items)
	return c, nil
}

// EncodeItems writes the current items blob shape.
func EncodeItems(c types.ItemCollection) ([]byte, error) {
	c.Items = nonNil(c.Items)
	return json.Marshal(c)
}

// DecodeSettings reads a settings blob, bare or wrapped. Missing fields take
// their defaults.
func DecodeSettings(data []byte) (types.Settings, error) {
	inner, err := Unwrap(data)
	if err != nil {
		return types.Settings{}, fmt.Errorf("settings: %w", err)
	}
	if len(inner) == 0 || string(inner) == "null" {
		return types.DefaultSettings(), nil
	}
	var s types.Settings
	if err := json.Unmarshal(inner, &s); err != nil {
		return types.Settings{}, fmt.Errorf("settings: %w: %v", types.ErrMalformedData, err)
	}
	return s.WithDefaults(), nil
}

// EncodeSettings writes the settings blob.
func EncodeSettings(s types.Settings) ([]byte, error) {
	return json.Marshal(s)
}

func nonNil(items []types.Item) []types.Item {
	if items == nil {
		return []types.Item{}
	}
	return items
}
