package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

func TestDecodeItems_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantIDs  []string
		wantSkip bool
	}{
		{name: "current shape", in: `{"items":[{"id":"a","type":"task"}],"skipHistory":true}`, wantIDs: []string{"a"}, wantSkip: true},
		{name: "envelope", in: `{"state":{"items":[{"id":"b","type":"note"}]},"version":1}`, wantIDs: []string{"b"}},
		{name: "bare array", in: `[{"id":"c","type":"note"},{"id":"d","type":"task"}]`, wantIDs: []string{"c", "d"}},
		{name: "missing items", in: `{"skipHistory":false}`, wantIDs: []string{}},
		{name: "null state", in: `{"state":null,"version":0}`, wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeItems([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, got.IDs())
			assert.Equal(t, tt.wantSkip, got.SkipHistory)
		})
	}
}

func TestDecodeItems_Malformed(t *testing.T) {
	for _, in := range []string{`{"items":`, `garbage`, `{"items":"nope"}`} {
		_, err := DecodeItems([]byte(in))
		assert.ErrorIs(t, err, types.ErrMalformedData, in)
	}
}

func TestWrapUnwrap(t *testing.T) {
	data, err := Wrap(types.DefaultSettings(), 2)
	require.NoError(t, err)

	inner, err := Unwrap(data)
	require.NoError(t, err)
	s, err := DecodeSettings(inner)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultSettings(), s)

	// Wrapped input decodes to the same value as its inner state.
	s2, err := DecodeSettings(data)
	require.NoError(t, err)
	assert.Equal(t, s, s2)
}
