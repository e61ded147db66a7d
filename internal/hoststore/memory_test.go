package hoststore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetRemove(t *testing.T) {
	s := NewMemoryStore(0)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("k", "v1"))
	require.NoError(t, s.Set("k", "value-2"))
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value-2", v)
	assert.Equal(t, len("k")+len("value-2"), s.Size("k"))

	require.NoError(t, s.Remove("k"))
	require.NoError(t, s.Remove("k"), "removing an absent key is not an error")
	assert.Equal(t, 0, s.Size("k"))
	assert.Zero(t, s.Used())
	assert.Zero(t, s.Len())
}

func TestMemoryStore_Capacity(t *testing.T) {
	s := NewMemoryStore(10)

	require.NoError(t, s.Set("a", "123456789"))
	assert.ErrorIs(t, s.Set("b", "x"), ErrQuotaExceeded)

	// Overwriting an existing key only counts the difference.
	require.NoError(t, s.Set("a", "12345"))
	require.NoError(t, s.Set("b", "xyz"))
	assert.Equal(t, int64(10), s.Used())

	// A failed write leaves the old value in place.
	assert.ErrorIs(t, s.Set("a", "1234567890"), ErrQuotaExceeded)
	v, _, _ := s.Get("a")
	assert.Equal(t, "12345", v)
}
