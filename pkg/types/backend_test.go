package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		in      string
		want    BackendType
		wantErr bool
	}{
		{in: "keyvalue", want: BackendKeyValue},
		{in: "KV", want: BackendKeyValue},
		{in: "localStorage", want: BackendKeyValue},
		{in: "relational", want: BackendRelational},
		{in: " sqlite ", want: BackendRelational},
		{in: "postgres", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackendType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBackend)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestDefaultBackendMetadata(t *testing.T) {
	m := DefaultBackendMetadata()
	assert.Equal(t, BackendKeyValue, m.ActiveBackend)
	assert.Nil(t, m.LastMigrationTimestamp)
	assert.Equal(t, MetadataVersion, m.Version)
}
