package sqlite

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

func TestLoadEngine(t *testing.T) {
	tests := []struct {
		engine     string
		wantDriver string
		wantErr    error
	}{
		{engine: "", wantDriver: "sqlite"},
		{engine: types.EngineModernc, wantDriver: "sqlite"},
		{engine: types.EngineWASM, wantDriver: "sqlite3"},
		{engine: "oracle", wantErr: types.ErrEngineUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			driver, err := LoadEngine(tt.engine)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
		})
	}
}

func TestLoadEngine_Memoized(t *testing.T) {
	_, err := LoadEngine(types.EngineModernc)
	require.NoError(t, err)
	first, ok := engineLoads.Load(types.EngineModernc)
	require.True(t, ok)

	_, err = LoadEngine(types.EngineModernc)
	require.NoError(t, err)
	second, _ := engineLoads.Load(types.EngineModernc)
	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(second).Pointer())
}
