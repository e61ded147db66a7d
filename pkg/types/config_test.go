package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "unknown host store returns ErrHostStoreUnknown",
			config:  Config{HostStore: "redis", DataDir: "/tmp/data"},
			wantErr: ErrHostStoreUnknown,
		},
		{
			name:    "unknown engine returns ErrEngineUnknown",
			config:  Config{HostStore: HostStoreBadger, Engine: "postgres"},
			wantErr: ErrEngineUnknown,
		},
		{
			name:    "negative capacity returns ErrCapacityInvalid",
			config:  Config{CapacityBytes: -1},
			wantErr: ErrCapacityInvalid,
		},
		{
			name:    "unknown log level returns ErrLogLevelUnknown",
			config:  Config{LogLevel: "trace"},
			wantErr: ErrLogLevelUnknown,
		},
		{
			name:    "default config is valid",
			config:  DefaultConfig(),
			wantErr: nil,
		},
		{
			name:    "empty config is valid at config level",
			config:  Config{},
			wantErr: nil,
		},
		{
			name:    "memory store with wasm engine is valid",
			config:  Config{HostStore: HostStoreMemory, Engine: EngineWASM, CapacityBytes: 5 << 20},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
