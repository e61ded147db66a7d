package types

import "errors"

// Config holds the settings used to assemble the storage core: where the
// host store lives, which host store and relational engine to use, and how
// much the host store may hold.
type Config struct {
	DataDir       string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	HostStore     string `json:"host_store" yaml:"host_store" mapstructure:"host_store"`
	Engine        string `json:"engine" yaml:"engine" mapstructure:"engine"`
	CapacityBytes int64  `json:"capacity_bytes" yaml:"capacity_bytes" mapstructure:"capacity_bytes"`
	LogLevel      string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Supported host stores.
const (
	HostStoreBadger = "badger"
	HostStoreMemory = "memory"
)

// Supported relational engines.
const (
	EngineModernc = "modernc"
	EngineWASM    = "wasm"
)

// Config validation errors.
var (
	ErrHostStoreUnknown = errors.New("unknown host store")
	ErrEngineUnknown    = errors.New("unknown relational engine")
	ErrCapacityInvalid  = errors.New("capacity must not be negative")
	ErrLogLevelUnknown  = errors.New("unknown log level")
)

var knownHostStores = map[string]bool{
	HostStoreBadger: true,
	HostStoreMemory: true,
}

var knownEngines = map[string]bool{
	EngineModernc: true,
	EngineWASM:    true,
}

var knownLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// DefaultConfig returns a badger-backed config using the pure Go engine.
func DefaultConfig() Config {
	return Config{
		HostStore: HostStoreBadger,
		Engine:    EngineModernc,
		LogLevel:  "info",
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. Empty HostStore and Engine are accepted and
// mean the defaults.
func (c Config) Validate() error {
	if c.HostStore != "" && !knownHostStores[c.HostStore] {
		return ErrHostStoreUnknown
	}
	if c.Engine != "" && !knownEngines[c.Engine] {
		return ErrEngineUnknown
	}
	if c.CapacityBytes < 0 {
		return ErrCapacityInvalid
	}
	if !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	return nil
}
