package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "DAYBOOK"

	cfgKeyDataDir   = "data_dir"
	cfgKeyHostStore = "host_store"
	cfgKeyEngine    = "engine"
	cfgKeyCapacity  = "capacity_bytes"
	cfgKeyLogLevel  = "log_level"
)

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. DAYBOOK_HOST_STORE, DAYBOOK_ENGINE,
// DAYBOOK_CAPACITY_BYTES and DAYBOOK_LOG_LEVEL override the file; the data
// directory follows the paths package precedence instead.
func loadConfig(configDir string) (types.Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, systemErr("create config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, systemErr("write default config: %w", err)
	}

	def := types.DefaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyHostStore, def.HostStore)
	v.SetDefault(cfgKeyEngine, def.Engine)
	v.SetDefault(cfgKeyCapacity, def.CapacityBytes)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyHostStore, cfgKeyEngine, cfgKeyCapacity, cfgKeyLogLevel} {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config %s: %w", filepath.Join(configDir, configFileExt), err)
	}
	return cfg, nil
}

// ensureDefaultConfigFile writes config.yaml with the defaults when it does
// not exist yet.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# daybook configuration\n# data_dir is optional; --data-dir and DAYBOOK_DATA_DIR also set it.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
