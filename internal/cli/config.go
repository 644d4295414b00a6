package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/thoughts/internal/logging"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyLogLevel = "log_level"

	defaultBackend = types.BackendJSON
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# thoughts configuration

# Record store backend: json, sqlite or bolt
backend: json

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Log level: debug, info, warn or error
log_level: info
`

// loadConfig reads config.yaml from configDir using Viper. With
// writeDefault it creates the config directory and a default config.yaml on
// first run. A missing config.yaml is not an error. THOUGHTS_BACKEND and
// THOUGHTS_LOG_LEVEL override the file.
func loadConfig(configDir string, writeDefault bool) (*viper.Viper, error) {
	if writeDefault {
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure config dir: %w", err)
		}
		if err := ensureDefaultConfigFile(configDir); err != nil {
			return nil, fmt.Errorf("ensure default config: %w", err)
		}
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, logging.DefaultLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("THOUGHTS")
	for _, key := range []string{cfgKeyBackend, cfgKeyLogLevel} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
