package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration directory with a config.yaml recording the\n" +
			"resolved backend and data directory, then create the data directory.\n" +
			"An existing config.yaml is left untouched.",
		Args: noArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	cfg, err := a.storageConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return systemError{fmt.Errorf("create config directory: %w", err)}
	}
	configPath := filepath.Join(a.configDir, configFileExt)
	written, err := writeConfigIfMissing(configPath, configFile{
		Backend:  cfg.Backend,
		DataDir:  cfg.DataDir,
		LogLevel: a.flags.logLevel,
	})
	if err != nil {
		return systemError{fmt.Errorf("write config: %w", err)}
	}
	if written {
		a.logger.Info("wrote config", zap.String("path", configPath))
	}

	s, err := a.openStorage()
	if err != nil {
		return err
	}
	if err := s.Close(); err != nil {
		return systemError{fmt.Errorf("close storage: %w", err)}
	}

	if a.flags.jsonMode {
		return printJSON(cmd, map[string]string{
			"config_dir": a.configDir,
			"data_dir":   cfg.DataDir,
			"backend":    cfg.Backend,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s storage in %s\n", cfg.Backend, cfg.DataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. It reports whether the file was written.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
