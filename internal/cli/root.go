// Package cli implements the thoughts command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/internal/logging"
	"github.com/mesh-intelligence/thoughts/internal/organizer"
	"github.com/mesh-intelligence/thoughts/internal/paths"
	"github.com/mesh-intelligence/thoughts/internal/storage"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by one command tree.
type app struct {
	flags     rootFlags
	configDir string
	config    *viper.Viper
	logger    *zap.Logger
}

// NewRootCmd creates the top-level "thoughts" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "thoughts",
		Short: "Keep thoughts organized by area of life",
		Long: "thoughts stores short titled thoughts and the areas of life they belong to\n" +
			"in a local data directory.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return userError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: config.yaml data_dir, then platform data dir)")
	pf.StringVar(&a.flags.backend, "backend", "", "record store backend: json, sqlite or bolt (default: config.yaml backend)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error (default: config.yaml log_level)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newThoughtCmd(a))
	root.AddCommand(newAreaCmd(a))
	root.AddCommand(newRepairCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// setup resolves the config directory, loads config.yaml and builds the
// logger. It runs before every subcommand except version.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return systemError{fmt.Errorf("resolve config dir: %w", err)}
	}
	// init writes its own config.yaml from the resolved flags.
	cfg, err := loadConfig(configDir, cmd.Name() != "init")
	if err != nil {
		return systemError{err}
	}
	a.configDir = configDir
	a.config = cfg

	level := a.flags.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	logger, err := logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return userError{err}
	}
	a.logger = logger
	a.logger.Debug("config loaded", zap.String("config_dir", configDir))
	return nil
}

// storageConfig resolves the backend and data directory following the
// precedence flag > config.yaml > env > platform default.
func (a *app) storageConfig() (types.Config, error) {
	backend := a.flags.backend
	if backend == "" {
		backend = a.config.GetString(cfgKeyBackend)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, systemError{fmt.Errorf("resolve data dir: %w", err)}
	}
	cfg := types.Config{Backend: backend, DataDir: dataDir}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError{fmt.Errorf("invalid config: %w", err)}
	}
	return cfg, nil
}

// openStorage opens the configured data directory. The caller must Close it.
func (a *app) openStorage() (*storage.Storage, error) {
	cfg, err := a.storageConfig()
	if err != nil {
		return nil, err
	}
	s, err := storage.Open(cfg, a.logger)
	if err != nil {
		return nil, systemError{fmt.Errorf("open storage: %w", err)}
	}
	return s, nil
}

// withService opens storage, runs fn with a Service over it and closes
// storage afterwards.
func (a *app) withService(fn func(svc *organizer.Service) error) error {
	s, err := a.openStorage()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			a.logger.Warn("unable to close storage", zap.Error(err))
		}
	}()
	return fn(organizer.New(s.Thoughts(), s.AreasOfLife(), s, a.logger))
}

// userError marks bad input: unknown flags, malformed arguments, invalid
// config values.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

// systemError marks failures of the environment rather than the input.
type systemError struct{ err error }

func (e systemError) Error() string { return e.err.Error() }
func (e systemError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to the process exit code.
// Storage failures are system errors; everything else is the user's.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var sysErr systemError
	var usrErr userError
	switch {
	case errors.As(err, &usrErr):
		return exitUserError
	case errors.As(err, &sysErr),
		errors.Is(err, types.ErrConnection),
		errors.Is(err, types.ErrNewID):
		return exitSysError
	default:
		return exitUserError
	}
}
