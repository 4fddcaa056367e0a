package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/propsage/propsage/internal/config"
	"github.com/propsage/propsage/internal/engine"
	"github.com/propsage/propsage/internal/trainer"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext resolves the loaded configuration and logger for a
// command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    getConfig(),
		Logger: config.GetLogger(cmd.Context()),
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back
// to environment variables with defaults.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		DataPath:    getEnvOrDefault("PROPSAGE_DATA_PATH", config.DefaultDataPath),
		ModelDir:    getEnvOrDefault("PROPSAGE_MODEL_DIR", config.DefaultModelDir),
		StatePath:   getEnvOrDefault("PROPSAGE_STATE_PATH", config.DefaultStateFile),
		Environment: getEnvOrDefault("PROPSAGE_ENVIRONMENT", config.DefaultEnv),
		Verbose:     os.Getenv("PROPSAGE_VERBOSE") == "true",
		Server: config.ServerConfig{
			Host: config.DefaultServerHost,
			Port: config.DefaultServerPort,
		},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// bundlePath returns the model artifact location for the configuration.
func bundlePath(cfg *config.Config) string {
	return filepath.Join(cfg.ModelDir, trainer.BundleFileName)
}

// loadEngine creates an engine for the configured bundle and loads it.
func loadEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	eng := engine.New(engine.Config{
		BundlePath: bundlePath(cfg),
		Logger:     logger,
	})
	if err := eng.Load(); err != nil {
		return nil, err
	}
	return eng, nil
}
