// Package config provides configuration management for the propsage
// CLI and server. Values are layered from defaults, the propsage.yaml
// config file, PROPSAGE_ environment variables, and command-line flags,
// in increasing order of precedence.
package config

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Config holds all CLI and server configuration options.
type Config struct {
	// DataPath is the raw listings CSV used for training.
	DataPath string `koanf:"data_path"`
	// ModelDir receives and serves the trained model artifacts.
	ModelDir string `koanf:"model_dir"`
	// StatePath is the training-run history database.
	StatePath string `koanf:"state_path"`

	Environment string       `koanf:"environment"`
	Verbose     bool         `koanf:"verbose"`
	Server      ServerConfig `koanf:"server"`

	Environments map[string]EnvConfig `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	DataPath  string `koanf:"data_path"`
	ModelDir  string `koanf:"model_dir"`
	StatePath string `koanf:"state_path"`
}

// Default configuration values.
const (
	DefaultDataPath   = "data/raw_property_data.csv"
	DefaultModelDir   = "models"
	DefaultStateFile  = ".propsage/state.db"
	DefaultEnv        = "dev"
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8000
)
