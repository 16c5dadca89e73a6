package app

import (
	"io"
	"os"

	"chatgate/internal/config"
)

// DefaultEnvFile is read for local development when not running hosted.
const DefaultEnvFile = ".env"

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of the config file.
	Debug bool

	// LogFormat overrides logging.format when set ("text" or "json").
	LogFormat string

	// ConfigPath is the optional yaml config file.
	ConfigPath string

	// EnvFile is the dotenv file merged under the process environment when not hosted.
	EnvFile string

	// Lookup reads the process environment. Defaults to os.LookupEnv.
	Lookup config.LookupFunc

	// LogOutput receives log lines. Defaults to stdout.
	LogOutput io.Writer
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, logFormat, configPath string) *Config {
	return &Config{
		Debug:      debug,
		LogFormat:  logFormat,
		ConfigPath: configPath,
		EnvFile:    DefaultEnvFile,
		Lookup:     os.LookupEnv,
		LogOutput:  os.Stdout,
	}
}
