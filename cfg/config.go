package cfg

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// HTTPConfiguration controls the REST API listener
type HTTPConfiguration struct {
	BindAddress string `toml:"bind_address"`
	Port        int    `toml:"port"`
	PublicDir   string `toml:"public_dir"` // SPA assets; empty disables static serving
	EnableCORS  bool   `toml:"enable_cors"`
}

// SQLiteConfiguration controls the backing database
type SQLiteConfiguration struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Port    int    `toml:"port"`
}

// Configuration is the main configuration structure
type Configuration struct {
	// ChangedBy is the actor recorded on audit entries. Stands in for a
	// real identity until the service sits behind auth.
	ChangedBy string `toml:"changed_by"`

	HTTP       HTTPConfiguration       `toml:"http"`
	SQLite     SQLiteConfiguration     `toml:"sqlite"`
	Logging    LoggingConfiguration    `toml:"logging"`
	Prometheus PrometheusConfiguration `toml:"prometheus"`
}

// Command line flags
var (
	ConfigPathFlag = flag.String("config", "config.toml", "Path to configuration file")
	PortFlag       = flag.Int("port", 0, "HTTP port (overrides config)")
	DBPathFlag     = flag.String("db", "", "SQLite database path (overrides config)")
	PublicDirFlag  = flag.String("public", "", "Static assets directory (overrides config)")
)

// Default configuration
var Config = &Configuration{
	ChangedBy: "hadar",

	HTTP: HTTPConfiguration{
		BindAddress: "0.0.0.0",
		Port:        3000,
		PublicDir:   "./public",
		EnableCORS:  true,
	},

	SQLite: SQLiteConfiguration{
		Path:          "./publishers.db",
		BusyTimeoutMS: 5000,
	},

	Logging: LoggingConfiguration{
		Verbose: false,
		Format:  "console",
	},

	Prometheus: PrometheusConfiguration{
		Enabled: false,
		Address: "0.0.0.0",
		Port:    9090,
	},
}

// Load loads configuration from file and applies CLI overrides
func Load(configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	// Apply CLI overrides
	if *PortFlag != 0 {
		Config.HTTP.Port = *PortFlag
	}
	if *DBPathFlag != "" {
		Config.SQLite.Path = *DBPathFlag
	}
	if *PublicDirFlag != "" {
		Config.HTTP.PublicDir = *PublicDirFlag
	}

	// Ensure the database directory exists
	if dir := filepath.Dir(Config.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}

// Validate checks configuration for errors
func Validate() error {
	if Config.HTTP.Port < 1 || Config.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", Config.HTTP.Port)
	}

	if Config.SQLite.Path == "" {
		return fmt.Errorf("sqlite path must not be empty")
	}

	if Config.SQLite.BusyTimeoutMS < 0 {
		return fmt.Errorf("invalid busy timeout: %d", Config.SQLite.BusyTimeoutMS)
	}

	if Config.Logging.Format != "console" && Config.Logging.Format != "json" {
		return fmt.Errorf("invalid logging format: %s (must be console or json)", Config.Logging.Format)
	}

	if Config.Prometheus.Enabled {
		if Config.Prometheus.Port < 1 || Config.Prometheus.Port > 65535 {
			return fmt.Errorf("invalid Prometheus port: %d", Config.Prometheus.Port)
		}
	}

	if Config.ChangedBy == "" {
		return fmt.Errorf("changed_by must not be empty")
	}

	return nil
}
