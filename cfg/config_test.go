package cfg

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Configuration {
	return &Configuration{
		ChangedBy: "tester",
		HTTP: HTTPConfiguration{
			BindAddress: "0.0.0.0",
			Port:        3000,
		},
		SQLite: SQLiteConfiguration{
			Path:          "./publishers.db",
			BusyTimeoutMS: 5000,
		},
		Logging: LoggingConfiguration{
			Format: "console",
		},
		Prometheus: PrometheusConfiguration{
			Enabled: false,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validConfig()

	if err := Validate(); err != nil {
		t.Errorf("Expected no error for valid config, got: %v", err)
	}
}

func TestValidate_InvalidHTTPPort(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	tests := []int{-1, 0, 70000}

	for _, port := range tests {
		Config = validConfig()
		Config.HTTP.Port = port

		if err := Validate(); err == nil {
			t.Errorf("Expected error for invalid HTTP port %d", port)
		}
	}
}

func TestValidate_EmptySQLitePath(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validConfig()
	Config.SQLite.Path = ""

	if err := Validate(); err == nil {
		t.Error("Expected error for empty sqlite path")
	}
}

func TestValidate_InvalidLoggingFormat(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validConfig()
	Config.Logging.Format = "xml"

	if err := Validate(); err == nil {
		t.Error("Expected error for invalid logging format")
	}
}

func TestValidate_InvalidPrometheusPort(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validConfig()
	Config.Prometheus.Enabled = true
	Config.Prometheus.Port = 0

	if err := Validate(); err == nil {
		t.Error("Expected error for invalid Prometheus port")
	}
}

func TestValidate_EmptyChangedBy(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validConfig()
	Config.ChangedBy = ""

	if err := Validate(); err == nil {
		t.Error("Expected error for empty changed_by")
	}
}

func TestLoad_FromFile(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
changed_by = "alice"

[http]
port = 8080

[sqlite]
path = "` + filepath.Join(tmpDir, "test.db") + `"
busy_timeout_ms = 1000

[logging]
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	Config = validConfig()
	if err := Load(configPath); err != nil {
		t.Fatalf("Expected no error loading config, got: %v", err)
	}

	if Config.ChangedBy != "alice" {
		t.Errorf("Expected changed_by alice, got %s", Config.ChangedBy)
	}
	if Config.HTTP.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", Config.HTTP.Port)
	}
	if Config.Logging.Format != "json" {
		t.Errorf("Expected json logging format, got %s", Config.Logging.Format)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	original := Config
	defer func() { Config = original }()

	Config = validConfig()
	if err := Load(filepath.Join(t.TempDir(), "missing.toml")); err != nil {
		t.Fatalf("Expected no error for missing config file, got: %v", err)
	}

	if Config.HTTP.Port != 3000 {
		t.Errorf("Expected default port 3000, got %d", Config.HTTP.Port)
	}
}
