package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Lifecycle.TimeoutSeconds != 300 {
		t.Errorf("Lifecycle.TimeoutSeconds = %d, want 300", cfg.Lifecycle.TimeoutSeconds)
	}
	if !cfg.Lifecycle.FailOnStderr {
		t.Error("FailOnStderr should default to true")
	}
	if cfg.Inventory.MaxSearchLimit != 500 {
		t.Errorf("MaxSearchLimit = %d, want 500", cfg.Inventory.MaxSearchLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Store.Path != filepath.Join(root, "data", "inventory.db") {
		t.Errorf("Store.Path = %q, want resolved default", cfg.Store.Path)
	}
	if cfg.Lifecycle.WorkDir != root {
		t.Errorf("Lifecycle.WorkDir = %q, want %q", cfg.Lifecycle.WorkDir, root)
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Store.Path = "inv.db"
	cfg.Lifecycle.TimeoutSeconds = 42
	cfg.Logging.Level = "debug"
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, DirName, "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Store.Path != filepath.Join(root, "inv.db") {
		t.Errorf("Store.Path = %q", loaded.Store.Path)
	}
	if loaded.Lifecycle.TimeoutSeconds != 42 {
		t.Errorf("TimeoutSeconds = %d, want 42", loaded.Lifecycle.TimeoutSeconds)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", loaded.Logging.Level)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "custom.json")
	body := `{"version":1,"store":{"driver":"postgres","dsn":"postgres://inv@localhost/inv"}}`
	if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(root, file)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Store.Driver != "postgres" || cfg.Store.DSN == "" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	// Unset keys keep their defaults.
	if cfg.Lifecycle.Interpreter != "python3" {
		t.Errorf("Interpreter = %q, want python3", cfg.Lifecycle.Interpreter)
	}

	if _, err := LoadConfig(root, filepath.Join(root, "nope.json")); err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv("GOVINV_LIFECYCLE_TIMEOUTSECONDS", "15")

	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("GOVINV_LOGGING_LEVEL=warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GOVINV_LOGGING_LEVEL") })

	cfg, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Lifecycle.TimeoutSeconds != 15 {
		t.Errorf("TimeoutSeconds = %d, want 15", cfg.Lifecycle.TimeoutSeconds)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn from .env", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"bad version", func(c *Config) { c.Version = 9 }, "version"},
		{"bad driver", func(c *Config) { c.Store.Driver = "oracle" }, "store.driver"},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, "store.dsn"},
		{"zero timeout", func(c *Config) { c.Lifecycle.TimeoutSeconds = 0 }, "lifecycle.timeoutSeconds"},
		{"no script", func(c *Config) { c.Lifecycle.Script = "" }, "lifecycle.script"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			ce, ok := err.(*ConfigError)
			if !ok || ce.Field != tt.wantField {
				t.Errorf("Validate() = %v, want field %q", err, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Error() = %q, want field name", err.Error())
			}
		})
	}
}

func TestValidateWithoutInterpreter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lifecycle.Interpreter = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for a directly executable script", err)
	}
}
