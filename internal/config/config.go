package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// DirName is the per-root directory holding config.json.
const DirName = ".govinv"

// Config represents the complete govinv configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Store     StoreConfig     `json:"store" mapstructure:"store"`
	Inventory InventoryConfig `json:"inventory" mapstructure:"inventory"`
	Lifecycle LifecycleConfig `json:"lifecycle" mapstructure:"lifecycle"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	Server    ServerConfig    `json:"server" mapstructure:"server"`
}

// StoreConfig selects and locates the inventory database
type StoreConfig struct {
	Driver              string `json:"driver" mapstructure:"driver"` // sqlite, postgres, mysql
	Path                string `json:"path" mapstructure:"path"`     // sqlite file
	DSN                 string `json:"dsn" mapstructure:"dsn"`       // postgres/mysql
	MaxOpenConns        int    `json:"maxOpenConns" mapstructure:"maxOpenConns"`
	QueryTimeoutSeconds int    `json:"queryTimeoutSeconds" mapstructure:"queryTimeoutSeconds"`
}

// InventoryConfig contains directory inventory settings
type InventoryConfig struct {
	CachePath            string `json:"cachePath" mapstructure:"cachePath"`
	MaxSearchLimit       int    `json:"maxSearchLimit" mapstructure:"maxSearchLimit"`
	RecentChangesMinutes int    `json:"recentChangesMinutes" mapstructure:"recentChangesMinutes"`
}

// LifecycleConfig describes how the maintenance process is invoked
type LifecycleConfig struct {
	// Interpreter runs Script. Empty executes Script directly.
	Interpreter    string `json:"interpreter" mapstructure:"interpreter"`
	Script         string `json:"script" mapstructure:"script"`
	WorkDir        string `json:"workDir" mapstructure:"workDir"`
	TimeoutSeconds int    `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	FailOnStderr   bool   `json:"failOnStderr" mapstructure:"failOnStderr"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSizeMB  int    `json:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// ServerConfig contains HTTP transport settings
type ServerConfig struct {
	Addr        string   `json:"addr" mapstructure:"addr"`
	CORSOrigins []string `json:"corsOrigins" mapstructure:"corsOrigins"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Store: StoreConfig{
			Driver:              "sqlite",
			Path:                "data/inventory.db",
			MaxOpenConns:        4,
			QueryTimeoutSeconds: 30,
		},
		Inventory: InventoryConfig{
			MaxSearchLimit:       500,
			RecentChangesMinutes: 60,
		},
		Lifecycle: LifecycleConfig{
			Interpreter:    "python3",
			Script:         "governance-lifecycle-manager.py",
			TimeoutSeconds: 300,
			FailOnStderr:   true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Server: ServerConfig{
			Addr:        "localhost:8088",
			CORSOrigins: []string{"*"},
		},
	}
}

// LoadConfig loads configuration for root. Precedence, highest first:
// GOVINV_* environment variables (including ones from root/.env), the config
// file (explicitFile, or root/.govinv/config.json), defaults. Relative paths
// in the result are resolved against root.
func LoadConfig(root, explicitFile string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &ConfigError{Field: ".env", Message: err.Error()}
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("GOVINV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("json")
	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(root, DirName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.resolvePaths(root)
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.maxOpenConns", d.Store.MaxOpenConns)
	v.SetDefault("store.queryTimeoutSeconds", d.Store.QueryTimeoutSeconds)
	v.SetDefault("inventory.cachePath", d.Inventory.CachePath)
	v.SetDefault("inventory.maxSearchLimit", d.Inventory.MaxSearchLimit)
	v.SetDefault("inventory.recentChangesMinutes", d.Inventory.RecentChangesMinutes)
	v.SetDefault("lifecycle.interpreter", d.Lifecycle.Interpreter)
	v.SetDefault("lifecycle.script", d.Lifecycle.Script)
	v.SetDefault("lifecycle.workDir", d.Lifecycle.WorkDir)
	v.SetDefault("lifecycle.timeoutSeconds", d.Lifecycle.TimeoutSeconds)
	v.SetDefault("lifecycle.failOnStderr", d.Lifecycle.FailOnStderr)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSizeMB", d.Logging.MaxSizeMB)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.corsOrigins", d.Server.CORSOrigins)
}

func (c *Config) resolvePaths(root string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, filepath.FromSlash(p))
	}
	c.Store.Path = resolve(c.Store.Path)
	c.Inventory.CachePath = resolve(c.Inventory.CachePath)
	c.Lifecycle.Script = resolve(c.Lifecycle.Script)
	c.Logging.File = resolve(c.Logging.File)
	if c.Lifecycle.WorkDir == "" {
		c.Lifecycle.WorkDir = filepath.Dir(c.Lifecycle.Script)
	} else {
		c.Lifecycle.WorkDir = resolve(c.Lifecycle.WorkDir)
	}
}

// Save writes the configuration to root/.govinv/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return &ConfigError{Field: "store.path", Message: "required for the sqlite driver"}
		}
	case "postgres", "mysql":
		if c.Store.DSN == "" {
			return &ConfigError{Field: "store.dsn", Message: "required for the " + c.Store.Driver + " driver"}
		}
	default:
		return &ConfigError{Field: "store.driver", Message: "must be one of sqlite, postgres, mysql"}
	}
	if c.Store.QueryTimeoutSeconds <= 0 {
		return &ConfigError{Field: "store.queryTimeoutSeconds", Message: "must be positive"}
	}
	if c.Inventory.MaxSearchLimit <= 0 {
		return &ConfigError{Field: "inventory.maxSearchLimit", Message: "must be positive"}
	}
	if c.Lifecycle.Script == "" {
		return &ConfigError{Field: "lifecycle.script", Message: "required"}
	}
	if c.Lifecycle.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "lifecycle.timeoutSeconds", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
