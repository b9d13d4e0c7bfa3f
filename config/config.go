// Package config loads the payroll server configuration.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, PAYROLL_*
// environment variables (optionally read from a .env file), command-line
// flags applied by cmd/server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/payroll-engine/taxes"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the whole server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Tables   TablesConfig   `yaml:"tables"`
	Employer EmployerConfig `yaml:"employer"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// StorageConfig configures the payslip archive.
type StorageConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver"`

	// DBPath is the SQLite file. ":memory:" keeps the database in memory.
	DBPath string `yaml:"db_path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// TablesConfig selects the rate tables.
type TablesConfig struct {
	// Path to a YAML or JSON table document. Empty uses the compiled-in tables.
	Path string `yaml:"path"`

	// SocialSecurityPolicy overrides the document's bracket policy when set:
	// "last_match" or "first_match".
	SocialSecurityPolicy string `yaml:"social_security_policy"`
}

// EmployerConfig is printed in the left header of every payslip.
type EmployerConfig struct {
	Header []string `yaml:"header"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			AllowedOrigins:     []string{"*"},
			ShutdownTimeoutRaw: "10s",
		},
		Storage: StorageConfig{Driver: "sqlite", DBPath: "./data/payroll.db"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, applies PAYROLL_*
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnvFile loads variables from .env files into the process environment.
// Missing files are not an error; variables already set are kept.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

const envPrefix = "PAYROLL_"

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := get("SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeoutRaw = v
	}
	if v, ok := get("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := get("DB_PATH"); ok {
		c.Storage.DBPath = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_DEVELOPMENT"); ok {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sLOG_DEVELOPMENT: %w", envPrefix, err)
		}
		c.Log.Development = dev
	}
	if v, ok := get("TABLES_PATH"); ok {
		c.Tables.Path = v
	}
	if v, ok := get("SOCIAL_SECURITY_POLICY"); ok {
		c.Tables.SocialSecurityPolicy = v
	}
	if v, ok := get("EMPLOYER_HEADER"); ok {
		c.Employer.Header = strings.Split(v, "|")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

func (c *Config) validateAndNormalize() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must be set")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	timeout, err := parseDurationAllowEmpty(c.Server.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c.Server.ShutdownTimeout = timeout

	switch c.Storage.Driver {
	case "", "sqlite":
		c.Storage.Driver = "sqlite"
		if c.Storage.DBPath == "" {
			return fmt.Errorf("config: storage.db_path must be set")
		}
	case "memory":
	default:
		return fmt.Errorf("config: storage.driver %q: want sqlite or memory", c.Storage.Driver)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}

	if c.Tables.SocialSecurityPolicy != "" {
		if _, err := taxes.ParseBracketPolicy(c.Tables.SocialSecurityPolicy); err != nil {
			return fmt.Errorf("config: tables.social_security_policy: %w", err)
		}
	}

	if len(c.Employer.Header) > 3 {
		return fmt.Errorf("config: employer.header has %d lines, at most 3", len(c.Employer.Header))
	}

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

// EmployerHeader returns the header lines padded to three.
func (c *Config) EmployerHeader() [3]string {
	var out [3]string
	copy(out[:], c.Employer.Header)
	return out
}

// NewLogger builds the zap logger described by the log section.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
