// Package config loads server configuration from an optional YAML file and
// FUEL_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kasb/fuel-revenue-engine/logger"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       logger.Config
	Schedule  ScheduleConfig
	Recompute RecomputeConfig
	HTTP      HTTPConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Env  string
	Port string
}

// DatabaseConfig points at the SQLite file. ":memory:" runs without one.
type DatabaseConfig struct {
	Path string
}

// ScheduleConfig locates the rate schedule. Empty uses the built-in schedule.
type ScheduleConfig struct {
	Path string
}

// RecomputeConfig controls background recomputation.
type RecomputeConfig struct {
	Interval  time.Duration // 0 disables the periodic run
	OnStartup bool
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
}

// Load reads configuration. Priority, highest first:
//  1. FUEL_* environment variables (FUEL_DATABASE_PATH, FUEL_LOG_LEVEL, ...)
//  2. the file at path, or ./config.yaml when path is empty
//  3. built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("FUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("recompute.on_startup", true)

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{Path: v.GetString("database.path")},
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Schedule: ScheduleConfig{Path: v.GetString("schedule.path")},
		Recompute: RecomputeConfig{
			Interval:  v.GetDuration("recompute.interval"),
			OnStartup: v.GetBool("recompute.on_startup"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "fuel.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.IsProduction() {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
}

func (c *Config) validate() error {
	if c.Recompute.Interval < 0 {
		return fmt.Errorf("recompute.interval must not be negative, got %s", c.Recompute.Interval)
	}
	if c.IsProduction() && c.Database.Path == ":memory:" {
		return errors.New("database.path must be a file in production")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.App.Port
}
