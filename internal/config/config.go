package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutDownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	WriteOrigins       string        `mapstructure:"write_origins"`
}

// DataConfig holds document store persistence settings.
type DataConfig struct {
	FilePath        string        `mapstructure:"file_path"`
	PersistInterval time.Duration `mapstructure:"persist_interval"`
}

// RemoteConfig holds settings for the client data layer (CLI and tooling).
type RemoteConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DedupFetches   bool          `mapstructure:"dedup_fetches"`
}

// MiscConfig holds everything that does not fit elsewhere.
type MiscConfig struct {
	GinMode  string `mapstructure:"gin_mode"`
	LogLevel string `mapstructure:"log_level"`
}

// Config is the root configuration object.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Data   DataConfig   `mapstructure:"data"`
	Remote RemoteConfig `mapstructure:"remote"`
	Misc   MiscConfig   `mapstructure:"misc"`
}

// LoadConfig reads config.yaml (if present) and environment overrides.
// Environment variables like STOREFRONT_SERVER_PORT override server.port.
func LoadConfig(confPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(confPaths) == 0 {
		confPaths = []string{".", "./config"}
	}
	for _, p := range confPaths {
		v.AddConfigPath(p)
	}

	// Defaults to allow running without a config file
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 2*time.Second)
	v.SetDefault("server.cors_allowed_origins", "*")
	v.SetDefault("server.write_origins", "")
	v.SetDefault("data.file_path", "./config/data/store.json")
	v.SetDefault("data.persist_interval", 5*time.Second)
	v.SetDefault("remote.base_url", "http://localhost:8080/api")
	v.SetDefault("remote.request_timeout", 15*time.Second)
	v.SetDefault("remote.dedup_fetches", false)
	v.SetDefault("misc.gin_mode", "release")
	v.SetDefault("misc.log_level", "info")

	v.AutomaticEnv()
	v.SetEnvPrefix("STOREFRONT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.New("server read/write timeouts must be positive")
	}
	if c.Server.IdleTimeout <= 0 || c.Server.ShutDownTimeout <= 0 {
		return errors.New("server idle/shutdown timeouts must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}
	if c.Data.FilePath == "" {
		return errors.New("data file path is required")
	}
	if c.Data.PersistInterval <= 0 {
		return errors.New("data persist interval must be positive")
	}
	if c.Remote.BaseURL == "" {
		return errors.New("remote base url is required")
	}
	if c.Remote.RequestTimeout <= 0 {
		return errors.New("remote request timeout must be positive")
	}
	return nil
}
