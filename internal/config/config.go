package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the admin gateway
type Config struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	Backend struct {
		BaseURL        string `mapstructure:"base_url"`
		Token          string `mapstructure:"token"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"backend"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
	} `mapstructure:"jwt"`

	Auth struct {
		APIKey    string `mapstructure:"api_key"`
		APISecret string `mapstructure:"api_secret"`
	} `mapstructure:"auth"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Deposits struct {
		RefreshIntervalSeconds int `mapstructure:"refresh_interval_seconds"`
	} `mapstructure:"deposits"`
}

// BackendTimeout returns the HTTP timeout for trading backend calls
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// TokenExpiration returns the operator JWT lifetime
func (c *Config) TokenExpiration() time.Duration {
	return time.Duration(c.JWT.ExpirationHours) * time.Hour
}

// RefreshInterval returns how often the pending-deposit list is refetched
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Deposits.RefreshIntervalSeconds) * time.Second
}

// Load reads configuration from configs/config.yaml and the environment.
// The config file is optional; the binary works from defaults and env vars.
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Auto bind environment variables
	v.AutomaticEnv()

	// Set sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8080)
	v.SetDefault("backend.base_url", "http://localhost:9090")
	v.SetDefault("backend.timeout_seconds", 10)
	v.SetDefault("jwt.secret", "brokerdesk-secret-key")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("auth.api_key", "test-api-key")
	v.SetDefault("auth.api_secret", "test-api-secret")
	v.SetDefault("database.path", "admin.db")
	v.SetDefault("deposits.refresh_interval_seconds", 300)

	// Config file is optional, a malformed one is not
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
