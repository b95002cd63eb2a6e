// Package config loads service configuration from environment variables
// and optional YAML files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment names recognized in ServerConfig.Environment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config holds all configuration for the service.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Registration RegistrationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds SQLite storage configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" is accepted for
	// throwaway environments.
	Path string `mapstructure:"path"`
}

// JWTConfig holds token verification configuration.
type JWTConfig struct {
	Secret       string        `mapstructure:"secret"`
	AccessExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer       string        `mapstructure:"issuer"`
}

// RegistrationConfig holds lifecycle policy knobs.
type RegistrationConfig struct {
	// LateCutoff is how old an event may be before registering it needs
	// an explicit approval. Zero disables the check.
	LateCutoff time.Duration `mapstructure:"late_cutoff"`
}

// Load loads configuration from environment and config files, applying
// development defaults. For production use, prefer LoadWithValidation.
func Load() (*Config, error) {
	return loadConfig()
}

// LoadWithValidation loads configuration and validates it for the current
// environment. In production/staging this fails if required configuration
// is missing. Use in main() for fail-fast behavior.
func LoadWithValidation() (*Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Server.Environment == EnvProduction || cfg.Server.Environment == EnvStaging {
		if cfg.JWT.Secret == "" || cfg.JWT.Secret == defaultJWTSecret {
			return nil, errors.New("CRVS_JWT_SECRET must be set to a secure value in " + cfg.Server.Environment)
		}
		if cfg.Database.Path == "" || cfg.Database.Path == ":memory:" {
			return nil, errors.New("CRVS_DATABASE_PATH must point at a durable file in " + cfg.Server.Environment)
		}
	}

	return cfg, nil
}

const defaultJWTSecret = "dev-secret-change-in-production"

func loadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CRVS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("crvs")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/crvs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.environment", EnvDevelopment)

	v.SetDefault("database.path", "crvs.db")

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.access_expiry", 12*time.Hour)
	v.SetDefault("jwt.issuer", "crvs")

	v.SetDefault("registration.late_cutoff", 365*24*time.Hour)
}
