package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Version    string     `json:"version" mapstructure:"version"`
	SchemaPath string     `json:"schema_path" mapstructure:"schema_path"`
	OutputPath string     `json:"output_path" mapstructure:"output_path"`
	Database   Database   `json:"database" mapstructure:"database"`
	Service    Service    `json:"service" mapstructure:"service"`
	Generation Generation `json:"generation" mapstructure:"generation"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

// Service selects the row generation backend: a local in-process generator
// or an external HTTP endpoint.
type Service struct {
	Mode           string `json:"mode" mapstructure:"mode"`
	Endpoint       string `json:"endpoint" mapstructure:"endpoint"`
	APIKeyEnv      string `json:"api_key_env" mapstructure:"api_key_env"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	Seed           int64  `json:"seed,omitempty" mapstructure:"seed"`
}

type Generation struct {
	Rows              int               `json:"rows" mapstructure:"rows"`
	BatchSize         int               `json:"batch_size" mapstructure:"batch_size"`
	FKSampleLimit     int               `json:"fk_sample_limit" mapstructure:"fk_sample_limit"`
	MaxAttempts       int               `json:"max_attempts" mapstructure:"max_attempts"`
	ReplacementFactor int               `json:"replacement_factor" mapstructure:"replacement_factor"`
	RowTargets        map[string]int    `json:"row_targets,omitempty" mapstructure:"row_targets"`
	Instructions      map[string]string `json:"instructions,omitempty" mapstructure:"instructions"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.SchemaPath == "" {
		c.SchemaPath = "db/schema.sql"
	}
	if c.OutputPath == "" {
		c.OutputPath = "fabrik_out"
	}
	if c.Database.Provider == "" {
		c.Database.Provider = "postgresql"
	}
	if c.Database.URLEnv == "" {
		c.Database.URLEnv = "DATABASE_URL"
	}
	if c.Service.Mode == "" {
		c.Service.Mode = "local"
	}
	if c.Service.APIKeyEnv == "" {
		c.Service.APIKeyEnv = "FABRIK_API_KEY"
	}
	if c.Service.TimeoutSeconds == 0 {
		c.Service.TimeoutSeconds = 60
	}
	if c.Generation.Rows == 0 {
		c.Generation.Rows = 50
	}
	if c.Generation.BatchSize == 0 {
		c.Generation.BatchSize = 20
	}
	if c.Generation.FKSampleLimit == 0 {
		c.Generation.FKSampleLimit = 50
	}
	if c.Generation.MaxAttempts == 0 {
		c.Generation.MaxAttempts = 3
	}
	if c.Generation.ReplacementFactor == 0 {
		c.Generation.ReplacementFactor = 1
	}
}

func (c *Config) Validate() error {
	switch c.Database.Provider {
	case "postgresql", "postgres", "mysql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported database provider: %s (supported: postgresql, mysql, sqlite)", c.Database.Provider)
	}

	switch c.Service.Mode {
	case "local":
	case "http":
		if c.Service.Endpoint == "" {
			return fmt.Errorf("service.endpoint is required when service.mode is http")
		}
	default:
		return fmt.Errorf("unsupported service mode: %s (supported: local, http)", c.Service.Mode)
	}

	if c.Generation.Rows < 0 {
		return fmt.Errorf("generation.rows cannot be negative")
	}
	return nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) GetServiceAPIKey() string {
	return os.Getenv(c.Service.APIKeyEnv)
}
