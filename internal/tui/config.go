package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// Config holds the chat client settings. Values come from an optional YAML
// file; DMCHAT_* environment variables override them.
type Config struct {
	APIURL   string `yaml:"api_url" env:"DMCHAT_API_URL"`
	UserID   int    `yaml:"user_id" env:"DMCHAT_USER_ID"`
	LogFile  string `yaml:"log_file" env:"DMCHAT_LOG_FILE"`
	LogLevel string `yaml:"log_level" env:"DMCHAT_LOG_LEVEL"`
}

// LoadConfig reads path (skipped when empty) over the defaults, then applies
// the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		APIURL:   "http://localhost:8080",
		LogLevel: "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if c.UserID < 1 {
		return errors.New("user_id must be at least 1")
	}
	return nil
}
