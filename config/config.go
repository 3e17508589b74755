// Package config loads the client configuration from a YAML file with
// environment overrides, applying documented defaults for everything left
// unset.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type APIConfig struct {
	BaseAddress    string            `yaml:"base_address"`
	TimeoutMS      int               `yaml:"timeout_ms"`
	DefaultHeaders map[string]string `yaml:"default_headers"`
}

type CacheConfig struct {
	StaleAfterMS int `yaml:"stale_after_ms"`
	RetentionMS  int `yaml:"retention_ms"`
}

type SessionConfig struct {
	Driver    string `yaml:"driver"`     // "file" or "sqlite"
	StorePath string `yaml:"store_path"` // File or database path
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// Load reads the YAML config at path, then applies env overrides. A
// missing file is not an error; defaults and environment carry the load.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.setDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "[Load] reading config file")
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "[Load] parsing config file")
			}
		}
	}

	applyEnvOverrides(cfg)
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.API.BaseAddress == "" {
		c.API.BaseAddress = "http://localhost:8080/api/v1"
	}
	if c.API.TimeoutMS <= 0 {
		c.API.TimeoutMS = 30_000
	}
	if c.Cache.StaleAfterMS <= 0 {
		c.Cache.StaleAfterMS = int((5 * time.Minute).Milliseconds())
	}
	if c.Cache.RetentionMS <= 0 {
		c.Cache.RetentionMS = int((30 * time.Minute).Milliseconds())
	}
	if c.Session.Driver == "" {
		c.Session.Driver = "file"
	}
	if c.Session.StorePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Session.StorePath = home + "/.dashctl/session.json"
		} else {
			c.Session.StorePath = ".dashctl-session.json"
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DASHCTL_BASE_ADDRESS"); v != "" {
		cfg.API.BaseAddress = v
	}
	if v := os.Getenv("DASHCTL_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.API.TimeoutMS = ms
		}
	}
	if v := os.Getenv("DASHCTL_SESSION_PATH"); v != "" {
		cfg.Session.StorePath = v
	}
	if v := os.Getenv("DASHCTL_SESSION_DRIVER"); v != "" {
		cfg.Session.Driver = v
	}
	if v := os.Getenv("DASHCTL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Timeout returns the API timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutMS) * time.Millisecond
}

// StaleAfter returns the cache staleness window as a duration.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Cache.StaleAfterMS) * time.Millisecond
}

// Retention returns the cache retention window as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Cache.RetentionMS) * time.Millisecond
}
