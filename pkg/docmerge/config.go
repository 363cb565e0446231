package docmerge

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the render engine.
type Config struct {
	// CacheMaxSize is the maximum number of rendered outputs to cache
	// in-process. 0 disables caching.
	CacheMaxSize int `yaml:"cache_max_size"`
	// CacheTTL is the time-to-live used by the Redis cache backend.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// RedisURL, when set, selects the shared Redis render cache.
	RedisURL string `yaml:"redis_url"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// NumericFields lists the field names whose values keep their native
	// numeric type in grid cells.
	NumericFields []string `yaml:"numeric_fields"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:  DefaultCacheCapacity,
		CacheTTL:      0,
		LogLevel:      "info",
		NumericFields: DefaultNumericFields,
	}
}

// ConfigFromEnvironment creates a configuration from DOCMERGE_* environment
// variables, falling back to defaults for anything unset.
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	if val := os.Getenv("DOCMERGE_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	if val := os.Getenv("DOCMERGE_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	if val := os.Getenv("DOCMERGE_REDIS_URL"); val != "" {
		config.RedisURL = val
	}

	if val := os.Getenv("DOCMERGE_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	if val := os.Getenv("DOCMERGE_NUMERIC_FIELDS"); val != "" {
		var fields []string
		for _, name := range strings.Split(val, ",") {
			if name = strings.TrimSpace(name); name != "" {
				fields = append(fields, name)
			}
		}
		config.NumericFields = fields
	}

	return config
}

// LoadConfigFile reads a YAML configuration file on top of the defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	return nil
}
