// Package config loads YAML configuration for the rvl CLI and the
// examples, and resolves Redis connection URLs.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRedisURL is used when neither an explicit URL nor REDIS_URL
// is set.
const DefaultRedisURL = "redis://localhost:6379"

// Config holds the redisvl tooling configuration.
type Config struct {
	Redis      RedisConfig      `yaml:"redis"`
	Cache      CacheConfig      `yaml:"cache"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RedisConfig holds connection settings. URL takes precedence over the
// discrete fields.
type RedisConfig struct {
	URL      string   `yaml:"url"`
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// CacheConfig holds semantic cache settings.
type CacheConfig struct {
	Name              string  `yaml:"name"`
	Prefix            string  `yaml:"prefix"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
	TTLSeconds        int     `yaml:"ttl_sec"` // 0 = no expiry
}

// VectorizerConfig holds embedding provider settings.
type VectorizerConfig struct {
	Provider   string `yaml:"provider"` // openai, ollama
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads configuration from a YAML file, expanding ${VAR} and
// ${VAR:-default} references from the environment.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Cache.Name == "" {
		c.Cache.Name = "cache"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "llmcache"
	}
	if c.Cache.DistanceThreshold <= 0 {
		c.Cache.DistanceThreshold = 0.1
	}
	if c.Vectorizer.Provider == "" {
		c.Vectorizer.Provider = "openai"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Cache.DistanceThreshold < 0 || c.Cache.DistanceThreshold > 1 {
		return fmt.Errorf("cache.distance_threshold must be in [0, 1], got %g", c.Cache.DistanceThreshold)
	}
	switch c.Vectorizer.Provider {
	case "", "openai", "ollama":
		// ok
	default:
		return fmt.Errorf("vectorizer.provider must be \"openai\" or \"ollama\", got %q", c.Vectorizer.Provider)
	}
	if c.Redis.URL != "" {
		if _, err := ParseRedisURL(c.Redis.URL); err != nil {
			return err
		}
	}
	return nil
}

// RedisURL resolves the connection URL: config value, then REDIS_URL
// from the environment, then DefaultRedisURL.
func (c *Config) RedisURL() string {
	return ResolveRedisURL(c.Redis.URL)
}

// ResolveRedisURL applies the URL precedence chain: explicit value,
// REDIS_URL environment variable, DefaultRedisURL.
func ResolveRedisURL(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("REDIS_URL"); env != "" {
		return env
	}
	return DefaultRedisURL
}

// ParseRedisURL splits redis://[user[:pass]@]host[:port][/db] into
// connection settings. rediss:// is accepted but TLS setup is left to
// the caller.
func ParseRedisURL(raw string) (RedisConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return RedisConfig{}, fmt.Errorf("parse redis url: %w", err)
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return RedisConfig{}, fmt.Errorf("parse redis url: unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return RedisConfig{}, fmt.Errorf("parse redis url: host is required")
	}

	port := u.Port()
	if port == "" {
		port = "6379"
	}

	cfg := RedisConfig{
		Addrs:    []string{u.Hostname() + ":" + port},
		Username: u.User.Username(),
	}
	if pass, ok := u.User.Password(); ok {
		cfg.Password = pass
	}

	if path := strings.TrimPrefix(u.Path, "/"); path != "" {
		db, err := strconv.Atoi(path)
		if err != nil || db < 0 {
			return RedisConfig{}, fmt.Errorf("parse redis url: invalid db %q", path)
		}
		cfg.DB = db
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
