// Package config loads the YAML configuration of the WB API client tools.
//
// Values may reference environment variables as ${VAR}; they are expanded
// before parsing, so secrets can stay out of the file:
//
//	api:
//	  base_url: https://marketplace-api.wildberries.ru
//	  api_version: api/v3
//	  timeout: 30s
//	credentials:
//	  api_key: ${WB_API_KEY}
//	  scopes: [marketplace]
//	log:
//	  level: info
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/Sternrassler/wb-api-client/pkg/client"
	"github.com/Sternrassler/wb-api-client/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Log         logging.Config    `yaml:"log"`
	Serve       ServeConfig       `yaml:"serve"`
}

// APIConfig configures the request executor.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
}

// CredentialsConfig selects where the API key comes from. A non-empty
// Redis.Addr takes precedence over APIKey.
type CredentialsConfig struct {
	APIKey string      `yaml:"api_key"`
	Scopes []string    `yaml:"scopes"`
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig points at a shared credential store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Profile  string `yaml:"profile"`
}

// ServeConfig configures `wbctl serve`.
type ServeConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	var c Config
	return c.GetDefaults()
}

// GetDefaults returns a copy with zero fields replaced by defaults.
func (c Config) GetDefaults() Config {
	result := c

	if result.API.BaseURL == "" {
		result.API.BaseURL = client.DefaultBaseURL
	}
	if result.API.APIVersion == "" {
		result.API.APIVersion = client.DefaultAPIVersion
	}
	if result.API.Timeout == 0 {
		result.API.Timeout = client.DefaultTimeout
	}
	if result.Log.Level == "" {
		result.Log.Level = logging.LevelInfo
	}
	if result.Credentials.Redis.Addr != "" && result.Credentials.Redis.Profile == "" {
		result.Credentials.Redis.Profile = "default"
	}
	if result.Serve.Addr == "" {
		result.Serve.Addr = ":8080"
	}
	if result.Serve.RequestTimeout == 0 {
		result.Serve.RequestTimeout = 2 * time.Minute
	}

	return result
}

// Load reads the YAML file at path, expands environment variables, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML content the same way Load does.
func Parse(raw []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	cfg = cfg.GetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields New and Setup would reject later.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q must be an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ClientConfig converts the api section into an executor configuration.
func (c Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:    c.API.BaseURL,
		APIVersion: c.API.APIVersion,
		Timeout:    c.API.Timeout,
	}
}

// LoggingConfig returns the log section with output on stderr.
func (c Config) LoggingConfig() logging.Config {
	cfg := c.Log
	cfg.Output = os.Stderr
	return cfg
}
