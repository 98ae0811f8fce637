// Package config loads the mock authority's TOML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultProcessingDelaySeconds applies when no processing delay is
// configured.
const DefaultProcessingDelaySeconds = 10

// Config holds all configuration for the dev server.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Auth    AuthConfig    `toml:"auth"`
	Redis   RedisConfig   `toml:"redis"`
	Uploads UploadsConfig `toml:"uploads"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// PublicBaseURL is the address clients reach the server on; stage
	// target URLs are minted against it. Android emulators for instance
	// see the host as 10.0.2.2, not localhost.
	PublicBaseURL string `toml:"public_base_url"`
}

// AuthConfig holds session settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// RedisConfig selects the optional Redis backing for nonces, revocations and
// events. Empty URL means in-memory.
type RedisConfig struct {
	URL string `toml:"url"`
}

// UploadsConfig holds processing-simulation settings.
type UploadsConfig struct {
	// ProcessingDelaySeconds is how long a completed upload stays in
	// "processing". Zero means uploads are ready immediately; unset
	// picks the default.
	ProcessingDelaySeconds *int `toml:"processing_delay_seconds"`
}

// ProcessingDelay returns the configured delay as a duration.
func (c *UploadsConfig) ProcessingDelay() time.Duration {
	if c.ProcessingDelaySeconds == nil {
		return DefaultProcessingDelaySeconds * time.Second
	}
	return time.Duration(*c.ProcessingDelaySeconds) * time.Second
}

// Load loads configuration from a TOML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.SetDefaults()
	return &config, nil
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults fills in defaults for unset values.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "dev-mock-secret"
	}
	// An explicit zero means "ready immediately", so only an absent key
	// falls back to the default.
	if c.Uploads.ProcessingDelaySeconds == nil {
		delay := DefaultProcessingDelaySeconds
		c.Uploads.ProcessingDelaySeconds = &delay
	}
}
