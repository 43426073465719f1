package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inkwellhq/inkwell/llm"
	"github.com/inkwellhq/inkwell/session"
	"github.com/inkwellhq/inkwell/shield"
)

// Config holds all inkwell service configuration.
type Config struct {
	Listen       string `yaml:"listen"`
	LogLevel     string `yaml:"log_level"`
	DBPath       string `yaml:"db_path"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`

	// AuthTokenHash is the bcrypt hash of the API bearer token. Empty
	// disables authentication (local mode only).
	AuthTokenHash string `yaml:"auth_token_hash"`

	Session  SessionConfig  `yaml:"session"`
	Docstore DocstoreConfig `yaml:"docstore"`
	LLM      llm.Config     `yaml:"llm"`
	MCP      MCPConfig      `yaml:"mcp"`

	RateLimits map[string]shield.RateLimitConfig `yaml:"rate_limits"`
}

// SessionConfig selects the conversation-state backend.
type SessionConfig struct {
	Backend string        `yaml:"backend"` // memory | sqlite
	TTL     time.Duration `yaml:"ttl"`
}

// DocstoreConfig points at the external document service.
type DocstoreConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// MCPConfig controls the optional MCP tool transport.
type MCPConfig struct {
	Transport string `yaml:"transport"` // "" | stdio
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":8086"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DBPath == "" {
		c.DBPath = "db/inkwell.db"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "sqlite"
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = session.DefaultTTL
	}
	if c.RateLimits == nil {
		c.RateLimits = map[string]shield.RateLimitConfig{
			"POST /v1/chat": {MaxRequests: 30, WindowSeconds: 60, Enabled: true},
		}
	}
}

// LoadConfig reads a YAML config file and applies environment overrides for
// secrets. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	if v := os.Getenv("DOCSTORE_TOKEN"); v != "" {
		cfg.Docstore.Token = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("AUTH_TOKEN_HASH"); v != "" {
		cfg.AuthTokenHash = v
	}

	cfg.defaults()
	return cfg, nil
}
