// Package config loads spawn configuration from a YAML file with
// environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all spawn configuration.
type Config struct {
	// Listen is the HTTP listen address for the API server.
	Listen string `yaml:"listen"`

	// DatabasePath is the SQLite database file path.
	DatabasePath string `yaml:"database_path"`

	LLM     LLMConfig     `yaml:"llm"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Search  SearchConfig  `yaml:"search"`
	Agent   AgentConfig   `yaml:"agent"`
}

// LLMConfig configures the code-generation model.
type LLMConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// SandboxConfig configures the remote execution provider.
type SandboxConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Template string `yaml:"template"`
	// TTL is how long an idle sandbox stays alive; heartbeats re-assert it.
	TTL string `yaml:"ttl"`
	// DevPort is the port the generated project's dev server listens on.
	DevPort int `yaml:"dev_port"`
}

// SearchConfig configures the web search provider.
type SearchConfig struct {
	// SerperAPIKey enables the Serper JSON API. When empty, general
	// searches fall back to DuckDuckGo HTML scraping.
	SerperAPIKey string `yaml:"serper_api_key"`
	MaxResults   int    `yaml:"max_results"`
}

// AgentConfig bounds the agent loop.
type AgentConfig struct {
	// MaxIterations is the safety backstop against infinite tool-call
	// cycles. Exceeding it aborts the turn.
	MaxIterations int `yaml:"max_iterations"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Listen:       ":3001",
		DatabasePath: "spawn.db",
		LLM: LLMConfig{
			Model:           "gemini-2.5-pro",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Timeout:         "10m",
			MaxOutputTokens: 8192,
		},
		Sandbox: SandboxConfig{
			BaseURL: "https://api.e2b.dev",
			TTL:     "5m",
			DevPort: 5173,
		},
		Search: SearchConfig{
			MaxResults: 5,
		},
		Agent: AgentConfig{
			MaxIterations: 32,
		},
	}
}

// Load reads the config file at path, applies defaults for missing values,
// then applies environment overrides. A missing file is not an error; the
// defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and addresses from the environment.
// Environment always wins over the file so deployments can keep keys
// out of config files.
func (c *Config) applyEnv() {
	if v := os.Getenv("SPAWN_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SPAWN_DB"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("E2B_API_KEY"); v != "" {
		c.Sandbox.APIKey = v
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		c.Search.SerperAPIKey = v
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path required")
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent max_iterations must be positive")
	}
	if c.Sandbox.DevPort <= 0 || c.Sandbox.DevPort > 65535 {
		return fmt.Errorf("sandbox dev_port out of range: %d", c.Sandbox.DevPort)
	}
	if _, err := c.LLMTimeout(); err != nil {
		return fmt.Errorf("invalid llm timeout: %w", err)
	}
	if _, err := c.SandboxTTL(); err != nil {
		return fmt.Errorf("invalid sandbox ttl: %w", err)
	}
	return nil
}

// LLMTimeout parses the LLM request timeout.
func (c *Config) LLMTimeout() (time.Duration, error) {
	if c.LLM.Timeout == "" {
		return 10 * time.Minute, nil
	}
	return time.ParseDuration(c.LLM.Timeout)
}

// SandboxTTL parses the sandbox idle lifetime.
func (c *Config) SandboxTTL() (time.Duration, error) {
	if c.Sandbox.TTL == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(c.Sandbox.TTL)
}
