package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all venturelens configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Model provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Per-role model overrides
	Models ModelsConfig `yaml:"models"`

	// Pipeline execution settings
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Report storage
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the model provider shared by every role.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// ModelsConfig overrides the model per pipeline role. An empty value keeps
// the provider default.
type ModelsConfig struct {
	ContextAnalyzer   string `yaml:"context_analyzer"`
	ResearchEngine    string `yaml:"research_engine"`
	Validator         string `yaml:"validator"`
	SolutionArchitect string `yaml:"solution_architect"`
}

// PipelineConfig configures pipeline execution.
type PipelineConfig struct {
	// Time limit for one model call
	CallTimeout string `yaml:"call_timeout"`
}

// StorageConfig configures report storage.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "venturelens",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider: "anthropic",
			Timeout:  "120s",
		},

		Pipeline: PipelineConfig{
			CallTimeout: "120s",
		},

		Storage: StorageConfig{
			DatabasePath: "data/venturelens.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "venturelens.log",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API key from environment (check in priority order)
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "anthropic"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}

	// Database path from environment
	if path := os.Getenv("VENTURELENS_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
}

// GetCallTimeout returns the per-call time limit as a duration.
func (c *Config) GetCallTimeout() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.CallTimeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetLLMTimeout returns the provider HTTP timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// ModelFor returns the configured model override for a pipeline role, or
// empty when the provider default applies.
func (c *Config) ModelFor(role string) string {
	switch role {
	case "context_analyzer":
		return c.Models.ContextAnalyzer
	case "research_engine":
		return c.Models.ResearchEngine
	case "validator":
		return c.Models.Validator
	case "solution_architect":
		return c.Models.SolutionArchitect
	}
	return ""
}

// ValidProviders lists all supported model providers.
var ValidProviders = []string{"anthropic", "openai", "gemini"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	return nil
}
