// Package config loads and validates the engine configuration from a
// YAML file, with environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all promptsmith configuration.
type Config struct {
	// Engine settings
	Engine EngineConfig `yaml:"engine"`

	// Budget settings
	Budget BudgetConfig `yaml:"budget"`

	// Tokens settings
	Tokens TokensConfig `yaml:"tokens"`

	// Persona element source
	Persona PersonaConfig `yaml:"persona"`

	// Summarizer settings
	Summarizer SummarizerConfig `yaml:"summarizer"`

	// Extra model descriptors registered on top of the builtins
	Models []ModelConfig `yaml:"models,omitempty"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures the construction façade.
type EngineConfig struct {
	DefaultTemplate     string `yaml:"default_template"`
	MaxSelectedElements int    `yaml:"max_selected_elements"`
	CacheEnabled        bool   `yaml:"cache_enabled"`
	CacheTTL            string `yaml:"cache_ttl"`
}

// BudgetConfig configures token-budget fitting.
type BudgetConfig struct {
	ReservedOutputTokens int     `yaml:"reserved_output_tokens"`
	SummarizeTrigger     float64 `yaml:"summarize_trigger"`

	// Section shares, fractions of the input budget.
	SystemShare  float64 `yaml:"system_share"`
	UserShare    float64 `yaml:"user_share"`
	HistoryShare float64 `yaml:"history_share"`
	ContextShare float64 `yaml:"context_share"`
	ToolsShare   float64 `yaml:"tools_share"`
}

// TokensConfig selects the token estimator.
type TokensConfig struct {
	Estimator string `yaml:"estimator"` // heuristic, tiktoken
	Encoding  string `yaml:"encoding"`  // tiktoken encoding name
}

// PersonaConfig configures the contextual-element source.
type PersonaConfig struct {
	Source       string `yaml:"source"` // file, sqlite, none
	Directory    string `yaml:"directory"`
	DatabasePath string `yaml:"database_path"`
	Watch        bool   `yaml:"watch"`
}

// SummarizerConfig configures optional history/context summarization.
type SummarizerConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// ModelConfig is a user-supplied model descriptor.
type ModelConfig struct {
	ID                   string `yaml:"id"`
	MaxContextTokens     int    `yaml:"max_context_tokens"`
	ReservedOutputTokens int    `yaml:"reserved_output_tokens"`
	ToolFormat           string `yaml:"tool_format"`
	VisionSupport        bool   `yaml:"vision_support"`
	PromptFormat         string `yaml:"prompt_format"`
	TokenizerID          string `yaml:"tokenizer_id"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Directory string `yaml:"directory"`
	Level     string `yaml:"level"`
	Enabled   bool   `yaml:"enabled"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DefaultTemplate:     "chat",
			MaxSelectedElements: 10,
			CacheEnabled:        true,
			CacheTTL:            "5m",
		},
		Budget: BudgetConfig{
			ReservedOutputTokens: 1024,
			SummarizeTrigger:     1.5,
			SystemShare:          0.20,
			UserShare:            0.15,
			HistoryShare:         0.35,
			ContextShare:         0.20,
			ToolsShare:           0.10,
		},
		Tokens: TokensConfig{
			Estimator: "heuristic",
			Encoding:  "cl100k_base",
		},
		Persona: PersonaConfig{
			Source:    "none",
			Directory: "personas",
		},
		Summarizer: SummarizerConfig{
			Model: "gemini-2.0-flash",
		},
		Logging: LoggingConfig{
			Directory: "logs",
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
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

// applyEnvOverrides applies environment variable overrides. Secrets
// never belong in the YAML file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Summarizer.APIKey = key
	}
	if dir := os.Getenv("PROMPTSMITH_LOG_DIR"); dir != "" {
		c.Logging.Directory = dir
		c.Logging.Enabled = true
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Engine.CacheTTL != "" {
		if _, err := time.ParseDuration(c.Engine.CacheTTL); err != nil {
			return fmt.Errorf("invalid engine.cache_ttl %q: %w", c.Engine.CacheTTL, err)
		}
	}

	switch c.Tokens.Estimator {
	case "", "heuristic", "tiktoken":
	default:
		return fmt.Errorf("unknown tokens.estimator %q (want heuristic or tiktoken)", c.Tokens.Estimator)
	}

	switch c.Persona.Source {
	case "", "none", "file", "sqlite":
	default:
		return fmt.Errorf("unknown persona.source %q (want none, file, or sqlite)", c.Persona.Source)
	}
	if c.Persona.Source == "file" && c.Persona.Directory == "" {
		return fmt.Errorf("persona.directory is required when persona.source is file")
	}
	if c.Persona.Source == "sqlite" && c.Persona.DatabasePath == "" {
		return fmt.Errorf("persona.database_path is required when persona.source is sqlite")
	}

	if c.Summarizer.Enabled && c.Summarizer.APIKey == "" {
		return fmt.Errorf("summarizer.api_key (or GEMINI_API_KEY) is required when the summarizer is enabled")
	}

	shares := []struct {
		name  string
		value float64
	}{
		{"system_share", c.Budget.SystemShare},
		{"user_share", c.Budget.UserShare},
		{"history_share", c.Budget.HistoryShare},
		{"context_share", c.Budget.ContextShare},
		{"tools_share", c.Budget.ToolsShare},
	}
	for _, s := range shares {
		if s.value < 0 || s.value > 1 {
			return fmt.Errorf("budget.%s must be within [0, 1], got %v", s.name, s.value)
		}
	}

	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("every models entry needs an id")
		}
		if m.MaxContextTokens <= 0 {
			return fmt.Errorf("model %q needs a positive max_context_tokens", m.ID)
		}
	}

	return nil
}

// CacheTTL returns the parsed cache TTL, or fallback when unset.
func (c *Config) CacheTTL(fallback time.Duration) time.Duration {
	if c.Engine.CacheTTL == "" {
		return fallback
	}
	d, err := time.ParseDuration(c.Engine.CacheTTL)
	if err != nil {
		return fallback
	}
	return d
}
