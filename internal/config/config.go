// Package config loads run configuration for the agent loop from a
// YAML or JSON5 file, resolving $include directives and environment
// variable expansion before decoding.
package config

// Config is the top-level run configuration for a Loop.
type Config struct {
	// Provider is the registry name: "openai", "github", "anthropic", "google"
	// (or a legacy alias: "copilot", "claude", "gemini").
	Provider string `yaml:"provider"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`

	// MaxTokens caps total output tokens per completion call.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Temperature is the sampling temperature passed to the provider.
	Temperature float64 `yaml:"temperature,omitempty"`

	// Reasoning requests extended/thinking mode on providers that support it.
	Reasoning bool `yaml:"reasoning,omitempty"`

	// Debug is forwarded to every provider call as CompleteOptions.Debug.
	// None of the adapters reads it, so it turns on no extra logging.
	Debug bool `yaml:"debug,omitempty"`

	// MaxTurns bounds the loop's turn count before it fails with
	// "Failed to perform step, max attempts reached".
	MaxTurns int `yaml:"max_turns,omitempty"`

	// BudgetTokens is an optional total input+output token budget for the run.
	// Zero means unbounded.
	BudgetTokens int `yaml:"budget_tokens,omitempty"`

	// Summarize enables conversation summarisation between turns.
	Summarize bool `yaml:"summarize,omitempty"`

	Cache   CacheConfig   `yaml:"cache,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// CacheConfig configures the replay cache.
type CacheConfig struct {
	// Dir is the directory holding __cache__/<provider>/<name>.json files.
	Dir string `yaml:"dir,omitempty"`

	// TestName is used to derive the cache file name for a run.
	TestName string `yaml:"test_name,omitempty"`
}

// LoggingConfig configures the observability logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a Config with the loop's documented defaults applied:
// MaxTurns 100, MaxTokens 4096.
func Default() *Config {
	return &Config{
		MaxTurns:  100,
		MaxTokens: 4096,
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

// sanitize fills zero-valued fields with their documented defaults.
func (c *Config) sanitize() {
	if c.MaxTurns <= 0 {
		c.MaxTurns = 100
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Load reads path, resolves $include directives, expands environment
// variables, and decodes the result into a sanitized Config.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.sanitize()
	return cfg, nil
}
