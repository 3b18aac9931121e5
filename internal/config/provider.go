package config

import (
	"fmt"
	"os"

	"docsmith/internal/domain"
)

// ProviderConfig defines configuration for a single generation provider.
// The full provider list is loaded once at startup; the fallback executor
// tries providers strictly in ascending priority order.
type ProviderConfig struct {
	ID              string  `mapstructure:"id"`       // Unique identifier for this provider
	Type            string  `mapstructure:"type"`     // Adapter type: "openai-compatible", "anthropic"
	Model           string  `mapstructure:"model"`    // Model name/ID
	Priority        int     `mapstructure:"priority"` // Lower is tried first
	APIKey          string  `mapstructure:"api_key"`  // API key (can be set directly or via env var)
	APIKeyEnv       string  `mapstructure:"api_key_env"`
	BaseURL         string  `mapstructure:"base_url"`
	BaseURLEnv      string  `mapstructure:"base_url_env"`
	CostPerMTokIn   float64 `mapstructure:"cost_per_mtok_in"`  // USD per million input tokens
	CostPerMTokOut  float64 `mapstructure:"cost_per_mtok_out"` // USD per million output tokens
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
}

// ResolveEnvVars resolves environment variable references in the configuration.
// Direct values take precedence if already set.
func (c *ProviderConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}
	if c.BaseURLEnv != "" && c.BaseURL == "" {
		if val := os.Getenv(c.BaseURLEnv); val != "" {
			c.BaseURL = val
		}
	}
}

// Validate checks that the provider configuration has all required fields.
// Returns an error describing the first validation failure, or nil if valid.
func (c *ProviderConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("provider config: id is required")
	}
	if c.Model == "" {
		return fmt.Errorf("provider %q: model is required", c.ID)
	}
	if c.Priority < 0 {
		return fmt.Errorf("provider %q: priority must be non-negative", c.ID)
	}

	switch c.Type {
	case "openai-compatible", "anthropic":
		// Valid adapter types
	default:
		return fmt.Errorf("provider %q: unknown type %q", c.ID, c.Type)
	}

	return nil
}

// Clone creates a deep copy of the provider configuration.
func (c *ProviderConfig) Clone() *ProviderConfig {
	out := *c
	return &out
}

// Spec returns the immutable provider spec derived from this configuration.
func (c *ProviderConfig) Spec() domain.ProviderSpec {
	return domain.ProviderSpec{
		ID:              c.ID,
		Priority:        c.Priority,
		Model:           c.Model,
		CostPerMTokIn:   c.CostPerMTokIn,
		CostPerMTokOut:  c.CostPerMTokOut,
		MaxOutputTokens: c.MaxOutputTokens,
	}
}
