package config

import "testing"

func TestProviderConfigValidate(t *testing.T) {
	valid := ProviderConfig{ID: "p1", Type: "openai-compatible", Model: "gpt-4o", Priority: 0}

	tests := []struct {
		name    string
		mutate  func(c *ProviderConfig)
		wantErr bool
	}{
		{"valid openai", func(c *ProviderConfig) {}, false},
		{"valid anthropic", func(c *ProviderConfig) { c.Type = "anthropic" }, false},
		{"missing id", func(c *ProviderConfig) { c.ID = "" }, true},
		{"missing model", func(c *ProviderConfig) { c.Model = "" }, true},
		{"negative priority", func(c *ProviderConfig) { c.Priority = -1 }, true},
		{"unknown type", func(c *ProviderConfig) { c.Type = "soap" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProviderConfigResolveEnvVars(t *testing.T) {
	t.Setenv("TEST_PROVIDER_KEY", "secret-from-env")

	cfg := ProviderConfig{APIKeyEnv: "TEST_PROVIDER_KEY"}
	cfg.ResolveEnvVars()
	if cfg.APIKey != "secret-from-env" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}

	// A directly configured key wins over the env reference.
	cfg = ProviderConfig{APIKey: "direct", APIKeyEnv: "TEST_PROVIDER_KEY"}
	cfg.ResolveEnvVars()
	if cfg.APIKey != "direct" {
		t.Errorf("APIKey = %q, direct value must win", cfg.APIKey)
	}
}

func TestProviderConfigSpec(t *testing.T) {
	cfg := ProviderConfig{
		ID:              "p1",
		Type:            "anthropic",
		Model:           "claude-sonnet-4-5",
		Priority:        3,
		CostPerMTokIn:   3.0,
		CostPerMTokOut:  15.0,
		MaxOutputTokens: 8192,
	}

	spec := cfg.Spec()
	if spec.ID != "p1" || spec.Priority != 3 || spec.Model != "claude-sonnet-4-5" {
		t.Errorf("spec = %+v", spec)
	}
	if spec.CostPerMTokIn != 3.0 || spec.CostPerMTokOut != 15.0 || spec.MaxOutputTokens != 8192 {
		t.Errorf("spec = %+v", spec)
	}
}
