package provider

import (
	"fmt"
	"sort"
	"time"

	"docsmith/internal/config"
	"docsmith/internal/logger"
)

// BuildProviders constructs the ordered provider list from configuration.
// Invalid configurations are logged and skipped rather than causing failure,
// but at least one valid provider is required. The returned slice is sorted
// by ascending priority and must be treated as read-only process-wide state.
func BuildProviders(cfgs []config.ProviderConfig, timeout time.Duration, log *logger.Logger) ([]*Provider, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("at least one provider configuration is required")
	}

	providers := make([]*Provider, 0, len(cfgs))
	for i := range cfgs {
		cfg := cfgs[i].Clone()
		cfg.ResolveEnvVars()

		if err := cfg.Validate(); err != nil {
			log.WithError(err).WithField("index", i).Warn("Skipping invalid provider config")
			continue
		}
		if cfg.APIKey == "" {
			log.WithFields(logger.Fields{
				"provider":    cfg.ID,
				"api_key_env": cfg.APIKeyEnv,
			}).Warn("Skipping provider: no API key configured")
			continue
		}

		var (
			request  RequestAdapter
			invoker  Invoker
			response ResponseAdapter
		)
		switch cfg.Type {
		case "openai-compatible":
			a := NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.MaxOutputTokens, timeout)
			request, invoker, response = a, a, a
		case "anthropic":
			a := NewAnthropic(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.MaxOutputTokens, timeout)
			request, invoker, response = a, a, a
		default:
			log.WithField("provider", cfg.ID).Warn("Skipping provider: unknown adapter type")
			continue
		}

		providers = append(providers, &Provider{
			Spec:     cfg.Spec(),
			Request:  request,
			Invoker:  invoker,
			Response: response,
		})

		log.WithFields(logger.Fields{
			"provider": cfg.ID,
			"type":     cfg.Type,
			"model":    cfg.Model,
			"priority": cfg.Priority,
		}).Info("Registered generation provider")
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no valid provider configurations found")
	}

	sort.SliceStable(providers, func(i, j int) bool {
		if providers[i].Spec.Priority != providers[j].Spec.Priority {
			return providers[i].Spec.Priority < providers[j].Spec.Priority
		}
		return providers[i].Spec.ID < providers[j].Spec.ID
	})

	return providers, nil
}
