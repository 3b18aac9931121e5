package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"docsmith/internal/domain"
	"docsmith/internal/logger"
	"docsmith/internal/provider"
)

// Executor runs a generation request against an ordered list of providers,
// falling back to the next one on any recoverable failure. It holds no
// per-request state and is safe for concurrent use.
type Executor struct {
	providers      []*provider.Provider
	minOutputChars int
	timeout        time.Duration
}

// NewExecutor builds an executor over the given providers. The slice is
// copied and re-sorted by ascending priority so the executor owns its
// ordering invariant regardless of the caller.
func NewExecutor(providers []*provider.Provider, minOutputChars int, timeout time.Duration) *Executor {
	ordered := make([]*provider.Provider, len(providers))
	copy(ordered, providers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Spec.Priority != ordered[j].Spec.Priority {
			return ordered[i].Spec.Priority < ordered[j].Spec.Priority
		}
		return ordered[i].Spec.ID < ordered[j].Spec.ID
	})
	return &Executor{
		providers:      ordered,
		minOutputChars: minOutputChars,
		timeout:        timeout,
	}
}

// Generate tries each provider in priority order and returns the first valid
// result. Input validation happens before any provider is contacted; a
// validation failure aborts with zero attempts. On exhaustion the returned
// error is a *domain.ProviderExhaustedError retaining the last attempt's
// error.
func (e *Executor) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	if req == nil || strings.TrimSpace(req.SourceText) == "" {
		return nil, domain.NewValidationError("source_text", "must not be empty")
	}
	if len(e.providers) == 0 {
		return nil, &domain.ProviderExhaustedError{Attempts: 0}
	}

	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "executor")

	var lastErr error
	for i, p := range e.providers {
		attemptLog := log.WithFields(logger.Fields{
			logger.FieldAttempt:  i + 1,
			logger.FieldProvider: p.Spec.ID,
		})

		result, err := e.attempt(ctx, p, req)
		if err != nil {
			if domain.Classify(err) == domain.KindFatal {
				attemptLog.WithError(err).Error("provider attempt failed fatally")
				return nil, err
			}
			attemptLog.WithError(err).Warn("provider attempt failed, trying next")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		result.ProviderID = p.Spec.ID
		if result.InputTokens == 0 {
			result.InputTokens = domain.EstimateTokens(req.SourceText + req.Prompt)
		}
		if result.OutputTokens == 0 {
			result.OutputTokens = domain.EstimateTokens(result.Text)
		}
		result.CostUSD = p.Spec.EstimateCost(result.InputTokens, result.OutputTokens)

		attemptLog.WithField("cost_usd", result.CostUSD).Info("generation succeeded")
		return result, nil
	}

	return nil, &domain.ProviderExhaustedError{Attempts: len(e.providers), LastErr: lastErr}
}

// attempt drives one provider's adapter triple and validates the parsed
// output. Every returned error is recoverable unless classified otherwise.
func (e *Executor) attempt(ctx context.Context, p *provider.Provider, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	native, err := p.Request.BuildRequest(req)
	if err != nil {
		return nil, err
	}

	actx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	body, err := p.Invoker.Invoke(actx, native)
	if err != nil {
		return nil, err
	}

	result, err := p.Response.ParseResponse(body)
	if err != nil {
		return nil, err
	}

	if got := len(strings.TrimSpace(result.Text)); got < e.minOutputChars {
		return nil, &shortOutputError{got: got, want: e.minOutputChars}
	}
	return result, nil
}

// shortOutputError reports output below the configured minimum length. It is
// recoverable so the next provider still gets a chance.
type shortOutputError struct {
	got  int
	want int
}

func (e *shortOutputError) Error() string {
	return fmt.Sprintf("output too short: %d chars, minimum %d", e.got, e.want)
}
