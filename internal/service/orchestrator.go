package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsmith/internal/domain"
	"docsmith/internal/logger"
	"docsmith/internal/prompts"
	"docsmith/internal/render"
	"docsmith/internal/storage"
)

// Exhaustion policies for the generation stage.
const (
	ExhaustionDegrade = "degrade"
	ExhaustionFail    = "fail"
)

// StatusStore persists job records. Put must refuse to overwrite a record
// that already reached a terminal status.
type StatusStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	Put(ctx context.Context, job *domain.Job) error
}

// SourceResolver fetches the raw source document behind a reference handle.
type SourceResolver interface {
	Resolve(ctx context.Context, ref string) (data []byte, contentType string, err error)
}

// Extractor turns raw source bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}

// Enricher fetches structured posting data for an enrichment reference.
type Enricher interface {
	Enrich(ctx context.Context, ref string) (*domain.Posting, error)
}

// Generator produces document content, falling back across providers.
type Generator interface {
	Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error)
}

// ArtifactRenderer turns a generation result into output-format bytes.
type ArtifactRenderer interface {
	Render(ctx context.Context, result *domain.GenerationResult, format string) ([]byte, string, error)
	Supports(format string) bool
}

// OrchestratorConfig carries the pipeline tuning knobs.
type OrchestratorConfig struct {
	ExhaustionPolicy  string
	FallbackFormat    string
	ExtractionTimeout time.Duration
	EnrichmentTimeout time.Duration
	GenerationTimeout time.Duration
	RenderTimeout     time.Duration
}

// OrchestratorDeps bundles the collaborators the orchestrator drives.
type OrchestratorDeps struct {
	Store     StatusStore
	Artifacts storage.ObjectStorage
	Resolver  SourceResolver
	Extractor Extractor
	Enricher  Enricher
	Generator Generator
	Renderer  ArtifactRenderer
}

// Orchestrator owns the job lifecycle: it mints job IDs, advances the status
// record through the pipeline stages, and decides how stage failures map to
// terminal outcomes. Exactly one Run owns a job at a time; the status store's
// terminal guard protects against replayed executions.
type Orchestrator struct {
	store     StatusStore
	artifacts storage.ObjectStorage
	resolver  SourceResolver
	extractor Extractor
	enricher  Enricher
	generator Generator
	renderer  ArtifactRenderer
	cfg       OrchestratorConfig
}

// NewOrchestrator builds an orchestrator. Unset config fields fall back to
// permissive defaults; the exhaustion policy defaults to degrade.
func NewOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig) *Orchestrator {
	if cfg.ExhaustionPolicy == "" {
		cfg.ExhaustionPolicy = ExhaustionDegrade
	}
	if cfg.FallbackFormat == "" {
		cfg.FallbackFormat = "text"
	}
	return &Orchestrator{
		store:     deps.Store,
		artifacts: deps.Artifacts,
		resolver:  deps.Resolver,
		extractor: deps.Extractor,
		enricher:  deps.Enricher,
		generator: deps.Generator,
		renderer:  deps.Renderer,
		cfg:       cfg,
	}
}

// SubmitParams is the validated input for a new job.
type SubmitParams struct {
	OwnerID         string
	SourceRef       string
	EnrichmentRef   string
	OutputFormat    string
	SecondaryOutput bool
}

// Submit mints a job ID, persists the pending record, and returns it. The
// caller decides when to run the pipeline; Submit never blocks on providers.
func (o *Orchestrator) Submit(ctx context.Context, params SubmitParams) (*domain.Job, error) {
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, domain.NewValidationError("owner_id", "must not be empty")
	}
	if strings.TrimSpace(params.SourceRef) == "" {
		return nil, domain.NewValidationError("source_ref", "must not be empty")
	}
	format := params.OutputFormat
	if format == "" {
		format = "pdf"
	}

	job := &domain.Job{
		ID:              uuid.New().String(),
		OwnerID:         params.OwnerID,
		SourceRef:       params.SourceRef,
		EnrichmentRef:   params.EnrichmentRef,
		OutputFormat:    format,
		SecondaryOutput: params.SecondaryOutput,
		Status:          domain.JobStatusPending,
		Message:         "queued",
	}
	if err := o.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldJobID:   job.ID,
		logger.FieldOwnerID: job.OwnerID,
	}).Info("job submitted")
	return job, nil
}

// Status returns the poll snapshot for a job.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*domain.StatusRecord, error) {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	rec := job.Record()
	return &rec, nil
}

// Artifact opens a named result artifact for a completed job.
func (o *Orchestrator) Artifact(ctx context.Context, jobID, name string) (io.ReadCloser, string, error) {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	key, ok := job.ResultRefs[name]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return o.artifacts.Download(ctx, key)
}

// Run executes the pipeline for a submitted job. Stage failures become a
// terminal status on the record; the returned error is reserved for
// infrastructure faults such as status-store write failures. Running an
// already-terminal job is a no-op that returns the existing record unchanged.
func (o *Orchestrator) Run(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		logger.CtxInfo(ctx, "job %s already terminal (%s), skipping", job.ID, job.Status)
		return job, nil
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "orchestrator",
		logger.FieldJobID:     job.ID,
		logger.FieldOwnerID:   job.OwnerID,
	})
	started := time.Now().UTC()
	if job.StartedAt == nil {
		job.StartedAt = &started
	}

	var qualifiers []string

	// Extraction. Failure here is always fatal: without source text there
	// is nothing to generate from.
	if err := o.advance(ctx, job, "extracting source document"); err != nil {
		return job, err
	}
	text, err := o.extractSource(ctx, job.SourceRef)
	if err != nil {
		return o.fail(ctx, job, "extraction", err)
	}

	// Enrichment is best-effort. A dead posting URL must not sink the job.
	var posting *domain.Posting
	if job.EnrichmentRef != "" {
		if err := o.advance(ctx, job, "fetching enrichment data"); err != nil {
			return job, err
		}
		posting, err = o.fetchEnrichment(ctx, job.EnrichmentRef)
		if err != nil {
			logger.CtxWarn(ctx, "enrichment failed, continuing without posting data: %v", err)
			qualifiers = append(qualifiers, "enrichment unavailable: "+err.Error())
			posting = nil
		}
	}

	// Generation with provider fallback.
	if err := o.advance(ctx, job, "generating document"); err != nil {
		return job, err
	}
	result, err := o.generate(ctx, &domain.GenerationRequest{
		SourceText: text,
		Posting:    posting,
	})
	if err != nil {
		var exhausted *domain.ProviderExhaustedError
		if errors.As(err, &exhausted) && o.cfg.ExhaustionPolicy != ExhaustionFail {
			logger.CtxWarn(ctx, "all providers exhausted, substituting placeholder: %v", exhausted.LastErr)
			result = PlaceholderResult()
			qualifiers = append(qualifiers, "all providers exhausted, placeholder content substituted")
		} else {
			return o.fail(ctx, job, "generation", err)
		}
	}
	job.ProviderUsed = result.ProviderID
	job.Degraded = result.Degraded
	job.CostUSD = result.CostUSD

	// Structured output that fails schema validation degrades to raw-text
	// rendering rather than failing the job.
	if result.Structured != nil {
		if verr := domain.ValidateDocument(result.Structured); verr != nil {
			logger.CtxWarn(ctx, "structured output failed schema validation, rendering raw text: %v", verr)
			result.Structured = nil
		}
	}

	// Rendering, with one retry in the fallback format.
	if err := o.advance(ctx, job, "rendering artifact"); err != nil {
		return job, err
	}
	artifact, contentType, format, err := o.renderArtifact(ctx, result, job.OutputFormat)
	if err != nil {
		return o.fail(ctx, job, "rendering", err)
	}
	if format != job.OutputFormat {
		qualifiers = append(qualifiers, fmt.Sprintf("rendered as %s after %s failed", format, job.OutputFormat))
	}

	key := storage.ArtifactKey(job.OwnerID, job.ID, domain.ArtifactPrimary, render.Ext(format))
	if err := o.artifacts.Upload(ctx, key, bytes.NewReader(artifact), int64(len(artifact)), contentType); err != nil {
		return o.fail(ctx, job, "finalization", fmt.Errorf("upload artifact: %w", err))
	}
	job.ResultRefs = domain.ResultRefs{domain.ArtifactPrimary: key}

	// Optional secondary artifact, also best-effort.
	if job.SecondaryOutput {
		if job.Degraded {
			qualifiers = append(qualifiers, "cover letter skipped: generation degraded")
		} else if err := o.runSecondary(ctx, job, text, posting, format); err != nil {
			logger.CtxWarn(ctx, "secondary artifact failed, continuing: %v", err)
			qualifiers = append(qualifiers, "cover letter unavailable: "+err.Error())
		}
	}

	done := time.Now().UTC()
	job.CompletedAt = &done
	job.Status = domain.JobStatusCompleted
	job.Message = "completed"
	if len(qualifiers) > 0 {
		job.Message = "completed (" + strings.Join(qualifiers, "; ") + ")"
	}
	if err := o.store.Put(ctx, job); err != nil {
		return job, fmt.Errorf("finalize job record: %w", err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldProvider:   job.ProviderUsed,
		logger.FieldDurationMs: time.Since(started).Milliseconds(),
		"degraded":             job.Degraded,
		"cost_usd":             job.CostUSD,
	}).Info("job completed")
	return job, nil
}

func (o *Orchestrator) extractSource(ctx context.Context, ref string) (string, error) {
	ctx, cancel := stageContext(ctx, o.cfg.ExtractionTimeout)
	defer cancel()

	data, contentType, err := o.resolver.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("resolve source %q: %w", ref, err)
	}
	return o.extractor.Extract(ctx, data, contentType)
}

func (o *Orchestrator) fetchEnrichment(ctx context.Context, ref string) (*domain.Posting, error) {
	ctx, cancel := stageContext(ctx, o.cfg.EnrichmentTimeout)
	defer cancel()
	return o.enricher.Enrich(ctx, ref)
}

func (o *Orchestrator) generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	ctx, cancel := stageContext(ctx, o.cfg.GenerationTimeout)
	defer cancel()
	return o.generator.Generate(ctx, req)
}

// renderArtifact renders the requested format, retrying once in the fallback
// format when the first attempt fails. The format actually rendered is
// returned alongside the bytes.
func (o *Orchestrator) renderArtifact(ctx context.Context, result *domain.GenerationResult, format string) ([]byte, string, string, error) {
	ctx, cancel := stageContext(ctx, o.cfg.RenderTimeout)
	defer cancel()

	artifact, contentType, err := o.renderer.Render(ctx, result, format)
	if err == nil {
		return artifact, contentType, format, nil
	}
	if format == o.cfg.FallbackFormat {
		return nil, "", format, err
	}

	logger.CtxWarn(ctx, "render as %s failed, retrying as %s: %v", format, o.cfg.FallbackFormat, err)
	artifact, contentType, ferr := o.renderer.Render(ctx, result, o.cfg.FallbackFormat)
	if ferr != nil {
		return nil, "", format, err
	}
	return artifact, contentType, o.cfg.FallbackFormat, nil
}

// runSecondary generates and uploads the cover letter. Any failure is wrapped
// as a SecondaryStageError; the caller records it as a completion qualifier.
func (o *Orchestrator) runSecondary(ctx context.Context, job *domain.Job, sourceText string, posting *domain.Posting, format string) error {
	if err := o.advance(ctx, job, "generating cover letter"); err != nil {
		return err
	}

	result, err := o.generate(ctx, &domain.GenerationRequest{
		Prompt:     prompts.CoverLetterInstruction,
		SourceText: sourceText,
		Posting:    posting,
	})
	if err != nil {
		return &domain.SecondaryStageError{Stage: "cover_letter", Err: err}
	}
	if result.Structured != nil && domain.ValidateDocument(result.Structured) != nil {
		result.Structured = nil
	}

	artifact, contentType, actualFormat, err := o.renderArtifact(ctx, result, format)
	if err != nil {
		return &domain.SecondaryStageError{Stage: "cover_letter", Err: err}
	}

	key := storage.ArtifactKey(job.OwnerID, job.ID, domain.ArtifactSecondary, render.Ext(actualFormat))
	if err := o.artifacts.Upload(ctx, key, bytes.NewReader(artifact), int64(len(artifact)), contentType); err != nil {
		return &domain.SecondaryStageError{Stage: "cover_letter", Err: fmt.Errorf("upload artifact: %w", err)}
	}
	job.ResultRefs[domain.ArtifactSecondary] = key
	job.CostUSD += result.CostUSD
	return nil
}

// advance writes a processing heartbeat to the status store. A write failure
// here means the store is unhealthy, so the run bails out.
func (o *Orchestrator) advance(ctx context.Context, job *domain.Job, message string) error {
	job.Status = domain.JobStatusProcessing
	job.Message = message
	if err := o.store.Put(ctx, job); err != nil {
		return fmt.Errorf("advance to %q: %w", message, err)
	}
	logger.CtxDebug(ctx, "stage: %s", message)
	return nil
}

// fail marks the job failed with the stage and cause in the message. The
// pipeline error itself is consumed here; only a status-store write failure
// propagates out of Run.
func (o *Orchestrator) fail(ctx context.Context, job *domain.Job, stage string, cause error) (*domain.Job, error) {
	logger.FromContext(ctx).WithField(logger.FieldStage, stage).WithError(cause).Error("job failed")

	done := time.Now().UTC()
	job.CompletedAt = &done
	job.Status = domain.JobStatusFailed
	job.Message = fmt.Sprintf("%s failed: %v", stage, cause)
	if err := o.store.Put(ctx, job); err != nil {
		return job, fmt.Errorf("record failure: %w", err)
	}
	return job, nil
}

func stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
