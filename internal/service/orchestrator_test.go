package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"docsmith/internal/domain"
	"docsmith/internal/render"
	"docsmith/internal/storage"
)

// memStore is an in-memory StatusStore with the same terminal guard as the
// durable repository.
type memStore struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
	puts int
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]domain.Job)}
}

func (s *memStore) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("duplicate job %s", job.ID)
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *memStore) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

func (s *memStore) Put(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.jobs[job.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status.Terminal() {
		return fmt.Errorf("job %s: record is terminal", job.ID)
	}
	s.jobs[job.ID] = *job
	s.puts++
	return nil
}

type fakeResolver struct {
	data        []byte
	contentType string
	err         error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) ([]byte, string, error) {
	return f.data, f.contentType, f.err
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) (string, error) {
	return f.text, f.err
}

type fakeEnricher struct {
	posting *domain.Posting
	err     error
	calls   int
}

func (f *fakeEnricher) Enrich(_ context.Context, ref string) (*domain.Posting, error) {
	if ref == "" {
		return nil, nil
	}
	f.calls++
	return f.posting, f.err
}

// fakeGenerator returns scripted results in sequence; the primary document
// first, then the cover letter when requested.
type fakeGenerator struct {
	results []*domain.GenerationResult
	errs    []error
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _ *domain.GenerationRequest) (*domain.GenerationResult, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return nil, errors.New("no scripted result")
}

func goodResult(providerID string) *domain.GenerationResult {
	return &domain.GenerationResult{
		Text: `{"title":"Jane Doe","sections":[{"heading":"Experience","body":"Acme."}]}`,
		Structured: map[string]interface{}{
			"title": "Jane Doe",
			"sections": []interface{}{
				map[string]interface{}{"heading": "Experience", "body": "Acme."},
			},
		},
		ProviderID: providerID,
		CostUSD:    0.01,
	}
}

type orchestratorFixture struct {
	store     *memStore
	artifacts *storage.LocalStorage
	enricher  *fakeEnricher
	generator *fakeGenerator
	orch      *Orchestrator
}

func newFixture(t *testing.T, mutate func(deps *OrchestratorDeps, cfg *OrchestratorConfig)) *orchestratorFixture {
	t.Helper()

	artifacts, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if err := artifacts.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}

	f := &orchestratorFixture{
		store:     newMemStore(),
		artifacts: artifacts,
		enricher:  &fakeEnricher{posting: &domain.Posting{Title: "Staff Engineer", Company: "Acme"}},
		generator: &fakeGenerator{results: []*domain.GenerationResult{goodResult("primary"), goodResult("primary")}},
	}

	deps := OrchestratorDeps{
		Store:     f.store,
		Artifacts: artifacts,
		Resolver:  &fakeResolver{data: []byte("source doc"), contentType: "text/plain"},
		Extractor: &fakeExtractor{text: "extracted source text"},
		Enricher:  f.enricher,
		Generator: f.generator,
		Renderer:  render.NewRegistry(render.NewTextRenderer(), render.NewHTMLRenderer()),
	}
	cfg := OrchestratorConfig{ExhaustionPolicy: ExhaustionDegrade, FallbackFormat: "text"}
	if mutate != nil {
		mutate(&deps, &cfg)
		if g, ok := deps.Generator.(*fakeGenerator); ok {
			f.generator = g
		}
	}
	f.orch = NewOrchestrator(deps, cfg)
	return f
}

func submitAndRun(t *testing.T, f *orchestratorFixture, params SubmitParams) *domain.Job {
	t.Helper()
	ctx := context.Background()

	job, err := f.orch.Submit(ctx, params)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	job, err = f.orch.Run(ctx, job.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return job
}

func TestOrchestratorHappyPath(t *testing.T) {
	f := newFixture(t, nil)
	job := submitAndRun(t, f, SubmitParams{
		OwnerID:       "owner-1",
		SourceRef:     "sources/cv.txt",
		EnrichmentRef: "https://jobs.example.com/1",
		OutputFormat:  "html",
	})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, message %q", job.Status, job.Message)
	}
	if job.Message != "completed" {
		t.Errorf("Message = %q", job.Message)
	}
	if job.ProviderUsed != "primary" || job.Degraded {
		t.Errorf("provider %q degraded=%v", job.ProviderUsed, job.Degraded)
	}
	if job.CostUSD != 0.01 {
		t.Errorf("CostUSD = %v", job.CostUSD)
	}
	if f.enricher.calls != 1 {
		t.Errorf("enricher calls = %d", f.enricher.calls)
	}

	key := job.ResultRefs[domain.ArtifactPrimary]
	if !strings.HasSuffix(key, ".html") {
		t.Errorf("primary artifact key = %q", key)
	}
	if ok, _ := f.artifacts.Exists(context.Background(), key); !ok {
		t.Error("primary artifact not uploaded")
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Error("timestamps should be set")
	}
}

func TestOrchestratorSubmitValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var ve *domain.ValidationError
	if _, err := f.orch.Submit(ctx, SubmitParams{SourceRef: "s"}); !errors.As(err, &ve) {
		t.Errorf("missing owner: got %v", err)
	}
	if _, err := f.orch.Submit(ctx, SubmitParams{OwnerID: "o"}); !errors.As(err, &ve) {
		t.Errorf("missing source: got %v", err)
	}

	job, err := f.orch.Submit(ctx, SubmitParams{OwnerID: "o", SourceRef: "s"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.OutputFormat != "pdf" {
		t.Errorf("default format = %q, want pdf", job.OutputFormat)
	}
	if job.Status != domain.JobStatusPending {
		t.Errorf("initial status = %s", job.Status)
	}
}

func TestOrchestratorExtractionFailureFailsJob(t *testing.T) {
	f := newFixture(t, func(deps *OrchestratorDeps, _ *OrchestratorConfig) {
		deps.Extractor = &fakeExtractor{err: &domain.ExtractionExhaustedError{Attempts: 3}}
	})
	job := submitAndRun(t, f, SubmitParams{OwnerID: "o", SourceRef: "s", OutputFormat: "text"})

	if job.Status != domain.JobStatusFailed {
		t.Fatalf("Status = %s", job.Status)
	}
	if !strings.Contains(job.Message, "extraction failed") {
		t.Errorf("Message = %q", job.Message)
	}
	if f.generator.calls != 0 {
		t.Error("generation must not run after extraction failure")
	}
}

func TestOrchestratorEnrichmentFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, func(deps *OrchestratorDeps, _ *OrchestratorConfig) {
		deps.Enricher = &fakeEnricher{err: &domain.EnrichmentExhaustedError{Attempts: 1, LastErr: errors.New("HTTP 404")}}
	})
	job := submitAndRun(t, f, SubmitParams{
		OwnerID:       "o",
		SourceRef:     "s",
		EnrichmentRef: "https://jobs.example.com/dead",
		OutputFormat:  "text",
	})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, message %q", job.Status, job.Message)
	}
	if !strings.Contains(job.Message, "enrichment unavailable") {
		t.Errorf("Message = %q, want enrichment qualifier", job.Message)
	}
}

func TestOrchestratorDegradePolicy(t *testing.T) {
	f := newFixture(t, func(deps *OrchestratorDeps, _ *OrchestratorConfig) {
		deps.Generator = &fakeGenerator{errs: []error{&domain.ProviderExhaustedError{Attempts: 2, LastErr: errors.New("HTTP 500")}}}
	})
	job := submitAndRun(t, f, SubmitParams{OwnerID: "o", SourceRef: "s", OutputFormat: "text"})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, message %q", job.Status, job.Message)
	}
	if !job.Degraded {
		t.Error("job should be flagged degraded")
	}
	if job.ProviderUsed != domain.FallbackPlaceholderProvider {
		t.Errorf("ProviderUsed = %q", job.ProviderUsed)
	}
	if !strings.Contains(job.Message, "placeholder") {
		t.Errorf("Message = %q", job.Message)
	}
	if ok, _ := f.artifacts.Exists(context.Background(), job.ResultRefs[domain.ArtifactPrimary]); !ok {
		t.Error("placeholder artifact should still be uploaded")
	}
}

func TestOrchestratorFailPolicy(t *testing.T) {
	f := newFixture(t, func(deps *OrchestratorDeps, cfg *OrchestratorConfig) {
		cfg.ExhaustionPolicy = ExhaustionFail
		deps.Generator = &fakeGenerator{errs: []error{&domain.ProviderExhaustedError{Attempts: 2}}}
	})
	job := submitAndRun(t, f, SubmitParams{OwnerID: "o", SourceRef: "s", OutputFormat: "text"})

	if job.Status != domain.JobStatusFailed {
		t.Fatalf("Status = %s", job.Status)
	}
	if !strings.Contains(job.Message, "generation failed") {
		t.Errorf("Message = %q", job.Message)
	}
}

func TestOrchestratorValidationErrorFailsEvenUnderDegrade(t *testing.T) {
	f := newFixture(t, func(deps *OrchestratorDeps, _ *OrchestratorConfig) {
		deps.Generator = &fakeGenerator{errs: []error{domain.NewValidationError("source_text", "empty")}}
	})
	job := submitAndRun(t, f, SubmitParams{OwnerID: "o", SourceRef: "s", OutputFormat: "text"})

	if job.Status != domain.JobStatusFailed {
		t.Fatalf("Status = %s; degrade policy must not mask validation errors", job.Status)
	}
}

func TestOrchestratorRenderFallbackFormat(t *testing.T) {
	f := newFixture(t, nil)
	job := submitAndRun(t, f, SubmitParams{OwnerID: "o", SourceRef: "s", OutputFormat: "docx"})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, message %q", job.Status, job.Message)
	}
	if !strings.HasSuffix(job.ResultRefs[domain.ArtifactPrimary], ".txt") {
		t.Errorf("artifact key = %q, want fallback text", job.ResultRefs[domain.ArtifactPrimary])
	}
	if !strings.Contains(job.Message, "rendered as text") {
		t.Errorf("Message = %q, want fallback qualifier", job.Message)
	}
}

func TestOrchestratorInvalidStructuredOutputRendersText(t *testing.T) {
	f := newFixture(t, func(deps *OrchestratorDeps, _ *OrchestratorConfig) {
		result := &domain.GenerationResult{
			Text:       "a perfectly fine prose document",
			Structured: map[string]interface{}{"unexpected": "shape"},
			ProviderID: "primary",
		}
		deps.Generator = &fakeGenerator{results: []*domain.GenerationResult{result}}
	})
	job := submitAndRun(t, f, SubmitParams{OwnerID: "o", SourceRef: "s", OutputFormat: "text"})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, message %q", job.Status, job.Message)
	}

	rc, _, err := f.orch.Artifact(context.Background(), job.ID, domain.ArtifactPrimary)
	if err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	rc.Close()
}

func TestOrchestratorSecondaryArtifact(t *testing.T) {
	f := newFixture(t, nil)
	job := submitAndRun(t, f, SubmitParams{
		OwnerID:         "o",
		SourceRef:       "s",
		OutputFormat:    "html",
		SecondaryOutput: true,
	})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, message %q", job.Status, job.Message)
	}
	if f.generator.calls != 2 {
		t.Errorf("generator calls = %d, want document + cover letter", f.generator.calls)
	}
	key := job.ResultRefs[domain.ArtifactSecondary]
	if !strings.HasSuffix(key, ".html") {
		t.Errorf("secondary key = %q", key)
	}
	if ok, _ := f.artifacts.Exists(context.Background(), key); !ok {
		t.Error("secondary artifact not uploaded")
	}
	if job.CostUSD != 0.02 {
		t.Errorf("CostUSD = %v, want both generations summed", job.CostUSD)
	}
}

func TestOrchestratorSecondaryFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, func(deps *OrchestratorDeps, _ *OrchestratorConfig) {
		deps.Generator = &fakeGenerator{
			results: []*domain.GenerationResult{goodResult("primary")},
			errs:    []error{nil, errors.New("cover letter generation blew up")},
		}
	})
	job := submitAndRun(t, f, SubmitParams{
		OwnerID:         "o",
		SourceRef:       "s",
		OutputFormat:    "text",
		SecondaryOutput: true,
	})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s, message %q", job.Status, job.Message)
	}
	if !strings.Contains(job.Message, "cover letter unavailable") {
		t.Errorf("Message = %q", job.Message)
	}
	if _, ok := job.ResultRefs[domain.ArtifactSecondary]; ok {
		t.Error("failed secondary must not leave a result ref")
	}
	if _, ok := job.ResultRefs[domain.ArtifactPrimary]; !ok {
		t.Error("primary artifact must survive a secondary failure")
	}
}

func TestOrchestratorSkipsSecondaryWhenDegraded(t *testing.T) {
	f := newFixture(t, func(deps *OrchestratorDeps, _ *OrchestratorConfig) {
		deps.Generator = &fakeGenerator{errs: []error{&domain.ProviderExhaustedError{Attempts: 1}}}
	})
	job := submitAndRun(t, f, SubmitParams{
		OwnerID:         "o",
		SourceRef:       "s",
		OutputFormat:    "text",
		SecondaryOutput: true,
	})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s", job.Status)
	}
	if f.generator.calls != 1 {
		t.Errorf("generator calls = %d; no cover letter attempt after degrade", f.generator.calls)
	}
	if !strings.Contains(job.Message, "cover letter skipped") {
		t.Errorf("Message = %q", job.Message)
	}
}

func TestOrchestratorRunIsIdempotentOnTerminalJobs(t *testing.T) {
	f := newFixture(t, nil)
	job := submitAndRun(t, f, SubmitParams{OwnerID: "o", SourceRef: "s", OutputFormat: "text"})
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %s", job.Status)
	}

	putsBefore := f.store.puts
	callsBefore := f.generator.calls

	again, err := f.orch.Run(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Status != job.Status || again.Message != job.Message {
		t.Error("replay must return the existing terminal record unchanged")
	}
	if f.store.puts != putsBefore {
		t.Error("replay must not write to the status store")
	}
	if f.generator.calls != callsBefore {
		t.Error("replay must not re-run the pipeline")
	}
}

func TestOrchestratorRunUnknownJob(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.orch.Run(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrchestratorStatusAndArtifact(t *testing.T) {
	f := newFixture(t, nil)
	job := submitAndRun(t, f, SubmitParams{OwnerID: "o", SourceRef: "s", OutputFormat: "html"})

	rec, err := f.orch.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec.JobID != job.ID || rec.Status != domain.JobStatusCompleted {
		t.Errorf("record = %+v", rec)
	}

	if _, _, err := f.orch.Artifact(context.Background(), job.ID, "no-such-artifact"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown artifact, got %v", err)
	}
}
