package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"docsmith/internal/config"
	"docsmith/internal/domain"
	"docsmith/internal/enrich"
	"docsmith/internal/extract"
	"docsmith/internal/logger"
	"docsmith/internal/provider"
	"docsmith/internal/render"
	"docsmith/internal/repository"
	"docsmith/internal/service"
	"docsmith/internal/storage"
)

// runjob executes one generation job end to end from the command line. The
// source is a local file and artifacts land in a local output directory; no
// API server or object store is needed.
func main() {
	var (
		configPath = flag.String("config", "", "config file path (optional)")
		ownerID    = flag.String("owner", "cli", "owner ID recorded on the job")
		sourcePath = flag.String("source", "", "source document file (required)")
		postingURL = flag.String("posting", "", "job posting URL for enrichment (optional)")
		format     = flag.String("format", "pdf", "output format: pdf, html, text")
		secondary  = flag.Bool("cover-letter", false, "also generate a cover letter")
		outDir     = flag.String("out", "./out", "output directory for artifacts")
	)
	flag.Parse()

	if *sourcePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      "text",
		ServiceName: "docsmith-runjob",
	})
	logger.SetDefaultLogger(appLogger)

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	jobRepo := repository.NewJobRepository(db)

	artifacts, err := storage.NewLocalStorage(*outDir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize output directory")
	}
	ctx := context.Background()
	if err := artifacts.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to create output directory")
	}

	providers, err := provider.BuildProviders(cfg.Providers, cfg.Pipeline.GenerationTimeout, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to build generation providers")
	}

	orchestrator := service.NewOrchestrator(service.OrchestratorDeps{
		Store:     jobRepo,
		Artifacts: artifacts,
		Resolver:  service.FileResolver{},
		Extractor: buildExtractChain(cfg),
		Enricher: enrich.NewChain(enrich.NewHTTPFetcher(&enrich.HTTPFetcherConfig{
			Timeout:      cfg.Enrichment.Timeout,
			MaxBodyBytes: cfg.Enrichment.MaxBodyBytes,
			UserAgent:    cfg.Enrichment.UserAgent,
		})),
		Generator: service.NewExecutor(providers, cfg.Pipeline.MinOutputChars, cfg.Pipeline.GenerationTimeout),
		Renderer:  buildRenderRegistry(),
	}, service.OrchestratorConfig{
		ExhaustionPolicy:  cfg.Pipeline.ExhaustionPolicy,
		FallbackFormat:    cfg.Pipeline.FallbackFormat,
		ExtractionTimeout: cfg.Extraction.Timeout,
		EnrichmentTimeout: cfg.Enrichment.Timeout,
		GenerationTimeout: cfg.Pipeline.GenerationTimeout,
		RenderTimeout:     cfg.Pipeline.RenderTimeout,
	})

	job, err := orchestrator.Submit(ctx, service.SubmitParams{
		OwnerID:         *ownerID,
		SourceRef:       *sourcePath,
		EnrichmentRef:   *postingURL,
		OutputFormat:    *format,
		SecondaryOutput: *secondary,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to submit job")
	}

	job, err = orchestrator.Run(ctx, job.ID)
	if err != nil {
		appLogger.WithError(err).Fatal("Pipeline run failed")
	}

	fmt.Printf("job %s: %s\n", job.ID, job.Status)
	if job.Message != "" {
		fmt.Printf("  %s\n", job.Message)
	}
	for name, key := range job.ResultRefs {
		fmt.Printf("  %s: %s\n", name, artifacts.GetURL(key))
	}
	if job.Status == domain.JobStatusFailed {
		os.Exit(1)
	}
}

func buildExtractChain(cfg *config.Config) *extract.Chain {
	backends := []extract.Backend{
		extract.NewHTMLText(),
		extract.NewPlainText(),
	}

	ocr := cfg.Extraction.OCR
	apiKey := ocr.APIKey
	if apiKey == "" && ocr.APIKeyEnv != "" {
		apiKey = os.Getenv(ocr.APIKeyEnv)
	}
	if ocr.Enabled && apiKey != "" {
		backends = append(backends, extract.NewVisionOCR(&extract.VisionOCRConfig{
			Model:   ocr.Model,
			APIKey:  apiKey,
			BaseURL: ocr.BaseURL,
			Timeout: cfg.Extraction.Timeout,
		}))
	}

	return extract.NewChain(cfg.Extraction.MinChars, backends...)
}

func buildRenderRegistry() *render.Registry {
	html := render.NewHTMLRenderer()
	return render.NewRegistry(
		render.NewTextRenderer(),
		html,
		render.NewPDFRenderer(html),
	)
}
