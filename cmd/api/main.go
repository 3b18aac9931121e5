package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docsmith/internal/api"
	"docsmith/internal/api/middleware"
	"docsmith/internal/config"
	"docsmith/internal/enrich"
	"docsmith/internal/extract"
	"docsmith/internal/logger"
	"docsmith/internal/provider"
	"docsmith/internal/render"
	"docsmith/internal/repository"
	"docsmith/internal/service"
	"docsmith/internal/storage"
)

func main() {
	// CONFIG_PATH overrides the config file location for deployments.
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "docsmith",
		File:        cfg.Log.File,
	})
	logger.SetDefaultLogger(appLogger)

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	jobRepo := repository.NewJobRepository(db)

	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}
	ctx := context.Background()
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	providers, err := provider.BuildProviders(cfg.Providers, cfg.Pipeline.GenerationTimeout, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to build generation providers")
	}

	orchestrator := service.NewOrchestrator(service.OrchestratorDeps{
		Store:     jobRepo,
		Artifacts: objectStorage,
		Resolver:  service.NewStorageResolver(objectStorage),
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

	router := api.SetupRouter(orchestrator, jobRepo, appLogger, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

// buildExtractChain assembles the extraction fallback chain: structural
// backends first, the vision OCR backend last when configured.
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
