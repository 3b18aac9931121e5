package api

import (
	"github.com/gin-gonic/gin"

	"docsmith/internal/api/handler"
	"docsmith/internal/api/middleware"
	"docsmith/internal/logger"
	"docsmith/internal/repository"
	"docsmith/internal/service"
)

// SetupRouter configures the Gin router with all routes.
func SetupRouter(
	orchestrator *service.Orchestrator,
	repo *repository.JobRepository,
	log *logger.Logger,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cors))

	healthHandler := handler.NewHealthHandler()
	jobHandler := handler.NewJobHandler(orchestrator, repo)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/jobs", jobHandler.SubmitJob)
		v1.GET("/jobs", jobHandler.ListJobs)
		v1.GET("/jobs/:id", jobHandler.GetJob)
		v1.GET("/jobs/:id/artifacts/:name", jobHandler.GetArtifact)
	}

	return r
}
