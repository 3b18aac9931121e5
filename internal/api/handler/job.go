package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docsmith/internal/domain"
	"docsmith/internal/logger"
	"docsmith/internal/repository"
	"docsmith/internal/service"
)

// JobHandler handles generation-job endpoints.
type JobHandler struct {
	orchestrator *service.Orchestrator
	repo         *repository.JobRepository
}

// NewJobHandler creates a new job handler.
func NewJobHandler(orchestrator *service.Orchestrator, repo *repository.JobRepository) *JobHandler {
	return &JobHandler{
		orchestrator: orchestrator,
		repo:         repo,
	}
}

type submitJobRequest struct {
	OwnerID         string `json:"owner_id" binding:"required"`
	SourceRef       string `json:"source_ref" binding:"required"`
	EnrichmentRef   string `json:"enrichment_ref"`
	OutputFormat    string `json:"output_format"`
	SecondaryOutput bool   `json:"secondary_output"`
}

// SubmitJob handles POST /api/v1/jobs. It persists the pending record,
// kicks off the pipeline in the background, and answers 202 immediately.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req submitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	job, err := h.orchestrator.Submit(c.Request.Context(), service.SubmitParams{
		OwnerID:         req.OwnerID,
		SourceRef:       req.SourceRef,
		EnrichmentRef:   req.EnrichmentRef,
		OutputFormat:    req.OutputFormat,
		SecondaryOutput: req.SecondaryOutput,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to submit job: " + err.Error(),
		})
		return
	}

	// The request context dies with the response; the pipeline keeps its
	// logger fields but not the cancellation.
	runCtx := context.WithoutCancel(c.Request.Context())
	go func() {
		if _, err := h.orchestrator.Run(runCtx, job.ID); err != nil {
			logger.CtxError(runCtx, "pipeline run failed for job %s: %v", job.ID, err)
		}
	}()

	c.JSON(http.StatusAccepted, job.Record())
}

// GetJob handles GET /api/v1/jobs/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param("id")

	record, err := h.orchestrator.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListJobs handles GET /api/v1/jobs?owner_id=...
func (h *JobHandler) ListJobs(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.repo.ListByOwner(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs: " + err.Error(),
		})
		return
	}

	records := make([]domain.StatusRecord, 0, len(jobs))
	for i := range jobs {
		records = append(records, jobs[i].Record())
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":  records,
		"count": len(records),
	})
}

// GetArtifact handles GET /api/v1/jobs/:id/artifacts/:name, streaming the
// stored result artifact.
func (h *JobHandler) GetArtifact(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("name")

	rc, contentType, err := h.orchestrator.Artifact(c.Request.Context(), id, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Artifact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load artifact: " + err.Error(),
		})
		return
	}
	defer rc.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}
