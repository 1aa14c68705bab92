package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"PressTopics/internal/domain"
)

// JobService is the job control surface the handlers drive.
type JobService interface {
	Start(ctx context.Context, cfg domain.JobConfig) (string, error)
	Stop() bool
	Status() domain.JobSnapshot
	Result() (domain.JobResult, error)
}

// ArtifactLocator resolves exported artifact names to files.
type ArtifactLocator interface {
	Path(name string) (string, error)
}

// JobHandler serves the job control endpoints.
type JobHandler struct {
	svc       JobService
	artifacts ArtifactLocator
	defaults  func(domain.JobParams) domain.JobParams
}

// NewJobHandler creates a handler. defaults fills unset request fields and
// may be nil.
func NewJobHandler(svc JobService, artifacts ArtifactLocator, defaults func(domain.JobParams) domain.JobParams) *JobHandler {
	return &JobHandler{svc: svc, artifacts: artifacts, defaults: defaults}
}

// StartJob handles POST /api/v1/jobs.
func (h *JobHandler) StartJob(c *gin.Context) {
	var params domain.JobParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.defaults != nil {
		params = h.defaults(params)
	}

	cfg, err := domain.NewJobConfig(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.Start(c.Request.Context(), cfg)
	switch {
	case errors.Is(err, domain.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{"job_id": id})
	}
}

// StopJob handles POST /api/v1/jobs/stop.
func (h *JobHandler) StopJob(c *gin.Context) {
	h.svc.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// JobStatus handles GET /api/v1/jobs/status.
func (h *JobHandler) JobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}

// JobResult handles GET /api/v1/jobs/result.
func (h *JobHandler) JobResult(c *gin.Context) {
	result, err := h.svc.Result()
	if err == nil {
		c.JSON(http.StatusOK, result)
		return
	}

	var jobErr *domain.JobError
	switch {
	case errors.Is(err, domain.ErrResultPending):
		c.JSON(http.StatusAccepted, gin.H{"status": h.svc.Status().State})
	case errors.Is(err, domain.ErrNoJob):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStopped):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &jobErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": jobErr.Err.Error(),
			"stage": jobErr.Stage,
			"trace": jobErr.Trace,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Artifact handles GET /api/v1/artifacts/:name.
func (h *JobHandler) Artifact(c *gin.Context) {
	if h.artifacts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifacts are not exported"})
		return
	}

	path, err := h.artifacts.Path(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}

	c.File(path)
}

// Industries handles GET /api/v1/industries.
func (h *JobHandler) Industries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"industries": domain.Industries()})
}
