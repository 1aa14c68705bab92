package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the job control API on router.
func SetupRoutes(router *gin.Engine, jobs *JobHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.POST("/jobs", jobs.StartJob)
	v1.POST("/jobs/stop", jobs.StopJob)
	v1.GET("/jobs/status", jobs.JobStatus)
	v1.GET("/jobs/result", jobs.JobResult)
	v1.GET("/artifacts/:name", jobs.Artifact)
	v1.GET("/industries", jobs.Industries)
}

// NewRouter builds a gin engine with recovery and the API routes.
func NewRouter(jobs *JobHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, jobs)
	return router
}
