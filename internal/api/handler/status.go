package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/takumi/specgen/internal/api/middleware"
	"github.com/takumi/specgen/internal/repository"
)

// StatusHandler serves the polling endpoint.
type StatusHandler struct {
	repo *repository.JobRepository
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(repo *repository.JobRepository) *StatusHandler {
	return &StatusHandler{repo: repo}
}

// Status returns the current runtime status of a job, including the
// latest progress snapshot and, for completed jobs, the result reference.
func (h *StatusHandler) Status(c *gin.Context) {
	instanceID := c.Param("id")

	record, err := h.repo.Get(c.Request.Context(), instanceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		middleware.GetLogger(c).WithError(err).Error("Failed to fetch job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job"})
		return
	}

	c.JSON(http.StatusOK, record.StatusResponse())
}
