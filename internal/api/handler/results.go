package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/takumi/specgen/internal/api/middleware"
	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/repository"
	"github.com/takumi/specgen/internal/storage"
)

// ResultsHandler serves the history collection, result downloads and
// result deletion.
type ResultsHandler struct {
	repo  *repository.JobRepository
	store storage.ObjectStorage
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(repo *repository.JobRepository, store storage.ObjectStorage) *ResultsHandler {
	return &ResultsHandler{repo: repo, store: store}
}

// List returns every completed job as one collection, most recent first.
// Sequence numbers count up in submission order, so the newest entry
// carries the highest number.
func (h *ResultsHandler) List(c *gin.Context) {
	records, err := h.repo.ListCompleted(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list results"})
		return
	}

	entries := make([]domain.HistoryEntry, 0, len(records))
	for i, record := range records {
		entry := record.HistoryEntry()
		entry.SeqNumber = strconv.Itoa(len(records) - i)
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, entries)
}

// Download streams the result bundle. The filename travels in an RFC 5987
// encoded Content-Disposition parameter so non-ASCII names survive.
func (h *ResultsHandler) Download(c *gin.Context) {
	instanceID := c.Param("id")
	log := middleware.GetLogger(c)

	record, err := h.repo.Get(c.Request.Context(), instanceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		log.WithError(err).Error("Failed to fetch job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job"})
		return
	}
	if record.Status != domain.StatusCompleted || record.BlobName == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
		return
	}

	reader, err := h.store.Download(c.Request.Context(), record.BlobName)
	if err != nil {
		log.WithError(err).Error("Failed to open result bundle")
		c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
		return
	}
	defer reader.Close()

	disposition := fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(record.Filename))
	c.DataFromReader(http.StatusOK, record.Size, "application/zip", reader, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Delete removes a result bundle and its job record.
func (h *ResultsHandler) Delete(c *gin.Context) {
	instanceID := c.Param("id")
	log := middleware.GetLogger(c)

	record, err := h.repo.Get(c.Request.Context(), instanceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		log.WithError(err).Error("Failed to fetch job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job"})
		return
	}

	// Best effort: a missing blob must not strand the record.
	if record.BlobName != "" {
		if err := h.store.Delete(c.Request.Context(), record.BlobName); err != nil {
			log.WithError(err).Warn("Failed to delete result bundle")
		}
	}

	if err := h.repo.Delete(c.Request.Context(), instanceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		log.WithError(err).Error("Failed to delete job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
