package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/takumi/specgen/internal/api/middleware"
	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/logger"
	"github.com/takumi/specgen/internal/pipeline"
	"github.com/takumi/specgen/internal/repository"
	"github.com/takumi/specgen/internal/storage"
)

// UploadHandler handles job submission endpoints. Validation errors are
// returned as plain text so clients can surface the body verbatim.
type UploadHandler struct {
	repo   *repository.JobRepository
	store  storage.ObjectStorage
	runner *pipeline.Runner
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(repo *repository.JobRepository, store storage.ObjectStorage, runner *pipeline.Runner) *UploadHandler {
	return &UploadHandler{repo: repo, store: store, runner: runner}
}

// Upload accepts a normal-mode submission: one or more design documents
// under the documentFiles field plus an optional granularity field. It
// responds 202 with the new instance id before any processing happens.
func (h *UploadHandler) Upload(c *gin.Context) {
	log := middleware.GetLogger(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.String(http.StatusBadRequest, "invalid multipart form: %s", err.Error())
		return
	}

	files := form.File["documentFiles"]
	if len(files) == 0 {
		c.String(http.StatusBadRequest, "no design documents uploaded")
		return
	}

	granularity, ok := parseGranularity(c.PostForm("granularity"))
	if !ok {
		c.String(http.StatusBadRequest, "granularity must be simple or detailed")
		return
	}

	job, err := h.acceptJob(c, domain.ModeNormal, granularity, files)
	if err != nil {
		log.WithError(err).Error("Failed to accept submission")
		c.String(http.StatusInternalServerError, "failed to accept submission")
		return
	}

	h.runner.Launch(job)
	c.JSON(http.StatusAccepted, gin.H{"id": job.InstanceID})
}

// UploadDiff accepts a diff-mode submission: the new design documents plus
// the structured document and test specification from a previous run.
func (h *UploadHandler) UploadDiff(c *gin.Context) {
	log := middleware.GetLogger(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.String(http.StatusBadRequest, "invalid multipart form: %s", err.Error())
		return
	}

	files := form.File["newExcelFiles"]
	if len(files) == 0 {
		c.String(http.StatusBadRequest, "no new design documents uploaded")
		return
	}
	oldStructured := firstFile(form, "oldStructuredMd")
	if oldStructured == nil {
		c.String(http.StatusBadRequest, "previous structured document is required")
		return
	}
	oldTestSpec := firstFile(form, "oldTestSpecMd")
	if oldTestSpec == nil {
		c.String(http.StatusBadRequest, "previous test specification is required")
		return
	}

	granularity, ok := parseGranularity(c.PostForm("granularity"))
	if !ok {
		c.String(http.StatusBadRequest, "granularity must be simple or detailed")
		return
	}

	job, err := h.acceptJob(c, domain.ModeDiff, granularity, files)
	if err != nil {
		log.WithError(err).Error("Failed to accept submission")
		c.String(http.StatusInternalServerError, "failed to accept submission")
		return
	}

	oldKey, err := h.storeFile(c, job.InstanceID, "previous/structured.md", oldStructured)
	if err != nil {
		log.WithError(err).Error("Failed to store previous artifact")
		c.String(http.StatusInternalServerError, "failed to accept submission")
		return
	}
	job.OldStructuredKey = oldKey

	specKey, err := h.storeFile(c, job.InstanceID, "previous/test_spec.md", oldTestSpec)
	if err != nil {
		log.WithError(err).Error("Failed to store previous artifact")
		c.String(http.StatusInternalServerError, "failed to accept submission")
		return
	}
	job.OldTestSpecKey = specKey

	h.runner.Launch(job)
	c.JSON(http.StatusAccepted, gin.H{"id": job.InstanceID})
}

// acceptJob stores the input files, persists the job record and returns
// the pipeline job ready to launch.
func (h *UploadHandler) acceptJob(c *gin.Context, mode domain.Mode, granularity domain.Granularity, files []*multipart.FileHeader) (*pipeline.Job, error) {
	instanceID := uuid.New().String()
	ctx := logger.SetJobID(c.Request.Context(), instanceID)

	job := &pipeline.Job{
		InstanceID:  instanceID,
		Mode:        mode,
		Granularity: granularity,
	}

	for i, fh := range files {
		key := fmt.Sprintf("uploads/%s/input/file_%d_%s", instanceID, i, fh.Filename)
		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
		}
		err = h.store.Upload(ctx, key, src, fh.Size, fh.Header.Get("Content-Type"))
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to store uploaded file %s: %w", fh.Filename, err)
		}
		job.Files = append(job.Files, pipeline.InputFile{
			Filename: fh.Filename,
			BlobKey:  key,
			Size:     fh.Size,
		})
	}

	now := time.Now()
	record := &domain.JobRecord{
		InstanceID:  instanceID,
		Mode:        mode,
		Granularity: granularity,
		Status:      domain.StatusRunning,
		StartedAt:   &now,
	}
	if err := h.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "Submission accepted: mode=%s, files=%d", mode, len(files))
	return job, nil
}

func (h *UploadHandler) storeFile(c *gin.Context, instanceID, name string, fh *multipart.FileHeader) (string, error) {
	key := fmt.Sprintf("uploads/%s/%s", instanceID, name)
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
	}
	defer src.Close()
	if err := h.store.Upload(c.Request.Context(), key, src, fh.Size, fh.Header.Get("Content-Type")); err != nil {
		return "", fmt.Errorf("failed to store uploaded file %s: %w", fh.Filename, err)
	}
	return key, nil
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// parseGranularity maps the form value to a granularity, defaulting to
// simple when absent.
func parseGranularity(value string) (domain.Granularity, bool) {
	switch domain.Granularity(value) {
	case "":
		return domain.GranularitySimple, true
	case domain.GranularitySimple:
		return domain.GranularitySimple, true
	case domain.GranularityDetailed:
		return domain.GranularityDetailed, true
	default:
		return "", false
	}
}
