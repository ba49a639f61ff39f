package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/takumi/specgen/internal/domain"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no job exists for an instance id.
var ErrNotFound = errors.New("job not found")

// JobRepository persists generation job records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.JobRecord) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Get fetches a job by instance id.
func (r *JobRepository) Get(ctx context.Context, instanceID string) (*domain.JobRecord, error) {
	var job domain.JobRecord
	err := r.db.WithContext(ctx).First(&job, "instance_id = ?", instanceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}
	return &job, nil
}

// UpdateProgress replaces the job's progress snapshot. Failures here must
// not interrupt the pipeline; callers log and continue.
func (r *JobRepository) UpdateProgress(ctx context.Context, instanceID, stage, message string, progress int) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&domain.JobRecord{}).
		Where("instance_id = ?", instanceID).
		Updates(map[string]interface{}{
			"stage":       stage,
			"message":     message,
			"progress":    progress,
			"progress_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// Complete marks the job Completed and records the result artifact.
func (r *JobRepository) Complete(ctx context.Context, instanceID, filename, blobName string, size int64, inputTokens, outputTokens int64, model string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&domain.JobRecord{}).
		Where("instance_id = ?", instanceID).
		Updates(map[string]interface{}{
			"status":        domain.StatusCompleted,
			"stage":         domain.StageCompleted,
			"message":       "completed",
			"progress":      100,
			"progress_at":   &now,
			"filename":      filename,
			"blob_name":     blobName,
			"size":          size,
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
			"model":         model,
			"completed_at":  &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// Fail marks the job Failed with an error log.
func (r *JobRepository) Fail(ctx context.Context, instanceID, errorLog string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&domain.JobRecord{}).
		Where("instance_id = ?", instanceID).
		Updates(map[string]interface{}{
			"status":       domain.StatusFailed,
			"stage":        domain.StageFailed,
			"message":      errorLog,
			"progress":     0,
			"progress_at":  &now,
			"error_log":    errorLog,
			"completed_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// ListCompleted returns all completed jobs, most recent first.
func (r *JobRepository) ListCompleted(ctx context.Context) ([]domain.JobRecord, error) {
	var jobs []domain.JobRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusCompleted).
		Order("started_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes a job record.
func (r *JobRepository) Delete(ctx context.Context, instanceID string) error {
	res := r.db.WithContext(ctx).Delete(&domain.JobRecord{}, "instance_id = ?", instanceID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
