package domain

import "time"

// JobRecord is the dev backend's persisted view of a generation job. In
// production this state lives inside the durable-orchestration platform;
// the dev backend keeps an equivalent record so the status, history and
// delete endpoints behave identically.
type JobRecord struct {
	InstanceID  string        `gorm:"type:text;primaryKey" json:"instanceId"`
	Mode        Mode          `gorm:"type:text;not null" json:"mode"`
	Granularity Granularity   `gorm:"type:text" json:"granularity"`
	Status      RuntimeStatus `gorm:"default:Pending;index" json:"status"`

	// Latest progress snapshot; each update fully replaces the previous.
	Stage      string     `json:"stage"`
	Message    string     `json:"message"`
	Progress   int        `gorm:"default:0" json:"progress"`
	ProgressAt *time.Time `json:"progress_at,omitempty"`

	// Result artifact, set when the pipeline completes.
	Filename string `json:"filename,omitempty"`
	BlobName string `json:"blob_name,omitempty"`
	Size     int64  `gorm:"default:0" json:"size"`

	// Simulated language-model usage.
	InputTokens  int64  `gorm:"default:0" json:"input_tokens"`
	OutputTokens int64  `gorm:"default:0" json:"output_tokens"`
	Model        string `json:"model,omitempty"`

	ErrorLog    string     `json:"error_log,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for JobRecord.
func (JobRecord) TableName() string {
	return "generation_jobs"
}

// StatusResponse converts the record into the status endpoint payload.
func (r *JobRecord) StatusResponse() *StatusResponse {
	resp := &StatusResponse{
		InstanceID:    r.InstanceID,
		RuntimeStatus: r.Status,
	}
	if r.Stage != "" {
		snapshot := &ProgressSnapshot{
			Stage:    r.Stage,
			Message:  r.Message,
			Progress: r.Progress,
		}
		if r.ProgressAt != nil {
			snapshot.Timestamp = r.ProgressAt.UTC().Format(time.RFC3339)
		}
		resp.CustomStatus = snapshot
	}
	if r.StartedAt != nil {
		resp.CreatedTime = r.StartedAt.UTC().Format(time.RFC3339)
	}
	resp.LastUpdatedTime = r.UpdatedAt.UTC().Format(time.RFC3339)
	if r.Status == StatusCompleted {
		resp.Output = &JobOutput{
			BlobName:  r.BlobName,
			Filename:  r.Filename,
			Container: "results",
		}
	}
	return resp
}

// HistoryEntry converts the record into one row of the list-results
// payload.
func (r *JobRecord) HistoryEntry() HistoryEntry {
	entry := HistoryEntry{
		InstanceID: r.InstanceID,
		Filename:   r.Filename,
		Size:       r.Size,
		Model:      r.Model,
	}
	if r.StartedAt != nil {
		entry.StartTime = r.StartedAt.UTC().Format(time.RFC3339)
	}
	if r.CompletedAt != nil {
		entry.EndTime = r.CompletedAt.UTC().Format(time.RFC3339)
	}
	if r.InputTokens > 0 || r.OutputTokens > 0 {
		entry.TokenStats = &TokenStats{
			TotalInputTokens:  r.InputTokens,
			TotalOutputTokens: r.OutputTokens,
		}
	}
	return entry
}
