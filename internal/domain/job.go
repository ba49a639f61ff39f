package domain

// RuntimeStatus represents the execution state of a generation job as
// reported by the orchestration backend. The backend owns the value set;
// the client only distinguishes the terminal sentinels.
type RuntimeStatus string

const (
	StatusPending   RuntimeStatus = "Pending"
	StatusRunning   RuntimeStatus = "Running"
	StatusCompleted RuntimeStatus = "Completed"
	StatusFailed    RuntimeStatus = "Failed"
)

// IsTerminal reports whether the status ends the polling loop.
func (s RuntimeStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Mode selects the generation pipeline variant.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeDiff   Mode = "diff"
)

// Granularity controls how detailed the generated test specification is.
type Granularity string

const (
	GranularitySimple   Granularity = "simple"
	GranularityDetailed Granularity = "detailed"
)

// JobOutput is the artifact reference returned on a Completed status.
type JobOutput struct {
	BlobName  string `json:"blob_name"`
	Filename  string `json:"filename"`
	Container string `json:"container"`
}

// StatusResponse is the payload of GET /status/{id}.
// CustomStatus is optional; it is absent until the first progress update
// has been written by the pipeline.
type StatusResponse struct {
	InstanceID      string            `json:"instanceId"`
	RuntimeStatus   RuntimeStatus     `json:"runtimeStatus"`
	CustomStatus    *ProgressSnapshot `json:"customStatus,omitempty"`
	CreatedTime     string            `json:"createdTime,omitempty"`
	LastUpdatedTime string            `json:"lastUpdatedTime,omitempty"`
	Output          *JobOutput        `json:"output,omitempty"`
}

// SubmitResponse is the payload of a successful upload. The backend issues
// the instance id under "id"; "instanceId" is accepted as an alias for
// durable-functions style check-status payloads.
type SubmitResponse struct {
	ID         string `json:"id"`
	InstanceID string `json:"instanceId"`
}

// JobID returns the instance id regardless of which field carried it.
func (r *SubmitResponse) JobID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.InstanceID
}
