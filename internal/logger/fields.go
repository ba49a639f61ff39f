package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the generation job instance ID
	FieldJobID = "job_id"

	// FieldStage is the pipeline stage being reported
	FieldStage = "stage"

	// FieldMode is the generation mode (normal or diff)
	FieldMode = "mode"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields, attached at the log site for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldProgress is the reported progress percentage
	FieldProgress = "progress"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
