package domain

import "fmt"

// Pipeline stages in execution order. The backend reports these in the
// customStatus payload; completed/failed are emitted by the orchestrator
// itself rather than an activity.
const (
	StageStructuring  = "structuring"
	StageDiff         = "diff"
	StagePerspectives = "perspectives"
	StageTestSpec     = "testspec"
	StageConverting   = "converting"
	StageCompleted    = "completed"
	StageFailed       = "failed"
)

// stageLabels maps a pipeline stage to its display label. Unknown stages
// fall back to the snapshot's raw message.
var stageLabels = map[string]string{
	StageStructuring:  "structuring document",
	StageDiff:         "detecting differences",
	StagePerspectives: "extracting test perspectives",
	StageTestSpec:     "generating test specification",
	StageConverting:   "converting artifacts",
	StageCompleted:    "completed",
	StageFailed:       "failed",
}

// ProgressSnapshot is one progress update from the pipeline. Each snapshot
// fully replaces the previous one; there is no incremental merge.
type ProgressSnapshot struct {
	Stage     string `json:"stage"`
	Message   string `json:"message"`
	Progress  int    `json:"progress"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Percent returns the progress clamped to [0,100]. The backend contract
// promises the range but out-of-range values have been observed, so the
// client clamps before rendering.
func (p *ProgressSnapshot) Percent() int {
	switch {
	case p.Progress < 0:
		return 0
	case p.Progress > 100:
		return 100
	default:
		return p.Progress
	}
}

// Label resolves the human-readable stage label, falling back to the raw
// message for stages the client does not know about.
func (p *ProgressSnapshot) Label() string {
	if label, ok := stageLabels[p.Stage]; ok {
		return label
	}
	return p.Message
}

// Render formats the snapshot as "<label> (<progress>%)".
func (p *ProgressSnapshot) Render() string {
	return fmt.Sprintf("%s (%d%%)", p.Label(), p.Percent())
}
