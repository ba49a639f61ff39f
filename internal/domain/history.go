package domain

import (
	"strings"
	"time"
)

// TokenStats carries the language-model token usage recorded for a job.
type TokenStats struct {
	TotalInputTokens  int64 `json:"total_input_tokens"`
	TotalOutputTokens int64 `json:"total_output_tokens"`
}

// HistoryEntry is one row of backend-reported result metadata as returned
// by GET /list-results. The instance id is the sole correlation key between
// a list entry and its download/delete target.
type HistoryEntry struct {
	InstanceID string      `json:"instanceId"`
	Filename   string      `json:"filename"`
	Size       int64       `json:"size"`
	StartTime  string      `json:"start_time,omitempty"`
	EndTime    string      `json:"end_time,omitempty"`
	SeqNumber  string      `json:"seq_number,omitempty"`
	TokenStats *TokenStats `json:"token_stats,omitempty"`
	Model      string      `json:"model,omitempty"`
}

// ShortID derives the display id: the first 8 characters of the instance
// id, uppercased. Shorter ids pass through unchanged.
func (e *HistoryEntry) ShortID() string {
	id := e.InstanceID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// StartedAt parses the entry's start time. The zero time is returned when
// the field is absent or malformed; callers fall back to a lexicographic
// compare of the raw strings in that case.
func (e *HistoryEntry) StartedAt() time.Time {
	if e.StartTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, e.StartTime)
	if err != nil {
		return time.Time{}
	}
	return t
}
