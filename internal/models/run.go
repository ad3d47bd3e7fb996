package models

import "time"

// IngestRun is one recorded pass over a source.
type IngestRun struct {
	RunID       int64      `json:"run_id"`
	SourceID    string     `json:"source_id"`
	Status      string     `json:"status"`
	Found       int        `json:"found"`
	Created     int        `json:"created"`
	Updated     int        `json:"updated"`
	Attachments int        `json:"attachments"`
	Errors      int        `json:"errors"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	DurationMs  *int64     `json:"duration_ms"`
}
