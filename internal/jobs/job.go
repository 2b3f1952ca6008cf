// Package jobs drives incremental analysis runs. Each scope owns one job
// row; a run claims it, walks the scope's pending comments in ascending id
// order in bounded batches, and records progress after every batch so any
// number of observers can poll it.
package jobs

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/catalog"
)

// Status is the state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusStopped    Status = "stopped"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no run is active for the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusStopped, StatusFailed:
		return true
	}
	return false
}

// Log levels recorded in job logs.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogEntry is a single line of a job's rolling log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Job is the persisted state of a scope's analysis runs. Counters, cursor,
// and logs describe the most recent run.
type Job struct {
	ID             uuid.UUID  `json:"id"`
	UnitID         uuid.UUID  `json:"unit_id"`
	SurveyID       *uuid.UUID `json:"survey_id,omitempty"`
	Status         Status     `json:"status"`
	TotalItems     int        `json:"total_items"`
	ProcessedItems int        `json:"processed_items"`
	FailedItems    int        `json:"failed_items"`
	Batches        int        `json:"batches"`
	Cursor         int64      `json:"cursor"`
	StopRequested  bool       `json:"stop_requested"`
	Logs           []LogEntry `json:"logs"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Scope returns the comments the job covers.
func (j *Job) Scope() catalog.Scope {
	return catalog.Scope{UnitID: j.UnitID, SurveyID: j.SurveyID}
}

// Checkpoint is the run state written after every batch.
type Checkpoint struct {
	Total     int
	Processed int
	Failed    int
	Batches   int
	Cursor    int64
	Logs      []LogEntry
}

// Progress is a polling snapshot of a scope's job.
type Progress struct {
	JobID      uuid.UUID     `json:"job_id"`
	Scope      catalog.Scope `json:"scope"`
	Status     Status        `json:"status"`
	Processed  int           `json:"processed"`
	Failed     int           `json:"failed"`
	Total      int           `json:"total"`
	Percentage int           `json:"percentage"`
	Batches    int           `json:"batches"`
	Logs       []LogEntry    `json:"logs"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// NewProgress derives a snapshot from a job row.
func NewProgress(j *Job) *Progress {
	logs := j.Logs
	if logs == nil {
		logs = []LogEntry{}
	}
	return &Progress{
		JobID:      j.ID,
		Scope:      j.Scope(),
		Status:     j.Status,
		Processed:  j.ProcessedItems,
		Failed:     j.FailedItems,
		Total:      j.TotalItems,
		Percentage: Percent(j.ProcessedItems, j.TotalItems),
		Batches:    j.Batches,
		Logs:       logs,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
}

// Percent returns processed as a whole percentage of total, clamped to
// [0, 100]. A non-positive total yields 0.
func Percent(processed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(processed) / float64(total) * 100))
	return min(max(pct, 0), 100)
}

// ResetResult reports the outcome of a scope reset.
type ResetResult struct {
	Scope   catalog.Scope `json:"scope"`
	Deleted int64         `json:"deleted"`
	Job     *Job          `json:"job,omitempty"`
}

// appendLog adds entry to logs, keeping at most size of the newest entries.
func appendLog(logs []LogEntry, entry LogEntry, size int) []LogEntry {
	out := append(slices.Clone(logs), entry)
	if size > 0 && len(out) > size {
		out = out[len(out)-size:]
	}
	return out
}
