package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/JaimeStill/verbatim/pkg/storage"
)

const reportTimeLayout = "20060102T150405Z"

// Report is the archived record of a finished run.
type Report struct {
	Job        *Job      `json:"job"`
	Percentage int       `json:"percentage"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Reports archives finished runs to blob storage, one document per run.
type Reports struct {
	storage storage.System
	cfg     *storage.Config
}

// NewReports creates a report archive over the given storage system.
func NewReports(store storage.System, cfg *storage.Config) *Reports {
	return &Reports{storage: store, cfg: cfg}
}

// Key returns the blob key of the job's most recent run report.
func (r *Reports) Key(j *Job) string {
	run := "unstarted"
	if j.StartedAt != nil {
		run = j.StartedAt.UTC().Format(reportTimeLayout)
	}
	return r.cfg.Key(j.UnitID.String(), j.ID.String(), run+".json")
}

// Archive uploads the run report for a finished job.
func (r *Reports) Archive(ctx context.Context, j *Job) error {
	data, err := json.MarshalIndent(Report{
		Job:        j,
		Percentage: Percent(j.ProcessedItems, j.TotalItems),
		ArchivedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := r.storage.Upload(ctx, r.Key(j), bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	return nil
}

// Open returns the report of the job's most recent run.
func (r *Reports) Open(ctx context.Context, j *Job) (io.ReadCloser, error) {
	return r.storage.Download(ctx, r.Key(j))
}
