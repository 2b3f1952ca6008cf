package jobs

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/pkg/query"
	"github.com/JaimeStill/verbatim/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "analysis_jobs", "j").
	Project("id", "ID").
	Project("unit_id", "UnitID").
	Project("survey_id", "SurveyID").
	Project("status", "Status").
	Project("total_items", "TotalItems").
	Project("processed_items", "ProcessedItems").
	Project("failed_items", "FailedItems").
	Project("batches", "Batches").
	Project("cursor", "Cursor").
	Project("stop_requested", "StopRequested").
	Project("logs", "Logs").
	Project("created_at", "CreatedAt").
	Project("started_at", "StartedAt").
	Project("finished_at", "FinishedAt").
	Project("updated_at", "UpdatedAt")

const returning = `RETURNING id, unit_id, survey_id, status, total_items, processed_items,
	failed_items, batches, cursor, stop_requested, logs, created_at, started_at, finished_at, updated_at`

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for job queries.
type Filters struct {
	UnitID *uuid.UUID `json:"unit_id,omitempty"`
	Status *string    `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("UnitID", f.UnitID).
		WhereEquals("Status", f.Status)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if raw := values.Get("unit_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: unit_id: %v", ErrInvalidRequest, err)
		}
		f.UnitID = &id
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	return f, nil
}

func scanJob(s repository.Scanner) (Job, error) {
	var (
		j    Job
		logs []byte
	)
	err := s.Scan(
		&j.ID,
		&j.UnitID,
		&j.SurveyID,
		&j.Status,
		&j.TotalItems,
		&j.ProcessedItems,
		&j.FailedItems,
		&j.Batches,
		&j.Cursor,
		&j.StopRequested,
		&logs,
		&j.CreatedAt,
		&j.StartedAt,
		&j.FinishedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return j, err
	}

	j.Logs = []LogEntry{}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &j.Logs); err != nil {
			return j, fmt.Errorf("decode job logs: %w", err)
		}
	}
	return j, nil
}

func encodeLogs(logs []LogEntry) (string, error) {
	if logs == nil {
		logs = []LogEntry{}
	}
	data, err := json.Marshal(logs)
	if err != nil {
		return "", fmt.Errorf("encode job logs: %w", err)
	}
	return string(data), nil
}
