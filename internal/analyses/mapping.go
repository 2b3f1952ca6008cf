package analyses

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/pkg/query"
	"github.com/JaimeStill/verbatim/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "analyses", "a").
	Project("id", "ID").
	Project("comment_id", "CommentID").
	Join("JOIN public.comments c ON c.id = a.comment_id").
	ProjectFrom("c", "unit_id", "UnitID").
	ProjectFrom("c", "survey_id", "SurveyID").
	Project("body", "Text").
	Project("sentiment", "Sentiment").
	Project("category_id", "CategoryID").
	Join("LEFT JOIN public.categories k ON k.id = a.category_id").
	ProjectFrom("k", "name", "Category").
	Project("related_unit_ids", "RelatedUnitIDs").
	Project("suggestion", "Suggestion").
	Project("placeholder", "Placeholder").
	Project("job_id", "JobID").
	Project("created_at", "CreatedAt")

var defaultSort = []query.SortField{
	{Field: "CommentID"},
	{Field: "CreatedAt"},
}

// Filters contains optional filtering criteria for analysis queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	UnitID      *uuid.UUID `json:"unit_id,omitempty"`
	SurveyID    *uuid.UUID `json:"survey_id,omitempty"`
	CommentID   *int64     `json:"comment_id,omitempty"`
	Sentiment   *string    `json:"sentiment,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Suggestion  *bool      `json:"suggestion,omitempty"`
	Placeholder *bool      `json:"placeholder,omitempty"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("UnitID", f.UnitID).
		WhereEquals("SurveyID", f.SurveyID).
		WhereEquals("CommentID", f.CommentID).
		WhereEquals("Sentiment", f.Sentiment).
		WhereEquals("CategoryID", f.CategoryID).
		WhereEquals("Suggestion", f.Suggestion).
		WhereEquals("Placeholder", f.Placeholder).
		WhereEquals("JobID", f.JobID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Malformed identifiers are reported as ErrInvalidRequest.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	uuids := []struct {
		key string
		dst **uuid.UUID
	}{
		{"unit_id", &f.UnitID},
		{"survey_id", &f.SurveyID},
		{"category_id", &f.CategoryID},
		{"job_id", &f.JobID},
	}
	for _, u := range uuids {
		raw := values.Get(u.key)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, u.key, err)
		}
		*u.dst = &id
	}

	if raw := values.Get("comment_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: comment_id: %v", ErrInvalidRequest, err)
		}
		f.CommentID = &id
	}

	if s := values.Get("sentiment"); s != "" {
		sentiment := string(ParseSentiment(s))
		f.Sentiment = &sentiment
	}

	bools := []struct {
		key string
		dst **bool
	}{
		{"suggestion", &f.Suggestion},
		{"placeholder", &f.Placeholder},
	}
	for _, b := range bools {
		raw := values.Get(b.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, b.key, err)
		}
		*b.dst = &v
	}

	return f, nil
}

func scanAnalysis(s repository.Scanner) (Analysis, error) {
	var (
		a       Analysis
		related []byte
	)
	err := s.Scan(
		&a.ID,
		&a.CommentID,
		&a.UnitID,
		&a.SurveyID,
		&a.Text,
		&a.Sentiment,
		&a.CategoryID,
		&a.Category,
		&related,
		&a.Suggestion,
		&a.Placeholder,
		&a.JobID,
		&a.CreatedAt,
	)
	if err != nil {
		return a, err
	}

	a.RelatedUnitIDs = []uuid.UUID{}
	if len(related) > 0 {
		if err := json.Unmarshal(related, &a.RelatedUnitIDs); err != nil {
			return a, fmt.Errorf("decode related_unit_ids: %w", err)
		}
	}
	return a, nil
}

func scanCount(s repository.Scanner) (Count, error) {
	var c Count
	err := s.Scan(&c.Key, &c.Count)
	return c, err
}
