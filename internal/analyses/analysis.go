// Package analyses owns classification results: reconciling classifier
// output against a fetched batch, appending result rows, clearing a scope on
// reset, and the read endpoints dashboards consume.
package analyses

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentiment is the polarity assigned to a classified statement.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// ParseSentiment matches s case-insensitively. Unrecognized labels map to Neutral.
func ParseSentiment(s string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return Positive
	case "negative":
		return Negative
	default:
		return Neutral
	}
}

// Analysis is a persisted classification result for a comment.
type Analysis struct {
	ID             uuid.UUID   `json:"id"`
	CommentID      int64       `json:"comment_id"`
	UnitID         uuid.UUID   `json:"unit_id"`
	SurveyID       *uuid.UUID  `json:"survey_id,omitempty"`
	Text           string      `json:"text"`
	Sentiment      Sentiment   `json:"sentiment"`
	CategoryID     *uuid.UUID  `json:"category_id"`
	Category       *string     `json:"category"`
	RelatedUnitIDs []uuid.UUID `json:"related_unit_ids"`
	Suggestion     bool        `json:"suggestion"`
	Placeholder    bool        `json:"placeholder"`
	JobID          *uuid.UUID  `json:"job_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Row is a result ready to be appended for a comment.
type Row struct {
	CommentID      int64
	Text           string
	Sentiment      Sentiment
	CategoryID     *uuid.UUID
	RelatedUnitIDs []uuid.UUID
	Suggestion     bool
	Placeholder    bool
}

// Count is a labeled tally within a Summary.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary aggregates the results of a scope for dashboards.
type Summary struct {
	Total        int     `json:"total"`
	Comments     int     `json:"comments"`
	Suggestions  int     `json:"suggestions"`
	Placeholders int     `json:"placeholders"`
	Sentiments   []Count `json:"sentiments"`
	Categories   []Count `json:"categories"`
}
