// Package catalog reads analyzable survey comments, their owning units, and
// the unit taxonomies. It answers "what is left to analyze" for a scope and
// pages through those items in stable id order.
package catalog

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Scope identifies the set of comments a job operates on: every comment of a
// unit, optionally narrowed to a single survey.
type Scope struct {
	UnitID   uuid.UUID  `json:"unit_id"`
	SurveyID *uuid.UUID `json:"survey_id,omitempty"`
}

// String renders the scope as "unit" or "unit/survey".
func (s Scope) String() string {
	if s.SurveyID == nil {
		return s.UnitID.String()
	}
	return fmt.Sprintf("%s/%s", s.UnitID, *s.SurveyID)
}

// Equal reports whether two scopes cover the same comments.
func (s Scope) Equal(other Scope) bool {
	if s.UnitID != other.UnitID {
		return false
	}
	if s.SurveyID == nil || other.SurveyID == nil {
		return s.SurveyID == nil && other.SurveyID == nil
	}
	return *s.SurveyID == *other.SurveyID
}

// ScopeFromRequest reads the scope from the {unitId} path value and the
// optional survey_id query parameter.
func ScopeFromRequest(r *http.Request) (Scope, error) {
	unitID, err := uuid.Parse(r.PathValue("unitId"))
	if err != nil {
		return Scope{}, fmt.Errorf("%w: unit id: %v", ErrInvalidScope, err)
	}

	scope := Scope{UnitID: unitID}

	if raw := r.URL.Query().Get("survey_id"); raw != "" {
		surveyID, err := uuid.Parse(raw)
		if err != nil {
			return Scope{}, fmt.Errorf("%w: survey id: %v", ErrInvalidScope, err)
		}
		scope.SurveyID = &surveyID
	}

	return scope, nil
}

// Item is a single analyzable comment.
type Item struct {
	ID       int64      `json:"id"`
	UnitID   uuid.UUID  `json:"unit_id"`
	SurveyID *uuid.UUID `json:"survey_id,omitempty"`
	Text     string     `json:"text"`
}

// BatchRequest pages through pending items. After is an exclusive id cursor;
// Limit is clamped to the configured maximum batch size.
type BatchRequest struct {
	After int64
	Limit int
}

// Unit is an organizational unit. Context carries free-text instructions
// passed to the classifier for comments owned by the unit.
type Unit struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Context string    `json:"context"`
}

// Category is a taxonomy entry of a unit.
type Category struct {
	ID          uuid.UUID `json:"id"`
	UnitID      uuid.UUID `json:"unit_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// PendingUnit is a unit with a count of comments that have no analyses.
type PendingUnit struct {
	UnitID  uuid.UUID `json:"unit_id"`
	Name    string    `json:"name"`
	Pending int       `json:"pending"`
}

// Estimate is the advisory pending count for a scope.
type Estimate struct {
	Scope   Scope `json:"scope"`
	Pending int   `json:"pending"`
}
