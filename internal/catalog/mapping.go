package catalog

import (
	"github.com/JaimeStill/verbatim/pkg/query"
	"github.com/JaimeStill/verbatim/pkg/repository"
)

const pendingClause = "NOT EXISTS (SELECT 1 FROM public.analyses a WHERE a.comment_id = c.id)"

var itemProjection = query.
	NewProjectionMap("public", "comments", "c").
	Project("id", "ID").
	Project("unit_id", "UnitID").
	Project("survey_id", "SurveyID").
	Project("body", "Text")

var unitProjection = query.
	NewProjectionMap("public", "units", "u").
	Project("id", "ID").
	Project("name", "Name").
	Project("context", "Context")

var categoryProjection = query.
	NewProjectionMap("public", "categories", "k").
	Project("id", "ID").
	Project("unit_id", "UnitID").
	Project("name", "Name").
	Project("description", "Description")

// pending starts a builder over the scope's comments that have no analyses.
func pending(scope Scope) *query.Builder {
	qb := query.
		NewBuilder(itemProjection, query.SortField{Field: "ID"}).
		WhereEquals("UnitID", scope.UnitID)

	if scope.SurveyID != nil {
		qb.WhereEquals("SurveyID", *scope.SurveyID)
	}

	return qb.Where(pendingClause)
}

func scanItem(s repository.Scanner) (Item, error) {
	var i Item
	err := s.Scan(&i.ID, &i.UnitID, &i.SurveyID, &i.Text)
	return i, err
}

func scanUnit(s repository.Scanner) (Unit, error) {
	var u Unit
	err := s.Scan(&u.ID, &u.Name, &u.Context)
	return u, err
}

func scanCategory(s repository.Scanner) (Category, error) {
	var c Category
	err := s.Scan(&c.ID, &c.UnitID, &c.Name, &c.Description)
	return c, err
}

func scanPendingUnit(s repository.Scanner) (PendingUnit, error) {
	var p PendingUnit
	err := s.Scan(&p.UnitID, &p.Name, &p.Pending)
	return p, err
}
