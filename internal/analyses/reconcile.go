package analyses

import (
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/classify"
)

// Lookup resolves classifier-supplied names to internal identifiers.
// Names match case-insensitively after trimming surrounding whitespace.
type Lookup struct {
	categories map[string]uuid.UUID
	units      map[string]uuid.UUID
}

// NewLookup indexes a unit's taxonomy and the cross-referenceable units.
func NewLookup(categories []catalog.Category, units []catalog.Unit) Lookup {
	l := Lookup{
		categories: make(map[string]uuid.UUID, len(categories)),
		units:      make(map[string]uuid.UUID, len(units)),
	}
	for _, c := range categories {
		l.categories[normalize(c.Name)] = c.ID
	}
	for _, u := range units {
		l.units[normalize(u.Name)] = u.ID
	}
	return l
}

// Category returns the id of the named category, or nil when unknown.
func (l Lookup) Category(name string) *uuid.UUID {
	id, ok := l.categories[normalize(name)]
	if !ok {
		return nil
	}
	return &id
}

// Unit returns the id of the named unit.
func (l Lookup) Unit(name string) (uuid.UUID, bool) {
	id, ok := l.units[normalize(name)]
	return id, ok
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Reconciliation is the complete set of rows for a batch.
type Reconciliation struct {
	Rows []Row
	// Covered counts batch items that received at least one result.
	Covered int
	// Placeholders counts batch items that received none.
	Placeholders int
	// Unknown counts results addressed to ids outside the batch.
	Unknown int
}

// Reconcile maps classifier output onto the batch. Every batch item ends
// with at least one row: items the classifier omitted, or answered with an
// empty result list, receive a single Neutral, uncategorized placeholder
// carrying the original text. Rows follow batch order.
func Reconcile(batch []catalog.Item, results []classify.ItemResult, lookup Lookup) Reconciliation {
	byItem := make(map[int64][]classify.Result, len(results))
	inBatch := make(map[int64]bool, len(batch))
	for _, item := range batch {
		inBatch[item.ID] = true
	}

	var rec Reconciliation
	for _, r := range results {
		if !inBatch[r.ItemID] {
			rec.Unknown++
			continue
		}
		byItem[r.ItemID] = append(byItem[r.ItemID], r.Results...)
	}

	rec.Rows = make([]Row, 0, len(batch))
	for _, item := range batch {
		tuples := byItem[item.ID]
		if len(tuples) == 0 {
			rec.Placeholders++
			rec.Rows = append(rec.Rows, placeholder(item))
			continue
		}

		rec.Covered++
		for _, t := range tuples {
			rec.Rows = append(rec.Rows, resolve(item, t, lookup))
		}
	}

	return rec
}

func resolve(item catalog.Item, t classify.Result, lookup Lookup) Row {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		text = item.Text
	}

	row := Row{
		CommentID:      item.ID,
		Text:           text,
		Sentiment:      ParseSentiment(t.Sentiment),
		CategoryID:     lookup.Category(t.Category),
		RelatedUnitIDs: []uuid.UUID{},
		Suggestion:     t.Suggestion,
	}

	if t.RelatedUnit != nil {
		if id, ok := lookup.Unit(*t.RelatedUnit); ok {
			row.RelatedUnitIDs = append(row.RelatedUnitIDs, id)
		}
	}

	return row
}

func placeholder(item catalog.Item) Row {
	return Row{
		CommentID:      item.ID,
		Text:           item.Text,
		Sentiment:      Neutral,
		RelatedUnitIDs: []uuid.UUID{},
		Placeholder:    true,
	}
}
