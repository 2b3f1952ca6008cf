package analyses_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/analyses"
	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/classify"
)

var (
	staffingID  = uuid.MustParse("7d1a2b1e-0000-4000-8000-000000000001")
	processID   = uuid.MustParse("7d1a2b1e-0000-4000-8000-000000000002")
	logisticsID = uuid.MustParse("7d1a2b1e-0000-4000-8000-0000000000a1")
	frontID     = uuid.MustParse("7d1a2b1e-0000-4000-8000-0000000000a2")
)

func lookup() analyses.Lookup {
	return analyses.NewLookup(
		[]catalog.Category{
			{ID: staffingID, Name: "Staffing"},
			{ID: processID, Name: " Process "},
		},
		[]catalog.Unit{
			{ID: logisticsID, Name: "Logistics"},
			{ID: frontID, Name: "Front Office"},
		},
	)
}

func batch(ids ...int64) []catalog.Item {
	items := make([]catalog.Item, len(ids))
	for i, id := range ids {
		items[i] = catalog.Item{ID: id, UnitID: logisticsID, Text: "comment text"}
	}
	return items
}

func str(s string) *string { return &s }

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		input string
		want  analyses.Sentiment
	}{
		{"Positive", analyses.Positive},
		{"  negative ", analyses.Negative},
		{"NEUTRAL", analyses.Neutral},
		{"mixed", analyses.Neutral},
		{"", analyses.Neutral},
	}

	for _, tt := range tests {
		if got := analyses.ParseSentiment(tt.input); got != tt.want {
			t.Errorf("ParseSentiment(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	l := lookup()

	if id := l.Category("staffing"); id == nil || *id != staffingID {
		t.Errorf("Category(staffing) = %v", id)
	}
	if id := l.Category("PROCESS  "); id == nil || *id != processID {
		t.Errorf("Category(PROCESS) = %v", id)
	}
	if id := l.Category("Facilities"); id != nil {
		t.Errorf("unknown category resolved to %v", *id)
	}
	if id, ok := l.Unit("front office"); !ok || id != frontID {
		t.Errorf("Unit(front office) = %v, %v", id, ok)
	}
}

func TestReconcileFullCoverage(t *testing.T) {
	results := []classify.ItemResult{
		{ItemID: 1, Results: []classify.Result{{Text: "Great staff", Sentiment: "positive", Category: "Staffing"}}},
		{ItemID: 2, Results: []classify.Result{
			{Text: "Slow checkout", Sentiment: "Negative", Category: "process", Suggestion: true},
			{Text: "Front desk was kind", Sentiment: "Positive", Category: "Staffing", RelatedUnit: str("Front Office")},
		}},
		{ItemID: 3, Results: []classify.Result{{Text: "", Sentiment: "Neutral", Category: "Unknown Category", RelatedUnit: str("Mars Base")}}},
	}

	rec := analyses.Reconcile(batch(1, 2, 3), results, lookup())

	if rec.Covered != 3 || rec.Placeholders != 0 || rec.Unknown != 0 {
		t.Fatalf("counts = %+v", rec)
	}
	if len(rec.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rec.Rows))
	}

	first := rec.Rows[0]
	if first.CommentID != 1 || first.Sentiment != analyses.Positive || first.CategoryID == nil || *first.CategoryID != staffingID {
		t.Errorf("row 0 = %+v", first)
	}

	related := rec.Rows[2]
	if len(related.RelatedUnitIDs) != 1 || related.RelatedUnitIDs[0] != frontID {
		t.Errorf("related units = %v", related.RelatedUnitIDs)
	}
	if !rec.Rows[1].Suggestion {
		t.Error("suggestion flag lost")
	}

	uncategorized := rec.Rows[3]
	if uncategorized.CategoryID != nil {
		t.Errorf("unknown category should be nil, got %v", *uncategorized.CategoryID)
	}
	if len(uncategorized.RelatedUnitIDs) != 0 {
		t.Errorf("unknown unit should be omitted, got %v", uncategorized.RelatedUnitIDs)
	}
	if uncategorized.Text != "comment text" {
		t.Errorf("empty text should fall back to item text, got %q", uncategorized.Text)
	}
	if uncategorized.Placeholder {
		t.Error("classified row flagged as placeholder")
	}
}

func TestReconcilePartialCoverage(t *testing.T) {
	items := []catalog.Item{
		{ID: 1, Text: "Loved the new schedule"},
		{ID: 2, Text: "Parking lot needs lights"},
	}
	results := []classify.ItemResult{
		{ItemID: 1, Results: []classify.Result{{Text: "Loved the new schedule", Sentiment: "Positive"}}},
	}

	rec := analyses.Reconcile(items, results, lookup())

	if rec.Covered != 1 || rec.Placeholders != 1 {
		t.Fatalf("counts = %+v", rec)
	}
	if len(rec.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rec.Rows))
	}

	p := rec.Rows[1]
	if p.CommentID != 2 || !p.Placeholder || p.Sentiment != analyses.Neutral || p.CategoryID != nil || p.Suggestion {
		t.Errorf("placeholder = %+v", p)
	}
	if p.Text != "Parking lot needs lights" {
		t.Errorf("placeholder text = %q", p.Text)
	}
}

func TestReconcileEdgeCases(t *testing.T) {
	tests := []struct {
		name             string
		batch            []catalog.Item
		results          []classify.ItemResult
		wantRows         int
		wantPlaceholders int
		wantUnknown      int
	}{
		{
			name:             "nothing returned",
			batch:            batch(1, 2, 3),
			wantRows:         3,
			wantPlaceholders: 3,
		},
		{
			name:             "empty result list",
			batch:            batch(1),
			results:          []classify.ItemResult{{ItemID: 1}},
			wantRows:         1,
			wantPlaceholders: 1,
		},
		{
			name:  "invented ids ignored",
			batch: batch(1),
			results: []classify.ItemResult{
				{ItemID: 1, Results: []classify.Result{{Text: "a", Sentiment: "Positive"}}},
				{ItemID: 99, Results: []classify.Result{{Text: "b", Sentiment: "Negative"}}},
			},
			wantRows:    1,
			wantUnknown: 1,
		},
		{
			name:  "duplicate item entries merge",
			batch: batch(1),
			results: []classify.ItemResult{
				{ItemID: 1, Results: []classify.Result{{Text: "a", Sentiment: "Positive"}}},
				{ItemID: 1, Results: []classify.Result{{Text: "b", Sentiment: "Negative"}}},
			},
			wantRows: 2,
		},
		{
			name:     "empty batch",
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := analyses.Reconcile(tt.batch, tt.results, lookup())

			if len(rec.Rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(rec.Rows), tt.wantRows)
			}
			if rec.Placeholders != tt.wantPlaceholders {
				t.Errorf("placeholders = %d, want %d", rec.Placeholders, tt.wantPlaceholders)
			}
			if rec.Unknown != tt.wantUnknown {
				t.Errorf("unknown = %d, want %d", rec.Unknown, tt.wantUnknown)
			}

			covered := make(map[int64]bool)
			for _, row := range rec.Rows {
				covered[row.CommentID] = true
			}
			for _, item := range tt.batch {
				if !covered[item.ID] {
					t.Errorf("item %d has no row", item.ID)
				}
			}
		})
	}
}
