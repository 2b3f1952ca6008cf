package analyses_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/analyses"
	"github.com/JaimeStill/verbatim/pkg/pagination"
	"github.com/JaimeStill/verbatim/pkg/routes"
)

type mockSystem struct {
	listFn    func(ctx context.Context, page pagination.PageRequest, filters analyses.Filters) (*pagination.PageResult[analyses.Analysis], error)
	findFn    func(ctx context.Context, id uuid.UUID) (*analyses.Analysis, error)
	summaryFn func(ctx context.Context, filters analyses.Filters) (*analyses.Summary, error)
}

func (m *mockSystem) Handler() *analyses.Handler {
	return analyses.NewHandler(
		m,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 25, MaxPageSize: 100},
	)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters analyses.Filters) (*pagination.PageResult[analyses.Analysis], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*analyses.Analysis, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Summary(ctx context.Context, filters analyses.Filters) (*analyses.Summary, error) {
	return m.summaryFn(ctx, filters)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux
}

func TestHandlerList(t *testing.T) {
	var gotFilters analyses.Filters
	var gotPage pagination.PageRequest

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters analyses.Filters) (*pagination.PageResult[analyses.Analysis], error) {
			gotPage, gotFilters = page, filters
			result := pagination.NewPageResult([]analyses.Analysis{{CommentID: 4, Sentiment: analyses.Negative}}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}

	target := "/analyses?unit_id=" + logisticsID.String() + "&sentiment=negative&placeholder=true&page=2&page_size=10"
	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	if gotFilters.UnitID == nil || *gotFilters.UnitID != logisticsID {
		t.Errorf("unit filter = %v", gotFilters.UnitID)
	}
	if gotFilters.Sentiment == nil || *gotFilters.Sentiment != "Negative" {
		t.Errorf("sentiment filter = %v", gotFilters.Sentiment)
	}
	if gotFilters.Placeholder == nil || !*gotFilters.Placeholder {
		t.Errorf("placeholder filter = %v", gotFilters.Placeholder)
	}
	if gotPage.Page != 2 || gotPage.PageSize != 10 {
		t.Errorf("page = %+v", gotPage)
	}

	var body pagination.PageResult[analyses.Analysis]
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].CommentID != 4 {
		t.Errorf("data = %+v", body.Data)
	}
}

func TestHandlerListInvalidFilter(t *testing.T) {
	tests := []string{
		"/analyses?unit_id=not-a-uuid",
		"/analyses?comment_id=abc",
		"/analyses?suggestion=maybe",
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			setupMux(&mockSystem{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandlerSearch(t *testing.T) {
	var gotFilters analyses.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters analyses.Filters) (*pagination.PageResult[analyses.Analysis], error) {
			gotFilters = filters
			result := pagination.NewPageResult[analyses.Analysis](nil, 0, page.Page, page.PageSize)
			return &result, nil
		},
	}

	body := `{"page":1,"page_size":5,"suggestion":true,"category_id":"` + staffingID.String() + `"}`
	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyses/search", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if gotFilters.Suggestion == nil || !*gotFilters.Suggestion {
		t.Errorf("suggestion filter = %v", gotFilters.Suggestion)
	}
	if gotFilters.CategoryID == nil || *gotFilters.CategoryID != staffingID {
		t.Errorf("category filter = %v", gotFilters.CategoryID)
	}

	rec = httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyses/search", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status: got %d", rec.Code)
	}
}

func TestHandlerSummary(t *testing.T) {
	sys := &mockSystem{
		summaryFn: func(_ context.Context, filters analyses.Filters) (*analyses.Summary, error) {
			if filters.UnitID == nil {
				t.Error("unit filter missing")
			}
			return &analyses.Summary{
				Total:        5,
				Comments:     4,
				Placeholders: 1,
				Sentiments:   []analyses.Count{{Key: "Positive", Count: 3}, {Key: "Neutral", Count: 2}},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses/summary?unit_id="+logisticsID.String(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var s analyses.Summary
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Total != 5 || len(s.Sentiments) != 2 {
		t.Errorf("summary = %+v", s)
	}
}

func TestHandlerFind(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		path       string
		findFn     func(context.Context, uuid.UUID) (*analyses.Analysis, error)
		wantStatus int
	}{
		{
			name: "found",
			path: "/analyses/" + id.String(),
			findFn: func(_ context.Context, got uuid.UUID) (*analyses.Analysis, error) {
				return &analyses.Analysis{ID: got}, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/analyses/" + id.String(),
			findFn: func(context.Context, uuid.UUID) (*analyses.Analysis, error) {
				return nil, analyses.ErrNotFound
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid id",
			path:       "/analyses/42",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			setupMux(&mockSystem{findFn: tt.findFn}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
