package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/verbatim/pkg/routes"
)

func echo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Pattern", r.Pattern)
	w.WriteHeader(http.StatusOK)
}

func TestRegisterNestedGroups(t *testing.T) {
	mux := http.NewServeMux()

	patterns := routes.Register(mux, routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/analysis",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{unitId}/start", Handler: echo},
					{Method: "GET", Pattern: "/{unitId}/progress", Handler: echo},
				},
			},
			{
				Prefix: "/jobs",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: echo},
					{Method: "GET", Pattern: "/{id}", Handler: echo},
				},
			},
		},
	})

	wantPatterns := []string{
		"POST /analysis/{unitId}/start",
		"GET /analysis/{unitId}/progress",
		"GET /jobs",
		"GET /jobs/{id}",
	}
	if strings.Join(patterns, ",") != strings.Join(wantPatterns, ",") {
		t.Errorf("patterns: got %v, want %v", patterns, wantPatterns)
	}

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantPattern string
	}{
		{"start", "POST", "/analysis/u1/start", http.StatusOK, "POST /analysis/{unitId}/start"},
		{"progress", "GET", "/analysis/u1/progress", http.StatusOK, "GET /analysis/{unitId}/progress"},
		{"list jobs", "GET", "/jobs", http.StatusOK, "GET /jobs"},
		{"find job", "GET", "/jobs/42", http.StatusOK, "GET /jobs/{id}"},
		{"wrong method", "GET", "/analysis/u1/start", http.StatusMethodNotAllowed, ""},
		{"unknown", "GET", "/analysis", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("X-Pattern"); got != tt.wantPattern {
				t.Errorf("pattern: got %q, want %q", got, tt.wantPattern)
			}
		})
	}
}

func TestRegisterMultipleGroups(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux,
		routes.Group{Prefix: "/catalog", Routes: []routes.Route{{Method: "GET", Pattern: "/units", Handler: echo}}},
		routes.Group{Prefix: "/analyses", Routes: []routes.Route{{Method: "GET", Pattern: "/summary", Handler: echo}}},
	)

	for _, path := range []string{"/catalog/units", "/analyses/summary"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d", path, rec.Code)
		}
	}
}

func TestRegisterIncompleteRoutePanics(t *testing.T) {
	tests := []struct {
		name  string
		route routes.Route
	}{
		{"missing method", routes.Route{Pattern: "/units", Handler: echo}},
		{"missing handler", routes.Route{Method: "GET", Pattern: "/units"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			routes.Register(http.NewServeMux(), routes.Group{Prefix: "/catalog", Routes: []routes.Route{tt.route}})
		})
	}
}
