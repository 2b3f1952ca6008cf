package jobs_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/jobs"
	"github.com/JaimeStill/verbatim/pkg/pagination"
	"github.com/JaimeStill/verbatim/pkg/routes"
	"github.com/JaimeStill/verbatim/pkg/storage"
)

var unitID = uuid.MustParse("6c1f1a58-2d7e-4c0b-9a51-3f7d2e1b8c40")

type mockSystem struct {
	startFn    func(ctx context.Context, scope catalog.Scope) (*jobs.Job, error)
	stopFn     func(ctx context.Context, scope catalog.Scope) (*jobs.Job, error)
	resetFn    func(ctx context.Context, scope catalog.Scope) (*jobs.ResetResult, error)
	progressFn func(ctx context.Context, scope catalog.Scope) (*jobs.Progress, error)
	listFn     func(ctx context.Context, page pagination.PageRequest, filters jobs.Filters) (*pagination.PageResult[jobs.Job], error)
	findFn     func(ctx context.Context, id uuid.UUID) (*jobs.Job, error)
	reportFn   func(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
}

func (m *mockSystem) Handler() *jobs.Handler {
	return jobs.NewHandler(m, discardLogger(), pagination.Config{DefaultPageSize: 25, MaxPageSize: 100})
}

func (m *mockSystem) Start(ctx context.Context, scope catalog.Scope) (*jobs.Job, error) {
	return m.startFn(ctx, scope)
}

func (m *mockSystem) Stop(ctx context.Context, scope catalog.Scope) (*jobs.Job, error) {
	return m.stopFn(ctx, scope)
}

func (m *mockSystem) Reset(ctx context.Context, scope catalog.Scope) (*jobs.ResetResult, error) {
	return m.resetFn(ctx, scope)
}

func (m *mockSystem) Progress(ctx context.Context, scope catalog.Scope) (*jobs.Progress, error) {
	return m.progressFn(ctx, scope)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters jobs.Filters) (*pagination.PageResult[jobs.Job], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Report(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	return m.reportFn(ctx, id)
}

func serve(sys *mockSystem, method, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandlerStart(t *testing.T) {
	survey := uuid.New()

	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
		wantSurvey bool
	}{
		{"unit scope", "/analysis/" + unitID.String() + "/start", nil, http.StatusAccepted, false},
		{"survey scope", "/analysis/" + unitID.String() + "/start?survey_id=" + survey.String(), nil, http.StatusAccepted, true},
		{"already running", "/analysis/" + unitID.String() + "/start", jobs.ErrJobActive, http.StatusConflict, false},
		{"unknown unit", "/analysis/" + unitID.String() + "/start", catalog.ErrNotFound, http.StatusNotFound, false},
		{"bad unit id", "/analysis/not-a-uuid/start", nil, http.StatusBadRequest, false},
		{"bad survey id", "/analysis/" + unitID.String() + "/start?survey_id=nope", nil, http.StatusBadRequest, false},
		{"store failure", "/analysis/" + unitID.String() + "/start", fmt.Errorf("connection reset"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *catalog.Scope
			sys := &mockSystem{
				startFn: func(_ context.Context, scope catalog.Scope) (*jobs.Job, error) {
					got = &scope
					if tt.err != nil {
						return nil, tt.err
					}
					return &jobs.Job{ID: uuid.New(), UnitID: scope.UnitID, SurveyID: scope.SurveyID, Status: jobs.StatusProcessing}, nil
				},
			}

			rec := serve(sys, http.MethodPost, tt.target)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus == http.StatusBadRequest {
				if got != nil {
					t.Error("system called for invalid scope")
				}
				return
			}
			if got == nil || got.UnitID != unitID {
				t.Fatalf("scope = %+v", got)
			}
			if tt.wantSurvey && (got.SurveyID == nil || *got.SurveyID != survey) {
				t.Errorf("survey = %v, want %s", got.SurveyID, survey)
			}
			if !tt.wantSurvey && got.SurveyID != nil {
				t.Errorf("survey = %s, want none", got.SurveyID)
			}
		})
	}
}

func TestHandlerStopAndReset(t *testing.T) {
	sys := &mockSystem{
		stopFn: func(context.Context, catalog.Scope) (*jobs.Job, error) {
			return nil, jobs.ErrNotRunning
		},
		resetFn: func(_ context.Context, scope catalog.Scope) (*jobs.ResetResult, error) {
			return &jobs.ResetResult{Scope: scope, Deleted: 500}, nil
		},
	}

	rec := serve(sys, http.MethodPost, "/analysis/"+unitID.String()+"/stop")
	if rec.Code != http.StatusConflict {
		t.Errorf("stop status: got %d, want 409", rec.Code)
	}

	rec = serve(sys, http.MethodPost, "/analysis/"+unitID.String()+"/reset")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status: got %d", rec.Code)
	}

	var result jobs.ResetResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Deleted != 500 || result.Scope.UnitID != unitID {
		t.Errorf("result = %+v", result)
	}
}

func TestHandlerProgress(t *testing.T) {
	sys := &mockSystem{
		progressFn: func(_ context.Context, scope catalog.Scope) (*jobs.Progress, error) {
			if scope.SurveyID != nil {
				return nil, jobs.ErrNotFound
			}
			return &jobs.Progress{Scope: scope, Status: jobs.StatusProcessing, Processed: 40, Total: 80, Percentage: 50}, nil
		},
	}

	rec := serve(sys, http.MethodGet, "/analysis/"+unitID.String()+"/progress")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var p jobs.Progress
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Percentage != 50 || p.Status != jobs.StatusProcessing {
		t.Errorf("progress = %+v", p)
	}

	rec = serve(sys, http.MethodGet, "/analysis/"+unitID.String()+"/progress?survey_id="+uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown scope status: got %d, want 404", rec.Code)
	}
}

func TestHandlerJobs(t *testing.T) {
	jobID := uuid.New()
	var gotFilters jobs.Filters

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters jobs.Filters) (*pagination.PageResult[jobs.Job], error) {
			gotFilters = filters
			result := pagination.NewPageResult([]jobs.Job{{ID: jobID, UnitID: unitID, Status: jobs.StatusFailed}}, 1, page.Page, page.PageSize)
			return &result, nil
		},
		findFn: func(_ context.Context, id uuid.UUID) (*jobs.Job, error) {
			if id != jobID {
				return nil, jobs.ErrNotFound
			}
			return &jobs.Job{ID: id, UnitID: unitID, Status: jobs.StatusCompleted}, nil
		},
	}

	rec := serve(sys, http.MethodGet, "/jobs?status=failed&unit_id="+unitID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d", rec.Code)
	}
	if gotFilters.Status == nil || *gotFilters.Status != "failed" || gotFilters.UnitID == nil {
		t.Errorf("filters = %+v", gotFilters)
	}

	rec = serve(sys, http.MethodGet, "/jobs?unit_id=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid filter status: got %d, want 400", rec.Code)
	}

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"found", "/jobs/" + jobID.String(), http.StatusOK},
		{"missing", "/jobs/" + uuid.NewString(), http.StatusNotFound},
		{"invalid id", "/jobs/42", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(sys, http.MethodGet, tt.target); rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerReport(t *testing.T) {
	jobID := uuid.New()
	body := `{"job":{"status":"completed"},"percentage":100}`

	sys := &mockSystem{
		reportFn: func(_ context.Context, id uuid.UUID) (io.ReadCloser, error) {
			if id != jobID {
				return nil, jobs.ErrReportsDisabled
			}
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}

	rec := serve(sys, http.MethodGet, "/jobs/"+jobID.String()+"/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}
	wantDisposition := `attachment; filename="report-` + jobID.String() + `.json"`
	if cd := rec.Header().Get("Content-Disposition"); cd != wantDisposition {
		t.Errorf("content disposition = %s", cd)
	}
	if rec.Body.String() != body {
		t.Errorf("body = %s", rec.Body)
	}

	rec = serve(sys, http.MethodGet, "/jobs/"+uuid.NewString()+"/report")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("disabled status: got %d, want 501", rec.Code)
	}

	sys.reportFn = func(context.Context, uuid.UUID) (io.ReadCloser, error) {
		return nil, storage.ErrUnavailable
	}
	rec = serve(sys, http.MethodGet, "/jobs/"+jobID.String()+"/report")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unavailable status: got %d, want 503", rec.Code)
	}
}
