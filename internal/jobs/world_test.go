package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/analyses"
	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/classify"
	"github.com/JaimeStill/verbatim/internal/jobs"
	"github.com/JaimeStill/verbatim/pkg/pagination"
)

// world is an in-memory catalog and job store sharing one results table.
type world struct {
	mu sync.Mutex

	units      []catalog.Unit
	categories map[uuid.UUID][]catalog.Category
	comments   []catalog.Item
	results    map[int64][]analyses.Row
	jobs       map[uuid.UUID]*jobs.Job

	fetches     []int64
	fetchErr    error
	commitErr   func(batch int) error
	deletePages int
	processed   []int
}

func newWorld() *world {
	return &world{
		categories: make(map[uuid.UUID][]catalog.Category),
		results:    make(map[int64][]analyses.Row),
		jobs:       make(map[uuid.UUID]*jobs.Job),
	}
}

func (w *world) addUnit(name string, categories ...string) uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.New()
	w.units = append(w.units, catalog.Unit{ID: id, Name: name, Context: name + " staff feedback"})
	for _, c := range categories {
		w.categories[id] = append(w.categories[id], catalog.Category{ID: uuid.New(), UnitID: id, Name: c})
	}
	return id
}

func (w *world) addComments(unitID uuid.UUID, surveyID *uuid.UUID, n int) []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]int64, n)
	for i := range n {
		id := int64(len(w.comments) + 1)
		w.comments = append(w.comments, catalog.Item{ID: id, UnitID: unitID, SurveyID: surveyID, Text: "comment"})
		ids[i] = id
	}
	return ids
}

func (w *world) seedResults(ids []int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range ids {
		w.results[id] = append(w.results[id], analyses.Row{CommentID: id, Text: "seeded", Sentiment: analyses.Neutral})
	}
}

func (w *world) rowsFor(id int64) []analyses.Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.results[id])
}

func (w *world) resultCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, rows := range w.results {
		n += len(rows)
	}
	return n
}

func (w *world) fetchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.fetches)
}

func inScope(item catalog.Item, scope catalog.Scope) bool {
	if item.UnitID != scope.UnitID {
		return false
	}
	if scope.SurveyID == nil {
		return true
	}
	return item.SurveyID != nil && *item.SurveyID == *scope.SurveyID
}

func sameScope(j *jobs.Job, scope catalog.Scope) bool {
	return j.Scope().Equal(scope)
}

func clone(j *jobs.Job) *jobs.Job {
	c := *j
	c.Logs = slices.Clone(j.Logs)
	return &c
}

// Catalog

func (w *world) Estimate(_ context.Context, scope catalog.Scope) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, c := range w.comments {
		if inScope(c, scope) && len(w.results[c.ID]) == 0 {
			n++
		}
	}
	return n, nil
}

func (w *world) FetchBatch(_ context.Context, scope catalog.Scope, req catalog.BatchRequest) ([]catalog.Item, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.fetches = append(w.fetches, req.After)
	if w.fetchErr != nil {
		return nil, w.fetchErr
	}

	items := make([]catalog.Item, 0, req.Limit)
	for _, c := range w.comments {
		if len(items) == req.Limit {
			break
		}
		if inScope(c, scope) && c.ID > req.After && len(w.results[c.ID]) == 0 {
			items = append(items, c)
		}
	}
	return items, nil
}

func (w *world) Categories(_ context.Context, unitID uuid.UUID) ([]catalog.Category, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.categories[unitID]), nil
}

func (w *world) Units(context.Context) ([]catalog.Unit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.units), nil
}

func (w *world) Unit(_ context.Context, id uuid.UUID) (*catalog.Unit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, u := range w.units {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, catalog.ErrNotFound
}

// Store

func (w *world) Ensure(_ context.Context, scope catalog.Scope) (*jobs.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, j := range w.jobs {
		if sameScope(j, scope) {
			return clone(j), nil
		}
	}

	now := time.Now()
	j := &jobs.Job{
		ID:        uuid.New(),
		UnitID:    scope.UnitID,
		SurveyID:  scope.SurveyID,
		Status:    jobs.StatusPending,
		Logs:      []jobs.LogEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.jobs[j.ID] = j
	return clone(j), nil
}

func (w *world) Find(_ context.Context, id uuid.UUID) (*jobs.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	j, ok := w.jobs[id]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	return clone(j), nil
}

func (w *world) FindByScope(_ context.Context, scope catalog.Scope) (*jobs.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, j := range w.jobs {
		if sameScope(j, scope) {
			return clone(j), nil
		}
	}
	return nil, jobs.ErrNotFound
}

func (w *world) List(_ context.Context, page pagination.PageRequest, filters jobs.Filters) (*pagination.PageResult[jobs.Job], error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []jobs.Job
	for _, j := range w.jobs {
		if filters.UnitID != nil && j.UnitID != *filters.UnitID {
			continue
		}
		if filters.Status != nil && string(j.Status) != *filters.Status {
			continue
		}
		out = append(out, *clone(j))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })

	result := pagination.NewPageResult(out, len(out), 1, max(len(out), 1))
	return &result, nil
}

func (w *world) Active(context.Context) ([]jobs.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []jobs.Job
	for _, j := range w.jobs {
		if !j.Status.Terminal() {
			out = append(out, *clone(j))
		}
	}
	return out, nil
}

func (w *world) Arm(_ context.Context, id uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if j, ok := w.jobs[id]; ok && j.Status.Terminal() {
		j.Status = jobs.StatusPending
	}
	return nil
}

func (w *world) Claim(_ context.Context, id uuid.UUID, logs []jobs.LogEntry) (*jobs.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	j, ok := w.jobs[id]
	if !ok || j.Status != jobs.StatusPending {
		return nil, jobs.ErrJobActive
	}

	now := time.Now()
	j.Status = jobs.StatusProcessing
	j.TotalItems, j.ProcessedItems, j.FailedItems, j.Batches, j.Cursor = 0, 0, 0, 0, 0
	j.StopRequested = false
	j.Logs = slices.Clone(logs)
	j.StartedAt = &now
	j.FinishedAt = nil
	return clone(j), nil
}

func (w *world) RequestStop(_ context.Context, id uuid.UUID) (*jobs.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	j, ok := w.jobs[id]
	if !ok || j.Status.Terminal() {
		return nil, jobs.ErrNotRunning
	}

	j.StopRequested = true
	if j.Status == jobs.StatusPending {
		now := time.Now()
		j.Status = jobs.StatusStopped
		j.FinishedAt = &now
	}
	return clone(j), nil
}

func (w *world) StopRequested(_ context.Context, id uuid.UUID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	j, ok := w.jobs[id]
	if !ok {
		return false, jobs.ErrNotFound
	}
	return j.StopRequested, nil
}

func (w *world) applyCheckpoint(j *jobs.Job, cp jobs.Checkpoint) {
	j.TotalItems = cp.Total
	j.ProcessedItems = cp.Processed
	j.FailedItems = cp.Failed
	j.Batches = cp.Batches
	j.Cursor = cp.Cursor
	j.Logs = slices.Clone(cp.Logs)
	j.UpdatedAt = time.Now()
	w.processed = append(w.processed, cp.Processed)
}

func (w *world) Checkpoint(_ context.Context, id uuid.UUID, cp jobs.Checkpoint) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	j, ok := w.jobs[id]
	if !ok || j.Status != jobs.StatusProcessing {
		return jobs.ErrNotRunning
	}
	w.applyCheckpoint(j, cp)
	return nil
}

func (w *world) CommitBatch(_ context.Context, job *jobs.Job, rows []analyses.Row, cp jobs.Checkpoint) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.commitErr != nil {
		if err := w.commitErr(cp.Batches); err != nil {
			return 0, err
		}
	}

	j, ok := w.jobs[job.ID]
	if !ok || j.Status != jobs.StatusProcessing {
		return 0, jobs.ErrNotRunning
	}

	done := make(map[int64]bool)
	for _, row := range rows {
		if len(w.results[row.CommentID]) > 0 && !done[row.CommentID] {
			continue
		}
		done[row.CommentID] = true
		w.results[row.CommentID] = append(w.results[row.CommentID], row)
	}

	w.applyCheckpoint(j, cp)
	return int64(len(rows)), nil
}

func (w *world) Finish(_ context.Context, id uuid.UUID, status jobs.Status, cp jobs.Checkpoint) (*jobs.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	j, ok := w.jobs[id]
	if !ok || j.Status.Terminal() {
		return nil, jobs.ErrNotRunning
	}

	if status == jobs.StatusCompleted && j.StopRequested {
		status = jobs.StatusStopped
	}

	now := time.Now()
	j.Status = status
	j.FinishedAt = &now
	w.applyCheckpoint(j, cp)
	return clone(j), nil
}

func (w *world) Reset(_ context.Context, scope catalog.Scope, pageSize int) (int64, *jobs.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ids []int64
	for _, c := range w.comments {
		if inScope(c, scope) {
			for range w.results[c.ID] {
				ids = append(ids, c.ID)
			}
		}
	}

	var deleted int64
	for {
		w.deletePages++
		n := min(pageSize, len(ids))
		for _, id := range ids[:n] {
			w.results[id] = w.results[id][1:]
			if len(w.results[id]) == 0 {
				delete(w.results, id)
			}
		}
		ids = ids[n:]
		deleted += int64(n)
		if n < pageSize {
			break
		}
	}

	for _, j := range w.jobs {
		if sameScope(j, scope) && j.Status != jobs.StatusProcessing {
			j.TotalItems, j.ProcessedItems, j.FailedItems, j.Batches, j.Cursor = 0, 0, 0, 0, 0
			j.StopRequested = false
			j.Logs = []jobs.LogEntry{}
			return deleted, clone(j), nil
		}
	}
	return deleted, nil, nil
}

// classifier answers every item with one tuple unless respond overrides it.
type classifier struct {
	mu      sync.Mutex
	calls   [][]int64
	respond func(call int, req classify.Request) ([]classify.ItemResult, error)
}

func (c *classifier) Classify(_ context.Context, req classify.Request) ([]classify.ItemResult, error) {
	c.mu.Lock()
	ids := make([]int64, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ID
	}
	c.calls = append(c.calls, ids)
	call := len(c.calls)
	respond := c.respond
	c.mu.Unlock()

	if respond != nil {
		return respond(call, req)
	}
	return answerAll(req), nil
}

func (c *classifier) submitted() [][]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

func answerAll(req classify.Request) []classify.ItemResult {
	results := make([]classify.ItemResult, len(req.Items))
	for i, item := range req.Items {
		results[i] = classify.ItemResult{
			ItemID: item.ID,
			Results: []classify.Result{{
				Text:      item.Text,
				Sentiment: "Positive",
				Category:  req.Categories[0].Name,
			}},
		}
	}
	return results
}

var errUnavailable = errors.New("classifier unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
