package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"

	"git-repo-analytics/internal/config"
	"git-repo-analytics/internal/database"
)

type fakePublisher struct {
	analyzed  []int64
	refreshed []int64
	purged    []int64
	length    int64
}

func (f *fakePublisher) PublishAnalyzeJob(ctx context.Context, repoID int64) error {
	f.analyzed = append(f.analyzed, repoID)
	return nil
}

func (f *fakePublisher) PublishRefreshJob(ctx context.Context, repoID int64) error {
	f.refreshed = append(f.refreshed, repoID)
	return nil
}

func (f *fakePublisher) PublishPurgeJob(ctx context.Context, repoID int64) error {
	f.purged = append(f.purged, repoID)
	return nil
}

func (f *fakePublisher) GetQueueLength(ctx context.Context) (int64, error) {
	return f.length, nil
}

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface, *fakePublisher) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	pub := &fakePublisher{length: 3}
	h := NewHandler(database.NewTestDB(mock), pub, config.HTTPConfig{LIMIT: 10, OFFSET: 0}, config.AnalyzerConfig{})
	return h, mock, pub
}

func repositoryRow(id int64) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "url", "local_path", "default_branch", "status", "last_analyzed_at", "created_at", "updated_at",
	}).AddRow(id, "https://github.com/acme/widgets", nil, "main", database.StatusCompleted, &now, now, now)
}

func TestPing(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["message"] != "pong" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestCreateRepository(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("INSERT INTO repositories").
		WithArgs("https://github.com/acme/widgets.git", database.StatusPending, "main").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(1), time.Now(), time.Now()))

	body := strings.NewReader(`{"url": "https://github.com/acme/widgets.git"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/repositories", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var repo database.Repository
	if err := json.Unmarshal(rec.Body.Bytes(), &repo); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if repo.ID != 1 {
		t.Errorf("expected repository id 1, got %d", repo.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateRepositoryRejectsInvalidURL(t *testing.T) {
	h, _, _ := newTestHandler(t)

	body := strings.NewReader(`{"url": "not a url"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/repositories", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Code != "VALIDATION_ERROR" {
		t.Errorf("expected validation error, got %+v", resp)
	}
}

func TestGetRepositoryNotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM repositories WHERE id").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/repositories/99", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAnalyzeRepositoryQueuesJob(t *testing.T) {
	h, mock, pub := newTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM repositories WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(repositoryRow(7))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/repositories/7/analyze", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(pub.analyzed) != 1 || pub.analyzed[0] != 7 {
		t.Errorf("expected analyze job for repo 7, got %v", pub.analyzed)
	}
}

func TestPurgeRepositoryQueuesJob(t *testing.T) {
	h, mock, pub := newTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM repositories WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(repositoryRow(7))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/repositories/7", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(pub.purged) != 1 || pub.purged[0] != 7 {
		t.Errorf("expected purge job for repo 7, got %v", pub.purged)
	}
}

func TestGetQueueLength(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/queue/length", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["queue_length"] != 3 {
		t.Errorf("expected queue length 3, got %d", body["queue_length"])
	}
}

func TestInvalidRepositoryIDRejected(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/repositories/abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetLatestReportNotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("FROM analysis_runs").
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/repositories/7/report", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func fixtureRepoDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{
		"def f(a):\n    return a\n",
		"def f(a):\n    if a:\n        return a\n    return 0\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, "x.py"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add("x.py"); err != nil {
			t.Fatal(err)
		}
		_, err := wt.Commit("rev", &git.CommitOptions{
			Author: &object.Signature{Name: "Jane Doe", Email: "jane@example.com", When: when.Add(time.Duration(i) * time.Minute)},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestComplexityHistoryUsesConfiguredDepth(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	dir := fixtureRepoDir(t)
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM repositories WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "url", "local_path", "default_branch", "status", "last_analyzed_at", "created_at", "updated_at",
		}).AddRow(int64(7), "https://github.com/acme/widgets", &dir, "main", database.StatusCompleted, &now, now, now))

	h := NewHandler(database.NewTestDB(mock), &fakePublisher{}, config.HTTPConfig{LIMIT: 10}, config.AnalyzerConfig{HistoryDepth: 1})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/repositories/7/complexity-history?path=x.py", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		History []struct {
			Complexity int `json:"complexity"`
		} `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(body.History) != 1 {
		t.Fatalf("configured depth must cap the series, got %d points", len(body.History))
	}
	if body.History[0].Complexity != 2 {
		t.Errorf("depth keeps the newest revision, got complexity %d", body.History[0].Complexity)
	}
}
