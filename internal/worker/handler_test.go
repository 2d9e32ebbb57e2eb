package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"

	"git-repo-analytics/internal/aggregate"
	"git-repo-analytics/internal/config"
	"git-repo-analytics/internal/database"
	"git-repo-analytics/internal/gitlog"
	"git-repo-analytics/internal/pipeline"
	"git-repo-analytics/internal/queue"
)

func TestHandleJobUnknownType(t *testing.T) {
	handler := NewJobHandler(nil, nil, &config.Config{})

	job := &queue.Job{ID: "x", Type: queue.JobType("bogus")}
	if err := handler.HandleJob(context.Background(), job); err == nil {
		t.Fatal("expected error for unknown job type")
	}
}

func TestHandlePurgeJob(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	clonePath := filepath.Join(t.TempDir(), "repo-7")
	if err := os.MkdirAll(clonePath, 0o755); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM repositories WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "url", "local_path", "default_branch", "status", "last_analyzed_at", "created_at", "updated_at",
		}).AddRow(int64(7), "https://github.com/acme/widgets", &clonePath, "main", database.StatusCompleted, &now, now, now))

	for _, table := range []string{"analysis_runs", "definitions", "files", "contributors", "commit_files", "commits"} {
		mock.ExpectExec("DELETE FROM " + table).
			WithArgs(int64(7)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
	}

	mock.ExpectQuery("UPDATE repositories").
		WithArgs(pgxmock.AnyArg(), database.StatusPending, pgxmock.AnyArg(), "main", int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	handler := NewJobHandler(database.NewTestDB(mock), nil, &config.Config{})
	job := &queue.Job{ID: "j1", RepositoryID: 7, Type: queue.JobTypePurge}

	if err := handler.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("purge job failed: %v", err)
	}

	if _, err := os.Stat(clonePath); !os.IsNotExist(err) {
		t.Errorf("expected clone directory to be removed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func sampleHistory() *gitlog.ExtractResult {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	return &gitlog.ExtractResult{
		HeadHash: "beef",
		Commits: []gitlog.CommitRecord{
			{
				Hash:        "beef",
				AuthorName:  "Jane Doe",
				AuthorEmail: "JANE@example.com",
				AuthoredAt:  t2,
				Deltas: []gitlog.FileDelta{
					{Path: "a.py", Added: 5, Removed: 1, Change: gitlog.ChangeModified},
				},
			},
			{
				Hash:        "cafe",
				AuthorName:  "Jane Doe",
				AuthorEmail: "jane@example.com",
				AuthoredAt:  t1,
				Deltas: []gitlog.FileDelta{
					{Path: "a.py", Added: 10, Removed: 0, Change: gitlog.ChangeAdded},
					{Path: "b.py", Added: 3, Removed: 0, Change: gitlog.ChangeAdded},
				},
			},
		},
	}
}

func TestCommitRows(t *testing.T) {
	rows := commitRows(7, sampleHistory())

	if len(rows) != 2 {
		t.Fatalf("expected 2 commit rows, got %d", len(rows))
	}
	if rows[0].Additions != 5 || rows[0].Deletions != 1 {
		t.Errorf("unexpected delta sums for head commit: +%d -%d", rows[0].Additions, rows[0].Deletions)
	}
	if rows[1].Additions != 13 {
		t.Errorf("expected 13 additions for second commit, got %d", rows[1].Additions)
	}
}

func TestCommitFileRows(t *testing.T) {
	rows := commitFileRows(7, sampleHistory())

	if len(rows) != 3 {
		t.Fatalf("expected 3 commit file rows, got %d", len(rows))
	}
	if rows[0].ChangeType != string(gitlog.ChangeModified) {
		t.Errorf("unexpected change type: %s", rows[0].ChangeType)
	}
}

func TestContributorRowsMergesEmailCaseAndRemote(t *testing.T) {
	result := &pipeline.Result{
		History: sampleHistory(),
		Report: &aggregate.Report{
			Contributors: []aggregate.Contributor{
				{Name: "Jane Doe", Login: "jane", Commits: 2, Contributions: 40, Heuristic: true},
			},
		},
	}

	rows := contributorRows(7, result)
	if len(rows) != 1 {
		t.Fatalf("expected a single contributor, got %d", len(rows))
	}

	c := rows[0]
	if c.Email != "jane@example.com" {
		t.Errorf("expected lowercased email, got %q", c.Email)
	}
	if c.CommitCount != 2 || c.LinesAdded != 18 || c.LinesDeleted != 1 {
		t.Errorf("unexpected totals: commits=%d +%d -%d", c.CommitCount, c.LinesAdded, c.LinesDeleted)
	}
	if c.Login == nil || *c.Login != "jane" || c.Contributions != 40 || !c.Heuristic {
		t.Errorf("remote identity not folded in: %+v", c)
	}
	if c.FirstCommitAt == nil || c.LastCommitAt == nil || !c.FirstCommitAt.Before(*c.LastCommitAt) {
		t.Errorf("unexpected commit time range: %v %v", c.FirstCommitAt, c.LastCommitAt)
	}
}
