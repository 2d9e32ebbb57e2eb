package database

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func TestCreateRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	db := NewTestDB(mock)
	ctx := context.Background()

	repo := &Repository{
		URL:    "https://github.com/acme/widgets",
		Status: StatusPending,
	}

	mock.ExpectQuery("INSERT INTO repositories").
		WithArgs(repo.URL, repo.Status, "main").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(10), time.Now(), time.Now()))

	err = db.CreateRepository(ctx, repo)
	if err != nil {
		t.Fatalf("CreateRepository failed: %v", err)
	}
	if repo.ID != 10 {
		t.Errorf("expected repository id 10, got %d", repo.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	db := NewTestDB(mock)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM repositories WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "url", "local_path", "default_branch", "status", "last_analyzed_at", "created_at", "updated_at",
		}).AddRow(int64(7), "https://github.com/acme/widgets", nil, "main", StatusCompleted, &now, now, now))

	repo, err := db.GetRepository(ctx, 7)
	if err != nil {
		t.Fatalf("GetRepository failed: %v", err)
	}
	if repo.URL != "https://github.com/acme/widgets" || repo.Status != StatusCompleted {
		t.Errorf("unexpected repository: %+v", repo)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateRepositoryStatusNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	db := NewTestDB(mock)

	mock.ExpectExec("UPDATE repositories").
		WithArgs(StatusAnalyzing, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := db.UpdateRepositoryStatus(context.Background(), 99, StatusAnalyzing); err == nil {
		t.Error("expected error for unknown repository")
	}
}
