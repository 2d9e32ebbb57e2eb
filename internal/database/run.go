package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertAnalysisRun records a completed pipeline run with its report
func (db *DB) InsertAnalysisRun(ctx context.Context, run *AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	query := `
		INSERT INTO analysis_runs (id, repository_id, head_hash, completeness, report)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := db.pool.QueryRow(ctx, query, run.ID, run.RepositoryID, run.HeadHash, run.Completeness, run.Report).
		Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}

	return nil
}

// GetLatestAnalysisRun retrieves the most recent run for a repository
func (db *DB) GetLatestAnalysisRun(ctx context.Context, repositoryID int64) (*AnalysisRun, error) {
	query := `
		SELECT id, repository_id, head_hash, completeness, report, created_at
		FROM analysis_runs
		WHERE repository_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	run := &AnalysisRun{}
	err := db.pool.QueryRow(ctx, query, repositoryID).Scan(
		&run.ID,
		&run.RepositoryID,
		&run.HeadHash,
		&run.Completeness,
		&run.Report,
		&run.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("analysis run not found")
		}
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}

	return run, nil
}

// ListAnalysisRuns retrieves runs for a repository, newest first
func (db *DB) ListAnalysisRuns(ctx context.Context, repositoryID int64, limit, offset int) ([]*AnalysisRun, error) {
	query := `
		SELECT id, repository_id, head_hash, completeness, report, created_at
		FROM analysis_runs
		WHERE repository_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := db.pool.Query(ctx, query, repositoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	runs := []*AnalysisRun{}
	for rows.Next() {
		run := &AnalysisRun{}
		err := rows.Scan(
			&run.ID,
			&run.RepositoryID,
			&run.HeadHash,
			&run.Completeness,
			&run.Report,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// DeleteRunsByRepository removes all analysis runs for a repository
func (db *DB) DeleteRunsByRepository(ctx context.Context, repositoryID int64) error {
	query := `DELETE FROM analysis_runs WHERE repository_id = $1`

	_, err := db.pool.Exec(ctx, query, repositoryID)
	if err != nil {
		return fmt.Errorf("failed to delete analysis runs: %w", err)
	}

	return nil
}
