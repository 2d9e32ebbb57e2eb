package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertDefinitions batch inserts or updates extracted definitions
func (db *DB) UpsertDefinitions(ctx context.Context, definitions []*Definition) error {
	if len(definitions) == 0 {
		return nil
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO definitions (repository_id, file_path, qualified_name, kind, start_line, end_line, complexity, maintainability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (repository_id, file_path, qualified_name)
		DO UPDATE SET
			kind = EXCLUDED.kind,
			start_line = EXCLUDED.start_line,
			end_line = EXCLUDED.end_line,
			complexity = EXCLUDED.complexity,
			maintainability = EXCLUDED.maintainability,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, d := range definitions {
		batch.Queue(query, d.RepositoryID, d.FilePath, d.QualifiedName, d.Kind, d.StartLine, d.EndLine, d.Complexity, d.Maintainability)
	}

	br := tx.SendBatch(ctx, batch)

	for range definitions {
		_, err := br.Exec()
		if err != nil {
			br.Close()
			return fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetDefinitionsByRepository retrieves definitions ordered by complexity
func (db *DB) GetDefinitionsByRepository(ctx context.Context, repositoryID int64, limit, offset int) ([]*Definition, error) {
	query := `
		SELECT id, repository_id, file_path, qualified_name, kind, start_line, end_line, complexity, maintainability, created_at, updated_at
		FROM definitions
		WHERE repository_id = $1
		ORDER BY complexity DESC, file_path ASC, qualified_name ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := db.pool.Query(ctx, query, repositoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get definitions: %w", err)
	}
	defer rows.Close()

	definitions := []*Definition{}
	for rows.Next() {
		d := &Definition{}
		err := rows.Scan(
			&d.ID,
			&d.RepositoryID,
			&d.FilePath,
			&d.QualifiedName,
			&d.Kind,
			&d.StartLine,
			&d.EndLine,
			&d.Complexity,
			&d.Maintainability,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		definitions = append(definitions, d)
	}

	return definitions, nil
}

// DeleteDefinitionsByRepository deletes all definitions for a repository
func (db *DB) DeleteDefinitionsByRepository(ctx context.Context, repositoryID int64) error {
	query := `DELETE FROM definitions WHERE repository_id = $1`

	_, err := db.pool.Exec(ctx, query, repositoryID)
	if err != nil {
		return fmt.Errorf("failed to delete definitions: %w", err)
	}

	return nil
}
