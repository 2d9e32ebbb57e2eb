package worker

import (
	"context"
	"fmt"
	"strings"

	"git-repo-analytics/internal/analyzer"
	"git-repo-analytics/internal/database"
	"git-repo-analytics/internal/gitlog"
	"git-repo-analytics/internal/pipeline"
)

// persistResult writes one pipeline run to the database: commits and
// their file deltas, the HEAD file inventory, definitions, contributor
// roll-ups and finally the run record itself.
func (h *JobHandler) persistResult(ctx context.Context, repoID int64, result *pipeline.Result) error {
	if err := h.db.UpsertCommits(ctx, commitRows(repoID, result.History)); err != nil {
		return err
	}
	if err := h.db.UpsertCommitFiles(ctx, commitFileRows(repoID, result.History)); err != nil {
		return err
	}
	if err := h.db.UpsertFiles(ctx, fileRows(repoID, result.Snapshot)); err != nil {
		return err
	}
	if err := h.db.UpsertDefinitions(ctx, definitionRows(repoID, result.Analyses)); err != nil {
		return err
	}
	if err := h.db.UpsertContributors(ctx, contributorRows(repoID, result)); err != nil {
		return err
	}

	raw, err := result.Report.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	run := &database.AnalysisRun{
		RepositoryID: repoID,
		HeadHash:     result.History.HeadHash,
		Completeness: result.Report.Completeness,
		Report:       raw,
	}
	return h.db.InsertAnalysisRun(ctx, run)
}

func commitRows(repoID int64, history *gitlog.ExtractResult) []*database.Commit {
	rows := make([]*database.Commit, 0, len(history.Commits))
	for _, cr := range history.Commits {
		added, removed := 0, 0
		for _, d := range cr.Deltas {
			added += d.Added
			removed += d.Removed
		}
		rows = append(rows, &database.Commit{
			RepositoryID: repoID,
			Hash:         cr.Hash,
			AuthorEmail:  cr.AuthorEmail,
			AuthorName:   cr.AuthorName,
			Message:      cr.Message,
			AuthoredAt:   cr.AuthoredAt,
			Additions:    added,
			Deletions:    removed,
		})
	}
	return rows
}

func commitFileRows(repoID int64, history *gitlog.ExtractResult) []*database.CommitFile {
	var rows []*database.CommitFile
	for _, cr := range history.Commits {
		for _, d := range cr.Deltas {
			rows = append(rows, &database.CommitFile{
				RepositoryID: repoID,
				CommitHash:   cr.Hash,
				FilePath:     d.Path,
				ChangeType:   string(d.Change),
				Additions:    d.Added,
				Deletions:    d.Removed,
			})
		}
	}
	return rows
}

func fileRows(repoID int64, snapshot []gitlog.FileSnapshot) []*database.File {
	rows := make([]*database.File, 0, len(snapshot))
	for _, f := range snapshot {
		rows = append(rows, &database.File{
			RepositoryID: repoID,
			Path:         f.Path,
			Language:     f.Language,
			Lines:        f.Lines,
		})
	}
	return rows
}

func definitionRows(repoID int64, analyses []*analyzer.FileAnalysis) []*database.Definition {
	var rows []*database.Definition
	for _, fa := range analyses {
		for _, def := range fa.Definitions {
			rows = append(rows, &database.Definition{
				RepositoryID:    repoID,
				FilePath:        fa.Path,
				QualifiedName:   def.QualifiedName,
				Kind:            def.Kind,
				StartLine:       def.StartLine,
				EndLine:         def.EndLine,
				Complexity:      def.Complexity,
				Maintainability: def.Maintainability,
			})
		}
	}
	return rows
}

// contributorRows builds per-author rows from the commit log and folds
// in the remote identities the report correlated by name or handle.
func contributorRows(repoID int64, result *pipeline.Result) []*database.Contributor {
	byEmail := make(map[string]*database.Contributor)
	order := make([]string, 0)

	for _, cr := range result.History.Commits {
		email := strings.ToLower(cr.AuthorEmail)
		row, ok := byEmail[email]
		if !ok {
			row = &database.Contributor{
				RepositoryID: repoID,
				Email:        email,
				Name:         cr.AuthorName,
			}
			byEmail[email] = row
			order = append(order, email)
		}
		row.CommitCount++
		for _, d := range cr.Deltas {
			row.LinesAdded += d.Added
			row.LinesDeleted += d.Removed
		}
		at := cr.AuthoredAt
		if row.FirstCommitAt == nil || at.Before(*row.FirstCommitAt) {
			first := at
			row.FirstCommitAt = &first
		}
		if row.LastCommitAt == nil || at.After(*row.LastCommitAt) {
			last := at
			row.LastCommitAt = &last
		}
	}

	// Match the report's merged contributor entries back to local
	// authors by name.
	for _, rc := range result.Report.Contributors {
		if rc.Login == "" {
			continue
		}
		for _, email := range order {
			row := byEmail[email]
			if row.Login == nil && strings.EqualFold(row.Name, rc.Name) {
				login := rc.Login
				row.Login = &login
				row.Contributions = rc.Contributions
				row.Heuristic = rc.Heuristic
				break
			}
		}
	}

	rows := make([]*database.Contributor, 0, len(order))
	for _, email := range order {
		rows = append(rows, byEmail[email])
	}
	return rows
}
