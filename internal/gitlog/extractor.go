// Package gitlog extracts commit history from a local git repository.
//
// Extraction walks the log newest-first from HEAD. Each commit's file deltas
// come from a first-parent tree diff; merge commits therefore report deltas
// against their first parent only, which is a documented approximation.
package gitlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/sirupsen/logrus"
)

// ErrRepositoryUnavailable means the log itself cannot be opened or walked.
// Individual unreadable commits are skipped and counted instead.
var ErrRepositoryUnavailable = errors.New("repository unavailable")

// ChangeType classifies a file delta within one commit.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRenamed  ChangeType = "renamed"
)

// FileDelta is one file's change within a commit. Paths are relative to the
// repository root at that revision; renames carry both old and new path.
type FileDelta struct {
	Path    string     `json:"path"`
	OldPath string     `json:"old_path,omitempty"`
	Added   int        `json:"added"`
	Removed int        `json:"removed"`
	Change  ChangeType `json:"change"`
}

// CommitRecord is immutable once extracted; re-extraction is idempotent
// because the hash uniquely identifies it.
type CommitRecord struct {
	Hash        string      `json:"hash"`
	AuthorName  string      `json:"author_name"`
	AuthorEmail string      `json:"author_email"`
	AuthoredAt  time.Time   `json:"authored_at"` // UTC
	Message     string      `json:"message"`
	Parents     []string    `json:"parents,omitempty"`
	Deltas      []FileDelta `json:"deltas,omitempty"`
}

// ExtractResult is one extraction pass over the log.
type ExtractResult struct {
	HeadHash       string         `json:"head_hash"`
	Commits        []CommitRecord `json:"commits"` // newest-first
	SkippedCommits int            `json:"skipped_commits"`
}

// Extractor walks a repository's commit log. It is restartable: every call to
// Extract re-walks the underlying log from HEAD.
type Extractor struct {
	path string
	repo *git.Repository
	head *plumbing.Reference
}

// Open opens the repository at path. Failure to open the repository or
// resolve HEAD is reported as ErrRepositoryUnavailable.
func Open(path string) (*Extractor, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRepositoryUnavailable, path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("%w: no HEAD in %s: %v", ErrRepositoryUnavailable, path, err)
	}

	return &Extractor{path: path, repo: repo, head: head}, nil
}

// Path returns the repository root the extractor was opened on.
func (e *Extractor) Path() string {
	return e.path
}

// HeadHash returns the commit hash HEAD pointed at when the extractor opened.
func (e *Extractor) HeadHash() string {
	return e.head.Hash().String()
}

// Extract walks the log from HEAD. When sinceHash names a commit present in
// the log, the walk stops before it, so the returned sequence concatenated
// with a previously extracted sequence starting at sinceHash has no gaps or
// duplicates. Unreadable commits are skipped, logged, and counted.
func (e *Extractor) Extract(ctx context.Context, sinceHash string) (*ExtractResult, error) {
	iter, err := e.repo.Log(&git.LogOptions{
		From:  e.head.Hash(),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read log: %v", ErrRepositoryUnavailable, err)
	}
	defer iter.Close()

	result := &ExtractResult{HeadHash: e.HeadHash()}

	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if sinceHash != "" && c.Hash.String() == sinceHash {
			return storer.ErrStop
		}

		record, err := e.extractCommit(ctx, c)
		if err != nil {
			result.SkippedCommits++
			logrus.WithFields(logrus.Fields{
				"commit": c.Hash.String(),
				"error":  err,
			}).Warn("skipping unreadable commit")
			return nil
		}

		result.Commits = append(result.Commits, *record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate commits: %w", err)
	}

	return result, nil
}

func (e *Extractor) extractCommit(ctx context.Context, c *object.Commit) (*CommitRecord, error) {
	record := &CommitRecord{
		Hash:        c.Hash.String(),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		AuthoredAt:  c.Author.When.UTC(),
		Message:     c.Message,
	}
	for _, p := range c.ParentHashes {
		record.Parents = append(record.Parents, p.String())
	}

	deltas, err := e.commitDeltas(ctx, c)
	if err != nil {
		return nil, err
	}
	record.Deltas = deltas

	return record, nil
}

// commitDeltas diffs the commit against its first parent (or the empty tree
// for a root commit) with rename detection enabled.
func (e *Extractor) commitDeltas(ctx context.Context, c *object.Commit) ([]FileDelta, error) {
	currentTree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("failed to get first parent: %w", err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("failed to get parent tree: %w", err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, currentTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	deltas := make([]FileDelta, 0, len(changes))
	for _, change := range changes {
		delta, err := classifyChange(ctx, change)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, delta)
	}

	return deltas, nil
}

func classifyChange(ctx context.Context, change *object.Change) (FileDelta, error) {
	action, err := change.Action()
	if err != nil {
		return FileDelta{}, fmt.Errorf("failed to classify change: %w", err)
	}

	var delta FileDelta
	switch action {
	case merkletrie.Insert:
		delta.Path = change.To.Name
		delta.Change = ChangeAdded
	case merkletrie.Delete:
		delta.Path = change.From.Name
		delta.Change = ChangeDeleted
	case merkletrie.Modify:
		delta.Path = change.To.Name
		delta.Change = ChangeModified
		if change.From.Name != change.To.Name {
			// Rename detection matched two entries under different paths.
			delta.Change = ChangeRenamed
			delta.OldPath = change.From.Name
		}
	}

	patch, err := change.PatchContext(ctx)
	if err != nil {
		return FileDelta{}, fmt.Errorf("failed to build patch for %s: %w", delta.Path, err)
	}
	for _, stat := range patch.Stats() {
		delta.Added += stat.Addition
		delta.Removed += stat.Deletion
	}

	return delta, nil
}
