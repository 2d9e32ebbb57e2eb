package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"

	"git-repo-analytics/internal/cache"
	"git-repo-analytics/internal/config"
	"git-repo-analytics/internal/database"
	"git-repo-analytics/internal/github"
	"git-repo-analytics/internal/gitlog"
	"git-repo-analytics/internal/pipeline"
	"git-repo-analytics/internal/queue"
)

// JobHandler implements the queue.JobHandler interface
type JobHandler struct {
	db    *database.DB
	store cache.Store
	cfg   *config.Config
}

// NewJobHandler creates a new job handler
func NewJobHandler(db *database.DB, store cache.Store, cfg *config.Config) *JobHandler {
	return &JobHandler{
		db:    db,
		store: store,
		cfg:   cfg,
	}
}

// HandleJob processes a job from the queue
func (h *JobHandler) HandleJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAnalyze:
		return h.handleAnalyzeJob(ctx, job.RepositoryID, false)
	case queue.JobTypeRefresh:
		return h.handleAnalyzeJob(ctx, job.RepositoryID, true)
	case queue.JobTypePurge:
		return h.handlePurgeJob(ctx, job.RepositoryID)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleAnalyzeJob clones or updates the repository, runs the full
// pipeline and persists the results. refresh pulls before analyzing.
func (h *JobHandler) handleAnalyzeJob(ctx context.Context, repoID int64, refresh bool) error {
	if err := h.db.UpdateRepositoryStatus(ctx, repoID, database.StatusAnalyzing); err != nil {
		return fmt.Errorf("failed to update repository status: %w", err)
	}

	repo, err := h.db.GetRepository(ctx, repoID)
	if err != nil {
		h.db.UpdateRepositoryStatus(ctx, repoID, database.StatusFailed)
		return fmt.Errorf("failed to get repository: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{"repo": repo.ID, "url": repo.URL})
	log.Info("analyzing repository")

	localPath, err := h.ensureClone(ctx, repo, refresh)
	if err != nil {
		h.db.UpdateRepositoryStatus(ctx, repoID, database.StatusFailed)
		return err
	}

	extractor, err := gitlog.Open(localPath)
	if err != nil {
		h.db.UpdateRepositoryStatus(ctx, repoID, database.StatusFailed)
		return fmt.Errorf("failed to open repository: %w", err)
	}

	result, err := h.runPipeline(ctx, repo, extractor)
	if err != nil {
		h.db.UpdateRepositoryStatus(ctx, repoID, database.StatusFailed)
		return err
	}

	if err := h.persistResult(ctx, repo.ID, result); err != nil {
		h.db.UpdateRepositoryStatus(ctx, repoID, database.StatusFailed)
		return err
	}

	h.exportReport(repo.ID, result)

	now := time.Now().UTC()
	repo.Status = database.StatusCompleted
	repo.LastAnalyzedAt = &now
	if err := h.db.UpdateRepository(ctx, repo); err != nil {
		return fmt.Errorf("failed to update repository: %w", err)
	}

	log.WithField("head", result.History.HeadHash).Info("analysis completed")
	return nil
}

// ensureClone makes sure a local working copy exists, cloning it on
// first use and pulling on refresh.
func (h *JobHandler) ensureClone(ctx context.Context, repo *database.Repository, refresh bool) (string, error) {
	if repo.LocalPath != nil && *repo.LocalPath != "" {
		if refresh {
			if err := pull(ctx, *repo.LocalPath); err != nil {
				return "", fmt.Errorf("failed to update clone: %w", err)
			}
		}
		return *repo.LocalPath, nil
	}

	path := filepath.Join(h.cfg.Worker.StoragePath, fmt.Sprintf("repo-%d", repo.ID))
	_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL: repo.URL,
	})
	if err != nil && !errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return "", fmt.Errorf("failed to clone repository: %w", err)
	}

	repo.LocalPath = &path
	if err := h.db.UpdateRepository(ctx, repo); err != nil {
		return "", fmt.Errorf("failed to record clone path: %w", err)
	}
	return path, nil
}

func pull(ctx context.Context, path string) error {
	r, err := git.PlainOpen(path)
	if err != nil {
		return err
	}
	wt, err := r.Worktree()
	if err != nil {
		return err
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// runPipeline wires and executes one analysis run. The remote leg is
// only attached when a target repository is configured.
func (h *JobHandler) runPipeline(ctx context.Context, repo *database.Repository, extractor *gitlog.Extractor) (*pipeline.Result, error) {
	pcfg := pipeline.Config{
		Repository:  repo.URL,
		Extractor:   extractor,
		History:     gitlog.NewCachedExtractor(extractor, h.store, h.cfg.Cache.DefaultTTL),
		Concurrency: h.cfg.Analyzer.Concurrency,
		MaxFileSize: h.cfg.Analyzer.MaxFileSize,
	}

	if h.cfg.GitHub.Owner != "" && h.cfg.GitHub.Repo != "" {
		client := github.NewAPIClient(h.cfg.GitHub)
		pcfg.Collector = github.NewCollector(
			client,
			h.store,
			h.cfg.Cache.DefaultTTL,
			h.cfg.GitHub.MaxRetries,
			h.cfg.GitHub.MaxRetryWait,
		)
		pcfg.RepoInfo = client
		pcfg.Resources = github.Resources
	}

	result, err := pipeline.New(pcfg).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline failed: %w", err)
	}
	return result, nil
}

// exportReport writes the report dataset to the export directory.
// Export failures are logged but do not fail the run.
func (h *JobHandler) exportReport(repoID int64, result *pipeline.Result) {
	if h.cfg.Worker.ExportPath == "" {
		return
	}
	path := filepath.Join(h.cfg.Worker.ExportPath, fmt.Sprintf("repo-%d.json", repoID))
	if err := result.Report.Export(path); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("failed to export report")
	}
}

// handlePurgeJob drops all stored data for a repository and removes
// the local clone. The repository row itself is kept, reset to pending.
func (h *JobHandler) handlePurgeJob(ctx context.Context, repoID int64) error {
	repo, err := h.db.GetRepository(ctx, repoID)
	if err != nil {
		return fmt.Errorf("failed to get repository: %w", err)
	}

	deletes := []func(context.Context, int64) error{
		h.db.DeleteRunsByRepository,
		h.db.DeleteDefinitionsByRepository,
		h.db.DeleteFilesByRepository,
		h.db.DeleteContributorsByRepository,
		h.db.DeleteCommitFilesByRepository,
		h.db.DeleteCommitsByRepository,
	}
	for _, del := range deletes {
		if err := del(ctx, repoID); err != nil {
			return err
		}
	}

	if repo.LocalPath != nil && *repo.LocalPath != "" {
		if err := os.RemoveAll(*repo.LocalPath); err != nil {
			logrus.WithError(err).WithField("path", *repo.LocalPath).Warn("failed to remove clone")
		}
	}

	repo.LocalPath = nil
	repo.Status = database.StatusPending
	repo.LastAnalyzedAt = nil
	if err := h.db.UpdateRepository(ctx, repo); err != nil {
		return fmt.Errorf("failed to reset repository: %w", err)
	}

	logrus.WithField("repo", repoID).Info("repository data purged")
	return nil
}
