// Package pipeline orchestrates one full analysis run: history
// extraction, snapshot analysis, dependency graph construction and
// remote resource collection, folded into an aggregate report.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"git-repo-analytics/internal/aggregate"
	"git-repo-analytics/internal/analyzer"
	"git-repo-analytics/internal/depgraph"
	"git-repo-analytics/internal/github"
	"git-repo-analytics/internal/gitlog"
)

// RepoInfoFetcher retrieves remote repository metadata. The remote
// side of a run is optional; a nil fetcher skips it.
type RepoInfoFetcher interface {
	FetchRepoInfo(ctx context.Context) (*github.RepoInfo, error)
}

// Config wires a pipeline together. Extractor and History are
// required; Collector, RepoInfo and Resources enable the remote leg.
type Config struct {
	Repository  string
	Extractor   *gitlog.Extractor
	History     *gitlog.CachedExtractor
	Collector   *github.Collector
	RepoInfo    RepoInfoFetcher
	Resources   []github.Resource
	Concurrency int
	MaxFileSize int64
}

type Pipeline struct {
	cfg Config
}

func New(cfg Config) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{cfg: cfg}
}

// Result carries the aggregate report together with the raw
// artifacts it was computed from, for callers that persist them.
type Result struct {
	Report   *aggregate.Report
	History  *gitlog.ExtractResult
	Snapshot []gitlog.FileSnapshot
	Analyses []*analyzer.FileAnalysis
}

// Run executes a full analysis. Only a failure to read the repository
// itself is fatal; remote truncation and unparseable files surface as
// partial failures inside the report.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	history, err := p.cfg.History.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract history: %w", err)
	}

	snapshot, err := p.cfg.Extractor.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	in := aggregate.Input{
		Repository: p.cfg.Repository,
		History:    history,
		Snapshot:   snapshot,
	}

	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	g.Go(func() error {
		analyses, aerr := p.analyzeSnapshot(gctx, snapshot)
		if aerr != nil {
			return aerr
		}
		mu.Lock()
		in.Analyses = analyses
		in.Graph = buildGraph(analyses)
		mu.Unlock()
		return nil
	})

	if p.cfg.Collector != nil {
		for _, resource := range p.cfg.Resources {
			resource := resource
			g.Go(func() error {
				col := p.cfg.Collector.CollectAll(gctx, resource)
				mu.Lock()
				in.Collections = append(in.Collections, col)
				mu.Unlock()
				return nil
			})
		}
	}

	if p.cfg.RepoInfo != nil {
		g.Go(func() error {
			info, ierr := p.cfg.RepoInfo.FetchRepoInfo(gctx)
			if ierr != nil {
				logrus.WithError(ierr).Warn("failed to fetch repository metadata")
				return nil
			}
			mu.Lock()
			in.RepoInfo = info
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Report:   aggregate.Aggregate(in),
		History:  history,
		Snapshot: snapshot,
		Analyses: in.Analyses,
	}, nil
}

// analyzeSnapshot runs the structural analyzer over every supported
// file at HEAD, bounded by the configured concurrency. Oversized files
// are skipped.
func (p *Pipeline) analyzeSnapshot(ctx context.Context, snapshot []gitlog.FileSnapshot) ([]*analyzer.FileAnalysis, error) {
	results := make([]*analyzer.FileAnalysis, len(snapshot))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, file := range snapshot {
		if !analyzer.Supports(file.Language) {
			continue
		}
		if p.cfg.MaxFileSize > 0 && file.Size > p.cfg.MaxFileSize {
			logrus.WithFields(logrus.Fields{
				"path": file.Path,
				"size": file.Size,
			}).Debug("skipping oversized file")
			continue
		}

		i, file := i, file
		g.Go(func() error {
			content, err := p.cfg.Extractor.ContentAtHead(file.Path)
			if err != nil {
				logrus.WithError(err).WithField("path", file.Path).Warn("failed to read file content")
				return nil
			}
			// The parser holds per-instance state, so each task
			// gets its own.
			results[i] = analyzer.New().AnalyzeSource(gctx, file.Path, file.Language, content)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*analyzer.FileAnalysis, 0, len(results))
	for _, fa := range results {
		if fa != nil {
			out = append(out, fa)
		}
	}
	return out, nil
}

func buildGraph(analyses []*analyzer.FileAnalysis) *depgraph.Graph {
	importsByFile := make(map[string][]string, len(analyses))
	for _, fa := range analyses {
		if fa.ParseFailed {
			importsByFile[fa.Path] = nil
			continue
		}
		importsByFile[fa.Path] = fa.Imports
	}
	return depgraph.Build(importsByFile)
}
