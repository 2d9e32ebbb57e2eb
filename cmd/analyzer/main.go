package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"git-repo-analytics/internal/cache"
	"git-repo-analytics/internal/config"
	"git-repo-analytics/internal/github"
	"git-repo-analytics/internal/gitlog"
	"git-repo-analytics/internal/pipeline"
)

// analyzer runs one analysis pass over a local repository and writes
// the report as JSON, without the API server or the job queue.
func main() {
	output := flag.String("output", "", "write the report to this file instead of stdout")
	remote := flag.Bool("remote", false, "collect GitHub issues, pull requests and contributors")
	flag.Parse()

	if flag.NArg() != 1 {
		logrus.Fatal("usage: analyzer [flags] <repository path>")
	}
	repoPath := flag.Arg(0)

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}
	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	extractor, err := gitlog.Open(repoPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open repository")
	}

	store, err := cache.NewBoltStore(filepath.Join(os.TempDir(), "git-analytics-cache.db"))
	if err != nil {
		logrus.WithError(err).Fatal("failed to open cache store")
	}
	defer store.Close()

	pcfg := pipeline.Config{
		Repository:  repoPath,
		Extractor:   extractor,
		History:     gitlog.NewCachedExtractor(extractor, store, cfg.Cache.DefaultTTL),
		Concurrency: cfg.Analyzer.Concurrency,
		MaxFileSize: cfg.Analyzer.MaxFileSize,
	}

	if *remote {
		if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
			logrus.Fatal("remote collection requires GITHUB_OWNER and GITHUB_REPO")
		}
		client := github.NewAPIClient(cfg.GitHub)
		pcfg.Collector = github.NewCollector(
			client,
			store,
			cfg.Cache.DefaultTTL,
			cfg.GitHub.MaxRetries,
			cfg.GitHub.MaxRetryWait,
		)
		pcfg.RepoInfo = client
		pcfg.Resources = github.Resources
	}

	result, err := pipeline.New(pcfg).Run(context.Background())
	if err != nil {
		logrus.WithError(err).Fatal("analysis failed")
	}

	if *output != "" {
		if err := result.Report.Export(*output); err != nil {
			logrus.WithError(err).Fatal("failed to write report")
		}
		logrus.WithField("path", *output).Info("report written")
		return
	}

	if _, err := result.Report.WriteTo(os.Stdout); err != nil {
		logrus.WithError(err).Fatal("failed to write report")
	}
}
