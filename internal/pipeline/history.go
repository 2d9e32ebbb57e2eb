package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"git-repo-analytics/internal/analyzer"
	"git-repo-analytics/internal/gitlog"
)

// HistoryPoint is one version of a file in its complexity series.
type HistoryPoint struct {
	Commit      string    `json:"commit"`
	AuthoredAt  time.Time `json:"authored_at"`
	Complexity  int       `json:"complexity"`
	ParseFailed bool      `json:"parse_failed,omitempty"`
}

// ComplexityHistory replays a file through the commits that touched it,
// oldest first, analyzing each version. Complexity of a version is the
// maximum definition complexity in the file at that commit. Versions
// that cannot be read or parsed are kept in the series with
// ParseFailed set so gaps stay visible. A positive depth keeps only
// the most recent versions.
func (p *Pipeline) ComplexityHistory(ctx context.Context, history *gitlog.ExtractResult, path string, depth int) []HistoryPoint {
	var points []HistoryPoint
	a := analyzer.New()
	language := gitlog.DetectLanguage(path)

	// Commits arrive newest first; replay in chronological order.
	for i := len(history.Commits) - 1; i >= 0; i-- {
		commit := history.Commits[i]
		touched := false
		deleted := false
		for _, d := range commit.Deltas {
			if d.Path != path {
				continue
			}
			touched = true
			deleted = d.Change == gitlog.ChangeDeleted
		}
		if !touched || deleted {
			continue
		}

		point := HistoryPoint{Commit: commit.Hash, AuthoredAt: commit.AuthoredAt}
		content, err := p.cfg.Extractor.ContentAt(commit.Hash, path)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"commit": commit.Hash,
				"path":   path,
			}).Warn("failed to read historical version")
			point.ParseFailed = true
			points = append(points, point)
			continue
		}

		fa := a.AnalyzeSource(ctx, path, language, content)
		if fa.ParseFailed {
			point.ParseFailed = true
		} else {
			for _, def := range fa.Definitions {
				if def.Complexity > point.Complexity {
					point.Complexity = def.Complexity
				}
			}
		}
		points = append(points, point)
	}

	if depth > 0 && len(points) > depth {
		points = points[len(points)-depth:]
	}
	return points
}
