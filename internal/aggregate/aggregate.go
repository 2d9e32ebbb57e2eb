// Package aggregate folds extraction, analysis and remote collection
// results into a single report. Aggregation is pure: the same inputs
// always produce a byte-identical serialized report, so runs can be
// compared and cached safely.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"git-repo-analytics/internal/analyzer"
	"git-repo-analytics/internal/depgraph"
	"git-repo-analytics/internal/github"
	"git-repo-analytics/internal/gitlog"
)

const (
	topWords       = 10
	topDefinitions = 5
	topModules     = 5
)

// Input carries everything a single aggregation run consumes.
type Input struct {
	Repository  string
	History     *gitlog.ExtractResult
	Snapshot    []gitlog.FileSnapshot
	Analyses    []*analyzer.FileAnalysis
	Graph       *depgraph.Graph
	RepoInfo    *github.RepoInfo
	Collections []github.Collection
}

// Report is the aggregated view of one repository.
type Report struct {
	Repository   string           `json:"repository"`
	HeadHash     string           `json:"head_hash,omitempty"`
	Remote       *github.RepoInfo `json:"remote,omitempty"`
	Commits      CommitStats      `json:"commits"`
	Code         CodeStats        `json:"code"`
	Graph        GraphStats       `json:"graph"`
	Resources    []ResourceStats  `json:"resources"`
	Contributors []Contributor    `json:"contributors"`
	Failures     []string         `json:"failures"`
	Completeness float64          `json:"completeness"`
}

type CommitStats struct {
	Total      int         `json:"total"`
	Authors    int         `json:"authors"`
	FirstAt    *time.Time  `json:"first_at,omitempty"`
	LastAt     *time.Time  `json:"last_at,omitempty"`
	LinesAdded int         `json:"lines_added"`
	LinesGone  int         `json:"lines_removed"`
	TopWords   []WordCount `json:"top_words"`
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type CodeStats struct {
	Files               int            `json:"files"`
	LinesByLanguage     map[string]int `json:"lines_by_language"`
	Definitions         int            `json:"definitions"`
	Functions           int            `json:"functions"`
	Methods             int            `json:"methods"`
	Classes             int            `json:"classes"`
	MaxComplexity       int            `json:"max_complexity"`
	MeanComplexity      float64        `json:"mean_complexity"`
	MeanMaintainability float64        `json:"mean_maintainability"`
	ParseFailures       int            `json:"parse_failures"`
	MostComplex         []DefRef       `json:"most_complex"`
}

type DefRef struct {
	Path          string `json:"path"`
	QualifiedName string `json:"qualified_name"`
	Complexity    int    `json:"complexity"`
}

type GraphStats struct {
	Modules         int            `json:"modules"`
	Edges           int            `json:"edges"`
	ExternalImports []string       `json:"external_imports"`
	MostImported    []ModuleDegree `json:"most_imported"`
}

type ModuleDegree struct {
	Module string `json:"module"`
	FanIn  int    `json:"fan_in"`
}

type ResourceStats struct {
	Resource     string  `json:"resource"`
	Items        int     `json:"items"`
	Open         int     `json:"open"`
	Closed       int     `json:"closed"`
	Merged       int     `json:"merged"`
	Pages        int     `json:"pages"`
	Truncated    bool    `json:"truncated"`
	Completeness float64 `json:"completeness"`
	Error        string  `json:"error,omitempty"`
}

// Contributor merges local commit authorship with remote contributor
// records. Heuristic marks entries whose identities were correlated by
// name matching rather than an exact handle.
type Contributor struct {
	Name          string `json:"name"`
	Login         string `json:"login,omitempty"`
	Commits       int    `json:"commits"`
	Contributions int    `json:"contributions"`
	Heuristic     bool   `json:"heuristic,omitempty"`
}

// Aggregate builds the report. It performs no I/O and records partial
// failures instead of returning errors.
func Aggregate(in Input) *Report {
	report := &Report{
		Repository:   in.Repository,
		Remote:       in.RepoInfo,
		Resources:    []ResourceStats{},
		Contributors: []Contributor{},
		Failures:     []string{},
	}

	var commits []gitlog.CommitRecord
	if in.History != nil {
		report.HeadHash = in.History.HeadHash
		commits = in.History.Commits
		if in.History.SkippedCommits > 0 {
			report.Failures = append(report.Failures,
				fmt.Sprintf("history: %d unreadable commits skipped", in.History.SkippedCommits))
		}
	}

	report.Commits = commitStats(commits)
	report.Code = codeStats(in.Snapshot, in.Analyses, report)
	report.Graph = graphStats(in.Graph)
	report.Resources, report.Completeness = resourceStats(in.Collections, report)
	report.Contributors = contributorRollup(commits, in.Collections)

	sort.Strings(report.Failures)
	return report
}

func commitStats(commits []gitlog.CommitRecord) CommitStats {
	stats := CommitStats{TopWords: []WordCount{}}
	stats.Total = len(commits)
	if len(commits) == 0 {
		return stats
	}

	authors := make(map[string]struct{})
	words := make(map[string]int)
	var first, last time.Time

	for _, c := range commits {
		authors[strings.ToLower(c.AuthorEmail)] = struct{}{}
		if first.IsZero() || c.AuthoredAt.Before(first) {
			first = c.AuthoredAt
		}
		if c.AuthoredAt.After(last) {
			last = c.AuthoredAt
		}
		for _, d := range c.Deltas {
			stats.LinesAdded += d.Added
			stats.LinesGone += d.Removed
		}
		countWords(words, c.Message)
	}

	stats.Authors = len(authors)
	stats.FirstAt = &first
	stats.LastAt = &last
	stats.TopWords = topWordCounts(words, topWords)
	return stats
}

func codeStats(snapshot []gitlog.FileSnapshot, analyses []*analyzer.FileAnalysis, report *Report) CodeStats {
	stats := CodeStats{
		LinesByLanguage: make(map[string]int),
		MostComplex:     []DefRef{},
	}

	stats.Files = len(snapshot)
	for _, f := range snapshot {
		stats.LinesByLanguage[f.Language] += f.Lines
	}

	var refs []DefRef
	var complexitySum int
	var maintainabilitySum float64

	// Sort analyses by path so ties in the complexity ranking break
	// the same way every run.
	sorted := make([]*analyzer.FileAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, fa := range sorted {
		if fa.ParseFailed {
			stats.ParseFailures++
			report.Failures = append(report.Failures, "analyze: parse failed for "+fa.Path)
			continue
		}
		for _, def := range fa.Definitions {
			stats.Definitions++
			switch def.Kind {
			case "function":
				stats.Functions++
			case "method":
				stats.Methods++
			case "class":
				stats.Classes++
			}
			complexitySum += def.Complexity
			maintainabilitySum += def.Maintainability
			if def.Complexity > stats.MaxComplexity {
				stats.MaxComplexity = def.Complexity
			}
			refs = append(refs, DefRef{Path: fa.Path, QualifiedName: def.QualifiedName, Complexity: def.Complexity})
		}
	}

	if stats.Definitions > 0 {
		stats.MeanComplexity = round2(float64(complexitySum) / float64(stats.Definitions))
		stats.MeanMaintainability = round2(maintainabilitySum / float64(stats.Definitions))
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Complexity != refs[j].Complexity {
			return refs[i].Complexity > refs[j].Complexity
		}
		if refs[i].Path != refs[j].Path {
			return refs[i].Path < refs[j].Path
		}
		return refs[i].QualifiedName < refs[j].QualifiedName
	})
	if len(refs) > topDefinitions {
		refs = refs[:topDefinitions]
	}
	stats.MostComplex = append(stats.MostComplex, refs...)

	return stats
}

func graphStats(g *depgraph.Graph) GraphStats {
	stats := GraphStats{ExternalImports: []string{}, MostImported: []ModuleDegree{}}
	if g == nil {
		return stats
	}

	modules := g.Modules()
	stats.Modules = len(modules)
	stats.Edges = g.EdgeCount()
	stats.ExternalImports = g.ExternalImports()

	degrees := make([]ModuleDegree, 0, len(modules))
	for _, m := range modules {
		if in := len(g.FanIn(m)); in > 0 {
			degrees = append(degrees, ModuleDegree{Module: m, FanIn: in})
		}
	}
	sort.Slice(degrees, func(i, j int) bool {
		if degrees[i].FanIn != degrees[j].FanIn {
			return degrees[i].FanIn > degrees[j].FanIn
		}
		return degrees[i].Module < degrees[j].Module
	})
	if len(degrees) > topModules {
		degrees = degrees[:topModules]
	}
	stats.MostImported = append(stats.MostImported, degrees...)

	return stats
}

func resourceStats(collections []github.Collection, report *Report) ([]ResourceStats, float64) {
	out := make([]ResourceStats, 0, len(collections))
	completeness := 1.0

	sorted := make([]github.Collection, len(collections))
	copy(sorted, collections)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Resource < sorted[j].Resource })

	var sum float64
	for _, col := range sorted {
		rs := ResourceStats{
			Resource:     string(col.Resource),
			Items:        len(col.Items),
			Pages:        col.PagesFetched,
			Truncated:    col.Truncated,
			Completeness: 1,
			Error:        col.Error,
		}
		for _, item := range col.Items {
			switch item.State {
			case "open":
				rs.Open++
			case "closed":
				rs.Closed++
			}
			if item.MergedAt != nil {
				rs.Merged++
			}
		}
		if col.Truncated {
			// Pages beyond the failure are unknown; score by the
			// fraction of attempted pages that succeeded.
			rs.Completeness = round2(float64(col.PagesFetched) / float64(col.TruncatedAt))
			report.Failures = append(report.Failures,
				fmt.Sprintf("collect %s: truncated at page %d: %s", col.Resource, col.TruncatedAt, col.Error))
		}
		sum += rs.Completeness
		out = append(out, rs)
	}

	if len(out) > 0 {
		completeness = round2(sum / float64(len(out)))
	}
	return out, completeness
}

// contributorRollup correlates remote contributor handles with local
// commit authors. Matching is heuristic: a handle equal to the email
// local part or to the normalized author name is assumed to be the
// same person.
func contributorRollup(commits []gitlog.CommitRecord, collections []github.Collection) []Contributor {
	type localAuthor struct {
		name    string
		email   string
		commits int
	}

	locals := make(map[string]*localAuthor)
	for _, c := range commits {
		key := strings.ToLower(c.AuthorEmail)
		if la, ok := locals[key]; ok {
			la.commits++
		} else {
			locals[key] = &localAuthor{name: c.AuthorName, email: c.AuthorEmail, commits: 1}
		}
	}

	localKeys := make([]string, 0, len(locals))
	for key := range locals {
		localKeys = append(localKeys, key)
	}
	sort.Strings(localKeys)

	matched := make(map[string]bool)
	var out []Contributor

	for _, col := range collections {
		if col.Resource != github.ResourceContributors {
			continue
		}
		for _, item := range col.Items {
			c := Contributor{Login: item.Author, Name: item.Author, Contributions: item.Contributions}
			login := strings.ToLower(item.Author)
			for _, key := range localKeys {
				la := locals[key]
				if matched[key] {
					continue
				}
				if emailLocalPart(key) == login || normalizeName(la.name) == login {
					c.Name = la.name
					c.Commits = la.commits
					c.Heuristic = true
					matched[key] = true
					break
				}
			}
			out = append(out, c)
		}
	}

	for _, key := range localKeys {
		if matched[key] {
			continue
		}
		out = append(out, Contributor{Name: locals[key].name, Commits: locals[key].commits})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Commits != out[j].Commits {
			return out[i].Commits > out[j].Commits
		}
		if out[i].Contributions != out[j].Contributions {
			return out[i].Contributions > out[j].Contributions
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Login < out[j].Login
	})
	return out
}

func emailLocalPart(email string) string {
	if idx := strings.IndexByte(email, '@'); idx >= 0 {
		return email[:idx]
	}
	return email
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
