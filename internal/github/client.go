// Package github collects issues, pull requests, and contributors from the
// GitHub API in bounded pages, with client-side rate limiting and cache
// write-through.
package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"

	"git-repo-analytics/internal/config"
)

// Fetcher is the transport capability the collector drives: fetch page N of
// resource R, get items plus a has-more signal, or a rate-limit hint error.
type Fetcher interface {
	FetchPage(ctx context.Context, resource Resource, page int) (Page, error)
}

// APIClient implements Fetcher against the GitHub REST API.
type APIClient struct {
	client  *gh.Client
	limiter *rate.Limiter
	owner   string
	repo    string
	perPage int
}

// NewAPIClient builds a client for one repository. An empty token falls back
// to unauthenticated access with GitHub's lower rate limit.
func NewAPIClient(cfg config.GitHubConfig) *APIClient {
	client := gh.NewClient(nil)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	perSec := cfg.RequestsPerSec
	if perSec <= 0 {
		perSec = 1
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}

	return &APIClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		perPage: perPage,
	}
}

// NewAPIClientWithTransport wires an externally built go-github client; tests
// point it at a local httptest server.
func NewAPIClientWithTransport(client *gh.Client, owner, repo string, perPage int) *APIClient {
	return &APIClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(100), 1),
		owner:   owner,
		repo:    repo,
		perPage: perPage,
	}
}

// FetchPage retrieves one page of a resource, normalizing API rate-limit
// responses into RateLimitedError.
func (c *APIClient) FetchPage(ctx context.Context, resource Resource, page int) (Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("rate limiter: %w", err)
	}

	switch resource {
	case ResourceIssues:
		return c.fetchIssues(ctx, page)
	case ResourcePulls:
		return c.fetchPulls(ctx, page)
	case ResourceContributors:
		return c.fetchContributors(ctx, page)
	default:
		return Page{}, fmt.Errorf("unknown resource %q", resource)
	}
}

func (c *APIClient) fetchIssues(ctx context.Context, page int) (Page, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     "all",
		Sort:      "created",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: c.perPage,
		},
	}

	issues, resp, err := c.client.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
	if err != nil {
		return Page{}, normalizeAPIError(err)
	}

	result := Page{HasMore: resp.NextPage != 0}
	for _, issue := range issues {
		item := RemoteItem{
			ID:        issue.GetID(),
			Number:    issue.GetNumber(),
			Title:     issue.GetTitle(),
			State:     issue.GetState(),
			Author:    issue.GetUser().GetLogin(),
			CreatedAt: issue.GetCreatedAt().Time,
			Comments:  issue.GetComments(),
			IsPull:    issue.IsPullRequest(),
		}
		if issue.ClosedAt != nil {
			closed := issue.ClosedAt.Time
			item.ClosedAt = &closed
		}
		for _, label := range issue.Labels {
			item.Labels = append(item.Labels, label.GetName())
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func (c *APIClient) fetchPulls(ctx context.Context, page int) (Page, error) {
	opts := &gh.PullRequestListOptions{
		State:     "all",
		Sort:      "created",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: c.perPage,
		},
	}

	pulls, resp, err := c.client.PullRequests.List(ctx, c.owner, c.repo, opts)
	if err != nil {
		return Page{}, normalizeAPIError(err)
	}

	result := Page{HasMore: resp.NextPage != 0}
	for _, pr := range pulls {
		item := RemoteItem{
			ID:        pr.GetID(),
			Number:    pr.GetNumber(),
			Title:     pr.GetTitle(),
			State:     pr.GetState(),
			Author:    pr.GetUser().GetLogin(),
			CreatedAt: pr.GetCreatedAt().Time,
			IsPull:    true,
		}
		if pr.ClosedAt != nil {
			closed := pr.ClosedAt.Time
			item.ClosedAt = &closed
		}
		if pr.MergedAt != nil {
			merged := pr.MergedAt.Time
			item.MergedAt = &merged
		}
		for _, label := range pr.Labels {
			item.Labels = append(item.Labels, label.GetName())
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func (c *APIClient) fetchContributors(ctx context.Context, page int) (Page, error) {
	opts := &gh.ListContributorsOptions{
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: c.perPage,
		},
	}

	contributors, resp, err := c.client.Repositories.ListContributors(ctx, c.owner, c.repo, opts)
	if err != nil {
		return Page{}, normalizeAPIError(err)
	}

	result := Page{HasMore: resp.NextPage != 0}
	for _, contrib := range contributors {
		result.Items = append(result.Items, RemoteItem{
			ID:            contrib.GetID(),
			Author:        contrib.GetLogin(),
			Contributions: contrib.GetContributions(),
		})
	}
	return result, nil
}

// FetchRepoInfo retrieves repository metadata (stars, forks, language).
func (c *APIClient) FetchRepoInfo(ctx context.Context) (*RepoInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	repo, _, err := c.client.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return nil, normalizeAPIError(err)
	}

	return &RepoInfo{
		FullName:   repo.GetFullName(),
		Stars:      repo.GetStargazersCount(),
		Forks:      repo.GetForksCount(),
		OpenIssues: repo.GetOpenIssuesCount(),
		Language:   repo.GetLanguage(),
		Size:       int64(repo.GetSize()),
		CreatedAt:  repo.GetCreatedAt().Time,
		UpdatedAt:  repo.GetUpdatedAt().Time,
	}, nil
}

// normalizeAPIError translates go-github rate-limit errors into the
// collector's RateLimitedError with an explicit retry window.
func normalizeAPIError(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		wait := time.Until(rateErr.Rate.Reset.Time)
		if wait < 0 {
			wait = time.Second
		}
		return &RateLimitedError{RetryAfter: wait}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &RateLimitedError{RetryAfter: abuseErr.GetRetryAfter()}
	}

	return err
}
