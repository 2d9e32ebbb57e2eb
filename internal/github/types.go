package github

import (
	"errors"
	"fmt"
	"time"
)

// Resource identifies a paginated remote collection.
type Resource string

const (
	ResourceIssues       Resource = "issues"
	ResourcePulls        Resource = "pulls"
	ResourceContributors Resource = "contributors"
)

// Resources lists every paginated resource the collector knows about.
var Resources = []Resource{ResourceIssues, ResourcePulls, ResourceContributors}

// RemoteItem is a normalized issue, pull request, or contributor. IDs are
// unique within their resource type.
type RemoteItem struct {
	ID            int64      `json:"id"`
	Number        int        `json:"number,omitempty"`
	Title         string     `json:"title,omitempty"`
	State         string     `json:"state,omitempty"`
	Author        string     `json:"author,omitempty"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	MergedAt      *time.Time `json:"merged_at,omitempty"`
	Labels        []string   `json:"labels,omitempty"`
	Comments      int        `json:"comments,omitempty"`
	Contributions int        `json:"contributions,omitempty"`
	IsPull        bool       `json:"is_pull,omitempty"`
}

// Page is one bounded slice of a resource.
type Page struct {
	Items   []RemoteItem `json:"items"`
	HasMore bool         `json:"has_more"`
}

// Collection is the merged result of paginating one resource. Partial
// collection is reported, never silently treated as complete.
type Collection struct {
	Resource     Resource     `json:"resource"`
	Items        []RemoteItem `json:"items"`
	PagesFetched int          `json:"pages_fetched"`
	Truncated    bool         `json:"truncated"`
	TruncatedAt  int          `json:"truncated_at,omitempty"` // first page not fetched
	Error        string       `json:"error,omitempty"`
}

// RepoInfo is the repository metadata resource (single fetch, not paginated).
type RepoInfo struct {
	FullName   string    `json:"full_name"`
	Stars      int       `json:"stars"`
	Forks      int       `json:"forks"`
	OpenIssues int       `json:"open_issues"`
	Language   string    `json:"language"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ErrRateLimitExceeded means the retry budget for one resource ran out. The
// resource's collection is truncated; other resources are unaffected.
var ErrRateLimitExceeded = errors.New("rate limit retries exhausted")

// RateLimitedError is the rate-limit hint surfaced by the remote API; the
// collector suspends fetching for RetryAfter before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
