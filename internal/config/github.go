package config

import "time"

// GitHubConfig configures the remote resource collector. An empty Token is
// valid: the GitHub API allows unauthenticated requests at a lower rate limit.
type GitHubConfig struct {
	Token          string
	Owner          string
	Repo           string
	PerPage        int
	RequestsPerSec float64
	MaxRetries     int
	MaxRetryWait   time.Duration
}

func loadGitHubConfig() GitHubConfig {
	return GitHubConfig{
		Token:          getEnv("GITHUB_TOKEN", ""),
		Owner:          getEnv("GITHUB_OWNER", ""),
		Repo:           getEnv("GITHUB_REPO", ""),
		PerPage:        getEnvInt("GITHUB_PER_PAGE", 100),
		RequestsPerSec: float64(getEnvInt("GITHUB_REQUESTS_PER_SEC", 1)),
		MaxRetries:     getEnvInt("GITHUB_MAX_RETRIES", 3),
		MaxRetryWait:   getEnvDuration("GITHUB_MAX_RETRY_WAIT", 2*time.Minute),
	}
}
