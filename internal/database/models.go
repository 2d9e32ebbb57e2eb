package database

import (
	"encoding/json"
	"time"
)

// RepositoryStatus represents the status of a repository analysis process
type RepositoryStatus string

const (
	StatusPending   RepositoryStatus = "pending"
	StatusAnalyzing RepositoryStatus = "analyzing"
	StatusCompleted RepositoryStatus = "completed"
	StatusFailed    RepositoryStatus = "failed"
)

// Repository represents a git repository being analyzed
type Repository struct {
	ID             int64            `json:"id"`
	URL            string           `json:"url"`
	LocalPath      *string          `json:"local_path,omitempty"`
	DefaultBranch  string           `json:"default_branch"`
	Status         RepositoryStatus `json:"status"`
	LastAnalyzedAt *time.Time       `json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Commit represents a single commit in a repository
type Commit struct {
	ID           int64     `json:"id"`
	RepositoryID int64     `json:"repository_id"`
	Hash         string    `json:"hash"`
	AuthorEmail  string    `json:"author_email"`
	AuthorName   string    `json:"author_name"`
	Message      string    `json:"message"`
	AuthoredAt   time.Time `json:"authored_at"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	CreatedAt    time.Time `json:"created_at"`
}

// CommitFile represents one file touched by one commit
type CommitFile struct {
	ID           int64  `json:"id"`
	RepositoryID int64  `json:"repository_id"`
	CommitHash   string `json:"commit_hash"`
	FilePath     string `json:"file_path"`
	ChangeType   string `json:"change_type"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
}

// File represents a source file present at the analyzed HEAD
type File struct {
	ID           int64     `json:"id"`
	RepositoryID int64     `json:"repository_id"`
	Path         string    `json:"path"`
	Language     string    `json:"language"`
	Lines        int       `json:"lines"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Contributor merges commit authorship with remote contributor data.
// Heuristic marks rows whose remote handle was matched by name.
type Contributor struct {
	ID            int64      `json:"id"`
	RepositoryID  int64      `json:"repository_id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Login         *string    `json:"login,omitempty"`
	CommitCount   int        `json:"commit_count"`
	Contributions int        `json:"contributions"`
	Heuristic     bool       `json:"heuristic"`
	LinesAdded    int        `json:"lines_added"`
	LinesDeleted  int        `json:"lines_deleted"`
	FirstCommitAt *time.Time `json:"first_commit_at,omitempty"`
	LastCommitAt  *time.Time `json:"last_commit_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Definition represents a named definition found in a source file
type Definition struct {
	ID              int64     `json:"id"`
	RepositoryID    int64     `json:"repository_id"`
	FilePath        string    `json:"file_path"`
	QualifiedName   string    `json:"qualified_name"`
	Kind            string    `json:"kind"`
	StartLine       int       `json:"start_line"`
	EndLine         int       `json:"end_line"`
	Complexity      int       `json:"complexity"`
	Maintainability float64   `json:"maintainability"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AnalysisRun is one completed pipeline execution with its report
type AnalysisRun struct {
	ID           string          `json:"id"`
	RepositoryID int64           `json:"repository_id"`
	HeadHash     string          `json:"head_hash"`
	Completeness float64         `json:"completeness"`
	Report       json.RawMessage `json:"report"`
	CreatedAt    time.Time       `json:"created_at"`
}
