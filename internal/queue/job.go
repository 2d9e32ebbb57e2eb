package queue

import (
	"encoding/json"
	"time"
)

type JobType string

// JobType constants - different types of worker jobs
const (
	JobTypeAnalyze = JobType("analyze") // full pipeline run
	JobTypeRefresh = JobType("refresh") // re-run on an already cloned repository
	JobTypePurge   = JobType("purge")   // drop stored data for a repository
)

// Job represents a unit of work
type Job struct {
	ID           string
	RepositoryID int64
	Type         JobType
	Payload      map[string]interface{}
	CreatedAt    time.Time
	Retries      int
	MaxRetries   int
}

// ToJSON - Convert job to JSON string for Redis storage
func (j *Job) ToJSON() (string, error) {
	bytes, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// FromJSON - Parse JSON string back to Job
func FromJSON(data string) (*Job, error) {
	var job Job
	err := json.Unmarshal([]byte(data), &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
