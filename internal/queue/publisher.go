package queue

import (
	"context"
	"fmt"
	"time"

	"git-repo-analytics/internal/redis"

	"github.com/google/uuid"
)

// IPublisher defines the interface for publishing jobs to the queue
type IPublisher interface {
	PublishAnalyzeJob(ctx context.Context, repoID int64) error
	PublishRefreshJob(ctx context.Context, repoID int64) error
	PublishPurgeJob(ctx context.Context, repoID int64) error
	GetQueueLength(ctx context.Context) (int64, error)
}

type publisherImpl struct {
	queue *Queue
}

// NewPublisher creates a publisher
func NewPublisher(redisClient *redis.Client, queueName string) IPublisher {
	return &publisherImpl{
		queue: NewQueue(redisClient, queueName),
	}
}

func (p *publisherImpl) publish(ctx context.Context, repoID int64, jobType JobType) error {
	job := &Job{
		ID:           uuid.New().String(),
		RepositoryID: repoID,
		Type:         jobType,
		Payload:      make(map[string]interface{}),
		CreatedAt:    time.Now(),
		Retries:      0,
		MaxRetries:   3,
	}

	if err := p.queue.Push(ctx, job); err != nil {
		return fmt.Errorf("failed to publish %s job: %w", jobType, err)
	}

	return nil
}

// PublishAnalyzeJob creates a job to run a full analysis of a repository
func (p *publisherImpl) PublishAnalyzeJob(ctx context.Context, repoID int64) error {
	return p.publish(ctx, repoID, JobTypeAnalyze)
}

// PublishRefreshJob creates a job to re-analyze an already cloned repository
func (p *publisherImpl) PublishRefreshJob(ctx context.Context, repoID int64) error {
	return p.publish(ctx, repoID, JobTypeRefresh)
}

// PublishPurgeJob creates a job to drop all stored data for a repository
func (p *publisherImpl) PublishPurgeJob(ctx context.Context, repoID int64) error {
	return p.publish(ctx, repoID, JobTypePurge)
}

// GetQueueLength returns current queue size
func (p *publisherImpl) GetQueueLength(ctx context.Context) (int64, error) {
	length, err := p.queue.Length(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return length, nil
}
