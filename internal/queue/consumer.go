package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"git-repo-analytics/internal/redis"
)

// Consumer handles consuming jobs from Redis
type Consumer struct {
	queue       *Queue
	handler     JobHandler // Interface to process jobs
	concurrency int        // Number of goroutines
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// JobHandler processes one job at a time
type JobHandler interface {
	HandleJob(ctx context.Context, job *Job) error
}

// NewConsumer creates a consumer
func NewConsumer(
	redisClient *redis.Client,
	queueName string,
	handler JobHandler,
	concurrency int,
) *Consumer {
	return &Consumer{
		queue:       NewQueue(redisClient, queueName),
		handler:     handler,
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start begins consuming jobs (runs goroutines)
func (c *Consumer) Start(ctx context.Context) error {
	if c.concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	logrus.WithField("workers", c.concurrency).Info("starting consumer")

	for i := 0; i < c.concurrency; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i)
	}

	return nil
}

// worker is a goroutine that processes jobs from the queue
func (c *Consumer) worker(ctx context.Context, id int) {
	defer c.wg.Done()

	log := logrus.WithField("worker", id)
	log.Debug("worker started")

	for {
		select {
		case <-c.stopChan:
			log.Debug("worker stopping")
			return
		case <-ctx.Done():
			log.Debug("worker context cancelled")
			return
		default:
			// Pop job with 5 second timeout
			job, err := c.queue.Pop(ctx, 5*time.Second)
			if err != nil {
				// Timeout or empty queue - continue polling
				if err == context.DeadlineExceeded || err.Error() == "redis: nil" {
					continue
				}
				log.WithError(err).Warn("failed to pop job")
				continue
			}

			if job == nil {
				continue
			}

			jobLog := log.WithFields(logrus.Fields{
				"job":  job.ID,
				"type": job.Type,
				"repo": job.RepositoryID,
			})
			jobLog.Info("processing job")

			if err := c.handler.HandleJob(ctx, job); err != nil {
				jobLog.WithError(err).Error("job failed")
			} else {
				jobLog.Info("job completed")
			}
		}
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	logrus.Info("stopping consumer")
	close(c.stopChan)
	c.wg.Wait()
	logrus.Info("consumer stopped")
}
