// Package queue moves validation dispatches onto a Redis-backed asynq queue
// so they survive a restart of the API process.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"veriform/internal/config"
	"veriform/internal/logger"
)

const (
	// TaskTypeDispatch is the asynq task type for a validation dispatch.
	TaskTypeDispatch = "validation:dispatch"
	// QueueName is the asynq queue dispatch tasks go to.
	QueueName = "validations"
)

// DispatchTask is the payload of a TaskTypeDispatch task.
type DispatchTask struct {
	SubmissionID uuid.UUID `json:"submission_id"`
}

// NewDispatchTask builds the asynq task for submissionID.
func NewDispatchTask(submissionID uuid.UUID, timeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(DispatchTask{SubmissionID: submissionID})
	if err != nil {
		return nil, fmt.Errorf("queue.NewDispatchTask: %w", err)
	}
	return asynq.NewTask(TaskTypeDispatch, payload,
		asynq.Queue(QueueName),
		asynq.Timeout(timeout),
		asynq.MaxRetry(3),
	), nil
}

// ParseDispatchTask decodes a TaskTypeDispatch payload.
func ParseDispatchTask(t *asynq.Task) (*DispatchTask, error) {
	var task DispatchTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return nil, fmt.Errorf("queue.ParseDispatchTask: %w", err)
	}
	if task.SubmissionID == uuid.Nil {
		return nil, fmt.Errorf("queue.ParseDispatchTask: missing submission_id")
	}
	return &task, nil
}

// RedisOpt converts the config section into asynq connection options.
func RedisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue enqueues dispatch tasks with asynq.
type AsyncQueue struct {
	client  *asynq.Client
	timeout time.Duration
}

// NewAsyncQueue connects to Redis and verifies it is reachable. timeout
// bounds a single dispatch task on the worker.
func NewAsyncQueue(cfg *config.RedisConfig, timeout time.Duration) (*AsyncQueue, error) {
	opt := RedisOpt(cfg)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		return nil, fmt.Errorf("queue.NewAsyncQueue: redis at %s unavailable: %w", cfg.Addr, err)
	}

	return &AsyncQueue{client: asynq.NewClient(opt), timeout: timeout}, nil
}

// Enqueue schedules a dispatch for submissionID.
func (q *AsyncQueue) Enqueue(ctx context.Context, submissionID uuid.UUID) error {
	task, err := NewDispatchTask(submissionID, q.timeout)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("queue.Enqueue: %w", err)
	}
	logger.Infof("queue.Enqueue: dispatch for %s enqueued (id=%s, queue=%s)", submissionID, info.ID, info.Queue)
	return nil
}

// Close releases the Redis connection.
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}
