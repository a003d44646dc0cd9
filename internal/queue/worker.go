package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"

	"veriform/internal/config"
	"veriform/internal/domain"
	"veriform/internal/logger"
	"veriform/internal/service"
	"veriform/internal/validation"
)

// Worker runs queued dispatches.
type Worker struct {
	server     *asynq.Server
	dispatcher service.Dispatcher

	mu      sync.Mutex
	running bool
}

// NewWorker creates a worker consuming the dispatch queue.
func NewWorker(cfg *config.RedisConfig, dispatcher service.Dispatcher) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	server := asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueName: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warnf("queue.Worker: task %s failed: %v", task.Type(), err)
		}),
	})
	return &Worker{server: server, dispatcher: dispatcher}
}

// ProcessTask handles one TaskTypeDispatch task. Failures the dispatcher
// already recorded on the submission are not retried; anything else is.
func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	task, err := ParseDispatchTask(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.dispatcher.Dispatch(ctx, task.SubmissionID)
	var dispatchErr *validation.DispatchError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &dispatchErr),
		errors.Is(err, domain.ErrInvalidValidationState),
		errors.Is(err, domain.ErrSubmissionNotFound):
		logger.Infof("queue.Worker: dispatch for %s ended: %v", task.SubmissionID, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}

// Start begins consuming tasks in the background.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeDispatch, w.ProcessTask)
	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("queue.Worker.Start: %w", err)
	}
	w.running = true
	logger.Infof("queue.Worker: started")
	return nil
}

// Stop waits for in-flight tasks and shuts the worker down.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.server.Shutdown()
	w.running = false
	logger.Infof("queue.Worker: shutdown complete")
}
