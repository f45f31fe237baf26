package activity

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

// WorkerPoolAwardService fans event processing out over a bounded ants
// pool while keeping the per-message contract synchronous: the caller
// still learns the outcome before committing the offset.
type WorkerPoolAwardService struct {
	baseService AwardService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolAwardService(
	baseService AwardService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolAwardService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolAwardService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessEvent submits the event to the worker pool and waits for its
// result.
func (s *WorkerPoolAwardService) ProcessEvent(ctx context.Context, event *Event) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Debug("Submitting activity event to worker pool",
		"user_id", event.UserID,
		"activity", event.Activity,
	)

	resultChan := make(chan error, 1)

	// Copy the event to avoid data races with the caller.
	eventCopy := *event

	if err := s.pool.Submit(func() {
		resultChan <- s.baseService.ProcessEvent(ctx, &eventCopy)
	}); err != nil {
		logger.Error("Failed to submit activity event to worker pool",
			"user_id", event.UserID,
			"activity", event.Activity,
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolAwardService) Shutdown() {
	s.logger.Info("Shutting down award worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolAwardService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolAwardService) Capacity() int {
	return s.pool.Cap()
}
