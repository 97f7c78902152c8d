package worker

import (
	"context"
	"errors"
	"time"

	"go-fanout/internal/core/ports"
	"go-fanout/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// retryDelay is how long a loop waits after a queue error.
const retryDelay = time.Second

// Worker pulls task records from a queue and runs one invocation per record.
type Worker struct {
	workerID string
	queue    ports.DescriptorQueue
	service  service.InvocationService
	logger   *zap.Logger
}

func NewWorker(workerID string, q ports.DescriptorQueue, svc service.InvocationService, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		workerID: workerID,
		queue:    q,
		service:  svc,
		logger:   logger.With(zap.String("worker", workerID)),
	}
}

// ProcessNext handles exactly ONE record lifecycle. It returns an error only
// when the queue itself failed; a failed invocation is reported through the
// service's events and never pushes a result record.
func (w *Worker) ProcessNext(ctx context.Context) error {
	// 1. POP: Wait until a record is available
	record, err := w.queue.Pop(ctx)
	if errors.Is(err, ports.ErrQueueEmpty) {
		return nil
	}
	if err != nil {
		return err
	}

	// 2. INVOKE: decode, dispatch, encode
	outcome, err := w.service.Invoke(ctx, record)
	if err != nil {
		return nil
	}

	// 3. COMPLETE: hand the resulting record back to the scheduler
	if err := w.queue.PushResult(ctx, outcome.Record); err != nil {
		w.logger.Error("failed to push result record",
			zap.String("invocation", outcome.InvocationID.String()), zap.Error(err))
		return err
	}
	w.logger.Info("invocation finished",
		zap.String("invocation", outcome.InvocationID.String()),
		zap.String("mode", string(outcome.Mode)))
	return nil
}

// Run loops over ProcessNext until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		err := w.ProcessNext(ctx)
		if err == nil || ctx.Err() != nil {
			continue
		}
		w.logger.Warn("queue error, backing off", zap.Error(err), zap.Duration("delay", retryDelay))
		timer := time.NewTimer(retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// StartPool runs concurrency worker loops sharing one queue and service,
// and blocks until ctx is done and every loop has returned.
func StartPool(ctx context.Context, concurrency int, newWorker func(i int) *Worker) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		w := newWorker(i)
		g.Go(func() error {
			w.logger.Info("worker loop started")
			defer w.logger.Info("worker loop stopped")
			return w.Run(gctx)
		})
	}
	return g.Wait()
}
