package ports

import (
	"context"
	"errors"

	"go-fanout/internal/domain"

	"github.com/google/uuid"
)

// ErrQueueEmpty is returned by Pop when no record arrived in time.
var ErrQueueEmpty = errors.New("queue empty")

// DescriptorQueue carries encoded task records between the scheduler and workers.
type DescriptorQueue interface {
	// Push a record to the pending list
	Push(ctx context.Context, record []byte) error

	// Wait for a pending record, or return ErrQueueEmpty
	Pop(ctx context.Context) ([]byte, error)

	// Hand a resulting record back to the scheduler
	PushResult(ctx context.Context, record []byte) error
}

// EventBus represents the event bus operations
type EventBus interface {
	// Publish the outcome of one invocation
	Publish(ctx context.Context, event domain.InvocationEvent) error

	// Subscribe to invocation events
	Subscribe(ctx context.Context) (<-chan domain.InvocationEvent, error)
}

// InvocationRepository represents the invocation ledger operations
type InvocationRepository interface {
	// Record stores one finished invocation
	Record(ctx context.Context, inv *domain.Invocation) error

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Invocation, error)

	// ListByTask returns the latest invocations of a task, newest first
	ListByTask(ctx context.Context, taskName string, limit int) ([]domain.Invocation, error)
}
