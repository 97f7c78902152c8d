package service

import (
	"context"
	"encoding/json"
	"time"

	"go-fanout/internal/codec"
	"go-fanout/internal/core/ports"
	"go-fanout/internal/domain"
	"go-fanout/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher runs one descriptor through the mode engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, d *domain.TaskDescriptor) (*domain.TaskDescriptor, domain.Mode, error)
}

// Outcome is the result of a successful invocation.
type Outcome struct {
	InvocationID uuid.UUID
	Mode         domain.Mode
	Descriptor   *domain.TaskDescriptor

	// Record is the encoded descriptor, one line without terminator.
	Record []byte
}

type InvocationService interface {
	// Invoke decodes one record, runs it and encodes the result. On error
	// no record is produced.
	Invoke(ctx context.Context, record []byte) (*Outcome, error)
}

// The Implementation
type invocationService struct {
	dispatcher Dispatcher
	repo       ports.InvocationRepository
	bus        ports.EventBus
	metrics    *metrics.Metrics
	workerID   string
	logger     *zap.Logger
}

// NewInvocationService builds the service. repo, bus and m are optional
// and may be nil.
func NewInvocationService(
	dispatcher Dispatcher,
	repo ports.InvocationRepository,
	bus ports.EventBus,
	m *metrics.Metrics,
	workerID string,
	logger *zap.Logger,
) InvocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &invocationService{
		dispatcher: dispatcher,
		repo:       repo,
		bus:        bus,
		metrics:    m,
		workerID:   workerID,
		logger:     logger,
	}
}

func (s *invocationService) Invoke(ctx context.Context, record []byte) (*Outcome, error) {
	start := time.Now()
	inv := domain.NewInvocation(s.workerID, ledgerJSON(record))

	desc, err := codec.Decode(record)
	if err != nil {
		s.fail(ctx, inv, "", err, start)
		return nil, err
	}
	inv.TaskName = desc.TaskName()

	out, mode, err := s.dispatcher.Dispatch(ctx, desc)
	if err != nil {
		s.fail(ctx, inv, mode, err, start)
		return nil, err
	}

	encoded, err := codec.Encode(out)
	if err != nil {
		s.fail(ctx, inv, mode, err, start)
		return nil, err
	}

	inv.Succeed(mode, encoded)
	s.metrics.ObserveInvocation(mode, nil, time.Since(start))
	if mode == domain.ModeSplit {
		s.metrics.AddFragments(len(out.Children))
	}
	s.record(ctx, inv)
	s.publish(ctx, domain.CompletedEvent(inv, out))

	return &Outcome{
		InvocationID: inv.ID,
		Mode:         mode,
		Descriptor:   out,
		Record:       encoded,
	}, nil
}

func (s *invocationService) fail(ctx context.Context, inv *domain.Invocation, mode domain.Mode, err error, start time.Time) {
	inv.Fail(mode, err)
	s.logger.Error("invocation failed",
		zap.String("invocation", inv.ID.String()),
		zap.String("task", inv.TaskName),
		zap.String("mode", string(mode)),
		zap.String("kind", string(inv.ErrorKind)),
		zap.Error(err))
	s.metrics.ObserveInvocation(mode, err, time.Since(start))
	s.record(ctx, inv)
	s.publish(ctx, domain.FailedEvent(inv))
}

// record and publish are best effort: the invocation outcome stands
// whether or not the ledger and the bus accept it.
func (s *invocationService) record(ctx context.Context, inv *domain.Invocation) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Record(ctx, inv); err != nil {
		s.logger.Warn("failed to record invocation", zap.String("invocation", inv.ID.String()), zap.Error(err))
	}
}

func (s *invocationService) publish(ctx context.Context, event domain.InvocationEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish invocation event", zap.String("invocation", event.InvocationID.String()), zap.Error(err))
	}
}

// ledgerJSON keeps a malformed request out of the jsonb column.
func ledgerJSON(record []byte) []byte {
	if json.Valid(record) {
		return record
	}
	quoted, _ := json.Marshal(string(record))
	return quoted
}
