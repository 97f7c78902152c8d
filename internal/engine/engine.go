// Package engine turns one task descriptor into exactly one of three
// execution paths: merge the outputs of finished children, split a
// document into children, or process a fragment directly.
//
// Paths handed to the engine must never be written concurrently by two
// invocations. The engine does no locking; the scheduler guarantees it.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"go-fanout/internal/domain"
	"go-fanout/internal/naming"
)

// Engine is the single dispatch point of an invocation.
type Engine struct {
	selector *Selector
	splitter *Splitter
	merger   *Merger
	normal   *NormalProcessor
	logger   *zap.Logger
}

func New(policy SplitPolicy, namer naming.Namer, transform Transform, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		selector: NewSelector(policy),
		splitter: NewSplitter(namer, logger),
		merger:   NewMerger(namer, logger),
		normal:   NewNormalProcessor(namer, transform, logger),
		logger:   logger,
	}
}

// Dispatch selects a mode for d and runs it. On success it returns a
// mutated copy of d; d itself is left untouched. The returned mode is set
// whenever selection succeeded, even if the chosen path then failed.
func (e *Engine) Dispatch(ctx context.Context, d *domain.TaskDescriptor) (*domain.TaskDescriptor, domain.Mode, error) {
	decision, err := e.selector.Select(ctx, d)
	if err != nil {
		return nil, "", err
	}
	log := e.logger.With(zap.String("task", d.TaskName()), zap.String("mode", string(decision.Mode)))
	log.Info("mode selected")

	var out *domain.TaskDescriptor
	switch decision.Mode {
	case domain.ModeMerge:
		log.Info("merging children", zap.Int("children", len(d.Children)))
		out, err = e.merger.Merge(ctx, d)
	case domain.ModeSplit:
		log.Info("splitting document", zap.String("input", d.InputPath), zap.Int("fan_out", decision.FanOut))
		out, err = e.splitter.Split(ctx, d, decision.FanOut)
	case domain.ModeNormal:
		out, err = e.normal.Process(ctx, d)
	default:
		err = fmt.Errorf("unhandled mode %q", decision.Mode)
	}
	if err != nil {
		return nil, decision.Mode, err
	}
	return out, decision.Mode, nil
}
