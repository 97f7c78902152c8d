package engine

import (
	"context"

	"go-fanout/internal/domain"
)

// Decision is the outcome of mode selection.
type Decision struct {
	Mode domain.Mode

	// FanOut is the number of children to create. Only set for ModeSplit.
	FanOut int
}

// Selector picks the execution path for a descriptor. Precedence is
// merge, then split, then normal.
type Selector struct {
	policy SplitPolicy
}

func NewSelector(policy SplitPolicy) *Selector {
	return &Selector{policy: policy}
}

// Select has no side effects. Errors raised by the split policy (for
// example a missing input path) are fatal to the invocation.
func (s *Selector) Select(ctx context.Context, d *domain.TaskDescriptor) (Decision, error) {
	if d.Mergeable() {
		return Decision{Mode: domain.ModeMerge}, nil
	}
	n, err := s.policy.FanOut(ctx, d)
	if err != nil {
		return Decision{}, err
	}
	if n > 1 {
		return Decision{Mode: domain.ModeSplit, FanOut: n}, nil
	}
	return Decision{Mode: domain.ModeNormal}, nil
}
