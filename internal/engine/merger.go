package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"go-fanout/internal/domain"
	"go-fanout/internal/naming"
)

// Merger concatenates the outputs of a descriptor's children.
type Merger struct {
	namer  naming.Namer
	logger *zap.Logger
}

func NewMerger(namer naming.Namer, logger *zap.Logger) *Merger {
	return &Merger{namer: namer, logger: logger}
}

// Merge writes the output of every child, in Children order, into one new
// file and returns a copy of d pointing at it. Each child contributes its
// whole output, appended verbatim with no added delimiter.
//
// A child without a readable output fails the merge; no child is skipped.
func (m *Merger) Merge(ctx context.Context, d *domain.TaskDescriptor) (*domain.TaskDescriptor, error) {
	const op = "merge"
	if len(d.Children) == 0 {
		return nil, domain.Malformed(op, "mergeable descriptor lists no children")
	}
	if d.Children[0].ReferencePath() == "" {
		return nil, domain.Malformed(op, "first child has neither input nor output path")
	}

	sources, err := m.sources(d.Children)
	if err != nil {
		return nil, err
	}
	dest := m.namer.MergeOutput(d)
	for i, src := range sources {
		if src == dest {
			return nil, domain.Malformed(op, "merge output %s is the output of child %d", dest, i)
		}
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s: create %s: %w", op, dest, err)
	}
	fail := func(err error) (*domain.TaskDescriptor, error) {
		f.Close()
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			m.logger.Warn("failed to remove partial merge output", zap.String("path", dest), zap.Error(rmErr))
		}
		return nil, err
	}

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		content, err := os.ReadFile(src)
		if err != nil {
			return fail(domain.NewError(domain.KindMissingChildOutput, op, src, fmt.Errorf("child %d: %w", i, err)))
		}
		if _, err := f.Write(content); err != nil {
			return fail(fmt.Errorf("%s: write %s: %w", op, dest, err))
		}
		m.logger.Debug("merged child output", zap.Int("child", i), zap.String("path", src), zap.Int("bytes", len(content)))
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%s: close %s: %w", op, dest, err)
	}

	out := d.Clone()
	out.OutputPath = dest
	return out, nil
}

// sources resolves every child's output path and checks that it exists
// before the merge output is created. A legacy child without a local output
// of its own has that output staged at its input path by the runner.
func (m *Merger) sources(children []domain.ChildRef) ([]string, error) {
	sources := make([]string, len(children))
	for i, c := range children {
		p := c.OutputPath
		if p == "" && c.Keys.Legacy() {
			p = c.InputPath
		}
		if p == "" {
			p = m.namer.ChildOutput(c)
		}
		if p == "" {
			return nil, domain.NewError(domain.KindMissingChildOutput, "merge", "", fmt.Errorf("child %d has no output path", i))
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, domain.NewError(domain.KindMissingChildOutput, "merge", p, fmt.Errorf("child %d: %w", i, err))
		}
		if info.IsDir() {
			return nil, domain.NewError(domain.KindMissingChildOutput, "merge", p, fmt.Errorf("child %d: output is a directory", i))
		}
		sources[i] = p
	}
	return sources, nil
}
