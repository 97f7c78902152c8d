package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"go-fanout/internal/domain"
	"go-fanout/internal/naming"
)

// Splitter partitions one document into child fragments.
type Splitter struct {
	namer  naming.Namer
	logger *zap.Logger
}

func NewSplitter(namer naming.Namer, logger *zap.Logger) *Splitter {
	return &Splitter{namer: namer, logger: logger}
}

// Split writes fanOut fragment files holding contiguous runs of the input's
// lines, verbatim, and returns a copy of d listing them in order. When
// fanOut equals the line count every fragment holds exactly one line.
//
// Either every fragment is written and listed, or an error is returned and
// the fragments this call created are removed. The input is never modified.
func (s *Splitter) Split(ctx context.Context, d *domain.TaskDescriptor, fanOut int) (*domain.TaskDescriptor, error) {
	const op = "split"
	if d.InputPath == "" {
		return nil, domain.NewError(domain.KindMissingInput, op, "", nil)
	}
	if fanOut < 1 {
		return nil, fmt.Errorf("%s: invalid fan-out %d", op, fanOut)
	}

	children, err := s.plan(d, fanOut)
	if err != nil {
		return nil, err
	}

	total, err := CountLines(d.InputPath)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(d.InputPath)
	if err != nil {
		return nil, domain.NewError(domain.KindUnreadableFile, op, d.InputPath, err)
	}
	defer in.Close()

	// Only fragments this call created are removed on failure. A retried
	// split may overwrite fragments published earlier, but never deletes them.
	var written []string
	undo := func() {
		for _, p := range written {
			if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				s.logger.Warn("failed to remove partial fragment", zap.String("path", p), zap.Error(rmErr))
			}
		}
	}

	lines := newLineReader(in)
	for i, c := range children {
		if err := ctx.Err(); err != nil {
			undo()
			return nil, err
		}
		_, statErr := os.Lstat(c.InputPath)
		existed := statErr == nil
		f, err := os.OpenFile(c.InputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			undo()
			return nil, fmt.Errorf("%s: fragment %d: %w", op, i, err)
		}
		if !existed {
			written = append(written, c.InputPath)
		}
		if err := writeFragment(f, lines, chunkSize(total, fanOut, i)); err != nil {
			undo()
			return nil, fmt.Errorf("%s: fragment %d: %w", op, i, err)
		}
	}

	s.logger.Debug("split fragments written", zap.String("input", d.InputPath), zap.Int("lines", total), zap.Int("children", len(children)))

	out := d.Clone()
	out.Children = children
	return out, nil
}

// plan names every child up front, so a naming problem fails the split
// before any file is touched.
func (s *Splitter) plan(d *domain.TaskDescriptor, fanOut int) ([]domain.ChildRef, error) {
	children := make([]domain.ChildRef, fanOut)
	seen := make(map[string]int, fanOut)
	for i := range children {
		c := s.namer.Child(d, i)
		if c.InputPath == d.InputPath {
			return nil, domain.Malformed("split", "child %d path %s collides with the parent input", i, c.InputPath)
		}
		if j, dup := seen[c.InputPath]; dup {
			return nil, domain.Malformed("split", "children %d and %d share path %s", j, i, c.InputPath)
		}
		seen[c.InputPath] = i
		children[i] = c
	}

	// A retried split must reproduce the children it already published.
	if len(d.Children) > 0 {
		if len(d.Children) != len(children) {
			return nil, domain.Malformed("split", "descriptor already lists %d children, split would produce %d", len(d.Children), len(children))
		}
		for i, c := range d.Children {
			if c.InputPath != children[i].InputPath {
				return nil, domain.Malformed("split", "child %d is %s, split would produce %s", i, c.InputPath, children[i].InputPath)
			}
			children[i] = c
		}
	}
	return children, nil
}

// chunkSize returns the number of lines fragment i receives when total
// lines are spread over n contiguous fragments. Sizes differ by at most one.
func chunkSize(total, n, i int) int {
	size := total / n
	if i < total%n {
		size++
	}
	return size
}

func writeFragment(f *os.File, lines *lineReader, count int) error {
	w := bufio.NewWriter(f)
	for k := 0; k < count; k++ {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			f.Close()
			return domain.NewError(domain.KindUnreadableFile, "split", "", err)
		}
		if _, err := w.WriteString(line); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
