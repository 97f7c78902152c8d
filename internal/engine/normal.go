package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"go-fanout/internal/domain"
	"go-fanout/internal/naming"
)

// NormalProcessor applies the line transform to one fragment.
type NormalProcessor struct {
	namer     naming.Namer
	transform Transform
	logger    *zap.Logger
}

func NewNormalProcessor(namer naming.Namer, transform Transform, logger *zap.Logger) *NormalProcessor {
	return &NormalProcessor{namer: namer, transform: transform, logger: logger}
}

// Process reads the fragment at d.InputPath line by line and writes the
// transformed lines to a new file. A scheduler-assigned OutputPath is
// honored; otherwise the namer derives one from the input path.
func (p *NormalProcessor) Process(ctx context.Context, d *domain.TaskDescriptor) (*domain.TaskDescriptor, error) {
	const op = "process"
	if d.InputPath == "" {
		return nil, domain.NewError(domain.KindMissingInput, op, "", nil)
	}
	dest := d.OutputPath
	if dest == "" {
		dest = p.namer.Output(d)
	}
	if dest == d.InputPath {
		return nil, domain.Malformed(op, "output path %s would overwrite the input", dest)
	}

	in, err := os.Open(d.InputPath)
	if err != nil {
		return nil, domain.NewError(domain.KindUnreadableFile, op, d.InputPath, err)
	}
	defer in.Close()

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s: create %s: %w", op, dest, err)
	}
	n, err := p.copyTransformed(ctx, newLineReader(in), bufio.NewWriter(f))
	if err != nil {
		f.Close()
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			p.logger.Warn("failed to remove partial output", zap.String("path", dest), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%s: close %s: %w", op, dest, err)
	}
	p.logger.Debug("fragment processed", zap.String("input", d.InputPath), zap.String("output", dest), zap.Int("lines", n))

	out := d.Clone()
	out.OutputPath = dest
	return out, nil
}

func (p *NormalProcessor) copyTransformed(ctx context.Context, lines *lineReader, w *bufio.Writer) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, domain.NewError(domain.KindUnreadableFile, "read", "", err)
		}
		body, eol := splitTerminator(line)
		res, err := p.transform.Apply(ctx, body)
		if err != nil {
			return n, fmt.Errorf("transform line %d: %w", n, err)
		}
		if _, err := w.WriteString(res + eol); err != nil {
			return n, err
		}
		n++
	}
	return n, w.Flush()
}

func splitTerminator(line string) (string, string) {
	if strings.HasSuffix(line, "\n") {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}
