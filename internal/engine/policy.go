package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go-fanout/internal/domain"
)

const (
	PolicyLines = "lines"
	PolicyName  = "name"

	DefaultSplitName = "test-split#1"
	DefaultFanOut    = 2
)

// SplitPolicy decides how many children a descriptor should be split into.
// A fan-out of one or less means the descriptor is processed directly.
type SplitPolicy interface {
	FanOut(ctx context.Context, d *domain.TaskDescriptor) (int, error)
}

// LineCountPolicy splits a document into one child per line. A document
// that does not exist counts as empty; the normal path reports it.
type LineCountPolicy struct{}

func (LineCountPolicy) FanOut(ctx context.Context, d *domain.TaskDescriptor) (int, error) {
	if d.InputPath == "" {
		return 0, domain.NewError(domain.KindMissingInput, "select mode", "", nil)
	}
	n, err := CountLines(d.InputPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return n, err
}

// NamePolicy splits descriptors whose name equals Name into a fixed number
// of children, and leaves every other descriptor alone.
type NamePolicy struct {
	Name  string
	Count int
}

func (p NamePolicy) FanOut(ctx context.Context, d *domain.TaskDescriptor) (int, error) {
	if d.Name == nil {
		if raw, ok := d.Extra["name"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return 0, domain.Malformed("select mode", "name: expected string, got %s", raw)
		}
		return 1, nil
	}
	if *d.Name != p.Name {
		return 1, nil
	}
	return p.Count, nil
}

// NewPolicy builds the policy registered under kind.
func NewPolicy(kind, name string, fanOut int) (SplitPolicy, error) {
	switch kind {
	case "", PolicyLines:
		return LineCountPolicy{}, nil
	case PolicyName:
		if name == "" {
			name = DefaultSplitName
		}
		if fanOut == 0 {
			fanOut = DefaultFanOut
		}
		if fanOut < 2 {
			return nil, fmt.Errorf("name policy fan-out must be at least 2, got %d", fanOut)
		}
		return NamePolicy{Name: name, Count: fanOut}, nil
	default:
		return nil, fmt.Errorf("unknown split policy %q", kind)
	}
}
