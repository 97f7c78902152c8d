package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	TransformPrefix   = "prefix"
	TransformIdentity = "identity"
	TransformUpper    = "upper"

	DefaultPrefix = "out:"
)

// Transform is the per-line unit of work of a normal invocation. It
// receives a line without its terminator and must honor ctx.
type Transform interface {
	Apply(ctx context.Context, line string) (string, error)
}

// TransformFunc adapts a function to Transform.
type TransformFunc func(ctx context.Context, line string) (string, error)

func (f TransformFunc) Apply(ctx context.Context, line string) (string, error) {
	return f(ctx, line)
}

// TransformRegistry holds the transforms selectable by name.
type TransformRegistry map[string]Transform

// InitRegistry wires up the built-in transforms.
func InitRegistry(prefix string) TransformRegistry {
	registry := make(TransformRegistry)

	registry[TransformPrefix] = TransformFunc(func(ctx context.Context, line string) (string, error) {
		return prefix + line, nil
	})

	registry[TransformIdentity] = TransformFunc(func(ctx context.Context, line string) (string, error) {
		return line, nil
	})

	registry[TransformUpper] = TransformFunc(func(ctx context.Context, line string) (string, error) {
		return strings.ToUpper(line), nil
	})

	return registry
}

// Lookup returns the transform registered under name.
func (r TransformRegistry) Lookup(name string) (Transform, error) {
	t, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform %q", name)
	}
	return t, nil
}

// WithDelay stands in for slow per-line work: every line waits d before
// t runs, and the wait ends early when ctx is cancelled.
func WithDelay(t Transform, d time.Duration) Transform {
	if d <= 0 {
		return t
	}
	return TransformFunc(func(ctx context.Context, line string) (string, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
		return t.Apply(ctx, line)
	})
}
