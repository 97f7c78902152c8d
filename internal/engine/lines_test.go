package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fanout/internal/domain"
)

func TestCountLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"single terminated", "hello\n", 1},
		{"single unterminated", "hello", 1},
		{"three lines", "a\nb\nc\n", 3},
		{"trailing partial", "a\nb\nc", 3},
		{"blank lines count", "\n\n", 2},
		{"nul byte is content", "\x00", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inWorkdir(t)
			writeFile(t, "f.txt", tt.content)
			n, err := CountLines("f.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestCountLines_Missing(t *testing.T) {
	inWorkdir(t)
	_, err := CountLines("nope.txt")
	assert.ErrorIs(t, err, domain.ErrUnreadableFile)
}

func TestLineReaderKeepsTerminators(t *testing.T) {
	lr := newLineReader(strings.NewReader("a\nb"))

	line, err := lr.Next()
	require.NoError(t, err)
	assert.Equal(t, "a\n", line)

	line, err = lr.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", line)

	_, err = lr.Next()
	assert.Error(t, err)
}

func TestChunkSize(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{3, 3, []int{1, 1, 1}},
		{3, 2, []int{2, 1}},
		{7, 3, []int{3, 2, 2}},
		{1, 3, []int{1, 0, 0}},
		{0, 2, []int{0, 0}},
	}
	for _, tt := range tests {
		got := make([]int, tt.n)
		sum := 0
		for i := range got {
			got[i] = chunkSize(tt.total, tt.n, i)
			sum += got[i]
		}
		assert.Equal(t, tt.want, got, "total=%d n=%d", tt.total, tt.n)
		assert.Equal(t, tt.total, sum)
	}
}

func TestRegistry(t *testing.T) {
	r := InitRegistry("out:")
	ctx := context.Background()

	tests := []struct {
		name string
		want string
	}{
		{TransformPrefix, "out:Line"},
		{TransformIdentity, "Line"},
		{TransformUpper, "LINE"},
	}
	for _, tt := range tests {
		tr, err := r.Lookup(tt.name)
		require.NoError(t, err)
		got, err := tr.Apply(ctx, "Line")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := r.Lookup("rot13")
	assert.Error(t, err)
}

func TestWithDelay(t *testing.T) {
	base := InitRegistry("")[TransformIdentity]


	got, err := WithDelay(base, time.Millisecond).Apply(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WithDelay(base, time.Hour).Apply(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
