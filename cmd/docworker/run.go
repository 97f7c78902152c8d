package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go-fanout/internal/service"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one invocation: task record on stdin, result record on stdout",
	Long: `Reads the first line of stdin as a task record, runs it, and writes the
resulting record as one line on stdout. On failure nothing is written to
stdout and the process exits with status 1.`,
	Args: cobra.NoArgs,
	RunE: runInvocation,
}

func runInvocation(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	record, err := readRecord(cmd.InOrStdin())
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	repo := openLedger(cfg, logger)

	svc := service.NewInvocationService(eng, repo, nil, nil, newWorkerID(), logger)
	outcome, err := svc.Invoke(ctx, record)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	out.Write(outcome.Record)
	out.WriteByte('\n')
	return out.Flush()
}

// readRecord returns the first line of r. Anything after it is ignored.
func readRecord(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read task record: %w", err)
	}
	return line, nil
}
