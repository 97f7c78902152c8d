package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	redisinfra "go-fanout/internal/infrastructure/redis"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Push task records from stdin onto the pending redis list",
	Long:  `Reads one task record per stdin line and pushes each onto the pending list. Blank lines are skipped.`,
	Args:  cobra.NoArgs,
	RunE:  runEnqueue,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print invocation events as JSON lines until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	client, err := redisinfra.NewRedisClient(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer client.Close()
	queue := redisinfra.NewRedisQueue(client, cfg.Redis.Queue, cfg.Redis.ResultQueue)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := queue.Push(ctx, line); err != nil {
			return fmt.Errorf("failed to push record %d: %w", n+1, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	logger.Info("records enqueued", zap.Int("count", n), zap.String("queue", cfg.Redis.Queue))
	return nil
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	client, err := redisinfra.NewRedisClient(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer client.Close()
	bus := redisinfra.NewRedisEventBus(client, cfg.Redis.EventsChannel)

	events, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for event := range events {
		if err := enc.Encode(event); err != nil {
			return err
		}
	}
	return nil
}
