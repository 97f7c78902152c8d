package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	redisinfra "go-fanout/internal/infrastructure/redis"
	"go-fanout/internal/metrics"
	"go-fanout/internal/service"
	"go-fanout/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var metricsAddr string

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Pull task records from redis and run them with a worker pool",
	Long: `Pops task records from the pending redis list, runs each one, pushes the
resulting record to the result list and publishes an invocation event.
Failed invocations publish a failed event and push nothing.`,
	Args: cobra.NoArgs,
	RunE: runConsume,
}

func runConsume(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	client, err := redisinfra.NewRedisClient(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer client.Close()

	queue := redisinfra.NewRedisQueue(client, cfg.Redis.Queue, cfg.Redis.ResultQueue)
	bus := redisinfra.NewRedisEventBus(client, cfg.Redis.EventsChannel)

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	repo := openLedger(cfg, logger)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer shutdown(srv)
	}

	base := newWorkerID()
	logger.Info("consuming task records",
		zap.String("queue", cfg.Redis.Queue),
		zap.Int("concurrency", cfg.Worker.Concurrency))

	return worker.StartPool(ctx, cfg.Worker.Concurrency, func(i int) *worker.Worker {
		id := fmt.Sprintf("%s-%d", base, i)
		svc := service.NewInvocationService(eng, repo, bus, m, id, logger)
		return worker.NewWorker(id, queue, svc, logger)
	})
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}
