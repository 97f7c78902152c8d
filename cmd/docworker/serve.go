package main

import (
	"errors"
	"net/http"

	"go-fanout/internal/api/handler"
	"go-fanout/internal/metrics"
	"go-fanout/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve invocations over HTTP",
	Long: `Starts an HTTP server:
  POST /api/v1/invocations        run one task record (request body)
  GET  /api/v1/invocations?task=  ledger entries of a task
  GET  /api/v1/invocations/:id    one ledger entry
  GET  /metrics                   prometheus metrics
  GET  /healthz                   liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	repo := openLedger(cfg, logger)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := service.NewInvocationService(eng, repo, nil, m, newWorkerID(), logger)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.NewInvocationHandler(svc, repo), reg, logger)
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.HTTP.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown(srv)
		return nil
	}
}
