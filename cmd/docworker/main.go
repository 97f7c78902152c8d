package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-fanout/internal/config"
	"go-fanout/internal/core/ports"
	"go-fanout/internal/core/postgres/repository"
	"go-fanout/internal/engine"
	"go-fanout/internal/logging"
	"go-fanout/internal/naming"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	timeout time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd runs a single invocation when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "docworker",
	Short: "Split/merge worker for fan-out document pipelines",
	Long: `docworker handles one step of a fan-out/fan-in document job.

Each invocation reads one task record and takes exactly one path:
  merge   children finished: concatenate their outputs in order
  split   document too large: write one fragment per child
  normal  process the fragment line by line

The record arrives as one JSON line on stdin and leaves, updated, as one
JSON line on stdout. Diagnostics go to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Args: cobra.NoArgs,
	RunE: runInvocation,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "docworker.yaml", "Path to the YAML configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort an invocation after this long (0 disables)")

	consumeCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consumeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "docworker:", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newEngine builds the dispatch engine from the loaded configuration.
func newEngine(c *config.Config, log *zap.Logger) (*engine.Engine, error) {
	policy, err := engine.NewPolicy(c.Policy.Kind, c.Policy.SplitName, c.Policy.FanOut)
	if err != nil {
		return nil, err
	}
	namer, err := naming.New(c.Naming.Scheme)
	if err != nil {
		return nil, err
	}
	transform, err := engine.InitRegistry(c.Transform.Prefix).Lookup(c.Transform.Name)
	if err != nil {
		return nil, err
	}
	transform = engine.WithDelay(transform, c.GetLineDelay())
	return engine.New(policy, namer, transform, log), nil
}

// openLedger connects the invocation ledger. It returns nil when no DSN is
// configured or the database cannot be reached: the ledger is optional and
// an outage only costs the history, never the invocation.
func openLedger(c *config.Config, log *zap.Logger) ports.InvocationRepository {
	if c.Postgres.DSN == "" {
		return nil
	}
	db, err := repository.Open(c.Postgres.DSN)
	if err != nil {
		log.Warn("invocation ledger unavailable, continuing without it", zap.Error(err))
		return nil
	}
	if err := repository.Migrate(db); err != nil {
		log.Warn("failed to migrate invocation ledger, continuing without it", zap.Error(err))
		return nil
	}
	return repository.NewInvocationRepository(db)
}

// newWorkerID names this process in logs, events and the ledger.
func newWorkerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + "-" + uuid.New().String()[:8]
}
