package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobflow/internal/scheduler"
)

// Runs older than this are pruned from the ledger at startup.
const runRetention = 30 * 24 * time.Hour

// Pause between sources within one pass.
const sourceGap = time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingest daemon",
	Long:  "Start the scheduler daemon; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustConfig(logger)

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"interval", cfg.Interval.String(),
		"sources", len(cfg.Sources),
		"storage", cfg.Storage.Backend,
		"cursor_backend", cfg.State.CursorBackend,
		"stream", cfg.Stream.Type,
		"warehouse", cfg.Warehouse.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := newPipeline(cfg, logger)
	defer p.Close()

	pollers, err := p.buildPollers(ctx, "", pollerOptions{})
	if err != nil {
		die(p, logger, "failed to build pollers", err)
	}

	if ledger, err := p.sqliteStore(); err == nil {
		if err := ledger.Cleanup(ctx, runRetention); err != nil {
			logger.Warn("failed to prune run ledger", "error", err)
		}
	}

	if cfg.ResetOnStart {
		for _, sp := range pollers {
			if err := sp.Reset(ctx); err != nil {
				die(p, logger, "failed to reset cursor", err, "source", sp.Name)
			}
		}
	}

	schedule, err := scheduler.ParseSchedule(cfg.Schedule, cfg.Interval)
	if err != nil {
		die(p, logger, "invalid schedule", err)
	}

	sched := scheduler.NewScheduler(pollers, schedule, cfg.RunOnStart, sourceGap, logger)
	if err := sched.Run(ctx); err != nil {
		die(p, logger, "scheduler error", err)
	}

	logger.Info("goodbye")
	return nil
}

// die logs err, releases the pipeline and exits non-zero.
func die(p *pipeline, logger *slog.Logger, msg string, err error, attrs ...any) {
	logger.Error(msg, append(attrs, "error", err)...)
	if p != nil {
		p.Close()
	}
	os.Exit(1)
}
