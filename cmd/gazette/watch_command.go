package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"gazette/internal/deps"
	"gazette/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run pipeline passes on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}

			lock := flock.New(cfg.Paths.LockFile)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return errors.New("another gazette watch instance is already running")
			}
			defer func() { _ = lock.Unlock() }()

			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				if !status.Available {
					logger.Warn("external dependency unavailable",
						logging.String("dependency", status.Name),
						logging.String("detail", status.Detail),
					)
				}
			}

			runner, cleanup, err := ctx.buildRunner(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			watchCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pollInterval := time.Duration(cfg.Workflow.PollInterval) * time.Second
			errorInterval := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
			logger.Info("watch started",
				logging.Duration("poll_interval", pollInterval),
				logging.String("lock", cfg.Paths.LockFile),
			)

			for {
				wait := pollInterval
				if _, err := runner.Run(watchCtx); err != nil {
					logger.Error("pass failed", logging.Error(err))
					wait = errorInterval
				}

				select {
				case <-watchCtx.Done():
					logger.Info("watch stopped")
					return nil
				case <-time.After(wait):
				}
			}
		},
	}
}
