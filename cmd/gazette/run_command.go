package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline pass over the document listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}
			runner, cleanup, err := ctx.buildRunner(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := runner.Run(runCtx)
			if err != nil {
				return fmt.Errorf("pipeline run: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %d listed, %d new, %d published, %d failed (%s)\n",
				summary.RunID, summary.Discovered, summary.New,
				summary.Published, summary.Failed, summary.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
