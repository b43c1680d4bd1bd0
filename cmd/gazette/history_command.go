package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gazette/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var docID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent publish attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			var entries []history.Entry
			if strings.TrimSpace(docID) != "" {
				entries, err = store.ForDocument(cmd.Context(), strings.TrimSpace(docID))
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No publish history")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				status := "ok"
				detail := entry.RootPost
				if !entry.Success {
					status = "failed"
					detail = entry.ErrorText
				}
				rows = append(rows, []string{
					entry.CreatedAt.Local().Format(time.DateTime),
					truncateCell(entry.Title, 40),
					entry.Destination,
					status,
					truncateCell(detail, 48),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Time", "Title", "Destination", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of attempts to show")
	cmd.Flags().StringVar(&docID, "doc", "", "Show every attempt for one document URL")
	return cmd
}

func truncateCell(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}
