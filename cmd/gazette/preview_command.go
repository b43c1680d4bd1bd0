package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gazette/internal/caption"
	"gazette/internal/config"
	"gazette/internal/document"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var destName string
	var title string
	var published string

	cmd := &cobra.Command{
		Use:   "preview <document-url>",
		Short: "Print the caption that would be posted for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			limits := captionLimits(cfg, destName)
			ref := document.NewRef(args[0], title, published)
			content := caption.Build(ref, limits, cfg.Publish.Hashtags, time.Now())

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, content.Body)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Length: %d bytes\n", len(content.Body))
			for _, span := range content.LinkSpans {
				fmt.Fprintf(out, "link  [%d:%d) %s\n", span.Start, span.End, span.URL)
			}
			for _, span := range content.TagSpans {
				fmt.Fprintf(out, "tag   [%d:%d) #%s\n", span.Start, span.End, span.Tag)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&destName, "destination", "d", "", "Use this destination's caption limits")
	cmd.Flags().StringVar(&title, "title", "", "Document title (defaults to humanized filename)")
	cmd.Flags().StringVar(&published, "published", "", "Published date as shown on the listing")
	return cmd
}

func captionLimits(cfg *config.Config, destName string) caption.Limits {
	budgets := config.DefaultCaption()
	if destName != "" {
		if dest, ok := cfg.Destinations[destName]; ok {
			budgets = dest.Caption
		}
	}
	return caption.Limits{
		MaxTitleLength:       budgets.MaxTitleLength,
		MaxTotalLength:       budgets.MaxTotalLength,
		ReservedForURLSuffix: budgets.ReservedForURLSuffix,
	}
}
