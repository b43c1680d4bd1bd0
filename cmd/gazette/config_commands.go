package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"gazette/internal/config"
	"gazette/internal/deps"
	"gazette/internal/destinations"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set source.listing_url and destination credentials before running gazette.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s (exists: %v)\n\n", ctx.configPath, ctx.configExists)
			fmt.Fprintf(out, "listing_url:    %s\n", cfg.Source.ListingURL)
			fmt.Fprintf(out, "base_url:       %s\n", cfg.Source.BaseURL)
			fmt.Fprintf(out, "work_dir:       %s\n", cfg.Paths.WorkDir)
			fmt.Fprintf(out, "processed_file: %s\n", cfg.Paths.ProcessedFile)
			fmt.Fprintf(out, "history_db:     %s\n", cfg.Paths.HistoryDB)
			fmt.Fprintf(out, "renderer:       %s (dpi %d)\n", cfg.Render.Binary, cfg.Render.DPI)
			fmt.Fprintf(out, "hashtags:       %s\n", strings.Join(cfg.Publish.Hashtags, " "))

			names := make([]string, 0, len(cfg.Destinations))
			for name := range cfg.Destinations {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(out, "\nDestinations (%d):\n", len(names))
			for _, name := range names {
				dest := cfg.Destinations[name]
				state := "enabled"
				if !dest.IsEnabled() {
					state = "disabled"
				}
				fmt.Fprintf(out, "  %-16s kind=%-8s batch=%-3d %s\n", name, dest.Kind, dest.BatchSize, state)
			}
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and external dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			known := map[string]bool{}
			for _, kind := range destinations.Kinds() {
				known[kind] = true
			}
			for name, dest := range cfg.Destinations {
				if !known[dest.Kind] {
					return fmt.Errorf("destinations.%s: unknown kind %q (known: %s)",
						name, dest.Kind, strings.Join(destinations.Kinds(), ", "))
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			missing := false
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				if status.Available {
					fmt.Fprintf(out, "%-12s %s: ok\n", status.Name, status.Command)
					continue
				}
				fmt.Fprintf(out, "%-12s %s: %s\n", status.Name, status.Command, status.Detail)
				if !status.Optional {
					missing = true
				}
			}
			if missing {
				return errors.New("required external dependencies are missing")
			}

			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
