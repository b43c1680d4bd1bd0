package main

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"gazette/internal/config"
	"gazette/internal/destinations"
	"gazette/internal/history"
	"gazette/internal/logging"
	"gazette/internal/notifications"
	"gazette/internal/pipeline"
	"gazette/internal/processed"
	"gazette/internal/publish"
	"gazette/internal/render"
	"gazette/internal/source"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.configPath = resolvedPath
		c.configExists = exists
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stderr",
			filepath.Join(cfg.Paths.LogDir, "gazette.log"),
		},
	})
}

// buildRunner wires every pipeline collaborator from the configuration. The
// returned cleanup closes the history store.
func (c *commandContext) buildRunner(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, func(), error) {
	store, err := processed.Load(cfg.Paths.ProcessedFile, logger)
	if err != nil {
		return nil, nil, err
	}

	listing := source.NewHTMLListing(cfg.Source.ListingURL, cfg.Source.BaseURL, logger,
		source.WithUserAgent(cfg.Source.UserAgent),
		source.WithSelectors(source.Selectors{
			Row:       cfg.Source.RowSelector,
			Title:     cfg.Source.TitleSelector,
			Published: cfg.Source.DateSelector,
		}),
		source.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Source.RequestTimeout) * time.Second,
		}),
	)

	renderer := render.NewCLI(cfg.Paths.WorkDir, logger,
		render.WithBinary(cfg.Render.Binary),
		render.WithDPI(cfg.Render.DPI),
		render.WithTimeout(time.Duration(cfg.Render.Timeout)*time.Second),
	)

	built, err := destinations.Build(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	hist, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, nil, err
	}

	policy := publish.Policy{
		MaxAttempts: cfg.Publish.RetryAttempts,
		BaseDelay:   time.Duration(cfg.Publish.RetryBaseDelay) * time.Second,
	}

	runner := pipeline.New(pipeline.Options{
		Source:       listing,
		Store:        store,
		Renderer:     renderer,
		Publisher:    publish.NewPublisher(policy, logger),
		Destinations: built,
		Hashtags:     cfg.Publish.Hashtags,
		History:      hist,
		Notifier:     notifications.NewService(cfg),
		Logger:       logger,
	})
	cleanup := func() { _ = hist.Close() }
	return runner, cleanup, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
