package config

import (
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizePublish()
	c.normalizeDestinations()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.ProcessedFile, err = expandPath(c.Paths.ProcessedFile); err != nil {
		return fmt.Errorf("paths.processed_file: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.EnvFile) != "" {
		if c.Paths.EnvFile, err = expandPath(c.Paths.EnvFile); err != nil {
			return fmt.Errorf("paths.env_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeSource() error {
	c.Source.ListingURL = strings.TrimSpace(c.Source.ListingURL)
	c.Source.BaseURL = strings.TrimSpace(c.Source.BaseURL)
	if c.Source.BaseURL == "" && c.Source.ListingURL != "" {
		parsed, err := url.Parse(c.Source.ListingURL)
		if err != nil {
			return fmt.Errorf("source.listing_url: %w", err)
		}
		if parsed.Scheme != "" && parsed.Host != "" {
			c.Source.BaseURL = parsed.Scheme + "://" + parsed.Host
		}
	}
	c.Source.BaseURL = strings.TrimRight(c.Source.BaseURL, "/")
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
	if strings.TrimSpace(c.Source.RowSelector) == "" {
		c.Source.RowSelector = defaultRowSelector
	}
	if strings.TrimSpace(c.Source.TitleSelector) == "" {
		c.Source.TitleSelector = defaultTitleSelector
	}
	if strings.TrimSpace(c.Source.DateSelector) == "" {
		c.Source.DateSelector = defaultDateSelector
	}
	if c.Source.RequestTimeout <= 0 {
		c.Source.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.Binary = strings.TrimSpace(c.Render.Binary)
	if c.Render.Binary == "" {
		c.Render.Binary = defaultRenderBinary
	}
	if c.Render.DPI <= 0 {
		c.Render.DPI = defaultRenderDPI
	}
	if c.Render.Timeout <= 0 {
		c.Render.Timeout = defaultRenderTimeout
	}
}

func (c *Config) normalizePublish() {
	tags := make([]string, 0, len(c.Publish.Hashtags))
	for _, tag := range c.Publish.Hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	c.Publish.Hashtags = tags
	if c.Publish.RetryAttempts <= 0 {
		c.Publish.RetryAttempts = defaultRetryAttempts
	}
	if c.Publish.RetryBaseDelay <= 0 {
		c.Publish.RetryBaseDelay = defaultRetryBaseDelay
	}
}

func (c *Config) normalizeDestinations() {
	for name, dest := range c.Destinations {
		dest.Kind = strings.ToLower(strings.TrimSpace(dest.Kind))
		if dest.BatchSize <= 0 {
			dest.BatchSize = defaultBatchSize
		}
		if dest.Caption.MaxTitleLength <= 0 {
			dest.Caption.MaxTitleLength = defaultMaxTitleLength
		}
		if dest.Caption.MaxTotalLength <= 0 {
			dest.Caption.MaxTotalLength = defaultMaxTotalLength
		}
		if dest.Caption.ReservedForURLSuffix < 0 {
			dest.Caption.ReservedForURLSuffix = defaultReservedURLSuffix
		}
		dest.Endpoint = strings.TrimSpace(dest.Endpoint)
		dest.Directory = strings.TrimSpace(dest.Directory)
		c.Destinations[name] = dest
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultPollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
