package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateDestinations(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSource() error {
	if c.Source.ListingURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/gazette/config.toml"
		}
		return fmt.Errorf("source.listing_url is required. Edit %s (create with 'gazette config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Source.ListingURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("source.listing_url must be an absolute URL, got %q", c.Source.ListingURL)
	}
	if c.Source.BaseURL != "" {
		base, err := url.Parse(c.Source.BaseURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return fmt.Errorf("source.base_url must be an absolute URL, got %q", c.Source.BaseURL)
		}
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.DPI < 36 || c.Render.DPI > 600 {
		return errors.New("render.dpi must be between 36 and 600")
	}
	return nil
}

func (c *Config) validateDestinations() error {
	for name, dest := range c.Destinations {
		if dest.Kind == "" {
			return fmt.Errorf("destinations.%s.kind must be set", name)
		}
		if dest.Caption.MaxTotalLength < dest.Caption.MaxTitleLength {
			return fmt.Errorf("destinations.%s.caption.max_total_length must be >= max_title_length", name)
		}
		if dest.Caption.ReservedForURLSuffix >= dest.Caption.MaxTotalLength {
			return fmt.Errorf("destinations.%s.caption.reserved_for_url_suffix must be smaller than max_total_length", name)
		}
		for field, envVar := range dest.Credentials {
			if strings.TrimSpace(envVar) == "" {
				return fmt.Errorf("destinations.%s.credentials.%s names an empty environment variable", name, field)
			}
		}
		// Each credential field reads its own variable; sharing one variable
		// across fields is almost always a config mistake.
		seen := make(map[string]string, len(dest.Credentials))
		for field, envVar := range dest.Credentials {
			if other, dup := seen[envVar]; dup {
				return fmt.Errorf("destinations.%s: credential fields %s and %s read the same variable %s", name, other, field, envVar)
			}
			seen[envVar] = field
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"source.request_timeout":        c.Source.RequestTimeout,
		"render.timeout":                c.Render.Timeout,
		"publish.retry_attempts":        c.Publish.RetryAttempts,
		"publish.retry_base_delay":      c.Publish.RetryBaseDelay,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.poll_interval":        c.Workflow.PollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
