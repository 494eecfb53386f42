package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJikan(); err != nil {
		return err
	}
	if err := c.validateAssets(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateTracing(); err != nil {
		return err
	}
	return nil
}

// ValidateBaseURL reports whether value is an absolute http(s) URL usable as a
// provider base URL.
func ValidateBaseURL(value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", value, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url %q is missing a host", value)
	}
	return nil
}

func (c *Config) validateJikan() error {
	if err := ValidateBaseURL(c.Jikan.BaseURL); err != nil {
		return fmt.Errorf("jikan.base_url: %w", err)
	}
	if c.Jikan.TimeoutSeconds < 0 {
		return errors.New("jikan.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateAssets() error {
	if c.Assets.MaxBytes < 0 {
		return errors.New("assets.max_bytes must be positive")
	}
	if c.Assets.MaxDimension < 0 {
		return errors.New("assets.max_dimension must be zero or positive")
	}
	if c.Assets.MaxPixels < 0 {
		return errors.New("assets.max_pixels must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTracing() error {
	if !c.Tracing.Enabled {
		return nil
	}
	if c.Tracing.Endpoint == "" {
		return errors.New("tracing.endpoint must be set when tracing.enabled is true")
	}
	return nil
}
