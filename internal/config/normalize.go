package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeJikan()
	c.normalizeAssets()
	c.normalizeLogging()
	c.normalizeTracing()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetDir) == "" {
		c.Paths.AssetDir = defaultAssetDir
	}
	if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = strings.TrimSpace(os.Getenv("ANIMEIMPORTER_API_TOKEN"))
	}
	return nil
}

func (c *Config) normalizeJikan() {
	if value, ok := os.LookupEnv("JIKAN_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.Jikan.BaseURL = value
	}
	c.Jikan.BaseURL = strings.TrimRight(strings.TrimSpace(c.Jikan.BaseURL), "/")
	if c.Jikan.BaseURL == "" {
		c.Jikan.BaseURL = defaultJikanBaseURL
	}
	if c.Jikan.TimeoutSeconds == 0 {
		c.Jikan.TimeoutSeconds = defaultJikanTimeout
	}
	c.Jikan.UserAgent = strings.TrimSpace(c.Jikan.UserAgent)
	if c.Jikan.UserAgent == "" {
		c.Jikan.UserAgent = defaultJikanUserAgent
	}
}

func (c *Config) normalizeAssets() {
	if c.Assets.MaxBytes == 0 {
		c.Assets.MaxBytes = defaultAssetMaxBytes
	}
	if c.Assets.MaxPixels == 0 {
		c.Assets.MaxPixels = defaultAssetMaxPixels
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeTracing() {
	c.Tracing.Endpoint = strings.TrimSpace(c.Tracing.Endpoint)
	if c.Tracing.Endpoint == "" {
		if value, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
			c.Tracing.Endpoint = strings.TrimSpace(value)
		}
	}
	c.Tracing.ServiceName = strings.TrimSpace(c.Tracing.ServiceName)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaultTracingServiceName
	}
}
