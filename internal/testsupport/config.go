package testsupport

import (
	"path/filepath"
	"testing"

	"animeimporter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.AssetDir = filepath.Join(base, "assets")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Jikan.BaseURL = "http://127.0.0.1:1"
	cfgVal.Jikan.TimeoutSeconds = 2
	cfgVal.Jikan.UserAgent = "animeimporter/test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithJikanURL points the provider client at baseURL, usually an httptest server.
func WithJikanURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jikan.BaseURL = baseURL
	}
}

// WithAssetsDisabled turns off cover image ingestion.
func WithAssetsDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Assets.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
