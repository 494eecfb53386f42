// Package app assembles the store, provider client, asset ingester and
// importer services into one unit shared by the daemon and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"animeimporter/internal/assets"
	"animeimporter/internal/config"
	"animeimporter/internal/importer"
	"animeimporter/internal/jikan"
	"animeimporter/internal/logging"
	"animeimporter/internal/services"
	"animeimporter/internal/store"
)

// App holds the wired services.
type App struct {
	Config   *config.Config
	Store    *store.Store
	Provider *importer.ProviderSwitch
	Ingester *assets.Ingester
	Sync     *importer.Synchronizer
	Search   *importer.SearchProxy
	Hooks    *importer.Hooks

	logger  *slog.Logger
	mu      sync.Mutex
	baseURL string
}

// Open opens the store and builds every service on top of it. The provider
// base URL comes from the settings table when set, otherwise from cfg.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Store: st, logger: logger}

	baseURL, err := a.effectiveBaseURL(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	client, err := a.newClient(baseURL)
	if err != nil {
		st.Close()
		return nil, err
	}
	a.baseURL = client.BaseURL()

	a.Provider = importer.NewProviderSwitch(client)
	a.Ingester = assets.NewIngester(st, cfg, logger)
	var covers importer.CoverIngester
	if cfg.Assets.Enabled {
		covers = a.Ingester
	}
	a.Sync = importer.NewSynchronizer(a.Provider, st, covers, logger)
	a.Search = importer.NewSearchProxy(a.Provider, logger)
	a.Hooks = importer.NewHooks(st, a.Sync, a.Search, logger)
	return a, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// BaseURL returns the provider root currently in use.
func (a *App) BaseURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.baseURL
}

// SetBaseURL persists value as the provider root and swaps the client.
// An empty value removes the stored override and falls back to config.
func (a *App) SetBaseURL(ctx context.Context, value string) (string, error) {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return a.ResetBaseURL(ctx)
	}
	if err := config.ValidateBaseURL(value); err != nil {
		return "", services.Wrap(services.ErrValidation, "settings", "set base url", "invalid url", err)
	}
	client, err := a.newClient(value)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "settings", "set base url", "build client", err)
	}
	if err := a.Store.PutSetting(ctx, store.SettingJikanAPIURL, value); err != nil {
		return "", err
	}
	a.swap(client)
	return value, nil
}

// ResetBaseURL drops the stored override.
func (a *App) ResetBaseURL(ctx context.Context) (string, error) {
	if err := a.Store.DeleteSetting(ctx, store.SettingJikanAPIURL); err != nil {
		return "", err
	}
	client, err := a.newClient(a.Config.Jikan.BaseURL)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "settings", "reset base url", "build client", err)
	}
	a.swap(client)
	return client.BaseURL(), nil
}

func (a *App) swap(client *jikan.Client) {
	a.mu.Lock()
	a.baseURL = client.BaseURL()
	a.mu.Unlock()
	a.Provider.Set(client)
	a.logger.Info("provider base url changed", logging.String("base_url", client.BaseURL()))
}

func (a *App) effectiveBaseURL(ctx context.Context) (string, error) {
	stored, ok, err := a.Store.GetSetting(ctx, store.SettingJikanAPIURL)
	if err != nil {
		return "", fmt.Errorf("load base url setting: %w", err)
	}
	if ok && strings.TrimSpace(stored) != "" {
		if err := config.ValidateBaseURL(stored); err == nil {
			return stored, nil
		}
		logging.WarnWithContext(a.logger, "stored base url invalid; using config", "settings_invalid",
			logging.String("value", stored),
		)
	}
	return a.Config.Jikan.BaseURL, nil
}

func (a *App) newClient(baseURL string) (*jikan.Client, error) {
	return jikan.New(baseURL,
		jikan.WithTimeout(a.Config.JikanTimeout()),
		jikan.WithUserAgent(a.Config.Jikan.UserAgent),
	)
}
