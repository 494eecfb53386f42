package importer

import (
	"context"
	"sync"

	"animeimporter/internal/jikan"
	"animeimporter/internal/store"
)

// Provider is the slice of the Jikan client the importer consumes.
type Provider interface {
	GetAnimeFull(ctx context.Context, id string) (*jikan.Anime, error)
	SearchAnime(ctx context.Context, query string) ([]jikan.Anime, error)
}

// ItemStore is the record persistence the Synchronizer writes through.
type ItemStore interface {
	GetRecord(ctx context.Context, id string) (*store.Record, error)
	UpdateFields(ctx context.Context, id string, update store.FieldUpdate) error
	ReplaceTerms(ctx context.Context, id, vocabulary string, names []string) error
	SetCover(ctx context.Context, id, assetID string) error
}

// TxStore is implemented by stores that can group writes in a transaction.
// When the ItemStore also satisfies TxStore, field and genre writes commit
// together.
type TxStore interface {
	WithTx(ctx context.Context, fn func(w store.Writer) error) error
}

// CoverIngester turns an image URL into a stored asset.
type CoverIngester interface {
	Ingest(ctx context.Context, sourceURL string) (*store.Asset, error)
}

// CoverDiscarder is implemented by ingesters that can drop an asset which
// was stored but could not be attached to its record. Assets still
// referenced elsewhere are kept.
type CoverDiscarder interface {
	Discard(ctx context.Context, asset *store.Asset) error
}

// ExternalIDStore persists the identifier submitted with a save.
type ExternalIDStore interface {
	SetExternalID(ctx context.Context, id, externalID string) error
}

// ProviderSwitch is a Provider whose target can be replaced at runtime, for
// example after the base URL setting changes. Calls in flight keep the
// provider they started with.
type ProviderSwitch struct {
	mu      sync.RWMutex
	current Provider
}

// NewProviderSwitch wraps p.
func NewProviderSwitch(p Provider) *ProviderSwitch {
	return &ProviderSwitch{current: p}
}

// Set replaces the active provider.
func (s *ProviderSwitch) Set(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
}

// Current returns the active provider.
func (s *ProviderSwitch) Current() Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// GetAnimeFull forwards to the active provider.
func (s *ProviderSwitch) GetAnimeFull(ctx context.Context, id string) (*jikan.Anime, error) {
	return s.Current().GetAnimeFull(ctx, id)
}

// SearchAnime forwards to the active provider.
func (s *ProviderSwitch) SearchAnime(ctx context.Context, query string) ([]jikan.Anime, error) {
	return s.Current().SearchAnime(ctx, query)
}
