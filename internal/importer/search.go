package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"animeimporter/internal/jikan"
	"animeimporter/internal/logging"
	"animeimporter/internal/services"
	"animeimporter/internal/textutil"
)

var (
	// ErrNoQuery is returned for a blank query; it is not the same as no matches.
	ErrNoQuery = fmt.Errorf("%w: search query is empty", services.ErrValidation)
	// ErrProviderUnreachable reports a transport failure or non-2xx reply.
	ErrProviderUnreachable = fmt.Errorf("%w: provider unreachable", services.ErrExternal)
	// ErrMalformedResponse reports a reply that could not be decoded.
	ErrMalformedResponse = fmt.Errorf("%w: malformed provider response", services.ErrExternal)
)

// SearchProxy resolves free-text titles to provider candidates.
type SearchProxy struct {
	provider Provider
	logger   *slog.Logger
}

// NewSearchProxy wires a search proxy.
func NewSearchProxy(provider Provider, logger *slog.Logger) *SearchProxy {
	return &SearchProxy{
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "search"),
	}
}

// Search returns the first page of candidates for query. An empty slice
// with a nil error means the provider had no matches. Entries without a
// provider id are dropped since they cannot be linked.
func (p *SearchProxy) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoQuery
	}

	ctx, span := tracer.Start(ctx, "importer.Search")
	defer span.End()

	results, err := p.provider.SearchAnime(ctx, query)
	if err != nil {
		span.RecordError(err)
		classified := ErrProviderUnreachable
		if errors.Is(err, jikan.ErrMalformed) {
			classified = ErrMalformedResponse
		}
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "provider search failed", "search_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no candidates returned"),
		)
		return nil, fmt.Errorf("%w: %w", classified, err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, anime := range results {
		if anime.MalID <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			ExternalID: strconv.FormatInt(anime.MalID, 10),
			Title:      textutil.SanitizeText(anime.Title),
		})
	}
	span.SetAttributes(attribute.Int("search.results", len(candidates)))
	p.logger.Debug("search complete", logging.Int("results", len(candidates)))
	return candidates, nil
}
