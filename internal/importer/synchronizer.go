package importer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"animeimporter/internal/jikan"
	"animeimporter/internal/logging"
	"animeimporter/internal/services"
	"animeimporter/internal/store"
)

var tracer = otel.Tracer("animeimporter/importer")

// Synchronizer overwrites a record with the provider's view of it.
type Synchronizer struct {
	provider Provider
	store    ItemStore
	covers   CoverIngester
	logger   *slog.Logger
}

// NewSynchronizer wires a synchronizer. covers may be nil, in which case
// cover images are left untouched.
func NewSynchronizer(provider Provider, st ItemStore, covers CoverIngester, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		provider: provider,
		store:    st,
		covers:   covers,
		logger:   logging.NewComponentLogger(logger, "synchronizer"),
	}
}

// Sync fetches externalID from the provider and writes it into recordID.
//
// A blank externalID returns OutcomeSkipped without any I/O. Provider
// failures return OutcomeProviderUnreachable or OutcomeMalformedResponse with
// a nil error and leave the record untouched. The returned error is reserved
// for local failures: a missing record or a store write error.
func (s *Synchronizer) Sync(ctx context.Context, recordID, externalID string) (SyncResult, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return SyncResult{Outcome: OutcomeSkipped, Cover: CoverUnchanged, Reason: "no external id"}, nil
	}

	ctx = services.WithRecordID(ctx, recordID)
	ctx, span := tracer.Start(ctx, "importer.Sync")
	defer span.End()
	span.SetAttributes(attribute.String("record.id", recordID), attribute.String("record.external_id", externalID))
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldExternalID, externalID))

	if _, err := s.store.GetRecord(ctx, recordID); err != nil {
		span.RecordError(err)
		return SyncResult{}, err
	}

	anime, err := s.provider.GetAnimeFull(ctx, externalID)
	if err != nil {
		outcome := OutcomeProviderUnreachable
		if errors.Is(err, jikan.ErrMalformed) {
			outcome = OutcomeMalformedResponse
		}
		span.SetAttributes(attribute.String("sync.outcome", string(outcome)))
		logging.WarnWithContext(logger, "provider fetch failed; record left unchanged", "sync_"+string(outcome),
			logging.Error(err),
			logging.String(logging.FieldImpact, "record not updated"),
		)
		result := SyncResult{Outcome: outcome, Cover: CoverUnchanged, Reason: err.Error()}
		record, getErr := s.store.GetRecord(ctx, recordID)
		if getErr != nil {
			logger.Debug("record reload after provider failure failed", logging.Error(getErr))
			return result, nil
		}
		result.Record = record
		return result, nil
	}

	mapped := MapAnime(anime)
	if err := s.commitFields(ctx, recordID, mapped); err != nil {
		span.RecordError(err)
		return SyncResult{}, err
	}

	result := SyncResult{Outcome: OutcomeSuccess, Cover: CoverUnchanged}
	if mapped.CoverURL != "" {
		result.Cover = s.attachCover(ctx, logger, recordID, mapped.CoverURL)
		if result.Cover == CoverIngestionFailed {
			result.Reason = "cover image could not be ingested"
		}
	}
	span.SetAttributes(
		attribute.String("sync.outcome", string(result.Outcome)),
		attribute.String("sync.cover", string(result.Cover)),
	)

	logger.Info("record synchronized",
		logging.String("title", mapped.Title),
		logging.Int("genres", len(mapped.Genres)),
		logging.String("cover", string(result.Cover)),
	)

	record, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return result, err
	}
	result.Record = record
	return result, nil
}

// commitFields writes every mapped field. With a transactional store the
// writes become visible together.
func (s *Synchronizer) commitFields(ctx context.Context, recordID string, mapped Mapped) error {
	update := store.FieldUpdate{
		Title:      mapped.Title,
		Body:       mapped.Synopsis,
		Attributes: mapped.Attributes,
	}
	apply := func(w store.Writer) error {
		if err := w.UpdateFields(ctx, recordID, update); err != nil {
			return services.Wrap(services.ErrTransient, "synchronizer", "update fields", recordID, err)
		}
		if err := w.ReplaceTerms(ctx, recordID, GenreVocabulary, mapped.Genres); err != nil {
			return services.Wrap(services.ErrTransient, "synchronizer", "replace genres", recordID, err)
		}
		return nil
	}
	if tx, ok := s.store.(TxStore); ok {
		return tx.WithTx(ctx, apply)
	}
	return apply(s.store)
}

func (s *Synchronizer) attachCover(ctx context.Context, logger *slog.Logger, recordID, coverURL string) CoverStatus {
	if s.covers == nil {
		logger.Debug("cover ingestion not configured; cover left unchanged")
		return CoverUnchanged
	}
	asset, err := s.covers.Ingest(ctx, coverURL)
	if err == nil {
		if err = s.store.SetCover(ctx, recordID, asset.ID); err != nil {
			s.discardCover(ctx, logger, asset)
		}
	}
	if err != nil {
		logging.WarnWithContext(logger, "cover image ingestion failed", "asset_ingestion_failed",
			logging.Error(err),
			logging.String("cover_url", coverURL),
			logging.String(logging.FieldImpact, "fields updated, previous cover kept"),
		)
		return CoverIngestionFailed
	}
	return CoverUpdated
}

// discardCover releases an asset that was ingested but never attached.
func (s *Synchronizer) discardCover(ctx context.Context, logger *slog.Logger, asset *store.Asset) {
	discarder, ok := s.covers.(CoverDiscarder)
	if !ok || asset == nil {
		return
	}
	if err := discarder.Discard(ctx, asset); err != nil {
		logger.Debug("unattached cover not discarded",
			logging.String("asset_id", asset.ID),
			logging.Error(err),
		)
	}
}
