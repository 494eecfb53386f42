package importer

import (
	"context"
	"log/slog"
	"strings"

	"animeimporter/internal/logging"
	"animeimporter/internal/services"
	"animeimporter/internal/textutil"
)

// SaveEvent describes one save action on a record. ExternalID is nil when
// the save did not carry an identifier field at all.
type SaveEvent struct {
	RecordID    string
	ContentType string
	Autosave    bool
	ExternalID  *string
}

// Hooks connects host events to the synchronizer and search proxy.
type Hooks struct {
	ids    ExternalIDStore
	sync   *Synchronizer
	search *SearchProxy
	logger *slog.Logger
}

// NewHooks wires the host event handlers.
func NewHooks(ids ExternalIDStore, sync *Synchronizer, search *SearchProxy, logger *slog.Logger) *Hooks {
	return &Hooks{
		ids:    ids,
		sync:   sync,
		search: search,
		logger: logging.NewComponentLogger(logger, "hooks"),
	}
}

// OnRecordSaved stores the submitted external id and runs one sync. It
// returns nil without doing anything for autosaves, other content types or
// saves without an id field. Provider problems surface only through the
// result outcome.
func (h *Hooks) OnRecordSaved(ctx context.Context, event SaveEvent) (*SyncResult, error) {
	ctx = services.WithRecordID(ctx, event.RecordID)
	logger := logging.WithContext(ctx, h.logger)

	switch {
	case event.Autosave:
		logger.Debug("autosave; sync skipped")
		return nil, nil
	case strings.TrimSpace(event.ContentType) != ContentType:
		logger.Debug("content type not handled; sync skipped", logging.String("content_type", event.ContentType))
		return nil, nil
	case event.ExternalID == nil:
		logger.Debug("no external id submitted; sync skipped")
		return nil, nil
	}

	externalID := textutil.SanitizeText(*event.ExternalID)
	if err := h.ids.SetExternalID(ctx, event.RecordID, externalID); err != nil {
		return nil, err
	}

	result, err := h.sync.Sync(ctx, event.RecordID, externalID)
	if err != nil {
		return nil, err
	}
	if result.Outcome != OutcomeSuccess && result.Outcome != OutcomeSkipped {
		logger.Info("save completed without provider update",
			logging.String("outcome", string(result.Outcome)),
			logging.String("reason", result.Reason),
		)
	}
	return &result, nil
}

// OnSearchRequested returns structured candidates for query. Rendering is
// left to the caller.
func (h *Hooks) OnSearchRequested(ctx context.Context, query string) ([]Candidate, error) {
	return h.search.Search(ctx, query)
}
