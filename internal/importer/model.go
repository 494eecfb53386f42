package importer

import "animeimporter/internal/store"

// ContentType is the record type managed by the importer.
const ContentType = "anime"

// GenreVocabulary holds the anime genre terms.
const GenreVocabulary = "anime_genre"

// Attribute keys written on every successful sync.
const (
	AttrReleaseDate  = "releaseDate"
	AttrRating       = "rating"
	AttrEpisodeCount = "episodeCount"
	AttrStudio       = "studio"
	AttrKind         = "kind"
)

// Outcome classifies a sync attempt.
type Outcome string

const (
	OutcomeSuccess             Outcome = "success"
	OutcomeSkipped             Outcome = "skipped"
	OutcomeProviderUnreachable Outcome = "provider_unreachable"
	OutcomeMalformedResponse   Outcome = "malformed_response"
)

// CoverStatus reports what happened to the cover image during a sync.
type CoverStatus string

const (
	CoverUnchanged       CoverStatus = "unchanged"
	CoverUpdated         CoverStatus = "updated"
	CoverIngestionFailed CoverStatus = "asset_ingestion_failed"
)

// SyncResult describes a finished sync. Only OutcomeSuccess guarantees the
// record fields were overwritten. Record holds the state after the attempt
// when it could be reloaded.
type SyncResult struct {
	Outcome Outcome       `json:"outcome"`
	Cover   CoverStatus   `json:"cover"`
	Reason  string        `json:"reason,omitempty"`
	Record  *store.Record `json:"record,omitempty"`
}

// Candidate is one search match.
type Candidate struct {
	ExternalID string `json:"externalId"`
	Title      string `json:"title"`
}
