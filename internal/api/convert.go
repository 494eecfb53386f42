package api

import (
	"time"

	"animeimporter/internal/importer"
	"animeimporter/internal/preflight"
	"animeimporter/internal/store"
)

// FromRecord converts a store record into its API representation.
func FromRecord(rec *store.Record) Record {
	if rec == nil {
		return Record{}
	}
	out := Record{
		ID:           rec.ID,
		ContentType:  rec.ContentType,
		Status:       rec.Status,
		Title:        rec.Title,
		Synopsis:     rec.Body,
		ExternalID:   rec.ExternalID,
		Attributes:   map[string]string{},
		Genres:       []string{},
		CoverAssetID: rec.CoverAssetID,
		CreatedAt:    formatTime(rec.CreatedAt),
		UpdatedAt:    formatTime(rec.UpdatedAt),
	}
	for k, v := range rec.Attributes {
		out.Attributes[k] = v
	}
	if genres := rec.Terms[importer.GenreVocabulary]; len(genres) > 0 {
		out.Genres = append(out.Genres, genres...)
	}
	if rec.CoverAssetID != "" {
		out.CoverURL = "/api/assets/" + rec.CoverAssetID
	}
	return out
}

// FromSyncResult converts a sync result. A nil result yields nil.
func FromSyncResult(result *importer.SyncResult) *Sync {
	if result == nil {
		return nil
	}
	out := &Sync{
		Outcome: string(result.Outcome),
		Cover:   string(result.Cover),
		Reason:  result.Reason,
	}
	if result.Record != nil {
		rec := FromRecord(result.Record)
		out.Record = &rec
	}
	return out
}

// FromCandidates converts search matches, always returning a non-nil slice.
func FromCandidates(candidates []importer.Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Candidate{ExternalID: c.ExternalID, Title: c.Title})
	}
	return out
}

// FromTerms converts vocabulary terms to genres.
func FromTerms(terms []store.Term) []Genre {
	out := make([]Genre, 0, len(terms))
	for _, t := range terms {
		out = append(out, Genre{Name: t.Name, Slug: t.Slug})
	}
	return out
}

func preflightOrEmpty(results []preflight.Result) []preflight.Result {
	if results == nil {
		return []preflight.Result{}
	}
	return results
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
