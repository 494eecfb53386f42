package testsupport

import (
	"context"
	"testing"

	"animeimporter/internal/config"
	"animeimporter/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewRecord creates an anime draft with the given title and external id.
func NewRecord(t testing.TB, st *store.Store, title, externalID string) *store.Record {
	t.Helper()

	rec, err := st.CreateRecord(context.Background(), store.NewRecord{
		ContentType: "anime",
		Title:       title,
		ExternalID:  externalID,
	})
	if err != nil {
		t.Fatalf("store.CreateRecord: %v", err)
	}
	return rec
}
