package store_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"animeimporter/internal/services"
	"animeimporter/internal/store"
	"animeimporter/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if st.Path() != cfg.DatabasePath() {
		t.Fatalf("expected db at %s, got %s", cfg.DatabasePath(), st.Path())
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen existing database: %v", err)
	}
	_ = reopened.Close()
}

func TestCreateAndGetRecord(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	rec := testsupport.NewRecord(t, st, "Draft", " 42 ")
	if rec.ID == "" {
		t.Fatal("expected generated id")
	}
	if rec.Status != store.StatusDraft || rec.ContentType != "anime" {
		t.Fatalf("unexpected defaults: %#v", rec)
	}
	if rec.ExternalID != "42" {
		t.Fatalf("expected trimmed external id, got %q", rec.ExternalID)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}

	fetched, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if fetched.Title != "Draft" {
		t.Fatalf("unexpected title %q", fetched.Title)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, err := st.GetRecord(context.Background(), "missing")
	if !errors.Is(err, store.ErrRecordNotFound) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := st.DeleteRecord(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestCreateRecordValidation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := st.CreateRecord(ctx, store.NewRecord{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing content type, got %v", err)
	}
	if _, err := st.CreateRecord(ctx, store.NewRecord{ContentType: "anime", Status: "archived"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}

func TestUpdateFieldsUpsertsAttributes(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	rec := testsupport.NewRecord(t, st, "Old", "1")

	if err := st.UpdateFields(ctx, rec.ID, store.FieldUpdate{
		Title:      "New",
		Body:       "Synopsis",
		Attributes: map[string]string{"rating": "8.5", "studio": "Sunrise"},
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := st.UpdateFields(ctx, rec.ID, store.FieldUpdate{
		Title:      "Newer",
		Body:       "",
		Attributes: map[string]string{"rating": "9"},
	}); err != nil {
		t.Fatalf("UpdateFields second: %v", err)
	}

	got, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Title != "Newer" || got.Body != "" {
		t.Fatalf("expected overwrite, got title=%q body=%q", got.Title, got.Body)
	}
	want := map[string]string{"rating": "9", "studio": "Sunrise"}
	if !reflect.DeepEqual(got.Attributes, want) {
		t.Fatalf("attributes = %#v, want %#v", got.Attributes, want)
	}
	if got.ExternalID != "1" {
		t.Fatalf("external id changed: %q", got.ExternalID)
	}
}

func TestReplaceTermsIsWholesale(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	rec := testsupport.NewRecord(t, st, "Show", "1")

	if err := st.ReplaceTerms(ctx, rec.ID, "anime_genre", []string{"Action", "Comedy", "action", " "}); err != nil {
		t.Fatalf("ReplaceTerms: %v", err)
	}
	if err := st.ReplaceTerms(ctx, rec.ID, "anime_genre", []string{"Drama", "Action"}); err != nil {
		t.Fatalf("ReplaceTerms second: %v", err)
	}

	got, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if want := []string{"Drama", "Action"}; !reflect.DeepEqual(got.Terms["anime_genre"], want) {
		t.Fatalf("terms = %#v, want %#v", got.Terms["anime_genre"], want)
	}

	terms, err := st.ListTerms(ctx, "anime_genre")
	if err != nil {
		t.Fatalf("ListTerms: %v", err)
	}
	if len(terms) != 3 {
		t.Fatalf("expected three vocabulary terms, got %#v", terms)
	}
	if terms[0].Slug != "action" {
		t.Fatalf("unexpected slug %q", terms[0].Slug)
	}
}

func TestReplaceTermsUnknownVocabulary(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec := testsupport.NewRecord(t, st, "Show", "")

	err := st.ReplaceTerms(context.Background(), rec.ID, "nope", []string{"x"})
	if !errors.Is(err, store.ErrUnknownVocabulary) {
		t.Fatalf("expected ErrUnknownVocabulary, got %v", err)
	}
	if err := st.RegisterVocabulary(context.Background(), "nope", "Nope", false); err != nil {
		t.Fatalf("RegisterVocabulary: %v", err)
	}
	if err := st.ReplaceTerms(context.Background(), rec.ID, "nope", []string{"x"}); err != nil {
		t.Fatalf("ReplaceTerms after register: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	rec := testsupport.NewRecord(t, st, "Before", "1")
	if err := st.ReplaceTerms(ctx, rec.ID, "anime_genre", []string{"Action"}); err != nil {
		t.Fatalf("ReplaceTerms: %v", err)
	}

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(w store.Writer) error {
		if err := w.UpdateFields(ctx, rec.ID, store.FieldUpdate{Title: "After"}); err != nil {
			return err
		}
		if err := w.ReplaceTerms(ctx, rec.ID, "anime_genre", []string{"Horror"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Title != "Before" {
		t.Fatalf("title leaked from rolled back tx: %q", got.Title)
	}
	if want := []string{"Action"}; !reflect.DeepEqual(got.Terms["anime_genre"], want) {
		t.Fatalf("terms leaked from rolled back tx: %#v", got.Terms["anime_genre"])
	}
}

func TestEditorFieldsAndExternalID(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	rec := testsupport.NewRecord(t, st, "Draft", "")

	title := "Edited"
	status := store.StatusPublish
	if err := st.UpdateEditorFields(ctx, rec.ID, store.EditorUpdate{Title: &title, Status: &status}); err != nil {
		t.Fatalf("UpdateEditorFields: %v", err)
	}
	if err := st.SetExternalID(ctx, rec.ID, "5114"); err != nil {
		t.Fatalf("SetExternalID: %v", err)
	}

	got, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Title != "Edited" || got.Status != store.StatusPublish || got.ExternalID != "5114" {
		t.Fatalf("unexpected record %#v", got)
	}

	if err := st.SetExternalID(ctx, rec.ID, ""); err != nil {
		t.Fatalf("clear external id: %v", err)
	}
	got, _ = st.GetRecord(ctx, rec.ID)
	if got.ExternalID != "" {
		t.Fatalf("expected cleared external id, got %q", got.ExternalID)
	}
}

func TestAssetsAndCover(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	rec := testsupport.NewRecord(t, st, "Show", "1")

	asset, err := st.CreateAsset(ctx, store.Asset{
		SourceURL: "https://cdn.example/1.jpg",
		Path:      "/tmp/a.jpg",
		MimeType:  "image/jpeg",
		Width:     10,
		Height:    20,
		SizeBytes: 99,
		Hash:      "abc",
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if err := st.SetCover(ctx, rec.ID, asset.ID); err != nil {
		t.Fatalf("SetCover: %v", err)
	}

	got, err := st.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.CoverAssetID != asset.ID {
		t.Fatalf("expected cover %s, got %s", asset.ID, got.CoverAssetID)
	}

	found, err := st.FindAssetByHash(ctx, "abc")
	if err != nil || found == nil || found.ID != asset.ID {
		t.Fatalf("FindAssetByHash = %#v, %v", found, err)
	}
	missing, err := st.FindAssetByHash(ctx, "zzz")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown hash, got %#v, %v", missing, err)
	}
	if _, err := st.GetAsset(ctx, "nope"); !errors.Is(err, store.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestDeleteUnusedAssetKeepsCovers(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	rec := testsupport.NewRecord(t, st, "Show", "1")

	used, err := st.CreateAsset(ctx, store.Asset{Path: "/tmp/used.jpg", Hash: "used"})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	loose, err := st.CreateAsset(ctx, store.Asset{Path: "/tmp/loose.jpg", Hash: "loose"})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if err := st.SetCover(ctx, rec.ID, used.ID); err != nil {
		t.Fatalf("SetCover: %v", err)
	}

	if deleted, err := st.DeleteUnusedAsset(ctx, used.ID); err != nil || deleted {
		t.Fatalf("cover asset deleted=%v err=%v", deleted, err)
	}
	if deleted, err := st.DeleteUnusedAsset(ctx, loose.ID); err != nil || !deleted {
		t.Fatalf("loose asset deleted=%v err=%v", deleted, err)
	}
	if _, err := st.GetAsset(ctx, loose.ID); !errors.Is(err, store.ErrAssetNotFound) {
		t.Fatalf("expected loose asset gone, got %v", err)
	}
	if deleted, err := st.DeleteUnusedAsset(ctx, loose.ID); err != nil || deleted {
		t.Fatalf("second delete deleted=%v err=%v", deleted, err)
	}
}

func TestListAndCountRecords(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.NewRecord(t, st, "One", "")
	testsupport.NewRecord(t, st, "Two", "")
	if _, err := st.CreateRecord(ctx, store.NewRecord{ContentType: "page", Title: "About"}); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	anime, err := st.ListRecords(ctx, store.ListOptions{ContentType: "anime"})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(anime) != 2 {
		t.Fatalf("expected 2 anime records, got %d", len(anime))
	}
	limited, err := st.ListRecords(ctx, store.ListOptions{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited list = %d, %v", len(limited), err)
	}

	total, err := st.CountRecords(ctx, "")
	if err != nil || total != 3 {
		t.Fatalf("CountRecords = %d, %v", total, err)
	}
}

func TestDeleteCascades(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	rec := testsupport.NewRecord(t, st, "Gone", "1")
	if err := st.ReplaceTerms(ctx, rec.ID, "anime_genre", []string{"Action"}); err != nil {
		t.Fatalf("ReplaceTerms: %v", err)
	}
	if err := st.DeleteRecord(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := st.GetRecord(ctx, rec.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, ok, err := st.GetSetting(ctx, store.SettingJikanAPIURL); err != nil || ok {
		t.Fatalf("expected missing setting, got ok=%v err=%v", ok, err)
	}
	if err := st.PutSetting(ctx, store.SettingJikanAPIURL, "http://a"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	if err := st.PutSetting(ctx, store.SettingJikanAPIURL, "http://b"); err != nil {
		t.Fatalf("PutSetting overwrite: %v", err)
	}
	value, ok, err := st.GetSetting(ctx, store.SettingJikanAPIURL)
	if err != nil || !ok || value != "http://b" {
		t.Fatalf("GetSetting = %q %v %v", value, ok, err)
	}
	if err := st.DeleteSetting(ctx, store.SettingJikanAPIURL); err != nil {
		t.Fatalf("DeleteSetting: %v", err)
	}
	if _, ok, _ := st.GetSetting(ctx, store.SettingJikanAPIURL); ok {
		t.Fatal("expected setting removed")
	}
}
