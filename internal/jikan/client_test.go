package jikan_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"animeimporter/internal/jikan"
)

const fullBody = `{"data":{
	"mal_id":1,
	"title":"Cowboy Bebop",
	"synopsis":"Space bounty hunters.",
	"type":"TV",
	"aired":{"string":"Apr 3, 1998 to Apr 24, 1999"},
	"score":8.75,
	"episodes":26,
	"studios":[{"mal_id":14,"name":"Sunrise"},{"mal_id":99,"name":"Other"}],
	"genres":[{"mal_id":1,"name":"Action"},{"mal_id":24,"name":"Sci-Fi"}],
	"images":{"jpg":{"image_url":"https://cdn.example/1.jpg"}}
}}`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, baseURL string, opts ...jikan.Option) *jikan.Client {
	t.Helper()
	client, err := jikan.New(baseURL, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewValidatesBaseURL(t *testing.T) {
	if _, err := jikan.New("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := jikan.New("ftp://example.com"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
	client, err := jikan.New("https://api.example.com/v4/")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if client.BaseURL() != "https://api.example.com/v4" {
		t.Fatalf("expected trailing slash trimmed, got %q", client.BaseURL())
	}
}

func TestGetAnimeFullSuccess(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/1/full" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "animeimporter/test" {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fullBody))
	})

	client := newClient(t, server.URL, jikan.WithUserAgent("animeimporter/test"))
	anime, err := client.GetAnimeFull(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetAnimeFull returned error: %v", err)
	}
	if anime.Title != "Cowboy Bebop" || anime.Type != "TV" {
		t.Fatalf("unexpected anime: %#v", anime)
	}
	if anime.Score == nil || *anime.Score != 8.75 {
		t.Fatalf("unexpected score: %v", anime.Score)
	}
	if anime.Episodes == nil || *anime.Episodes != 26 {
		t.Fatalf("unexpected episodes: %v", anime.Episodes)
	}
	if anime.FirstStudio() != "Sunrise" {
		t.Fatalf("unexpected studio %q", anime.FirstStudio())
	}
	if anime.CoverURL() != "https://cdn.example/1.jpg" {
		t.Fatalf("unexpected cover %q", anime.CoverURL())
	}
	if len(anime.Genres) != 2 || anime.Genres[1].Name != "Sci-Fi" {
		t.Fatalf("unexpected genres %#v", anime.Genres)
	}
}

func TestGetAnimeFullNullFields(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"mal_id":2,"title":"Unknown","synopsis":null,"score":null,"episodes":null,"studios":[],"genres":null,"images":{}}}`))
	})

	anime, err := newClient(t, server.URL).GetAnimeFull(context.Background(), "2")
	if err != nil {
		t.Fatalf("GetAnimeFull returned error: %v", err)
	}
	if anime.Score != nil || anime.Episodes != nil {
		t.Fatalf("expected nil score and episodes, got %v %v", anime.Score, anime.Episodes)
	}
	if anime.Synopsis != "" || anime.FirstStudio() != "" || anime.CoverURL() != "" {
		t.Fatalf("expected empty values, got %#v", anime)
	}
}

func TestGetAnimeFullEscapesID(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/5 6?x/full" {
			t.Errorf("unexpected decoded path %q", r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("id leaked into query: %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(fullBody))
	})

	if _, err := newClient(t, server.URL).GetAnimeFull(context.Background(), "5 6?x"); err != nil {
		t.Fatalf("GetAnimeFull returned error: %v", err)
	}
}

func TestGetAnimeFullServerError(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":500}`))
	})

	_, err := newClient(t, server.URL).GetAnimeFull(context.Background(), "1")
	if !errors.Is(err, jikan.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestGetAnimeFullNotFoundIsUnreachable(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := newClient(t, server.URL).GetAnimeFull(context.Background(), "999999")
	if !errors.Is(err, jikan.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestGetAnimeFullTimeout(t *testing.T) {
	release := make(chan struct{})
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	client := newClient(t, server.URL, jikan.WithTimeout(50*time.Millisecond))
	_, err := client.GetAnimeFull(context.Background(), "1")
	if !errors.Is(err, jikan.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable on timeout, got %v", err)
	}
}

func TestGetAnimeFullMalformed(t *testing.T) {
	bodies := map[string]string{
		"not json":     `<html>oops</html>`,
		"missing data": `{"status":200}`,
		"null data":    `{"data":null}`,
		"wrong shape":  `{"data":"nope"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := newClient(t, server.URL).GetAnimeFull(context.Background(), "1")
			if !errors.Is(err, jikan.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestSearchAnimeEscapesQuery(t *testing.T) {
	const query = `a&b=c <script>`
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != query {
			t.Errorf("expected query %q, got %q", query, got)
		}
		if r.URL.Query().Has("b") {
			t.Errorf("query was interpolated unescaped: %q", r.URL.RawQuery)
		}
		if strings.Contains(r.URL.RawQuery, "<") {
			t.Errorf("raw query not escaped: %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data":[{"mal_id":1,"title":"One"},{"mal_id":2,"title":"Two"}]}`))
	})

	results, err := newClient(t, server.URL).SearchAnime(context.Background(), query)
	if err != nil {
		t.Fatalf("SearchAnime returned error: %v", err)
	}
	if len(results) != 2 || results[0].MalID != 1 || results[1].Title != "Two" {
		t.Fatalf("unexpected results %#v", results)
	}
}

func TestSearchAnimeEmptyData(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	results, err := newClient(t, server.URL).SearchAnime(context.Background(), "zzzz")
	if err != nil {
		t.Fatalf("SearchAnime returned error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", results)
	}
}

func TestSearchAnimeMissingData(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pagination":{}}`))
	})

	_, err := newClient(t, server.URL).SearchAnime(context.Background(), "x")
	if !errors.Is(err, jikan.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestSearchAnimeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	_, err := newClient(t, baseURL).SearchAnime(context.Background(), "x")
	if !errors.Is(err, jikan.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}
