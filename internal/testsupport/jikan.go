package testsupport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// JikanServer is a fake provider. Bodies are keyed by request path
// ("/anime/1/full", "/anime"); unknown paths return 404.
type JikanServer struct {
	*httptest.Server
	Hits   atomic.Int64
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
}

// NewJikanServer starts a fake provider and registers cleanup.
func NewJikanServer(t testing.TB) *JikanServer {
	t.Helper()

	js := &JikanServer{routes: map[string]http.HandlerFunc{}}
	js.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		js.Hits.Add(1)
		js.mu.Lock()
		handler, ok := js.routes[r.URL.Path]
		js.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(js.Close)
	return js
}

// JSON registers a static JSON body for path.
func (js *JikanServer) JSON(path, body string) {
	js.set(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

// Status registers a bare status reply for path.
func (js *JikanServer) Status(path string, status int) {
	js.set(path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

// Handle registers a custom handler for path.
func (js *JikanServer) Handle(path string, handler http.HandlerFunc) {
	js.set(path, handler)
}

func (js *JikanServer) set(path string, handler http.HandlerFunc) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.routes[path] = handler
}

// Image serves a generated PNG of the given size at path and returns its URL.
func (js *JikanServer) Image(t testing.TB, path string, width, height int) string {
	t.Helper()
	data := PNGBytes(t, width, height)
	js.set(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	})
	return js.URL + path
}

// PNGBytes encodes a solid-colour PNG.
func PNGBytes(t testing.TB, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// AnimeJSON builds a minimal /anime/{id}/full body. Empty cover omits images.
func AnimeJSON(title, synopsis, cover string, genres ...string) string {
	var b strings.Builder
	b.WriteString(`{"data":{"mal_id":1,"title":`)
	b.WriteString(quote(title))
	b.WriteString(`,"synopsis":`)
	b.WriteString(quote(synopsis))
	b.WriteString(`,"type":"TV","aired":{"string":"Apr 3, 1998"},"score":8.5,"episodes":26,`)
	b.WriteString(`"studios":[{"mal_id":14,"name":"Sunrise"}],"genres":[`)
	for i, genre := range genres {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"name":`)
		b.WriteString(quote(genre))
		b.WriteByte('}')
	}
	b.WriteString(`],"images":{"jpg":{"image_url":`)
	b.WriteString(quote(cover))
	b.WriteString(`}}}}`)
	return b.String()
}

func quote(value string) string {
	data, _ := json.Marshal(value)
	return string(data)
}
