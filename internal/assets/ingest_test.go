package assets_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image/jpeg"
	"net/http"
	"os"
	"strings"
	"testing"

	"animeimporter/internal/assets"
	"animeimporter/internal/logging"
	"animeimporter/internal/testsupport"
)

func TestIngestStoresDownscaledJPEG(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Assets.MaxDimension = 40
	st := testsupport.MustOpenStore(t, cfg)
	server := testsupport.NewJikanServer(t)
	imageURL := server.Image(t, "/images/1.png", 200, 100)

	ing := assets.NewIngester(st, cfg, logging.NewNop())
	asset, err := ing.Ingest(context.Background(), imageURL)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if asset.Width != 40 || asset.Height != 20 {
		t.Fatalf("expected 40x20, got %dx%d", asset.Width, asset.Height)
	}
	if asset.MimeType != "image/jpeg" || asset.SourceURL != imageURL {
		t.Fatalf("unexpected asset %#v", asset)
	}
	if !strings.HasPrefix(asset.Path, cfg.Paths.AssetDir) || !strings.HasSuffix(asset.Path, asset.Hash+".jpg") {
		t.Fatalf("unexpected asset path %q", asset.Path)
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		t.Fatalf("open stored image: %v", err)
	}
	defer f.Close()
	decoded, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("stored file is not a jpeg: %v", err)
	}
	if decoded.Width != 40 || decoded.Height != 20 {
		t.Fatalf("stored image is %dx%d", decoded.Width, decoded.Height)
	}
}

func TestIngestDeduplicatesByHash(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	server := testsupport.NewJikanServer(t)
	first := server.Image(t, "/a.png", 10, 10)
	second := server.Image(t, "/b.png", 10, 10)

	ing := assets.NewIngester(st, cfg, logging.NewNop())
	a, err := ing.Ingest(context.Background(), first)
	if err != nil {
		t.Fatalf("Ingest first: %v", err)
	}
	b, err := ing.Ingest(context.Background(), second)
	if err != nil {
		t.Fatalf("Ingest second: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected identical images to share an asset, got %s and %s", a.ID, b.ID)
	}
}

func TestIngestRejectsNonImage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	server := testsupport.NewJikanServer(t)
	server.JSON("/fake.jpg", `{"not":"an image"}`)

	_, err := assets.NewIngester(st, cfg, logging.NewNop()).Ingest(context.Background(), server.URL+"/fake.jpg")
	if !errors.Is(err, assets.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestIngestEnforcesSizeCap(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Assets.MaxBytes = 64
	st := testsupport.MustOpenStore(t, cfg)
	server := testsupport.NewJikanServer(t)
	url := server.Image(t, "/big.png", 300, 300)

	_, err := assets.NewIngester(st, cfg, logging.NewNop()).Ingest(context.Background(), url)
	if !errors.Is(err, assets.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestIngestHTTPError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	server := testsupport.NewJikanServer(t)
	server.Status("/gone.jpg", http.StatusGone)

	if _, err := assets.NewIngester(st, cfg, logging.NewNop()).Ingest(context.Background(), server.URL+"/gone.jpg"); err == nil {
		t.Fatal("expected error for 410 response")
	}
}

func TestIngestDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAssetsDisabled())
	st := testsupport.MustOpenStore(t, cfg)

	_, err := assets.NewIngester(st, cfg, logging.NewNop()).Ingest(context.Background(), "http://example.invalid/x.jpg")
	if !errors.Is(err, assets.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestIngestRejectsBadURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := assets.NewIngester(st, cfg, logging.NewNop()).Ingest(context.Background(), "file:///etc/passwd")
	if !errors.Is(err, assets.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

// pngHeaderOnly returns a PNG that declares width x height but carries no
// pixel data, the shape of a decompression bomb once the IDAT is added.
func pngHeaderOnly(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(kind string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(kind), data...)
		buf.Write(body)
		_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestIngestRejectsOversizedPixelCount(t *testing.T) {
	t.Run("declared header", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		st := testsupport.MustOpenStore(t, cfg)
		server := testsupport.NewJikanServer(t)
		body := pngHeaderOnly(60000, 60000)
		server.Handle("/bomb.png", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		})

		_, err := assets.NewIngester(st, cfg, logging.NewNop()).Ingest(context.Background(), server.URL+"/bomb.png")
		if !errors.Is(err, assets.ErrTooManyPixels) || !errors.Is(err, assets.ErrUnsupported) {
			t.Fatalf("expected ErrTooManyPixels, got %v", err)
		}
		if entries, _ := os.ReadDir(cfg.Paths.AssetDir); len(entries) != 0 {
			t.Fatalf("expected no stored files, found %d", len(entries))
		}
	})

	t.Run("configured limit", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		cfg.Assets.MaxPixels = 10_000
		st := testsupport.MustOpenStore(t, cfg)
		server := testsupport.NewJikanServer(t)
		url := server.Image(t, "/wide.png", 400, 400)

		_, err := assets.NewIngester(st, cfg, logging.NewNop()).Ingest(context.Background(), url)
		if !errors.Is(err, assets.ErrTooManyPixels) {
			t.Fatalf("expected ErrTooManyPixels, got %v", err)
		}
		if _, err := assets.NewIngester(st, cfg, logging.NewNop()).Ingest(context.Background(), server.Image(t, "/small.png", 100, 100)); err != nil {
			t.Fatalf("image at the limit rejected: %v", err)
		}
	})
}

func TestDiscardRemovesUnattachedImage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	server := testsupport.NewJikanServer(t)
	ing := assets.NewIngester(st, cfg, logging.NewNop())
	ctx := context.Background()

	loose, err := ing.Ingest(ctx, server.Image(t, "/loose.png", 6, 6))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := ing.Discard(ctx, loose); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(loose.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, stat err %v", err)
	}

	rec := testsupport.NewRecord(t, st, "Show", "1")
	cover, err := ing.Ingest(ctx, server.Image(t, "/cover.png", 7, 7))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := st.SetCover(ctx, rec.ID, cover.ID); err != nil {
		t.Fatalf("SetCover: %v", err)
	}
	if err := ing.Discard(ctx, cover); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(cover.Path); err != nil {
		t.Fatalf("cover file removed: %v", err)
	}
	if _, err := st.GetAsset(ctx, cover.ID); err != nil {
		t.Fatalf("cover asset removed: %v", err)
	}
}
