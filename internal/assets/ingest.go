package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/image/draw"

	"animeimporter/internal/config"
	"animeimporter/internal/fileutil"
	"animeimporter/internal/logging"
	"animeimporter/internal/store"
)

var (
	// ErrDisabled is returned when asset ingestion is turned off.
	ErrDisabled = errors.New("asset ingestion disabled")
	// ErrTooLarge is returned when the download exceeds the byte cap.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrUnsupported is returned for bodies that are not a decodable image.
	ErrUnsupported = errors.New("unsupported image")
	// ErrTooManyPixels is returned when the image header declares more
	// pixels than the configured limit. It wraps ErrUnsupported.
	ErrTooManyPixels = fmt.Errorf("%w: too many pixels", ErrUnsupported)
)

const jpegQuality = 88

var tracer = otel.Tracer("animeimporter/assets")

// Store is the persistence surface the ingester needs.
type Store interface {
	CreateAsset(ctx context.Context, asset store.Asset) (*store.Asset, error)
	FindAssetByHash(ctx context.Context, hash string) (*store.Asset, error)
	DeleteUnusedAsset(ctx context.Context, id string) (bool, error)
}

// Ingester turns remote image URLs into stored assets.
type Ingester struct {
	store        Store
	dir          string
	enabled      bool
	maxBytes     int64
	maxDimension int
	maxPixels    int64
	userAgent    string
	client       *http.Client
	logger       *slog.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Ingester) {
		if client != nil {
			i.client = client
		}
	}
}

// NewIngester builds an ingester from the assets and jikan config sections.
func NewIngester(st Store, cfg *config.Config, logger *slog.Logger, opts ...Option) *Ingester {
	timeout := cfg.JikanTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ing := &Ingester{
		store:        st,
		dir:          cfg.Paths.AssetDir,
		enabled:      cfg.Assets.Enabled,
		maxBytes:     cfg.Assets.MaxBytes,
		maxDimension: cfg.Assets.MaxDimension,
		maxPixels:    cfg.Assets.MaxPixels,
		userAgent:    cfg.Jikan.UserAgent,
		client:       &http.Client{Timeout: timeout},
		logger:       logging.NewComponentLogger(logger, "assets"),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest downloads sourceURL and returns the stored asset.
func (i *Ingester) Ingest(ctx context.Context, sourceURL string) (*store.Asset, error) {
	if !i.enabled {
		return nil, ErrDisabled
	}
	ctx, span := tracer.Start(ctx, "assets.Ingest")
	defer span.End()

	asset, err := i.ingest(ctx, sourceURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("asset.id", asset.ID), attribute.String("asset.hash", asset.Hash))
	return asset, nil
}

func (i *Ingester) ingest(ctx context.Context, sourceURL string) (*store.Asset, error) {
	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid image url %q", ErrUnsupported, sourceURL)
	}

	data, err := i.download(ctx, parsed.String())
	if err != nil {
		return nil, err
	}

	mimeType := http.DetectContentType(data)
	switch mimeType {
	case "image/jpeg", "image/png", "image/gif":
	default:
		return nil, fmt.Errorf("%w: content type %s", ErrUnsupported, mimeType)
	}

	// The header is checked first so a small, highly compressed file cannot
	// make Decode allocate a huge pixel buffer.
	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode header: %w", ErrUnsupported, err)
	}
	if i.maxPixels > 0 && int64(header.Width)*int64(header.Height) > i.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrTooManyPixels, header.Width, header.Height, i.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrUnsupported, err)
	}
	img = fitWithin(img, i.maxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	encoded := buf.Bytes()
	hash := fmt.Sprintf("%016x", xxh3.Hash(encoded))

	existing, err := i.store.FindAssetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil && fileutil.Exists(existing.Path) {
		i.logger.Debug("reusing stored image", logging.String("asset_id", existing.ID), logging.String("hash", hash))
		return existing, nil
	}

	target := filepath.Join(i.dir, hash+".jpg")
	if err := fileutil.WriteFileAtomic(target, encoded, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	bounds := img.Bounds()
	asset, err := i.store.CreateAsset(ctx, store.Asset{
		SourceURL: parsed.String(),
		Path:      target,
		MimeType:  "image/jpeg",
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		SizeBytes: int64(len(encoded)),
		Hash:      hash,
	})
	if err != nil {
		return nil, err
	}
	i.logger.Info("stored image",
		logging.String("asset_id", asset.ID),
		logging.Int("width", asset.Width),
		logging.Int("height", asset.Height),
		logging.Int64("bytes", asset.SizeBytes),
	)
	return asset, nil
}

// Discard deletes an asset that no record uses. The file is removed once no
// other asset row shares its content hash.
func (i *Ingester) Discard(ctx context.Context, asset *store.Asset) error {
	deleted, err := i.store.DeleteUnusedAsset(ctx, asset.ID)
	if err != nil || !deleted {
		return err
	}
	other, err := i.store.FindAssetByHash(ctx, asset.Hash)
	if err != nil {
		return err
	}
	if other != nil {
		return nil
	}
	if err := os.Remove(asset.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	i.logger.Debug("discarded image", logging.String("asset_id", asset.ID))
	return nil
}

func (i *Ingester) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if i.userAgent != "" {
		req.Header.Set("User-Agent", i.userAgent)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	if i.maxBytes > 0 && resp.ContentLength > i.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	reader := io.Reader(resp.Body)
	if i.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, i.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if i.maxBytes > 0 && int64(len(data)) > i.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, i.maxBytes)
	}
	return data, nil
}

// fitWithin scales img down so neither side exceeds maxDimension, keeping
// the aspect ratio. A zero maxDimension leaves the image as is.
func fitWithin(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxDimension <= 0 || (width <= maxDimension && height <= maxDimension) {
		return img
	}
	if width >= height {
		height = max(1, height*maxDimension/width)
		width = maxDimension
	} else {
		width = max(1, width*maxDimension/height)
		height = maxDimension
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
