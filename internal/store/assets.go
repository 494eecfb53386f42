package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"animeimporter/internal/services"
)

const assetColumns = "id, source_url, path, mime_type, width, height, size_bytes, hash, created_at"

// CreateAsset records an image file. ID and CreatedAt are assigned here.
func (s *Store) CreateAsset(ctx context.Context, asset Asset) (*Asset, error) {
	if strings.TrimSpace(asset.Path) == "" || strings.TrimSpace(asset.Hash) == "" {
		return nil, fmt.Errorf("%w: asset path and hash required", services.ErrValidation)
	}
	asset.ID = uuid.NewString()
	asset.CreatedAt = time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		"INSERT INTO assets ("+assetColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		asset.ID,
		asset.SourceURL,
		asset.Path,
		asset.MimeType,
		asset.Width,
		asset.Height,
		asset.SizeBytes,
		asset.Hash,
		formatTime(asset.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("insert asset: %w", err)
	}
	return &asset, nil
}

// GetAsset loads an asset by id.
func (s *Store) GetAsset(ctx context.Context, id string) (*Asset, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+assetColumns+" FROM assets WHERE id = ?", id)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

// FindAssetByHash returns the newest asset with the given content hash, or
// nil when none exists.
func (s *Store) FindAssetByHash(ctx context.Context, hash string) (*Asset, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+assetColumns+" FROM assets WHERE hash = ? ORDER BY created_at DESC LIMIT 1", hash)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find asset: %w", err)
	}
	return asset, nil
}

// DeleteUnusedAsset removes the asset row unless a record still uses it as
// its cover. It reports whether the row was removed.
func (s *Store) DeleteUnusedAsset(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		"DELETE FROM assets WHERE id = ? AND NOT EXISTS (SELECT 1 FROM records WHERE cover_asset_id = ?)",
		id, id)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	return n > 0, nil
}

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*Asset, error) {
	var (
		asset      Asset
		createdRaw string
	)
	if err := scanner.Scan(
		&asset.ID,
		&asset.SourceURL,
		&asset.Path,
		&asset.MimeType,
		&asset.Width,
		&asset.Height,
		&asset.SizeBytes,
		&asset.Hash,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		asset.CreatedAt = created
	}
	return &asset, nil
}
