package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"animeimporter/internal/services"
)

// CreateRecord inserts a record and returns it with its generated id.
func (s *Store) CreateRecord(ctx context.Context, rec NewRecord) (*Record, error) {
	contentType := strings.TrimSpace(rec.ContentType)
	if contentType == "" {
		return nil, fmt.Errorf("%w: content type required", services.ErrValidation)
	}
	status, err := normalizeStatus(rec.Status)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	timestamp := formatTime(time.Now())
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO records (
            id, content_type, status, title, body, external_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		contentType,
		status,
		rec.Title,
		rec.Body,
		nullableString(strings.TrimSpace(rec.ExternalID)),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return s.GetRecord(ctx, id)
}

// GetRecord loads a record with its attributes and terms.
func (s *Store) GetRecord(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if err := s.loadDetails(ctx, []*Record{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords returns records ordered by most recent update.
func (s *Store) ListRecords(ctx context.Context, opts ListOptions) ([]*Record, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + recordColumns + " FROM records"
	var args []any
	if ct := strings.TrimSpace(opts.ContentType); ct != "" {
		query += " WHERE content_type = ?"
		args = append(args, ct)
	}
	query += " ORDER BY updated_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	if err := s.loadDetails(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// CountRecords reports how many records of the content type exist. An empty
// content type counts everything.
func (s *Store) CountRecords(ctx context.Context, contentType string) (int, error) {
	ctx = ensureContext(ctx)
	query := "SELECT COUNT(1) FROM records"
	var args []any
	if ct := strings.TrimSpace(contentType); ct != "" {
		query += " WHERE content_type = ?"
		args = append(args, ct)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// UpdateEditorFields applies editor changes to title, body and status.
func (s *Store) UpdateEditorFields(ctx context.Context, id string, update EditorUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *update.Body)
	}
	if update.Status != nil {
		status, err := normalizeStatus(*update.Status)
		if err != nil {
			return err
		}
		sets = append(sets, "status = ?")
		args = append(args, status)
	}
	if len(sets) == 0 {
		return s.ensureRecord(ctx, s.db, id)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	res, err := s.execWithRetry(ctx, "UPDATE records SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return requireAffected(res, id)
}

// SetExternalID stores the external identifier. An empty value clears it.
func (s *Store) SetExternalID(ctx context.Context, id, externalID string) error {
	res, err := s.execWithRetry(ctx,
		"UPDATE records SET external_id = ?, updated_at = ? WHERE id = ?",
		nullableString(strings.TrimSpace(externalID)), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set external id: %w", err)
	}
	return requireAffected(res, id)
}

// SetCover points the record at an existing asset.
func (s *Store) SetCover(ctx context.Context, id, assetID string) error {
	res, err := s.execWithRetry(ctx,
		"UPDATE records SET cover_asset_id = ?, updated_at = ? WHERE id = ?",
		nullableString(assetID), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set cover: %w", err)
	}
	return requireAffected(res, id)
}

// DeleteRecord removes the record together with its attributes and term links.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return requireAffected(res, id)
}

// UpdateFields overwrites title and body and upserts attributes in one
// transaction.
func (s *Store) UpdateFields(ctx context.Context, id string, update FieldUpdate) error {
	return s.WithTx(ctx, func(w Writer) error {
		return w.UpdateFields(ctx, id, update)
	})
}

func updateFields(ctx context.Context, q queryer, id string, update FieldUpdate, now time.Time) error {
	res, err := q.ExecContext(ctx,
		"UPDATE records SET title = ?, body = ?, updated_at = ? WHERE id = ?",
		update.Title, update.Body, formatTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("update record fields: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}

	keys := make([]string, 0, len(update.Attributes))
	for key := range update.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO attributes (record_id, key, value) VALUES (?, ?, ?)
             ON CONFLICT(record_id, key) DO UPDATE SET value = excluded.value`,
			id, key, update.Attributes[key],
		); err != nil {
			return fmt.Errorf("upsert attribute %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) ensureRecord(ctx context.Context, q queryer, id string) error {
	var exists int
	if err := q.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM records WHERE id = ?", id).Scan(&exists); err != nil {
		return fmt.Errorf("check record: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

// loadDetails fills attributes and terms for the given records.
func (s *Store) loadDetails(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}
	byID := make(map[string]*Record, len(records))
	args := make([]any, 0, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
		args = append(args, rec.ID)
	}
	placeholders := makePlaceholders(len(args))

	attrRows, err := s.db.QueryContext(ctx,
		"SELECT record_id, key, value FROM attributes WHERE record_id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("load attributes: %w", err)
	}
	for attrRows.Next() {
		var recordID, key, value string
		if err := attrRows.Scan(&recordID, &key, &value); err != nil {
			attrRows.Close()
			return fmt.Errorf("scan attribute: %w", err)
		}
		byID[recordID].Attributes[key] = value
	}
	if err := attrRows.Err(); err != nil {
		attrRows.Close()
		return fmt.Errorf("iterate attributes: %w", err)
	}
	attrRows.Close()

	termRows, err := s.db.QueryContext(ctx,
		`SELECT rt.record_id, t.vocabulary, t.name
         FROM record_terms rt JOIN terms t ON t.id = rt.term_id
         WHERE rt.record_id IN (`+placeholders+`)
         ORDER BY rt.record_id, t.vocabulary, rt.position`, args...)
	if err != nil {
		return fmt.Errorf("load terms: %w", err)
	}
	defer termRows.Close()
	for termRows.Next() {
		var recordID, vocabulary, name string
		if err := termRows.Scan(&recordID, &vocabulary, &name); err != nil {
			return fmt.Errorf("scan term: %w", err)
		}
		rec := byID[recordID]
		rec.Terms[vocabulary] = append(rec.Terms[vocabulary], name)
	}
	if err := termRows.Err(); err != nil {
		return fmt.Errorf("iterate terms: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

func normalizeStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", StatusDraft:
		return StatusDraft, nil
	case StatusPublish:
		return StatusPublish, nil
	default:
		return "", fmt.Errorf("%w: invalid record status %q", services.ErrValidation, status)
	}
}
