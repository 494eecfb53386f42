package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"animeimporter/internal/services"
	"animeimporter/internal/textutil"
)

// ErrUnknownVocabulary is returned when terms target an unregistered vocabulary.
var ErrUnknownVocabulary = fmt.Errorf("%w: unknown vocabulary", services.ErrValidation)

// ReplaceTerms swaps the record's terms in vocabulary for names, in order.
// Terms are created on first use and matched by slug; duplicates and blank
// names are ignored. The swap happens in one transaction.
func (s *Store) ReplaceTerms(ctx context.Context, id, vocabulary string, names []string) error {
	return s.WithTx(ctx, func(w Writer) error {
		return w.ReplaceTerms(ctx, id, vocabulary, names)
	})
}

func replaceTerms(ctx context.Context, q queryer, id, vocabulary string, names []string, now time.Time) error {
	if err := ensureVocabulary(ctx, q, vocabulary); err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, "UPDATE records SET updated_at = ? WHERE id = ?", formatTime(now), id)
	if err != nil {
		return fmt.Errorf("touch record: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM record_terms
         WHERE record_id = ? AND term_id IN (SELECT id FROM terms WHERE vocabulary = ?)`,
		id, vocabulary,
	); err != nil {
		return fmt.Errorf("clear terms: %w", err)
	}

	seen := make(map[int64]struct{}, len(names))
	position := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		termID, err := ensureTerm(ctx, q, vocabulary, name)
		if err != nil {
			return err
		}
		if _, dup := seen[termID]; dup {
			continue
		}
		seen[termID] = struct{}{}
		if _, err := q.ExecContext(ctx,
			"INSERT INTO record_terms (record_id, term_id, position) VALUES (?, ?, ?)",
			id, termID, position,
		); err != nil {
			return fmt.Errorf("link term %q: %w", name, err)
		}
		position++
	}
	return nil
}

func ensureVocabulary(ctx context.Context, q queryer, vocabulary string) error {
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(1) FROM vocabularies WHERE name = ?", vocabulary).Scan(&count); err != nil {
		return fmt.Errorf("check vocabulary: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w %q", ErrUnknownVocabulary, vocabulary)
	}
	return nil
}

func ensureTerm(ctx context.Context, q queryer, vocabulary, name string) (int64, error) {
	slug := textutil.Slug(name)
	if slug == "" {
		slug = strings.ToLower(name)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO terms (vocabulary, name, slug) VALUES (?, ?, ?)
         ON CONFLICT(vocabulary, slug) DO NOTHING`,
		vocabulary, name, slug,
	); err != nil {
		return 0, fmt.Errorf("insert term %q: %w", name, err)
	}
	var termID int64
	err := q.QueryRowContext(ctx, "SELECT id FROM terms WHERE vocabulary = ? AND slug = ?", vocabulary, slug).Scan(&termID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("term %q vanished after insert", name)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup term %q: %w", name, err)
	}
	return termID, nil
}

// RegisterVocabulary creates a vocabulary if it does not exist yet.
func (s *Store) RegisterVocabulary(ctx context.Context, name, label string, hierarchical bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: vocabulary name required", services.ErrValidation)
	}
	flag := 0
	if hierarchical {
		flag = 1
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO vocabularies (name, label, hierarchical) VALUES (?, ?, ?)
         ON CONFLICT(name) DO NOTHING`,
		name, label, flag,
	); err != nil {
		return fmt.Errorf("register vocabulary: %w", err)
	}
	return nil
}

// ListTerms returns every term in the vocabulary ordered by name.
func (s *Store) ListTerms(ctx context.Context, vocabulary string) ([]Term, error) {
	ctx = ensureContext(ctx)
	if err := ensureVocabulary(ctx, s.db, vocabulary); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, vocabulary, name, slug, parent_id FROM terms WHERE vocabulary = ? ORDER BY name COLLATE NOCASE",
		vocabulary,
	)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	terms := []Term{}
	for rows.Next() {
		var (
			term   Term
			parent sql.NullInt64
		)
		if err := rows.Scan(&term.ID, &term.Vocabulary, &term.Name, &term.Slug, &parent); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		term.ParentID = parent.Int64
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return terms, nil
}
