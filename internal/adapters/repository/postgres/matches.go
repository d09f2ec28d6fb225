package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/pkg/metrics"
)

// Matches is a repository.MatchStore over the matches table.
type Matches struct {
	pool *pgxpool.Pool
}

var _ repository.MatchStore = (*Matches)(nil)

const matchColumns = `user_id, matched_user_id, match_score, is_contact_info_exposed, match_date, user_rating`

// filterClause selects rows for a repository.MatchFilter bound as $1, $2.
const filterClause = `(NOT $1::boolean OR is_contact_info_exposed) AND (NOT $2::boolean OR user_rating IS NOT NULL)`

func scanMatch(row pgx.Row, extra ...any) (model.MatchRecord, error) {
	var rec model.MatchRecord
	dest := append([]any{
		&rec.UserID, &rec.MatchedUserID, &rec.MatchScore, &rec.IsContactInfoExposed, &rec.MatchDate, &rec.UserRating,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.MatchRecord{}, err
	}
	return rec, nil
}

func notFound(key model.MatchKey) error {
	return fmt.Errorf("match %s->%s: %w", key.UserID, key.MatchedUserID, repository.ErrNotFound)
}

// Find implements repository.MatchStore.
func (s *Matches) Find(ctx context.Context, key model.MatchKey) (model.MatchRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(storeLabel, "find_match", metrics.Since(start)) }()

	rec, err := scanMatch(s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE user_id = $1 AND matched_user_id = $2`,
		key.UserID, key.MatchedUserID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MatchRecord{}, notFound(key)
		}
		return model.MatchRecord{}, fmt.Errorf("failed to find match: %w", err)
	}
	return rec, nil
}

// UpsertExposed implements repository.MatchStore with a single statement, so
// concurrent first exposures of the same pair create exactly one row.
func (s *Matches) UpsertExposed(ctx context.Context, rec model.MatchRecord) (model.MatchRecord, bool, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(storeLabel, "upsert_exposed", metrics.Since(start)) }()

	var inserted bool
	stored, err := scanMatch(s.pool.QueryRow(ctx,
		`INSERT INTO matches (user_id, matched_user_id, match_score, is_contact_info_exposed, match_date)
		 VALUES ($1, $2, $3, TRUE, $4)
		 ON CONFLICT (user_id, matched_user_id) DO UPDATE SET is_contact_info_exposed = TRUE
		 RETURNING `+matchColumns+`, (xmax = 0) AS inserted`,
		rec.UserID, rec.MatchedUserID, rec.MatchScore, rec.MatchDate,
	), &inserted)
	if err != nil {
		return model.MatchRecord{}, false, fmt.Errorf("failed to upsert match %s->%s: %w", rec.UserID, rec.MatchedUserID, err)
	}
	return stored, inserted, nil
}

// SetRating implements repository.MatchStore.
func (s *Matches) SetRating(ctx context.Context, key model.MatchKey, rating int) (model.MatchRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(storeLabel, "set_rating", metrics.Since(start)) }()

	rec, err := scanMatch(s.pool.QueryRow(ctx,
		`UPDATE matches SET user_rating = $3
		 WHERE user_id = $1 AND matched_user_id = $2
		 RETURNING `+matchColumns,
		key.UserID, key.MatchedUserID, rating,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MatchRecord{}, notFound(key)
		}
		return model.MatchRecord{}, fmt.Errorf("failed to rate match: %w", err)
	}
	return rec, nil
}

// Count implements repository.MatchStore.
func (s *Matches) Count(ctx context.Context, filter repository.MatchFilter) (int, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM matches WHERE `+filterClause,
		filter.ExposedOnly, filter.RatedOnly,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return int(n), nil
}

// Scan implements repository.MatchStore.
func (s *Matches) Scan(ctx context.Context, filter repository.MatchFilter, fn func(model.MatchRecord) error) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(storeLabel, "scan_matches", metrics.Since(start)) }()

	rows, err := s.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE `+filterClause+` ORDER BY seq`,
		filter.ExposedOnly, filter.RatedOnly,
	)
	if err != nil {
		return fmt.Errorf("failed to scan matches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return fmt.Errorf("failed to read match: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
