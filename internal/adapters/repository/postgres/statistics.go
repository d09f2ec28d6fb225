package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
)

// Statistics is a repository.StatisticsStore over the single "global" row of
// the statistics table.
type Statistics struct {
	pool *pgxpool.Pool
}

var _ repository.StatisticsStore = (*Statistics)(nil)

// Save implements repository.StatisticsStore.
func (s *Statistics) Save(ctx context.Context, snap model.StatisticsSnapshot) error {
	counts, err := json.Marshal(snap.Quality.CountsPerStar)
	if err != nil {
		return fmt.Errorf("failed to encode rating counts: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO statistics (id, total_free_members, total_paid_members, total_product_members,
			total_matches, total_contact_info_exposed, average_rating, counts_per_star, total_ratings, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			total_free_members = EXCLUDED.total_free_members,
			total_paid_members = EXCLUDED.total_paid_members,
			total_product_members = EXCLUDED.total_product_members,
			total_matches = EXCLUDED.total_matches,
			total_contact_info_exposed = EXCLUDED.total_contact_info_exposed,
			average_rating = EXCLUDED.average_rating,
			counts_per_star = EXCLUDED.counts_per_star,
			total_ratings = EXCLUDED.total_ratings,
			last_updated = EXCLUDED.last_updated`,
		model.StatisticsKey, snap.TotalFreeMembers, snap.TotalPaidMembers, snap.TotalProductMembers,
		snap.TotalMatches, snap.TotalContactInfoExposed, snap.Quality.AverageRating, counts,
		snap.Quality.TotalRatings, snap.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}

// Load implements repository.StatisticsStore.
func (s *Statistics) Load(ctx context.Context) (model.StatisticsSnapshot, error) {
	var (
		snap   model.StatisticsSnapshot
		counts []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT total_free_members, total_paid_members, total_product_members, total_matches,
			total_contact_info_exposed, average_rating, counts_per_star, total_ratings, last_updated
		 FROM statistics WHERE id = $1`,
		model.StatisticsKey,
	).Scan(
		&snap.TotalFreeMembers, &snap.TotalPaidMembers, &snap.TotalProductMembers, &snap.TotalMatches,
		&snap.TotalContactInfoExposed, &snap.Quality.AverageRating, &counts, &snap.Quality.TotalRatings,
		&snap.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StatisticsSnapshot{}, fmt.Errorf("statistics %q: %w", model.StatisticsKey, repository.ErrNotFound)
		}
		return model.StatisticsSnapshot{}, fmt.Errorf("failed to load statistics: %w", err)
	}

	quality := model.NewMatchQuality()
	if err := json.Unmarshal(counts, &quality.CountsPerStar); err != nil {
		return model.StatisticsSnapshot{}, fmt.Errorf("failed to decode rating counts: %w", err)
	}
	quality.AverageRating = snap.Quality.AverageRating
	quality.TotalRatings = snap.Quality.TotalRatings
	snap.Quality = quality
	return snap, nil
}

// IncrementContactExposed implements repository.StatisticsStore. Without a
// stored row nothing is updated and false is returned.
func (s *Statistics) IncrementContactExposed(ctx context.Context) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE statistics SET total_contact_info_exposed = total_contact_info_exposed + 1 WHERE id = $1`,
		model.StatisticsKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to increment exposed counter: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
