// Package stats recomputes and serves the platform-wide statistics snapshot.
package stats

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
	"github.com/okian/lookingforlove/pkg/logger"
	"github.com/okian/lookingforlove/pkg/metrics"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithClock sets the time source for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the aggregator logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// Aggregator builds StatisticsSnapshot values from the directory and match store.
type Aggregator struct {
	users   repository.UserDirectory
	matches repository.MatchStore
	store   repository.StatisticsStore
	now     func() time.Time
	log     logger.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(users repository.UserDirectory, matches repository.MatchStore, store repository.StatisticsStore, opts ...Option) *Aggregator {
	a := &Aggregator{
		users:   users,
		matches: matches,
		store:   store,
		now:     time.Now,
		log:     logger.Get().Named("stats"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh recounts everything and replaces the stored snapshot.
func (a *Aggregator) Refresh(ctx context.Context) (model.StatisticsSnapshot, error) {
	const op = "stats.refresh"
	start := time.Now()

	var snap model.StatisticsSnapshot
	g, gctx := errgroup.WithContext(ctx)

	tierTotals := map[types.MembershipTier]*int{
		types.Free:    &snap.TotalFreeMembers,
		types.Paid:    &snap.TotalPaidMembers,
		types.Product: &snap.TotalProductMembers,
	}
	for tier, dst := range tierTotals {
		g.Go(func() error {
			n, err := a.users.CountByTier(gctx, tier)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	g.Go(func() error {
		n, err := a.matches.Count(gctx, repository.MatchFilter{})
		if err != nil {
			return err
		}
		snap.TotalMatches = n
		return nil
	})
	g.Go(func() error {
		n, err := a.matches.Count(gctx, repository.MatchFilter{ExposedOnly: true})
		if err != nil {
			return err
		}
		snap.TotalContactInfoExposed = n
		return nil
	})
	g.Go(func() error {
		q, err := a.breakdown(gctx)
		if err != nil {
			return err
		}
		snap.Quality = q
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.RecordStatisticsRefreshError()
		return model.StatisticsSnapshot{}, model.Wrap(op, err)
	}

	snap.LastUpdated = a.now()
	if err := a.store.Save(ctx, snap); err != nil {
		metrics.RecordStatisticsRefreshError()
		return model.StatisticsSnapshot{}, model.Wrap(op, err)
	}

	metrics.RecordStatisticsRefresh(metrics.Since(start), snap.LastUpdated)
	metrics.UpdateMembersByTier(string(types.Free), snap.TotalFreeMembers)
	metrics.UpdateMembersByTier(string(types.Paid), snap.TotalPaidMembers)
	metrics.UpdateMembersByTier(string(types.Product), snap.TotalProductMembers)
	a.log.Info(ctx, "statistics refreshed",
		logger.Int("matches", snap.TotalMatches),
		logger.Int("exposed", snap.TotalContactInfoExposed),
		logger.Int("ratings", snap.Quality.TotalRatings))
	return snap, nil
}

// Current returns the stored snapshot.
func (a *Aggregator) Current(ctx context.Context) (model.StatisticsSnapshot, error) {
	const op = "stats.current"
	snap, err := a.store.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.StatisticsSnapshot{}, model.WrapKind(op, model.ErrStatisticsNotInitialized, err)
		}
		return model.StatisticsSnapshot{}, model.Wrap(op, err)
	}
	return snap, nil
}

// MatchQualityBreakdown summarizes every submitted rating.
func (a *Aggregator) MatchQualityBreakdown(ctx context.Context) (model.MatchQuality, error) {
	q, err := a.breakdown(ctx)
	if err != nil {
		return model.MatchQuality{}, model.Wrap("stats.match_quality", err)
	}
	return q, nil
}

func (a *Aggregator) breakdown(ctx context.Context) (model.MatchQuality, error) {
	q := model.NewMatchQuality()
	sum := 0
	err := a.matches.Scan(ctx, repository.MatchFilter{RatedOnly: true}, func(rec model.MatchRecord) error {
		r := *rec.UserRating
		q.CountsPerStar[r]++
		q.TotalRatings++
		sum += r
		return nil
	})
	if err != nil {
		return model.MatchQuality{}, err
	}
	if q.TotalRatings > 0 {
		q.AverageRating = float64(sum) / float64(q.TotalRatings)
	}
	return q, nil
}
