// Package service assembles the stores, the match core, the statistics
// aggregator and the background workers behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/lookingforlove/internal/adapters/cache"
	"github.com/okian/lookingforlove/internal/adapters/identity"
	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/adapters/repository/postgres"
	"github.com/okian/lookingforlove/internal/adapters/worker"
	"github.com/okian/lookingforlove/internal/config"
	"github.com/okian/lookingforlove/internal/domain/matching"
	"github.com/okian/lookingforlove/internal/domain/scoring"
	"github.com/okian/lookingforlove/internal/domain/stats"
	"github.com/okian/lookingforlove/internal/seed"
	"github.com/okian/lookingforlove/pkg/logger"
)

// ErrStopped is returned when starting a service that was already stopped.
var ErrStopped = errors.New("service stopped")

const defaultSystemSampleInterval = 5 * time.Second

// Service owns every long-lived component of the process.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Storage
	users      repository.UserDirectory
	matches    repository.MatchStore
	statsStore repository.StatisticsStore
	db         *postgres.DB
	rdb        *redis.Client
	// ownStores is set when openStores built the stores rather than WithStores.
	ownStores bool
	// baseStats is the statistics store underneath the Redis cache.
	baseStats repository.StatisticsStore

	// Core
	matching   *matching.Service
	aggregator *stats.Aggregator
	issuer     *identity.Issuer
	pool       *worker.Pool

	systemSampleInterval time.Duration

	started bool
	stopped bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the process configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStores injects prebuilt stores, bypassing the configured backend.
func WithStores(users repository.UserDirectory, matches repository.MatchStore, st repository.StatisticsStore) Option {
	return func(s *Service) {
		s.users, s.matches, s.statsStore = users, matches, st
	}
}

// WithSystemSampleInterval sets how often runtime gauges are published. 0 disables sampling.
func WithSystemSampleInterval(d time.Duration) Option {
	return func(s *Service) {
		s.systemSampleInterval = d
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:                  config.New(),
		systemSampleInterval: defaultSystemSampleInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the stores and starts the background workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting lookingforlove service...", logger.String("store", s.cfg.Store))

	if err := s.openStores(ctx); err != nil {
		s.closeStores()
		return err
	}

	issuer, err := identity.NewIssuer(s.cfg.JWTSecret, identity.WithExpiration(s.cfg.JWTExpiration()))
	if err != nil {
		s.closeStores()
		return fmt.Errorf("identity: %w", err)
	}
	s.issuer = issuer

	scorer := scoring.NewSkillScorer(
		scoring.WithMatchPoints(s.cfg.MatchPoints),
		scoring.WithProficiencyBonus(s.cfg.ProficiencyBonus),
		scoring.WithMaxScore(s.cfg.MaxScore),
	)
	s.matching = matching.NewService(s.users, s.matches, s.statsStore, scorer)
	s.aggregator = stats.NewAggregator(s.users, s.matches, s.statsStore)

	if s.cfg.SeedUsers > 0 {
		if _, err := seed.Seed(ctx, s.users, s.cfg.SeedUsers); err != nil {
			s.closeStores()
			return fmt.Errorf("seed: %w", err)
		}
	}

	var workers []worker.Worker
	if interval := s.cfg.StatsRefreshInterval(); interval > 0 {
		workers = append(workers, worker.NewStatsRefresher(s.aggregator, interval))
	}
	if s.systemSampleInterval > 0 {
		workers = append(workers, worker.NewSystemSampler(s.systemSampleInterval))
	}
	s.pool = worker.NewPool(workers...)
	// Workers outlive the start request.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "lookingforlove service started",
		logger.Int("workers", len(workers)),
		logger.Bool("stats_cache", s.rdb != nil),
		logger.Int("seeded", s.cfg.SeedUsers),
	)
	return nil
}

// openStores builds the configured backend unless stores were injected.
func (s *Service) openStores(ctx context.Context) error {
	if s.users == nil || s.matches == nil || s.statsStore == nil {
		switch s.cfg.Store {
		case config.StorePostgres:
			db, err := postgres.Connect(ctx, s.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			s.db = db
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			s.users, s.matches, s.statsStore = db.Users(), db.Matches(), db.Statistics()
		default:
			s.users = repository.NewMemoryUsers()
			s.matches = repository.NewMemoryMatches()
			s.statsStore = repository.NewMemoryStatistics()
		}
		s.ownStores = true
	}

	s.baseStats = s.statsStore
	if s.cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, s.cfg.RedisAddr, s.cfg.RedisDB)
		if err != nil {
			return err
		}
		s.rdb = rdb
		s.statsStore = cache.NewStatisticsCache(rdb, s.statsStore, cache.WithTTL(s.cfg.StatsCacheTTL()))
	}
	return nil
}

// closeStores releases connections and forgets every store built on them, so
// a later openStores starts clean. Injected stores are kept unwrapped.
func (s *Service) closeStores() {
	if s.rdb != nil {
		_ = s.rdb.Close()
		s.rdb = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	if s.ownStores {
		s.users, s.matches, s.statsStore = nil, nil, nil
		s.ownStores = false
	} else if s.baseStats != nil {
		s.statsStore = s.baseStats
	}
	s.baseStats = nil
}

// Ready pings the database and the cache when they are configured.
func (s *Service) Ready(ctx context.Context) error {
	s.mu.RLock()
	db, rdb := s.db, s.rdb
	s.mu.RUnlock()

	if db != nil {
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Stop gracefully shuts down the workers and closes the stores.
// A stopped Service cannot be started again.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping lookingforlove service...")

	var err error
	if s.pool != nil {
		err = s.pool.Stop(ctx)
	}
	s.closeStores()

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "lookingforlove service stopped")
	return err
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Matching returns the match core.
func (s *Service) Matching() *matching.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matching
}

// Statistics returns the statistics aggregator.
func (s *Service) Statistics() *stats.Aggregator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aggregator
}

// Users returns the member directory.
func (s *Service) Users() repository.UserDirectory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users
}

// Issuer returns the bearer token issuer.
func (s *Service) Issuer() *identity.Issuer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issuer
}
