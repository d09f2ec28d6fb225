// Package matching implements match discovery, contact exposure and rating.
package matching

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/scoring"
	"github.com/okian/lookingforlove/pkg/logger"
	"github.com/okian/lookingforlove/pkg/metrics"
)

// Service coordinates the directory, the match store and the scorer.
type Service struct {
	users   repository.UserDirectory
	matches repository.MatchStore
	stats   repository.StatisticsStore
	scorer  scoring.Scorer
	now     func() time.Time
	log     logger.Logger
}

// NewService creates a match service.
func NewService(
	users repository.UserDirectory,
	matches repository.MatchStore,
	stats repository.StatisticsStore,
	scorer scoring.Scorer,
	opts ...Option,
) *Service {
	s := &Service{
		users:   users,
		matches: matches,
		stats:   stats,
		scorer:  scorer,
		now:     time.Now,
		log:     logger.Get().Named("matching"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindMatches scores every other member against the requester and returns
// them by descending score. Ties keep directory order. No match records are
// created or modified.
func (s *Service) FindMatches(ctx context.Context, requesterID string) ([]model.MatchResult, error) {
	const op = "matching.find_matches"

	requester, err := s.profile(ctx, op, requesterID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.users.ListAllExcept(ctx, requesterID)
	if err != nil {
		return nil, model.Wrap(op, err)
	}

	results := make([]model.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		score, err := s.scorer.Score(requester, c)
		if err != nil {
			return nil, model.Wrap(op, err)
		}
		results = append(results, model.MatchResult{Candidate: c.Public(), MatchScore: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	metrics.RecordMatchSearch()
	s.log.Debug(ctx, "matches computed",
		logger.String("requester", requesterID),
		logger.Int("candidates", len(results)))
	return results, nil
}

// ExposeContactInfo marks the (requester, candidate) record as exposed,
// creating and scoring it on first use.
//
// Every call increments the stored TotalContactInfoExposed counter, repeats
// included, so that counter can run ahead of the recount done by a refresh.
func (s *Service) ExposeContactInfo(ctx context.Context, requesterID, candidateID string) (model.MatchRecord, error) {
	const op = "matching.expose_contact_info"
	key := model.MatchKey{UserID: requesterID, MatchedUserID: candidateID}

	rec, err := s.matches.Find(ctx, key)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		rec, err = s.newRecord(ctx, op, key)
		if err != nil {
			return model.MatchRecord{}, err
		}
	case err != nil:
		return model.MatchRecord{}, model.Wrap(op, err)
	}

	stored, created, err := s.matches.UpsertExposed(ctx, rec)
	if err != nil {
		return model.MatchRecord{}, model.Wrap(op, err)
	}
	if created {
		metrics.RecordMatchCreated()
	}

	applied, err := s.stats.IncrementContactExposed(ctx)
	if err != nil {
		return model.MatchRecord{}, model.Wrap(op, err)
	}
	metrics.RecordContactExposure()

	s.log.Info(ctx, "contact info exposed",
		logger.String("requester", requesterID),
		logger.String("candidate", candidateID),
		logger.Bool("created", created),
		logger.Bool("counted", applied))
	return stored, nil
}

// newRecord loads both profiles and scores a record that does not exist yet.
func (s *Service) newRecord(ctx context.Context, op string, key model.MatchKey) (model.MatchRecord, error) {
	requester, err := s.profile(ctx, op, key.UserID)
	if err != nil {
		return model.MatchRecord{}, err
	}
	candidate, err := s.profile(ctx, op, key.MatchedUserID)
	if err != nil {
		return model.MatchRecord{}, err
	}
	score, err := s.scorer.Score(requester, candidate)
	if err != nil {
		return model.MatchRecord{}, model.Wrap(op, err)
	}
	return model.MatchRecord{
		UserID:        key.UserID,
		MatchedUserID: key.MatchedUserID,
		MatchScore:    score,
		MatchDate:     s.now(),
	}, nil
}

// RateMatch stores rating on an existing record. The last rating wins.
func (s *Service) RateMatch(ctx context.Context, requesterID, candidateID string, rating int) (model.MatchRecord, error) {
	const op = "matching.rate_match"

	if !model.ValidRating(rating) {
		return model.MatchRecord{}, model.NewKind(op, model.ErrInvalidRating)
	}
	rec, err := s.matches.SetRating(ctx, model.MatchKey{UserID: requesterID, MatchedUserID: candidateID}, rating)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.MatchRecord{}, model.WrapKind(op, model.ErrMatchNotFound, err)
		}
		return model.MatchRecord{}, model.Wrap(op, err)
	}

	metrics.RecordRating(strconv.Itoa(rating))
	s.log.Info(ctx, "match rated",
		logger.String("requester", requesterID),
		logger.String("candidate", candidateID),
		logger.Int("rating", rating))
	return rec, nil
}

// ContactInfo returns the candidate's contact details once the requester has
// exposed them.
func (s *Service) ContactInfo(ctx context.Context, requesterID, candidateID string) (model.ContactInfo, error) {
	const op = "matching.contact_info"

	rec, err := s.matches.Find(ctx, model.MatchKey{UserID: requesterID, MatchedUserID: candidateID})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ContactInfo{}, model.WrapKind(op, model.ErrMatchNotFound, err)
		}
		return model.ContactInfo{}, model.Wrap(op, err)
	}
	if !rec.IsContactInfoExposed {
		return model.ContactInfo{}, model.NewKind(op, model.ErrContactNotExposed)
	}
	candidate, err := s.profile(ctx, op, candidateID)
	if err != nil {
		return model.ContactInfo{}, err
	}
	return candidate.ContactInfo, nil
}

func (s *Service) profile(ctx context.Context, op, id string) (model.UserProfile, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserProfile{}, model.WrapKind(op, model.ErrProfileNotFound, err)
		}
		return model.UserProfile{}, model.Wrap(op, err)
	}
	return u, nil
}
