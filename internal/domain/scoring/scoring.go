// Package scoring computes skill compatibility between two member profiles.
package scoring

import (
	"strings"
	"time"

	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/pkg/metrics"
)

// Default scoring configuration constants.
const (
	defaultMatchPoints      = 10
	defaultProficiencyBonus = 5
	defaultMaxScore         = 100
)

// Option applies a configuration option to the SkillScorer.
type Option func(*SkillScorer)

// WithMatchPoints sets the points awarded per matching skill name.
func WithMatchPoints(points int) Option {
	return func(s *SkillScorer) {
		if points > 0 {
			s.matchPoints = points
		}
	}
}

// WithProficiencyBonus sets the extra points when the owned level meets the desired level.
func WithProficiencyBonus(points int) Option {
	return func(s *SkillScorer) {
		if points >= 0 {
			s.proficiencyBonus = points
		}
	}
}

// WithMaxScore sets the clamp applied to the total.
func WithMaxScore(maxScore int) Option {
	return func(s *SkillScorer) {
		if maxScore > 0 {
			s.maxScore = maxScore
		}
	}
}

// Scorer computes a compatibility score between an owner and a candidate.
type Scorer interface {
	Score(owner, candidate model.UserProfile) (int, error)
}

// SkillScorer awards points for every skill one side owns that the other desires.
type SkillScorer struct {
	matchPoints      int
	proficiencyBonus int
	maxScore         int
}

// NewSkillScorer creates a scorer with configuration options.
func NewSkillScorer(opts ...Option) *SkillScorer {
	s := &SkillScorer{
		matchPoints:      defaultMatchPoints,
		proficiencyBonus: defaultProficiencyBonus,
		maxScore:         defaultMaxScore,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score returns a value in [0, maxScore].
//
// Both directions (owner offers what candidate wants, candidate offers what
// owner wants) are summed in the same call, so Score(a, b) == Score(b, a).
// Names compare case-insensitively with no fuzzy matching. A level outside the
// known enumeration fails with model.ErrInvalidProficiencyLevel once a name
// match requires comparing it.
func (s *SkillScorer) Score(owner, candidate model.UserProfile) (int, error) {
	const op = "scoring.score"
	start := time.Now()

	offered, err := s.directional(owner.SkillsOwned, candidate.SkillsDesired)
	if err != nil {
		metrics.RecordScoringError()
		return 0, model.WrapKind(op, model.ErrInvalidProficiencyLevel, err)
	}
	wanted, err := s.directional(candidate.SkillsOwned, owner.SkillsDesired)
	if err != nil {
		metrics.RecordScoringError()
		return 0, model.WrapKind(op, model.ErrInvalidProficiencyLevel, err)
	}

	total := min(offered+wanted, s.maxScore)

	metrics.RecordScoringLatency(metrics.Since(start))
	metrics.RecordMatchScore(total)
	return total, nil
}

// directional sums the points for owned skills that appear in desired.
func (s *SkillScorer) directional(owned, desired []model.Skill) (int, error) {
	points := 0
	for _, have := range owned {
		for _, want := range desired {
			if !strings.EqualFold(have.Name, want.Name) {
				continue
			}
			points += s.matchPoints

			meets, err := meetsLevel(have, want)
			if err != nil {
				return 0, err
			}
			if meets {
				points += s.proficiencyBonus
			}
		}
	}
	return points, nil
}

// meetsLevel reports whether have's level is at or above want's level.
func meetsLevel(have, want model.Skill) (bool, error) {
	haveRank, err := have.ProficiencyLevel.Rank()
	if err != nil {
		return false, &LevelError{Skill: have.Name, Level: string(have.ProficiencyLevel)}
	}
	wantRank, err := want.ProficiencyLevel.Rank()
	if err != nil {
		return false, &LevelError{Skill: want.Name, Level: string(want.ProficiencyLevel)}
	}
	return haveRank >= wantRank, nil
}
