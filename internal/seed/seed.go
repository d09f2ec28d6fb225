// Package seed generates synthetic member profiles for local runs and tests.
package seed

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
	"github.com/okian/lookingforlove/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidCount is returned when a negative number of profiles is requested.
var ErrInvalidCount = errors.New("seed count must not be negative")

// Skill and tier distribution.
const (
	maxOwnedSkills   = 5
	maxDesiredSkills = 4
	maxYears         = 15
	// Out of 100: the remainder after free and paid is product.
	freeWeight = 70
	paidWeight = 25
	tierScale  = 100
)

const defaultWorkers = 8

var skillCatalog = []string{
	"Go", "Python", "Java", "Rust", "TypeScript", "Kotlin",
	"SQL", "Kubernetes", "Terraform", "React", "C++", "Elixir",
}

var firstNames = []string{
	"Ada", "Grace", "Linus", "Ken", "Barbara", "Dennis",
	"Margaret", "Edsger", "Frances", "Donald", "Radia", "Guido",
}

var lastNames = []string{
	"Lovelace", "Hopper", "Torvalds", "Thompson", "Liskov", "Ritchie",
	"Hamilton", "Dijkstra", "Allen", "Knuth", "Perlman", "Rossum",
}

var levels = []types.Proficiency{types.Beginner, types.Intermediate, types.Advanced, types.Expert}

// Writer stores generated profiles.
type Writer interface {
	UpsertUser(ctx context.Context, u model.UserProfile) (model.UserProfile, error)
}

// Option applies a configuration option to Seed.
type Option func(*options)

type options struct {
	workers int
	log     logger.Logger
}

// WithWorkers bounds the number of concurrent writes.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// randomInt returns a value in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Generate returns n random profiles with unique ids and emails.
func Generate(n int) ([]model.UserProfile, error) {
	if n < 0 {
		return nil, ErrInvalidCount
	}
	out := make([]model.UserProfile, n)
	for i := range out {
		out[i] = generateProfile()
	}
	return out, nil
}

func generateProfile() model.UserProfile {
	id := uuid.NewString()
	first := firstNames[randomInt(len(firstNames))]
	last := lastNames[randomInt(len(lastNames))]
	return model.UserProfile{
		ID:             id,
		FirstName:      first,
		LastName:       last,
		Nickname:       first[:1] + last[:1],
		ContactInfo:    model.ContactInfo{Email: id + "@seed.lookingforlove.dev"},
		MembershipTier: randomTier(),
		SkillsOwned:    randomSkills(1+randomInt(maxOwnedSkills), true),
		SkillsDesired:  randomSkills(1+randomInt(maxDesiredSkills), false),
	}
}

func randomTier() types.MembershipTier {
	switch r := randomInt(tierScale); {
	case r < freeWeight:
		return types.Free
	case r < freeWeight+paidWeight:
		return types.Paid
	default:
		return types.Product
	}
}

// randomSkills picks n distinct skills from the catalog.
func randomSkills(n int, owned bool) []model.Skill {
	if n > len(skillCatalog) {
		n = len(skillCatalog)
	}
	picked := make(map[int]struct{}, n)
	out := make([]model.Skill, 0, n)
	for len(out) < n {
		idx := randomInt(len(skillCatalog))
		if _, dup := picked[idx]; dup {
			continue
		}
		picked[idx] = struct{}{}
		s := model.Skill{Name: skillCatalog[idx], ProficiencyLevel: levels[randomInt(len(levels))]}
		if owned {
			years := randomInt(maxYears + 1)
			s.YearsOfExperience = &years
		}
		out = append(out, s)
	}
	return out
}

// Seed generates n profiles and writes them concurrently. It returns the
// number of profiles written before the first failure.
func Seed(ctx context.Context, w Writer, n int, opts ...Option) (int, error) {
	o := &options{workers: defaultWorkers, log: logger.Get().Named("seed")}
	for _, opt := range opts {
		opt(o)
	}

	profiles, err := Generate(n)
	if err != nil {
		return 0, err
	}
	o.log.Info(ctx, "seeding profiles", logger.Int("count", n), logger.Int("workers", o.workers))

	written := make([]bool, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range profiles {
		g.Go(func() error {
			if _, err := w.UpsertUser(gctx, profiles[i]); err != nil {
				return fmt.Errorf("seed profile %d: %w", i, err)
			}
			written[i] = true
			return nil
		})
	}
	err = g.Wait()

	count := 0
	for _, ok := range written {
		if ok {
			count++
		}
	}
	if err != nil {
		return count, err
	}
	o.log.Info(ctx, "seeded profiles", logger.Int("count", count))
	return count, nil
}
