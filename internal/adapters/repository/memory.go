package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
	"github.com/okian/lookingforlove/pkg/metrics"
)

const memoryStore = "memory"

// MemoryUsers is an in-memory UserDirectory. Profiles keep insertion order.
type MemoryUsers struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]model.UserProfile
	opts  memoryOptions
}

var _ UserDirectory = (*MemoryUsers)(nil)

// NewMemoryUsers creates an empty directory.
func NewMemoryUsers(opts ...Option) *MemoryUsers {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryUsers{
		byID: make(map[string]model.UserProfile),
		opts: o,
	}
}

// GetUserByID implements UserDirectory.
func (s *MemoryUsers) GetUserByID(_ context.Context, id string) (model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(memoryStore, "get_user", metrics.Since(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return model.UserProfile{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	return cloneProfile(u), nil
}

// ListAllExcept implements UserDirectory.
func (s *MemoryUsers) ListAllExcept(_ context.Context, id string) ([]model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(memoryStore, "list_users", metrics.Since(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserProfile, 0, len(s.order))
	for _, uid := range s.order {
		if uid == id {
			continue
		}
		out = append(out, cloneProfile(s.byID[uid]))
	}
	return out, nil
}

// CountByTier implements UserDirectory.
func (s *MemoryUsers) CountByTier(_ context.Context, tier types.MembershipTier) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.byID {
		if u.MembershipTier == tier {
			n++
		}
	}
	return n, nil
}

// UpsertUser implements UserDirectory.
func (s *MemoryUsers) UpsertUser(_ context.Context, u model.UserProfile) (model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(memoryStore, "upsert_user", metrics.Since(start)) }()

	if u.MembershipTier == "" {
		u.MembershipTier = types.Free
	}
	if !u.MembershipTier.Valid() {
		return model.UserProfile{}, fmt.Errorf("tier %q: %w", u.MembershipTier, ErrInvalidTier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ContactInfo.Email != "" {
		for _, other := range s.byID {
			if other.ID != u.ID && strings.EqualFold(other.ContactInfo.Email, u.ContactInfo.Email) {
				return model.UserProfile{}, fmt.Errorf("email %q: %w", u.ContactInfo.Email, ErrDuplicateEmail)
			}
		}
	}

	now := s.opts.now()
	if u.ID == "" {
		u.ID = s.opts.newID()
	}
	if prev, ok := s.byID[u.ID]; ok {
		u.CreatedAt = prev.CreatedAt
	} else {
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		s.order = append(s.order, u.ID)
	}
	u.UpdatedAt = now
	s.byID[u.ID] = cloneProfile(u)
	return cloneProfile(u), nil
}

// FindByEmail implements UserDirectory.
func (s *MemoryUsers) FindByEmail(_ context.Context, email string) (model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		u := s.byID[id]
		if strings.EqualFold(u.ContactInfo.Email, email) {
			return cloneProfile(u), nil
		}
	}
	return model.UserProfile{}, fmt.Errorf("email %q: %w", email, ErrNotFound)
}

// SetTier implements UserDirectory.
func (s *MemoryUsers) SetTier(_ context.Context, id string, tier types.MembershipTier) (model.UserProfile, error) {
	if !tier.Valid() {
		return model.UserProfile{}, fmt.Errorf("tier %q: %w", tier, ErrInvalidTier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.UserProfile{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	now := s.opts.now()
	if tier != types.Free && u.MembershipTier == types.Free {
		u.SubscriptionDate = &now
	}
	u.MembershipTier = tier
	u.UpdatedAt = now
	s.byID[id] = u
	return cloneProfile(u), nil
}

// SetSkills implements UserDirectory.
func (s *MemoryUsers) SetSkills(_ context.Context, id string, owned, desired []model.Skill) (model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(memoryStore, "set_skills", metrics.Since(start)) }()

	return s.modify(id, func(u *model.UserProfile) {
		u.SkillsOwned = cloneSkills(owned)
		u.SkillsDesired = cloneSkills(desired)
	})
}

// UpdateDetails implements UserDirectory.
func (s *MemoryUsers) UpdateDetails(_ context.Context, id string, d model.ProfileDetails) (model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(memoryStore, "update_details", metrics.Since(start)) }()

	return s.modify(id, d.Apply)
}

// SetPhoto implements UserDirectory.
func (s *MemoryUsers) SetPhoto(_ context.Context, id, photoURL string) (model.UserProfile, error) {
	return s.modify(id, func(u *model.UserProfile) { u.PhotoURL = photoURL })
}

// modify runs a read-modify-write of one profile under the write lock.
func (s *MemoryUsers) modify(id string, fn func(*model.UserProfile)) (model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.UserProfile{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	fn(&u)
	u.UpdatedAt = s.opts.now()
	s.byID[id] = cloneProfile(u)
	return cloneProfile(u), nil
}

// Len returns the number of stored profiles.
func (s *MemoryUsers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// MemoryMatches is an in-memory MatchStore.
type MemoryMatches struct {
	mu    sync.RWMutex
	order []model.MatchKey
	byKey map[model.MatchKey]model.MatchRecord
}

var _ MatchStore = (*MemoryMatches)(nil)

// NewMemoryMatches creates an empty match store.
func NewMemoryMatches() *MemoryMatches {
	return &MemoryMatches{byKey: make(map[model.MatchKey]model.MatchRecord)}
}

// Find implements MatchStore.
func (s *MemoryMatches) Find(_ context.Context, key model.MatchKey) (model.MatchRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(memoryStore, "find_match", metrics.Since(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byKey[key]
	if !ok {
		return model.MatchRecord{}, fmt.Errorf("match %s->%s: %w", key.UserID, key.MatchedUserID, ErrNotFound)
	}
	return cloneRecord(rec), nil
}

// UpsertExposed implements MatchStore.
func (s *MemoryMatches) UpsertExposed(_ context.Context, rec model.MatchRecord) (model.MatchRecord, bool, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(memoryStore, "upsert_exposed", metrics.Since(start)) }()

	key := rec.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byKey[key]; ok {
		existing.IsContactInfoExposed = true
		s.byKey[key] = existing
		return cloneRecord(existing), false, nil
	}
	rec.IsContactInfoExposed = true
	s.byKey[key] = cloneRecord(rec)
	s.order = append(s.order, key)
	return cloneRecord(rec), true, nil
}

// SetRating implements MatchStore.
func (s *MemoryMatches) SetRating(_ context.Context, key model.MatchKey, rating int) (model.MatchRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(memoryStore, "set_rating", metrics.Since(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byKey[key]
	if !ok {
		return model.MatchRecord{}, fmt.Errorf("match %s->%s: %w", key.UserID, key.MatchedUserID, ErrNotFound)
	}
	r := rating
	rec.UserRating = &r
	s.byKey[key] = rec
	return cloneRecord(rec), nil
}

// Count implements MatchStore.
func (s *MemoryMatches) Count(_ context.Context, filter MatchFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.byKey {
		if filter.Matches(rec) {
			n++
		}
	}
	return n, nil
}

// Scan implements MatchStore. Records are visited in creation order on a
// copy taken under the read lock, so fn may call back into the store.
func (s *MemoryMatches) Scan(ctx context.Context, filter MatchFilter, fn func(model.MatchRecord) error) error {
	s.mu.RLock()
	recs := make([]model.MatchRecord, 0, len(s.order))
	for _, key := range s.order {
		if rec := s.byKey[key]; filter.Matches(rec) {
			recs = append(recs, cloneRecord(rec))
		}
	}
	s.mu.RUnlock()

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// MemoryStatistics is an in-memory StatisticsStore.
type MemoryStatistics struct {
	mu   sync.Mutex
	snap *model.StatisticsSnapshot
}

var _ StatisticsStore = (*MemoryStatistics)(nil)

// NewMemoryStatistics creates a store with no snapshot.
func NewMemoryStatistics() *MemoryStatistics {
	return &MemoryStatistics{}
}

// Save implements StatisticsStore.
func (s *MemoryStatistics) Save(_ context.Context, snap model.StatisticsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneSnapshot(snap)
	s.snap = &c
	return nil
}

// Load implements StatisticsStore.
func (s *MemoryStatistics) Load(_ context.Context) (model.StatisticsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return model.StatisticsSnapshot{}, fmt.Errorf("statistics %q: %w", model.StatisticsKey, ErrNotFound)
	}
	return cloneSnapshot(*s.snap), nil
}

// IncrementContactExposed implements StatisticsStore.
func (s *MemoryStatistics) IncrementContactExposed(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return false, nil
	}
	s.snap.TotalContactInfoExposed++
	return true, nil
}

func cloneSkills(in []model.Skill) []model.Skill {
	if in == nil {
		return nil
	}
	out := make([]model.Skill, len(in))
	for i, sk := range in {
		out[i] = sk
		if sk.YearsOfExperience != nil {
			y := *sk.YearsOfExperience
			out[i].YearsOfExperience = &y
		}
	}
	return out
}

func cloneProfile(u model.UserProfile) model.UserProfile {
	u.SkillsOwned = cloneSkills(u.SkillsOwned)
	u.SkillsDesired = cloneSkills(u.SkillsDesired)
	if u.SubscriptionDate != nil {
		d := *u.SubscriptionDate
		u.SubscriptionDate = &d
	}
	return u
}

func cloneRecord(rec model.MatchRecord) model.MatchRecord {
	if rec.UserRating != nil {
		r := *rec.UserRating
		rec.UserRating = &r
	}
	return rec
}

func cloneSnapshot(snap model.StatisticsSnapshot) model.StatisticsSnapshot {
	counts := make(map[int]int, len(snap.Quality.CountsPerStar))
	for k, v := range snap.Quality.CountsPerStar {
		counts[k] = v
	}
	snap.Quality.CountsPerStar = counts
	return snap
}
