// Package repository defines the persistence contracts of the match core and
// their in-memory implementations.
package repository

import (
	"context"

	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
)

// UserDirectory provides access to member profiles.
type UserDirectory interface {
	// GetUserByID returns ErrNotFound when the id is unknown.
	GetUserByID(ctx context.Context, id string) (model.UserProfile, error)
	// ListAllExcept returns every profile except id, in insertion order.
	ListAllExcept(ctx context.Context, id string) ([]model.UserProfile, error)
	// CountByTier returns the number of members in tier.
	CountByTier(ctx context.Context, tier types.MembershipTier) (int, error)

	// UpsertUser inserts or replaces a profile. An empty ID is assigned on insert.
	UpsertUser(ctx context.Context, u model.UserProfile) (model.UserProfile, error)
	// FindByEmail looks a profile up by contact email, case-insensitively.
	FindByEmail(ctx context.Context, email string) (model.UserProfile, error)
	// SetTier changes the membership tier of a profile.
	SetTier(ctx context.Context, id string, tier types.MembershipTier) (model.UserProfile, error)

	// The field-scoped updates below touch only the named columns, so they
	// never overwrite a concurrent tier change. Unknown ids give ErrNotFound.

	// SetSkills replaces both skill lists.
	SetSkills(ctx context.Context, id string, owned, desired []model.Skill) (model.UserProfile, error)
	// UpdateDetails applies the set display fields of d.
	UpdateDetails(ctx context.Context, id string, d model.ProfileDetails) (model.UserProfile, error)
	// SetPhoto replaces the photo URL.
	SetPhoto(ctx context.Context, id, photoURL string) (model.UserProfile, error)
}

// MatchFilter narrows Count and Scan. The zero value selects every record.
type MatchFilter struct {
	ExposedOnly bool
	RatedOnly   bool
}

// Matches reports whether rec passes the filter.
func (f MatchFilter) Matches(rec model.MatchRecord) bool {
	if f.ExposedOnly && !rec.IsContactInfoExposed {
		return false
	}
	if f.RatedOnly && !rec.Rated() {
		return false
	}
	return true
}

// MatchStore persists directed match records.
type MatchStore interface {
	// Find returns ErrNotFound when no record exists for key.
	Find(ctx context.Context, key model.MatchKey) (model.MatchRecord, error)
	// UpsertExposed atomically inserts rec with the exposed flag set, or sets the
	// flag on the existing record keeping its score and date. created reports
	// whether the record was inserted.
	UpsertExposed(ctx context.Context, rec model.MatchRecord) (stored model.MatchRecord, created bool, err error)
	// SetRating overwrites the rating. Returns ErrNotFound when no record exists.
	SetRating(ctx context.Context, key model.MatchKey, rating int) (model.MatchRecord, error)
	// Count returns the number of records passing filter.
	Count(ctx context.Context, filter MatchFilter) (int, error)
	// Scan calls fn for each record passing filter until fn returns an error.
	Scan(ctx context.Context, filter MatchFilter, fn func(model.MatchRecord) error) error
}

// StatisticsStore holds the singleton statistics snapshot.
type StatisticsStore interface {
	// Save replaces the snapshot.
	Save(ctx context.Context, snap model.StatisticsSnapshot) error
	// Load returns ErrNotFound when no snapshot has been saved.
	Load(ctx context.Context) (model.StatisticsSnapshot, error)
	// IncrementContactExposed bumps TotalContactInfoExposed in place. It is a
	// no-op returning false when no snapshot exists.
	IncrementContactExposed(ctx context.Context) (bool, error)
}
