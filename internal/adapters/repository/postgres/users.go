package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
	"github.com/okian/lookingforlove/pkg/metrics"
)

// Users is a repository.UserDirectory over the users table.
type Users struct {
	pool *pgxpool.Pool
}

var _ repository.UserDirectory = (*Users)(nil)

const userColumns = `id, salutation, first_name, last_name, nickname, gender, photo_url,
	email, whatsapp_id, member_type, skills_owned, skills_desired,
	subscription_date, created_at, updated_at`

func scanUser(row pgx.Row) (model.UserProfile, error) {
	var (
		u              model.UserProfile
		tier           string
		owned, desired []byte
	)
	err := row.Scan(
		&u.ID, &u.Salutation, &u.FirstName, &u.LastName, &u.Nickname, &u.Gender, &u.PhotoURL,
		&u.ContactInfo.Email, &u.ContactInfo.WhatsAppID, &tier, &owned, &desired,
		&u.SubscriptionDate, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return model.UserProfile{}, err
	}
	u.MembershipTier = types.MembershipTier(tier)
	if err := json.Unmarshal(owned, &u.SkillsOwned); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to decode owned skills of %s: %w", u.ID, err)
	}
	if err := json.Unmarshal(desired, &u.SkillsDesired); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to decode desired skills of %s: %w", u.ID, err)
	}
	return u, nil
}

// GetUserByID implements repository.UserDirectory.
func (s *Users) GetUserByID(ctx context.Context, id string) (model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(storeLabel, "get_user", metrics.Since(start)) }()

	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserProfile{}, fmt.Errorf("user %q: %w", id, repository.ErrNotFound)
		}
		return model.UserProfile{}, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return u, nil
}

// ListAllExcept implements repository.UserDirectory.
func (s *Users) ListAllExcept(ctx context.Context, id string) ([]model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(storeLabel, "list_users", metrics.Since(start)) }()

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []model.UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return out, nil
}

// CountByTier implements repository.UserDirectory.
func (s *Users) CountByTier(ctx context.Context, tier types.MembershipTier) (int, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE member_type = $1`, string(tier)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s members: %w", tier, err)
	}
	return int(n), nil
}

// UpsertUser implements repository.UserDirectory.
func (s *Users) UpsertUser(ctx context.Context, u model.UserProfile) (model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(storeLabel, "upsert_user", metrics.Since(start)) }()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.MembershipTier == "" {
		u.MembershipTier = types.Free
	}
	if !u.MembershipTier.Valid() {
		return model.UserProfile{}, fmt.Errorf("tier %q: %w", u.MembershipTier, repository.ErrInvalidTier)
	}
	owned, err := marshalSkills(u.SkillsOwned)
	if err != nil {
		return model.UserProfile{}, err
	}
	desired, err := marshalSkills(u.SkillsDesired)
	if err != nil {
		return model.UserProfile{}, err
	}

	stored, err := scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO users (id, salutation, first_name, last_name, nickname, gender, photo_url,
			email, whatsapp_id, member_type, skills_owned, skills_desired, subscription_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
			salutation = EXCLUDED.salutation,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			nickname = EXCLUDED.nickname,
			gender = EXCLUDED.gender,
			photo_url = EXCLUDED.photo_url,
			email = EXCLUDED.email,
			whatsapp_id = EXCLUDED.whatsapp_id,
			member_type = EXCLUDED.member_type,
			skills_owned = EXCLUDED.skills_owned,
			skills_desired = EXCLUDED.skills_desired,
			subscription_date = EXCLUDED.subscription_date,
			updated_at = NOW()
		 RETURNING `+userColumns,
		u.ID, u.Salutation, u.FirstName, u.LastName, u.Nickname, u.Gender, u.PhotoURL,
		u.ContactInfo.Email, u.ContactInfo.WhatsAppID, string(u.MembershipTier), owned, desired,
		u.SubscriptionDate,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.UserProfile{}, fmt.Errorf("email %q: %w", u.ContactInfo.Email, repository.ErrDuplicateEmail)
		}
		return model.UserProfile{}, fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
	}
	return stored, nil
}

// FindByEmail implements repository.UserDirectory.
func (s *Users) FindByEmail(ctx context.Context, email string) (model.UserProfile, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email <> '' AND lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserProfile{}, fmt.Errorf("email %q: %w", email, repository.ErrNotFound)
		}
		return model.UserProfile{}, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

// SetTier implements repository.UserDirectory. Leaving the free tier stamps
// the subscription date.
func (s *Users) SetTier(ctx context.Context, id string, tier types.MembershipTier) (model.UserProfile, error) {
	if !tier.Valid() {
		return model.UserProfile{}, fmt.Errorf("tier %q: %w", tier, repository.ErrInvalidTier)
	}

	u, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET
			subscription_date = CASE WHEN member_type = 'free' AND $2 <> 'free' THEN NOW() ELSE subscription_date END,
			member_type = $2,
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, string(tier),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserProfile{}, fmt.Errorf("user %q: %w", id, repository.ErrNotFound)
		}
		return model.UserProfile{}, fmt.Errorf("failed to set tier of %s: %w", id, err)
	}
	return u, nil
}

// SetSkills implements repository.UserDirectory.
func (s *Users) SetSkills(ctx context.Context, id string, owned, desired []model.Skill) (model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(storeLabel, "set_skills", metrics.Since(start)) }()

	ownedJSON, err := marshalSkills(owned)
	if err != nil {
		return model.UserProfile{}, err
	}
	desiredJSON, err := marshalSkills(desired)
	if err != nil {
		return model.UserProfile{}, err
	}
	return s.updateOne(ctx, id, "set skills of",
		`UPDATE users SET skills_owned = $2, skills_desired = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, ownedJSON, desiredJSON,
	)
}

// UpdateDetails implements repository.UserDirectory. Nil fields keep their
// stored value.
func (s *Users) UpdateDetails(ctx context.Context, id string, d model.ProfileDetails) (model.UserProfile, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(storeLabel, "update_details", metrics.Since(start)) }()

	return s.updateOne(ctx, id, "update details of",
		`UPDATE users SET
			salutation = COALESCE($2, salutation),
			first_name = COALESCE($3, first_name),
			last_name = COALESCE($4, last_name),
			nickname = COALESCE($5, nickname),
			gender = COALESCE($6, gender),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, d.Salutation, d.FirstName, d.LastName, d.Nickname, d.Gender,
	)
}

// SetPhoto implements repository.UserDirectory.
func (s *Users) SetPhoto(ctx context.Context, id, photoURL string) (model.UserProfile, error) {
	return s.updateOne(ctx, id, "set photo of",
		`UPDATE users SET photo_url = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, photoURL,
	)
}

func (s *Users) updateOne(ctx context.Context, id, what, query string, args ...any) (model.UserProfile, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserProfile{}, fmt.Errorf("user %q: %w", id, repository.ErrNotFound)
		}
		return model.UserProfile{}, fmt.Errorf("failed to %s %s: %w", what, id, err)
	}
	return u, nil
}

func marshalSkills(skills []model.Skill) ([]byte, error) {
	if skills == nil {
		skills = []model.Skill{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return nil, fmt.Errorf("failed to encode skills: %w", err)
	}
	return b, nil
}
