package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestMemoryUsers_BasicOperations(t *testing.T) {
	ctx := context.Background()
	seq := 0
	store := NewMemoryUsers(WithClock(fixedClock()), WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("u%d", seq)
	}))

	if _, err := store.GetUserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	a, err := store.UpsertUser(ctx, model.UserProfile{FirstName: "Ada", ContactInfo: model.ContactInfo{Email: "ada@example.com"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != "u1" {
		t.Errorf("expected generated id u1, got %s", a.ID)
	}
	if a.MembershipTier != types.Free {
		t.Errorf("expected default tier free, got %s", a.MembershipTier)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be stamped")
	}

	if _, err := store.UpsertUser(ctx, model.UserProfile{FirstName: "Bob", MembershipTier: types.Paid}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.UpsertUser(ctx, model.UserProfile{FirstName: "Cy", MembershipTier: types.Product}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetUserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FirstName != "Ada" {
		t.Errorf("expected Ada, got %s", got.FirstName)
	}

	for tier, want := range map[types.MembershipTier]int{types.Free: 1, types.Paid: 1, types.Product: 1} {
		n, err := store.CountByTier(ctx, tier)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != want {
			t.Errorf("tier %s: expected %d, got %d", tier, want, n)
		}
	}

	if byEmail, err := store.FindByEmail(ctx, "ADA@example.com"); err != nil || byEmail.ID != "u1" {
		t.Errorf("expected case-insensitive email lookup to find u1, got %v %v", byEmail.ID, err)
	}
}

func TestMemoryUsers_ListAllExceptKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUsers()
	for _, id := range []string{"c", "a", "d", "b"} {
		if _, err := store.UpsertUser(ctx, model.UserProfile{ID: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Replacing an existing profile must not move it.
	if _, err := store.UpsertUser(ctx, model.UserProfile{ID: "c", FirstName: "updated"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := store.ListAllExcept(ctx, "d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"c", "a", "b"}
	if len(list) != len(want) {
		t.Fatalf("expected %d profiles, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
	if list[0].FirstName != "updated" {
		t.Errorf("expected replaced profile, got %q", list[0].FirstName)
	}
}

func TestMemoryUsers_DuplicateEmailAndTier(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUsers()

	if _, err := store.UpsertUser(ctx, model.UserProfile{ID: "a", ContactInfo: model.ContactInfo{Email: "x@example.com"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := store.UpsertUser(ctx, model.UserProfile{ID: "b", ContactInfo: model.ContactInfo{Email: "X@example.com"}})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
	if _, err := store.UpsertUser(ctx, model.UserProfile{ID: "c", MembershipTier: "gold"}); !errors.Is(err, ErrInvalidTier) {
		t.Errorf("expected ErrInvalidTier, got %v", err)
	}

	u, err := store.SetTier(ctx, "a", types.Paid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.MembershipTier != types.Paid || u.SubscriptionDate == nil {
		t.Errorf("expected paid tier with subscription date, got %s %v", u.MembershipTier, u.SubscriptionDate)
	}
	if _, err := store.SetTier(ctx, "missing", types.Paid); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUsers_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUsers()
	in := model.UserProfile{ID: "a", SkillsOwned: []model.Skill{{Name: "Go", ProficiencyLevel: types.Expert}}}
	if _, err := store.UpsertUser(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in.SkillsOwned[0].Name = "mutated"

	got, _ := store.GetUserByID(ctx, "a")
	got.SkillsOwned[0].Name = "mutated again"

	again, _ := store.GetUserByID(ctx, "a")
	if again.SkillsOwned[0].Name != "Go" {
		t.Errorf("expected stored skill to be isolated, got %s", again.SkillsOwned[0].Name)
	}
}

func TestMemoryUsers_FieldScopedUpdatesKeepTier(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUsers(WithClock(fixedClock()))
	u, err := store.UpsertUser(ctx, model.UserProfile{ID: "ada", FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A tier change lands between the caller's read and its skills write.
	if _, err := store.SetTier(ctx, u.ID, types.Paid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.SetSkills(ctx, u.ID,
		[]model.Skill{{Name: "Go", ProficiencyLevel: types.Expert}},
		[]model.Skill{{Name: "Rust", ProficiencyLevel: types.Beginner}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MembershipTier != types.Paid || got.SubscriptionDate == nil {
		t.Fatalf("expected paid tier with subscription date to survive, got %s %v", got.MembershipTier, got.SubscriptionDate)
	}
	if len(got.SkillsOwned) != 1 || got.SkillsDesired[0].Name != "Rust" {
		t.Errorf("unexpected skills %+v %+v", got.SkillsOwned, got.SkillsDesired)
	}

	nick := "countess"
	got, err = store.UpdateDetails(ctx, u.ID, model.ProfileDetails{Nickname: &nick})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Nickname != "countess" || got.FirstName != "Ada" || len(got.SkillsOwned) != 1 {
		t.Errorf("details update touched other fields: %+v", got)
	}

	got, err = store.SetPhoto(ctx, u.ID, "https://img.example.com/ada.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PhotoURL != "https://img.example.com/ada.png" || got.MembershipTier != types.Paid {
		t.Errorf("unexpected profile after photo update: %+v", got)
	}

	for name, op := range map[string]func() error{
		"skills":  func() error { _, err := store.SetSkills(ctx, "ghost", nil, nil); return err },
		"details": func() error { _, err := store.UpdateDetails(ctx, "ghost", model.ProfileDetails{}); return err },
		"photo":   func() error { _, err := store.SetPhoto(ctx, "ghost", ""); return err },
	} {
		if err := op(); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestMemoryUsers_ConcurrentSkillsAndTier(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUsers()
	if _, err := store.UpsertUser(ctx, model.UserProfile{ID: "ada"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.SetSkills(ctx, "ada", []model.Skill{{Name: "Go", ProficiencyLevel: types.Expert}}, nil)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.SetTier(ctx, "ada", types.Paid)
		}()
	}
	wg.Wait()

	got, err := store.GetUserByID(ctx, "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MembershipTier != types.Paid {
		t.Errorf("expected tier paid after concurrent updates, got %s", got.MembershipTier)
	}
}

func TestMemoryMatches_UpsertExposed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMatches()
	key := model.MatchKey{UserID: "a", MatchedUserID: "b"}
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := store.Find(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec, created, err := store.UpsertExposed(ctx, model.MatchRecord{UserID: "a", MatchedUserID: "b", MatchScore: 30, MatchDate: date})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || !rec.IsContactInfoExposed || rec.MatchScore != 30 {
		t.Errorf("unexpected first upsert result: %+v created=%v", rec, created)
	}

	rec, created, err = store.UpsertExposed(ctx, model.MatchRecord{UserID: "a", MatchedUserID: "b", MatchScore: 99, MatchDate: date.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected second upsert to update in place")
	}
	if rec.MatchScore != 30 || !rec.MatchDate.Equal(date) {
		t.Errorf("expected score and date to be kept, got %d %v", rec.MatchScore, rec.MatchDate)
	}

	// Directed keys: the reverse pair is a separate record.
	if _, err := store.Find(ctx, model.MatchKey{UserID: "b", MatchedUserID: "a"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected reverse pair to be absent, got %v", err)
	}
}

func TestMemoryMatches_ConcurrentUpsertCreatesOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMatches()
	var created atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c, err := store.UpsertExposed(ctx, model.MatchRecord{UserID: "a", MatchedUserID: "b"})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if c {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("expected exactly one creation, got %d", created.Load())
	}
	if n, _ := store.Count(ctx, MatchFilter{}); n != 1 {
		t.Errorf("expected one record, got %d", n)
	}
}

func TestMemoryMatches_RatingCountAndScan(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMatches()
	ab := model.MatchKey{UserID: "a", MatchedUserID: "b"}

	if _, err := store.SetRating(ctx, ab, 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for _, to := range []string{"b", "c", "d"} {
		if _, _, err := store.UpsertExposed(ctx, model.MatchRecord{UserID: "a", MatchedUserID: to}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := store.SetRating(ctx, ab, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := store.SetRating(ctx, ab, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.UserRating == nil || *rec.UserRating != 5 {
		t.Errorf("expected last rating to win, got %v", rec.UserRating)
	}

	if n, _ := store.Count(ctx, MatchFilter{ExposedOnly: true}); n != 3 {
		t.Errorf("expected 3 exposed, got %d", n)
	}
	if n, _ := store.Count(ctx, MatchFilter{RatedOnly: true}); n != 1 {
		t.Errorf("expected 1 rated, got %d", n)
	}

	var seen []string
	err = store.Scan(ctx, MatchFilter{}, func(r model.MatchRecord) error {
		seen = append(seen, r.MatchedUserID)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(seen) != "[b c d]" {
		t.Errorf("expected creation order, got %v", seen)
	}

	stop := errors.New("stop")
	visits := 0
	err = store.Scan(ctx, MatchFilter{}, func(model.MatchRecord) error {
		visits++
		return stop
	})
	if !errors.Is(err, stop) || visits != 1 {
		t.Errorf("expected scan to stop on first error, got %v after %d visits", err, visits)
	}
}

func TestMemoryStatistics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStatistics()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	applied, err := store.IncrementContactExposed(ctx)
	if err != nil || applied {
		t.Fatalf("expected no-op increment without snapshot, got %v %v", applied, err)
	}

	snap := model.StatisticsSnapshot{TotalMatches: 3, TotalContactInfoExposed: 2, Quality: model.NewMatchQuality()}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap.Quality.CountsPerStar[5] = 42

	applied, err = store.IncrementContactExposed(ctx)
	if err != nil || !applied {
		t.Fatalf("expected increment to apply, got %v %v", applied, err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalContactInfoExposed != 3 {
		t.Errorf("expected 3 exposed, got %d", got.TotalContactInfoExposed)
	}
	if got.Quality.CountsPerStar[5] != 0 {
		t.Errorf("expected saved snapshot to be isolated from caller, got %d", got.Quality.CountsPerStar[5])
	}
}
