package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/lookingforlove/internal/adapters/identity"
	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/config"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
)

// useMemoryStores points every command at one set of in-memory stores.
func useMemoryStores() *stores {
	s := &stores{
		users:   repository.NewMemoryUsers(),
		matches: repository.NewMemoryMatches(),
		stats:   repository.NewMemoryStatistics(),
		close:   func() {},
	}
	openStores = func(context.Context, *config.Config) (*stores, error) { return s, nil }
	return s
}

func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestSeedAndRefresh(t *testing.T) {
	convey.Convey("Given empty stores", t, func() {
		s := useMemoryStores()

		convey.Convey("When seeding 12 profiles", func() {
			out, err := execute("seed", "--users", "12", "--workers", "2")

			convey.Convey("Then they should be stored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "seeded 12 profiles")
				convey.So(s.users.(*repository.MemoryUsers).Len(), convey.ShouldEqual, 12)
			})

			convey.Convey("And refresh-stats should count them", func() {
				out, err := execute("refresh-stats")
				convey.So(err, convey.ShouldBeNil)

				var snap model.StatisticsSnapshot
				convey.So(json.Unmarshal([]byte(out), &snap), convey.ShouldBeNil)
				convey.So(snap.TotalFreeMembers+snap.TotalPaidMembers+snap.TotalProductMembers, convey.ShouldEqual, 12)
			})
		})
	})
}

func TestPromote(t *testing.T) {
	convey.Convey("Given a free member", t, func() {
		s := useMemoryStores()
		_, err := s.users.UpsertUser(context.Background(), model.UserProfile{
			ID:          "m1",
			ContactInfo: model.ContactInfo{Email: "ops@example.com"},
		})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When promoting by email", func() {
			out, err := execute("promote", "OPS@example.com", "--tier", "product")

			convey.Convey("Then the member should become a product operator", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "is now product")
				u, err := s.users.GetUserByID(context.Background(), "m1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(u.MembershipTier, convey.ShouldEqual, types.Product)
			})
		})

		convey.Convey("When the tier is unknown", func() {
			_, err := execute("promote", "ops@example.com", "--tier", "gold")

			convey.Convey("Then the command should fail", func() {
				convey.So(errors.Is(err, types.ErrUnknownTier), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the email is unknown", func() {
			_, err := execute("promote", "nobody@example.com", "--tier", "paid")

			convey.Convey("Then the command should fail", func() {
				convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
			})
		})
	})
}

func TestToken(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		useMemoryStores()

		convey.Convey("When issuing a token", func() {
			out, err := execute("token", "member-7")

			convey.Convey("Then it should verify with the configured secret", func() {
				convey.So(err, convey.ShouldBeNil)
				issuer, err := identity.NewIssuer(config.New().JWTSecret)
				convey.So(err, convey.ShouldBeNil)
				claims, err := issuer.Verify(strings.TrimSpace(out))
				convey.So(err, convey.ShouldBeNil)
				convey.So(claims.UserID(), convey.ShouldEqual, "member-7")
			})
		})

		convey.Convey("When the user id is missing", func() {
			_, err := execute("token")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMigrate(t *testing.T) {
	convey.Convey("Given the memory store", t, func() {
		convey.Convey("Then migrate should refuse to run", func() {
			_, err := execute("migrate")
			convey.So(errors.Is(err, ErrPostgresRequired), convey.ShouldBeTrue)
		})
	})
}
