package types_test

import (
	"testing"

	types "github.com/okian/lookingforlove/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProficiency(t *testing.T) {
	Convey("Given the proficiency levels", t, func() {
		Convey("When ranking each known level", func() {
			levels := []types.Proficiency{types.Beginner, types.Intermediate, types.Advanced, types.Expert}

			Convey("Then ranks should be strictly increasing", func() {
				prev := -1
				for _, l := range levels {
					r, err := l.Rank()
					So(err, ShouldBeNil)
					So(r, ShouldBeGreaterThan, prev)
					prev = r
				}
			})
		})

		Convey("When ranking an unknown level", func() {
			_, err := types.Proficiency("guru").Rank()

			Convey("Then it should fail", func() {
				So(err, ShouldEqual, types.ErrUnknownProficiency)
			})
		})

		Convey("When parsing mixed case input", func() {
			p, err := types.ParseProficiency("  Advanced ")

			Convey("Then it should normalize", func() {
				So(err, ShouldBeNil)
				So(p, ShouldEqual, types.Advanced)
			})
		})

		Convey("When parsing garbage", func() {
			_, err := types.ParseProficiency("pro")

			Convey("Then it should fail", func() {
				So(err, ShouldEqual, types.ErrUnknownProficiency)
			})
		})
	})
}

func TestMembershipTier(t *testing.T) {
	Convey("Given membership tiers", t, func() {
		Convey("Then every listed tier should be valid", func() {
			for _, tier := range types.Tiers() {
				So(tier.Valid(), ShouldBeTrue)
			}
		})

		Convey("When parsing an upper-case tier", func() {
			tier, err := types.ParseTier("PAID")

			Convey("Then it should resolve", func() {
				So(err, ShouldBeNil)
				So(tier, ShouldEqual, types.Paid)
			})
		})

		Convey("When parsing an unknown tier", func() {
			_, err := types.ParseTier("gold")

			Convey("Then it should fail", func() {
				So(err, ShouldEqual, types.ErrUnknownTier)
			})
		})
	})
}
