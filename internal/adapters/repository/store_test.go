package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/scores/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sc(first, second string, value int) model.Score {
	return model.Score{FirstName: first, SecondName: second, Value: value}
}

func names(scores []model.Score) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.FirstName + " " + s.SecondName
	}
	return out
}

// storeContract checks the behavior every Store implementation shares.
// newStore must return an empty store.
func storeContract(t *testing.T, newStore func() Store) {
	t.Helper()
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := newStore()
		Reset(func() { _ = s.Close() })

		Convey("Then All and Top are empty, not nil", func() {
			all, err := s.All(ctx)
			So(err, ShouldBeNil)
			So(all, ShouldNotBeNil)
			So(all, ShouldBeEmpty)

			top, err := s.Top(ctx)
			So(err, ShouldBeNil)
			So(top, ShouldNotBeNil)
			So(top, ShouldBeEmpty)

			n, err := s.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})

		Convey("Then Find reports not found", func() {
			_, err := s.Find(ctx, "Dee", "Moore")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When scores are added", func() {
			added, err := s.Add(ctx, []model.Score{
				sc("Dee", "Moore", 56),
				sc("Sipho", "Lolo", 85),
				sc("Noosrat", "Hoosain", 85),
				sc("George", "Of The Jungle", 78),
				sc("Dee", "Moore", 90),
			})
			So(err, ShouldBeNil)

			Convey("Then each gets a distinct ID in input order", func() {
				So(len(added), ShouldEqual, 5)
				seen := map[string]bool{}
				for _, a := range added {
					So(a.ID, ShouldNotBeEmpty)
					So(seen[a.ID], ShouldBeFalse)
					seen[a.ID] = true
				}
				So(added[1].FirstName, ShouldEqual, "Sipho")
			})

			Convey("Then All is ordered by value desc with ties in insertion order", func() {
				all, err := s.All(ctx)
				So(err, ShouldBeNil)
				So(names(all), ShouldResemble, []string{
					"Dee Moore", "Sipho Lolo", "Noosrat Hoosain", "George Of The Jungle", "Dee Moore",
				})
				So(all[0].Value, ShouldEqual, 90)
			})

			Convey("Then Top holds only the maximum", func() {
				top, err := s.Top(ctx)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 1)
				So(top[0].Value, ShouldEqual, 90)
			})

			Convey("Then Find returns the first inserted match", func() {
				got, err := s.Find(ctx, "Dee", "Moore")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, added[0].ID)
				So(got.Value, ShouldEqual, 56)
			})

			Convey("Then Find is case-sensitive", func() {
				_, err := s.Find(ctx, "dee", "moore")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})

			Convey("Then Count matches", func() {
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 5)
			})
		})

		Convey("When the maximum is shared", func() {
			_, err := s.Add(ctx, []model.Score{
				sc("Zed", "Alpha", 70),
				sc("Ann", "Zulu", 70),
				sc("Ann", "Beta", 70),
				sc("Bob", "Low", 10),
			})
			So(err, ShouldBeNil)

			Convey("Then Top is sorted by first then second name", func() {
				top, err := s.Top(ctx)
				So(err, ShouldBeNil)
				So(names(top), ShouldResemble, []string{"Ann Beta", "Ann Zulu", "Zed Alpha"})
			})
		})

		Convey("When several batches are added", func() {
			_, err := s.Add(ctx, []model.Score{sc("A", "A", 1)})
			So(err, ShouldBeNil)
			_, err = s.Add(ctx, []model.Score{sc("B", "B", 1), sc("C", "C", 2)})
			So(err, ShouldBeNil)

			Convey("Then insertion order spans batches", func() {
				all, err := s.All(ctx)
				So(err, ShouldBeNil)
				So(names(all), ShouldResemble, []string{"C C", "A A", "B B"})
			})
		})
	})
}

func TestTreapStore_Contract(t *testing.T) {
	storeContract(t, func() Store { return NewTreapStore() })
}
