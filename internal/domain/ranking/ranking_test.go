package ranking_test

import (
	"testing"

	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTop(t *testing.T) {
	Convey("Given a set of scores with a shared maximum", t, func() {
		scores := []model.Score{
			{FirstName: "Sipho", SecondName: "Lolo", Value: 85},
			{FirstName: "Dee", SecondName: "Moore", Value: 56},
			{FirstName: "George", SecondName: "Of The Jungle", Value: 78},
			{FirstName: "Ann", SecondName: "Zed", Value: 85},
			{FirstName: "Ann", SecondName: "Bee", Value: 85},
		}

		Convey("When the top scorers are selected", func() {
			best, top := ranking.Top(scores)

			Convey("Then the maximum and its holders are returned sorted by name", func() {
				So(best, ShouldEqual, 85)
				So(len(top), ShouldEqual, 3)
				So(top[0].SecondName, ShouldEqual, "Bee")
				So(top[1].SecondName, ShouldEqual, "Zed")
				So(top[2].FirstName, ShouldEqual, "Sipho")
			})

			Convey("And the input is not reordered", func() {
				So(scores[0].FirstName, ShouldEqual, "Sipho")
			})
		})
	})

	Convey("Given no scores", t, func() {
		best, top := ranking.Top(nil)

		Convey("Then zero and nil are returned", func() {
			So(best, ShouldEqual, 0)
			So(top, ShouldBeNil)
		})
	})
}

func TestSortByScoreDesc(t *testing.T) {
	Convey("Given scores with ties", t, func() {
		scores := []model.Score{
			{ID: "1", Value: 10},
			{ID: "2", Value: 90},
			{ID: "3", Value: 10},
			{ID: "4", Value: 50},
		}

		ranking.SortByScoreDesc(scores)

		Convey("Then they are descending and stable", func() {
			ids := []string{scores[0].ID, scores[1].ID, scores[2].ID, scores[3].ID}
			So(ids, ShouldResemble, []string{"2", "4", "1", "3"})
		})
	})
}
