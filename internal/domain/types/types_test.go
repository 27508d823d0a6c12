package types_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/okian/scores/internal/domain/csvparse"
	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

func TestScoreConversion(t *testing.T) {
	convey.Convey("Given a stored score", t, func() {
		s := model.Score{ID: "abc", FirstName: "Dee", SecondName: "Moore", Value: 56}

		convey.Convey("When converted to the wire form", func() {
			w := types.FromModel(s)
			body, err := json.Marshal(w)

			convey.Convey("Then it uses the camelCase field names", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(body), convey.ShouldEqual, `{"id":"abc","firstName":"Dee","secondName":"Moore","scoreValue":56}`)
			})

			convey.Convey("And it converts back without the id", func() {
				back := w.ToModel()
				convey.So(back.ID, convey.ShouldEqual, "")
				convey.So(back.Value, convey.ShouldEqual, 56)
			})
		})

		convey.Convey("When a nil slice is converted", func() {
			out := types.FromModels(nil)

			convey.Convey("Then an empty, non-nil slice is returned", func() {
				convey.So(out, convey.ShouldNotBeNil)
				convey.So(len(out), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestFromReport(t *testing.T) {
	convey.Convey("Given a validation report with a failure and a warning", t, func() {
		rep := csvparse.New().Validate("First Name,Second Name,Score\nA,B,1\n\nC,D,x")
		p := types.FromReport(rep)

		convey.Convey("Then the wire form carries every part", func() {
			convey.So(p.Valid, convey.ShouldBeFalse)
			convey.So(len(p.Records), convey.ShouldEqual, 1)
			convey.So(p.Warnings[0].Line, convey.ShouldEqual, 3)
			convey.So(p.Errors[0].Kind, convey.ShouldEqual, "row")
			convey.So(p.Errors[0].Line, convey.ShouldEqual, 4)
			convey.So(p.Errors[0].Raw, convey.ShouldEqual, "C,D,x")
		})
	})
}
