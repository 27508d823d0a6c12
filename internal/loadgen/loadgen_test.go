package loadgen

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/scores/internal/adapters/http/api"
	app "github.com/okian/scores/internal/app"
	"github.com/okian/scores/internal/domain/csvparse"
	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/internal/domain/types"
	"github.com/okian/scores/pkg/logger"
)

func TestGenerateSheets(t *testing.T) {
	Convey("Given a generator config", t, func() {
		cfg := Config{Sheets: 3, RowsPerSheet: 120, Seed: 7}
		cfg.Defaults()
		sheets := generateSheets(&cfg)

		Convey("Then every sheet parses back to the scores it encodes", func() {
			So(len(sheets), ShouldEqual, 3)
			for _, s := range sheets {
				records, err := csvparse.Parse(s.Content)
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, len(s.Scores))
				for i, r := range records {
					So(r.FirstName, ShouldEqual, s.Scores[i].FirstName)
					So(r.SecondName, ShouldEqual, s.Scores[i].SecondName)
					So(r.Score, ShouldEqual, s.Scores[i].Value)
					So(r.Score, ShouldBeBetweenOrEqual, csvparse.MinScore, csvparse.MaxScore)
				}
			}
		})

		Convey("Then sheet names are distinct", func() {
			So(sheets[0].Name, ShouldNotEqual, sheets[1].Name)
		})
	})
}

func TestVerifyTop(t *testing.T) {
	sent := []model.Score{
		{FirstName: "Zed", SecondName: "A", Value: 90},
		{FirstName: "Amy", SecondName: "B", Value: 90},
		{FirstName: "Cal", SecondName: "C", Value: 10},
	}

	Convey("Given the submitted rows", t, func() {
		Convey("When the server lists exactly the tied scorers in name order", func() {
			got := []types.Score{
				{FirstName: "Amy", SecondName: "B", ScoreValue: 90},
				{FirstName: "Zed", SecondName: "A", ScoreValue: 90},
			}
			So(verifyTop(sent, got), ShouldBeNil)
		})

		Convey("When the server holds a higher score from earlier data", func() {
			got := []types.Score{{FirstName: "Old", SecondName: "Timer", ScoreValue: 99}}
			So(verifyTop(sent, got), ShouldBeNil)
		})

		Convey("When a tied scorer is missing", func() {
			got := []types.Score{{FirstName: "Amy", SecondName: "B", ScoreValue: 90}}
			So(errors.Is(verifyTop(sent, got), ErrMismatch), ShouldBeTrue)
		})

		Convey("When the order is wrong", func() {
			got := []types.Score{
				{FirstName: "Zed", SecondName: "A", ScoreValue: 90},
				{FirstName: "Amy", SecondName: "B", ScoreValue: 90},
			}
			So(errors.Is(verifyTop(sent, got), ErrMismatch), ShouldBeTrue)
		})

		Convey("When the server top is lower than what was sent", func() {
			got := []types.Score{{FirstName: "Cal", SecondName: "C", ScoreValue: 10}}
			So(errors.Is(verifyTop(sent, got), ErrMismatch), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running scores server", t, func() {
		ctx := context.Background()
		svc := app.New(app.WithLogger(logger.Nop()), app.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := httptest.NewServer(api.NewServer(svc, svc, api.WithLogger(logger.Nop())).Handler())
		defer srv.Close()

		Convey("When a load run submits sheets", func() {
			cfg := Config{
				BaseURL:      srv.URL,
				Sheets:       6,
				RowsPerSheet: 40,
				Workers:      3,
				PollInterval: 10 * time.Millisecond,
				WaitTimeout:  10 * time.Second,
				Seed:         42,
			}
			stats, err := Run(ctx, cfg, logger.Nop())

			Convey("Then every row is imported and the top list verifies", func() {
				So(err, ShouldBeNil)
				So(stats.Accepted, ShouldEqual, 6)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Imported, ShouldEqual, 240)
				So(stats.TopScorers, ShouldBeGreaterThan, 0)

				n, err := svc.All(ctx)
				So(err, ShouldBeNil)
				So(len(n), ShouldEqual, 240)
			})
		})
	})

	Convey("Given no server", t, func() {
		_, err := Run(context.Background(), Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, logger.Nop())

		Convey("Then the health check fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
