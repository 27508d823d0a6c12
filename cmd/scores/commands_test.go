package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/scores/internal/adapters/http/api"
	app "github.com/okian/scores/internal/app"
	"github.com/okian/scores/pkg/logger"
)

func TestMain(m *testing.M) {
	pterm.DisableColor()
	os.Exit(m.Run())
}

func writeSheet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTopCommand(t *testing.T) {
	Convey("Given a sheet with a tie at the top", t, func() {
		path := writeSheet(t, "First Name,Second Name,Score\nDee,Moore,56\nSipho,Lolo,85\nAmy,Bo,85\n")

		out, err := run("top", path)

		Convey("Then the score and the tied names are printed in name order", func() {
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "\nTop score: 85\n\nTop scorers:\nAmy Bo\nSipho Lolo\n")
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := run("top", filepath.Join(t.TempDir(), "nope.csv"))

		Convey("Then a file not found message is returned", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldStartWith, "file not found at ")
		})
	})

	Convey("Given a sheet with a bad row", t, func() {
		path := writeSheet(t, "First Name,Second Name,Score\nA,B,abc\n")
		_, err := run("top", path)

		Convey("Then the line and its text are reported", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "line 2")
			So(err.Error(), ShouldContainSubstring, "A,B,abc")
		})
	})

	Convey("Given no file argument", t, func() {
		_, err := run("top")

		Convey("Then the command refuses to run", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestValidateCommand(t *testing.T) {
	Convey("Given a clean sheet", t, func() {
		path := writeSheet(t, "First Name,Second Name,Score\nA,B,1\nC,D,2\n")
		out, err := run("validate", path)

		Convey("Then the record count is reported", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "2 valid records")
		})
	})

	Convey("Given a sheet with two bad lines", t, func() {
		path := writeSheet(t, "First Name,Second Name,Score\nA,B,1\n,D,2\nE,F,101\n")
		out, err := run("validate", path)

		Convey("Then every failing line is listed and the command fails", func() {
			So(errors.Is(err, errInvalidSheet), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "2 of 3 lines failed")
			So(out, ShouldContainSubstring, "First Name cannot be empty")
			So(out, ShouldContainSubstring, "E,F,101")
		})
	})
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCORES_STORE_DRIVER", "sqlite")
	t.Setenv("SCORES_SQLITE_PATH", filepath.Join(dir, "scores.db"))

	Convey("Given two sheets and a sqlite store", t, func() {
		a := writeSheet(t, "First Name,Second Name,Score\nA,B,1\nC,D,2\n")
		b := writeSheet(t, "First Name,Second Name,Score\nE,F,3\n")

		out, err := run("import", a, b)

		Convey("Then both are stored and the total is reported", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "2 scores imported")
			So(out, ShouldContainSubstring, "1 scores imported")
			So(out, ShouldContainSubstring, "scores in sqlite store")
		})
	})
}

func TestLoadgenCommand(t *testing.T) {
	Convey("Given a running server", t, func() {
		ctx := context.Background()
		svc := app.New(app.WithLogger(logger.Nop()), app.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		srv := httptest.NewServer(api.NewServer(svc, svc, api.WithLogger(logger.Nop())).Handler())
		defer srv.Close()

		out, err := run("loadgen", "--url", srv.URL, "--sheets", "2", "--rows", "10", "--workers", "2")

		Convey("Then the run summary is printed", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Rows imported")
			So(out, ShouldContainSubstring, "20")
		})
	})
}
