package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/scores/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars(t)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars(t)
			t.Setenv("SCORES_ADDR", ":8080")
			t.Setenv("SCORES_QUEUE_SIZE", "50")
			t.Setenv("SCORES_WORKER_COUNT", "3")
			t.Setenv("SCORES_STORE_DRIVER", "sqlite")
			t.Setenv("SCORES_SQLITE_PATH", "/tmp/x.db")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 50)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/x.db")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars(t)
			path := filepath.Join(t.TempDir(), "scores.yaml")
			yamlContent := `
addr: ":9090"
log_format: json
queue_size: 300
max_upload_bytes: 2048
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			t.Setenv("SCORES_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 2048)
			})

			convey.Convey("And env vars take precedence over the file", func() {
				t.Setenv("SCORES_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file is missing", func() {
			clearConfigEnvVars(t)
			t.Setenv("SCORES_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the result is invalid", func() {
			clearConfigEnvVars(t)
			t.Setenv("SCORES_STORE_DRIVER", "postgres")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SCORES_CONFIG", "SCORES_ADDR", "SCORES_QUEUE_SIZE", "SCORES_WORKER_COUNT",
		"SCORES_STORE_DRIVER", "SCORES_SQLITE_PATH", "SCORES_POSTGRES_URL",
		"SCORES_LOG_LEVEL", "SCORES_LOG_FORMAT", "SCORES_MAX_UPLOAD_BYTES", "SCORES_DEDUPE_SIZE",
	} {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}
