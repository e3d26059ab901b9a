package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/grafixr/site/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MediaQueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.AllowedOrigins, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GRAFIXR_ADDR", ":9090")
			_ = os.Setenv("GRAFIXR_MEDIA_DIR", "/srv/media")
			_ = os.Setenv("GRAFIXR_MEDIA_WORKER_COUNT", "4")
			_ = os.Setenv("GRAFIXR_ADMIN_TOKEN", "s3cret")
			_ = os.Setenv("GRAFIXR_LOG_FORMAT", "JSON")
			_ = os.Setenv("GRAFIXR_ALLOWED_ORIGINS", "https://grafixr.com, http://localhost:3000,")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MediaDir, convey.ShouldEqual, "/srv/media")
				convey.So(cfg.MediaWorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.AdminToken, convey.ShouldEqual, "s3cret")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"https://grafixr.com", "http://localhost:3000"})
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":7070"
max_upload_mb: 16
featured_count: 3
allowed_origins:
  - https://a.example
  - https://b.example
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GRAFIXR_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.MaxUploadMB, convey.ShouldEqual, 16)
				convey.So(cfg.FeaturedCount, convey.ShouldEqual, 3)
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
				convey.So(cfg.MediaDeleteAttempts, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":7070"
media_queue_size: 10
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GRAFIXR_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithFile(tmpFile))

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.MediaQueueSize, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.Load(ctx, config.WithFile(tmpFile))

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("GRAFIXR_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("GRAFIXR_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("GRAFIXR_MEDIA_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"GRAFIXR_CONFIG",
		"GRAFIXR_ADDR",
		"GRAFIXR_MEDIA_DIR",
		"GRAFIXR_MEDIA_WORKER_COUNT",
		"GRAFIXR_MEDIA_QUEUE_SIZE",
		"GRAFIXR_ADMIN_TOKEN",
		"GRAFIXR_LOG_FORMAT",
		"GRAFIXR_ALLOWED_ORIGINS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "grafixr-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
