package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/bookshelf/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadConfig(t *testing.T) {
	Convey("Given the config loader", t, func() {
		clearConfigEnvVars()
		Reset(clearConfigEnvVars)

		Convey("When only the database section is provided through env", func() {
			setDatabaseEnv()

			cfg, err := config.LoadConfig()

			Convey("Then defaults fill everything else", func() {
				So(err, ShouldBeNil)
				So(cfg.Server.Port, ShouldEqual, "8080")
				So(cfg.Server.ReadTimeout, ShouldEqual, 30)
				So(cfg.Storage.Driver, ShouldEqual, config.DriverPostgres)
				So(cfg.Database, ShouldNotBeNil)
				So(cfg.Database.Host, ShouldEqual, "localhost")
				So(cfg.Database.Port, ShouldEqual, 5432)
				So(cfg.Redis, ShouldBeNil)
			})

			Convey("And observability is labelled from the primary config", func() {
				So(err, ShouldBeNil)
				So(cfg.Observability.ServiceName, ShouldEqual, config.ServiceName)
				So(cfg.Observability.Environment, ShouldEqual, "development")
				So(cfg.Observability.Logging.Level, ShouldEqual, "info")
				So(cfg.Observability.HealthChecks.Timeout, ShouldEqual, 5*time.Second)
			})
		})

		Convey("When env vars override nested keys", func() {
			setDatabaseEnv()
			_ = os.Setenv("BOOKSHELF_PRIMARY.ENV", "production")
			_ = os.Setenv("BOOKSHELF_SERVER.PORT", "9090")
			_ = os.Setenv("BOOKSHELF_SERVER.CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
			_ = os.Setenv("BOOKSHELF_OBSERVABILITY.LOGGING.LEVEL", "warn")
			_ = os.Setenv("BOOKSHELF_OBSERVABILITY.LOGGING.SLOW_QUERY_THRESHOLD", "250ms")

			cfg, err := config.LoadConfig()

			Convey("Then the overrides win", func() {
				So(err, ShouldBeNil)
				So(cfg.Primary.Env, ShouldEqual, "production")
				So(cfg.Server.Port, ShouldEqual, "9090")
				So(cfg.Server.CORSAllowedOrigins, ShouldResemble, []string{"https://a.example", "https://b.example"})
				So(cfg.Observability.Logging.Level, ShouldEqual, "warn")
				So(cfg.Observability.Logging.SlowQueryThreshold, ShouldEqual, 250*time.Millisecond)
				So(cfg.Observability.IsProduction(), ShouldBeTrue)
			})
		})

		Convey("When a YAML file selects the redis driver", func() {
			path := writeConfigFile(t, `
storage:
  driver: redis
redis:
  address: "localhost:6379"
  key_prefix: "test:"
server:
  port: "7070"
`)
			_ = os.Setenv(config.FileEnvVar, path)
			_ = os.Setenv("BOOKSHELF_SERVER.PORT", "7171")

			cfg, err := config.LoadConfig()

			Convey("Then the file is applied below the environment", func() {
				So(err, ShouldBeNil)
				So(cfg.Storage.Driver, ShouldEqual, config.DriverRedis)
				So(cfg.Redis, ShouldNotBeNil)
				So(cfg.Redis.Address, ShouldEqual, "localhost:6379")
				So(cfg.Redis.KeyPrefix, ShouldEqual, "test:")
				So(cfg.Server.Port, ShouldEqual, "7171")
				So(cfg.Database, ShouldBeNil)
			})
		})

		Convey("When the postgres driver has no database section", func() {
			_, err := config.LoadConfig()

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "database config is required")
			})
		})

		Convey("When the storage driver is unknown", func() {
			setDatabaseEnv()
			_ = os.Setenv("BOOKSHELF_STORAGE.DRIVER", "mongo")

			_, err := config.LoadConfig()

			Convey("Then validation fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the log level is invalid", func() {
			setDatabaseEnv()
			_ = os.Setenv("BOOKSHELF_OBSERVABILITY.LOGGING.LEVEL", "verbose")

			_, err := config.LoadConfig()

			Convey("Then validation fails with the offending level", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "invalid logging level")
			})
		})

		Convey("When the config file does not exist", func() {
			_ = os.Setenv(config.FileEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.LoadConfig()

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestObservabilityConfig(t *testing.T) {
	Convey("Given the default observability config", t, func() {
		cfg := config.DefaultObservabilityConfig()

		Convey("It validates", func() {
			So(cfg.Validate(), ShouldBeNil)
			So(cfg.NewRelicEnabled(), ShouldBeFalse)
		})

		Convey("An empty level defaults by environment", func() {
			cfg.Logging.Level = ""
			So(cfg.GetLogLevel(), ShouldEqual, "debug")

			cfg.Environment = "production"
			So(cfg.GetLogLevel(), ShouldEqual, "info")
		})

		Convey("An unknown format is rejected", func() {
			cfg.Logging.Format = "xml"
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}

func setDatabaseEnv() {
	_ = os.Setenv("BOOKSHELF_DATABASE.HOST", "localhost")
	_ = os.Setenv("BOOKSHELF_DATABASE.PORT", "5432")
	_ = os.Setenv("BOOKSHELF_DATABASE.USER", "bookshelf")
	_ = os.Setenv("BOOKSHELF_DATABASE.PASSWORD", "secret")
	_ = os.Setenv("BOOKSHELF_DATABASE.NAME", "bookshelf")
	_ = os.Setenv("BOOKSHELF_DATABASE.SSL_MODE", "disable")
	_ = os.Setenv("BOOKSHELF_DATABASE.MAX_OPEN_CONNS", "10")
	_ = os.Setenv("BOOKSHELF_DATABASE.MAX_IDLE_CONNS", "5")
	_ = os.Setenv("BOOKSHELF_DATABASE.CONN_MAX_LIFETIME", "300")
	_ = os.Setenv("BOOKSHELF_DATABASE.CONN_MAX_IDLE_TIME", "60")
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, config.EnvPrefix) {
			_ = os.Unsetenv(key)
		}
	}
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}
