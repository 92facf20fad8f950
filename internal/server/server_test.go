package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func redisConfig(address string) *config.Config {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverRedis
	cfg.Redis = &config.RedisConfig{Address: address}
	_ = cfg.Validate()
	return cfg
}

func TestNew(t *testing.T) {
	logger := zerolog.Nop()

	Convey("Given the redis storage driver", t, func() {
		Convey("When redis is reachable", func() {
			mr := miniredis.RunT(t)

			s, err := New(redisConfig(mr.Addr()), &logger, nil)

			Convey("Then the server holds a live client and no database", func() {
				So(err, ShouldBeNil)
				So(s.DB, ShouldBeNil)
				So(s.Redis, ShouldNotBeNil)
				So(s.Redis.Ping(context.Background()).Err(), ShouldBeNil)
				So(s.Metrics, ShouldNotBeNil)
				So(s.Shutdown(context.Background()), ShouldBeNil)
			})
		})

		Convey("When redis is unreachable", func() {
			mr := miniredis.RunT(t)
			addr := mr.Addr()
			mr.Close()

			_, err := New(redisConfig(addr), &logger, nil)

			Convey("Then start-up fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to connect to redis")
			})
		})
	})

	Convey("Start refuses to run without an HTTP server", t, func() {
		s := &Server{Config: config.Default(), Logger: &logger}
		So(s.Start(), ShouldNotBeNil)

		s.SetupHTTPServer(http.NotFoundHandler())
		So(s.httpServer.Addr, ShouldEqual, ":8080")
	})
}
