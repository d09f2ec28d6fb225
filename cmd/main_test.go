package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	app "github.com/okian/lookingforlove/internal/app"
	"github.com/okian/lookingforlove/internal/config"
	"github.com/okian/lookingforlove/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)

		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("LFL_ADDR", ":8080")
			_ = os.Setenv("LFL_MATCH_POINTS", "20")
			defer func() {
				_ = os.Unsetenv("LFL_ADDR")
				_ = os.Unsetenv("LFL_MATCH_POINTS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MatchPoints, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("LFL_ADDR", "")
			defer func() { _ = os.Unsetenv("LFL_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given a started service and its mux", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		cfg := config.New()
		cfg.StatsRefreshIntervalSec = 0
		svc := app.New(app.WithConfig(cfg), app.WithSystemSampleInterval(0))
		ctx := context.Background()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		mux := newMux(ctx, svc)

		convey.Convey("Then docs, health and readiness should be served", func() {
			for _, path := range []string{"/api-docs", "/openapi.yaml", "/healthz", "/readyz"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And business routes should require a token", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/matches", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given a new HTTP server", t, func() {
		srv := newHTTPServer(":0", http.NewServeMux())

		convey.Convey("Then timeouts should be set", func() {
			convey.So(srv.Addr, convey.ShouldEqual, ":0")
			convey.So(srv.ReadTimeout, convey.ShouldEqual, readTimeout)
			convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.StatsRefreshIntervalSec = 0

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		convey.Convey("Then run should shut down cleanly", func() {
			convey.So(run(ctx, cfg), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an invalid log format", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		cfg := config.New()
		cfg.LogFormat = "xml"

		convey.Convey("Then run should fail before starting", func() {
			convey.So(run(context.Background(), cfg), convey.ShouldNotBeNil)
		})
	})
}
