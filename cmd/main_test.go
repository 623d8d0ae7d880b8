package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	app "github.com/okian/quicktodo/internal/app"
	"github.com/okian/quicktodo/internal/config"
	"github.com/okian/quicktodo/pkg/logger"
	"github.com/okian/quicktodo/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startedService(cfg *config.Config) *app.Service {
	svc := app.New(
		app.WithFlavor(cfg.Flavor),
		app.WithSeed(cfg.Seed),
		app.WithDemoListing(cfg.DemoListing),
	)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("TODOS_ADDR", ":8080")
			_ = os.Setenv("TODOS_FLAVOR", "tasks")
			defer func() {
				_ = os.Unsetenv("TODOS_ADDR")
				_ = os.Unsetenv("TODOS_FLAVOR")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Flavor, convey.ShouldEqual, config.FlavorTasks)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			_ = os.Setenv("TODOS_FLAVOR", "kanban")
			defer func() { _ = os.Unsetenv("TODOS_FLAVOR") }()

			convey.Convey("Then loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a handler for the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		svc := startedService(cfg)
		defer svc.Stop()
		h := newHandler(ctx, cfg, svc)

		convey.Convey("Then the records routes are served", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"task":"buy milk"}`)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
		})

		convey.Convey("Then the docs are served", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then cross-origin requests are allowed", func() {
			req := httptest.NewRequest(http.MethodGet, "/todos", nil)
			req.Header.Set("Origin", "http://example.com")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "*")
		})

		convey.Convey("Then preflight requests are answered", func() {
			req := httptest.NewRequest(http.MethodOptions, "/todos/1", nil)
			req.Header.Set("Origin", "http://example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldBeLessThan, 300)
			convey.So(w.Header().Get("Access-Control-Allow-Methods"), convey.ShouldContainSubstring, http.MethodPut)
		})
	})

	convey.Convey("Given a handler restricted to one origin", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.Flavor = config.FlavorTasks
		cfg.CORSAllowedOrigins = []string{"http://allowed.test"}
		svc := startedService(cfg)
		defer svc.Stop()
		h := newHandler(ctx, cfg, svc)

		convey.Convey("Then other origins get no CORS headers", func() {
			req := httptest.NewRequest(http.MethodGet, "/todos", nil)
			req.Header.Set("Origin", "http://other.test")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldBeEmpty)
		})

		convey.Convey("Then the tasks routes are served", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/todos/1", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When the service metrics updater runs until cancelled", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			svc := startedService(config.New(context.Background()))
			defer svc.Stop()

			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When creating an isolated metrics manager", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
