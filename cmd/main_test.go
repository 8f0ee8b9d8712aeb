package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/bizlens/internal/adapters/repository"
	app "github.com/okian/bizlens/internal/app"
	"github.com/okian/bizlens/internal/config"
	"github.com/okian/bizlens/pkg/logger"
	"github.com/okian/bizlens/pkg/metrics"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("BIZLENS_ADDR", ":8080")
			_ = os.Setenv("BIZLENS_AUDIT__QUEUE_SIZE", "1000")
			_ = os.Setenv("BIZLENS_AUDIT__WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("BIZLENS_ADDR")
				_ = os.Unsetenv("BIZLENS_AUDIT__QUEUE_SIZE")
				_ = os.Unsetenv("BIZLENS_AUDIT__WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Audit.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.Audit.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When building the service from defaults", func() {
			cfg := config.New()
			svc, err := buildService(context.Background(), cfg, logger.Get())

			convey.Convey("Then it should expose every collaborator breaker", func() {
				convey.So(err, convey.ShouldBeNil)
				breakers, ok := svc.GetStats()["breakers"].(map[string]string)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(breakers, convey.ShouldResemble, map[string]string{
					"entite":      "closed",
					"parametrage": "closed",
					"produit":     "closed",
				})
			})
		})

		convey.Convey("When building upstream options", func() {
			cfg := config.New()
			base := len(upstreamOptions(cfg, logger.Get()))

			cfg.Upstream.RatePerSecond = 10
			cfg.Upstream.CacheTTL = time.Minute

			convey.Convey("Then rate limiting and caching are opt-in", func() {
				convey.So(len(upstreamOptions(cfg, logger.Get())), convey.ShouldEqual, base+2)
			})
		})

		convey.Convey("When opening the default store", func() {
			store, err := openStore(context.Background(), config.New())

			convey.Convey("Then it should be the in-memory store", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager()
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given the root handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc, err := buildService(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		h := newHandler(ctx, cfg, svc)

		convey.Convey("Then docs and health routes are reachable", func() {
			for _, path := range []string{"/healthz", "/metrics", "/stats", "/api-docs", "/openapi.yaml"} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then every response carries a request id", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
		})

		convey.Convey("Then BI routes require authorization", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bi/scorecard", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()

			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing metric updates", func() {
			svc := app.New()
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then they should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("BIZLENS_ADDR", "")
			defer func() { _ = os.Unsetenv("BIZLENS_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the postgres store cannot be reached", func() {
			cfg := config.New()
			cfg.Audit.Store = config.StorePostgres
			cfg.Audit.DSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"

			convey.Convey("Then building the service should fail", func() {
				svc, err := buildService(context.Background(), cfg, logger.Get())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)
			})
		})
	})
}
