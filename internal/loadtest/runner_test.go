package loadtest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/arcade/internal/adapters/http/api"
	service "github.com/okian/arcade/internal/app"
	"github.com/okian/arcade/internal/loadtest"
	"github.com/okian/arcade/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTarget(ctx context.Context) (*httptest.Server, func()) {
	svc, err := service.New(service.WithWorkerCount(4), service.WithQueueSize(256))
	if err != nil {
		panic(err)
	}
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(api.RequestIDMiddleware(mux))
	return srv, func() {
		srv.Close()
		svc.Stop()
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running arcade service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		srv, stop := newTarget(ctx)
		defer stop()

		cfg := &loadtest.Config{
			BaseURL:  srv.URL,
			Requests: 45,
			Workers:  4,
			Timeout:  30 * time.Second,
			Seed:     3,
			Engines:  []string{loadtest.EnginePacking, loadtest.EngineRoute, loadtest.EngineLineup},
		}

		Convey("When a load test runs against it", func() {
			stats, err := loadtest.Run(ctx, cfg)

			Convey("Then every answer should hold up", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 45)
				So(stats.Submitted, ShouldEqual, 45)
				So(stats.Succeeded, ShouldEqual, 45)
				So(stats.Violations, ShouldEqual, 0)
				So(stats.ByEngine[loadtest.EngineLineup], ShouldEqual, 15)
			})
		})

		Convey("When cases are saved to a file", func() {
			cfg.Requests = 6
			cfg.OutputFile = filepath.Join(t.TempDir(), "cases", "run.json")
			_, err := loadtest.Run(ctx, cfg)

			Convey("Then the file should exist", func() {
				So(err, ShouldBeNil)
				info, statErr := os.Stat(cfg.OutputFile)
				So(statErr, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given a service that is not reachable", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		cfg := &loadtest.Config{
			BaseURL:  srv.URL,
			Requests: 1,
			Workers:  1,
			Timeout:  time.Second,
			Engines:  []string{loadtest.EngineRoute},
		}

		Convey("Then the run should fail its health check", func() {
			_, err := loadtest.Run(context.Background(), cfg)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := &loadtest.Config{BaseURL: "http://localhost", Requests: 1, Workers: 1, Timeout: time.Second, Engines: []string{"chess"}}

		Convey("Then Run should refuse it", func() {
			_, err := loadtest.Run(context.Background(), cfg)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, loadtest.ErrViolations), ShouldBeFalse)
			So(err.Error(), ShouldContainSubstring, "unknown engine")
		})
	})
}
