package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/hello-api/internal/http/v1/greeting"
	"github.com/janisto/hello-api/internal/http/v1/routes"
	"github.com/janisto/hello-api/internal/platform/config"
	applog "github.com/janisto/hello-api/internal/platform/logging"
	appmiddleware "github.com/janisto/hello-api/internal/platform/middleware"
	"github.com/janisto/hello-api/internal/platform/openapi"
	"github.com/janisto/hello-api/internal/platform/respond"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(ctx, "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(ctx, "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		applog.LogError(ctx, "invalid configuration", err)
		return 1
	}
	applog.SetLevel(cfg.LogLevel)

	srv := newServer(cfg, newRouter(cfg))

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "server listening",
			zap.String("addr", srv.Addr),
			zap.String("version", Version),
			zap.Duration("simulatedLatency", cfg.SimulatedLatency),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(ctx, "listen failed", err, zap.String("addr", srv.Addr))
		return 1
	case sig := <-stop:
		applog.LogInfo(ctx, "shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(ctx, "server shutdown error", err)
		return 1
	}
	applog.LogInfo(ctx, "server exited")
	return 0
}

// newRouter assembles the middleware stack and the huma API.
func newRouter(cfg *config.Config) http.Handler {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(cfg.DocsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP trusts X-Real-IP / X-Forwarded-For. Only deploy behind a proxy that sets them.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(cfg.MaxBodyBytes),
		applog.RequestLogger(cfg.TraceProjectID),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	api := humachi.New(router, openapi.NewConfig(Version, cfg.DocsPath))
	routes.Register(api, routes.Options{
		Greeting: greeting.Options{Delay: cfg.SimulatedLatency},
	})
	return router
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		// A delayed greeting still has to fit in the write deadline.
		WriteTimeout:   10*time.Second + cfg.SimulatedLatency,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 64 << 10,
	}
}
