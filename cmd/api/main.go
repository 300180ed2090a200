package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/config"
	httpx "github.com/geocoder89/userhub/internal/http"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/geocoder89/userhub/internal/seed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	startedAt := time.Now()

	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), cfg.OTELServiceName, version, cfg.OTELEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	// in-memory user table, seeded with the bootstrap admin
	users := memory.NewUsersRepo(memory.WithBcryptCost(cfg.BcryptCost))

	seedCtx, cancelSeed := config.WithTimeout(10 * time.Second)
	admin, err := seed.EnsureAdminUser(seedCtx, users, cfg)
	cancelSeed()

	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	log.Info("admin user ready", "user_id", admin.ID, "email", admin.Email)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg, users.Count)

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:     users,
		Tokens:    auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		Prom:      prom,
		Version:   version,
		StartedAt: startedAt,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "version", version)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(cfg.ShutdownGrace)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(cfg.ShutdownGrace + 2*time.Second):
		log.Error("shutdown timed out")
	}
}
