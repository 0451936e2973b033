package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ichinomiya1038/sample-app/internal/api"
	"github.com/ichinomiya1038/sample-app/internal/auth"
	"github.com/ichinomiya1038/sample-app/internal/config"
	"github.com/ichinomiya1038/sample-app/internal/db"
	"github.com/ichinomiya1038/sample-app/internal/logger"
	"github.com/ichinomiya1038/sample-app/internal/metrics"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
	"github.com/ichinomiya1038/sample-app/internal/repository/memory"
	"github.com/ichinomiya1038/sample-app/internal/repository/postgres"
	"github.com/ichinomiya1038/sample-app/internal/services"
	"github.com/ichinomiya1038/sample-app/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			EnableTracing:    false,
			AttachStacktrace: true,
		}); err != nil {
			log.Error("sentry init failed", "err", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	wp := worker.NewPool(cfg.Workers)
	defer wp.Stop()

	audit := services.NewAuditor(store.AuditLogs(), wp)
	userSvc := services.NewUserService(store, auth.NewHasher(cfg.BcryptCost), audit)
	relSvc := services.NewRelationshipService(store, audit)
	postSvc := services.NewMicropostService(store)
	feedSvc := services.NewFeedService(store)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:     cfg,
		Log:     log,
		TM:      auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL, cfg.RememberTTL),
		UserSvc: userSvc,
		RelSvc:  relSvc,
		PostSvc: postSvc,
		FeedSvc: feedSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.Store, func(), error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage; data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.Migrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied")
	}
	return postgres.NewStore(pool), pool.Close, nil
}
