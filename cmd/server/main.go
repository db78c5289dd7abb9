package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	catalogservice "subgate/internal/catalog/service"
	catalogstore "subgate/internal/catalog/store"
	identityservice "subgate/internal/identity/service"
	identitystore "subgate/internal/identity/store"
	"subgate/internal/identity/token"
	"subgate/internal/platform/config"
	"subgate/internal/platform/database"
	"subgate/internal/platform/health"
	"subgate/internal/platform/logger"
	"subgate/internal/platform/metrics"
	"subgate/internal/quota/enforcer"
	"subgate/internal/quota/ledger"
	"subgate/internal/quota/transition"
	"subgate/internal/quota/worker"
	"subgate/internal/seeder"
	httptransport "subgate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := health.New()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		return err
	}

	var (
		users    identitystore.UserStore
		catalog  catalogstore.Store
		usage    ledger.Store
		txRunner transition.TxRunner
	)
	if pool != nil {
		if err := database.Migrate(ctx, pool, log); err != nil {
			return err
		}
		defer pool.Close() //nolint:errcheck // best-effort close on shutdown

		users = identitystore.NewPostgres(pool.DB())
		catalog = catalogstore.NewPostgres(pool.DB())
		usage = ledger.NewPostgres(pool.DB())
		txRunner = pool
		checks.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		log.Info("using postgres stores")
	} else {
		memUsers := identitystore.NewInMemory()
		memCatalog := catalogstore.NewInMemory()
		users = memUsers
		catalog = memCatalog
		usage = ledger.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")

		if err := seeder.New(memUsers, memCatalog, log).SeedAll(ctx); err != nil {
			return err
		}
	}

	tokens := token.New(cfg.JWTSigningKey, cfg.TokenTTL)
	identity := identityservice.New(users, tokens,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(m),
	)
	catalogSvc := catalogservice.New(catalog, catalogservice.WithLogger(log))
	subscription := transition.New(users, catalog, usage, txRunner,
		transition.WithLogger(log),
		transition.WithMetrics(m),
	)
	access := enforcer.New(catalog, usage,
		enforcer.WithLogger(log),
		enforcer.WithMetrics(m),
	)
	sweeper, err := worker.New(usage,
		worker.WithResetInterval(cfg.ResetInterval),
		worker.WithResetLogger(log),
		worker.WithResetMetrics(m),
	)
	if err != nil {
		return err
	}

	handler := httptransport.NewHandler(identity, catalogSvc, subscription, access, usage, log)
	router := httptransport.NewRouter(handler, identity, checks, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
