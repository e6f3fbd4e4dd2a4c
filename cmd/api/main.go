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

	"github.com/geocoder89/taskhub/internal/accounts"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTELEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	deps := httpx.Dependencies{
		Prom:        prom,
		Gatherer:    reg,
		ReadyChecks: map[string]handlers.CheckFunc{},
	}

	var users accounts.Store

	switch cfg.Storage {
	case config.StoragePostgres:
		if cfg.AutoMigrate {
			mctx, cancel := config.WithTimeout(time.Minute)
			err := db.Migrate(mctx, cfg.DBURL)
			cancel()
			if err != nil {
				log.Error("migration failed", "err", err)
				os.Exit(1)
			}
		}

		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		users = postgres.NewUsersRepo(pool, prom)
		deps.Projects = postgres.NewProjectsRepo(pool, prom)
		deps.Tasks = postgres.NewTasksRepo(pool, prom)
		deps.ReadyChecks["postgres"] = pool.Ping

	default:
		log.Warn("using in-memory storage; data is lost on restart")

		store := memory.NewStore()
		users = store.Users()
		deps.Projects = store.Projects()
		deps.Tasks = store.Tasks()
		deps.ReadyChecks["storage"] = store.Ping
	}

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		deps.AuthLimiter = ratelimit.NewRedisLimiter(rdb.Raw(), "auth", cfg.RateLimitAuth, cfg.RateLimitWindow)
		deps.APILimiter = ratelimit.NewRedisLimiter(rdb.Raw(), "api", cfg.RateLimitAPI, cfg.RateLimitWindow)
		deps.ReadyChecks["redis"] = rdb.Ping
	}

	accountsSvc := accounts.NewService(users, security.NewHasher(cfg.BcryptCost))
	deps.Accounts = accountsSvc
	deps.Users = accountsSvc
	deps.Tokens = auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	seedCtx, cancelSeed := config.WithTimeout(10 * time.Second)
	created, err := db.EnsureSeedUser(seedCtx, accountsSvc, cfg)
	cancelSeed()
	if err != nil {
		log.Error("seed user failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("seed user created", "email", cfg.SeedUserEmail)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, deps, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage)
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

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
