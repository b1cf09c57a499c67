package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	assethostadapter "github.com/dansportalen/directory-api/internal/adapters/assethost"
	"github.com/dansportalen/directory-api/internal/adapters/httpapi"
	"github.com/dansportalen/directory-api/internal/adapters/memory"
	postgres "github.com/dansportalen/directory-api/internal/adapters/postgres"
	pgimagerepo "github.com/dansportalen/directory-api/internal/adapters/postgres/imagerepo"
	pgindividualrepo "github.com/dansportalen/directory-api/internal/adapters/postgres/individualrepo"
	pgorganizationrepo "github.com/dansportalen/directory-api/internal/adapters/postgres/organizationrepo"
	pgprofilerepo "github.com/dansportalen/directory-api/internal/adapters/postgres/profilerepo"
	pgvenuerepo "github.com/dansportalen/directory-api/internal/adapters/postgres/venuerepo"
	"github.com/dansportalen/directory-api/internal/app/images"
	"github.com/dansportalen/directory-api/internal/app/individuals"
	"github.com/dansportalen/directory-api/internal/app/organizations"
	"github.com/dansportalen/directory-api/internal/app/profiles"
	"github.com/dansportalen/directory-api/internal/app/venues"
	platformclock "github.com/dansportalen/directory-api/internal/platform/clock"
	"github.com/dansportalen/directory-api/internal/platform/config"
	"github.com/dansportalen/directory-api/internal/platform/logging"
	assethostport "github.com/dansportalen/directory-api/internal/ports/out/assethost"
	imagerepoport "github.com/dansportalen/directory-api/internal/ports/out/imagerepo"
	individualrepoport "github.com/dansportalen/directory-api/internal/ports/out/individualrepo"
	organizationrepoport "github.com/dansportalen/directory-api/internal/ports/out/organizationrepo"
	profilerepoport "github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
	venuerepoport "github.com/dansportalen/directory-api/internal/ports/out/venuerepo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger's own config may be what failed; report plainly.
		println("invalid configuration:", err.Error())
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	var (
		profileRepo      profilerepoport.Repository
		individualRepo   individualrepoport.Repository
		organizationRepo organizationrepoport.Repository
		venueRepo        venuerepoport.Repository
		imageRepo        imagerepoport.Repository
		cleanup          func()
	)

	switch cfg.Storage.Backend {
	case "postgres":
		if err := postgres.MigrateUp(cfg.Storage.DatabaseURL); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		pool, err := postgres.NewPool(context.Background(), cfg.Storage.DatabaseURL)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		cleanup = pool.Close

		profileRepo = pgprofilerepo.NewRepo(pool)
		individualRepo = pgindividualrepo.NewRepo(pool)
		organizationRepo = pgorganizationrepo.NewRepo(pool)
		venueRepo = pgvenuerepo.NewRepo(pool)
		imageRepo = pgimagerepo.NewRepo(pool)
	default:
		store := memory.NewStore()
		profileRepo = store.Profiles()
		individualRepo = store.Individuals()
		organizationRepo = store.Organizations()
		venueRepo = store.Venues()
		imageRepo = store.Images()
	}
	if cleanup != nil {
		defer cleanup()
	}

	var host assethostport.Host
	if cfg.AssetHost.BaseURL != "" {
		host = assethostadapter.NewClient(cfg.AssetHost.BaseURL, cfg.AssetHost.APIKey)
	} else {
		log.Warn("no asset host configured, using in-memory fake")
		host = assethostadapter.NewFake()
	}

	clk := platformclock.NewSystemClock()

	individualsSvc := individuals.NewService(individualRepo, organizationRepo, clk)
	organizationsSvc := organizations.NewService(organizationRepo, individualRepo, clk)
	venuesSvc := venues.NewService(venueRepo, clk)
	profilesSvc := profiles.NewService(profileRepo, individualsSvc, organizationsSvc, venuesSvc)
	imagesSvc := images.NewService(host, imageRepo, profileRepo, clk)

	api := httpapi.NewServer(profilesSvc, individualsSvc, organizationsSvc, venuesSvc, imagesSvc)

	opts := httpapi.RouterOptions{
		RequestLogger: httpapi.NewRequestLogger(log),
	}
	if cfg.HTTP.APIKey != "" {
		opts.AuthMiddleware = httpapi.NewAPIKeyMiddleware(cfg.HTTP.APIKey)
	} else {
		log.Warn("API_KEY not set, API is unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpapi.NewRouter(api, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api listening", "port", cfg.HTTP.Port, "backend", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
