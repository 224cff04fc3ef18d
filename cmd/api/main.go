package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/OpenAegis/saleor-app-order-hash-generator/api/controllers"
	"github.com/OpenAegis/saleor-app-order-hash-generator/api/routes"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/diagnostics"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/issuance"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/lookup"
	"github.com/OpenAegis/saleor-app-order-hash-generator/internal/orderhash"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/apl"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/config"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/db"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/metrics"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/migrate"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/redis"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/saleor"
	"gorm.io/gorm"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	// The database is optional at boot. Without a DSN the app still serves the
	// manifest and webhooks; store-backed paths report STORE_UNAVAILABLE
	// instead.
	var gormDB *gorm.DB
	var dbP controllers.Pinger
	if cfg.DB.Configured() {
		dbClient, err := db.New(context.Background(), cfg.DB, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
		gormDB = dbClient.DB()
		dbP = dbClient
	} else {
		logg.Warn(context.Background(), "no database configured, hash store disabled")
	}

	var redisClient *redis.Client
	var redisP controllers.Pinger
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisP = redisClient
	}

	var aplStore apl.APL
	if cfg.APL.IsRedis() {
		if redisClient == nil {
			logg.Error(context.Background(), "redis APL selected but redis is not configured", nil)
			os.Exit(1)
		}
		aplStore, err = apl.NewRedisAPL(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create redis APL", err)
			os.Exit(1)
		}
	} else {
		aplStore = apl.NewFileAPL(cfg.APL.FilePath)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo := orderhash.NewRepository(gormDB)
	saleorClient := saleor.NewClient(cfg.Saleor, logg)

	issuanceService, err := issuance.NewService(issuance.ServiceParams{
		Repo:        repo,
		Hashes:      issuance.NewGenerator(),
		Saleor:      saleorClient,
		APL:         aplStore,
		MetadataKey: cfg.Saleor.MetadataKey,
		Logger:      logg,
		Metrics:     metrics.NewIssuanceMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create issuance service", err)
		os.Exit(1)
	}

	lookupService, err := lookup.NewService(lookup.ServiceParams{
		Repo:   repo,
		APL:    aplStore,
		Saleor: saleorClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lookup service", err)
		os.Exit(1)
	}

	diagnosticsService, err := diagnostics.NewService(repo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create diagnostics service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"apl":  cfg.APL.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbP,
			redisP,
			issuanceService,
			lookupService,
			diagnosticsService,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
