package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"clientfiles/docs"
	"clientfiles/internal/auth"
	"clientfiles/internal/changefeed"
	"clientfiles/internal/config"
	"clientfiles/internal/database"
	"clientfiles/internal/database/migration"
	handlers "clientfiles/internal/http/handler"
	"clientfiles/internal/http/middleware"
	"clientfiles/internal/logger"
	"clientfiles/internal/otel"
	"clientfiles/internal/repository/postgres"
	"clientfiles/internal/service"
	"clientfiles/internal/storage"
)

// @title						Client Files API
// @version					1.0
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Str("event", "startup_failed").Msg("clientfiles stopped")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	feed, err := changefeed.Open(cfg.Sync.ChangefeedDriver, func() (string, error) {
		return database.BuildPostgresDSN(cfg.Database)
	}, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	policy := service.PolicyNoRollback
	if cfg.Sync.RollbackOnFailure {
		policy = service.PolicyRollback
	}
	svc := service.New(postgres.NewStore(db), objects, feed, service.Config{
		Policy:        policy,
		Debounce:      cfg.Sync.Debounce(),
		SignedURLTTL:  cfg.Sync.SignedURLTTL(),
		ActivityLimit: cfg.Sync.ActivityLimit,
		Logger:        log,
		Metrics:       metrics,
	})
	defer svc.Teardown()

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	if cfg.Auth.AccessToken != "" {
		p, err := verifier.Verify(cfg.Auth.AccessToken)
		if err != nil {
			return err
		}
		if err := svc.Init(ctx, p); err != nil {
			// The session can still be started later through POST /session.
			log.Error().Err(err).Str("event", "initial_load_failed").Msg("could not load client files")
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(service.StorageLimitBytes),
	})
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log, logger.Location(cfg.Log.TimeZone)))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:       db,
		Service:  svc,
		Verifier: verifier,
		Metrics:  reg,
	})

	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	})

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("event", "server_started").Str("addr", ":"+cfg.Port).Str("policy", policy.String()).Msg("listening")
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Str("event", "server_stopping").Msg("shutting down")
	svc.Teardown()
	return app.ShutdownWithTimeout(10 * time.Second)
}
