package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/cataloguebot/whatsapp-gate/database"
	"github.com/cataloguebot/whatsapp-gate/internal/catalog"
	"github.com/cataloguebot/whatsapp-gate/internal/config"
	"github.com/cataloguebot/whatsapp-gate/internal/dispatcher"
	"github.com/cataloguebot/whatsapp-gate/internal/handlers"
	"github.com/cataloguebot/whatsapp-gate/internal/jobs"
	"github.com/cataloguebot/whatsapp-gate/internal/logger"
	"github.com/cataloguebot/whatsapp-gate/internal/middleware"
	"github.com/cataloguebot/whatsapp-gate/internal/routes"
	"github.com/cataloguebot/whatsapp-gate/internal/services"
	"github.com/cataloguebot/whatsapp-gate/internal/storage"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormatOrDefault()})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("failed to close resource", logger.Error(err))
			}
		}
	}()

	// The gorm connection is shared by the postgres session store and the keyword catalog.
	var db *gorm.DB
	openDB := func() (*gorm.DB, error) {
		if db != nil {
			return db, nil
		}
		conn, err := database.Connect(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := conn.DB(); err == nil {
			closers = append(closers, sqlDB)
		}
		if err := database.Migrate(conn); err != nil {
			return nil, err
		}
		log.Info("database migrations completed")
		db = conn
		return db, nil
	}

	store, closer, err := openSessionStore(ctx, cfg, openDB)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}
	log.Info("session store ready", slog.String("backend", cfg.SessionBackend))

	searcher, err := openCatalog(ctx, cfg, openDB)
	if err != nil {
		return err
	}
	log.Info("catalog ready", slog.String("backend", cfg.CatalogBackend))

	if index, ok := searcher.(*catalog.OpenSearchSearcher); ok && cfg.CatalogSyncInterval > 0 {
		db, err := openDB()
		if err != nil {
			return err
		}
		job := jobs.NewCatalogSyncJob(catalog.NewGormSearcher(db), index, cfg.CatalogSyncInterval, log)
		job.Start(ctx)
		defer job.Stop()
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}

	d := dispatcher.New(store, notifier, searcher,
		dispatcher.WithPolicy(cfg.Policy()),
		dispatcher.WithPageSize(cfg.SearchPageSize),
		dispatcher.WithLogger(log),
	)

	app := fiber.New(fiber.Config{
		AppName:      "whatsapp-gate " + version,
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	h := routes.Handlers{
		Version:       version,
		WhatsApp:      handlers.NewWhatsAppHandler(d, log),
		Health:        handlers.NewHealthHandler(version, healthChecks(store, searcher)),
		TestEndpoints: cfg.IsDevelopment(),
	}
	if cfg.AdminAPIEnabled {
		if reader, ok := store.(storage.SessionReader); ok {
			h.Sessions = handlers.NewSessionsHandler(reader, cfg.Policy())
		} else {
			log.Warn("session backend cannot be inspected, admin API disabled", slog.String("backend", cfg.SessionBackend))
		}
	}
	if cfg.ValidateWebhooks() {
		h.Signature = middleware.ValidateTwilioSignature(middleware.SignatureConfig{
			AuthToken:     cfg.Twilio.AuthToken,
			PublicBaseURL: cfg.PublicBaseURL,
			Logger:        log,
		})
	} else {
		log.Warn("WhatsApp webhook validation DISABLED")
	}
	routes.SetupRoutes(app, h)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("whatsapp-gate starting",
			slog.String("port", cfg.Port),
			slog.String("environment", cfg.Environment),
			slog.Bool("twilio", cfg.Twilio.Configured()),
		)
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("gracefully shutting down")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openSessionStore(ctx context.Context, cfg config.Config, openDB func() (*gorm.DB, error)) (storage.SessionStore, io.Closer, error) {
	switch cfg.SessionBackend {
	case storage.BackendMemory:
		slog.Warn("using in-memory session storage (not for production!)")
		return storage.NewMemoryStore(), nil, nil
	case storage.BackendPostgres:
		db, err := openDB()
		if err != nil {
			return nil, nil, err
		}
		return storage.NewDatabaseStore(db), nil, nil
	case storage.BackendRedis:
		client, err := storage.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewRedisStore(client, cfg.Redis.KeyPrefix)
		return store, store, nil
	case storage.BackendBolt:
		store, err := storage.OpenBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", storage.ErrBackend, cfg.SessionBackend)
}

func openCatalog(ctx context.Context, cfg config.Config, openDB func() (*gorm.DB, error)) (dispatcher.Searcher, error) {
	if cfg.CatalogBackend == catalog.BackendOpenSearch {
		client, err := catalog.NewOpenSearchClient(ctx, cfg.OpenSearch)
		if err != nil {
			return nil, err
		}
		return catalog.NewOpenSearchSearcher(client, cfg.OpenSearch.Index), nil
	}
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	return catalog.NewGormSearcher(db), nil
}

func newNotifier(cfg config.Config, log *slog.Logger) (*services.TemplateService, error) {
	templates := services.DefaultTemplates(cfg.Templates)

	twilioService, err := services.NewTwilioService(cfg.Twilio, log)
	if errors.Is(err, services.ErrTwilioNotConfigured) {
		log.Warn("Twilio credentials not found, outbound messages will only be logged")
		return services.NewTemplateService(services.NewLogSender(log), templates), nil
	}
	if err != nil {
		return nil, err
	}
	return services.NewTemplateService(twilioService, templates), nil
}

func healthChecks(store storage.SessionStore, searcher dispatcher.Searcher) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if p, ok := store.(storage.Pinger); ok {
		checks["sessions"] = p
	}
	if p, ok := searcher.(handlers.Pinger); ok {
		checks["catalog"] = p
	}
	return checks
}
