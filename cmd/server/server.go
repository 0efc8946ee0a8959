package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"

	_ "github.com/ShivaprasadMurashillin/LexDash/docs"
	"github.com/ShivaprasadMurashillin/LexDash/internal/analytics"
	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/billing"
	"github.com/ShivaprasadMurashillin/LexDash/internal/calendar"
	"github.com/ShivaprasadMurashillin/LexDash/internal/cascade"
	"github.com/ShivaprasadMurashillin/LexDash/internal/cases"
	"github.com/ShivaprasadMurashillin/LexDash/internal/clients"
	"github.com/ShivaprasadMurashillin/LexDash/internal/counters"
	"github.com/ShivaprasadMurashillin/LexDash/internal/documents"
	"github.com/ShivaprasadMurashillin/LexDash/internal/identifiers"
	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/cache"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
	"github.com/ShivaprasadMurashillin/LexDash/internal/search"
	"github.com/ShivaprasadMurashillin/LexDash/internal/storage"
	"github.com/ShivaprasadMurashillin/LexDash/internal/tasks"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/config"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context, cfg config.Config) error {
	log := newLogger(cfg)
	defer log.Sync()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	auth.TokenTTL = cfg.JWTTTL

	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}

	var rc cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		if c, err := cache.NewRedis(log, m, cfg.RedisAddr, cfg.AnalyticsTTL); err != nil {
			log.Warn("redis unavailable, analytics cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			rc = c
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler(log),
		BodyLimit:    2 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(m.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)
	if m != nil {
		app.Get("/metrics", m.Handler())
	}

	// Engines
	ids := identifiers.New(db, cfg.Location, log, m)
	cascades := cascade.New(db, store, log, m)
	notify := notifications.NewEmitter(db, log, m, rc)

	api := app.Group("/api")

	// Auth
	authH := auth.NewHandler(db)
	api.Post("/signup", authH.Signup)
	api.Post("/login", authH.Login)

	api.Use(auth.RequireAuth())
	api.Get("/me", authH.Me)

	// Clients
	clientH := clients.NewHandler(db, cascades, notify)
	api.Get("/clients", clientH.List)
	api.Post("/clients", clientH.Create)
	api.Get("/clients/:id", clientH.Get)
	api.Put("/clients/:id", clientH.Update)
	api.Delete("/clients/:id", clientH.Delete)

	// Cases
	caseH := cases.NewHandler(db, ids, cascades, notify, cfg.Location)
	api.Get("/cases", caseH.List)
	api.Post("/cases", caseH.Create)
	api.Get("/cases/:id", caseH.Get)
	api.Put("/cases/:id", caseH.Update)
	api.Delete("/cases/:id", caseH.Delete)

	// Documents
	docH := documents.NewHandler(db, store, notify, log, m)
	api.Get("/documents", docH.List)
	api.Post("/documents", docH.Create)
	api.Get("/documents/:id", docH.Get)
	api.Put("/documents/:id", docH.Update)
	api.Delete("/documents/:id", docH.Delete)

	// Tasks
	taskH := tasks.NewHandler(db, notify)
	api.Get("/tasks", taskH.List)
	api.Post("/tasks", taskH.Create)
	api.Get("/tasks/:id", taskH.Get)
	api.Put("/tasks/:id", taskH.Update)
	api.Delete("/tasks/:id", taskH.Delete)

	// Billing (static paths before /:id)
	billH := billing.NewHandler(db, billing.NewService(db, ids), notify, cfg.Location)
	api.Get("/billing", billH.List)
	api.Get("/billing/summary", billH.Summary)
	api.Post("/billing", billH.Create)
	api.Get("/billing/:id", billH.Get)
	api.Put("/billing/:id/pay", billH.MarkPaid)
	api.Put("/billing/:id", billH.Update)
	api.Delete("/billing/:id", billH.Delete)

	// Notifications
	notifH := notifications.NewHandler(db, log, notify)
	api.Get("/notifications", notifH.List)
	api.Put("/notifications/mark-all-read", notifH.MarkAllRead)
	api.Put("/notifications/:id/read", notifH.MarkRead)
	api.Delete("/notifications", notifH.ClearAll)

	// Read models
	statsH := analytics.NewHandler(analytics.New(db, cfg.Location, rc, log))
	api.Get("/stats", statsH.Stats)
	api.Get("/analytics", statsH.Analytics)
	api.Get("/search", search.NewHandler(db).Search)
	api.Get("/calendar", calendar.NewHandler(db, cfg.Location).Events)

	// Maintenance
	api.Post("/maintenance/recount-active-cases",
		auth.RequireRole(models.RoleAdmin), counters.NewHandler(db, log).Recount)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv, "db", cfg.DatabaseDriver, "storage", cfg.StorageDriver)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(sctx)
	}
}
