// Package server assembles the HTTP application from its handlers.
package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/config"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/handlers"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/accounts"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/jobs"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/ledger"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/pages"
)

type Deps struct {
	Config   config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Redis    *redis.Client // optional
	Hub      *realtime.Hub
	Accounts *accounts.AccountService
	Jobs     *jobs.JobService
	Ledger   *ledger.LedgerService
	Pages    *pages.PageService
}

func New(d Deps) *fiber.App {
	cfg := d.Config
	bodyLimit := cfg.BodyLimitMB << 20
	if floor := (cfg.MaxResumeMB + 1) << 20; bodyLimit < floor {
		bodyLimit = floor
	}

	app := fiber.New(fiber.Config{
		AppName:      "jobshare",
		BodyLimit:    bodyLimit,
		ErrorHandler: handlers.ErrorHandler(d.Logger),
	})

	app.Use(recover.New())
	origins := normalizeOrigins(cfg.CORSOrigins)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length, Content-Disposition",
		AllowCredentials: origins != "*",
	}))
	app.Use(middleware.RequestLogger(d.Logger))

	protect := middleware.Protect(d.Accounts)
	secure := cfg.IsProduction()

	health := &handlers.HealthHandler{DB: d.DB, Redis: d.Redis}
	app.Get("/api/health", health.Check)

	api := app.Group("/api")
	handlers.NewAuthHandler(d.Accounts, d.Jobs, d.Ledger, cfg.JWTExpiresMin, secure).Routes(api, protect)
	google := &handlers.GoogleOAuthHandler{
		Accounts:        d.Accounts,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
		SecureCookie:    secure,
		Logger:          d.Logger,
	}
	google.Routes(api)
	handlers.NewUserHandler(d.Accounts, d.Jobs, d.Ledger).Routes(api, protect)
	handlers.NewJobHandler(d.Jobs).Routes(api, protect)
	handlers.NewCategoryHandler(d.Jobs).Routes(api)
	handlers.NewApplicationHandler(d.Ledger).Routes(api, protect)
	handlers.NewPageHandler(d.Pages).Routes(api, protect)

	if d.Hub != nil {
		handlers.NewNotificationHandler(d.Hub, d.Logger).Routes(app, protect)
	}

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})
	return app
}

// normalizeOrigins accepts a comma separated list with or without spaces.
func normalizeOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
