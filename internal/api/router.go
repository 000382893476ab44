package api

import (
	"time"

	"expense-bot/docs"
	"expense-bot/internal/api/handlers"
	"expense-bot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

const WebhookPath = "/api/webhook"

type RouterConfig struct {
	AppSecret    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Swagger      bool
}

func SetupRouter(webhookHandler *handlers.WebhookHandler, cfg RouterConfig, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(appLogger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	if cfg.Swagger {
		_ = docs.SwaggerInfo // registers the swagger doc through init()
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.All(WebhookPath, middleware.SignatureMiddleware(cfg.AppSecret, appLogger), webhookHandler.Handle)

	return app
}
