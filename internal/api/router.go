package api

import (
	"agrimono/internal/api/handlers"
	"agrimono/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	datasetHandler *handlers.DatasetHandler,
	chatHandler *handlers.ChatHandler,
	reportHandler *handlers.ReportHandler,
	settingsHandler *handlers.SettingsHandler,
	adminToken string,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Admin-Token",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	datasets := api.Group("/datasets")
	datasets.Get("", datasetHandler.ListDatasets)
	datasets.Get("/:id/summary", datasetHandler.GetSummary)
	datasets.Post("/:id/select", datasetHandler.SelectDataset)
	datasets.Post("/:id/reload", datasetHandler.ReloadDataset)

	api.Post("/chat", chatHandler.Chat)
	api.Get("/report", reportHandler.GetReport)

	settings := api.Group("/settings", middleware.AdminMiddleware(adminToken, appLogger))
	settings.Get("/credentials", settingsHandler.GetCredentials)
	settings.Put("/credentials", settingsHandler.UpdateCredentials)

	return app
}
