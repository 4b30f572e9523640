package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/canannounce/canannounce/internal/config"
	"github.com/canannounce/canannounce/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler   *handler.CourseHandler
	AnnounceHandler *handler.AnnounceHandler
	SettingsHandler *handler.SettingsHandler
	Settings        *config.SettingsStore
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/api/v1/health", handler.HealthCheck(cfg, deps.Settings))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(app)
	}
	if deps.AnnounceHandler != nil {
		deps.AnnounceHandler.Register(app)
	}
	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(app)
	}
}
