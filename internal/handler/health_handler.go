package handler

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/canannounce/canannounce/internal/config"
	"github.com/canannounce/canannounce/internal/utils"
)

// HealthResponse reports liveness plus the Canvas instance the tool is
// pointed at and how many user settings overrides are active.
type HealthResponse struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	Service           string    `json:"service"`
	Environment       string    `json:"environment"`
	CanvasHost        string    `json:"canvas_host"`
	SettingsOverrides int       `json:"settings_overrides"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, settings *config.SettingsStore) fiber.Handler {
	host := cfg.CanvasBaseURL
	if parsed, err := url.Parse(cfg.CanvasBaseURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	return func(c *fiber.Ctx) error {
		overrides := 0
		if settings != nil {
			overrides = len(settings.Values())
		}

		payload := HealthResponse{
			Status:            "ok",
			Timestamp:         time.Now().UTC(),
			Service:           cfg.AppName,
			Environment:       cfg.AppEnv,
			CanvasHost:        host,
			SettingsOverrides: overrides,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
