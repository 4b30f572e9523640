package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/canannounce/canannounce/internal/config"
	"github.com/canannounce/canannounce/internal/utils"
)

// SettingsHandler exposes the user settings override file. Sensitive
// values (token, base URL) never pass through these endpoints; they can
// only come from the environment.
type SettingsHandler struct {
	defaults config.Config
	store    *config.SettingsStore
	logger   zerolog.Logger
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(defaults config.Config, store *config.SettingsStore, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		defaults: defaults,
		store:    store,
		logger:   logger.With().Str("component", "settings_handler").Logger(),
	}
}

// Register wires the settings routes.
func (h *SettingsHandler) Register(app fiber.Router) {
	app.Get("/api/settings", h.get)
	app.Put("/api/settings", h.save)
	app.Post("/api/settings/reset", h.reset)
}

func (h *SettingsHandler) get(c *fiber.Ctx) error {
	effective := h.store.Apply(h.defaults)

	return utils.SendSuccess(c, "settings retrieved", fiber.Map{
		"effective": fiber.Map{
			"publish_now":           effective.PublishNow,
			"lookahead_days":        effective.LookaheadDays,
			"include_quiz_question": effective.IncludeQuizQuestion,
			"quiz_prompt":           effective.QuizPrompt,
			"default_course_id":     effective.DefaultCourseID,
			"shutdown_after_post":   effective.ShutdownAfterPost,
		},
		"overrides": h.store.Values(),
	})
}

func (h *SettingsHandler) save(c *fiber.Ctx) error {
	if err := h.store.Save(c.Body()); err != nil {
		if errors.Is(err, config.ErrInvalidSettings) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to save settings")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save settings")
	}

	return utils.SendSuccess(c, "settings saved", h.store.Values())
}

func (h *SettingsHandler) reset(c *fiber.Ctx) error {
	if err := h.store.Reset(); err != nil {
		h.logger.Error().Err(err).Msg("failed to reset settings")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to reset settings")
	}

	return utils.SendSuccess(c, "settings reset", nil)
}
