package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/canannounce/canannounce/internal/config"
	"github.com/canannounce/canannounce/internal/dto"
	"github.com/canannounce/canannounce/internal/utils"
	"github.com/canannounce/canannounce/internal/web"
)

// CourseProvider lists current courses and resolves course names.
type CourseProvider interface {
	CurrentCourses(ctx context.Context) ([]dto.CourseOption, error)
	CourseName(ctx context.Context, courseID int) (string, error)
}

// Composer builds the default announcement content for a course.
type Composer interface {
	Compose(ctx context.Context, courseID int, courseName string) dto.ComposerView
}

// CourseHandler serves the course selection screen, the composer form and
// the JSON course list.
type CourseHandler struct {
	courses  CourseProvider
	composer Composer
	cfg      config.Provider
	logger   zerolog.Logger
}

// NewCourseHandler constructs the handler. A configured default course
// skips the selection screen and opens the composer directly.
func NewCourseHandler(courses CourseProvider, composer Composer, cfg config.Provider, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses:  courses,
		composer: composer,
		cfg:      cfg,
		logger:   logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register wires the course routes.
func (h *CourseHandler) Register(app fiber.Router) {
	app.Get("/", h.index)
	app.Get("/api/courses", h.list)
}

// index renders the course selection screen, or the composer form when a
// course_id query parameter is present.
func (h *CourseHandler) index(c *fiber.Ctx) error {
	rawID := strings.TrimSpace(c.Query("course_id"))
	if rawID == "" {
		rawID = strings.TrimSpace(h.cfg().DefaultCourseID)
	}
	if rawID == "" {
		return h.selectCourse(c)
	}

	courseID, err := strconv.Atoi(rawID)
	if err != nil || courseID <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	courseName := strings.TrimSpace(c.Query("course_name"))
	if courseName == "" {
		name, err := h.courses.CourseName(c.UserContext(), courseID)
		if err != nil {
			h.logger.Warn().Err(err).Int("course_id", courseID).Msg("course name lookup failed")
			courseName = "Unnamed Course"
		} else {
			courseName = name
		}
	}

	view := h.composer.Compose(c.UserContext(), courseID, courseName)

	page, err := web.Render("composer.html", view)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to render composer")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to render composer")
	}

	c.Type("html", "utf-8")
	return c.SendString(page)
}

func (h *CourseHandler) selectCourse(c *fiber.Ctx) error {
	courses, err := h.courses.CurrentCourses(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list courses")
		return utils.SendError(c, fiber.StatusBadGateway, "failed to list courses: "+err.Error())
	}

	page, err := web.Render("select_course.html", fiber.Map{"Courses": courses})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to render course selection")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to render course selection")
	}

	c.Type("html", "utf-8")
	return c.SendString(page)
}

// list returns the filtered course list as JSON.
func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.courses.CurrentCourses(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list courses")
		return utils.SendError(c, fiber.StatusBadGateway, "failed to list courses: "+err.Error())
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}
