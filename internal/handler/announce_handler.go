package handler

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/canannounce/canannounce/internal/dto"
	"github.com/canannounce/canannounce/internal/middleware"
	"github.com/canannounce/canannounce/internal/service"
	"github.com/canannounce/canannounce/internal/utils"
	"github.com/canannounce/canannounce/pkg/canvas"
)

// Warning texts surfaced to the form; the user confirms and resubmits with
// the force flag to proceed.
const (
	placeholderWarning = "Your announcement still contains placeholder text. Are you sure you want to submit?"
	attachmentWarning  = "Your announcement title mentions an attachment but no file was uploaded. Are you sure you want to proceed?"
)

// AnnouncementSubmitter runs the submission workflow.
type AnnouncementSubmitter interface {
	Submit(ctx context.Context, req dto.SubmitRequest) (dto.SubmitResult, error)
}

// ShutdownScheduler arms the deferred self-termination after a successful
// post. A nil scheduler disables the behavior.
type ShutdownScheduler interface {
	Arm()
}

// AnnounceHandler handles announcement form submissions.
type AnnounceHandler struct {
	service    AnnouncementSubmitter
	terminator ShutdownScheduler
	logger     zerolog.Logger
}

// NewAnnounceHandler constructs the handler.
func NewAnnounceHandler(service AnnouncementSubmitter, terminator ShutdownScheduler, logger zerolog.Logger) *AnnounceHandler {
	return &AnnounceHandler{
		service:    service,
		terminator: terminator,
		logger:     logger.With().Str("component", "announce_handler").Logger(),
	}
}

// Register wires the submit route.
func (h *AnnounceHandler) Register(app fiber.Router) {
	app.Post("/submit", h.submit)
}

func (h *AnnounceHandler) submit(c *fiber.Ctx) error {
	req, err := h.parseForm(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Submit(c.UserContext(), req)
	if err != nil {
		return h.sendFailure(c, err)
	}

	if result.Shutdown && h.terminator != nil {
		h.terminator.Arm()
	}

	return utils.SendSuccess(c, "Announcement submitted successfully!", result)
}

func (h *AnnounceHandler) parseForm(c *fiber.Ctx) (dto.SubmitRequest, error) {
	courseID, err := strconv.Atoi(strings.TrimSpace(c.FormValue("course_id")))
	if err != nil {
		return dto.SubmitRequest{}, errors.New("invalid course id")
	}

	req := dto.SubmitRequest{
		CourseID:    courseID,
		Title:       c.FormValue("title"),
		Body:        c.FormValue("body"),
		PublishDate: c.FormValue("publish_date"),
		ForceSubmit: strings.EqualFold(c.FormValue("force_submit"), "true"),
	}

	fileHeader, err := c.FormFile("file")
	if err == nil && fileHeader != nil && fileHeader.Filename != "" {
		file, err := fileHeader.Open()
		if err != nil {
			return dto.SubmitRequest{}, errors.New("could not read uploaded file")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return dto.SubmitRequest{}, errors.New("could not read uploaded file")
		}

		req.Attachment = &dto.Attachment{Filename: fileHeader.Filename, Data: data}
	}

	return req, nil
}

// sendFailure maps workflow errors onto the response envelope: recoverable
// warnings stay 200, user mistakes are 400, upstream rejections are 502
// with the upstream detail preserved for diagnosis.
func (h *AnnounceHandler) sendFailure(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.Is(err, service.ErrPlaceholderBody):
		return utils.SendWarning(c, placeholderWarning)
	case errors.Is(err, service.ErrAttachmentMissing):
		return utils.SendWarning(c, attachmentWarning)
	case errors.Is(err, service.ErrBadPublishDate), errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, canvas.ErrAuth):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, canvas.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, canvas.ErrUploadInit),
		errors.Is(err, canvas.ErrUploadTransfer),
		errors.Is(err, canvas.ErrUploadFinalize),
		errors.Is(err, canvas.ErrPost):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	default:
		h.logger.Error().Err(err).
			Str("correlation_id", middleware.GetCorrelationID(c)).
			Msg("announcement submission failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "announcement submission failed")
	}
}
