package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/canannounce/canannounce/internal/config"
	"github.com/canannounce/canannounce/internal/dto"
	"github.com/canannounce/canannounce/internal/observability"
	"github.com/canannounce/canannounce/pkg/canvas"
)

// defaultPostDelay is how far in the future an announcement is scheduled
// when the user picked no date and immediate publishing is disabled.
const defaultPostDelay = 30 * 24 * time.Hour

// Recoverable validation warnings: the workflow stops without any network
// call and the user may resubmit with the force flag to proceed anyway.
var (
	ErrPlaceholderBody   = errors.New("your announcement still contains placeholder text, are you sure you want to submit?")
	ErrAttachmentMissing = errors.New("your announcement title mentions an attachment but no file was uploaded, are you sure you want to proceed?")
)

// ErrBadPublishDate indicates the publish date could not be parsed.
var ErrBadPublishDate = errors.New("invalid publish date format")

// slidesPattern is the attachment-mention heuristic: a title naming slides
// or a deck usually means a file was meant to be attached.
var slidesPattern = regexp.MustCompile(`(?i)\b(slides?|decks?)\b`)

// placeholderParagraphs match the default slide-link paragraph in both
// quoting forms so a forced no-attachment submit removes the dead link
// instead of publishing it.
var placeholderParagraphs = []*regexp.Regexp{
	regexp.MustCompile(`<p><a href='\[FILE_URL_PLACEHOLDER\]'>Today's slides are here</a></p>\s*`),
	regexp.MustCompile(`<p><a href="\[FILE_URL_PLACEHOLDER\]">Today's slides are here</a></p>\s*`),
}

// AnnouncementAPI is the slice of the Canvas client the submission
// workflow needs.
type AnnouncementAPI interface {
	UploadCourseFile(ctx context.Context, courseID int, filename string, data []byte) (string, error)
	CreateAnnouncement(ctx context.Context, courseID int, ann canvas.Announcement) (canvas.CreatedAnnouncement, error)
}

// AnnouncementService runs the submission workflow: validate, upload the
// attachment, substitute the placeholder, resolve the publish time and
// post. Every step is single-attempt; a failed post leaves any uploaded
// file orphaned in the course file store.
type AnnouncementService struct {
	api      AnnouncementAPI
	validate *validator.Validate
	cfg      config.Provider
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAnnouncementService constructs the submission workflow service. The
// config provider is consulted per submission so settings changes apply
// immediately.
func NewAnnouncementService(api AnnouncementAPI, validate *validator.Validate, cfg config.Provider, now func() time.Time, logger zerolog.Logger) *AnnouncementService {
	if now == nil {
		now = time.Now
	}
	return &AnnouncementService{
		api:      api,
		validate: validate,
		cfg:      cfg,
		now:      now,
		logger:   logger.With().Str("component", "announcement_service").Logger(),
	}
}

// Submit runs one announcement submission end to end. Warning sentinels
// (ErrPlaceholderBody, ErrAttachmentMissing) are returned before any
// network call is made; everything else is a hard failure with the
// upstream detail preserved.
func (s *AnnouncementService) Submit(ctx context.Context, req dto.SubmitRequest) (dto.SubmitResult, error) {
	cfg := s.cfg()
	start := s.now()
	outcome := "error"
	defer func() {
		observability.SubmitLatency().WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	if err := s.validate.Struct(req); err != nil {
		return dto.SubmitResult{}, err
	}

	if strings.Contains(req.Body, PlaceholderBodyText) && !req.ForceSubmit {
		observability.Warnings().WithLabelValues("placeholder_text").Inc()
		outcome = "warning"
		return dto.SubmitResult{}, ErrPlaceholderBody
	}

	if req.Attachment == nil && slidesPattern.MatchString(req.Title) && !req.ForceSubmit {
		observability.Warnings().WithLabelValues("missing_attachment").Inc()
		outcome = "warning"
		return dto.SubmitResult{}, ErrAttachmentMissing
	}

	body := req.Body
	fileURL := ""

	if req.Attachment != nil {
		url, err := s.api.UploadCourseFile(ctx, req.CourseID, req.Attachment.Filename, req.Attachment.Data)
		if err != nil {
			return dto.SubmitResult{}, fmt.Errorf("upload attachment: %w", err)
		}
		observability.UploadBytes().Add(float64(len(req.Attachment.Data)))
		fileURL = url
		body = strings.ReplaceAll(body, PlaceholderToken, url)
	} else {
		for _, pattern := range placeholderParagraphs {
			body = pattern.ReplaceAllString(body, "")
		}
	}

	delayedPostAt, err := s.resolvePublishTime(cfg, req.PublishDate)
	if err != nil {
		return dto.SubmitResult{}, err
	}

	created, err := s.api.CreateAnnouncement(ctx, req.CourseID, canvas.Announcement{
		Title:         req.Title,
		Message:       body,
		DelayedPostAt: delayedPostAt,
	})
	if err != nil {
		observability.Posts().WithLabelValues("error").Inc()
		return dto.SubmitResult{}, err
	}
	observability.Posts().WithLabelValues("ok").Inc()
	outcome = "ok"

	s.logger.Info().
		Int("course_id", req.CourseID).
		Int("announcement_id", created.ID).
		Bool("scheduled", delayedPostAt != nil).
		Msg("announcement submitted")

	return dto.SubmitResult{
		AnnouncementID: created.ID,
		FileURL:        fileURL,
		DelayedPostAt:  delayedPostAt,
		Shutdown:       cfg.ShutdownAfterPost,
	}, nil
}

// resolvePublishTime turns the raw form value into the delayed_post_at
// timestamp. An explicit value is interpreted at the configured fixed
// offset and converted to UTC; no value schedules 30 days out unless
// immediate publishing is enabled, in which case nil means "post now".
func (s *AnnouncementService) resolvePublishTime(cfg config.Config, raw string) (*time.Time, error) {
	if raw = strings.TrimSpace(raw); raw != "" {
		entered, err := time.ParseInLocation("2006-01-02T15:04", raw, cfg.EntryLocation())
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPublishDate, raw)
		}
		utc := entered.UTC()
		return &utc, nil
	}

	if !cfg.PublishNow {
		scheduled := s.now().UTC().Add(defaultPostDelay)
		return &scheduled, nil
	}

	return nil, nil
}
