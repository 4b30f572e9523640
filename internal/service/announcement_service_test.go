package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/canannounce/canannounce/internal/config"
	"github.com/canannounce/canannounce/internal/dto"
	"github.com/canannounce/canannounce/pkg/canvas"
)

type announcementAPIStub struct {
	uploadURL string
	uploadErr error
	uploads   int

	created   []canvas.Announcement
	createErr error
}

func (s *announcementAPIStub) UploadCourseFile(_ context.Context, _ int, _ string, _ []byte) (string, error) {
	s.uploads++
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	return s.uploadURL, nil
}

func (s *announcementAPIStub) CreateAnnouncement(_ context.Context, _ int, ann canvas.Announcement) (canvas.CreatedAnnouncement, error) {
	if s.createErr != nil {
		return canvas.CreatedAnnouncement{}, s.createErr
	}
	s.created = append(s.created, ann)
	return canvas.CreatedAnnouncement{ID: 301, Title: ann.Title}, nil
}

func newWorkflow(t *testing.T, api *announcementAPIStub, cfg config.Config) *AnnouncementService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAnnouncementService(api, validate, config.Static(cfg), fixedClock(testNow), testLogger())
}

func baseRequest() dto.SubmitRequest {
	return dto.SubmitRequest{
		CourseID: 42,
		Title:    "Week 3 Update",
		Body:     "<p>Notes from class.</p>",
	}
}

func TestSubmitWarnsOnPlaceholderText(t *testing.T) {
	api := &announcementAPIStub{}
	svc := newWorkflow(t, api, testConfig())

	req := baseRequest()
	req.Body = "<p>ENTER BODY TEXT</p>"

	_, err := svc.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrPlaceholderBody)
	require.Empty(t, api.created)
	require.Zero(t, api.uploads)
}

func TestSubmitWarnsOnMissingAttachment(t *testing.T) {
	api := &announcementAPIStub{}
	svc := newWorkflow(t, api, testConfig())

	req := baseRequest()
	req.Title = "Week 3 Slides"

	_, err := svc.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrAttachmentMissing)
	require.Empty(t, api.created)

	// "deck" triggers the same heuristic.
	req.Title = "Lecture deck for Monday"
	_, err = svc.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrAttachmentMissing)
}

func TestSubmitForceBypassesWarnings(t *testing.T) {
	api := &announcementAPIStub{}
	svc := newWorkflow(t, api, testConfig())

	req := baseRequest()
	req.Title = "Week 3 Slides"
	req.Body = "<p>ENTER BODY TEXT</p>"
	req.ForceSubmit = true

	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, api.created, 1)
}

func TestSubmitReplacesPlaceholderAfterUpload(t *testing.T) {
	api := &announcementAPIStub{uploadURL: "https://files.example/slides.pdf"}
	svc := newWorkflow(t, api, testConfig())

	req := baseRequest()
	req.Body = "<p><a href='[FILE_URL_PLACEHOLDER]'>Today's slides are here</a></p><p>Also see [FILE_URL_PLACEHOLDER].</p>"
	req.Attachment = &dto.Attachment{Filename: "slides.pdf", Data: []byte("%PDF")}

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, api.uploads)
	require.Equal(t, "https://files.example/slides.pdf", result.FileURL)

	posted := api.created[0].Message
	require.NotContains(t, posted, "[FILE_URL_PLACEHOLDER]")
	require.Contains(t, posted, "<p><a href='https://files.example/slides.pdf'>Today's slides are here</a></p>")
	require.Contains(t, posted, "<p>Also see https://files.example/slides.pdf.</p>")
}

func TestSubmitRemovesPlaceholderParagraphWithoutFile(t *testing.T) {
	api := &announcementAPIStub{}
	svc := newWorkflow(t, api, testConfig())

	for _, body := range []string{
		"<p><a href='[FILE_URL_PLACEHOLDER]'>Today's slides are here</a></p>  <p>Real content.</p>",
		`<p><a href="[FILE_URL_PLACEHOLDER]">Today's slides are here</a></p>  <p>Real content.</p>`,
	} {
		api.created = nil

		req := baseRequest()
		req.Body = body
		req.ForceSubmit = true

		_, err := svc.Submit(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, "<p>Real content.</p>", api.created[0].Message)
	}
}

func TestSubmitUploadFailureAborts(t *testing.T) {
	api := &announcementAPIStub{uploadErr: canvas.ErrUploadTransfer}
	svc := newWorkflow(t, api, testConfig())

	req := baseRequest()
	req.Attachment = &dto.Attachment{Filename: "slides.pdf", Data: []byte("%PDF")}

	_, err := svc.Submit(context.Background(), req)
	require.ErrorIs(t, err, canvas.ErrUploadTransfer)
	require.Empty(t, api.created)
}

func TestSubmitDefaultScheduleIsThirtyDaysOut(t *testing.T) {
	api := &announcementAPIStub{}
	svc := newWorkflow(t, api, testConfig())

	result, err := svc.Submit(context.Background(), baseRequest())
	require.NoError(t, err)
	require.NotNil(t, result.DelayedPostAt)

	expected := testNow.UTC().Add(30 * 24 * time.Hour)
	require.WithinDuration(t, expected, *result.DelayedPostAt, 5*time.Second)
	require.Equal(t, result.DelayedPostAt, api.created[0].DelayedPostAt)
}

func TestSubmitExplicitPublishDateConvertsFromEntryOffset(t *testing.T) {
	api := &announcementAPIStub{}
	svc := newWorkflow(t, api, testConfig())

	req := baseRequest()
	req.PublishDate = "2025-03-01T09:00"

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result.DelayedPostAt)
	require.Equal(t, time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC), result.DelayedPostAt.UTC())
}

func TestSubmitBadPublishDate(t *testing.T) {
	api := &announcementAPIStub{}
	svc := newWorkflow(t, api, testConfig())

	req := baseRequest()
	req.PublishDate = "next tuesday"

	_, err := svc.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrBadPublishDate)
	require.Empty(t, api.created)
}

func TestSubmitImmediateWhenPublishNowEnabled(t *testing.T) {
	api := &announcementAPIStub{}
	cfg := testConfig()
	cfg.PublishNow = true
	svc := newWorkflow(t, api, cfg)

	result, err := svc.Submit(context.Background(), baseRequest())
	require.NoError(t, err)
	require.Nil(t, result.DelayedPostAt)
	require.Nil(t, api.created[0].DelayedPostAt)
	require.True(t, result.Shutdown)
}

func TestSubmitHonorsSavedSettingsWithoutRestart(t *testing.T) {
	store, err := config.NewSettingsStore(filepath.Join(t.TempDir(), "user_settings.json"))
	require.NoError(t, err)

	base := testConfig()
	api := &announcementAPIStub{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewAnnouncementService(api, validate, func() config.Config { return store.Apply(base) },
		fixedClock(testNow), testLogger())

	result, err := svc.Submit(context.Background(), baseRequest())
	require.NoError(t, err)
	require.True(t, result.Shutdown)

	require.NoError(t, store.Save([]byte(`{"shutdown_after_post": false}`)))

	result, err = svc.Submit(context.Background(), baseRequest())
	require.NoError(t, err)
	require.False(t, result.Shutdown)
}

func TestSubmitPostFailurePropagates(t *testing.T) {
	api := &announcementAPIStub{createErr: errors.New("canvas: announcement creation failed: status 400: title too long")}
	svc := newWorkflow(t, api, testConfig())

	_, err := svc.Submit(context.Background(), baseRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "title too long")
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	api := &announcementAPIStub{}
	svc := newWorkflow(t, api, testConfig())

	_, err := svc.Submit(context.Background(), dto.SubmitRequest{CourseID: 0, Title: "", Body: ""})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	require.Empty(t, api.created)
}
