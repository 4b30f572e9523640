package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/canannounce/canannounce/internal/dto"
	"github.com/canannounce/canannounce/internal/handler"
	"github.com/canannounce/canannounce/internal/service"
	"github.com/canannounce/canannounce/internal/utils"
	"github.com/canannounce/canannounce/pkg/canvas"
)

type mockSubmitter struct {
	lastRequest dto.SubmitRequest
	result      dto.SubmitResult
	err         error
	calls       int
}

func (m *mockSubmitter) Submit(_ context.Context, req dto.SubmitRequest) (dto.SubmitResult, error) {
	m.calls++
	m.lastRequest = req
	if m.err != nil {
		return dto.SubmitResult{}, m.err
	}
	return m.result, nil
}

type mockScheduler struct {
	armed int
}

func (m *mockScheduler) Arm() { m.armed++ }

func newSubmitApp(t *testing.T, svc *mockSubmitter, scheduler *mockScheduler) *fiber.App {
	t.Helper()
	app := fiber.New()
	handler.NewAnnounceHandler(svc, scheduler, zerolog.New(io.Discard)).Register(app)
	return app
}

func submitForm(t *testing.T, fields map[string]string, filename string, fileData []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/submit", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAnnounceHandler_Success(t *testing.T) {
	svc := &mockSubmitter{result: dto.SubmitResult{AnnouncementID: 301, FileURL: "https://files.example/slides.pdf", Shutdown: true}}
	scheduler := &mockScheduler{}
	app := newSubmitApp(t, svc, scheduler)

	req := submitForm(t, map[string]string{
		"course_id":    "42",
		"title":        "Week 3 Slides",
		"body":         "<p>ready</p>",
		"publish_date": "2025-03-01T09:00",
	}, "slides.pdf", []byte("%PDF"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body utils.APIResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "Announcement submitted successfully!", body.Message)

	require.Equal(t, 42, svc.lastRequest.CourseID)
	require.Equal(t, "2025-03-01T09:00", svc.lastRequest.PublishDate)
	require.NotNil(t, svc.lastRequest.Attachment)
	require.Equal(t, "slides.pdf", svc.lastRequest.Attachment.Filename)
	require.Equal(t, []byte("%PDF"), svc.lastRequest.Attachment.Data)
	require.Equal(t, 1, scheduler.armed)
}

func TestAnnounceHandler_NoShutdownWhenDisabled(t *testing.T) {
	svc := &mockSubmitter{result: dto.SubmitResult{AnnouncementID: 301, Shutdown: false}}
	scheduler := &mockScheduler{}
	app := newSubmitApp(t, svc, scheduler)

	resp, err := app.Test(submitForm(t, map[string]string{"course_id": "42", "title": "t", "body": "b"}, "", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Zero(t, scheduler.armed)
}

func TestAnnounceHandler_PlaceholderWarning(t *testing.T) {
	svc := &mockSubmitter{err: service.ErrPlaceholderBody}
	app := newSubmitApp(t, svc, &mockScheduler{})

	resp, err := app.Test(submitForm(t, map[string]string{
		"course_id": "42",
		"title":     "Week 3 Update",
		"body":      "<p>ENTER BODY TEXT</p>",
	}, "", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body utils.APIResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Warning)
	require.False(t, body.Success)
	require.Contains(t, body.Message, "placeholder text")
}

func TestAnnounceHandler_AttachmentWarning(t *testing.T) {
	svc := &mockSubmitter{err: service.ErrAttachmentMissing}
	app := newSubmitApp(t, svc, &mockScheduler{})

	resp, err := app.Test(submitForm(t, map[string]string{
		"course_id": "42",
		"title":     "Week 3 Slides",
		"body":      "<p>ready</p>",
	}, "", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body utils.APIResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Warning)
	require.Contains(t, body.Message, "no file was uploaded")
}

func TestAnnounceHandler_ForceSubmitForwarded(t *testing.T) {
	svc := &mockSubmitter{result: dto.SubmitResult{AnnouncementID: 301}}
	app := newSubmitApp(t, svc, &mockScheduler{})

	resp, err := app.Test(submitForm(t, map[string]string{
		"course_id":    "42",
		"title":        "Week 3 Slides",
		"body":         "<p>ready</p>",
		"force_submit": "true",
	}, "", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, svc.lastRequest.ForceSubmit)
}

func TestAnnounceHandler_InvalidCourseID(t *testing.T) {
	svc := &mockSubmitter{}
	app := newSubmitApp(t, svc, &mockScheduler{})

	resp, err := app.Test(submitForm(t, map[string]string{"course_id": "oops", "title": "t", "body": "b"}, "", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.calls)
}

func TestAnnounceHandler_UpstreamErrorsMapToBadGateway(t *testing.T) {
	for _, upstream := range []error{canvas.ErrUploadInit, canvas.ErrUploadTransfer, canvas.ErrUploadFinalize, canvas.ErrPost} {
		svc := &mockSubmitter{err: upstream}
		app := newSubmitApp(t, svc, &mockScheduler{})

		resp, err := app.Test(submitForm(t, map[string]string{"course_id": "42", "title": "t", "body": "b"}, "", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

		var body utils.APIResponse
		decodeResponse(t, resp, &body)
		require.Contains(t, body.Message, "canvas:")
	}
}

func TestAnnounceHandler_AuthError(t *testing.T) {
	svc := &mockSubmitter{err: canvas.ErrAuth}
	app := newSubmitApp(t, svc, &mockScheduler{})

	resp, err := app.Test(submitForm(t, map[string]string{"course_id": "42", "title": "t", "body": "b"}, "", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
