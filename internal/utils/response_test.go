package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/canannounce/canannounce/internal/utils"
)

func runEnvelope(t *testing.T, send func(c *fiber.Ctx) error) (*http.Response, utils.APIResponse) {
	t.Helper()

	app := fiber.New()
	app.Get("/", send)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestSendSuccess(t *testing.T) {
	resp, body := runEnvelope(t, func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "created", fiber.Map{"id": 7})
	})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
	require.False(t, body.Warning)
	require.Equal(t, "created", body.Message)
	require.Equal(t, map[string]any{"id": float64(7)}, body.Data)
}

func TestSendSuccessDefaultMessage(t *testing.T) {
	_, body := runEnvelope(t, func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "", nil)
	})
	require.Equal(t, "success", body.Message)
}

func TestSendWarning(t *testing.T) {
	resp, body := runEnvelope(t, func(c *fiber.Ctx) error {
		return utils.SendWarning(c, "are you sure?")
	})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, body.Warning)
	require.False(t, body.Success)
	require.Equal(t, "are you sure?", body.Message)
}

func TestSendError(t *testing.T) {
	resp, body := runEnvelope(t, func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusBadGateway, "upstream said no")
	})

	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	require.False(t, body.Success)
	require.Equal(t, "upstream said no", body.Message)
}
