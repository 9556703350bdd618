package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestEnvelopes(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/ok", func(c *fiber.Ctx) error { return Success(c, fiber.Map{"id": 1}) })
	app.Get("/created", func(c *fiber.Ctx) error { return Created(c, "", nil) })
	app.Get("/missing", func(c *fiber.Ctx) error { return NotFound(c, "lesson not found") })
	app.Get("/page", func(c *fiber.Ctx) error { return Paginated(c, []int{1, 2}, 2, 2, 3, 6) })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "S200", body["code"])
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["id"])

	resp, err = app.Test(httptest.NewRequest("GET", "/created", nil))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "S201", decode(t, resp.Body)["code"])

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	body = decode(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "E404", body["code"])
	assert.Equal(t, "lesson not found", body["message"])

	resp, err = app.Test(httptest.NewRequest("GET", "/page", nil))
	require.NoError(t, err)
	data := decode(t, resp.Body)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["currentPage"])
	assert.Equal(t, float64(3), data["totalPages"])
	assert.Equal(t, float64(6), data["totalRecords"])
	assert.Len(t, data["data"], 2)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "E500", decode(t, resp.Body)["code"])

	resp, err = app.Test(httptest.NewRequest("GET", "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "E404", decode(t, resp.Body)["code"])
}
