package response

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, handler fiber.Handler) (int, Response) {
	t.Helper()
	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out Response
	require.NoError(t, sonic.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestSuccess(t *testing.T) {
	status, out := call(t, func(c *fiber.Ctx) error {
		return Success(c, map[string]string{"k": "v"})
	})
	assert.Equal(t, 200, status)
	assert.Equal(t, CodeSuccess, out.Code)
	assert.Equal(t, MsgSuccess, out.Message)
	assert.Equal(t, map[string]any{"k": "v"}, out.Data)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		message     string
		wantStatus  int
		wantMessage string
	}{
		{"explicit", 401, "login required", 401, "login required"},
		{"not found default", 404, "", 404, MsgNotFound},
		{"standard text", 418, "", 418, "I'm a teapot"},
		{"out of range", 42, "", 500, MsgServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := call(t, func(c *fiber.Ctx) error {
				return Fail(c, tt.status, tt.message)
			})
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantStatus, out.Code)
			assert.Equal(t, tt.wantMessage, out.Message)
			assert.Nil(t, out.Data)
		})
	}
}
