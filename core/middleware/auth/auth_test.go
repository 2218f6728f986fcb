package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/games/today", func(c *fiber.Ctx) error { return c.SendString("games") })
	return app
}

func TestAuth(t *testing.T) {
	app := newApp(Config{ApiKey: "secret", Skip: []string{"/healthz"}})

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"MissingKey", "/games/today", "", fiber.StatusUnauthorized},
		{"WrongKey", "/games/today", "nope", fiber.StatusUnauthorized},
		{"ValidHeader", "/games/today", "secret", fiber.StatusOK},
		{"ValidQuery", "/games/today?api_key=secret", "", fiber.StatusOK},
		{"SkippedPath", "/healthz", "", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	app := newApp(Config{})
	resp, err := app.Test(httptest.NewRequest("GET", "/games/today", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
