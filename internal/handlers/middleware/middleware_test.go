package middleware

import (
	"net/http/httptest"
	"testing"

	"trialapi/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(m *metrics.Metrics) *fiber.App {
	mw := New(m)
	app := fiber.New()
	app.Use(mw.RequestID(), mw.Observe())
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFrom(c))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
	return app
}

func TestRequestID(t *testing.T) {
	app := newTestApp(metrics.New())

	tests := []struct {
		name     string
		header   string
		generate bool
	}{
		{name: "echoes caller id", header: "abc-123"},
		{name: "generates id", generate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/items/1", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			got := resp.Header.Get(HeaderRequestID)
			if tt.generate {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.header, got)
		})
	}
}

func TestObserve_RecordsRouteTemplate(t *testing.T) {
	m := metrics.New()
	app := newTestApp(m)

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/missing", "404")))
}
