package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLoginAndEmail(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordLogin(LoginSuccess)
	m.RecordLogin(LoginInvalidCredentials)
	m.RecordLogin(LoginInvalidCredentials)
	m.RecordEmail("verification", nil)
	m.RecordEmail("password_reset", errors.New("smtp down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues(LoginSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues(LoginInvalidCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Emails.WithLabelValues("verification", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Emails.WithLabelValues("password_reset", "failed")))
}

func TestNew_NilRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil).Signups.Inc()
		New(nil).Signups.Inc()
	})
}

func TestMiddleware(t *testing.T) {
	m := New(prometheus.NewRegistry())

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/items/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "204")))
}
