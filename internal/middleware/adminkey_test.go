package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAdminKey(t *testing.T, apiKey, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "pong"})
	}
	err := AdminKeyMiddleware(apiKey)(next)(c)
	require.NoError(t, err)
	return rec
}

func TestAdminKeyAccepted(t *testing.T) {
	rec := runAdminKey(t, "topsecret", "Admin topsecret")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminKeyMissingHeader(t *testing.T) {
	rec := runAdminKey(t, "topsecret", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminKeyWrongScheme(t *testing.T) {
	rec := runAdminKey(t, "topsecret", "Bearer topsecret")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminKeyWrongKey(t *testing.T) {
	rec := runAdminKey(t, "topsecret", "Admin nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminKeyUnconfigured(t *testing.T) {
	// With no key configured the admin API is disabled outright.
	rec := runAdminKey(t, "", "Admin anything")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
