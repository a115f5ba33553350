package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Sherrmann013/OktaDeploy1-sub002/pkg/logger"
)

// AdminKeyMiddleware guards the remote administration API. Requests must
// carry "Authorization: Admin <key>" matching the statically configured key.
func AdminKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			if apiKey == "" {
				log.Error("Admin API key not configured, rejecting request")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "admin API disabled"})
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header on admin endpoint")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authorization required"})
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Admin" {
				log.Warn("Malformed admin authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format"})
			}

			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(apiKey)) != 1 {
				log.Warn("Invalid admin API key", zap.String("path", c.Request().URL.Path))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid admin key"})
			}

			return next(c)
		}
	}
}
