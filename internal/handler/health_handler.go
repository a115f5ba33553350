package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Sherrmann013/OktaDeploy1-sub002/prometheus"
)

// HealthCheck handles the process liveness endpoint. Aggregate health across
// client databases lives on the admin API instead.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "client-db-service",
	})
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
