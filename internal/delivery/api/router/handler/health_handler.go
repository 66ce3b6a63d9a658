// Package handler contains the plain HTTP handlers served next to the GraphQL endpoint.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"intuitive/internal/delivery/api/response"
)

// HealthCheck reports that the process is serving.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
