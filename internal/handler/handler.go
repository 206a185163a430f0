package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/pkg/assets"
	"github.com/sajib9090/restaurant-management-backend/pkg/config"
	"github.com/sajib9090/restaurant-management-backend/pkg/mailer"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

// Package-level collaborators, wired once at startup.
var (
	cfg        *config.Config
	authorizer *authz.Authorizer
	mail       mailer.Mailer
	assetStore assets.Store
)

// Init wires the handler package's collaborators.
func Init(c *config.Config, a *authz.Authorizer, m mailer.Mailer, s assets.Store) {
	cfg = c
	authorizer = a
	mail = m
	assetStore = s
}

// HealthCheck reports service liveness.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Server is running",
	})
}

// MetricsHandler serves the Prometheus metrics endpoint.
func MetricsHandler(c echo.Context) error {
	return prometheus.HandlerFunc()(c)
}
