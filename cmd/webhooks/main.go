package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/atelierclub/drops/cmd/webhooks/container"
	"github.com/atelierclub/drops/cmd/webhooks/repository"
	"github.com/atelierclub/drops/cmd/webhooks/routes"
	"github.com/atelierclub/drops/common/bootstrap"
	"github.com/atelierclub/drops/common/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, Redis)
	components, err := bootstrap.Setup(ctx, "webhooks",
		bootstrap.WithDBInitHook(repository.EnsureSchema),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap webhooks service: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)

	// Setup health check
	setupHealthCheck(e, components)

	// Register all routes
	routes.RegisterWebhookRoutes(e, serviceContainer)

	// Start server with graceful shutdown
	srv := server.New("webhooks", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "degraded",
				"service": "webhooks",
				"error":   err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "webhooks",
		})
	})
}
