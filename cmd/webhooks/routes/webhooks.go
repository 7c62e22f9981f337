package routes

import (
	"github.com/atelierclub/drops/cmd/webhooks/container"
	"github.com/atelierclub/drops/cmd/webhooks/handlers"
	"github.com/atelierclub/drops/cmd/webhooks/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterWebhookRoutes registers the commerce webhook routes
func RegisterWebhookRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewOrderWebhookHandler(
		c.Verifier,
		c.Reconciler,
		c.Mailer,
		c.Components.Config.Webhook.ShopDomain,
		c.Components.Logger,
	)

	webhooks := e.Group("/webhooks")
	webhooks.Use(middleware.ExtractShopDomain())
	{
		webhooks.POST("/shopify/orders", h.HandleOrder) // POST /webhooks/shopify/orders
	}
}
