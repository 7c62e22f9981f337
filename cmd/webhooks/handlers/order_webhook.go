package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/atelierclub/drops/cmd/webhooks/middleware"
	"github.com/atelierclub/drops/cmd/webhooks/models"
	"github.com/atelierclub/drops/cmd/webhooks/service"
	"github.com/atelierclub/drops/common/clients"
	"github.com/atelierclub/drops/common/logger"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderTopic identifies the commerce-platform event type
	HeaderTopic = "X-Shopify-Topic"

	// HeaderHmac carries the base64 HMAC-SHA256 of the raw body
	HeaderHmac = "X-Shopify-Hmac-Sha256"

	// TopicOrdersCreate and TopicOrdersPaid are the only topics reconciled
	TopicOrdersCreate = "orders/create"
	TopicOrdersPaid   = "orders/paid"
)

// OrderWebhookHandler handles inbound Shopify order webhooks
type OrderWebhookHandler struct {
	verifier   *service.SignatureVerifier
	reconciler *service.Reconciler
	mailer     *service.Mailer
	shopDomain string
	log        *logger.Logger
}

// NewOrderWebhookHandler creates a new order webhook handler.
// shopDomain is optional; when set, events from other shops are rejected.
func NewOrderWebhookHandler(
	verifier *service.SignatureVerifier,
	reconciler *service.Reconciler,
	mailer *service.Mailer,
	shopDomain string,
	log *logger.Logger,
) *OrderWebhookHandler {
	return &OrderWebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		mailer:     mailer,
		shopDomain: shopDomain,
		log:        log,
	}
}

// HandleOrder processes one order webhook delivery
// POST /webhooks/shopify/orders
//
// Pipeline: verify signature -> filter topic -> reconcile -> notify -> respond.
// Per-line-item failures are reported in the 200 response body; only a bad
// signature (401) or an unparseable payload (500) aborts the request.
func (h *OrderWebhookHandler) HandleOrder(c echo.Context) error {
	req := c.Request()

	// The signature covers the raw bytes, so the body is read before any parsing
	body, err := io.ReadAll(req.Body)
	if err != nil {
		h.log.Error("failed to read webhook body", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Internal server error",
			"message": err.Error(),
		})
	}

	if !h.verifier.Verify(body, req.Header.Get(HeaderHmac)) {
		h.log.Warn("webhook signature verification failed", "shop", middleware.GetShopDomain(c))
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error": "Invalid signature",
		})
	}

	if shop := middleware.GetShopDomain(c); h.shopDomain != "" && shop != h.shopDomain {
		h.log.Warn("webhook from unexpected shop domain", "shop", shop)
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error": "Unknown shop domain",
		})
	}

	topic := req.Header.Get(HeaderTopic)
	if topic != TopicOrdersCreate && topic != TopicOrdersPaid {
		h.log.Debug("ignoring webhook topic", "topic", topic)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": "Ignored topic",
		})
	}

	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.Error("failed to parse order payload", "topic", topic, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Internal server error",
			"message": err.Error(),
		})
	}

	ctx := req.Context()
	if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
		ctx = clients.WithRequestID(ctx, requestID)
	}

	result := h.reconciler.ProcessOrder(ctx, &event)

	// Best effort: the mailer logs and swallows its own failures
	h.mailer.SendOrderSummary(ctx, &event, result)

	response := map[string]interface{}{
		"success":     true,
		"orderId":     result.OrderID,
		"orderNumber": result.OrderNumber,
		"memberFound": result.MemberFound,
		"updates":     result.Outcomes,
	}
	if result.Redelivery {
		response["redelivery"] = true
	}

	return c.JSON(http.StatusOK, response)
}
