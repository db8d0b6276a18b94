package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	gateway "github.com/nimasrn/donation-gateway/internal/gateways"
	"github.com/nimasrn/donation-gateway/internal/services"
	xhttp "github.com/nimasrn/donation-gateway/pkg/http"
	"github.com/nimasrn/donation-gateway/pkg/logger"
)

type WebhookService interface {
	HandleNotification(ctx context.Context, p *gateway.NotificationPayload) error
}

type WebhookHandler struct {
	svc WebhookService
}

func RegisterWebhookRoutes(e *router.Group, h *WebhookHandler) {
	e.POST("/payments/notification", h.HandleNotification)
}

func NewWebhookHandler(webhookService WebhookService) *WebhookHandler {
	return &WebhookHandler{
		svc: webhookService,
	}
}

// HandleNotification always acks with 200 once the notification is
// authenticated, even when it arrives out of order. Non-200 answers make
// the provider retry forever.
func (h *WebhookHandler) HandleNotification(ctx *xhttp.RequestCtx) {
	var payload gateway.NotificationPayload
	if err := readJSON(ctx, &payload); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	err := h.svc.HandleNotification(ctx, &payload)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			writeError(ctx, 403, err.Error())
			return
		}
		if errors.Is(err, services.ErrInvalidState) {
			logger.Warn("Notification raced with a conflicting transition",
				"order_id", payload.OrderID,
				"transaction_status", payload.TransactionStatus,
			)
			writeJSON(ctx, 200, map[string]string{"status": "ok"})
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}

	writeJSON(ctx, 200, map[string]string{"status": "ok"})
}
