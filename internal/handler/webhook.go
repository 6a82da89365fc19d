package handler

import (
	"net/http"

	"membership-bot/internal/dto"
	"membership-bot/internal/model"
	"membership-bot/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type WebhookHandler struct {
	webhookService service.WebhookService
	log            logrus.FieldLogger
}

func NewWebhookHandler(webhookService service.WebhookService, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		log:            log,
	}
}

// MidtransNotification acknowledges every handled or ignored notification with 200
// and answers 500 when the notification could not be handed off.
func (h *WebhookHandler) MidtransNotification(c echo.Context) error {
	ctx := c.Request().Context()

	var notification model.MidtransNotification
	if err := c.Bind(&notification); err != nil {
		return c.JSON(http.StatusBadRequest, dto.WebhookResponse{
			Status:  "error",
			Message: "invalid notification body",
		})
	}

	if err := h.webhookService.HandleNotification(ctx, &notification); err != nil {
		if service.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, dto.WebhookResponse{
				Status:  "error",
				Message: err.Error(),
			})
		}

		h.log.WithError(err).WithField("order_id", notification.OrderID).Error("handle payment notification")
		return c.JSON(http.StatusInternalServerError, dto.WebhookResponse{
			Status:  "error",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, dto.WebhookResponse{Status: "success"})
}
