package service

import (
	"context"
	"fmt"

	"membership-bot/internal/model"
	"membership-bot/internal/observability"

	"github.com/sirupsen/logrus"
)

// Dispatcher hands work over to the chat platform's own execution context.
type Dispatcher interface {
	EnqueueResolve(ctx context.Context, orderID string) error
	EnqueuePaymentFailed(ctx context.Context, orderID, transactionStatus string) error
}

type WebhookService interface {
	HandleNotification(ctx context.Context, n *model.MidtransNotification) error
}

type webhookServiceImpl struct {
	dispatcher Dispatcher
	metrics    *observability.Metrics
	log        logrus.FieldLogger
}

func NewWebhookService(dispatcher Dispatcher, metrics *observability.Metrics, log logrus.FieldLogger) WebhookService {
	return &webhookServiceImpl{
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log,
	}
}

// HandleNotification routes a gateway notification. Settled or fraud-accepted
// captures are resolved before it returns; failures are queued so the buyer hears
// about them; everything else is acknowledged without action.
func (s *webhookServiceImpl) HandleNotification(ctx context.Context, n *model.MidtransNotification) error {
	if n.OrderID == "" {
		return invalid("order_id", "missing")
	}

	s.metrics.WebhooksTotal.WithLabelValues(statusLabel(n.TransactionStatus)).Inc()

	log := s.log.WithFields(logrus.Fields{
		"order_id":           n.OrderID,
		"transaction_status": n.TransactionStatus,
		"fraud_status":       n.FraudStatus,
	})

	switch n.TransactionStatus {
	case model.MidtransStatusSettlement:
		return s.enqueueResolve(ctx, log, n.OrderID)
	case model.MidtransStatusCapture:
		if n.FraudStatus != model.MidtransFraudAccept {
			log.Warn("capture not accepted by fraud detection")
			return nil
		}
		return s.enqueueResolve(ctx, log, n.OrderID)
	case model.MidtransStatusCancel, model.MidtransStatusDeny, model.MidtransStatusExpire:
		log.Info("payment failed")
		if err := s.dispatcher.EnqueuePaymentFailed(ctx, n.OrderID, n.TransactionStatus); err != nil {
			return fmt.Errorf("enqueue payment failed: %w", err)
		}
		return nil
	default:
		log.Debug("notification ignored")
		return nil
	}
}

func (s *webhookServiceImpl) enqueueResolve(ctx context.Context, log logrus.FieldLogger, orderID string) error {
	if err := s.dispatcher.EnqueueResolve(ctx, orderID); err != nil {
		return fmt.Errorf("resolve order: %w", err)
	}
	log.Info("payment confirmed, order resolved")
	return nil
}

// statusLabel bounds metric cardinality to the statuses the gateway documents.
func statusLabel(status string) string {
	switch status {
	case model.MidtransStatusCapture, model.MidtransStatusSettlement, model.MidtransStatusPending,
		model.MidtransStatusCancel, model.MidtransStatusDeny, model.MidtransStatusExpire:
		return status
	default:
		return "other"
	}
}
