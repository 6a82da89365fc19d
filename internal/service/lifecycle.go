package service

import (
	"context"
	"errors"
	"fmt"

	"membership-bot/internal/event"
	"membership-bot/internal/model"
	"membership-bot/internal/observability"
	"membership-bot/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LifecycleService turns confirmed payments into subscription windows.
type LifecycleService interface {
	ResolveOrder(ctx context.Context, orderID string) (*event.SubscriptionActivated, error)
}

type lifecycleServiceImpl struct {
	db               *gorm.DB
	orderRepo        repository.OrderRepository
	subscriptionRepo repository.SubscriptionRepository
	packageRepo      repository.PackageRepository
	transactionRepo  repository.TransactionRepository
	metrics          *observability.Metrics
	log              logrus.FieldLogger
	now              Clock
}

func NewLifecycleService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	subscriptionRepo repository.SubscriptionRepository,
	packageRepo repository.PackageRepository,
	transactionRepo repository.TransactionRepository,
	metrics *observability.Metrics,
	log logrus.FieldLogger,
	now Clock,
) LifecycleService {
	return &lifecycleServiceImpl{
		db:               db,
		orderRepo:        orderRepo,
		subscriptionRepo: subscriptionRepo,
		packageRepo:      packageRepo,
		transactionRepo:  transactionRepo,
		metrics:          metrics,
		log:              log,
		now:              now,
	}
}

// ResolveOrder activates the subscription paid for by orderID. The window
// update, the settlement row and the order removal commit together or not at
// all, so a failed attempt can be retried against the same pending order.
// A second call for an already resolved order returns ErrOrderNotFound.
func (s *lifecycleServiceImpl) ResolveOrder(ctx context.Context, orderID string) (*event.SubscriptionActivated, error) {
	log := s.log.WithField("order_id", orderID)

	now := s.now().UTC()

	var activated *event.SubscriptionActivated
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.Take(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("take order: %w", err)
		}

		// price comes from the catalogue, never from the order
		pkg, err := s.packageRepo.FindByID(ctx, tx, order.PackageID)
		if err != nil {
			return fmt.Errorf("find package %s: %w", order.PackageID, err)
		}

		sub, err := s.subscriptionRepo.Upsert(ctx, tx, repository.UpsertSubscriptionParams{
			BuyerID:      order.BuyerID,
			PackageID:    order.PackageID,
			DurationDays: order.DurationDays,
			OrderID:      order.OrderID,
			Email:        order.Email,
			IsRenewal:    order.IsRenewal,
		}, now)
		if err != nil {
			return err
		}

		err = s.transactionRepo.Append(ctx, tx, &model.Transaction{
			BuyerID:   order.BuyerID,
			OrderID:   order.OrderID,
			PackageID: pkg.ID,
			Amount:    pkg.Price,
			Status:    model.TransactionStatusSettlement,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}

		if err := s.orderRepo.Delete(ctx, tx, order.OrderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		activated = &event.SubscriptionActivated{
			BuyerID:      order.BuyerID,
			OrderID:      order.OrderID,
			PackageID:    pkg.ID,
			PackageName:  pkg.Name,
			DurationDays: order.DurationDays,
			IsRenewal:    order.IsRenewal,
			StartAt:      sub.StartAt,
			EndAt:        sub.EndAt,
		}
		return nil
	})

	switch {
	case err == nil:
		s.metrics.OrdersResolvedTotal.WithLabelValues("activated").Inc()
		log.WithFields(logrus.Fields{
			"buyer_id":   activated.BuyerID,
			"package_id": activated.PackageID,
			"renewal":    activated.IsRenewal,
			"end_at":     activated.EndAt,
		}).Info("subscription activated")
		return activated, nil
	case errors.Is(err, ErrOrderNotFound):
		s.metrics.OrdersResolvedTotal.WithLabelValues("not_found").Inc()
		log.Info("order already resolved or unknown")
		return nil, err
	default:
		s.metrics.OrdersResolvedTotal.WithLabelValues("error").Inc()
		log.WithError(err).Error("resolve order")
		return nil, fmt.Errorf("resolve order %s: %w", orderID, err)
	}
}
