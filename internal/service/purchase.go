package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"membership-bot/internal/client"
	"membership-bot/internal/dto"
	"membership-bot/internal/model"
	"membership-bot/internal/observability"
	"membership-bot/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ActionNew     = "new"
	ActionRenewal = "renewal"
)

type PurchaseService interface {
	Buy(ctx context.Context, req dto.BuyRequest) (*dto.BuyResponse, error)
	Packages(ctx context.Context) ([]*model.Package, error)
	Status(ctx context.Context, buyerID string) (*dto.SubscriptionStatus, error)
}

type purchaseServiceImpl struct {
	paymentClient    client.PaymentClient
	orderRepo        repository.OrderRepository
	subscriptionRepo repository.SubscriptionRepository
	packageRepo      repository.PackageRepository
	metrics          *observability.Metrics
	log              logrus.FieldLogger
	now              Clock
	newOrderID       func() string
}

func NewPurchaseService(
	paymentClient client.PaymentClient,
	orderRepo repository.OrderRepository,
	subscriptionRepo repository.SubscriptionRepository,
	packageRepo repository.PackageRepository,
	metrics *observability.Metrics,
	log logrus.FieldLogger,
	now Clock,
) PurchaseService {
	return &purchaseServiceImpl{
		paymentClient:    paymentClient,
		orderRepo:        orderRepo,
		subscriptionRepo: subscriptionRepo,
		packageRepo:      packageRepo,
		metrics:          metrics,
		log:              log,
		now:              now,
		newOrderID: func() string {
			return "SUB-" + uuid.NewString()
		},
	}
}

// Buy records a pending order and opens a gateway transaction for it.
func (s *purchaseServiceImpl) Buy(ctx context.Context, req dto.BuyRequest) (*dto.BuyResponse, error) {
	if req.BuyerID == "" {
		return nil, invalid("buyer", "missing buyer id")
	}

	var isRenewal bool
	switch req.Action {
	case ActionNew, "":
	case ActionRenewal:
		isRenewal = true
	default:
		return nil, invalid("action", "must be %q or %q", ActionNew, ActionRenewal)
	}

	pkg, err := s.packageRepo.FindByID(ctx, nil, req.PackageID)
	if err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return nil, invalid("package", "unknown package %q", req.PackageID)
		}
		return nil, fmt.Errorf("find package: %w", err)
	}

	if isRenewal {
		if _, err := s.subscriptionRepo.GetActive(ctx, req.BuyerID); err != nil {
			if errors.Is(err, repository.ErrSubscriptionNotFound) {
				return nil, ErrRenewalWithoutSubscription
			}
			return nil, fmt.Errorf("get active subscription: %w", err)
		}
	}

	orderID := s.newOrderID()
	err = s.orderRepo.Place(ctx, &model.Order{
		OrderID:      orderID,
		BuyerID:      req.BuyerID,
		PackageID:    pkg.ID,
		DurationDays: pkg.DurationDays,
		IsRenewal:    isRenewal,
		Email:        req.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	resp, err := s.paymentClient.CreateTransaction(ctx, &client.CreateTransactionRequest{
		OrderID:      orderID,
		Amount:       pkg.Price,
		ItemID:       pkg.ID,
		ItemName:     pkg.Name,
		CustomerName: req.BuyerName,
		Email:        req.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}

	action := ActionNew
	if isRenewal {
		action = ActionRenewal
	}
	s.metrics.PurchasesTotal.WithLabelValues(action).Inc()
	s.log.WithFields(logrus.Fields{
		"order_id":   orderID,
		"buyer_id":   req.BuyerID,
		"package_id": pkg.ID,
		"renewal":    isRenewal,
	}).Info("order placed")

	return &dto.BuyResponse{
		OrderID:    orderID,
		PaymentURL: resp.PaymentURL,
		Amount:     pkg.Price,
		IsRenewal:  isRenewal,
	}, nil
}

func (s *purchaseServiceImpl) Packages(ctx context.Context) ([]*model.Package, error) {
	return s.packageRepo.List(ctx)
}

// Status reports the buyer's active window. Days left round up and never go below zero.
func (s *purchaseServiceImpl) Status(ctx context.Context, buyerID string) (*dto.SubscriptionStatus, error) {
	sub, err := s.subscriptionRepo.GetActive(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	daysLeft := int(math.Ceil(sub.EndAt.Sub(s.now()).Hours() / 24))
	if daysLeft < 0 {
		daysLeft = 0
	}

	return &dto.SubscriptionStatus{
		PackageID: sub.PackageID,
		StartAt:   sub.StartAt,
		EndAt:     sub.EndAt,
		DaysLeft:  daysLeft,
	}, nil
}
