package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"membership-bot/internal/dto"
	"membership-bot/internal/model"
	"membership-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

type AdminService interface {
	Stats(ctx context.Context) (*dto.Stats, error)
	ExportMonthly(ctx context.Context, year, month int) (*dto.Export, error)
	CreateDiscount(ctx context.Context, req dto.CreateDiscountRequest) (*model.DiscountCode, error)
}

type adminServiceImpl struct {
	subscriptionRepo repository.SubscriptionRepository
	transactionRepo  repository.TransactionRepository
	discountRepo     repository.DiscountRepository
	loc              *time.Location
	log              logrus.FieldLogger
	now              Clock
}

func NewAdminService(
	subscriptionRepo repository.SubscriptionRepository,
	transactionRepo repository.TransactionRepository,
	discountRepo repository.DiscountRepository,
	loc *time.Location,
	log logrus.FieldLogger,
	now Clock,
) AdminService {
	return &adminServiceImpl{
		subscriptionRepo: subscriptionRepo,
		transactionRepo:  transactionRepo,
		discountRepo:     discountRepo,
		loc:              loc,
		log:              log,
		now:              now,
	}
}

func (s *adminServiceImpl) Stats(ctx context.Context) (*dto.Stats, error) {
	stats, err := s.subscriptionRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}

var exportHeader = []string{"buyer", "order_id", "package", "amount", "status", "date"}

// ExportMonthly renders the transaction log of one calendar month as CSV.
func (s *adminServiceImpl) ExportMonthly(ctx context.Context, year, month int) (*dto.Export, error) {
	if month < 1 || month > 12 {
		return nil, invalid("month", "must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return nil, invalid("year", "must be between 2000 and 9999")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 1, 0)

	transactions, err := s.transactionRepo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range transactions {
		row := []string{
			t.BuyerID,
			t.OrderID,
			t.PackageID,
			strconv.FormatInt(t.Amount, 10),
			string(t.Status),
			t.CreatedAt.In(s.loc).Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &dto.Export{
		Filename: fmt.Sprintf("transactions_%04d_%02d.csv", year, month),
		Content:  buf.Bytes(),
		Rows:     len(transactions),
	}, nil
}

// CreateDiscount stores a new code. Codes are inert: no purchase path redeems them.
func (s *adminServiceImpl) CreateDiscount(ctx context.Context, req dto.CreateDiscountRequest) (*model.DiscountCode, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	switch {
	case code == "":
		return nil, invalid("code", "must not be empty")
	case len(code) > 32:
		return nil, invalid("code", "must be at most 32 characters")
	case req.Percentage < 1 || req.Percentage > 100:
		return nil, invalid("percentage", "must be between 1 and 100")
	case req.ValidDays < 1:
		return nil, invalid("valid_days", "must be at least 1")
	case req.UsageLimit < 1:
		return nil, invalid("usage_limit", "must be at least 1")
	}

	discount := &model.DiscountCode{
		Code:               code,
		DiscountPercentage: req.Percentage,
		ValidUntil:         s.now().AddDate(0, 0, req.ValidDays),
		UsageLimit:         req.UsageLimit,
	}
	if err := s.discountRepo.Create(ctx, discount); err != nil {
		if errors.Is(err, repository.ErrDuplicateDiscount) {
			return nil, err
		}
		return nil, fmt.Errorf("create discount: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"code":        discount.Code,
		"percentage":  discount.DiscountPercentage,
		"valid_until": discount.ValidUntil,
	}).Info("discount code created")

	return discount, nil
}
