package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-bot/internal/dto"
	"membership-bot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpsertSubscriptionParams struct {
	BuyerID      string
	PackageID    string
	DurationDays int
	OrderID      string
	Email        string
	IsRenewal    bool
}

type SubscriptionRepository interface {
	GetActive(ctx context.Context, buyerID string) (*model.Subscription, error)
	Upsert(ctx context.Context, tx *gorm.DB, params UpsertSubscriptionParams, now time.Time) (*model.Subscription, error)
	ListExpiringAt(ctx context.Context, dayStart, dayEnd time.Time, onlyUnnotified bool) ([]*model.Subscription, error)
	MarkNotified(ctx context.Context, buyerID string) error
	Stats(ctx context.Context) (*dto.Stats, error)
}

type subscriptionRepoImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepoImpl{
		db: db,
	}
}

func (r *subscriptionRepoImpl) GetActive(ctx context.Context, buyerID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND status = ?", buyerID, model.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	return &sub, nil
}

// Upsert writes the buyer's new window. A renewal starts at the later of the
// current end and now, so renewing early loses no days; anything else starts now.
// An empty email keeps the one already stored.
func (r *subscriptionRepoImpl) Upsert(ctx context.Context, tx *gorm.DB, params UpsertSubscriptionParams, now time.Time) (*model.Subscription, error) {
	db := conn(r.db, tx).WithContext(ctx)
	now = now.UTC()

	var existing model.Subscription
	found := true
	if err := db.Where("buyer_id = ?", params.BuyerID).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load current subscription: %w", err)
		}
		found = false
	}

	start := now
	if params.IsRenewal && found && existing.EndAt.After(now) {
		start = existing.EndAt.UTC()
	}

	email := params.Email
	if email == "" && found {
		email = existing.Email
	}

	sub := &model.Subscription{
		BuyerID:            params.BuyerID,
		PackageID:          params.PackageID,
		StartAt:            start,
		EndAt:              start.AddDate(0, 0, params.DurationDays),
		Status:             model.SubscriptionStatusActive,
		OrderID:            params.OrderID,
		Email:              email,
		NotifiedExpirySoon: false,
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "buyer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"package_id",
			"start_at",
			"end_at",
			"status",
			"order_id",
			"email",
			"notified_expiry_soon",
			"updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}

	return sub, nil
}

// ListExpiringAt returns active subscriptions whose end falls in [dayStart, dayEnd).
func (r *subscriptionRepoImpl) ListExpiringAt(ctx context.Context, dayStart, dayEnd time.Time, onlyUnnotified bool) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	query := r.db.WithContext(ctx).
		Where("status = ?", model.SubscriptionStatusActive).
		Where("end_at >= ? AND end_at < ?", dayStart.UTC(), dayEnd.UTC())
	if onlyUnnotified {
		query = query.Where("notified_expiry_soon = ?", false)
	}

	if err := query.Order("end_at").Find(&subs).Error; err != nil {
		return nil, err
	}

	return subs, nil
}

func (r *subscriptionRepoImpl) MarkNotified(ctx context.Context, buyerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("buyer_id = ?", buyerID).
		Updates(map[string]interface{}{
			"notified_expiry_soon": true,
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *subscriptionRepoImpl) Stats(ctx context.Context) (*dto.Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &dto.Stats{}

	if err := db.Model(&model.Subscription{}).
		Where("status = ?", model.SubscriptionStatusActive).
		Count(&stats.ActiveCount).Error; err != nil {
		return nil, fmt.Errorf("count active subscriptions: %w", err)
	}

	if err := db.Model(&model.Subscription{}).
		Count(&stats.TotalCount).Error; err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}

	if err := db.Model(&model.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}

	if err := db.Model(&model.Subscription{}).
		Select("package_id, COUNT(*) AS count").
		Where("status = ?", model.SubscriptionStatusActive).
		Group("package_id").
		Order("package_id").
		Scan(&stats.Breakdown).Error; err != nil {
		return nil, fmt.Errorf("group subscriptions by package: %w", err)
	}

	return stats, nil
}
