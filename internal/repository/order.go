package repository

import (
	"context"
	"errors"
	"time"

	"membership-bot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository is the ledger of pending payment intents.
type OrderRepository interface {
	Place(ctx context.Context, order *model.Order) error
	Take(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	Delete(ctx context.Context, tx *gorm.DB, orderID string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

// Place stores the order, replacing every field of an existing entry with the same id.
func (r *orderRepoImpl) Place(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"buyer_id":      order.BuyerID,
			"package_id":    order.PackageID,
			"duration_days": order.DurationDays,
			"is_renewal":    order.IsRenewal,
			"email":         order.Email,
			"updated_at":    time.Now().UTC(),
		}),
	}).Create(order).Error
}

// Take returns the pending order without removing it.
func (r *orderRepoImpl) Take(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// Delete removes a resolved order. A concurrent resolution that already
// deleted it leaves zero affected rows and yields ErrOrderNotFound.
func (r *orderRepoImpl) Delete(ctx context.Context, tx *gorm.DB, orderID string) error {
	result := conn(r.db, tx).WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
