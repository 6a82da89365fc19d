package repository

import (
	"context"
	"strings"

	"membership-bot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DiscountRepository interface {
	Create(ctx context.Context, discount *model.DiscountCode) error
}

type discountRepoImpl struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepoImpl{
		db: db,
	}
}

// Create inserts a new code. An existing code is left as is and ErrDuplicateDiscount is returned.
func (r *discountRepoImpl) Create(ctx context.Context, discount *model.DiscountCode) error {
	discount.Code = strings.ToUpper(strings.TrimSpace(discount.Code))

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(discount)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateDiscount
	}
	return nil
}
