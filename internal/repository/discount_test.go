package repository

import (
	"context"
	"testing"
	"time"

	"membership-bot/internal/model"
	"membership-bot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func storedDiscount(t *testing.T, db *gorm.DB, code string) model.DiscountCode {
	t.Helper()
	var discount model.DiscountCode
	require.NoError(t, db.Where("code = ?", code).First(&discount).Error)
	return discount
}

func TestDiscountCreateNormalizesCode(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewDiscountRepository(db)

	require.NoError(t, repo.Create(ctx, &model.DiscountCode{
		Code:               " promo50 ",
		DiscountPercentage: 50,
		ValidUntil:         t0.AddDate(0, 0, 7),
		UsageLimit:         10,
	}))

	discount := storedDiscount(t, db, "PROMO50")
	assert.Equal(t, "PROMO50", discount.Code)
	assert.Equal(t, 50, discount.DiscountPercentage)
	assert.Equal(t, 10, discount.UsageLimit)
	assert.Zero(t, discount.UsedCount)
}

func TestDiscountCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewDiscountRepository(db)

	require.NoError(t, repo.Create(ctx, &model.DiscountCode{
		Code: "PROMO50", DiscountPercentage: 50, ValidUntil: t0.AddDate(0, 0, 7), UsageLimit: 10,
	}))
	// Simulate redemptions recorded elsewhere.
	require.NoError(t, db.Model(&model.DiscountCode{}).Where("code = ?", "PROMO50").Update("used_count", 3).Error)

	err := repo.Create(ctx, &model.DiscountCode{
		Code: "promo50", DiscountPercentage: 20, ValidUntil: t0.Add(time.Hour), UsageLimit: 1,
	})
	assert.ErrorIs(t, err, ErrDuplicateDiscount)

	discount := storedDiscount(t, db, "PROMO50")
	assert.Equal(t, 50, discount.DiscountPercentage)
	assert.Equal(t, 10, discount.UsageLimit)
	assert.Equal(t, 3, discount.UsedCount)
}
