package repository

import (
	"context"
	"testing"
	"time"

	"membership-bot/internal/model"
	"membership-bot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionListBetween(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(testutil.NewDB(t))

	for _, created := range []time.Time{
		time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, repo.Append(ctx, nil, &model.Transaction{
			BuyerID:   "B1",
			OrderID:   created.Format("O-20060102"),
			PackageID: "warrior_1month",
			Amount:    299000,
			Status:    model.TransactionStatusSettlement,
			CreatedAt: created,
		}))
	}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows, err := repo.ListBetween(ctx, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "O-20260301", rows[0].OrderID)
	assert.Equal(t, "O-20260315", rows[1].OrderID)
}
