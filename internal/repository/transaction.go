package repository

import (
	"context"
	"time"

	"membership-bot/internal/model"

	"gorm.io/gorm"
)

// TransactionRepository is the append-only settlement log.
type TransactionRepository interface {
	Append(ctx context.Context, tx *gorm.DB, transaction *model.Transaction) error
	ListBetween(ctx context.Context, from, to time.Time) ([]*model.Transaction, error)
}

type transactionRepoImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepoImpl{
		db: db,
	}
}

func (r *transactionRepoImpl) Append(ctx context.Context, tx *gorm.DB, transaction *model.Transaction) error {
	return conn(r.db, tx).WithContext(ctx).Create(transaction).Error
}

// ListBetween returns rows created in [from, to), oldest first.
func (r *transactionRepoImpl) ListBetween(ctx context.Context, from, to time.Time) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at, id").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
