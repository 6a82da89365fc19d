package model

import "time"

type SubscriptionStatus string

const SubscriptionStatusActive SubscriptionStatus = "active"

type TransactionStatus string

const (
	TransactionStatusSettlement TransactionStatus = "settlement"
)

type Package struct {
	ID           string `gorm:"primaryKey;size:64;not null"` // e.g. warrior_1month
	Name         string `gorm:"size:128;not null"`
	DurationDays int    `gorm:"not null"`
	Price        int64  `gorm:"not null"` // IDR, no minor unit
}

// Order is a pending payment intent. It is deleted once resolved into a Subscription.
type Order struct {
	OrderID      string `gorm:"primaryKey;size:64;not null"`
	BuyerID      string `gorm:"size:32;index;not null"`
	PackageID    string `gorm:"size:64;not null"`
	DurationDays int    `gorm:"not null"`
	IsRenewal    bool   `gorm:"not null"`
	Email        string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Subscription holds at most one membership window per buyer.
type Subscription struct {
	BuyerID            string             `gorm:"primaryKey;size:32;not null"`
	PackageID          string             `gorm:"size:64;index;not null"`
	StartAt            time.Time          `gorm:"not null"`
	EndAt              time.Time          `gorm:"index;not null"`
	Status             SubscriptionStatus `gorm:"size:16;index;not null"`
	OrderID            string             `gorm:"size:64"` // last order that updated the row
	Email              string             `gorm:"size:255"`
	NotifiedExpirySoon bool               `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type DiscountCode struct {
	Code               string    `gorm:"primaryKey;size:32;not null"` // stored upper-cased
	DiscountPercentage int       `gorm:"not null"`
	ValidUntil         time.Time `gorm:"not null"`
	UsageLimit         int       `gorm:"not null"`
	UsedCount          int       `gorm:"not null"`
	CreatedAt          time.Time
}

// Transaction is an append-only settlement audit row.
type Transaction struct {
	ID        uint              `gorm:"primaryKey"`
	BuyerID   string            `gorm:"size:32;index;not null"`
	OrderID   string            `gorm:"size:64;index;not null"`
	PackageID string            `gorm:"size:64;not null"`
	Amount    int64             `gorm:"not null"`
	Status    TransactionStatus `gorm:"size:16;not null"`
	CreatedAt time.Time         `gorm:"index"`
}
