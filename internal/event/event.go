// Package event holds the messages the lifecycle core hands to the chat platform.
package event

import "time"

// SubscriptionActivated is produced once an order has been resolved into a subscription window.
type SubscriptionActivated struct {
	BuyerID      string
	OrderID      string
	PackageID    string
	PackageName  string
	DurationDays int
	IsRenewal    bool
	StartAt      time.Time
	EndAt        time.Time
}

// ExpirySoon is produced by the expiry poller for a subscription ending on the notice day.
type ExpirySoon struct {
	BuyerID   string
	PackageID string
	EndAt     time.Time
}

// PaymentFailed is produced when the gateway reports a cancelled, denied or expired payment.
type PaymentFailed struct {
	BuyerID           string
	OrderID           string
	PackageID         string
	TransactionStatus string
}
