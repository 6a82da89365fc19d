package dto

import "time"

type BuyRequest struct {
	BuyerID   string
	BuyerName string
	PackageID string
	Action    string // new | renewal
	Email     string
}

type BuyResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
	Amount     int64  `json:"amount"`
	IsRenewal  bool   `json:"is_renewal"`
}

type PackageCount struct {
	PackageID string `json:"package_id"`
	Count     int64  `json:"count"`
}

type Stats struct {
	ActiveCount  int64          `json:"active_count"`
	TotalCount   int64          `json:"total_count"`
	TotalRevenue int64          `json:"total_revenue"`
	Breakdown    []PackageCount `json:"breakdown"`
}

type CreateDiscountRequest struct {
	Code       string
	Percentage int
	ValidDays  int
	UsageLimit int
}

type Export struct {
	Filename string
	Content  []byte
	Rows     int
}

type SubscriptionStatus struct {
	PackageID string
	StartAt   time.Time
	EndAt     time.Time
	DaysLeft  int
}

type WebhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Bot    string `json:"bot"`
}
