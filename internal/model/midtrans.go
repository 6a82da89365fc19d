package model

// Statuses reported by the Midtrans HTTP notification.
const (
	MidtransStatusCapture    = "capture"
	MidtransStatusSettlement = "settlement"
	MidtransStatusPending    = "pending"
	MidtransStatusCancel     = "cancel"
	MidtransStatusDeny       = "deny"
	MidtransStatusExpire     = "expire"

	MidtransFraudAccept = "accept"
)

// MidtransNotification is the body Midtrans POSTs to the payment notification URL.
// Only the fields the bot acts on or verifies are decoded.
type MidtransNotification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
}
