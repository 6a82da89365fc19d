package repository

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPackageNotFound      = errors.New("package not found")
	ErrDuplicateDiscount    = errors.New("discount code already exists")
)
