package service

import (
	"errors"
	"fmt"

	"membership-bot/internal/repository"
)

var (
	ErrOrderNotFound              = repository.ErrOrderNotFound
	ErrSubscriptionNotFound       = repository.ErrSubscriptionNotFound
	ErrDuplicateDiscount          = repository.ErrDuplicateDiscount
	ErrRenewalWithoutSubscription = errors.New("renewal requires an active subscription")
)

// ValidationError rejects malformed command or webhook input before any processing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
