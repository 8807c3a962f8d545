package payment

import "errors"

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidAmount       = errors.New("invalid payment amount")
	ErrUnsupportedEvent    = errors.New("unsupported provider event type")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)
