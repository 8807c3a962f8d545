package refund

import "errors"

var (
	ErrNotFound          = errors.New("refund request not found")
	ErrInvalidTransition = errors.New("invalid refund request transition")
	ErrTokenInvalid      = errors.New("verification token invalid")
	ErrTokenExpired      = errors.New("verification token expired")
)
