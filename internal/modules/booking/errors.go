package booking

import "errors"

var (
	ErrNotFound                = errors.New("booking not found")
	ErrInvalidStatusTransition = errors.New("invalid booking status transition")
	ErrReferenceCollision      = errors.New("booking reference collision")
)
