package booking

import (
	"context"
	"time"

	"motobook/internal/domain"
)

type bookingRepo interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	CancelWithReason(ctx context.Context, id int64, reason string, at time.Time) error
}

type addOnReader interface {
	GetByID(ctx context.Context, id int64) (*domain.AddOn, error)
	ListAvailable(ctx context.Context, t domain.BookingType) ([]domain.AddOn, error)
}

type paymentsByBookingReader interface {
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
}
