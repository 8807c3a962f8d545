package refund

import (
	"context"
	"time"

	"motobook/internal/domain"
)

type refundRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.RefundRequest, error)
	GetByToken(ctx context.Context, token string) (*domain.RefundRequest, error)
	UpsertOpen(ctx context.Context, req *domain.RefundRequest) error
	Update(ctx context.Context, req *domain.RefundRequest) error
	ListExpiredUnverified(ctx context.Context, cutoff time.Time) ([]domain.RefundRequest, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, status domain.RefundRequestStatus, limit, offset int) ([]domain.RefundRequest, error)
}

type paymentReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
}

type bookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// NotificationSender delivers customer-facing messages. Implementations are
// optional; a nil sender disables notifications.
type NotificationSender interface {
	NotifyRefundVerificationRequested(ctx context.Context, contact string, requestID int64, token string, expiresAt time.Time) error
	NotifyRefundRequestExpired(ctx context.Context, contact string, requestID int64) error
}
