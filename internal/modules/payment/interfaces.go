package payment

import (
	"context"

	"motobook/internal/domain"
	"motobook/internal/repository"

	"github.com/shopspring/decimal"
)

// ProviderIntent is the provider's view of a payment intent.
type ProviderIntent struct {
	IntentID     string
	ChargeID     string
	Status       string
	ClientSecret string
}

// ProviderClient talks to the external payment provider. Webhook transport and
// signature verification live behind it as well.
type ProviderClient interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*ProviderIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*ProviderIntent, error)
	UpdateIntent(ctx context.Context, intentID string, amount decimal.Decimal) (*ProviderIntent, error)
}

type paymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	MarkSucceededIdempotent(ctx context.Context, intentID, chargeID string) (*domain.Payment, bool, error)
}

type bookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// snapshotProvider freezes the current policy settings for a new payment.
type snapshotProvider interface {
	Snapshot(ctx context.Context) (*domain.PolicySnapshot, error)
}

type reconciler interface {
	ApplyRefundEvent(ctx context.Context, ev domain.ProviderEvent) (*repository.ReconcileResult, error)
}
