package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"motobook/internal/domain"
	"motobook/internal/repository"

	"gorm.io/gorm"
)

// Service creates provider payment intents and reconciles provider events
// against internal records.
type Service struct {
	payments   paymentRepo
	bookings   bookingReader
	snapshots  snapshotProvider
	provider   ProviderClient
	reconciler reconciler
	currency   string
	loggerf    func(format string, args ...interface{})
}

func NewService(payments paymentRepo, bookings bookingReader, snapshots snapshotProvider, provider ProviderClient, rec reconciler, currency string, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		payments:   payments,
		bookings:   bookings,
		snapshots:  snapshots,
		provider:   provider,
		reconciler: rec,
		currency:   currency,
		loggerf:    loggerf,
	}
}

// CreateIntent opens a payment intent with the provider and persists the
// Payment with the policy snapshot frozen at this moment. The snapshot is
// attached exactly once and never recomputed, so later settings edits cannot
// change the promise made here.
func (s *Service) CreateIntent(ctx context.Context, req CreateIntentRequest) (*CreateIntentResponse, error) {
	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking check failed: %w", err)
	}

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// A successful intent flips the booking straight to paid/deposit_paid, so
	// the amount must match the booking exactly; partial payments have no
	// representation.
	method := domain.PaymentMethod(req.PaymentMethod)
	switch method {
	case domain.MethodUpfront:
		if !req.Amount.Equal(booking.TotalPrice) {
			return nil, ErrInvalidAmount
		}
	case domain.MethodDeposit:
		if !req.Amount.Equal(booking.DepositAmount) {
			return nil, ErrInvalidAmount
		}
	}

	intent, err := s.provider.CreateIntent(ctx, req.Amount, s.currency, map[string]string{
		"booking_id":        strconv.FormatInt(booking.ID, 10),
		"booking_reference": booking.BookingReference,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("freeze policy snapshot: %w", err)
	}
	if snap == nil {
		s.loggerf("level=warn msg=no policy settings configured, payment created without snapshot booking_id=%d", booking.ID)
	}

	p := &domain.Payment{
		BookingID:        booking.ID,
		BookingType:      booking.BookingType,
		ProviderIntentID: intent.IntentID,
		ProviderChargeID: intent.ChargeID,
		Amount:           req.Amount,
		Currency:         s.currency,
		Method:           method,
		Status:           domain.IntentCreated,
		PolicySnapshot:   snap,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	return &CreateIntentResponse{
		PaymentID:    p.ID,
		IntentID:     intent.IntentID,
		ClientSecret: intent.ClientSecret,
		Status:       string(p.Status),
	}, nil
}

// HandleProviderEvent dispatches a parsed webhook event. Delivery is
// at-least-once, so every branch must be idempotent; errors are retryable by
// redelivery.
func (s *Service) HandleProviderEvent(ctx context.Context, ev domain.ProviderEvent) (*domain.RefundRequest, error) {
	switch ev.Type {
	case domain.EventChargeRefunded, domain.EventChargeRefundUpdated:
		return s.reconcileRefund(ctx, ev)
	case domain.EventIntentSucceeded:
		return nil, s.markSucceeded(ctx, ev)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.Type)
	}
}

func (s *Service) reconcileRefund(ctx context.Context, ev domain.ProviderEvent) (*domain.RefundRequest, error) {
	result, err := s.reconciler.ApplyRefundEvent(ctx, ev)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if !result.Changed {
		s.loggerf("level=info msg=refund event already applied event_id=%s charge_id=%s", ev.EventID, ev.ProviderChargeID)
	} else {
		s.loggerf("level=info msg=refund event reconciled event_id=%s payment_id=%d amount=%s", ev.EventID, result.Payment.ID, ev.AmountRefunded.StringFixed(2))
	}
	return result.Request, nil
}

func (s *Service) markSucceeded(ctx context.Context, ev domain.ProviderEvent) error {
	p, changed, err := s.payments.MarkSucceededIdempotent(ctx, ev.ProviderIntentID, ev.ProviderChargeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	if !changed {
		s.loggerf("level=info msg=idempotent success event, payment already succeeded intent_id=%s", p.ProviderIntentID)
		return nil
	}

	s.loggerf("level=info msg=payment succeeded payment_id=%d booking_id=%d amount=%s", p.ID, p.BookingID, p.Amount.StringFixed(2))
	return nil
}

func (s *Service) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	return s.payments.ListByBooking(ctx, bookingID)
}
