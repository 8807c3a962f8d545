package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motobook/internal/domain"
	"motobook/internal/modules/refund"
	"motobook/internal/pkg/reference"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const referenceRetries = 3

// Service enforces the booking state machine and its persistence guards.
type Service struct {
	bookings    bookingRepo
	addons      addOnReader
	payments    paymentsByBookingReader
	minLeadTime time.Duration
	now         func() time.Time
}

func NewService(bookings bookingRepo, addons addOnReader, payments paymentsByBookingReader, minLeadTime time.Duration) *Service {
	return &Service{
		bookings:    bookings,
		addons:      addons,
		payments:    payments,
		minLeadTime: minLeadTime,
		now:         time.Now,
	}
}

// CreateBooking validates the request against the persistence guards and
// saves the booking with a freshly generated reference. Guard violations come
// back as field-keyed errors.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, map[string]string, error) {
	bookingType := domain.BookingType(req.BookingType)
	switch bookingType {
	case domain.BookingHire, domain.BookingService, domain.BookingSales:
	default:
		return nil, map[string]string{"booking_type": "must be one of hire, service, sales"}, nil
	}

	fieldErrs := make(map[string]string)
	now := s.now()

	if !req.EndTime.IsZero() && !req.EndTime.After(req.StartTime) {
		fieldErrs["end_time"] = "must be strictly after start_time"
	}
	if bookingType == domain.BookingHire && req.EndTime.IsZero() {
		fieldErrs["end_time"] = "required for hire bookings"
	}
	if req.StartTime.Before(now.Add(s.minLeadTime)) {
		fieldErrs["start_time"] = fmt.Sprintf("must be at least %s from now", s.minLeadTime)
	}
	if req.TotalPrice.IsNegative() {
		fieldErrs["total_price"] = "must not be negative"
	}
	if req.DepositAmount.IsNegative() {
		fieldErrs["deposit_amount"] = "must not be negative"
	}

	if req.AddOnID != nil {
		addon, err := s.addons.GetByID(ctx, *req.AddOnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fieldErrs["add_on_id"] = "unknown add-on"
			} else {
				return nil, nil, fmt.Errorf("load add-on: %w", err)
			}
		} else {
			if !addon.Available {
				fieldErrs["add_on_id"] = "add-on is not currently available"
			}
			// Stale client price is a hard error, never silently corrected.
			if req.AddOnPrice == nil {
				fieldErrs["add_on_price"] = "required when an add-on is selected"
			} else if !req.AddOnPrice.Equal(addon.Price) {
				fieldErrs["add_on_price"] = fmt.Sprintf("does not match the current price of %s", addon.Price.StringFixed(2))
			}
		}
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs, nil
	}

	b := &domain.Booking{
		BookingType:   bookingType,
		CustomerID:    req.CustomerID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		TotalPrice:    req.TotalPrice,
		DepositAmount: req.DepositAmount,
		Method:        domain.PaymentMethod(req.PaymentMethod),
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentUnpaid,
		AddOnID:       req.AddOnID,
		Notes:         req.Notes,
	}

	if err := s.createWithReference(ctx, b); err != nil {
		return nil, nil, err
	}
	return b, nil, nil
}

// createWithReference assigns the booking reference exactly once, on first
// persistence, retrying on the unlikely unique-index collision.
func (s *Service) createWithReference(ctx context.Context, b *domain.Booking) error {
	for attempt := 0; attempt < referenceRetries; attempt++ {
		if b.BookingReference == "" {
			ref, err := reference.New(b.BookingType.ReferencePrefix())
			if err != nil {
				return err
			}
			b.BookingReference = ref
		}

		err := s.bookings.Create(ctx, b)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_booking_reference" {
			b.BookingReference = ""
			continue
		}
		return err
	}
	return ErrReferenceCollision
}

// ListAddOns returns the available add-on catalog for a booking type.
func (s *Service) ListAddOns(ctx context.Context, t domain.BookingType) ([]domain.AddOn, error) {
	return s.addons.ListAvailable(ctx, t)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// UpdateStatus applies a guarded state machine transition.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to domain.BookingStatus) (*domain.Booking, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(b.BookingType, b.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.bookings.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// CancelBooking cancels with a reason and reports the refund the customer is
// entitled to under the policy snapshot frozen onto their payment.
func (s *Service) CancelBooking(ctx context.Context, id int64, reason string) (*domain.Booking, *refund.RefundCalculation, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !domain.CanTransition(b.BookingType, b.Status, domain.BookingCancelled) {
		return nil, nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	if err := s.bookings.CancelWithReason(ctx, id, reason, now); err != nil {
		return nil, nil, err
	}

	calc := refund.CalculateRefundAmount(b, s.snapshotFor(ctx, b.ID), now)

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, &calc, nil
}

// snapshotFor finds the policy snapshot frozen onto the booking's most recent
// payment. Absence degrades the calculation, it never fails it.
func (s *Service) snapshotFor(ctx context.Context, bookingID int64) *domain.PolicySnapshot {
	payments, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil || len(payments) == 0 {
		return nil
	}
	for i := len(payments) - 1; i >= 0; i-- {
		if payments[i].PolicySnapshot != nil {
			return payments[i].PolicySnapshot
		}
	}
	return nil
}
