package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motobook/internal/domain"

	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("payment not found for provider id")

// ReconciliationRepository applies a provider refund event to the
// (Payment, Booking, RefundRequest) triple in one transaction. Rows are taken
// under select-for-update so a concurrent admin action on the same payment
// serializes behind the webhook, and vice versa.
type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

type ReconcileResult struct {
	Request *domain.RefundRequest
	Payment *domain.Payment
	// Changed is false when the event had already been applied and the
	// transaction mutated nothing.
	Changed bool
}

// ApplyRefundEvent is idempotent: replaying an identical event returns the
// same end state with Changed=false. Any error rolls the whole update back;
// callers treat that as retryable since delivery is at-least-once.
func (r *ReconciliationRepository) ApplyRefundEvent(ctx context.Context, ev domain.ProviderEvent) (*ReconcileResult, error) {
	var result ReconcileResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPaymentByProviderIDs(tx, ev.ProviderChargeID, ev.ProviderIntentID)
		if err != nil {
			return err
		}

		var m bookingModel
		if err := forUpdate(tx).First(&m, p.BookingID).Error; err != nil {
			return err
		}
		booking := toDomainBooking(m)

		full := p.FullyRefundedBy(ev.AmountRefunded)
		targetStatus := domain.IntentStatusForRefund(full)

		// The refunded amount only ever grows. An event carrying no more than
		// what is already recorded is a replay or a stale out-of-order
		// delivery; short-circuit without mutating anything, whatever status
		// the stale event would otherwise map to.
		if !ev.AmountRefunded.GreaterThan(p.RefundedAmount) {
			existing, err := lockOpenOrLatestRequest(tx, p.ID)
			if err != nil {
				return err
			}
			result = ReconcileResult{Request: existing, Payment: p, Changed: false}
			return nil
		}

		now := time.Now().UTC()

		if err := tx.Model(&domain.Payment{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"status":          targetStatus,
			"refunded_amount": ev.AmountRefunded,
		}).Error; err != nil {
			return err
		}
		p.Status = targetStatus
		p.RefundedAmount = ev.AmountRefunded

		req, err := upsertOpenRequest(tx, p, booking, ev, full, now)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"payment_status": string(domain.BookingPaymentStatusForRefund(full)),
		}
		if full {
			updates["status"] = string(domain.RefundedBookingStatus(booking.BookingType))
		}
		if err := tx.Model(&bookingModel{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
			return err
		}

		result = ReconcileResult{Request: req, Payment: p, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// lockPaymentByProviderIDs locks the payment addressed by a provider event.
// Refund events usually carry a charge id, some providers only an intent id;
// empty ids must not join the match or they would hit unrelated rows whose
// charge id is still blank.
func lockPaymentByProviderIDs(tx *gorm.DB, chargeID, intentID string) (*domain.Payment, error) {
	q := forUpdate(tx)
	switch {
	case chargeID != "" && intentID != "":
		q = q.Where("provider_charge_id = ? OR provider_intent_id = ?", chargeID, intentID)
	case chargeID != "":
		q = q.Where("provider_charge_id = ?", chargeID)
	case intentID != "":
		q = q.Where("provider_intent_id = ?", intentID)
	default:
		return nil, fmt.Errorf("%w: event carries no provider id", ErrPaymentNotFound)
	}

	var p domain.Payment
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: charge=%q intent=%q", ErrPaymentNotFound, chargeID, intentID)
		}
		return nil, err
	}
	return &p, nil
}

// lockOpenOrLatestRequest finds the open request for a payment, falling back
// to the most recent one when reconciliation has already settled it.
func lockOpenOrLatestRequest(tx *gorm.DB, paymentID int64) (*domain.RefundRequest, error) {
	var req domain.RefundRequest
	err := forUpdate(tx).
		Where("payment_id = ? AND status IN ?", paymentID, domain.OpenRefundStatuses).
		Order("created_at").
		First(&req).Error
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = tx.Where("payment_id = ?", paymentID).Order("created_at DESC").First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func upsertOpenRequest(tx *gorm.DB, p *domain.Payment, b *domain.Booking, ev domain.ProviderEvent, full bool, now time.Time) (*domain.RefundRequest, error) {
	status := domain.RefundRequestStatusForRefund(full)

	var req domain.RefundRequest
	err := forUpdate(tx).
		Where("payment_id = ? AND status IN ?", p.ID, domain.OpenRefundStatuses).
		Order("created_at").
		First(&req).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		req = domain.RefundRequest{
			PaymentID:        p.ID,
			BookingID:        b.ID,
			BookingType:      b.BookingType,
			Reason:           fmt.Sprintf("provider event %s (%s)", ev.Type, ev.EventID),
			IsAdminInitiated: true,
		}
	}

	req.Status = status
	req.AmountToRefund = ev.AmountRefunded
	req.ProcessedAt = &now
	if req.CalculationDetails == "" {
		req.CalculationDetails = fmt.Sprintf("reconciled from provider event %s: refunded %s %s", ev.EventID, ev.AmountRefunded.StringFixed(2), p.Currency)
	}

	if req.ID == 0 {
		if err := tx.Create(&req).Error; err != nil {
			return nil, err
		}
	} else if err := tx.Save(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}
