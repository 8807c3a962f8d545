package repository

import (
	"context"
	"errors"

	"motobook/internal/domain"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByProviderChargeID(ctx context.Context, chargeID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("provider_charge_id = ?", chargeID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.IntentStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *PaymentRepository) SetProviderChargeID(ctx context.Context, id int64, chargeID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ?", id).
		Update("provider_charge_id", chargeID).Error
}

// MarkSucceededIdempotent records a provider success under a row lock and
// syncs the booking's paid amount and payment status in the same transaction,
// so a failure on either side rolls both back and the redelivered event
// retries the whole step. The second return is false when the payment had
// already been marked succeeded, in which case nothing is mutated.
func (r *PaymentRepository) MarkSucceededIdempotent(ctx context.Context, intentID, chargeID string) (*domain.Payment, bool, error) {
	var payment domain.Payment
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			Where("provider_intent_id = ?", intentID).
			First(&payment).Error; err != nil {
			return err
		}
		if payment.Status == domain.IntentSucceeded {
			changed = false
			return nil
		}
		res := tx.Model(&domain.Payment{}).Where("id = ?", payment.ID).Updates(map[string]interface{}{
			"status":             domain.IntentSucceeded,
			"provider_charge_id": chargeID,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("payment row not updated")
		}

		bookingStatus := domain.PaymentPaid
		if payment.Method == domain.MethodDeposit {
			bookingStatus = domain.PaymentDepositPaid
		}
		if err := tx.Model(&bookingModel{}).Where("id = ?", payment.BookingID).Updates(map[string]interface{}{
			"amount_paid":    payment.Amount,
			"payment_status": string(bookingStatus),
		}).Error; err != nil {
			return err
		}

		payment.Status = domain.IntentSucceeded
		payment.ProviderChargeID = chargeID
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &payment, changed, nil
}
