package repository

import (
	"context"
	"errors"
	"time"

	"motobook/internal/domain"

	"gorm.io/gorm"
)

type RefundRequestRepository struct {
	db *gorm.DB
}

func NewRefundRequestRepository(db *gorm.DB) *RefundRequestRepository {
	return &RefundRequestRepository{db: db}
}

func (r *RefundRequestRepository) Create(ctx context.Context, req *domain.RefundRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RefundRequestRepository) GetByID(ctx context.Context, id int64) (*domain.RefundRequest, error) {
	var req domain.RefundRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RefundRequestRepository) GetByToken(ctx context.Context, token string) (*domain.RefundRequest, error) {
	var req domain.RefundRequest
	if err := r.db.WithContext(ctx).Where("verification_token = ?", token).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindOpenByPaymentID returns the single open request for a payment, or
// gorm.ErrRecordNotFound.
func (r *RefundRequestRepository) FindOpenByPaymentID(ctx context.Context, paymentID int64) (*domain.RefundRequest, error) {
	var req domain.RefundRequest
	err := r.db.WithContext(ctx).
		Where("payment_id = ? AND status IN ?", paymentID, domain.OpenRefundStatuses).
		Order("created_at").
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RefundRequestRepository) Update(ctx context.Context, req *domain.RefundRequest) error {
	res := r.db.WithContext(ctx).Save(req)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("refund request row not updated")
	}
	return nil
}

// UpsertOpen creates the request unless an open one already exists for the
// payment, in which case the open row is updated in place under a row lock.
// The passed request is overwritten with the persisted row.
func (r *RefundRequestRepository) UpsertOpen(ctx context.Context, req *domain.RefundRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.RefundRequest
		err := forUpdate(tx).
			Where("payment_id = ? AND status IN ?", req.PaymentID, domain.OpenRefundStatuses).
			Order("created_at").
			First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(req).Error
			}
			return err
		}

		existing.Status = req.Status
		existing.AmountToRefund = req.AmountToRefund
		if req.Reason != "" {
			existing.Reason = req.Reason
		}
		if req.CalculationDetails != "" {
			existing.CalculationDetails = req.CalculationDetails
		}
		existing.IsAdminInitiated = existing.IsAdminInitiated || req.IsAdminInitiated
		if req.VerificationToken != nil {
			existing.VerificationToken = req.VerificationToken
			existing.TokenExpiresAt = req.TokenExpiresAt
		}
		if req.ProcessedBy != nil {
			existing.ProcessedBy = req.ProcessedBy
		}
		if req.ProcessedAt != nil {
			existing.ProcessedAt = req.ProcessedAt
		}

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*req = existing
		return nil
	})
}

// ListExpiredUnverified returns unverified requests whose token lapsed before
// the cutoff.
func (r *RefundRequestRepository) ListExpiredUnverified(ctx context.Context, cutoff time.Time) ([]domain.RefundRequest, error) {
	var out []domain.RefundRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND token_expires_at < ?", domain.RefundUnverified, cutoff).
		Find(&out).Error
	return out, err
}

func (r *RefundRequestRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.RefundRequest{}, id).Error
}

func (r *RefundRequestRepository) List(ctx context.Context, status domain.RefundRequestStatus, limit, offset int) ([]domain.RefundRequest, error) {
	q := r.db.WithContext(ctx).Model(&domain.RefundRequest{}).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	var out []domain.RefundRequest
	err := q.Find(&out).Error
	return out, err
}
