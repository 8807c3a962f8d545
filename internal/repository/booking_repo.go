package repository

import (
	"context"
	"time"

	"motobook/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64           `gorm:"column:id;primaryKey"`
	BookingType        string          `gorm:"column:booking_type"`
	BookingReference   string          `gorm:"column:booking_reference"`
	CustomerID         int64           `gorm:"column:customer_id"`
	StartTime          time.Time       `gorm:"column:start_time"`
	EndTime            time.Time       `gorm:"column:end_time"`
	TotalPrice         decimal.Decimal `gorm:"column:total_price"`
	AmountPaid         decimal.Decimal `gorm:"column:amount_paid"`
	DepositAmount      decimal.Decimal `gorm:"column:deposit_amount"`
	PaymentMethod      string          `gorm:"column:payment_method"`
	Status             string          `gorm:"column:status"`
	PaymentStatus      string          `gorm:"column:payment_status"`
	AddOnID            *int64          `gorm:"column:add_on_id"`
	Notes              *string         `gorm:"column:notes"`
	CancelledAt        *time.Time      `gorm:"column:cancelled_at"`
	CancellationReason *string         `gorm:"column:cancellation_reason"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var notes, reason string
	if m.Notes != nil {
		notes = *m.Notes
	}
	if m.CancellationReason != nil {
		reason = *m.CancellationReason
	}

	return &domain.Booking{
		ID:                 m.ID,
		BookingType:        domain.BookingType(m.BookingType),
		BookingReference:   m.BookingReference,
		CustomerID:         m.CustomerID,
		StartTime:          m.StartTime,
		EndTime:            m.EndTime,
		TotalPrice:         m.TotalPrice,
		AmountPaid:         m.AmountPaid,
		DepositAmount:      m.DepositAmount,
		Method:             domain.PaymentMethod(m.PaymentMethod),
		Status:             domain.BookingStatus(m.Status),
		PaymentStatus:      domain.PaymentStatus(m.PaymentStatus),
		AddOnID:            m.AddOnID,
		Notes:              notes,
		CancelledAt:        m.CancelledAt,
		CancellationReason: reason,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var notes, reason *string
	if b.Notes != "" {
		v := b.Notes
		notes = &v
	}
	if b.CancellationReason != "" {
		v := b.CancellationReason
		reason = &v
	}

	return bookingModel{
		ID:                 b.ID,
		BookingType:        string(b.BookingType),
		BookingReference:   b.BookingReference,
		CustomerID:         b.CustomerID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		TotalPrice:         b.TotalPrice,
		AmountPaid:         b.AmountPaid,
		DepositAmount:      b.DepositAmount,
		PaymentMethod:      string(b.Method),
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		AddOnID:            b.AddOnID,
		Notes:              notes,
		CancelledAt:        b.CancelledAt,
		CancellationReason: reason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).Where("booking_reference = ?", ref).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	return r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", id).
		Update("payment_status", string(status)).Error
}

func (r *BookingRepository) CancelWithReason(ctx context.Context, id int64, reason string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              string(domain.BookingCancelled),
			"cancellation_reason": reason,
			"cancelled_at":        at,
		}).Error
}
