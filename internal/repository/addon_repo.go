package repository

import (
	"context"

	"motobook/internal/domain"

	"gorm.io/gorm"
)

type AddOnRepository struct {
	db *gorm.DB
}

func NewAddOnRepository(db *gorm.DB) *AddOnRepository {
	return &AddOnRepository{db: db}
}

func (r *AddOnRepository) GetByID(ctx context.Context, id int64) (*domain.AddOn, error) {
	var a domain.AddOn
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddOnRepository) ListAvailable(ctx context.Context, t domain.BookingType) ([]domain.AddOn, error) {
	var out []domain.AddOn
	err := r.db.WithContext(ctx).
		Where("booking_type = ? AND available = ?", t, true).
		Order("name").
		Find(&out).Error
	return out, err
}
