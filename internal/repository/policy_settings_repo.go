package repository

import (
	"context"
	"errors"

	"motobook/internal/domain"

	"gorm.io/gorm"
)

// singletonSettingsID: policy settings are one global row, enforced at save time.
const singletonSettingsID = 1

type PolicySettingsRepository struct {
	db *gorm.DB
}

func NewPolicySettingsRepository(db *gorm.DB) *PolicySettingsRepository {
	return &PolicySettingsRepository{db: db}
}

// Get returns the configured settings, or gorm.ErrRecordNotFound when refund
// policy has never been configured.
func (r *PolicySettingsRepository) Get(ctx context.Context) (*domain.PolicySettings, error) {
	var s domain.PolicySettings
	if err := r.db.WithContext(ctx).First(&s, singletonSettingsID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the singleton row, bumping the version on update so snapshots
// can be traced back to the configuration that produced them.
func (r *PolicySettingsRepository) Save(ctx context.Context, s *domain.PolicySettings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.PolicySettings
		err := forUpdate(tx).
			First(&current, singletonSettingsID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.ID = singletonSettingsID
				s.Version = 1
				return tx.Create(s).Error
			}
			return err
		}

		s.ID = singletonSettingsID
		s.Version = current.Version + 1
		s.CreatedAt = current.CreatedAt
		return tx.Save(s).Error
	})
}
