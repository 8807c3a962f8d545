package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motobook/internal/domain"
	"motobook/internal/pkg/validator"

	"gorm.io/gorm"
)

type settingsRepo interface {
	Get(ctx context.Context) (*domain.PolicySettings, error)
	Save(ctx context.Context, s *domain.PolicySettings) error
}

// Service validates and persists the singleton cancellation policy settings,
// and produces immutable snapshots for new payments.
type Service struct {
	settings settingsRepo
	now      func() time.Time
}

func NewService(settings settingsRepo) *Service {
	return &Service{settings: settings, now: time.Now}
}

// Get returns the configured settings, or nil when refund policy has never
// been configured. Missing configuration is not an error.
func (s *Service) Get(ctx context.Context) (*domain.PolicySettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return settings, nil
}

// Save validates and persists settings. Invalid configurations are rejected
// with field-keyed errors and never reach the database.
func (s *Service) Save(ctx context.Context, req UpdatePolicySettingsRequest) (*domain.PolicySettings, map[string]string, error) {
	settings := &domain.PolicySettings{
		Upfront: toTier(req.Upfront),
		Deposit: toTier(req.Deposit),
	}

	if fieldErrs := ValidateSettings(settings); fieldErrs != nil {
		return nil, fieldErrs, nil
	}

	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, nil, fmt.Errorf("save policy settings: %w", err)
	}
	return settings, nil, nil
}

// Snapshot freezes the current settings into an immutable value copy. Returns
// nil when settings have never been configured.
func (s *Service) Snapshot(ctx context.Context) (*domain.PolicySnapshot, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, nil
	}
	snap := domain.NewPolicySnapshot(settings, s.now())
	return &snap, nil
}

// ValidateSettings checks percentage ranges and per-tier day ordering,
// returning a field-keyed error map or nil.
func ValidateSettings(settings *domain.PolicySettings) map[string]string {
	fieldErrs := make(map[string]string)

	for field, msg := range validator.Validate(settings.Upfront) {
		fieldErrs["upfront."+field] = msg
	}
	for field, msg := range validator.Validate(settings.Deposit) {
		fieldErrs["deposit."+field] = msg
	}
	for field, msg := range settings.Upfront.ValidateOrdering("upfront.") {
		fieldErrs[field] = msg
	}
	for field, msg := range settings.Deposit.ValidateOrdering("deposit.") {
		fieldErrs[field] = msg
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return fieldErrs
}

func toTier(req TierRequest) domain.RefundTier {
	return domain.RefundTier{
		FullRefundDays:       req.FullRefundDays,
		PartialRefundDays:    req.PartialRefundDays,
		PartialRefundPercent: req.PartialRefundPercent,
		MinimalRefundDays:    req.MinimalRefundDays,
		MinimalRefundPercent: req.MinimalRefundPercent,
	}
}
