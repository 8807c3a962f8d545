package policy

import (
	"context"
	"testing"

	"motobook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubSettingsRepo struct {
	settings *domain.PolicySettings
	saved    []*domain.PolicySettings
}

func (r *stubSettingsRepo) Get(ctx context.Context) (*domain.PolicySettings, error) {
	if r.settings == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.settings, nil
}

func (r *stubSettingsRepo) Save(ctx context.Context, s *domain.PolicySettings) error {
	if r.settings != nil {
		s.Version = r.settings.Version + 1
	} else {
		s.Version = 1
	}
	r.settings = s
	r.saved = append(r.saved, s)
	return nil
}

func validTier() TierRequest {
	return TierRequest{
		FullRefundDays:       7,
		PartialRefundDays:    3,
		PartialRefundPercent: 50,
		MinimalRefundDays:    1,
		MinimalRefundPercent: 0,
	}
}

func TestSave_ValidSettings(t *testing.T) {
	repo := &stubSettingsRepo{}
	svc := NewService(repo)

	settings, fieldErrs, err := svc.Save(context.Background(), UpdatePolicySettingsRequest{
		Upfront: validTier(),
		Deposit: validTier(),
	})

	require.NoError(t, err)
	assert.Nil(t, fieldErrs)
	require.NotNil(t, settings)
	assert.Equal(t, 1, settings.Version)
	assert.Len(t, repo.saved, 1)
}

func TestSave_OrderingViolationAttributedToGenerousField(t *testing.T) {
	repo := &stubSettingsRepo{}
	svc := NewService(repo)

	upfront := validTier()
	upfront.FullRefundDays = 2 // below partial's 3

	settings, fieldErrs, err := svc.Save(context.Background(), UpdatePolicySettingsRequest{
		Upfront: upfront,
		Deposit: validTier(),
	})

	require.NoError(t, err)
	assert.Nil(t, settings)
	require.NotNil(t, fieldErrs)
	assert.Contains(t, fieldErrs, "upfront.full_refund_days")
	assert.NotContains(t, fieldErrs, "upfront.partial_refund_days")
	assert.Empty(t, repo.saved, "invalid settings must never reach the repository")
}

func TestSave_PartialBelowMinimalRejected(t *testing.T) {
	repo := &stubSettingsRepo{}
	svc := NewService(repo)

	deposit := validTier()
	deposit.PartialRefundDays = 0
	deposit.MinimalRefundDays = 1

	_, fieldErrs, err := svc.Save(context.Background(), UpdatePolicySettingsRequest{
		Upfront: validTier(),
		Deposit: deposit,
	})

	require.NoError(t, err)
	require.NotNil(t, fieldErrs)
	assert.Contains(t, fieldErrs, "deposit.partial_refund_days")
}

func TestSave_PercentOutOfRange(t *testing.T) {
	repo := &stubSettingsRepo{}
	svc := NewService(repo)

	upfront := validTier()
	upfront.PartialRefundPercent = 150

	_, fieldErrs, err := svc.Save(context.Background(), UpdatePolicySettingsRequest{
		Upfront: upfront,
		Deposit: validTier(),
	})

	require.NoError(t, err)
	require.NotNil(t, fieldErrs)
	assert.Contains(t, fieldErrs, "upfront.partial_refund_percentage")
	assert.Empty(t, repo.saved)
}

func TestSave_NegativeDaysRejected(t *testing.T) {
	repo := &stubSettingsRepo{}
	svc := NewService(repo)

	upfront := validTier()
	upfront.MinimalRefundDays = -1

	_, fieldErrs, err := svc.Save(context.Background(), UpdatePolicySettingsRequest{
		Upfront: upfront,
		Deposit: validTier(),
	})

	require.NoError(t, err)
	require.NotNil(t, fieldErrs)
	assert.Contains(t, fieldErrs, "upfront.minimal_refund_days")
}

func TestGet_UnconfiguredIsNotAnError(t *testing.T) {
	svc := NewService(&stubSettingsRepo{})

	settings, err := svc.Get(context.Background())

	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestSnapshot_Unconfigured(t *testing.T) {
	svc := NewService(&stubSettingsRepo{})

	snap, err := svc.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshot_IsImmutableValueCopy(t *testing.T) {
	repo := &stubSettingsRepo{}
	svc := NewService(repo)

	_, fieldErrs, err := svc.Save(context.Background(), UpdatePolicySettingsRequest{
		Upfront: validTier(),
		Deposit: validTier(),
	})
	require.NoError(t, err)
	require.Nil(t, fieldErrs)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, 7, snap.Upfront.FullRefundDays)

	// Edit the settings after the snapshot was taken.
	changed := validTier()
	changed.FullRefundDays = 14
	_, fieldErrs, err = svc.Save(context.Background(), UpdatePolicySettingsRequest{
		Upfront: changed,
		Deposit: validTier(),
	})
	require.NoError(t, err)
	require.Nil(t, fieldErrs)

	// The earlier snapshot still describes the old settings.
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, 7, snap.Upfront.FullRefundDays)

	fresh, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, 2, fresh.Version)
	assert.Equal(t, 14, fresh.Upfront.FullRefundDays)
}
