package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"motobook/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubBookingRepo struct {
	byID      map[int64]*domain.Booking
	nextID    int64
	createErr error
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{byID: make(map[int64]*domain.Booking), nextID: 1}
}

func (r *stubBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	b.ID = r.nextID
	r.nextID++
	cp := *b
	r.byID[b.ID] = &cp
	return nil
}

func (r *stubBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBookingRepo) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	b, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Status = status
	return nil
}

func (r *stubBookingRepo) CancelWithReason(ctx context.Context, id int64, reason string, at time.Time) error {
	b, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Status = domain.BookingCancelled
	b.CancellationReason = reason
	b.CancelledAt = &at
	return nil
}

type stubAddOnReader struct {
	addons map[int64]*domain.AddOn
}

func (r *stubAddOnReader) GetByID(ctx context.Context, id int64) (*domain.AddOn, error) {
	a, ok := r.addons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *stubAddOnReader) ListAvailable(ctx context.Context, t domain.BookingType) ([]domain.AddOn, error) {
	var out []domain.AddOn
	for _, a := range r.addons {
		if a.BookingType == t && a.Available {
			out = append(out, *a)
		}
	}
	return out, nil
}

type stubPaymentsReader struct {
	payments map[int64][]domain.Payment
}

func (r *stubPaymentsReader) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	return r.payments[bookingID], nil
}

type bookingFixture struct {
	svc      *Service
	repo     *stubBookingRepo
	payments *stubPaymentsReader
	now      time.Time
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	repo := newStubBookingRepo()
	addons := &stubAddOnReader{addons: map[int64]*domain.AddOn{
		1: {ID: 1, Name: "Helmet hire", BookingType: domain.BookingHire, Price: decimal.RequireFromString("15.00"), Available: true},
		2: {ID: 2, Name: "Pannier set", BookingType: domain.BookingHire, Price: decimal.RequireFromString("25.00"), Available: false},
	}}
	payments := &stubPaymentsReader{payments: make(map[int64][]domain.Payment)}

	svc := NewService(repo, addons, payments, 2*time.Hour)
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &bookingFixture{svc: svc, repo: repo, payments: payments, now: now}
}

func validRequest(f *bookingFixture) CreateBookingRequest {
	return CreateBookingRequest{
		BookingType:   "hire",
		CustomerID:    100,
		StartTime:     f.now.AddDate(0, 0, 10),
		EndTime:       f.now.AddDate(0, 0, 12),
		TotalPrice:    decimal.RequireFromString("500.00"),
		DepositAmount: decimal.RequireFromString("100.00"),
		PaymentMethod: "upfront",
	}
}

func TestCreateBooking_AssignsReferenceOnce(t *testing.T) {
	f := newBookingFixture(t)

	b, fieldErrs, err := f.svc.CreateBooking(context.Background(), validRequest(f))
	require.NoError(t, err)
	require.Nil(t, fieldErrs)
	require.NotNil(t, b)

	assert.True(t, strings.HasPrefix(b.BookingReference, "HR-"), "hire references carry the HR prefix, got %q", b.BookingReference)
	assert.Len(t, b.BookingReference, 13)

	// The stored reference is the one handed back; it never changes afterwards.
	stored, err := f.svc.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.BookingReference, stored.BookingReference)

	updated, err := f.svc.UpdateStatus(context.Background(), b.ID, domain.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, b.BookingReference, updated.BookingReference)
}

func TestCreateBooking_ReferencePrefixPerType(t *testing.T) {
	f := newBookingFixture(t)

	prefixes := map[string]string{
		"hire":    "HR-",
		"service": "SV-",
		"sales":   "SL-",
	}
	for bookingType, prefix := range prefixes {
		req := validRequest(f)
		req.BookingType = bookingType

		b, fieldErrs, err := f.svc.CreateBooking(context.Background(), req)
		require.NoError(t, err)
		require.Nil(t, fieldErrs, "type %s", bookingType)
		assert.True(t, strings.HasPrefix(b.BookingReference, prefix), "type %s got %q", bookingType, b.BookingReference)
	}
}

func TestCreateBooking_Guards(t *testing.T) {
	f := newBookingFixture(t)

	tests := []struct {
		name      string
		mutate    func(*CreateBookingRequest)
		wantField string
	}{
		{
			name:      "unknown booking type",
			mutate:    func(r *CreateBookingRequest) { r.BookingType = "track_day" },
			wantField: "booking_type",
		},
		{
			name:      "end before start",
			mutate:    func(r *CreateBookingRequest) { r.EndTime = r.StartTime.Add(-time.Hour) },
			wantField: "end_time",
		},
		{
			name:      "end equals start",
			mutate:    func(r *CreateBookingRequest) { r.EndTime = r.StartTime },
			wantField: "end_time",
		},
		{
			name:      "hire requires end time",
			mutate:    func(r *CreateBookingRequest) { r.EndTime = time.Time{} },
			wantField: "end_time",
		},
		{
			name:      "start inside lead time window",
			mutate:    func(r *CreateBookingRequest) { r.StartTime = f.now.Add(time.Hour); r.EndTime = f.now.Add(3 * time.Hour) },
			wantField: "start_time",
		},
		{
			name:      "negative total price",
			mutate:    func(r *CreateBookingRequest) { r.TotalPrice = decimal.RequireFromString("-1.00") },
			wantField: "total_price",
		},
		{
			name:      "negative deposit",
			mutate:    func(r *CreateBookingRequest) { r.DepositAmount = decimal.RequireFromString("-0.01") },
			wantField: "deposit_amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(f)
			tt.mutate(&req)

			b, fieldErrs, err := f.svc.CreateBooking(context.Background(), req)
			require.NoError(t, err)
			assert.Nil(t, b)
			require.NotNil(t, fieldErrs)
			assert.Contains(t, fieldErrs, tt.wantField)
		})
	}
}

func TestCreateBooking_AddOnGuards(t *testing.T) {
	f := newBookingFixture(t)

	t.Run("unknown add-on", func(t *testing.T) {
		req := validRequest(f)
		id := int64(99)
		req.AddOnID = &id

		_, fieldErrs, err := f.svc.CreateBooking(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, fieldErrs)
		assert.Contains(t, fieldErrs, "add_on_id")
	})

	t.Run("unavailable add-on", func(t *testing.T) {
		req := validRequest(f)
		id := int64(2)
		price := decimal.RequireFromString("25.00")
		req.AddOnID = &id
		req.AddOnPrice = &price

		_, fieldErrs, err := f.svc.CreateBooking(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, fieldErrs)
		assert.Contains(t, fieldErrs, "add_on_id")
	})

	t.Run("stale price is a hard error", func(t *testing.T) {
		req := validRequest(f)
		id := int64(1)
		price := decimal.RequireFromString("12.00")
		req.AddOnID = &id
		req.AddOnPrice = &price

		_, fieldErrs, err := f.svc.CreateBooking(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, fieldErrs)
		assert.Equal(t, "does not match the current price of 15.00", fieldErrs["add_on_price"])
	})

	t.Run("matching price accepted", func(t *testing.T) {
		req := validRequest(f)
		id := int64(1)
		price := decimal.RequireFromString("15.00")
		req.AddOnID = &id
		req.AddOnPrice = &price

		b, fieldErrs, err := f.svc.CreateBooking(context.Background(), req)
		require.NoError(t, err)
		require.Nil(t, fieldErrs)
		require.NotNil(t, b)
	})
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newBookingFixture(t)

	b, _, err := f.svc.CreateBooking(context.Background(), validRequest(f))
	require.NoError(t, err)

	confirmed, err := f.svc.UpdateStatus(context.Background(), b.ID, domain.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, confirmed.Status)

	// pending -> completed skips confirmed and is rejected.
	b2, _, err := f.svc.CreateBooking(context.Background(), validRequest(f))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), b2.ID, domain.BookingCompleted)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestCancelBooking_ReportsEntitlement(t *testing.T) {
	f := newBookingFixture(t)

	req := validRequest(f)
	req.StartTime = f.now.AddDate(0, 0, 10)
	req.EndTime = f.now.AddDate(0, 0, 12)
	b, _, err := f.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	// Simulate a settled payment carrying a frozen snapshot.
	tier := domain.RefundTier{
		FullRefundDays:       7,
		PartialRefundDays:    3,
		PartialRefundPercent: 50,
		MinimalRefundDays:    1,
	}
	snap := &domain.PolicySnapshot{Version: 1, CapturedAt: f.now, Upfront: tier, Deposit: tier}
	f.payments.payments[b.ID] = []domain.Payment{{
		ID:             1,
		BookingID:      b.ID,
		Amount:         decimal.RequireFromString("500.00"),
		Method:         domain.MethodUpfront,
		Status:         domain.IntentSucceeded,
		PolicySnapshot: snap,
	}}
	f.repo.byID[b.ID].AmountPaid = decimal.RequireFromString("500.00")

	cancelled, calc, err := f.svc.CancelBooking(context.Background(), b.ID, "changed my mind")
	require.NoError(t, err)
	require.NotNil(t, calc)

	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, "500.00", calc.EntitledAmount.StringFixed(2))
	assert.Equal(t, "Full refund", calc.PolicyApplied)
}

func TestCancelBooking_NoPaymentDegradesCalculation(t *testing.T) {
	f := newBookingFixture(t)

	b, _, err := f.svc.CreateBooking(context.Background(), validRequest(f))
	require.NoError(t, err)

	_, calc, err := f.svc.CancelBooking(context.Background(), b.ID, "no show")
	require.NoError(t, err)
	require.NotNil(t, calc)
	assert.Equal(t, "0.00", calc.EntitledAmount.StringFixed(2))
	assert.Equal(t, "N/A", calc.PolicyApplied)
	assert.Equal(t, "not configured", calc.Details)
}

func TestCancelBooking_CompletedCannotBeCancelled(t *testing.T) {
	f := newBookingFixture(t)

	b, _, err := f.svc.CreateBooking(context.Background(), validRequest(f))
	require.NoError(t, err)
	f.repo.byID[b.ID].Status = domain.BookingCompleted

	_, _, err = f.svc.CancelBooking(context.Background(), b.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}
