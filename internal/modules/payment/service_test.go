package payment

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"motobook/internal/domain"
	"motobook/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.PolicySettings{},
		&domain.Booking{},
		&domain.Payment{},
		&domain.RefundRequest{},
	))
	return db
}

type stubSnapshots struct {
	snap *domain.PolicySnapshot
}

func (s *stubSnapshots) Snapshot(ctx context.Context) (*domain.PolicySnapshot, error) {
	return s.snap, nil
}

type countingProvider struct {
	SandboxProvider
	calls int
}

func (p *countingProvider) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*ProviderIntent, error) {
	p.calls++
	return p.SandboxProvider.CreateIntent(ctx, amount, currency, metadata)
}

type paymentFixture struct {
	db       *gorm.DB
	svc      *Service
	bookings *repository.BookingRepository
	payments *repository.PaymentRepository
	requests *repository.RefundRequestRepository
	provider *countingProvider
	snaps    *stubSnapshots
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	db := setupDB(t)
	bookings := repository.NewBookingRepository(db)
	payments := repository.NewPaymentRepository(db)
	requests := repository.NewRefundRequestRepository(db)
	recon := repository.NewReconciliationRepository(db)

	tier := domain.RefundTier{
		FullRefundDays:       7,
		PartialRefundDays:    3,
		PartialRefundPercent: 50,
		MinimalRefundDays:    1,
	}
	snaps := &stubSnapshots{snap: &domain.PolicySnapshot{
		Version:    1,
		CapturedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Upfront:    tier,
		Deposit:    tier,
	}}

	provider := &countingProvider{}
	svc := NewService(payments, bookings, snaps, provider, recon, "GBP", nil)

	return &paymentFixture{
		db:       db,
		svc:      svc,
		bookings: bookings,
		payments: payments,
		requests: requests,
		provider: provider,
		snaps:    snaps,
	}
}

func (f *paymentFixture) seedPaidBooking(t *testing.T, bookingType domain.BookingType, chargeID string) (*domain.Booking, *domain.Payment) {
	t.Helper()
	ctx := context.Background()

	b := &domain.Booking{
		BookingType:      bookingType,
		BookingReference: bookingType.ReferencePrefix() + "-TEST" + chargeID[len(chargeID)-4:],
		CustomerID:       100,
		StartTime:        time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2026, 6, 17, 10, 0, 0, 0, time.UTC),
		TotalPrice:       decimal.RequireFromString("500.00"),
		AmountPaid:       decimal.RequireFromString("500.00"),
		Method:           domain.MethodUpfront,
		Status:           domain.BookingConfirmed,
		PaymentStatus:    domain.PaymentPaid,
	}
	require.NoError(t, f.bookings.Create(ctx, b))

	p := &domain.Payment{
		BookingID:        b.ID,
		BookingType:      bookingType,
		ProviderIntentID: "pi_" + chargeID,
		ProviderChargeID: chargeID,
		Amount:           decimal.RequireFromString("500.00"),
		Currency:         "GBP",
		Method:           domain.MethodUpfront,
		Status:           domain.IntentSucceeded,
		PolicySnapshot:   f.snaps.snap,
	}
	require.NoError(t, f.payments.Create(ctx, p))
	return b, p
}

func refundEvent(eventID, chargeID, amount string) domain.ProviderEvent {
	return domain.ProviderEvent{
		EventID:          eventID,
		Type:             domain.EventChargeRefunded,
		ProviderChargeID: chargeID,
		AmountRefunded:   decimal.RequireFromString(amount),
		Status:           "succeeded",
	}
}

func TestHandleProviderEvent_FullRefund(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	b, p := f.seedPaidBooking(t, domain.BookingHire, "ch_full_0001")

	req, err := f.svc.HandleProviderEvent(ctx, refundEvent("evt_1", "ch_full_0001", "500.00"))
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Equal(t, domain.RefundRefunded, req.Status)
	assert.Equal(t, "500.00", req.AmountToRefund.StringFixed(2))
	assert.True(t, req.IsAdminInitiated)
	require.NotNil(t, req.ProcessedAt)

	updatedPayment, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentRefunded, updatedPayment.Status)
	assert.Equal(t, "500.00", updatedPayment.RefundedAmount.StringFixed(2))

	updatedBooking, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, updatedBooking.PaymentStatus)
	assert.Equal(t, domain.BookingDeclinedRefunded, updatedBooking.Status, "fully refunded hire bookings are declined")
}

func TestHandleProviderEvent_FullRefundNonHireCancels(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	b, _ := f.seedPaidBooking(t, domain.BookingService, "ch_full_0002")

	_, err := f.svc.HandleProviderEvent(ctx, refundEvent("evt_1", "ch_full_0002", "500.00"))
	require.NoError(t, err)

	updated, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, updated.Status)
}

func TestHandleProviderEvent_PartialRefund(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	b, p := f.seedPaidBooking(t, domain.BookingHire, "ch_part_0001")

	req, err := f.svc.HandleProviderEvent(ctx, refundEvent("evt_1", "ch_part_0001", "200.00"))
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, domain.RefundPartiallyRefunded, req.Status)

	updatedPayment, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPartiallyRefunded, updatedPayment.Status)
	assert.Equal(t, "200.00", updatedPayment.RefundedAmount.StringFixed(2))

	updatedBooking, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPartiallyRefunded, updatedBooking.PaymentStatus)
	assert.Equal(t, domain.BookingConfirmed, updatedBooking.Status, "partial refunds leave the booking status alone")
}

func TestHandleProviderEvent_ReplayIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	_, p := f.seedPaidBooking(t, domain.BookingHire, "ch_idem_0001")

	ev := refundEvent("evt_1", "ch_idem_0001", "500.00")

	first, err := f.svc.HandleProviderEvent(ctx, ev)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.svc.HandleProviderEvent(ctx, ev)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID, "replay must not create a second request")
	assert.Equal(t, first.Status, second.Status)

	var count int64
	require.NoError(t, f.db.Model(&domain.RefundRequest{}).Where("payment_id = ?", p.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	replayed, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", replayed.RefundedAmount.StringFixed(2))
}

func TestHandleProviderEvent_PartialThenFull(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	b, p := f.seedPaidBooking(t, domain.BookingHire, "ch_grow_0001")

	partial, err := f.svc.HandleProviderEvent(ctx, refundEvent("evt_1", "ch_grow_0001", "200.00"))
	require.NoError(t, err)

	full, err := f.svc.HandleProviderEvent(ctx, domain.ProviderEvent{
		EventID:          "evt_2",
		Type:             domain.EventChargeRefundUpdated,
		ProviderChargeID: "ch_grow_0001",
		AmountRefunded:   decimal.RequireFromString("500.00"),
		Status:           "succeeded",
	})
	require.NoError(t, err)
	assert.Equal(t, partial.ID, full.ID, "the open request is updated in place")
	assert.Equal(t, domain.RefundRefunded, full.Status)

	updatedPayment, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentRefunded, updatedPayment.Status)

	updatedBooking, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, updatedBooking.PaymentStatus)
}

func TestHandleProviderEvent_StalePartialAfterFull(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	b, p := f.seedPaidBooking(t, domain.BookingHire, "ch_stale_001")

	_, err := f.svc.HandleProviderEvent(ctx, refundEvent("evt_1", "ch_stale_001", "500.00"))
	require.NoError(t, err)

	// A partial-refund event from earlier in the charge's history can arrive
	// after the full refund settled. It must not roll anything back.
	stale, err := f.svc.HandleProviderEvent(ctx, refundEvent("evt_0", "ch_stale_001", "200.00"))
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.Equal(t, domain.RefundRefunded, stale.Status)

	updatedPayment, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentRefunded, updatedPayment.Status)
	assert.Equal(t, "500.00", updatedPayment.RefundedAmount.StringFixed(2))

	updatedBooking, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, updatedBooking.PaymentStatus)

	var count int64
	require.NoError(t, f.db.Model(&domain.RefundRequest{}).Where("payment_id = ?", p.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "a stale event must not open a second request")
}

func TestHandleProviderEvent_RefundByIntentIDOnly(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	b, p := f.seedPaidBooking(t, domain.BookingHire, "ch_byid_0001")

	// A second payment whose charge id is still blank must not be picked up
	// by an event that carries only an intent id.
	unsynced := &domain.Payment{
		BookingID:        b.ID,
		BookingType:      domain.BookingHire,
		ProviderIntentID: "pi_other_0001",
		Amount:           decimal.RequireFromString("500.00"),
		Currency:         "GBP",
		Method:           domain.MethodUpfront,
		Status:           domain.IntentCreated,
	}
	require.NoError(t, f.payments.Create(ctx, unsynced))

	req, err := f.svc.HandleProviderEvent(ctx, domain.ProviderEvent{
		EventID:          "evt_1",
		Type:             domain.EventChargeRefunded,
		ProviderIntentID: "pi_ch_byid_0001",
		AmountRefunded:   decimal.RequireFromString("500.00"),
		Status:           "succeeded",
	})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, p.ID, req.PaymentID)

	untouched, err := f.payments.GetByID(ctx, unsynced.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentCreated, untouched.Status)
	assert.Equal(t, "0.00", untouched.RefundedAmount.StringFixed(2))
}

func TestHandleProviderEvent_NoProviderIDs(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.HandleProviderEvent(context.Background(), domain.ProviderEvent{
		EventID:        "evt_1",
		Type:           domain.EventChargeRefunded,
		AmountRefunded: decimal.RequireFromString("100.00"),
		Status:         "succeeded",
	})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestHandleProviderEvent_UnknownCharge(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.HandleProviderEvent(context.Background(), refundEvent("evt_1", "ch_missing", "100.00"))
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestHandleProviderEvent_UnsupportedType(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.HandleProviderEvent(context.Background(), domain.ProviderEvent{
		EventID: "evt_1",
		Type:    "customer.updated",
	})
	assert.ErrorIs(t, err, ErrUnsupportedEvent)
}

func TestHandleProviderEvent_IntentSucceeded(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	b := &domain.Booking{
		BookingType:      domain.BookingHire,
		BookingReference: "HR-SUCCEED01",
		CustomerID:       100,
		StartTime:        time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2026, 6, 17, 10, 0, 0, 0, time.UTC),
		TotalPrice:       decimal.RequireFromString("500.00"),
		Method:           domain.MethodUpfront,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentUnpaid,
	}
	require.NoError(t, f.bookings.Create(ctx, b))

	p := &domain.Payment{
		BookingID:        b.ID,
		BookingType:      domain.BookingHire,
		ProviderIntentID: "pi_succ_0001",
		Amount:           decimal.RequireFromString("500.00"),
		Currency:         "GBP",
		Method:           domain.MethodUpfront,
		Status:           domain.IntentCreated,
	}
	require.NoError(t, f.payments.Create(ctx, p))

	ev := domain.ProviderEvent{
		EventID:          "evt_1",
		Type:             domain.EventIntentSucceeded,
		ProviderIntentID: "pi_succ_0001",
		ProviderChargeID: "ch_succ_0001",
	}

	_, err := f.svc.HandleProviderEvent(ctx, ev)
	require.NoError(t, err)

	updatedPayment, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentSucceeded, updatedPayment.Status)
	assert.Equal(t, "ch_succ_0001", updatedPayment.ProviderChargeID)

	updatedBooking, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updatedBooking.PaymentStatus)
	assert.Equal(t, "500.00", updatedBooking.AmountPaid.StringFixed(2))

	// Replay changes nothing further.
	_, err = f.svc.HandleProviderEvent(ctx, ev)
	require.NoError(t, err)
}

func TestCreateIntent_AttachesSnapshotOnce(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	b := &domain.Booking{
		BookingType:      domain.BookingHire,
		BookingReference: "HR-INTENT001",
		CustomerID:       100,
		StartTime:        time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2026, 6, 17, 10, 0, 0, 0, time.UTC),
		TotalPrice:       decimal.RequireFromString("500.00"),
		DepositAmount:    decimal.RequireFromString("100.00"),
		Method:           domain.MethodUpfront,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentUnpaid,
	}
	require.NoError(t, f.bookings.Create(ctx, b))

	resp, err := f.svc.CreateIntent(ctx, CreateIntentRequest{
		BookingID:     b.ID,
		Amount:        decimal.RequireFromString("500.00"),
		PaymentMethod: "upfront",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 1, f.provider.calls)

	stored, err := f.payments.GetByID(ctx, resp.PaymentID)
	require.NoError(t, err)
	require.NotNil(t, stored.PolicySnapshot)
	assert.Equal(t, 1, stored.PolicySnapshot.Version)

	// A later settings change must not touch the stored snapshot.
	f.snaps.snap = &domain.PolicySnapshot{Version: 2, CapturedAt: time.Now().UTC()}
	stored, err = f.payments.GetByID(ctx, resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.PolicySnapshot.Version)
}

func TestCreateIntent_DepositMustMatchBooking(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	b := &domain.Booking{
		BookingType:      domain.BookingHire,
		BookingReference: "HR-INTENT002",
		CustomerID:       100,
		StartTime:        time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2026, 6, 17, 10, 0, 0, 0, time.UTC),
		TotalPrice:       decimal.RequireFromString("500.00"),
		DepositAmount:    decimal.RequireFromString("100.00"),
		Method:           domain.MethodDeposit,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentUnpaid,
	}
	require.NoError(t, f.bookings.Create(ctx, b))

	_, err := f.svc.CreateIntent(ctx, CreateIntentRequest{
		BookingID:     b.ID,
		Amount:        decimal.RequireFromString("50.00"),
		PaymentMethod: "deposit",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	resp, err := f.svc.CreateIntent(ctx, CreateIntentRequest{
		BookingID:     b.ID,
		Amount:        decimal.RequireFromString("100.00"),
		PaymentMethod: "deposit",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.IntentID)
}

func TestCreateIntent_UpfrontMustMatchBooking(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	b := &domain.Booking{
		BookingType:      domain.BookingHire,
		BookingReference: "HR-INTENT003",
		CustomerID:       100,
		StartTime:        time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2026, 6, 17, 10, 0, 0, 0, time.UTC),
		TotalPrice:       decimal.RequireFromString("500.00"),
		DepositAmount:    decimal.RequireFromString("100.00"),
		Method:           domain.MethodUpfront,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentUnpaid,
	}
	require.NoError(t, f.bookings.Create(ctx, b))

	// An underpaid upfront intent would flip the booking to paid with less
	// than the full price recorded.
	_, err := f.svc.CreateIntent(ctx, CreateIntentRequest{
		BookingID:     b.ID,
		Amount:        decimal.RequireFromString("100.00"),
		PaymentMethod: "upfront",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	resp, err := f.svc.CreateIntent(ctx, CreateIntentRequest{
		BookingID:     b.ID,
		Amount:        decimal.RequireFromString("500.00"),
		PaymentMethod: "upfront",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.IntentID)
}

func TestCreateIntent_UnknownBooking(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.CreateIntent(context.Background(), CreateIntentRequest{
		BookingID:     999,
		Amount:        decimal.RequireFromString("10.00"),
		PaymentMethod: "upfront",
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
