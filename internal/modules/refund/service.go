package refund

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"motobook/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is the refund request ledger: it owns the request lifecycle from
// creation and verification through approval to settlement.
type Service struct {
	requests refundRepo
	payments paymentReader
	bookings bookingReader
	notifs   NotificationSender
	tokenTTL time.Duration
	loggerf  func(format string, args ...interface{})
	now      func() time.Time
}

func NewService(requests refundRepo, payments paymentReader, bookings bookingReader, notifs NotificationSender, tokenTTL time.Duration, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		requests: requests,
		payments: payments,
		bookings: bookings,
		notifs:   notifs,
		tokenTTL: tokenTTL,
		loggerf:  loggerf,
		now:      time.Now,
	}
}

type CreateParams struct {
	PaymentID          int64
	AmountToRefund     decimal.Decimal
	Reason             string
	RequestingActor    int64
	RequesterContact   string
	IsAdminInitiated   bool
	InitialStatus      domain.RefundRequestStatus
	CalculationDetails string
}

var ledgerTransitions = map[domain.RefundRequestStatus][]domain.RefundRequestStatus{
	domain.RefundUnverified:              {domain.RefundPending},
	domain.RefundPending:                 {domain.RefundReviewedPendingApproval, domain.RefundApproved, domain.RefundRejected},
	domain.RefundReviewedPendingApproval: {domain.RefundApproved, domain.RefundRejected},
	domain.RefundApproved:                {domain.RefundRefunded, domain.RefundPartiallyRefunded, domain.RefundFailed},
	domain.RefundFailed:                  {domain.RefundApproved, domain.RefundRejected},
}

func canTransition(from, to domain.RefundRequestStatus) bool {
	for _, allowed := range ledgerTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Statuses an admin may open a request at directly. Settled and terminal
// statuses only ever come out of transitions or reconciliation.
var adminInitialStatuses = []domain.RefundRequestStatus{
	domain.RefundPending,
	domain.RefundReviewedPendingApproval,
	domain.RefundApproved,
}

func validAdminInitialStatus(s domain.RefundRequestStatus) bool {
	for _, allowed := range adminInitialStatuses {
		if s == allowed {
			return true
		}
	}
	return false
}

// CreateRefundRequest creates or, when an open request already exists for the
// payment, updates the refund request for a payment. The requested amount is
// validated against the live payment amount; violations come back as
// field-keyed errors, never silently truncated.
func (s *Service) CreateRefundRequest(ctx context.Context, params CreateParams) (*domain.RefundRequest, map[string]string, error) {
	payment, err := s.payments.GetByID(ctx, params.PaymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load payment: %w", err)
	}

	if params.AmountToRefund.IsNegative() {
		return nil, map[string]string{"amount_to_refund": "must not be negative"}, nil
	}
	if params.AmountToRefund.GreaterThan(payment.Amount) {
		return nil, map[string]string{
			"amount_to_refund": fmt.Sprintf("exceeds the payment amount of %s", payment.Amount.StringFixed(2)),
		}, nil
	}
	if params.IsAdminInitiated && params.InitialStatus != "" && !validAdminInitialStatus(params.InitialStatus) {
		return nil, map[string]string{
			"initial_status": "must be one of pending, reviewed_pending_approval, approved",
		}, nil
	}

	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("load booking: %w", err)
	}

	now := s.now().UTC()

	details := params.CalculationDetails
	if details == "" {
		calc := CalculateRefundAmount(booking, payment.PolicySnapshot, now)
		blob, merr := json.Marshal(calc)
		if merr != nil {
			return nil, nil, merr
		}
		details = string(blob)
	}

	req := &domain.RefundRequest{
		PaymentID:          payment.ID,
		BookingID:          booking.ID,
		BookingType:        booking.BookingType,
		AmountToRefund:     params.AmountToRefund,
		Reason:             params.Reason,
		CalculationDetails: details,
		RequestedBy:        params.RequestingActor,
		RequesterContact:   params.RequesterContact,
		IsAdminInitiated:   params.IsAdminInitiated,
	}

	if params.IsAdminInitiated {
		req.Status = params.InitialStatus
		if req.Status == "" {
			req.Status = domain.RefundPending
		}
	} else {
		req.Status = domain.RefundUnverified
		token := uuid.NewString()
		expires := now.Add(s.tokenTTL)
		req.VerificationToken = &token
		req.TokenExpiresAt = &expires
	}

	s.stampIfNeeded(req, params.RequestingActor, now)

	if err := s.requests.UpsertOpen(ctx, req); err != nil {
		return nil, nil, fmt.Errorf("save refund request: %w", err)
	}

	if req.Status == domain.RefundUnverified && req.VerificationToken != nil && req.TokenExpiresAt != nil && s.notifs != nil {
		if nerr := s.notifs.NotifyRefundVerificationRequested(ctx, req.RequesterContact, req.ID, *req.VerificationToken, *req.TokenExpiresAt); nerr != nil {
			s.loggerf("level=error msg=failed to send refund verification message request_id=%d err=%v", req.ID, nerr)
		}
	}

	return req, nil, nil
}

// ConfirmVerification moves an unverified request to pending. Tokens are
// single-use and expire after the configured window.
func (s *Service) ConfirmVerification(ctx context.Context, token string) (*domain.RefundRequest, error) {
	req, err := s.requests.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if req.Status != domain.RefundUnverified {
		return nil, ErrTokenInvalid
	}

	now := s.now().UTC()
	if !req.TokenValid(token, now) {
		return nil, ErrTokenExpired
	}

	req.Status = domain.RefundPending
	req.VerificationToken = nil
	req.TokenExpiresAt = nil
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Review marks a pending request as reviewed and awaiting approval.
func (s *Service) Review(ctx context.Context, id, actorID int64) (*domain.RefundRequest, error) {
	return s.transition(ctx, id, actorID, domain.RefundReviewedPendingApproval, nil)
}

// Approve approves a request, optionally adjusting the amount, which is
// re-validated against the payment cap.
func (s *Service) Approve(ctx context.Context, id, actorID int64, amount *decimal.Decimal) (*domain.RefundRequest, map[string]string, error) {
	if amount != nil {
		req, err := s.requests.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrNotFound
			}
			return nil, nil, err
		}
		payment, err := s.payments.GetByID(ctx, req.PaymentID)
		if err != nil {
			return nil, nil, err
		}
		if amount.IsNegative() {
			return nil, map[string]string{"amount_to_refund": "must not be negative"}, nil
		}
		if amount.GreaterThan(payment.Amount) {
			return nil, map[string]string{
				"amount_to_refund": fmt.Sprintf("exceeds the payment amount of %s", payment.Amount.StringFixed(2)),
			}, nil
		}
	}

	req, err := s.transition(ctx, id, actorID, domain.RefundApproved, amount)
	if err != nil {
		return nil, nil, err
	}
	return req, nil, nil
}

// Reject closes a request without refunding.
func (s *Service) Reject(ctx context.Context, id, actorID int64, reason string) (*domain.RefundRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canTransition(req.Status, domain.RefundRejected) {
		return nil, ErrInvalidTransition
	}

	now := s.now().UTC()
	req.Status = domain.RefundRejected
	if reason != "" {
		req.Reason = reason
	}
	req.ProcessedBy = &actorID
	req.ProcessedAt = &now
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) transition(ctx context.Context, id, actorID int64, to domain.RefundRequestStatus, amount *decimal.Decimal) (*domain.RefundRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canTransition(req.Status, to) {
		return nil, ErrInvalidTransition
	}

	req.Status = to
	if amount != nil {
		req.AmountToRefund = *amount
	}
	s.stampIfNeeded(req, actorID, s.now().UTC())

	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// stampIfNeeded fills processed_by/processed_at on money-moving statuses when
// the caller forgot to.
func (s *Service) stampIfNeeded(req *domain.RefundRequest, actorID int64, now time.Time) {
	if !req.Status.RequiresActorStamp() {
		return
	}
	if req.ProcessedBy == nil {
		req.ProcessedBy = &actorID
	}
	if req.ProcessedAt == nil {
		req.ProcessedAt = &now
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.RefundRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, status domain.RefundRequestStatus, limit, offset int) ([]domain.RefundRequest, error) {
	return s.requests.List(ctx, status, limit, offset)
}

// PurgeExpired removes unverified requests whose token lapsed, notifying each
// requester. Run from the scheduled cleanup job, never from a read path.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	now := s.now().UTC()
	expired, err := s.requests.ListExpiredUnverified(ctx, now)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, req := range expired {
		if err := s.requests.Delete(ctx, req.ID); err != nil {
			s.loggerf("level=error msg=failed to purge expired refund request request_id=%d err=%v", req.ID, err)
			continue
		}
		purged++
		if s.notifs != nil {
			if nerr := s.notifs.NotifyRefundRequestExpired(ctx, req.RequesterContact, req.ID); nerr != nil {
				s.loggerf("level=error msg=failed to notify requester of expiry request_id=%d err=%v", req.ID, nerr)
			}
		}
	}
	return purged, nil
}
