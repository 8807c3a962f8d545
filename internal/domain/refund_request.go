package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RefundRequestStatus string

const (
	RefundUnverified              RefundRequestStatus = "unverified"
	RefundPending                 RefundRequestStatus = "pending"
	RefundReviewedPendingApproval RefundRequestStatus = "reviewed_pending_approval"
	RefundApproved                RefundRequestStatus = "approved"
	RefundRejected                RefundRequestStatus = "rejected"
	RefundPartiallyRefunded       RefundRequestStatus = "partially_refunded"
	RefundRefunded                RefundRequestStatus = "refunded"
	RefundFailed                  RefundRequestStatus = "failed"
)

// OpenRefundStatuses are the statuses in which a refund request is still live.
// At most one request per payment may be in an open status; reconciliation and
// repeated creation update the open row in place.
var OpenRefundStatuses = []RefundRequestStatus{
	RefundUnverified,
	RefundPending,
	RefundReviewedPendingApproval,
	RefundApproved,
	RefundPartiallyRefunded,
	RefundFailed,
}

func (s RefundRequestStatus) Open() bool {
	for _, o := range OpenRefundStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// SettledStatuses carry money movement and must always be stamped with the
// processing actor and time.
func (s RefundRequestStatus) RequiresActorStamp() bool {
	return s == RefundApproved || s == RefundRefunded || s == RefundPartiallyRefunded
}

type RefundRequest struct {
	ID                 int64               `gorm:"primaryKey" json:"id"`
	PaymentID          int64               `gorm:"index;not null" json:"payment_id"`
	BookingID          int64               `gorm:"index;not null" json:"booking_id"`
	BookingType        BookingType         `gorm:"type:varchar(16);not null" json:"booking_type"`
	Status             RefundRequestStatus `gorm:"type:varchar(32);default:'unverified';index" json:"status"`
	AmountToRefund     decimal.Decimal     `gorm:"type:numeric(12,2)" json:"amount_to_refund"`
	Reason             string              `gorm:"type:text" json:"reason"`
	CalculationDetails string              `gorm:"type:text" json:"calculation_details"`
	RequestedBy        int64               `json:"requested_by"`
	RequesterContact   string              `gorm:"type:varchar(255)" json:"requester_contact,omitempty"`
	IsAdminInitiated   bool                `json:"is_admin_initiated"`
	VerificationToken  *string             `gorm:"type:varchar(64);index" json:"-"`
	TokenExpiresAt     *time.Time          `json:"-"`
	ProcessedBy        *int64              `json:"processed_by,omitempty"`
	ProcessedAt        *time.Time          `json:"processed_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (RefundRequest) TableName() string { return "refund_requests" }

// TokenValid reports whether the single-use verification token matches and has
// not expired.
func (r *RefundRequest) TokenValid(token string, now time.Time) bool {
	if r.VerificationToken == nil || r.TokenExpiresAt == nil {
		return false
	}
	return *r.VerificationToken == token && r.TokenExpiresAt.After(now)
}
