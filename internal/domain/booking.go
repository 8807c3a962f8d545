package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingType string

const (
	BookingHire    BookingType = "hire"
	BookingService BookingType = "service"
	BookingSales   BookingType = "sales"
)

// ReferencePrefix is the type-specific prefix of generated booking references.
func (t BookingType) ReferencePrefix() string {
	switch t {
	case BookingHire:
		return "HR"
	case BookingService:
		return "SV"
	case BookingSales:
		return "SL"
	default:
		return "BK"
	}
}

type BookingStatus string

const (
	BookingPending          BookingStatus = "pending"
	BookingConfirmed        BookingStatus = "confirmed"
	BookingInProgress       BookingStatus = "in_progress"
	BookingCompleted        BookingStatus = "completed"
	BookingCancelled        BookingStatus = "cancelled"
	BookingNoShow           BookingStatus = "no_show"
	BookingDeclinedRefunded BookingStatus = "declined_refunded"
)

type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentDepositPaid       PaymentStatus = "deposit_paid"
	PaymentPaid              PaymentStatus = "paid"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// PaymentMethod classifies how the customer paid. Only upfront and deposit are
// governed by the tiered refund policy; anything else is handled manually.
type PaymentMethod string

const (
	MethodUpfront PaymentMethod = "upfront"
	MethodDeposit PaymentMethod = "deposit"
)

func (m PaymentMethod) PolicyGoverned() bool {
	return m == MethodUpfront || m == MethodDeposit
}

type Booking struct {
	ID                 int64           `gorm:"primaryKey" json:"id"`
	BookingType        BookingType     `gorm:"type:varchar(16);not null;index" json:"booking_type"`
	BookingReference   string          `gorm:"type:varchar(24);uniqueIndex:idx_booking_reference" json:"booking_reference"`
	CustomerID         int64           `gorm:"index;not null" json:"customer_id"`
	StartTime          time.Time       `gorm:"not null" json:"start_time"`
	EndTime            time.Time       `json:"end_time"`
	TotalPrice         decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_price"`
	AmountPaid         decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount_paid"`
	DepositAmount      decimal.Decimal `gorm:"type:numeric(12,2)" json:"deposit_amount"`
	Method             PaymentMethod   `gorm:"column:payment_method;type:varchar(32)" json:"payment_method"`
	Status             BookingStatus   `gorm:"type:varchar(24);default:'pending';index" json:"status"`
	PaymentStatus      PaymentStatus   `gorm:"type:varchar(24);default:'unpaid'" json:"payment_status"`
	AddOnID            *int64          `json:"add_on_id,omitempty"`
	Notes              string          `gorm:"type:text" json:"notes,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason string          `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// Refundable is the capability surface the refund calculator needs from any
// booking flavor.
type Refundable interface {
	AnchorTime() time.Time
	PaidAmount() decimal.Decimal
	PaidMethod() PaymentMethod
}

func (b *Booking) AnchorTime() time.Time       { return b.StartTime }
func (b *Booking) PaidAmount() decimal.Decimal { return b.AmountPaid }
func (b *Booking) PaidMethod() PaymentMethod   { return b.Method }

var hireTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled, BookingDeclinedRefunded},
	BookingConfirmed:  {BookingInProgress, BookingCancelled, BookingNoShow, BookingDeclinedRefunded},
	BookingInProgress: {BookingCompleted, BookingCancelled},
}

var serviceTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled, BookingDeclinedRefunded},
	BookingConfirmed:  {BookingInProgress, BookingCancelled, BookingNoShow, BookingDeclinedRefunded},
	BookingInProgress: {BookingCompleted},
}

var salesTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled, BookingDeclinedRefunded},
	BookingConfirmed: {BookingCompleted, BookingCancelled, BookingDeclinedRefunded},
}

func transitionsFor(t BookingType) map[BookingStatus][]BookingStatus {
	switch t {
	case BookingService:
		return serviceTransitions
	case BookingSales:
		return salesTransitions
	default:
		return hireTransitions
	}
}

// CanTransition reports whether the state machine for the given booking type
// allows moving from one status to another. Terminal statuses allow nothing.
func CanTransition(t BookingType, from, to BookingStatus) bool {
	for _, allowed := range transitionsFor(t)[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
