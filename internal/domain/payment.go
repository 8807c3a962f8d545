package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntentStatus mirrors the provider-reported payment lifecycle.
type IntentStatus string

const (
	IntentCreated           IntentStatus = "created"
	IntentPending           IntentStatus = "pending"
	IntentSucceeded         IntentStatus = "succeeded"
	IntentFailed            IntentStatus = "failed"
	IntentRefunded          IntentStatus = "refunded"
	IntentPartiallyRefunded IntentStatus = "partially_refunded"
)

type Payment struct {
	ID               int64           `gorm:"primaryKey" json:"id"`
	BookingID        int64           `gorm:"index;not null" json:"booking_id"`
	BookingType      BookingType     `gorm:"type:varchar(16);not null" json:"booking_type"`
	ProviderIntentID string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"provider_intent_id"`
	ProviderChargeID string          `gorm:"type:varchar(64);index" json:"provider_charge_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency         string          `gorm:"type:varchar(3);not null" json:"currency"`
	Method           PaymentMethod   `gorm:"column:payment_method;type:varchar(32)" json:"payment_method"`
	Status           IntentStatus    `gorm:"type:varchar(24);default:'created';index" json:"status"`
	RefundedAmount   decimal.Decimal `gorm:"type:numeric(12,2)" json:"refunded_amount"`
	PolicySnapshot   *PolicySnapshot `gorm:"type:text" json:"policy_snapshot,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// FullyRefundedBy reports whether the given refunded total covers the whole
// payment amount.
func (p *Payment) FullyRefundedBy(refunded decimal.Decimal) bool {
	return refunded.GreaterThanOrEqual(p.Amount)
}
