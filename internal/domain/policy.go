package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RefundTier holds the day thresholds and percentages for one payment mode.
// Day ordering invariant: FullRefundDays >= PartialRefundDays >= MinimalRefundDays.
type RefundTier struct {
	FullRefundDays       int     `json:"full_refund_days" validate:"gte=0"`
	PartialRefundDays    int     `json:"partial_refund_days" validate:"gte=0"`
	PartialRefundPercent float64 `json:"partial_refund_percentage" validate:"gte=0,lte=100"`
	MinimalRefundDays    int     `json:"minimal_refund_days" validate:"gte=0"`
	MinimalRefundPercent float64 `json:"minimal_refund_percentage" validate:"gte=0,lte=100"`
}

// ValidateOrdering reports day-ordering violations keyed by field name. The
// error is attributed to the more generous threshold.
func (t RefundTier) ValidateOrdering(prefix string) map[string]string {
	errs := make(map[string]string)
	if t.FullRefundDays < t.PartialRefundDays {
		errs[prefix+"full_refund_days"] = "must be greater than or equal to partial_refund_days"
	}
	if t.PartialRefundDays < t.MinimalRefundDays {
		errs[prefix+"partial_refund_days"] = "must be greater than or equal to minimal_refund_days"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// PolicySettings is the single row of cancellation policy configuration.
// The upfront and deposit tiers are independent.
type PolicySettings struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	Upfront   RefundTier `gorm:"embedded;embeddedPrefix:upfront_" json:"upfront"`
	Deposit   RefundTier `gorm:"embedded;embeddedPrefix:deposit_" json:"deposit"`
	Version   int        `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (PolicySettings) TableName() string { return "policy_settings" }

// PolicySnapshot is the value copy of PolicySettings frozen onto a Payment at
// creation time. Later settings edits never change an existing snapshot.
type PolicySnapshot struct {
	Version    int        `json:"version"`
	CapturedAt time.Time  `json:"captured_at"`
	Upfront    RefundTier `json:"upfront"`
	Deposit    RefundTier `json:"deposit"`
}

func NewPolicySnapshot(s *PolicySettings, at time.Time) PolicySnapshot {
	return PolicySnapshot{
		Version:    s.Version,
		CapturedAt: at.UTC(),
		Upfront:    s.Upfront,
		Deposit:    s.Deposit,
	}
}

// Tier selects the tier for a payment method. Second return is false for
// methods not governed by day-based policy.
func (s PolicySnapshot) Tier(method PaymentMethod) (RefundTier, bool) {
	switch method {
	case MethodUpfront:
		return s.Upfront, true
	case MethodDeposit:
		return s.Deposit, true
	default:
		return RefundTier{}, false
	}
}

func (s PolicySnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *PolicySnapshot) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported policy snapshot column type %T", value)
	}
}
