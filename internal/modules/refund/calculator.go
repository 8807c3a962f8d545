package refund

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"motobook/internal/domain"

	"github.com/shopspring/decimal"
)

// RefundCalculation is the frozen explanation of a refund entitlement. It is
// serialized onto the refund request so the promise made to the customer
// survives later policy edits.
type RefundCalculation struct {
	EntitledAmount   decimal.Decimal `json:"entitled_amount"`
	Details          string          `json:"details"`
	PolicyApplied    string          `json:"policy_applied"`
	DaysBeforePickup *int            `json:"days_before_pickup,omitempty"`
}

// DaysLabel renders the day count, or "N/A" for manually handled cases.
func (c RefundCalculation) DaysLabel() string {
	if c.DaysBeforePickup == nil {
		return "N/A"
	}
	return strconv.Itoa(*c.DaysBeforePickup)
}

// CalculateRefundAmount computes the entitled refund for a booking cancelled
// at cancelledAt, under the policy snapshot frozen onto its payment. It never
// fails on business data: missing configuration and unsupported payment
// methods degrade to a zero entitlement with an explanation.
func CalculateRefundAmount(b domain.Refundable, snap *domain.PolicySnapshot, cancelledAt time.Time) RefundCalculation {
	if snap == nil {
		return RefundCalculation{
			EntitledAmount: decimal.Zero.Round(2),
			Details:        "not configured",
			PolicyApplied:  "N/A",
		}
	}

	method := b.PaidMethod()
	tier, governed := snap.Tier(method)
	if !governed {
		name := string(method)
		if name == "" {
			name = "unspecified"
		}
		return RefundCalculation{
			EntitledAmount: decimal.Zero.Round(2),
			Details:        fmt.Sprintf("payment method %q is outside the cancellation policy and is handled manually", name),
			PolicyApplied:  "Manual",
		}
	}

	days := DaysBefore(b.AnchorTime(), cancelledAt)

	var pct float64
	var label, details string
	switch {
	case days >= tier.FullRefundDays:
		pct = 100
		label = "Full refund"
		details = fmt.Sprintf("cancelled %d days before the scheduled start, within the %d-day full refund window", days, tier.FullRefundDays)
	case days >= tier.PartialRefundDays:
		pct = tier.PartialRefundPercent
		label = fmt.Sprintf("Partial refund (%s%%)", formatPercent(pct))
		details = fmt.Sprintf("cancelled %d days before the scheduled start, within the %d-day partial refund window (%s%%)", days, tier.PartialRefundDays, formatPercent(pct))
	case days >= tier.MinimalRefundDays:
		pct = tier.MinimalRefundPercent
		label = fmt.Sprintf("Minimal refund (%s%%)", formatPercent(pct))
		details = fmt.Sprintf("cancelled %d days before the scheduled start, within the %d-day minimal refund window (%s%%)", days, tier.MinimalRefundDays, formatPercent(pct))
	default:
		pct = 0
		label = "No refund"
		if days < 0 {
			details = "cancellation occurred after the scheduled start; no refund"
		} else {
			details = fmt.Sprintf("cancelled %d days before the scheduled start, too close to the scheduled start; no refund", days)
		}
	}

	amount := b.PaidAmount()
	entitled := amount.
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(2)

	// 0 <= entitled <= amount_paid, always.
	if entitled.IsNegative() {
		entitled = decimal.Zero.Round(2)
	}
	if entitled.GreaterThan(amount) {
		entitled = amount.Round(2)
	}

	d := days
	return RefundCalculation{
		EntitledAmount:   entitled,
		Details:          details,
		PolicyApplied:    label,
		DaysBeforePickup: &d,
	}
}

// DaysBefore is the signed, floored whole-day distance from cancellation to
// the anchor. One hour past the anchor yields -1. Thresholds compare with >=,
// so landing exactly on a boundary takes the more generous tier.
func DaysBefore(anchor, cancelledAt time.Time) int {
	return int(math.Floor(anchor.Sub(cancelledAt).Hours() / 24))
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
