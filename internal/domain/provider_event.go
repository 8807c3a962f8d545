package domain

import "github.com/shopspring/decimal"

// Provider event types the reconciliation handler reacts to. Delivery is
// at-least-once; handlers must tolerate duplicates and reordering.
const (
	EventChargeRefunded      = "charge.refunded"
	EventChargeRefundUpdated = "charge.refund.updated"
	EventIntentSucceeded     = "payment_intent.succeeded"
)

// ProviderEvent is a parsed payment-provider webhook payload. Signature
// verification and transport framing happen upstream.
type ProviderEvent struct {
	EventID          string          `json:"event_id"`
	Type             string          `json:"type"`
	ProviderIntentID string          `json:"provider_intent_id"`
	ProviderChargeID string          `json:"provider_charge_id"`
	AmountRefunded   decimal.Decimal `json:"amount_refunded"`
	Status           string          `json:"status"`
}
