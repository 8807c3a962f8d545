package payment

import (
	"github.com/shopspring/decimal"
)

type CreateIntentRequest struct {
	BookingID     int64           `json:"booking_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
}

type CreateIntentResponse struct {
	PaymentID    int64  `json:"payment_id"`
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status"`
}

// WebhookEventRequest is the parsed provider event payload as delivered by the
// upstream transport after signature verification. Events carry a charge id,
// an intent id, or both depending on the event type, so neither id is required
// at the bind step.
type WebhookEventRequest struct {
	EventID          string          `json:"event_id" binding:"required"`
	Type             string          `json:"type" binding:"required"`
	ProviderIntentID string          `json:"provider_intent_id"`
	ProviderChargeID string          `json:"provider_charge_id"`
	AmountRefunded   decimal.Decimal `json:"amount_refunded"`
	Status           string          `json:"status"`
}
