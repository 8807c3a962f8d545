package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SandboxProvider is an in-process stand-in for the real payment provider. It
// issues well-formed intent and charge ids so the rest of the flow, webhook
// reconciliation included, can run against a local database.
type SandboxProvider struct{}

func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{}
}

func (p *SandboxProvider) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*ProviderIntent, error) {
	id := uuid.NewString()
	return &ProviderIntent{
		IntentID:     "pi_sandbox_" + id,
		ChargeID:     "ch_sandbox_" + id,
		Status:       "requires_payment_method",
		ClientSecret: fmt.Sprintf("pi_sandbox_%s_secret_%s", id, uuid.NewString()),
	}, nil
}

func (p *SandboxProvider) RetrieveIntent(ctx context.Context, intentID string) (*ProviderIntent, error) {
	return &ProviderIntent{IntentID: intentID, Status: "requires_payment_method"}, nil
}

func (p *SandboxProvider) UpdateIntent(ctx context.Context, intentID string, amount decimal.Decimal) (*ProviderIntent, error) {
	return &ProviderIntent{IntentID: intentID, Status: "requires_payment_method"}, nil
}
