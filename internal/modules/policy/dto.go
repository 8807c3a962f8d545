package policy

type TierRequest struct {
	FullRefundDays       int     `json:"full_refund_days" validate:"gte=0"`
	PartialRefundDays    int     `json:"partial_refund_days" validate:"gte=0"`
	PartialRefundPercent float64 `json:"partial_refund_percentage" validate:"gte=0,lte=100"`
	MinimalRefundDays    int     `json:"minimal_refund_days" validate:"gte=0"`
	MinimalRefundPercent float64 `json:"minimal_refund_percentage" validate:"gte=0,lte=100"`
}

type UpdatePolicySettingsRequest struct {
	Upfront TierRequest `json:"upfront"`
	Deposit TierRequest `json:"deposit"`
}
