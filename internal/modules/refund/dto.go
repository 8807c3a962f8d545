package refund

import "github.com/shopspring/decimal"

type CreateRefundRequestRequest struct {
	PaymentID      int64           `json:"payment_id" binding:"required"`
	AmountToRefund decimal.Decimal `json:"amount_to_refund" binding:"required"`
	Reason         string          `json:"reason" binding:"required"`
	Contact        string          `json:"contact"`
}

type VerifyRefundRequestRequest struct {
	Token string `json:"token" binding:"required"`
}

type AdminCreateRefundRequestRequest struct {
	PaymentID      int64           `json:"payment_id" binding:"required"`
	AmountToRefund decimal.Decimal `json:"amount_to_refund" binding:"required"`
	Reason         string          `json:"reason" binding:"required"`
	InitialStatus  string          `json:"initial_status"`
}

type ApproveRefundRequestRequest struct {
	AmountToRefund *decimal.Decimal `json:"amount_to_refund"`
}

type RejectRefundRequestRequest struct {
	Reason string `json:"reason"`
}
