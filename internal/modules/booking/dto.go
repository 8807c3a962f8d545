package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateBookingRequest struct {
	BookingType   string           `json:"booking_type" binding:"required"`
	CustomerID    int64            `json:"customer_id" binding:"required"`
	StartTime     time.Time        `json:"start_time" binding:"required"`
	EndTime       time.Time        `json:"end_time"`
	TotalPrice    decimal.Decimal  `json:"total_price" binding:"required"`
	DepositAmount decimal.Decimal  `json:"deposit_amount"`
	PaymentMethod string           `json:"payment_method"`
	AddOnID       *int64           `json:"add_on_id"`
	AddOnPrice    *decimal.Decimal `json:"add_on_price"`
	Notes         string           `json:"notes"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
