package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddOn is a selectable extra (helmet hire, pickup delivery, service package).
// Bookings validate the submitted price against the live catalog price.
type AddOn struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(120);not null" json:"name"`
	BookingType BookingType     `gorm:"type:varchar(16);index" json:"booking_type"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Available   bool            `gorm:"default:true" json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (AddOn) TableName() string { return "add_ons" }
