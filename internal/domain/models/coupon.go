package models

import "time"

// Coupon представляет купон с процентной скидкой
type Coupon struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	DiscountPercent float64   `json:"discount_percent"`
	MinOrderAmount  float64   `json:"min_order_amount"`
	ExpiresAt       time.Time `json:"expires_at"`
	IsActive        bool      `json:"is_active"`
}
