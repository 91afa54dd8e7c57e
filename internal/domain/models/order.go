package models

import "time"

// статусы заказа
const (
	OrderPlaced    = "Placed"
	OrderShipped   = "Shipped"
	OrderDelivered = "Delivered"
	OrderCanceled  = "Canceled"
)

// статусы оплаты; параллельны статусу заказа и выставляются один раз при создании
const (
	PaymentPending  = "Pending"
	PaymentSuccess  = "Success"
	PaymentRejected = "Rejected"
)

// способы оплаты
const (
	MethodCard = "CARD"
	MethodUPI  = "UPI"
	MethodCOD  = "COD"
)

// типы доставки
const (
	DeliveryExpress = "Express"
	DeliveryNormal  = "Normal"
)

// OrderItem представляет позицию заказа. LineTotal — цена на момент
// оформления (эффективная цена единицы × количество), позже не
// пересчитывается, даже если цена товара изменилась.
type OrderItem struct {
	OrderID     int64   `json:"order_id,omitempty"`
	ProductID   int64   `json:"product_id"`
	VariantID   int64   `json:"variant_id"`
	ProductName string  `json:"product_name,omitempty"` // заполняется через JOIN с таблицей products
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"line_total"`
}

// Order представляет заказ. После создания изменяемы только
// OrderStatus, PaymentStatus, TrackingID и AdminNote.
type Order struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	Items           []OrderItem `json:"items"`
	ShippingAddress int64       `json:"shipping_address_id"`
	DeliveryType    string      `json:"delivery_type"`
	EstimatedDays   int         `json:"estimated_days"`
	ShippingCharges float64     `json:"shipping_charges"`
	SubTotal        float64     `json:"sub_total"`
	CouponCode      string      `json:"coupon_code,omitempty"`
	DiscountAmount  float64     `json:"discount_amount"`
	TotalAmount     float64     `json:"total_amount"`
	PaymentMethod   string      `json:"payment_method"`
	PaymentStatus   string      `json:"payment_status"`
	InvoiceID       string      `json:"invoice_id"`
	TrackingID      string      `json:"tracking_id,omitempty"`
	AdminNote       string      `json:"admin_note,omitempty"`
	OrderStatus     string      `json:"order_status"`
	CreatedAt       time.Time   `json:"created_at"`
}

// CanCancel сообщает, допустима ли отмена из текущего статуса:
// из Delivered и Canceled отмена запрещена.
func (o *Order) CanCancel() bool {
	return o.OrderStatus != OrderDelivered && o.OrderStatus != OrderCanceled
}

// ValidTransition проверяет допустимость перехода статуса заказа.
// Терминальные статусы — Delivered и Canceled.
func ValidTransition(from, to string) bool {
	switch from {
	case OrderPlaced:
		return to == OrderShipped || to == OrderDelivered || to == OrderCanceled
	case OrderShipped:
		return to == OrderDelivered || to == OrderCanceled
	default:
		return false
	}
}
