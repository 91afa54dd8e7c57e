package models

import "time"

// CartItem представляет позицию корзины. PriceAtAdd — эффективная цена
// единицы на момент добавления; финальная цена заказа всё равно
// пересчитывается по текущей цене товара при оформлении.
type CartItem struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ProductID   int64     `json:"product_id"`
	VariantID   int64     `json:"variant_id"`
	ProductName string    `json:"product_name,omitempty"` // заполняется через JOIN с таблицей products
	Quantity    int       `json:"quantity"`
	PriceAtAdd  float64   `json:"price_at_add"`
	CreatedAt   time.Time `json:"created_at"`
}
