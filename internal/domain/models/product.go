package models

import "time"

// статусы товара
const (
	ProductActive   = "active"
	ProductInactive = "inactive"
)

// Variant представляет вариант товара (sku + свободный набор атрибутов).
// Каждый товар имеет как минимум один вариант — вариант по умолчанию,
// создаваемый вместе с товаром, поэтому позиции корзины и заказа всегда
// ссылаются на реальный вариант, а не на сам товар.
type Variant struct {
	ID         int64             `json:"id"`
	ProductID  int64             `json:"product_id"`
	SKU        string            `json:"sku"`
	Price      float64           `json:"price"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes,omitempty"`
	IsDefault  bool              `json:"is_default"`
}

// Product представляет товар каталога
type Product struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	CategoryID      int64     `json:"category_id,omitempty"`
	Price           float64   `json:"price"`
	MRPPrice        float64   `json:"mrp_price"`
	DiscountPercent float64   `json:"discount_percent"`
	TotalStock      int       `json:"total_stock"`
	Description     string    `json:"description,omitempty"`
	Status          string    `json:"status"`
	Variants        []Variant `json:"variants,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// RecomputeDerived пересчитывает производные поля товара по его вариантам:
// минимальная цена варианта становится ценой товара, суммарный остаток —
// общим остатком. Вызывается явно после каждого изменения вариантов,
// никаких неявных хуков на стороне хранилища нет.
func (p *Product) RecomputeDerived() {
	total := 0
	minPrice := 0.0
	for i, v := range p.Variants {
		total += v.Stock
		if i == 0 || v.Price < minPrice {
			minPrice = v.Price
		}
	}
	p.TotalStock = total
	if len(p.Variants) > 0 {
		p.Price = minPrice
	}
}
