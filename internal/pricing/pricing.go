// Package pricing содержит чистые функции расчёта цен и итогов заказа.
// Никакого ввода-вывода и скрытого состояния: всё тестируется изолированно.
package pricing

import "github.com/linemk/ecom-shop/internal/domain/models"

const (
	// стоимость экспресс-доставки фиксирована
	ExpressCharge = 99
	// обычная доставка бесплатна начиная с этой суммы заказа
	FreeShippingThreshold = 500
	NormalCharge          = 40

	ExpressDays = 2
	NormalDays  = 7
)

// EffectiveUnitPrice возвращает эффективную цену единицы:
// базовая цена за вычетом процентной скидки, если она задана.
func EffectiveUnitPrice(basePrice, discountPercent float64) float64 {
	if discountPercent > 0 {
		return basePrice * (1 - discountPercent/100)
	}
	return basePrice
}

// ShippingCharge возвращает стоимость доставки: Express — фиксированная,
// Normal — бесплатно от порога, иначе фиксированный сбор.
func ShippingCharge(deliveryType string, subTotal float64) float64 {
	if deliveryType == models.DeliveryExpress {
		return ExpressCharge
	}
	if subTotal >= FreeShippingThreshold {
		return 0
	}
	return NormalCharge
}

// EstimatedDays возвращает ожидаемый срок доставки в днях.
func EstimatedDays(deliveryType string) int {
	if deliveryType == models.DeliveryExpress {
		return ExpressDays
	}
	return NormalDays
}

// Total считает итоговую сумму заказа: subTotal - discount + shipping,
// не меньше нуля.
func Total(subTotal, discountAmount, shippingCharges float64) float64 {
	total := subTotal - discountAmount + shippingCharges
	if total < 0 {
		return 0
	}
	return total
}
