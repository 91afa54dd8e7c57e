package pricing_test

import (
	"testing"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/pricing"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveUnitPrice(t *testing.T) {
	// без скидки цена не меняется
	assert.Equal(t, 100.0, pricing.EffectiveUnitPrice(100, 0))
	// скидка 10% от 100
	assert.Equal(t, 90.0, pricing.EffectiveUnitPrice(100, 10))
	// скидка 25% от 200
	assert.Equal(t, 150.0, pricing.EffectiveUnitPrice(200, 25))
	// полная скидка
	assert.Equal(t, 0.0, pricing.EffectiveUnitPrice(100, 100))
}

func TestShippingCharge_Normal(t *testing.T) {
	// обычная доставка ниже порога — фиксированный сбор
	assert.Equal(t, 40.0, pricing.ShippingCharge(models.DeliveryNormal, 450))
	// на пороге и выше — бесплатно
	assert.Equal(t, 0.0, pricing.ShippingCharge(models.DeliveryNormal, 500))
	assert.Equal(t, 0.0, pricing.ShippingCharge(models.DeliveryNormal, 1200))
}

func TestShippingCharge_Express(t *testing.T) {
	// экспресс всегда платный, даже при большой сумме
	assert.Equal(t, 99.0, pricing.ShippingCharge(models.DeliveryExpress, 100))
	assert.Equal(t, 99.0, pricing.ShippingCharge(models.DeliveryExpress, 10000))
}

func TestEstimatedDays(t *testing.T) {
	assert.Equal(t, 2, pricing.EstimatedDays(models.DeliveryExpress))
	assert.Equal(t, 7, pricing.EstimatedDays(models.DeliveryNormal))
}

func TestTotal(t *testing.T) {
	// 450 без скидки + 40 доставка
	assert.Equal(t, 490.0, pricing.Total(450, 0, 40))
	// 450 по экспрессу
	assert.Equal(t, 549.0, pricing.Total(450, 0, 99))
	// купон больше суммы заказа не уводит итог в минус
	assert.Equal(t, 0.0, pricing.Total(100, 200, 0))
}

func TestTotal_Invariant(t *testing.T) {
	// итог всегда равен subTotal - discount + shipping
	cases := []struct {
		subTotal, discount, shipping float64
	}{
		{450, 0, 40},
		{1000, 100, 0},
		{500, 50, 99},
	}
	for _, c := range cases {
		assert.Equal(t, c.subTotal-c.discount+c.shipping, pricing.Total(c.subTotal, c.discount, c.shipping))
	}
}
