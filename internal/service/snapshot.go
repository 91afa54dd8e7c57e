package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/pricing"
)

// resolveCartSnapshot превращает изменяемую корзину пользователя в
// неизменяемый список позиций заказа: для каждой позиции берётся текущая
// цена и скидка товара, эффективная цена умножается на количество.
// Корзина при этом не изменяется, очистка выполняется оркестратором
// после фиксации заказа. Пустая или отсутствующая корзина — ErrEmptyCart.
func (s *orderService) resolveCartSnapshot(ctx context.Context, tx *sql.Tx, userID int64) ([]models.OrderItem, float64, error) {
	lines, err := s.cartRepo.GetForCheckoutTx(ctx, tx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, 0, ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(lines))
	subTotal := 0.0
	for _, line := range lines {
		unit := pricing.EffectiveUnitPrice(line.UnitPrice, line.DiscountPercent)
		lineTotal := unit * float64(line.Quantity)
		subTotal += lineTotal
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			LineTotal:   lineTotal,
		})
	}
	return items, subTotal, nil
}
