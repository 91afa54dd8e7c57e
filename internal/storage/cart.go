package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/ecom-shop/internal/domain/models"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartStorage описывает методы для работы с корзиной.
// Позиции, участвующие в оформлении заказа, читаются и очищаются
// в рамках транзакции оформления.
type CartStorage interface {
	GetByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error)
	Upsert(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, userID, productID, variantID int64, quantity int) error
	Remove(ctx context.Context, userID, productID, variantID int64) error
	GetForCheckoutTx(ctx context.Context, tx *sql.Tx, userID int64) ([]*CheckoutLine, error)
	ClearTx(ctx context.Context, tx *sql.Tx, userID int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.variant_id, p.name, c.quantity, c.price_at_add, c.created_at
		FROM cart_items c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.VariantID,
			&item.ProductName, &item.Quantity, &item.PriceAtAdd, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert добавляет позицию или увеличивает количество существующей,
// одновременно обновляя price_at_add по текущей цене товара.
func (r *cartRepository) Upsert(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, variant_id, quantity, price_at_add)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, price_at_add = EXCLUDED.price_at_add`
	_, err := r.db.ExecContext(ctx, query,
		item.UserID, item.ProductID, item.VariantID, item.Quantity, item.PriceAtAdd)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, productID, variantID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE user_id = $2 AND product_id = $3 AND variant_id = $4",
		quantity, userID, productID, variantID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) Remove(ctx context.Context, userID, productID, variantID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2 AND variant_id = $3",
		userID, productID, variantID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// CheckoutLine — позиция корзины вместе с актуальными ценой и скидкой
// товара на момент оформления заказа.
type CheckoutLine struct {
	ProductID       int64
	VariantID       int64
	ProductName     string
	Quantity        int
	UnitPrice       float64
	DiscountPercent float64
}

// GetForCheckoutTx читает корзину вместе с актуальной ценой и скидкой
// товара, блокируя позиции до конца транзакции оформления.
func (r *cartRepository) GetForCheckoutTx(ctx context.Context, tx *sql.Tx, userID int64) ([]*CheckoutLine, error) {
	query := `
		SELECT c.product_id, c.variant_id, p.name, c.quantity, p.price, p.discount_percent
		FROM cart_items c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.id
		FOR UPDATE OF c`
	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*CheckoutLine
	for rows.Next() {
		line := &CheckoutLine{}
		if err := rows.Scan(&line.ProductID, &line.VariantID, &line.ProductName,
			&line.Quantity, &line.UnitPrice, &line.DiscountPercent); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepository) ClearTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
