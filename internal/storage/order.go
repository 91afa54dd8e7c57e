package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/ecom-shop/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ вместе с позициями в рамках транзакции.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	// LockOrderTx читает заказ с блокировкой строки для смены статуса.
	LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status, trackingID, adminNote string) error
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, shipping_address_id, delivery_type, estimated_days, shipping_charges,
		sub_total, coupon_code, discount_amount, total_amount, payment_method, payment_status,
		invoice_id, tracking_id, admin_note, order_status, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.UserID, &o.ShippingAddress, &o.DeliveryType, &o.EstimatedDays,
		&o.ShippingCharges, &o.SubTotal, &o.CouponCode, &o.DiscountAmount, &o.TotalAmount,
		&o.PaymentMethod, &o.PaymentStatus, &o.InvoiceID, &o.TrackingID, &o.AdminNote,
		&o.OrderStatus, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, shipping_address_id, delivery_type, estimated_days, shipping_charges,
			sub_total, coupon_code, discount_amount, total_amount, payment_method, payment_status,
			invoice_id, order_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		order.UserID, order.ShippingAddress, order.DeliveryType, order.EstimatedDays, order.ShippingCharges,
		order.SubTotal, order.CouponCode, order.DiscountAmount, order.TotalAmount, order.PaymentMethod,
		order.PaymentStatus, order.InvoiceID, order.OrderStatus,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, variant_id, quantity, line_total) VALUES ($1, $2, $3, $4, $5)",
			id, item.ProductID, item.VariantID, item.Quantity, item.LineTotal)
		if err != nil {
			return 0, fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return id, nil
}

func (r *orderRepository) itemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT i.order_id, i.product_id, i.variant_id, p.name, i.quantity, i.line_total
		FROM order_items i
		JOIN products p ON i.product_id = p.id
		WHERE i.order_id = $1
		ORDER BY i.product_id, i.variant_id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.VariantID,
			&item.ProductName, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 AND user_id = $2", id, userID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.itemsByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.itemsByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		items, err := r.itemsByOrderID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

func (r *orderRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *orderRepository) LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status, trackingID, adminNote string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET order_status = $1,
			tracking_id = COALESCE(NULLIF($2, ''), tracking_id),
			admin_note = COALESCE(NULLIF($3, ''), admin_note)
		 WHERE id = $4`,
		status, trackingID, adminNote, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
