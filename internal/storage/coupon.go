package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/ecom-shop/internal/domain/models"
)

var (
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrDuplicateCoupon = errors.New("coupon already exists")
)

// CouponStorage описывает методы для работы с купонами.
type CouponStorage interface {
	// GetByCode возвращает активный купон по коду.
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	Create(ctx context.Context, c *models.Coupon) (*models.Coupon, error)
	List(ctx context.Context) ([]*models.Coupon, error)
}

type couponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) CouponStorage {
	return &couponRepository{db: db}
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	c := &models.Coupon{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, code, discount_percent, min_order_amount, expires_at, is_active FROM coupons WHERE code = $1 AND is_active = TRUE",
		code)
	if err := row.Scan(&c.ID, &c.Code, &c.DiscountPercent, &c.MinOrderAmount, &c.ExpiresAt, &c.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *couponRepository) Create(ctx context.Context, c *models.Coupon) (*models.Coupon, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO coupons (code, discount_percent, min_order_amount, expires_at, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		c.Code, c.DiscountPercent, c.MinOrderAmount, c.ExpiresAt, c.IsActive,
	).Scan(&c.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil, ErrDuplicateCoupon
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return c, nil
}

func (r *couponRepository) List(ctx context.Context) ([]*models.Coupon, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, code, discount_percent, min_order_amount, expires_at, is_active FROM coupons ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		c := &models.Coupon{}
		if err := rows.Scan(&c.ID, &c.Code, &c.DiscountPercent, &c.MinOrderAmount, &c.ExpiresAt, &c.IsActive); err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coupons, nil
}
