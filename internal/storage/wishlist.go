package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/ecom-shop/internal/domain/models"
)

var ErrWishlistItemNotFound = errors.New("wishlist item not found")

// WishlistStorage описывает методы для работы со списком желаний.
type WishlistStorage interface {
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	GetByUserID(ctx context.Context, userID int64) ([]*models.Product, error)
}

type wishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) WishlistStorage {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Add(ctx context.Context, userID, productID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, productID)
	return err
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, productID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWishlistItemNotFound
	}
	return nil
}

func (r *wishlistRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id IN (SELECT product_id FROM wishlist_items WHERE user_id = $1)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
