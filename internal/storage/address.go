package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/ecom-shop/internal/domain/models"
)

var ErrAddressNotFound = errors.New("address not found")

// AddressStorage описывает методы для работы с адресами доставки.
// Все выборки ограничены владельцем адреса.
type AddressStorage interface {
	GetByIDForUser(ctx context.Context, id, userID int64) (*models.Address, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Address, error)
	Create(ctx context.Context, addr *models.Address) (*models.Address, error)
	Delete(ctx context.Context, id, userID int64) error
}

type addressRepository struct {
	db *sql.DB
}

func NewAddressRepository(db *sql.DB) AddressStorage {
	return &addressRepository{db: db}
}

const addressColumns = "id, user_id, full_name, phone, line1, line2, city, state, postal_code, country, created_at"

func scanAddress(row interface{ Scan(...any) error }) (*models.Address, error) {
	addr := &models.Address{}
	err := row.Scan(&addr.ID, &addr.UserID, &addr.FullName, &addr.Phone, &addr.Line1, &addr.Line2,
		&addr.City, &addr.State, &addr.PostalCode, &addr.Country, &addr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (r *addressRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*models.Address, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	addr, err := scanAddress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return addr, nil
}

func (r *addressRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []*models.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (r *addressRepository) Create(ctx context.Context, addr *models.Address) (*models.Address, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO addresses (user_id, full_name, phone, line1, line2, city, state, postal_code, country)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`,
		addr.UserID, addr.FullName, addr.Phone, addr.Line1, addr.Line2,
		addr.City, addr.State, addr.PostalCode, addr.Country,
	).Scan(&addr.ID, &addr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (r *addressRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}
