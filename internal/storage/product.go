package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/linemk/ecom-shop/internal/domain/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// ProductStorage описывает методы для работы с каталогом.
// Методы с суффиксом Tx выполняются в рамках переданной транзакции.
type ProductStorage interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	LockProductTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	UpdateVariantTx(ctx context.Context, tx *sql.Tx, v *models.Variant) error
	UpdateDerivedTx(ctx context.Context, tx *sql.Tx, p *models.Product) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, name, slug, category_id, price, mrp_price, discount_percent, total_stock, description, status, created_at"

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	var categoryID sql.NullInt64
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &categoryID, &p.Price, &p.MRPPrice, &p.DiscountPercent,
		&p.TotalStock, &p.Description, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryID = categoryID.Int64
	return p, nil
}

// nullableID превращает нулевой идентификатор в SQL NULL.
func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	variants, err := r.variantsByProductID(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants
	return p, nil
}

// queryer объединяет *sql.DB и *sql.Tx для выборок вариантов
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *productRepository) variantsByProductID(ctx context.Context, q queryer, productID int64) ([]models.Variant, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, product_id, sku, price, stock, attributes, is_default FROM product_variants WHERE product_id = $1 ORDER BY id", productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []models.Variant
	for rows.Next() {
		var v models.Variant
		var attrs []byte
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.Stock, &attrs, &v.IsDefault); err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
				return nil, err
			}
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *productRepository) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		models.ProductActive, limit, offset)
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

// Create вставляет товар вместе с его вариантами. Если вариантов нет,
// создаётся вариант по умолчанию с ценой и остатком товара, чтобы позиции
// корзины всегда ссылались на реальный вариант.
func (r *productRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO products (name, slug, category_id, price, mrp_price, discount_percent, total_stock, description, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`,
		p.Name, p.Slug, nullableID(p.CategoryID), p.Price, p.MRPPrice, p.DiscountPercent, p.TotalStock, p.Description, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if len(p.Variants) == 0 {
		p.Variants = []models.Variant{{
			SKU:       p.Slug + "-default",
			Price:     p.Price,
			Stock:     p.TotalStock,
			IsDefault: true,
		}}
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		v.ProductID = p.ID
		attrs, err := json.Marshal(v.Attributes)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO product_variants (product_id, sku, price, stock, attributes, is_default)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			v.ProductID, v.SKU, v.Price, v.Stock, attrs, v.IsDefault,
		).Scan(&v.ID)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) LockProductTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	variants, err := r.variantsByProductID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants
	return p, nil
}

func (r *productRepository) UpdateVariantTx(ctx context.Context, tx *sql.Tx, v *models.Variant) error {
	attrs, err := json.Marshal(v.Attributes)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE product_variants SET sku = $1, price = $2, stock = $3, attributes = $4 WHERE id = $5 AND product_id = $6",
		v.SKU, v.Price, v.Stock, attrs, v.ID, v.ProductID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVariantNotFound
	}
	return nil
}

// UpdateDerivedTx сохраняет производные поля товара, пересчитанные
// явным вызовом models.Product.RecomputeDerived.
func (r *productRepository) UpdateDerivedTx(ctx context.Context, tx *sql.Tx, p *models.Product) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE products SET price = $1, total_stock = $2 WHERE id = $3",
		p.Price, p.TotalStock, p.ID)
	return err
}
