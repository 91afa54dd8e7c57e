package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/storage"
)

// ProductService — каталог: чтение и административные изменения.
type ProductService interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, page, limit int) ([]*models.Product, error)
	CreateProduct(ctx context.Context, role string, p *models.Product) (*models.Product, error)
	UpdateVariant(ctx context.Context, role string, v *models.Variant) (*models.Product, error)
}

type productService struct {
	log         *slog.Logger
	db          *sql.DB
	productRepo storage.ProductStorage
}

func NewProductService(log *slog.Logger, db *sql.DB, productRepo storage.ProductStorage) ProductService {
	return &productService{log: log, db: db, productRepo: productRepo}
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.ProductService.GetProduct"
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int) ([]*models.Product, error) {
	const op = "service.ProductService.ListProducts"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	products, err := s.productRepo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *productService) CreateProduct(ctx context.Context, role string, p *models.Product) (*models.Product, error) {
	const op = "service.ProductService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.String("name", p.Name))

	if err := requireRole(role, models.RoleAdmin); err != nil {
		logger.Warn("role check failed", slog.String("role", role))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.Status == "" {
		p.Status = models.ProductActive
	}
	p.RecomputeDerived()

	created, err := s.productRepo.Create(ctx, p)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}
	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}

// UpdateVariant изменяет вариант и в той же транзакции пересчитывает
// производные поля товара явным вызовом RecomputeDerived.
func (s *productService) UpdateVariant(ctx context.Context, role string, v *models.Variant) (*models.Product, error) {
	const op = "service.ProductService.UpdateVariant"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", v.ProductID), slog.Int64("variantID", v.ID))

	if err := requireRole(role, models.RoleAdmin); err != nil {
		logger.Warn("role check failed", slog.String("role", role))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	product, err := s.productRepo.LockProductTx(ctx, tx, v.ProductID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productRepo.UpdateVariantTx(ctx, tx, v); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update variant", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range product.Variants {
		if product.Variants[i].ID == v.ID {
			product.Variants[i] = *v
			break
		}
	}
	product.RecomputeDerived()

	if err := s.productRepo.UpdateDerivedTx(ctx, tx, product); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update derived fields", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update derived fields: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("variant updated")
	return product, nil
}
