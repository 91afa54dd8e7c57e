package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/storage"
)

// CategoryService — разделы каталога: чтение и административное создание.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, role string, c *models.Category) (*models.Category, error)
}

type categoryService struct {
	log          *slog.Logger
	categoryRepo storage.CategoryStorage
}

func NewCategoryService(log *slog.Logger, categoryRepo storage.CategoryStorage) CategoryService {
	return &categoryService{log: log, categoryRepo: categoryRepo}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CategoryService.ListCategories"
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	const op = "service.CategoryService.GetCategory"
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, role string, c *models.Category) (*models.Category, error) {
	const op = "service.CategoryService.CreateCategory"
	logger := s.log.With(slog.String("op", op), slog.String("slug", c.Slug))

	if err := requireRole(role, models.RoleAdmin); err != nil {
		logger.Warn("role check failed", slog.String("role", role))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.categoryRepo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateCategory) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to create category", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create category: %w", op, err)
	}
	logger.Info("category created", slog.Int64("categoryID", created.ID))
	return created, nil
}
