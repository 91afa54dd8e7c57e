package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/storage"
)

// WishlistService — список желаний пользователя.
type WishlistService interface {
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	List(ctx context.Context, userID int64) ([]*models.Product, error)
}

type wishlistService struct {
	log          *slog.Logger
	wishlistRepo storage.WishlistStorage
	productRepo  storage.ProductStorage
}

func NewWishlistService(log *slog.Logger, wishlistRepo storage.WishlistStorage, productRepo storage.ProductStorage) WishlistService {
	return &wishlistService{log: log, wishlistRepo: wishlistRepo, productRepo: productRepo}
}

func (s *wishlistService) Add(ctx context.Context, userID, productID int64) error {
	const op = "service.WishlistService.Add"

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.wishlistRepo.Add(ctx, userID, productID); err != nil {
		s.log.Error("failed to add wishlist item", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID int64) error {
	const op = "service.WishlistService.Remove"
	if err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *wishlistService) List(ctx context.Context, userID int64) ([]*models.Product, error) {
	const op = "service.WishlistService.List"
	products, err := s.wishlistRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}
