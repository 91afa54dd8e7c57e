package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/storage"
)

// ReviewService — отзывы о товарах, не более одного на пользователя.
type ReviewService interface {
	AddReview(ctx context.Context, review *models.Review) (*models.Review, error)
	ListReviews(ctx context.Context, productID int64) ([]*models.Review, error)
}

type reviewService struct {
	log         *slog.Logger
	reviewRepo  storage.ReviewStorage
	productRepo storage.ProductStorage
}

func NewReviewService(log *slog.Logger, reviewRepo storage.ReviewStorage, productRepo storage.ProductStorage) ReviewService {
	return &reviewService{log: log, reviewRepo: reviewRepo, productRepo: productRepo}
}

func (s *reviewService) AddReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	const op = "service.ReviewService.AddReview"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", review.ProductID), slog.Int64("userID", review.UserID))

	if _, err := s.productRepo.GetByID(ctx, review.ProductID); err != nil {
		logger.Warn("product lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.reviewRepo.Create(ctx, review)
	if err != nil {
		logger.Warn("failed to create review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("review added")
	return created, nil
}

func (s *reviewService) ListReviews(ctx context.Context, productID int64) ([]*models.Review, error) {
	const op = "service.ReviewService.ListReviews"
	reviews, err := s.reviewRepo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}
