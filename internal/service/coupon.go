package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/storage"
)

// CouponService — административное управление купонами; на оформлении
// заказа купон применяется через CouponStorage напрямую.
type CouponService interface {
	CreateCoupon(ctx context.Context, role string, c *models.Coupon) (*models.Coupon, error)
	ListCoupons(ctx context.Context, role string) ([]*models.Coupon, error)
}

type couponService struct {
	log        *slog.Logger
	couponRepo storage.CouponStorage
}

func NewCouponService(log *slog.Logger, couponRepo storage.CouponStorage) CouponService {
	return &couponService{log: log, couponRepo: couponRepo}
}

func (s *couponService) CreateCoupon(ctx context.Context, role string, c *models.Coupon) (*models.Coupon, error) {
	const op = "service.CouponService.CreateCoupon"
	logger := s.log.With(slog.String("op", op), slog.String("code", c.Code))

	if err := requireRole(role, models.RoleAdmin); err != nil {
		logger.Warn("role check failed", slog.String("role", role))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !c.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%s: %w", op, ErrCouponNotApplicable)
	}

	c.IsActive = true
	created, err := s.couponRepo.Create(ctx, c)
	if err != nil {
		logger.Warn("failed to create coupon", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("coupon created", slog.Int64("couponID", created.ID))
	return created, nil
}

func (s *couponService) ListCoupons(ctx context.Context, role string) ([]*models.Coupon, error) {
	const op = "service.CouponService.ListCoupons"

	if err := requireRole(role, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	coupons, err := s.couponRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return coupons, nil
}
