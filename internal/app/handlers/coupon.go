package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/service"
)

// CreateCouponRequest — создание купона администратором.
type CreateCouponRequest struct {
	Code            string    `json:"code" validate:"required"`
	DiscountPercent float64   `json:"discount_percent" validate:"required,gt=0,lte=100"`
	MinOrderAmount  float64   `json:"min_order_amount" validate:"gte=0"`
	ExpiresAt       time.Time `json:"expires_at" validate:"required"`
}

// CreateCouponHandler обрабатывает POST /api/admin/coupons
func CreateCouponHandler(log *slog.Logger, couponService service.CouponService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCouponHandler"
		logger := log.With(slog.String("op", op))

		var req CreateCouponRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		coupon, err := couponService.CreateCoupon(r.Context(), roleFromRequest(r), &models.Coupon{
			Code:            req.Code,
			DiscountPercent: req.DiscountPercent,
			MinOrderAmount:  req.MinOrderAmount,
			ExpiresAt:       req.ExpiresAt,
		})
		if err != nil {
			logger.Warn("coupon creation failed", slog.Any("error", err))
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, coupon)
	}
}

// ListCouponsHandler обрабатывает GET /api/admin/coupons
func ListCouponsHandler(log *slog.Logger, couponService service.CouponService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCouponsHandler"
		logger := log.With(slog.String("op", op))

		coupons, err := couponService.ListCoupons(r.Context(), roleFromRequest(r))
		if err != nil {
			writeError(logger, w, err)
			return
		}
		if coupons == nil {
			coupons = []*models.Coupon{}
		}
		writeJSON(logger, w, http.StatusOK, coupons)
	}
}
