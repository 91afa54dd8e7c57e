package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/ecom-shop/internal/service"
)

// PaymentProofRequest — тройка подтверждения платежа от клиента.
type PaymentProofRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// CheckoutRequest — оформление заказа из корзины.
type CheckoutRequest struct {
	ShippingAddressID int64                `json:"shipping_address_id" validate:"required,gt=0"`
	PaymentMethod     string               `json:"payment_method" validate:"required,oneof=CARD UPI COD card upi cod"`
	DeliveryType      string               `json:"delivery_type" validate:"required,oneof=Express Normal"`
	CouponCode        string               `json:"coupon_code"`
	Proof             *PaymentProofRequest `json:"payment_proof"`
}

// DirectCheckoutRequest — заказ одного товара мимо корзины.
type DirectCheckoutRequest struct {
	CheckoutRequest
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	VariantID int64 `json:"variant_id" validate:"gte=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1"`
}

// OrderListResponse — страница заказов пользователя.
type OrderListResponse struct {
	Orders any `json:"orders"`
	Total  int `json:"total"`
	Page   int `json:"page"`
}

func proofFromRequest(p *PaymentProofRequest) *service.PaymentProof {
	if p == nil {
		return nil
	}
	return &service.PaymentProof{
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		Signature:        p.Signature,
	}
}

// CheckoutHandler обрабатывает POST /api/orders/checkout
func CheckoutHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFromRequest(r)
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req CheckoutRequest
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

		details, err := orderService.Checkout(r.Context(), userID, service.CheckoutInput{
			ShippingAddressID: req.ShippingAddressID,
			PaymentMethod:     req.PaymentMethod,
			DeliveryType:      req.DeliveryType,
			CouponCode:        req.CouponCode,
			Proof:             proofFromRequest(req.Proof),
		})
		if err != nil {
			logger.Warn("checkout failed", slog.Any("error", err))
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, details)
	}
}

// DirectCheckoutHandler обрабатывает POST /api/orders/checkout-direct
func DirectCheckoutHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DirectCheckoutHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFromRequest(r)
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req DirectCheckoutRequest
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

		details, err := orderService.CheckoutDirect(r.Context(), userID, service.DirectCheckoutInput{
			CheckoutInput: service.CheckoutInput{
				ShippingAddressID: req.ShippingAddressID,
				PaymentMethod:     req.PaymentMethod,
				DeliveryType:      req.DeliveryType,
				CouponCode:        req.CouponCode,
				Proof:             proofFromRequest(req.Proof),
			},
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			logger.Warn("direct checkout failed", slog.Any("error", err))
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, details)
	}
}

// ListOrdersHandler обрабатывает GET /api/orders
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFromRequest(r)
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		page, limit := parsePagination(r)
		orders, total, err := orderService.GetOrders(r.Context(), userID, page, limit)
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, OrderListResponse{Orders: orders, Total: total, Page: page})
	}
}

// GetOrderHandler обрабатывает GET /api/orders/{id}
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFromRequest(r)
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		details, err := orderService.GetOrderByID(r.Context(), userID, orderID)
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, details)
	}
}

// CancelOrderHandler обрабатывает POST /api/orders/{id}/cancel
func CancelOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFromRequest(r)
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := orderService.Cancel(r.Context(), userID, orderID)
		if err != nil {
			logger.Warn("cancel failed", slog.Any("error", err))
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, order)
	}
}
