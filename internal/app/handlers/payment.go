package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/ecom-shop/internal/service"
)

// CreateGatewayOrderRequest — создание заказа в платёжном шлюзе до оплаты.
type CreateGatewayOrderRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
}

type CreateGatewayOrderResponse struct {
	GatewayOrderID string `json:"gateway_order_id"`
}

// CreateGatewayOrderHandler обрабатывает POST /api/payments/order
func CreateGatewayOrderHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateGatewayOrderHandler"
		logger := log.With(slog.String("op", op))

		var req CreateGatewayOrderRequest
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

		gatewayOrderID, err := paymentService.CreateGatewayOrder(r.Context(), req.Amount, req.Currency)
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, CreateGatewayOrderResponse{GatewayOrderID: gatewayOrderID})
	}
}

// VerifyPaymentHandler обрабатывает POST /api/payments/verify
func VerifyPaymentHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.VerifyPaymentHandler"
		logger := log.With(slog.String("op", op))

		var req PaymentProofRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := paymentService.VerifyPayment(service.PaymentProof{
			GatewayOrderID:   req.GatewayOrderID,
			GatewayPaymentID: req.GatewayPaymentID,
			Signature:        req.Signature,
		}); err != nil {
			logger.Warn("payment verification failed")
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "payment verified"})
	}
}
