package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/ecom-shop/internal/payment"
)

// PaymentService — создание заказа на стороне платёжного шлюза и
// отдельная проверка подтверждения платежа.
type PaymentService interface {
	CreateGatewayOrder(ctx context.Context, amount float64, currency string) (string, error)
	VerifyPayment(proof PaymentProof) error
}

type paymentService struct {
	log           *slog.Logger
	gateway       payment.GatewayClient
	gatewaySecret func() string
}

func NewPaymentService(log *slog.Logger, gateway payment.GatewayClient, gatewaySecret func() string) PaymentService {
	return &paymentService{log: log, gateway: gateway, gatewaySecret: gatewaySecret}
}

// CreateGatewayOrder создаёт заказ в шлюзе до клиентской оплаты.
// Идентификатор шлюза для нас непрозрачен и позже участвует в подписи.
func (s *paymentService) CreateGatewayOrder(ctx context.Context, amount float64, currency string) (string, error) {
	const op = "service.PaymentService.CreateGatewayOrder"
	logger := s.log.With(slog.String("op", op), slog.Float64("amount", amount))

	if currency == "" {
		currency = "INR"
	}

	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amount, currency)
	if err != nil {
		logger.Error("gateway order creation failed", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("gateway order created", slog.String("gatewayOrderID", gatewayOrderID))
	return gatewayOrderID, nil
}

// VerifyPayment проверяет тройку подтверждения платежа вне контекста
// создания заказа. Неполные данные и неверная подпись различаются.
func (s *paymentService) VerifyPayment(proof PaymentProof) error {
	const op = "service.PaymentService.VerifyPayment"

	if proof.GatewayOrderID == "" || proof.GatewayPaymentID == "" || proof.Signature == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingPaymentFields)
	}
	if !payment.VerifySignature(proof.GatewayOrderID, proof.GatewayPaymentID, proof.Signature, s.gatewaySecret()) {
		s.log.Warn("payment verification failed", slog.String("op", op))
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}
	return nil
}
