package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/payment"
	"github.com/linemk/ecom-shop/internal/pricing"
	"github.com/linemk/ecom-shop/internal/storage"
)

// PaymentProof — тройка полей подтверждения платежа, которую клиент
// предъявляет после оплаты на стороне шлюза. Потребляется один раз,
// нигде не сохраняется.
type PaymentProof struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// CheckoutInput — параметры оформления заказа из корзины.
type CheckoutInput struct {
	ShippingAddressID int64
	PaymentMethod     string
	DeliveryType      string
	CouponCode        string
	Proof             *PaymentProof
}

// DirectCheckoutInput — оформление заказа на один товар мимо корзины.
type DirectCheckoutInput struct {
	CheckoutInput
	ProductID int64
	VariantID int64
	Quantity  int
}

// OrderDetails — заказ вместе с разрешёнными для отображения ссылками.
type OrderDetails struct {
	Order   *models.Order   `json:"order"`
	Address *models.Address `json:"address"`
}

// OrderService — оформление, просмотр и отмена заказов.
type OrderService interface {
	Checkout(ctx context.Context, userID int64, in CheckoutInput) (*OrderDetails, error)
	CheckoutDirect(ctx context.Context, userID int64, in DirectCheckoutInput) (*OrderDetails, error)
	Cancel(ctx context.Context, userID, orderID int64) (*models.Order, error)
	GetOrders(ctx context.Context, userID int64, page, limit int) ([]*models.Order, int, error)
	GetOrderByID(ctx context.Context, userID, orderID int64) (*OrderDetails, error)
}

type orderService struct {
	log           *slog.Logger
	db            *sql.DB
	cartRepo      storage.CartStorage
	orderRepo     storage.OrderStorage
	addressRepo   storage.AddressStorage
	productRepo   storage.ProductStorage
	couponRepo    storage.CouponStorage
	gatewaySecret func() string

	// сериализация конкурентных оформлений одной и той же корзины
	userLocks sync.Map // userID -> *sync.Mutex
}

// NewOrderService создаёт сервис заказов. gatewaySecret — поставщик общего
// секрета платёжного шлюза; секрет не хранится в коде и не логируется.
func NewOrderService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, orderRepo storage.OrderStorage,
	addressRepo storage.AddressStorage, productRepo storage.ProductStorage, couponRepo storage.CouponStorage,
	gatewaySecret func() string) OrderService {
	return &orderService{
		log:           log,
		db:            db,
		cartRepo:      cartRepo,
		orderRepo:     orderRepo,
		addressRepo:   addressRepo,
		productRepo:   productRepo,
		couponRepo:    couponRepo,
		gatewaySecret: gatewaySecret,
	}
}

func (s *orderService) lockUser(userID int64) *sync.Mutex {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

const invoiceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// generateInvoiceID возвращает уникальный номер заказа вида
// ORD-<unix millis>-<9 случайных base36 символов>. Коллизия практически
// исключена, а на случай гонки на invoice_id стоит уникальный индекс.
func generateInvoiceID() (string, error) {
	suffix := make([]byte, 9)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(invoiceAlphabet))))
		if err != nil {
			return "", err
		}
		suffix[i] = invoiceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), strings.ToUpper(string(suffix))), nil
}

// verifyProof проверяет подтверждение платежа для безналичных методов.
// Отсутствие полей — нарушение предусловия, отличное от неверной подписи.
func (s *orderService) verifyProof(proof *PaymentProof) error {
	if proof == nil || proof.GatewayOrderID == "" || proof.GatewayPaymentID == "" || proof.Signature == "" {
		return ErrMissingPaymentFields
	}
	if !payment.VerifySignature(proof.GatewayOrderID, proof.GatewayPaymentID, proof.Signature, s.gatewaySecret()) {
		return ErrInvalidSignature
	}
	return nil
}

// applyCoupon возвращает размер скидки по коду купона.
func (s *orderService) applyCoupon(ctx context.Context, code string, subTotal float64) (float64, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrCouponNotFound) {
			return 0, ErrCouponNotApplicable
		}
		return 0, err
	}
	if time.Now().After(coupon.ExpiresAt) || subTotal < coupon.MinOrderAmount {
		return 0, ErrCouponNotApplicable
	}
	return subTotal * coupon.DiscountPercent / 100, nil
}

// Checkout оформляет заказ из корзины пользователя. Заказ создаётся и
// корзина очищается в одной транзакции; при любой ошибке до фиксации
// ничего не сохраняется и корзина не меняется.
func (s *orderService) Checkout(ctx context.Context, userID int64, in CheckoutInput) (*OrderDetails, error) {
	const op = "service.OrderService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	address, err := s.addressRepo.GetByIDForUser(ctx, in.ShippingAddressID, userID)
	if err != nil {
		logger.Warn("invalid shipping address", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	paymentMethod := strings.ToUpper(in.PaymentMethod)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	items, subTotal, err := s.resolveCartSnapshot(ctx, tx, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// проверка платежа идёт после резолва корзины и до любой записи:
	// при неверной подписи ничего не сохраняется и корзина не очищается
	if paymentMethod != models.MethodCOD {
		if err := s.verifyProof(in.Proof); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Warn("payment verification failed")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	order, err := s.buildOrder(ctx, userID, in, paymentMethod, items, subTotal)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orderID, err := s.orderRepo.CreateOrderTx(ctx, tx, order)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}
	order.ID = orderID

	if err := s.cartRepo.ClearTx(ctx, tx, userID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created",
		slog.String("invoiceID", order.InvoiceID),
		slog.String("paymentMethod", order.PaymentMethod),
		slog.Float64("totalAmount", order.TotalAmount),
	)
	return &OrderDetails{Order: order, Address: address}, nil
}

// CheckoutDirect оформляет заказ на один товар, минуя корзину;
// правила расчёта цены и проверки платежа те же, корзина не затрагивается.
func (s *orderService) CheckoutDirect(ctx context.Context, userID int64, in DirectCheckoutInput) (*OrderDetails, error) {
	const op = "service.OrderService.CheckoutDirect"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", in.ProductID))

	if in.Quantity < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrQuantityTooSmall)
	}

	address, err := s.addressRepo.GetByIDForUser(ctx, in.ShippingAddressID, userID)
	if err != nil {
		logger.Warn("invalid shipping address", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	paymentMethod := strings.ToUpper(in.PaymentMethod)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	product, err := s.productRepo.LockProductTx(ctx, tx, in.ProductID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	variant, err := resolveVariant(product, in.VariantID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// остаток проверяется, пока строка товара удерживается под блокировкой
	if variant.Stock < in.Quantity {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("not enough stock", slog.Int("stock", variant.Stock), slog.Int("quantity", in.Quantity))
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
	}

	if paymentMethod != models.MethodCOD {
		if err := s.verifyProof(in.Proof); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Warn("payment verification failed")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	unit := pricing.EffectiveUnitPrice(product.Price, product.DiscountPercent)
	lineTotal := unit * float64(in.Quantity)
	items := []models.OrderItem{{
		ProductID:   product.ID,
		VariantID:   variant.ID,
		ProductName: product.Name,
		Quantity:    in.Quantity,
		LineTotal:   lineTotal,
	}}

	order, err := s.buildOrder(ctx, userID, in.CheckoutInput, paymentMethod, items, lineTotal)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orderID, err := s.orderRepo.CreateOrderTx(ctx, tx, order)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}
	order.ID = orderID

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("direct order created", slog.String("invoiceID", order.InvoiceID))
	return &OrderDetails{Order: order, Address: address}, nil
}

// buildOrder собирает запись заказа: доставка, купон, итог, номер счёта,
// начальные статусы. Итог всегда равен subTotal - discount + shipping.
func (s *orderService) buildOrder(ctx context.Context, userID int64, in CheckoutInput, paymentMethod string,
	items []models.OrderItem, subTotal float64) (*models.Order, error) {

	discount := 0.0
	if in.CouponCode != "" {
		var err error
		discount, err = s.applyCoupon(ctx, in.CouponCode, subTotal)
		if err != nil {
			return nil, err
		}
	}

	shipping := pricing.ShippingCharge(in.DeliveryType, subTotal)
	invoiceID, err := generateInvoiceID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice id: %w", err)
	}

	paymentStatus := models.PaymentSuccess
	if paymentMethod == models.MethodCOD {
		paymentStatus = models.PaymentPending
	}

	return &models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddressID,
		DeliveryType:    in.DeliveryType,
		EstimatedDays:   pricing.EstimatedDays(in.DeliveryType),
		ShippingCharges: shipping,
		SubTotal:        subTotal,
		CouponCode:      in.CouponCode,
		DiscountAmount:  discount,
		TotalAmount:     pricing.Total(subTotal, discount, shipping),
		PaymentMethod:   paymentMethod,
		PaymentStatus:   paymentStatus,
		InvoiceID:       invoiceID,
		OrderStatus:     models.OrderPlaced,
	}, nil
}

// Cancel отменяет заказ пользователя. Отмена запрещена из статусов
// Delivered и Canceled; статус оплаты при отмене не меняется.
func (s *orderService) Cancel(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.Cancel"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("orderID", orderID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserID != userID {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
	}

	if !order.CanCancel() {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("cancel refused", slog.String("orderStatus", order.OrderStatus))
		return nil, fmt.Errorf("%s: %w", op, ErrIllegalTransition)
	}

	if err := s.orderRepo.UpdateStatusTx(ctx, tx, orderID, models.OrderCanceled, "", ""); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order status: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.OrderStatus = models.OrderCanceled
	logger.Info("order canceled")
	return order, nil
}

func (s *orderService) GetOrders(ctx context.Context, userID int64, page, limit int) ([]*models.Order, int, error) {
	const op = "service.OrderService.GetOrders"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	orders, err := s.orderRepo.GetByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	total, err := s.orderRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return orders, total, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, userID, orderID int64) (*OrderDetails, error) {
	const op = "service.OrderService.GetOrderByID"

	order, err := s.orderRepo.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	address, err := s.addressRepo.GetByIDForUser(ctx, order.ShippingAddress, userID)
	if err != nil && !errors.Is(err, storage.ErrAddressNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &OrderDetails{Order: order, Address: address}, nil
}
