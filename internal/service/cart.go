package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/pricing"
	"github.com/linemk/ecom-shop/internal/storage"
)

// CartView — корзина с посчитанными на чтении итогами; своих итогов
// корзина не хранит.
type CartView struct {
	Items      []*models.CartItem `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice float64            `json:"total_price"`
}

// CartService — операции над корзиной пользователя.
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*CartView, error)
	AddItem(ctx context.Context, userID, productID, variantID int64, quantity int) (*CartView, error)
	UpdateItem(ctx context.Context, userID, productID, variantID int64, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID, variantID int64) (*CartView, error)
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{log: log, cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) view(ctx context.Context, userID int64) (*CartView, error) {
	items, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart := &CartView{Items: items}
	if cart.Items == nil {
		cart.Items = []*models.CartItem{}
	}
	for _, item := range items {
		cart.TotalItems += item.Quantity
		cart.TotalPrice += item.PriceAtAdd * float64(item.Quantity)
	}
	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	const op = "service.CartService.GetCart"
	cart, err := s.view(ctx, userID)
	if err != nil {
		s.log.Error("failed to read cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

// AddItem добавляет позицию, переоценивая её по текущей цене и скидке
// товара. Каждая позиция адресует конкретный вариант: если он не указан,
// подставляется вариант товара по умолчанию.
func (s *cartService) AddItem(ctx context.Context, userID, productID, variantID int64, quantity int) (*CartView, error) {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if quantity < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrQuantityTooSmall)
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		logger.Warn("product lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	variant, err := resolveVariant(product, variantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if variant.Stock < quantity {
		logger.Warn("not enough stock", slog.Int("stock", variant.Stock), slog.Int("quantity", quantity))
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
	}

	item := &models.CartItem{
		UserID:     userID,
		ProductID:  productID,
		VariantID:  variant.ID,
		Quantity:   quantity,
		PriceAtAdd: pricing.EffectiveUnitPrice(product.Price, product.DiscountPercent),
	}
	if err := s.cartRepo.Upsert(ctx, item); err != nil {
		logger.Error("failed to upsert cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.view(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("item added to cart")
	return cart, nil
}

func (s *cartService) UpdateItem(ctx context.Context, userID, productID, variantID int64, quantity int) (*CartView, error) {
	const op = "service.CartService.UpdateItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if quantity < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrQuantityTooSmall)
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	variant, err := resolveVariant(product, variantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if variant.Stock < quantity {
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
	}

	if err := s.cartRepo.UpdateQuantity(ctx, userID, productID, variant.ID, quantity); err != nil {
		logger.Warn("failed to update cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.view(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID, variantID int64) (*CartView, error) {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if err := s.cartRepo.Remove(ctx, userID, productID, variantID); err != nil {
		logger.Warn("failed to remove cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.view(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

// resolveVariant находит вариант товара по идентификатору либо возвращает
// вариант по умолчанию, если идентификатор не задан. Подмена идентификатора
// товара вместо варианта не допускается.
func resolveVariant(product *models.Product, variantID int64) (*models.Variant, error) {
	for i := range product.Variants {
		v := &product.Variants[i]
		if variantID == 0 && v.IsDefault {
			return v, nil
		}
		if v.ID == variantID {
			return v, nil
		}
	}
	return nil, storage.ErrVariantNotFound
}
