package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/service"
)

// VariantRequest — вариант товара в административных запросах.
type VariantRequest struct {
	SKU        string            `json:"sku" validate:"required"`
	Price      float64           `json:"price" validate:"required,gt=0"`
	Stock      int               `json:"stock" validate:"gte=0"`
	Attributes map[string]string `json:"attributes"`
	IsDefault  bool              `json:"is_default"`
}

// CreateProductRequest — создание товара с вариантами; без вариантов
// будет создан вариант по умолчанию.
type CreateProductRequest struct {
	Name            string           `json:"name" validate:"required"`
	Slug            string           `json:"slug" validate:"required"`
	CategoryID      int64            `json:"category_id" validate:"gte=0"`
	Price           float64          `json:"price" validate:"required,gt=0"`
	MRPPrice        float64          `json:"mrp_price" validate:"gte=0"`
	DiscountPercent float64          `json:"discount_percent" validate:"gte=0,lte=100"`
	Description     string           `json:"description"`
	Status          string           `json:"status" validate:"omitempty,oneof=active inactive"`
	Variants        []VariantRequest `json:"variants" validate:"dive"`
}

// UpdateVariantRequest — изменение цены и остатка варианта.
type UpdateVariantRequest struct {
	VariantRequest
	ID        int64 `json:"id" validate:"required,gt=0"`
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// UpdateOrderStatusRequest — административная смена статуса заказа.
type UpdateOrderStatusRequest struct {
	Status     string `json:"status" validate:"required,oneof=Placed Shipped Delivered Canceled"`
	TrackingID string `json:"tracking_id"`
	AdminNote  string `json:"admin_note"`
}

// CreateProductHandler обрабатывает POST /api/admin/products
func CreateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req CreateProductRequest
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

		variants := make([]models.Variant, 0, len(req.Variants))
		for _, v := range req.Variants {
			variants = append(variants, models.Variant{
				SKU:        v.SKU,
				Price:      v.Price,
				Stock:      v.Stock,
				Attributes: v.Attributes,
				IsDefault:  v.IsDefault,
			})
		}

		product, err := productService.CreateProduct(r.Context(), roleFromRequest(r), &models.Product{
			Name:            req.Name,
			Slug:            req.Slug,
			CategoryID:      req.CategoryID,
			Price:           req.Price,
			MRPPrice:        req.MRPPrice,
			DiscountPercent: req.DiscountPercent,
			Description:     req.Description,
			Status:          req.Status,
			Variants:        variants,
		})
		if err != nil {
			logger.Warn("product creation failed", slog.Any("error", err))
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, product)
	}
}

// UpdateVariantHandler обрабатывает PUT /api/admin/variants
func UpdateVariantHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateVariantHandler"
		logger := log.With(slog.String("op", op))

		var req UpdateVariantRequest
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

		product, err := productService.UpdateVariant(r.Context(), roleFromRequest(r), &models.Variant{
			ID:         req.ID,
			ProductID:  req.ProductID,
			SKU:        req.SKU,
			Price:      req.Price,
			Stock:      req.Stock,
			Attributes: req.Attributes,
			IsDefault:  req.IsDefault,
		})
		if err != nil {
			logger.Warn("variant update failed", slog.Any("error", err))
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, product)
	}
}

// UpdateOrderStatusHandler обрабатывает PUT /api/admin/orders/{id}/status
func UpdateOrderStatusHandler(log *slog.Logger, adminService service.OrderAdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req UpdateOrderStatusRequest
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

		order, err := adminService.UpdateOrderStatus(r.Context(), roleFromRequest(r), orderID, service.StatusUpdate{
			Status:     req.Status,
			TrackingID: req.TrackingID,
			AdminNote:  req.AdminNote,
		})
		if err != nil {
			logger.Warn("order status update failed", slog.Any("error", err))
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, order)
	}
}
