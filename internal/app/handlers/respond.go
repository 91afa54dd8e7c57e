package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/ecom-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/ecom-shop/internal/payment"
	"github.com/linemk/ecom-shop/internal/service"
	"github.com/linemk/ecom-shop/internal/storage"
)

var validate = validator.New()

// userIDFromRequest извлекает идентификатор пользователя, установленный JWT middleware.
func userIDFromRequest(r *http.Request) (int64, bool) {
	return jwtmiddleware.FromContext(r.Context())
}

// roleFromRequest извлекает роль пользователя из токена.
func roleFromRequest(r *http.Request) string {
	role, _ := jwtmiddleware.RoleFromContext(r.Context())
	return role
}

// ErrorResponse — единый формат ошибки для клиента.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON сериализует ответ; ошибка кодирования означает, что заголовки
// уже могли уйти, поэтому только логируем.
func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError отображает типизированные ошибки бизнес-логики и хранилища
// в HTTP-статусы. Неопознанные ошибки не раскрываются клиенту.
func writeError(log *slog.Logger, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrInvalidOTP):
		status, message = http.StatusBadRequest, service.ErrInvalidOTP.Error()
	case errors.Is(err, service.ErrUnauthorized):
		status, message = http.StatusForbidden, service.ErrUnauthorized.Error()
	case errors.Is(err, service.ErrEmptyCart):
		status, message = http.StatusBadRequest, service.ErrEmptyCart.Error()
	case errors.Is(err, service.ErrMissingPaymentFields):
		status, message = http.StatusBadRequest, service.ErrMissingPaymentFields.Error()
	case errors.Is(err, service.ErrInvalidSignature):
		status, message = http.StatusBadRequest, service.ErrInvalidSignature.Error()
	case errors.Is(err, service.ErrIllegalTransition):
		status, message = http.StatusConflict, service.ErrIllegalTransition.Error()
	case errors.Is(err, service.ErrInsufficientStock):
		status, message = http.StatusConflict, service.ErrInsufficientStock.Error()
	case errors.Is(err, service.ErrCouponNotApplicable):
		status, message = http.StatusBadRequest, service.ErrCouponNotApplicable.Error()
	case errors.Is(err, service.ErrQuantityTooSmall):
		status, message = http.StatusBadRequest, service.ErrQuantityTooSmall.Error()
	case errors.Is(err, storage.ErrDuplicateReview):
		status, message = http.StatusConflict, storage.ErrDuplicateReview.Error()
	case errors.Is(err, storage.ErrDuplicateCategory):
		status, message = http.StatusConflict, storage.ErrDuplicateCategory.Error()
	case errors.Is(err, storage.ErrDuplicateCoupon):
		status, message = http.StatusConflict, storage.ErrDuplicateCoupon.Error()
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrProductNotFound),
		errors.Is(err, storage.ErrVariantNotFound),
		errors.Is(err, storage.ErrAddressNotFound),
		errors.Is(err, storage.ErrOrderNotFound),
		errors.Is(err, storage.ErrCartItemNotFound),
		errors.Is(err, storage.ErrCouponNotFound),
		errors.Is(err, storage.ErrCategoryNotFound),
		errors.Is(err, storage.ErrWishlistItemNotFound):
		status, message = http.StatusNotFound, "resource not found"
	case errors.Is(err, payment.ErrGatewayUnavailable):
		status, message = http.StatusBadGateway, payment.ErrGatewayUnavailable.Error()
	}

	if status == http.StatusInternalServerError {
		log.Error("internal error", slog.Any("error", err))
	}
	writeJSON(log, w, status, ErrorResponse{Error: message})
}
