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

// AddressRequest — новый адрес доставки.
type AddressRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// ListAddressesHandler обрабатывает GET /api/addresses
func ListAddressesHandler(log *slog.Logger, addressService service.AddressService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListAddressesHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFromRequest(r)
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		addrs, err := addressService.ListAddresses(r.Context(), userID)
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, addrs)
	}
}

// CreateAddressHandler обрабатывает POST /api/addresses
func CreateAddressHandler(log *slog.Logger, addressService service.AddressService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateAddressHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFromRequest(r)
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req AddressRequest
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

		addr, err := addressService.CreateAddress(r.Context(), &models.Address{
			UserID:     userID,
			FullName:   req.FullName,
			Phone:      req.Phone,
			Line1:      req.Line1,
			Line2:      req.Line2,
			City:       req.City,
			State:      req.State,
			PostalCode: req.PostalCode,
			Country:    req.Country,
		})
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, addr)
	}
}

// DeleteAddressHandler обрабатывает DELETE /api/addresses/{id}
func DeleteAddressHandler(log *slog.Logger, addressService service.AddressService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteAddressHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFromRequest(r)
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		addressID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid address id", http.StatusBadRequest)
			return
		}

		if err := addressService.DeleteAddress(r.Context(), userID, addressID); err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "address deleted"})
	}
}
