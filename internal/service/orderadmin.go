package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/storage"
)

// requireRole — явная проверка полномочий в начале привилегированной
// операции; возвращает типизированную ошибку вместо прерывания потока.
func requireRole(role, required string) error {
	if role != required {
		return ErrUnauthorized
	}
	return nil
}

// StatusUpdate — административное изменение заказа.
type StatusUpdate struct {
	Status     string
	TrackingID string
	AdminNote  string
}

// OrderAdminService — административные операции над заказами.
type OrderAdminService interface {
	UpdateOrderStatus(ctx context.Context, role string, orderID int64, upd StatusUpdate) (*models.Order, error)
}

type orderAdminService struct {
	log       *slog.Logger
	db        *sql.DB
	orderRepo storage.OrderStorage
}

func NewOrderAdminService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage) OrderAdminService {
	return &orderAdminService{log: log, db: db, orderRepo: orderRepo}
}

// UpdateOrderStatus переводит заказ в новый статус (отгрузка, доставка,
// отмена) с трек-номером и примечанием. Переходы из терминальных статусов
// запрещены; статус оплаты операцией не затрагивается.
func (s *orderAdminService) UpdateOrderStatus(ctx context.Context, role string, orderID int64, upd StatusUpdate) (*models.Order, error) {
	const op = "service.OrderAdminService.UpdateOrderStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", upd.Status))

	if err := requireRole(role, models.RoleAdmin); err != nil {
		logger.Warn("role check failed", slog.String("role", role))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

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

	if !models.ValidTransition(order.OrderStatus, upd.Status) {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("illegal transition", slog.String("from", order.OrderStatus))
		return nil, fmt.Errorf("%s: %w", op, ErrIllegalTransition)
	}

	if err := s.orderRepo.UpdateStatusTx(ctx, tx, orderID, upd.Status, upd.TrackingID, upd.AdminNote); err != nil {
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

	order.OrderStatus = upd.Status
	if upd.TrackingID != "" {
		order.TrackingID = upd.TrackingID
	}
	if upd.AdminNote != "" {
		order.AdminNote = upd.AdminNote
	}
	logger.Info("order status updated")
	return order, nil
}
