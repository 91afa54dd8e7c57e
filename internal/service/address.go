package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/storage"
)

// AddressService — адреса доставки пользователя.
type AddressService interface {
	ListAddresses(ctx context.Context, userID int64) ([]*models.Address, error)
	CreateAddress(ctx context.Context, addr *models.Address) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID int64) error
}

type addressService struct {
	log         *slog.Logger
	addressRepo storage.AddressStorage
}

func NewAddressService(log *slog.Logger, addressRepo storage.AddressStorage) AddressService {
	return &addressService{log: log, addressRepo: addressRepo}
}

func (s *addressService) ListAddresses(ctx context.Context, userID int64) ([]*models.Address, error) {
	const op = "service.AddressService.ListAddresses"
	addrs, err := s.addressRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to list addresses", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return addrs, nil
}

func (s *addressService) CreateAddress(ctx context.Context, addr *models.Address) (*models.Address, error) {
	const op = "service.AddressService.CreateAddress"
	created, err := s.addressRepo.Create(ctx, addr)
	if err != nil {
		s.log.Error("failed to create address", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s *addressService) DeleteAddress(ctx context.Context, userID, addressID int64) error {
	const op = "service.AddressService.DeleteAddress"
	if err := s.addressRepo.Delete(ctx, addressID, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
