package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/repo"
)

// AddressUpdate enumerates exactly the mutable address fields; nil means keep.
type AddressUpdate struct {
	Label     *string
	Recipient *string
	Phone     *string
	Address1  *string
	Address2  *string
	ZipCode   *string
}

type AddressService struct {
	Repo *repo.GormRepo
}

func (s *AddressService) Create(ctx context.Context, userID uint, address *models.Address) error {
	if address.Recipient == "" || address.Phone == "" || address.Address1 == "" || address.ZipCode == "" {
		return fmt.Errorf("%w: recipient, phone, address and zip code required", ErrValidation)
	}
	address.UserID = userID

	existing, err := s.Repo.ListAddresses(ctx, userID)
	if err != nil {
		return err
	}
	// First address becomes the default.
	address.IsDefault = len(existing) == 0

	return s.Repo.CreateAddress(ctx, address)
}

func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Update(ctx context.Context, userID, addressID uint, upd AddressUpdate) (*models.Address, error) {
	address, err := s.getOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if upd.Label != nil {
		address.Label = *upd.Label
	}
	if upd.Recipient != nil {
		address.Recipient = *upd.Recipient
	}
	if upd.Phone != nil {
		address.Phone = *upd.Phone
	}
	if upd.Address1 != nil {
		address.Address1 = *upd.Address1
	}
	if upd.Address2 != nil {
		address.Address2 = *upd.Address2
	}
	if upd.ZipCode != nil {
		address.ZipCode = *upd.ZipCode
	}

	if err := s.Repo.SaveAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *AddressService) Delete(ctx context.Context, userID, addressID uint) error {
	if _, err := s.getOwned(ctx, userID, addressID); err != nil {
		return err
	}
	return s.Repo.DeleteAddress(ctx, addressID)
}

func (s *AddressService) SetDefault(ctx context.Context, userID, addressID uint) error {
	err := s.Repo.SetDefaultAddress(ctx, userID, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: address %d", ErrNotFound, addressID)
	}
	return err
}

func (s *AddressService) getOwned(ctx context.Context, userID, addressID uint) (*models.Address, error) {
	address, err := s.Repo.GetAddress(ctx, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: address %d", ErrNotFound, addressID)
	}
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, fmt.Errorf("%w: not your address", ErrUnauthorized)
	}
	return address, nil
}
