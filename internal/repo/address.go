package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/models"
)

func (r *GormRepo) CreateAddress(ctx context.Context, address *models.Address) error {
	return r.DB.WithContext(ctx).Create(address).Error
}

func (r *GormRepo) GetAddress(ctx context.Context, id uint) (*models.Address, error) {
	var address models.Address
	if err := r.DB.WithContext(ctx).First(&address, id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *GormRepo) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *GormRepo) SaveAddress(ctx context.Context, address *models.Address) error {
	return r.DB.WithContext(ctx).Save(address).Error
}

func (r *GormRepo) DeleteAddress(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Address{}, id).Error
}

// SetDefaultAddress clears every other default flag for the owner and sets the
// target, in one transaction.
func (r *GormRepo) SetDefaultAddress(ctx context.Context, userID, addressID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Address{}).
			Where("user_id = ? AND id <> ?", userID, addressID).
			Update("is_default", false).Error
		if err != nil {
			return err
		}

		res := tx.Model(&models.Address{}).
			Where("user_id = ? AND id = ?", userID, addressID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
