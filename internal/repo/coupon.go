package repo

import (
	"context"
	"time"

	"github.com/hanseol/dental_shop/internal/models"
)

func (r *GormRepo) GetCoupon(ctx context.Context, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB.WithContext(ctx).First(&coupon, id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormRepo) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormRepo) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	return r.DB.WithContext(ctx).Create(coupon).Error
}

func (r *GormRepo) CreateUserCoupon(ctx context.Context, uc *models.UserCoupon) error {
	return r.DB.WithContext(ctx).Create(uc).Error
}

func (r *GormRepo) GetUserCoupon(ctx context.Context, userID, couponID uint) (*models.UserCoupon, error) {
	var uc models.UserCoupon
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND coupon_id = ?", userID, couponID).
		First(&uc).Error
	if err != nil {
		return nil, err
	}
	return &uc, nil
}

func (r *GormRepo) ListUserCoupons(ctx context.Context, userID uint) ([]models.UserCoupon, error) {
	var ucs []models.UserCoupon
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&ucs).Error
	if err != nil {
		return nil, err
	}
	return ucs, nil
}

// ExpireUserCoupons flips available instances of inactive or expired coupons.
func (r *GormRepo) ExpireUserCoupons(ctx context.Context, userID uint, now time.Time) error {
	return r.DB.WithContext(ctx).
		Model(&models.UserCoupon{}).
		Where("user_id = ? AND status = ?", userID, models.UserCouponAvailable).
		Where("coupon_id IN (?)", r.DB.Model(&models.Coupon{}).Select("id").
			Where("active = ? OR (valid_until IS NOT NULL AND valid_until < ?)", false, now)).
		Update("status", models.UserCouponExpired).Error
}
