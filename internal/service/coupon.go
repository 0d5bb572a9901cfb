package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/repo"
)

type CouponService struct {
	Repo *repo.GormRepo

	// Now is swappable for window tests; defaults to time.Now.
	Now func() time.Time
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IsAvailable reports whether a coupon can be applied at all: it must be
// active and either open-ended or not yet past its validity date.
func (s *CouponService) IsAvailable(coupon *models.Coupon) bool {
	if !coupon.Active {
		return false
	}
	return coupon.ValidUntil == nil || !coupon.ValidUntil.Before(s.now())
}

// DiscountAmount computes the discount for a subtotal. Eligibility gating is
// the caller's concern; below the minimum purchase the discount is simply 0.
func (s *CouponService) DiscountAmount(coupon *models.Coupon, subtotal int64) int64 {
	if subtotal < coupon.MinPurchaseAmount {
		return 0
	}

	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount := subtotal * coupon.Value / 100
		if coupon.MaxDiscountAmount > 0 && discount > coupon.MaxDiscountAmount {
			discount = coupon.MaxDiscountAmount
		}
		return discount
	case models.DiscountFixed:
		if coupon.Value > subtotal {
			return subtotal
		}
		return coupon.Value
	default:
		return 0
	}
}

// ApplyToCart attaches a coupon to the account cart. A second apply replaces
// the first; at most one coupon is attached at a time.
func (s *CouponService) ApplyToCart(ctx context.Context, userID uint, code string) (*models.Cart, int64, error) {
	coupon, err := s.Repo.GetCouponByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, fmt.Errorf("%w: coupon %q", ErrNotFound, code)
	}
	if err != nil {
		return nil, 0, err
	}

	uc, err := s.Repo.GetUserCoupon(ctx, userID, coupon.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, fmt.Errorf("%w: coupon not registered", ErrNotFound)
	}
	if err != nil {
		return nil, 0, err
	}
	if uc.Status != models.UserCouponAvailable {
		return nil, 0, fmt.Errorf("%w: coupon already %s", ErrNotApplicable, uc.Status)
	}

	if !s.IsAvailable(coupon) {
		return nil, 0, fmt.Errorf("%w: coupon inactive or expired", ErrNotApplicable)
	}

	cart, err := s.Repo.FindOrCreateCart(ctx, &userID, nil)
	if err != nil {
		return nil, 0, err
	}
	if cart.TotalPrice < coupon.MinPurchaseAmount {
		return nil, 0, fmt.Errorf("%w: minimum purchase %d not met", ErrNotApplicable, coupon.MinPurchaseAmount)
	}

	if err := s.Repo.AttachCoupon(ctx, cart.ID, coupon.ID); err != nil {
		return nil, 0, err
	}
	cart.CouponID = &coupon.ID

	return cart, s.DiscountAmount(coupon, cart.TotalPrice), nil
}

func (s *CouponService) RemoveFromCart(ctx context.Context, userID uint) error {
	cart, err := s.Repo.FindCart(ctx, &userID, nil)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: cart", ErrNotFound)
	}
	if err != nil {
		return err
	}
	return s.Repo.DetachCoupon(ctx, cart.ID)
}

// Register issues the redeemable instance of a coupon to an account. One
// instance per (account, coupon); a second registration is rejected.
func (s *CouponService) Register(ctx context.Context, userID uint, code string) (*models.UserCoupon, error) {
	coupon, err := s.Repo.GetCouponByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: coupon %q", ErrNotFound, code)
	}
	if err != nil {
		return nil, err
	}

	if !s.IsAvailable(coupon) {
		return nil, fmt.Errorf("%w: coupon inactive or expired", ErrNotApplicable)
	}

	if _, err := s.Repo.GetUserCoupon(ctx, userID, coupon.ID); err == nil {
		return nil, fmt.Errorf("%w: coupon already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	uc := &models.UserCoupon{
		UserID:   userID,
		CouponID: coupon.ID,
		Status:   models.UserCouponAvailable,
		IssuedAt: s.now().UTC(),
	}
	if err := s.Repo.CreateUserCoupon(ctx, uc); err != nil {
		return nil, err
	}
	return uc, nil
}

func (s *CouponService) ListMine(ctx context.Context, userID uint) ([]models.UserCoupon, error) {
	if err := s.Repo.ExpireUserCoupons(ctx, userID, s.now()); err != nil {
		return nil, err
	}
	return s.Repo.ListUserCoupons(ctx, userID)
}
