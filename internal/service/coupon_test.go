package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/repo"
)

func newCouponService(t *testing.T) *CouponService {
	t.Helper()
	return &CouponService{Repo: newTestRepo(t)}
}

func createCoupon(t *testing.T, r *repo.GormRepo, c *models.Coupon) *models.Coupon {
	t.Helper()
	require.NoError(t, r.CreateCoupon(context.Background(), c))
	return c
}

func TestDiscountAmount_PercentageWithCap(t *testing.T) {
	t.Parallel()

	svc := newCouponService(t)
	coupon := &models.Coupon{
		DiscountType:      models.DiscountPercentage,
		Value:             10,
		MaxDiscountAmount: 5000,
	}

	assert.Equal(t, int64(5000), svc.DiscountAmount(coupon, 100000), "cap applied")
	assert.Equal(t, int64(3000), svc.DiscountAmount(coupon, 30000), "cap not reached")
}

func TestDiscountAmount_BelowMinimumIsZero(t *testing.T) {
	t.Parallel()

	svc := newCouponService(t)
	coupon := &models.Coupon{
		DiscountType:      models.DiscountPercentage,
		Value:             10,
		MinPurchaseAmount: 30000,
	}

	assert.Zero(t, svc.DiscountAmount(coupon, 29999))
	assert.Equal(t, int64(3000), svc.DiscountAmount(coupon, 30000))
}

func TestDiscountAmount_FixedCappedAtSubtotal(t *testing.T) {
	t.Parallel()

	svc := newCouponService(t)
	coupon := &models.Coupon{DiscountType: models.DiscountFixed, Value: 5000}

	assert.Equal(t, int64(5000), svc.DiscountAmount(coupon, 20000))
	assert.Equal(t, int64(3000), svc.DiscountAmount(coupon, 3000), "never negative payable")
}

func TestIsAvailable(t *testing.T) {
	t.Parallel()

	svc := newCouponService(t)
	svc.Now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }

	past := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, svc.IsAvailable(&models.Coupon{Active: true}))
	assert.True(t, svc.IsAvailable(&models.Coupon{Active: true, ValidUntil: &future}))
	assert.False(t, svc.IsAvailable(&models.Coupon{Active: true, ValidUntil: &past}))
	assert.False(t, svc.IsAvailable(&models.Coupon{Active: false}))
}

func TestApplyToCart_MinPurchaseGate(t *testing.T) {
	t.Parallel()

	svc := newCouponService(t)
	carts := &CartService{Repo: svc.Repo}
	ctx := context.Background()
	const userID = uint(11)

	coupon := createCoupon(t, svc.Repo, &models.Coupon{
		Code:              "WELCOME10",
		Name:              "신규가입 10%",
		DiscountType:      models.DiscountPercentage,
		Value:             10,
		MinPurchaseAmount: 30000,
		Active:            true,
	})
	_, err := svc.Register(ctx, userID, coupon.Code)
	require.NoError(t, err)

	p := createProduct(t, svc.Repo, "정기검진 키트", 10000, 10)
	_, err = carts.AddItem(ctx, userOwner(userID), p.ID, 1)
	require.NoError(t, err)

	_, _, err = svc.ApplyToCart(ctx, userID, coupon.Code)
	require.ErrorIs(t, err, ErrNotApplicable)

	_, err = carts.AddItem(ctx, userOwner(userID), p.ID, 2)
	require.NoError(t, err)

	cart, discount, err := svc.ApplyToCart(ctx, userID, coupon.Code)
	require.NoError(t, err)
	require.NotNil(t, cart.CouponID)
	assert.Equal(t, coupon.ID, *cart.CouponID)
	assert.Equal(t, int64(3000), discount)
}

func TestApplyToCart_SecondCouponReplacesFirst(t *testing.T) {
	t.Parallel()

	svc := newCouponService(t)
	carts := &CartService{Repo: svc.Repo}
	ctx := context.Background()
	const userID = uint(12)

	first := createCoupon(t, svc.Repo, &models.Coupon{
		Code: "FIRST", Name: "첫번째", DiscountType: models.DiscountFixed, Value: 1000, Active: true,
	})
	second := createCoupon(t, svc.Repo, &models.Coupon{
		Code: "SECOND", Name: "두번째", DiscountType: models.DiscountFixed, Value: 2000, Active: true,
	})
	_, err := svc.Register(ctx, userID, first.Code)
	require.NoError(t, err)
	_, err = svc.Register(ctx, userID, second.Code)
	require.NoError(t, err)

	p := createProduct(t, svc.Repo, "스케일링 예약권", 50000, 3)
	_, err = carts.AddItem(ctx, userOwner(userID), p.ID, 1)
	require.NoError(t, err)

	_, _, err = svc.ApplyToCart(ctx, userID, first.Code)
	require.NoError(t, err)
	cart, _, err := svc.ApplyToCart(ctx, userID, second.Code)
	require.NoError(t, err)

	require.NotNil(t, cart.CouponID)
	assert.Equal(t, second.ID, *cart.CouponID)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	t.Parallel()

	svc := newCouponService(t)
	ctx := context.Background()

	coupon := createCoupon(t, svc.Repo, &models.Coupon{
		Code: "ONCE", Name: "1회 등록", DiscountType: models.DiscountFixed, Value: 500, Active: true,
	})

	_, err := svc.Register(ctx, 21, coupon.Code)
	require.NoError(t, err)
	_, err = svc.Register(ctx, 21, coupon.Code)
	require.ErrorIs(t, err, ErrConflict)

	// A different account can still register the same coupon.
	_, err = svc.Register(ctx, 22, coupon.Code)
	require.NoError(t, err)
}

func TestRegister_InactiveCoupon(t *testing.T) {
	t.Parallel()

	svc := newCouponService(t)
	ctx := context.Background()

	coupon := createCoupon(t, svc.Repo, &models.Coupon{
		Code: "DEAD", Name: "중지된 쿠폰", DiscountType: models.DiscountFixed, Value: 500, Active: false,
	})

	_, err := svc.Register(ctx, 31, coupon.Code)
	require.ErrorIs(t, err, ErrNotApplicable)
}
