package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/payment"
)

type fakeGateway struct {
	confirmErr error
	cancelErr  error
	cancelled  []string
	method     string
}

func (g *fakeGateway) Confirm(_ context.Context, paymentKey, orderNo string, amount int64) (*payment.Confirmation, error) {
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	method := g.method
	if method == "" {
		method = "카드"
	}
	return &payment.Confirmation{
		PaymentKey:  paymentKey,
		OrderID:     orderNo,
		Method:      method,
		TotalAmount: amount,
	}, nil
}

func (g *fakeGateway) Cancel(_ context.Context, paymentKey, _ string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, paymentKey)
	return nil
}

var (
	testCustomer = CustomerInfo{Name: "김민지", Phone: "010-1234-5678", Email: "minji@example.com"}
	testShipping = ShippingInfo{Recipient: "김민지", Address1: "서울시 강남구 테헤란로 1", ZipCode: "06234"}
)

func newOrderService(t *testing.T) (*OrderService, *CartService, *fakeGateway) {
	t.Helper()
	r := newTestRepo(t)
	gw := &fakeGateway{}
	coupons := &CouponService{Repo: r}
	orders := &OrderService{Repo: r, Coupons: coupons, Gateway: gw, Publisher: &stubPublisher{}}
	carts := &CartService{Repo: r, Locker: newStubLocker()}
	return orders, carts, gw
}

func TestCheckout_EmptyCart(t *testing.T) {
	t.Parallel()

	orders, _, _ := newOrderService(t)

	_, err := orders.Checkout(context.Background(), guestOwner("guest-empty"), testCustomer, testShipping)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_WorkedExample(t *testing.T) {
	t.Parallel()

	orders, carts, _ := newOrderService(t)
	ctx := context.Background()
	owner := guestOwner("guest-example")

	a := createProduct(t, orders.Repo, "칫솔 세트", 18900, 10)
	b := createProduct(t, orders.Repo, "치약 3개입", 16900, 5)

	_, err := carts.AddItem(ctx, owner, a.ID, 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, owner, b.ID, 1)
	require.NoError(t, err)

	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	assert.Equal(t, int64(54700), order.Subtotal)
	assert.Zero(t, order.ShippingFee, "free shipping at or above 30000")
	assert.Equal(t, int64(54700), order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.NotEmpty(t, order.OrderNo)
}

func TestCheckout_ShippingFeeBelowThreshold(t *testing.T) {
	t.Parallel()

	orders, carts, _ := newOrderService(t)
	ctx := context.Background()
	owner := guestOwner("guest-fee")

	p := createProduct(t, orders.Repo, "치실", 5000, 10)
	_, err := carts.AddItem(ctx, owner, p.ID, 2)
	require.NoError(t, err)

	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), order.Subtotal)
	assert.Equal(t, int64(ShippingFee), order.ShippingFee)
	assert.Equal(t, int64(13000), order.TotalAmount)
}

func TestCheckout_FreezesLineSnapshots(t *testing.T) {
	t.Parallel()

	orders, carts, _ := newOrderService(t)
	ctx := context.Background()
	owner := guestOwner("guest-frozen")

	p := createProduct(t, orders.Repo, "미백 키트", 45000, 3)
	_, err := carts.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)

	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	// Catalog price changes must not reach the materialized order.
	p.Price = 99000
	p.Name = "미백 키트 리뉴얼"
	require.NoError(t, orders.Repo.SaveProduct(ctx, p))

	reloaded, err := orders.Repo.GetOrderByNo(ctx, order.OrderNo)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, int64(45000), reloaded.Items[0].UnitPrice)
	assert.Equal(t, "미백 키트", reloaded.Items[0].ProductName)

	// Checkout leaves the cart untouched until payment confirmation.
	cart, err := carts.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCheckout_CouponApplied(t *testing.T) {
	t.Parallel()

	orders, carts, _ := newOrderService(t)
	ctx := context.Background()
	const userID = uint(41)
	owner := userOwner(userID)

	coupon := &models.Coupon{
		Code: "SAVE10", Name: "10% 할인",
		DiscountType: models.DiscountPercentage, Value: 10,
		MaxDiscountAmount: 5000, Active: true,
	}
	require.NoError(t, orders.Repo.CreateCoupon(ctx, coupon))
	_, err := orders.Coupons.Register(ctx, userID, coupon.Code)
	require.NoError(t, err)

	p := createProduct(t, orders.Repo, "전동칫솔", 100000, 5)
	_, err = carts.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)
	_, _, err = orders.Coupons.ApplyToCart(ctx, userID, coupon.Code)
	require.NoError(t, err)

	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	assert.Equal(t, int64(100000), order.Subtotal)
	assert.Equal(t, int64(5000), order.CouponDiscount, "percentage capped")
	assert.Equal(t, int64(95000), order.TotalAmount)
	require.NotNil(t, order.UserCouponID)
}

func TestCancel_AllowedPreShipmentOnly(t *testing.T) {
	t.Parallel()

	orders, carts, gw := newOrderService(t)
	ctx := context.Background()
	owner := guestOwner("guest-cancel")

	p := createProduct(t, orders.Repo, "가글", 7000, 10)
	_, err := carts.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)

	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	cancelled, err := orders.Cancel(ctx, nil, order.OrderNo, "단순 변심")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Empty(t, gw.cancelled, "unpaid order needs no gateway call")

	_, err = orders.Cancel(ctx, nil, order.OrderNo, "again")
	require.ErrorIs(t, err, ErrConflict)
}

func TestCancel_PaidOrderReversesCapture(t *testing.T) {
	t.Parallel()

	orders, carts, gw := newOrderService(t)
	ctx := context.Background()
	owner := guestOwner("guest-cancel-paid")

	p := createProduct(t, orders.Repo, "치간칫솔", 4000, 10)
	_, err := carts.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)

	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	payments := &PaymentService{Repo: orders.Repo, Gateway: gw}
	_, err = payments.Confirm(ctx, owner, "pay_key_123", order.OrderNo, order.TotalAmount)
	require.NoError(t, err)

	cancelled, err := orders.Cancel(ctx, nil, order.OrderNo, "배송 전 취소")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, []string{"pay_key_123"}, gw.cancelled)
}

func TestUpdateStatus_CancelReversesPaidCapture(t *testing.T) {
	t.Parallel()

	orders, carts, gw := newOrderService(t)
	ctx := context.Background()
	owner := guestOwner("guest-admin-cancel")

	p := createProduct(t, orders.Repo, "구강 세정기", 80000, 5)
	_, err := carts.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)
	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	payments := &PaymentService{Repo: orders.Repo, Gateway: gw}
	_, err = payments.Confirm(ctx, owner, "pay_key_admin", order.OrderNo, order.TotalAmount)
	require.NoError(t, err)

	cancelled, err := orders.UpdateStatus(ctx, order.OrderNo, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, []string{"pay_key_admin"}, gw.cancelled, "capture must be reversed")

	reloaded, err := orders.Repo.GetOrderByNo(ctx, order.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, reloaded.Status)
	require.NotNil(t, reloaded.CancelledAt)
}

func TestStatusMachine(t *testing.T) {
	t.Parallel()

	orders, carts, _ := newOrderService(t)
	ctx := context.Background()
	owner := guestOwner("guest-status")

	p := createProduct(t, orders.Repo, "구강 스프레이", 6000, 10)
	_, err := carts.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)
	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	_, err = orders.UpdateStatus(ctx, order.OrderNo, models.OrderStatusShipping)
	require.ErrorIs(t, err, ErrConflict, "pending cannot jump to shipping")

	for _, to := range []string{models.OrderStatusPreparing, models.OrderStatusShipping, models.OrderStatusDelivered} {
		order, err = orders.UpdateStatus(ctx, order.OrderNo, to)
		require.NoError(t, err)
		assert.Equal(t, to, order.Status)
	}
	require.NotNil(t, order.DeliveredAt)

	_, err = orders.Cancel(ctx, nil, order.OrderNo, "too late")
	require.ErrorIs(t, err, ErrConflict, "cancel only pre-shipment")
}

func TestRefundWindow(t *testing.T) {
	t.Parallel()

	orders, carts, _ := newOrderService(t)
	ctx := context.Background()
	owner := guestOwner("guest-refund")

	p := createProduct(t, orders.Repo, "잇몸 영양제", 25000, 10)
	_, err := carts.AddItem(ctx, owner, p.ID, 2)
	require.NoError(t, err)
	order, err := orders.Checkout(ctx, owner, testCustomer, testShipping)
	require.NoError(t, err)

	for _, to := range []string{models.OrderStatusPreparing, models.OrderStatusShipping, models.OrderStatusDelivered} {
		order, err = orders.UpdateStatus(ctx, order.OrderNo, to)
		require.NoError(t, err)
	}
	deliveredAt := *order.DeliveredAt

	orders.Now = func() time.Time { return deliveredAt.Add(31 * 24 * time.Hour) }
	_, err = orders.RequestRefund(ctx, nil, order.OrderNo)
	require.ErrorIs(t, err, ErrNotApplicable, "30-day window closed")

	orders.Now = func() time.Time { return deliveredAt.Add(5 * 24 * time.Hour) }
	order, err = orders.RequestRefund(ctx, nil, order.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefundRequested, order.Status)

	order, err = orders.CompleteRefund(ctx, order.OrderNo, "고객 요청")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, order.Status)
}
