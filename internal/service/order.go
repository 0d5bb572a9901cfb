package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/events"
	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/payment"
	"github.com/hanseol/dental_shop/internal/repo"
)

const (
	FreeShippingThreshold = 30000
	ShippingFee           = 3000

	refundWindow = 30 * 24 * time.Hour
)

// statusTransitions is the forward-only order state machine plus the
// cancel and refund branches.
var statusTransitions = map[string][]string{
	models.OrderStatusPending:         {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing:       {models.OrderStatusShipping, models.OrderStatusCancelled},
	models.OrderStatusShipping:        {models.OrderStatusDelivered},
	models.OrderStatusDelivered:       {models.OrderStatusRefundRequested},
	models.OrderStatusRefundRequested: {models.OrderStatusRefunded},
}

func canTransition(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type CustomerInfo struct {
	Name  string
	Phone string
	Email string
}

type ShippingInfo struct {
	Recipient string
	Address1  string
	Address2  string
	ZipCode   string
	Note      string
}

type OrderService struct {
	Repo      *repo.GormRepo
	Coupons   *CouponService
	Gateway   payment.Gateway
	Publisher events.Publisher

	Now func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Checkout snapshots the owner's cart into an immutable pending order. The
// cart itself is untouched; it is cleared only after payment confirmation.
func (s *OrderService) Checkout(ctx context.Context, owner Owner, customer CustomerInfo, shipping ShippingInfo) (*models.Order, error) {
	if !owner.valid() {
		return nil, fmt.Errorf("%w: cart owner required", ErrValidation)
	}
	if customer.Name == "" || customer.Phone == "" {
		return nil, fmt.Errorf("%w: customer name and phone required", ErrValidation)
	}
	if shipping.Recipient == "" || shipping.Address1 == "" || shipping.ZipCode == "" {
		return nil, fmt.Errorf("%w: shipping recipient, address and zip code required", ErrValidation)
	}

	cart, err := s.Repo.FindCart(ctx, owner.UserID, owner.GuestToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no cart", ErrEmptyCart)
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: no line items", ErrEmptyCart)
	}

	var subtotal int64
	orderItems := make([]models.OrderItem, 0, len(cart.Items))
	for i := range cart.Items {
		line := &cart.Items[i]
		product, err := s.Repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal,
		})
		subtotal += line.LineTotal
	}

	var discount int64
	var userCouponID *uint
	if cart.CouponID != nil {
		coupon, err := s.Repo.GetCoupon(ctx, *cart.CouponID)
		if err != nil {
			return nil, err
		}
		if !s.Coupons.IsAvailable(coupon) || subtotal < coupon.MinPurchaseAmount {
			return nil, fmt.Errorf("%w: attached coupon no longer applies", ErrNotApplicable)
		}
		discount = s.Coupons.DiscountAmount(coupon, subtotal)

		if owner.UserID != nil {
			uc, err := s.Repo.GetUserCoupon(ctx, *owner.UserID, coupon.ID)
			if err != nil {
				return nil, err
			}
			if uc.Status != models.UserCouponAvailable {
				return nil, fmt.Errorf("%w: coupon already %s", ErrNotApplicable, uc.Status)
			}
			userCouponID = &uc.ID
		}
	}

	var fee int64
	if subtotal < FreeShippingThreshold {
		fee = ShippingFee
	}

	order := &models.Order{
		OrderNo:        uuid.NewString(),
		UserID:         owner.UserID,
		Status:         models.OrderStatusPending,
		Subtotal:       subtotal,
		CouponDiscount: discount,
		ShippingFee:    fee,
		TotalAmount:    subtotal - discount + fee,
		UserCouponID:   userCouponID,
		CustomerName:   customer.Name,
		CustomerPhone:  customer.Phone,
		CustomerEmail:  customer.Email,
		Recipient:      shipping.Recipient,
		Address1:       shipping.Address1,
		Address2:       shipping.Address2,
		ZipCode:        shipping.ZipCode,
		ShippingNote:   shipping.Note,
		CreatedAt:      s.now().UTC(),
		Items:          orderItems,
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, order, "order_created")
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID *uint, orderNo string) (*models.Order, error) {
	order, err := s.Repo.GetOrderByNo(ctx, orderNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNo)
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != nil && (userID == nil || *order.UserID != *userID) {
		return nil, fmt.Errorf("%w: not your order", ErrUnauthorized)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint, offset, limit int) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, userID, offset, limit)
}

// Cancel is allowed pre-shipment only. A paid order also reverses the capture
// at the gateway before the status flips.
func (s *OrderService) Cancel(ctx context.Context, userID *uint, orderNo, reason string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderNo)
	if err != nil {
		return nil, err
	}
	return s.cancelOrder(ctx, order, reason)
}

// cancelOrder reverses a captured payment (if any) and settles the cancelled
// status. Shared by the buyer's cancel and the admin status endpoint so a paid
// order never loses its capture reversal.
func (s *OrderService) cancelOrder(ctx context.Context, order *models.Order, reason string) (*models.Order, error) {
	if !canTransition(order.Status, models.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s order", ErrConflict, order.Status)
	}

	if order.PaymentKey != "" {
		if err := s.Gateway.Cancel(ctx, order.PaymentKey, reason); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
	}

	now := s.now().UTC()
	fields := map[string]any{"status": models.OrderStatusCancelled, "cancelled_at": now}
	if err := s.Repo.UpdateOrderStatus(ctx, order.ID, fields); err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now

	s.publish(ctx, order, "order_cancelled")
	return order, nil
}

// RequestRefund opens the refund branch. Only delivered orders qualify, and
// only within 30 days of delivery; the window is checked here, not stored.
func (s *OrderService) RequestRefund(ctx context.Context, userID *uint, orderNo string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderNo)
	if err != nil {
		return nil, err
	}
	if !canTransition(order.Status, models.OrderStatusRefundRequested) {
		return nil, fmt.Errorf("%w: cannot refund a %s order", ErrConflict, order.Status)
	}
	if order.DeliveredAt == nil || s.now().Sub(*order.DeliveredAt) > refundWindow {
		return nil, fmt.Errorf("%w: refund window closed", ErrNotApplicable)
	}

	if err := s.Repo.UpdateOrderStatus(ctx, order.ID, map[string]any{"status": models.OrderStatusRefundRequested}); err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusRefundRequested
	return order, nil
}

// CompleteRefund moves the money back through the gateway, then settles the
// status. Admin-driven.
func (s *OrderService) CompleteRefund(ctx context.Context, orderNo, reason string) (*models.Order, error) {
	order, err := s.Repo.GetOrderByNo(ctx, orderNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNo)
	}
	if err != nil {
		return nil, err
	}
	if !canTransition(order.Status, models.OrderStatusRefunded) {
		return nil, fmt.Errorf("%w: order is %s", ErrConflict, order.Status)
	}

	if order.PaymentKey != "" {
		if err := s.Gateway.Cancel(ctx, order.PaymentKey, reason); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
	}

	if err := s.Repo.UpdateOrderStatus(ctx, order.ID, map[string]any{"status": models.OrderStatusRefunded}); err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusRefunded

	s.publish(ctx, order, "order_refunded")
	return order, nil
}

// UpdateStatus drives the fulfillment path (admin). Cancellation goes through
// the same reversal logic as the buyer's cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, orderNo, to string) (*models.Order, error) {
	order, err := s.Repo.GetOrderByNo(ctx, orderNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNo)
	}
	if err != nil {
		return nil, err
	}
	if to == models.OrderStatusCancelled {
		return s.cancelOrder(ctx, order, "관리자 취소")
	}
	if !canTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s not allowed", ErrConflict, order.Status, to)
	}

	fields := map[string]any{"status": to}
	if to == models.OrderStatusDelivered {
		now := s.now().UTC()
		fields["delivered_at"] = now
		order.DeliveredAt = &now
	}
	if err := s.Repo.UpdateOrderStatus(ctx, order.ID, fields); err != nil {
		return nil, err
	}
	order.Status = to
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, order *models.Order, eventType string) {
	if s.Publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = s.Publisher.Publish(pubCtx, events.TopicOrderEvents, order.OrderNo, map[string]any{
		"type":         eventType,
		"order_no":     order.OrderNo,
		"total_amount": order.TotalAmount,
		"status":       order.Status,
	})
}
