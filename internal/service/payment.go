package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/events"
	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/payment"
	"github.com/hanseol/dental_shop/internal/repo"
)

type PaymentService struct {
	Repo      *repo.GormRepo
	Gateway   payment.Gateway
	Publisher events.Publisher

	Now func() time.Time
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type PreparedPayment struct {
	OrderNo string `json:"order_no"`
	Amount  int64  `json:"amount"`
}

// Prepare hands the client widget the identifier and amount it must authorize.
func (s *PaymentService) Prepare(ctx context.Context, userID *uint, orderNo string) (*PreparedPayment, error) {
	order, err := s.getOwnedOrder(ctx, userID, orderNo)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: order is %s", ErrConflict, order.Status)
	}
	return &PreparedPayment{OrderNo: order.OrderNo, Amount: order.TotalAmount}, nil
}

// Confirm captures the authorized payment. A gateway failure leaves the order
// pending and retryable; success flips it to preparing, consumes the applied
// coupon and clears the buyer's cart in one transaction.
func (s *PaymentService) Confirm(ctx context.Context, owner Owner, paymentKey, orderNo string, amount int64) (*models.Order, error) {
	if paymentKey == "" {
		return nil, fmt.Errorf("%w: payment key required", ErrValidation)
	}

	order, err := s.getOwnedOrder(ctx, owner.UserID, orderNo)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: order is %s", ErrConflict, order.Status)
	}
	if amount != order.TotalAmount {
		return nil, fmt.Errorf("%w: amount %d does not match order total %d", ErrValidation, amount, order.TotalAmount)
	}

	conf, err := s.Gateway.Confirm(ctx, paymentKey, orderNo, amount)
	if err != nil {
		// The order stays pending so the buyer can retry.
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	var cartID *uint
	if cart, err := s.Repo.FindCart(ctx, owner.UserID, owner.GuestToken); err == nil {
		cartID = &cart.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	paidAt := s.now().UTC()
	if err := s.Repo.ConfirmPayment(ctx, order.ID, conf.PaymentKey, conf.Method, paidAt, order.UserCouponID, cartID); err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusPreparing
	order.PaymentKey = conf.PaymentKey
	order.PaymentMethod = conf.Method
	order.PaidAt = &paidAt

	s.publishPaid(ctx, order)
	return order, nil
}

func (s *PaymentService) getOwnedOrder(ctx context.Context, userID *uint, orderNo string) (*models.Order, error) {
	if orderNo == "" {
		return nil, fmt.Errorf("%w: order number required", ErrValidation)
	}

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

// publishPaid carries line quantities so the fulfillment consumer can adjust
// inventory; this service never decrements stock itself.
func (s *PaymentService) publishPaid(ctx context.Context, order *models.Order) {
	if s.Publisher == nil {
		return
	}

	lines := make([]map[string]any, 0, len(order.Items))
	for i := range order.Items {
		lines = append(lines, map[string]any{
			"product_id": order.Items[i].ProductID,
			"quantity":   order.Items[i].Quantity,
		})
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = s.Publisher.Publish(pubCtx, events.TopicOrderEvents, order.OrderNo, map[string]any{
		"type":         "order_paid",
		"order_no":     order.OrderNo,
		"total_amount": order.TotalAmount,
		"items":        lines,
	})
}
