package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrderByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uint, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, orderID uint, fields map[string]any) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).Updates(fields).Error
}

// ConfirmPayment records the gateway approval and performs the paid side
// effects in one transaction: order moves to preparing, the applied user
// coupon is consumed and the buyer's cart is emptied.
func (r *GormRepo) ConfirmPayment(ctx context.Context, orderID uint, paymentKey, method string, paidAt time.Time, userCouponID, cartID *uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Order{}).Where("id = ?", orderID).
			Updates(map[string]any{
				"status":         models.OrderStatusPreparing,
				"payment_key":    paymentKey,
				"payment_method": method,
				"paid_at":        paidAt,
			}).Error
		if err != nil {
			return err
		}

		if userCouponID != nil {
			err := tx.Model(&models.UserCoupon{}).Where("id = ?", *userCouponID).
				Updates(map[string]any{"status": models.UserCouponUsed, "used_at": paidAt}).Error
			if err != nil {
				return err
			}
		}

		if cartID != nil {
			return clearCart(tx, *cartID)
		}
		return nil
	})
}
