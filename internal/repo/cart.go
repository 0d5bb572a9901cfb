package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/models"
)

// FindOrCreateCart resolves the cart for an owner, creating an empty one on
// first touch. Exactly one of userID / guestToken must be set.
func (r *GormRepo) FindOrCreateCart(ctx context.Context, userID *uint, guestToken *string) (*models.Cart, error) {
	q := r.DB.WithContext(ctx).Preload("Items")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	} else {
		q = q.Where("guest_token = ?", *guestToken)
	}

	var cart models.Cart
	err := q.First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID, GuestToken: guestToken}
	if err := r.DB.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) FindCart(ctx context.Context, userID *uint, guestToken *string) (*models.Cart, error) {
	q := r.DB.WithContext(ctx).Preload("Items")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	} else {
		q = q.Where("guest_token = ?", *guestToken)
	}

	var cart models.Cart
	if err := q.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpsertCartItem adds quantity to an existing line (clamped to stock) or
// creates a new line with a price snapshot, then recomputes cart totals.
func (r *GormRepo) UpsertCartItem(ctx context.Context, cartID uint, product *models.Product, quantity uint) (*models.CartItem, error) {
	var out models.CartItem

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		err := tx.Where("cart_id = ? AND product_id = ?", cartID, product.ID).First(&item).Error
		switch {
		case err == nil:
			newQty := item.Quantity + quantity
			if newQty > product.Stock {
				newQty = product.Stock
			}
			item.Quantity = newQty
			item.LineTotal = item.UnitPrice * int64(newQty)
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			var discount int64
			if product.OriginalPrice > product.Price {
				discount = product.OriginalPrice - product.Price
			}
			item = models.CartItem{
				CartID:    cartID,
				ProductID: product.ID,
				Quantity:  quantity,
				UnitPrice: product.Price,
				Discount:  discount,
				LineTotal: product.Price * int64(quantity),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := recomputeTotals(tx, cartID); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GormRepo) UpdateItemQuantity(ctx context.Context, cartID, productID uint, quantity uint) (*models.CartItem, error) {
	var out models.CartItem

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		if err := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
			return err
		}
		item.Quantity = quantity
		item.LineTotal = item.UnitPrice * int64(quantity)
		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		if err := recomputeTotals(tx, cartID); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveItems deletes the given product lines and recomputes totals. The batch
// is all-or-nothing: if any requested product has no line in the cart the
// transaction rolls back with ErrRecordNotFound.
func (r *GormRepo) RemoveItems(ctx context.Context, cartID uint, productIDs []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("cart_id = ? AND product_id IN ?", cartID, productIDs).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(productIDs)) {
			return gorm.ErrRecordNotFound
		}
		return recomputeTotals(tx, cartID)
	})
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return clearCart(tx, cartID)
	})
}

func clearCart(tx *gorm.DB, cartID uint) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Model(&models.Cart{}).Where("id = ?", cartID).
		Updates(map[string]any{"coupon_id": nil, "item_count": 0, "total_price": 0}).Error
}

func (r *GormRepo) AttachCoupon(ctx context.Context, cartID, couponID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cartID).
		Update("coupon_id", couponID).Error
}

func (r *GormRepo) DetachCoupon(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cartID).
		Update("coupon_id", nil).Error
}

// MergeCarts folds every guest line into the account cart and deletes the
// guest cart, all in one transaction. Quantities are clamped to current stock
// when both carts hold the same product; otherwise the guest line is
// re-parented rather than copied.
func (r *GormRepo) MergeCarts(ctx context.Context, guestCartID, userCartID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var guestItems []models.CartItem
		if err := tx.Where("cart_id = ?", guestCartID).Find(&guestItems).Error; err != nil {
			return err
		}

		for i := range guestItems {
			gi := &guestItems[i]

			var existing models.CartItem
			err := tx.Where("cart_id = ? AND product_id = ?", userCartID, gi.ProductID).First(&existing).Error
			switch {
			case err == nil:
				var product models.Product
				if err := tx.First(&product, gi.ProductID).Error; err != nil {
					return err
				}
				newQty := existing.Quantity + gi.Quantity
				if newQty > product.Stock {
					newQty = product.Stock
				}
				existing.Quantity = newQty
				existing.LineTotal = existing.UnitPrice * int64(newQty)
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				if err := tx.Delete(gi).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Model(gi).Update("cart_id", userCartID).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}

		if err := recomputeTotals(tx, userCartID); err != nil {
			return err
		}
		return tx.Delete(&models.Cart{}, guestCartID).Error
	})
}

// recomputeTotals rewrites the cart aggregates from its lines. Must run inside
// the same transaction as the line mutation so no request observes a
// half-updated cart.
func recomputeTotals(tx *gorm.DB, cartID uint) error {
	var items []models.CartItem
	if err := tx.Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		return err
	}

	var count uint
	var total int64
	for i := range items {
		count += items[i].Quantity
		total += items[i].LineTotal
	}

	return tx.Model(&models.Cart{}).Where("id = ?", cartID).
		Updates(map[string]any{"item_count": count, "total_price": total}).Error
}
