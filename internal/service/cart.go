package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/events"
	"github.com/hanseol/dental_shop/internal/lock"
	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/repo"
)

// Owner identifies whose cart a request operates on. Exactly one field is set:
// UserID for authenticated requests, GuestToken for anonymous ones.
type Owner struct {
	UserID     *uint
	GuestToken *string
}

func (o Owner) valid() bool {
	return (o.UserID != nil) != (o.GuestToken != nil)
}

func (o Owner) key() string {
	if o.UserID != nil {
		return fmt.Sprintf("user:%d", *o.UserID)
	}
	return "guest:" + *o.GuestToken
}

const mergeLockTTL = 10 * time.Second

type CartService struct {
	Repo      *repo.GormRepo
	Locker    lock.Locker
	Publisher events.Publisher
}

func (s *CartService) GetCart(ctx context.Context, owner Owner) (*models.Cart, error) {
	if !owner.valid() {
		return nil, fmt.Errorf("%w: cart owner required", ErrValidation)
	}
	return s.Repo.FindOrCreateCart(ctx, owner.UserID, owner.GuestToken)
}

// AddItem puts quantity of a product into the owner's cart. A line that
// already exists grows by quantity, clamped to stock; a new line snapshots the
// product's current price and discount.
func (s *CartService) AddItem(ctx context.Context, owner Owner, productID uint, quantity uint) (*models.CartItem, error) {
	if !owner.valid() {
		return nil, fmt.Errorf("%w: cart owner required", ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, fmt.Errorf("%w: requested %d, stock %d", ErrOutOfStock, quantity, product.Stock)
	}

	cart, err := s.Repo.FindOrCreateCart(ctx, owner.UserID, owner.GuestToken)
	if err != nil {
		return nil, err
	}

	item, err := s.Repo.UpsertCartItem(ctx, cart.ID, product, quantity)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, owner, map[string]any{
		"type":       "cart_item_added",
		"product_id": productID,
		"quantity":   item.Quantity,
	})
	return item, nil
}

// UpdateQuantity sets the line quantity outright. Out-of-range requests are
// declined with a typed error so the caller can prompt the user.
func (s *CartService) UpdateQuantity(ctx context.Context, owner Owner, productID uint, quantity uint) (*models.CartItem, error) {
	if !owner.valid() {
		return nil, fmt.Errorf("%w: cart owner required", ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, fmt.Errorf("%w: requested %d, stock %d", ErrOutOfStock, quantity, product.Stock)
	}

	cart, err := s.Repo.FindCart(ctx, owner.UserID, owner.GuestToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	item, err := s.Repo.UpdateItemQuantity(ctx, cart.ID, productID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart line for product %d", ErrNotFound, productID)
	}
	return item, err
}

func (s *CartService) RemoveItem(ctx context.Context, owner Owner, productID uint) error {
	return s.RemoveItems(ctx, owner, []uint{productID})
}

func (s *CartService) RemoveItems(ctx context.Context, owner Owner, productIDs []uint) error {
	if !owner.valid() {
		return fmt.Errorf("%w: cart owner required", ErrValidation)
	}
	if len(productIDs) == 0 {
		return fmt.Errorf("%w: product ids required", ErrValidation)
	}

	cart, err := s.Repo.FindCart(ctx, owner.UserID, owner.GuestToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: cart", ErrNotFound)
	}
	if err != nil {
		return err
	}

	err = s.Repo.RemoveItems(ctx, cart.ID, productIDs)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: no matching cart lines", ErrNotFound)
	}
	return err
}

func (s *CartService) Clear(ctx context.Context, owner Owner) error {
	if !owner.valid() {
		return fmt.Errorf("%w: cart owner required", ErrValidation)
	}

	cart, err := s.Repo.FindCart(ctx, owner.UserID, owner.GuestToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Repo.ClearCart(ctx, cart.ID)
}

// Merge folds the guest cart identified by guestToken into the account cart,
// once, at login. A claim on the guest token keeps a second concurrent login
// from running the merge twice.
func (s *CartService) Merge(ctx context.Context, guestToken string, userID uint) error {
	if guestToken == "" {
		return fmt.Errorf("%w: guest token required", ErrValidation)
	}

	if s.Locker != nil {
		ok, err := s.Locker.Acquire(ctx, "cart_merge:"+guestToken, mergeLockTTL)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: merge already in progress", ErrConflict)
		}
		defer func() { _ = s.Locker.Release(ctx, "cart_merge:"+guestToken) }()
	}

	guestCart, err := s.Repo.FindCart(ctx, nil, &guestToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(guestCart.Items) == 0 {
		return nil
	}

	userCart, err := s.Repo.FindOrCreateCart(ctx, &userID, nil)
	if err != nil {
		return err
	}

	if err := s.Repo.MergeCarts(ctx, guestCart.ID, userCart.ID); err != nil {
		return err
	}

	s.publish(ctx, Owner{UserID: &userID}, map[string]any{
		"type":        "cart_merged",
		"guest_token": guestToken,
	})
	return nil
}

func (s *CartService) publish(ctx context.Context, owner Owner, event map[string]any) {
	if s.Publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = s.Publisher.Publish(pubCtx, events.TopicCartEvents, owner.key(), event)
}
