package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hanseol/dental_shop/internal/logging"
	"github.com/hanseol/dental_shop/internal/service"
	"github.com/hanseol/dental_shop/internal/transport"
)

type CartHTTP struct {
	Svc     *service.CartService
	Coupons *service.CouponService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.Svc.GetCart(ctx, owner)
	if err != nil {
		return writeError(c, l, "get_cart", err)
	}

	resp := transport.CartResponse{Cart: cart, PayableTotal: cart.TotalPrice}
	if owner.GuestToken != nil {
		resp.GuestToken = *owner.GuestToken
	}
	// A coupon that lapsed after being applied must not keep showing a
	// discount checkout would reject.
	if cart.CouponID != nil {
		if coupon, err := h.Coupons.Repo.GetCoupon(ctx, *cart.CouponID); err == nil && h.Coupons.IsAvailable(coupon) {
			resp.Discount = h.Coupons.DiscountAmount(coupon, cart.TotalPrice)
			resp.PayableTotal = cart.TotalPrice - resp.Discount
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.AddItem(ctx, owner, req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, l, "add_item", err)
	}

	l.Info("item added to cart", "product_id", req.ProductID)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	productID, err := strconv.ParseUint(c.Param("productID"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid product id")
	}

	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.UpdateQuantity(ctx, owner, uint(productID), req.Quantity)
	if err != nil {
		return writeError(c, l, "update_quantity", err)
	}

	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	productID, err := strconv.ParseUint(c.Param("productID"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid product id")
	}

	if err := h.Svc.RemoveItem(ctx, owner, uint(productID)); err != nil {
		return writeError(c, l, "remove_item", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) RemoveItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_items")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.BatchDeleteRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_items_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.RemoveItems(ctx, owner, req.ProductIDs); err != nil {
		return writeError(c, l, "remove_items", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	if err := h.Svc.Clear(ctx, owner); err != nil {
		return writeError(c, l, "clear_cart", err)
	}

	l.Info("cart cleared")
	return c.NoContent(http.StatusNoContent)
}

// Merge folds the guest cart named in the body into the authenticated
// account's cart; clients call it right after login.
func (h *CartHTTP) Merge(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.merge")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.MergeCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("merge_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Merge(ctx, req.GuestToken, userID); err != nil {
		return writeError(c, l, "merge_cart", err)
	}

	cart, err := h.Svc.GetCart(ctx, service.Owner{UserID: &userID})
	if err != nil {
		return writeError(c, l, "merge_cart", err)
	}

	l.Info("guest cart merged")
	return c.JSON(http.StatusOK, cart)
}
