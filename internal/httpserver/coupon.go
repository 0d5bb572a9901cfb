package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hanseol/dental_shop/internal/logging"
	"github.com/hanseol/dental_shop/internal/service"
	"github.com/hanseol/dental_shop/internal/transport"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func (h *CouponHTTP) Apply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.apply")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.ApplyCouponRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		l.Warn("apply_coupon_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "coupon code required")
	}

	cart, discount, err := h.Svc.ApplyToCart(ctx, userID, req.Code)
	if err != nil {
		return writeError(c, l, "apply_coupon", err)
	}

	l.Info("coupon applied", "code", req.Code)
	return c.JSON(http.StatusOK, transport.CartResponse{
		Cart:         cart,
		Discount:     discount,
		PayableTotal: cart.TotalPrice - discount,
	})
}

func (h *CouponHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.remove")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	if err := h.Svc.RemoveFromCart(ctx, userID); err != nil {
		return writeError(c, l, "remove_coupon", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CouponHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.register")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.RegisterCouponRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		l.Warn("register_coupon_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "coupon code required")
	}

	uc, err := h.Svc.Register(ctx, userID, req.Code)
	if err != nil {
		return writeError(c, l, "register_coupon", err)
	}

	l.Info("coupon registered", "code", req.Code)
	return c.JSON(http.StatusCreated, uc)
}

func (h *CouponHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.list_mine")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	ucs, err := h.Svc.ListMine(ctx, userID)
	if err != nil {
		return writeError(c, l, "list_coupons", err)
	}
	return c.JSON(http.StatusOK, ucs)
}
