package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hanseol/dental_shop/internal/logging"
	"github.com/hanseol/dental_shop/internal/service"
	"github.com/hanseol/dental_shop/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) Prepare(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.prepare")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.PrepareRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("prepare_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	prepared, err := h.Svc.Prepare(ctx, owner.UserID, req.OrderNo)
	if err != nil {
		return writeError(c, l, "prepare", err)
	}
	return c.JSON(http.StatusOK, prepared)
}

func (h *PaymentHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.confirm")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.ConfirmRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("confirm_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Confirm(ctx, owner, req.PaymentKey, req.OrderNo, req.Amount)
	if err != nil {
		return writeError(c, l, "confirm", err)
	}

	l.Info("payment confirmed", "order_no", order.OrderNo, "method", order.PaymentMethod)
	return c.JSON(http.StatusOK, order)
}
