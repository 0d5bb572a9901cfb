package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hanseol/dental_shop/internal/logging"
	"github.com/hanseol/dental_shop/internal/service"
	"github.com/hanseol/dental_shop/internal/transport"
	"github.com/hanseol/dental_shop/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	owner, err := getOwner(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Checkout(ctx, owner,
		service.CustomerInfo{Name: req.CustomerName, Phone: req.CustomerPhone, Email: req.CustomerEmail},
		service.ShippingInfo{Recipient: req.Recipient, Address1: req.Address1, Address2: req.Address2, ZipCode: req.ZipCode, Note: req.ShippingNote},
	)
	if err != nil {
		return writeError(c, l, "checkout", err)
	}

	l.Info("order created", "order_no", order.OrderNo, "total", order.TotalAmount)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	orders, err := h.Svc.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return writeError(c, l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	order, err := h.Svc.GetOrder(ctx, &userID, c.Param("orderNo"))
	if err != nil {
		return writeError(c, l, "get_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cancel_order_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Cancel(ctx, &userID, c.Param("orderNo"), req.Reason)
	if err != nil {
		return writeError(c, l, "cancel_order", err)
	}

	l.Info("order cancelled", "order_no", order.OrderNo)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) RequestRefund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.request_refund")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	order, err := h.Svc.RequestRefund(ctx, &userID, c.Param("orderNo"))
	if err != nil {
		return writeError(c, l, "request_refund", err)
	}

	l.Info("refund requested", "order_no", order.OrderNo)
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus and CompleteRefund are admin-only fulfillment hooks.
func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		l.Warn("update_status_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "status required")
	}

	order, err := h.Svc.UpdateStatus(ctx, c.Param("orderNo"), req.Status)
	if err != nil {
		return writeError(c, l, "update_status", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CompleteRefund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.complete_refund")

	var req transport.CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("complete_refund_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CompleteRefund(ctx, c.Param("orderNo"), req.Reason)
	if err != nil {
		return writeError(c, l, "complete_refund", err)
	}

	l.Info("refund completed", "order_no", order.OrderNo)
	return c.JSON(http.StatusOK, order)
}
