package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hanseol/dental_shop/internal/logging"
	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/service"
	"github.com/hanseol/dental_shop/internal/transport"
)

type AddressHTTP struct {
	Svc *service.AddressService
}

func (h *AddressHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.create")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_address_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	address := models.Address{}
	if req.Label != nil {
		address.Label = *req.Label
	}
	if req.Recipient != nil {
		address.Recipient = *req.Recipient
	}
	if req.Phone != nil {
		address.Phone = *req.Phone
	}
	if req.Address1 != nil {
		address.Address1 = *req.Address1
	}
	if req.Address2 != nil {
		address.Address2 = *req.Address2
	}
	if req.ZipCode != nil {
		address.ZipCode = *req.ZipCode
	}

	if err := h.Svc.Create(ctx, userID, &address); err != nil {
		return writeError(c, l, "create_address", err)
	}
	return c.JSON(http.StatusCreated, address)
}

func (h *AddressHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.list")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	addresses, err := h.Svc.List(ctx, userID)
	if err != nil {
		return writeError(c, l, "list_addresses", err)
	}
	return c.JSON(http.StatusOK, addresses)
}

func (h *AddressHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.update")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid address id")
	}

	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_address_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	address, err := h.Svc.Update(ctx, userID, uint(id), service.AddressUpdate{
		Label:     req.Label,
		Recipient: req.Recipient,
		Phone:     req.Phone,
		Address1:  req.Address1,
		Address2:  req.Address2,
		ZipCode:   req.ZipCode,
	})
	if err != nil {
		return writeError(c, l, "update_address", err)
	}
	return c.JSON(http.StatusOK, address)
}

func (h *AddressHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.delete")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid address id")
	}

	if err := h.Svc.Delete(ctx, userID, uint(id)); err != nil {
		return writeError(c, l, "delete_address", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AddressHTTP) SetDefault(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.set_default")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid address id")
	}

	if err := h.Svc.SetDefault(ctx, userID, uint(id)); err != nil {
		return writeError(c, l, "set_default_address", err)
	}

	l.Info("default address set", "address_id", id)
	return c.NoContent(http.StatusNoContent)
}
