package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hanseol/dental_shop/internal/service"
)

func getUserID(c echo.Context) (uint, error) {
	v, ok := c.Get("user_id").(string)
	if !ok || v == "" {
		return 0, errors.New("unauthorized")
	}
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, errors.New("unauthorized")
	}
	return uint(id), nil
}

// getOwner builds the cart owner for routes served to both accounts and
// guests. The Identity middleware guarantees one of the two is present.
func getOwner(c echo.Context) (service.Owner, error) {
	if id, err := getUserID(c); err == nil {
		return service.Owner{UserID: &id}, nil
	}
	if guest, ok := c.Get("guest_token").(string); ok && guest != "" {
		return service.Owner{GuestToken: &guest}, nil
	}
	return service.Owner{}, errors.New("no identity")
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrOutOfStock):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotApplicable), errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, l *slog.Logger, op string, err error) error {
	status := httpStatus(err)
	if status >= 500 {
		l.Error(op+"_error", "status", status, "error", err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	l.Warn(op+"_error", "status", status, "error", err)
	return c.JSON(status, echo.Map{"error": err.Error()})
}
