package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hanseol/dental_shop/internal/logging"
	"github.com/hanseol/dental_shop/internal/service"
	"github.com/hanseol/dental_shop/internal/transport"
)

type AuthHTTP struct {
	Svc   *service.AuthService
	Carts *service.CartService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, l, "register", err)
	}

	l.Info("user registered", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

// Login also folds the caller's guest cart into the account cart when the
// request carries a guest token.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	token, user, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, l, "login", err)
	}

	if req.GuestToken != "" {
		if err := h.Carts.Merge(ctx, req.GuestToken, user.ID); err != nil {
			l.Warn("login_cart_merge_error", "error", err)
		}
	}

	l.Info("user logged in", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{AccessToken: token, User: user})
}
