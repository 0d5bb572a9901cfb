package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/db"
	"github.com/hanseol/dental_shop/internal/hash"
	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/payment"
	"github.com/hanseol/dental_shop/internal/repo"
	"github.com/hanseol/dental_shop/internal/service"

	"github.com/labstack/echo/v4"
)

type stubGateway struct {
	confirmErr error
}

func (g *stubGateway) Confirm(_ context.Context, paymentKey, orderNo string, amount int64) (*payment.Confirmation, error) {
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	return &payment.Confirmation{PaymentKey: paymentKey, OrderID: orderNo, Method: "카드", TotalAmount: amount}, nil
}

func (g *stubGateway) Cancel(context.Context, string, string) error { return nil }

type testEnv struct {
	t       *testing.T
	E       *echo.Echo
	Repo    *repo.GormRepo
	Gateway *stubGateway
}

var testSecret = []byte("test-secret")

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	r := repo.NewGormRepo(gdb)

	gw := &stubGateway{}
	carts := &service.CartService{Repo: r}
	coupons := &service.CouponService{Repo: r}
	orders := &service.OrderService{Repo: r, Coupons: coupons, Gateway: gw}

	e := echo.New()
	Register(e, &Deps{
		Auth:      &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: testSecret}, Carts: carts},
		Cart:      &CartHTTP{Svc: carts, Coupons: coupons},
		Coupon:    &CouponHTTP{Svc: coupons},
		Order:     &OrderHTTP{Svc: orders},
		Payment:   &PaymentHTTP{Svc: &service.PaymentService{Repo: r, Gateway: gw}},
		Product:   &ProductHTTP{Repo: r},
		Address:   &AddressHTTP{Svc: &service.AddressService{Repo: r}},
		JWTSecret: testSecret,
	})

	return &testEnv{t: t, E: e, Repo: r, Gateway: gw}
}

type header struct{ key, value string }

func bearer(token string) header { return header{"Authorization", "Bearer " + token} }

func guest(token string) header { return header{guestTokenHeader, token} }

func (env *testEnv) do(method, path string, body any, headers ...header) *httptest.ResponseRecorder {
	env.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, h := range headers {
		req.Header.Set(h.key, h.value)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) decode(rec *httptest.ResponseRecorder, out any) {
	env.t.Helper()
	require.NoError(env.t, json.Unmarshal(rec.Body.Bytes(), out))
}

func (env *testEnv) createUser(username, role string) *models.User {
	env.t.Helper()
	pwHash, err := hash.HashPassword("password123")
	require.NoError(env.t, err)
	user := &models.User{Username: username, PasswordHash: pwHash, Role: role}
	require.NoError(env.t, env.Repo.CreateUser(context.Background(), user))
	return user
}

func (env *testEnv) login(username string) string {
	env.t.Helper()
	rec := env.do(http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(env.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	env.decode(rec, &resp)
	require.NotEmpty(env.t, resp.AccessToken)
	return resp.AccessToken
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func (env *testEnv) createProduct(name string, price int64, stock uint) *models.Product {
	env.t.Helper()
	p := &models.Product{Name: name, Description: name, Price: price, Stock: stock}
	require.NoError(env.t, env.Repo.CreateProduct(context.Background(), p))
	return p
}
