package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	Auth      *AuthHTTP
	Cart      *CartHTTP
	Coupon    *CouponHTTP
	Order     *OrderHTTP
	Payment   *PaymentHTTP
	Product   *ProductHTTP
	Address   *AddressHTTP
	JWTSecret []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/auth/register", d.Auth.Register)
	e.POST("/auth/login", d.Auth.Login)

	e.GET("/products", d.Product.ListProducts)
	e.GET("/products/search", d.Product.SearchProducts)
	e.GET("/products/:id", d.Product.GetProduct)

	// Cart, checkout and payments serve accounts and guests alike.
	ident := Identity(d.JWTSecret)

	cart := e.Group("/cart", ident)
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:productID", d.Cart.UpdateQuantity)
	cart.DELETE("/items/:productID", d.Cart.RemoveItem)
	cart.POST("/items/batch-delete", d.Cart.RemoveItems)

	e.POST("/checkout", d.Order.Checkout, ident)
	e.POST("/payments/prepare", d.Payment.Prepare, ident)
	e.POST("/payments/confirm", d.Payment.Confirm, ident)

	auth := RequireAuth(d.JWTSecret)

	cartAuth := e.Group("/cart", auth)
	cartAuth.POST("/merge", d.Cart.Merge)
	cartAuth.POST("/coupon", d.Coupon.Apply)
	cartAuth.DELETE("/coupon", d.Coupon.Remove)

	coupons := e.Group("/coupons", auth)
	coupons.GET("/mine", d.Coupon.ListMine)
	coupons.POST("/register", d.Coupon.Register)

	orders := e.Group("/orders", auth)
	orders.GET("", d.Order.ListOrders)
	orders.GET("/:orderNo", d.Order.GetOrder)
	orders.POST("/:orderNo/cancel", d.Order.Cancel)
	orders.POST("/:orderNo/refund", d.Order.RequestRefund)

	addresses := e.Group("/addresses", auth)
	addresses.GET("", d.Address.List)
	addresses.POST("", d.Address.Create)
	addresses.PATCH("/:id", d.Address.Update)
	addresses.DELETE("/:id", d.Address.Delete)
	addresses.POST("/:id/default", d.Address.SetDefault)

	admin := e.Group("/admin", auth, RequireAdmin)
	admin.POST("/products", d.Product.CreateProduct)
	admin.PATCH("/products/:id", d.Product.UpdateProduct)
	admin.PATCH("/orders/:orderNo", d.Order.UpdateStatus)
	admin.POST("/orders/:orderNo/refund-complete", d.Order.CompleteRefund)
}
