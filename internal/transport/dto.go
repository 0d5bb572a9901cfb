package transport

import "github.com/hanseol/dental_shop/internal/models"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	GuestToken string `json:"guest_token,omitempty"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity uint `json:"quantity"`
}

type BatchDeleteRequest struct {
	ProductIDs []uint `json:"product_ids"`
}

type CartResponse struct {
	Cart         *models.Cart `json:"cart"`
	GuestToken   string       `json:"guest_token,omitempty"`
	Discount     int64        `json:"discount"`
	PayableTotal int64        `json:"payable_total"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type RegisterCouponRequest struct {
	Code string `json:"code"`
}

type MergeCartRequest struct {
	GuestToken string `json:"guest_token"`
}

type CheckoutRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
	Recipient     string `json:"recipient"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	ZipCode       string `json:"zip_code"`
	ShippingNote  string `json:"shipping_note"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type PrepareRequest struct {
	OrderNo string `json:"order_no"`
}

type ConfirmRequest struct {
	PaymentKey string `json:"payment_key"`
	OrderNo    string `json:"order_no"`
	Amount     int64  `json:"amount"`
}

type AddressRequest struct {
	Label     *string `json:"label"`
	Recipient *string `json:"recipient"`
	Phone     *string `json:"phone"`
	Address1  *string `json:"address1"`
	Address2  *string `json:"address2"`
	ZipCode   *string `json:"zip_code"`
}

type ProductRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Price         int64  `json:"price"`
	OriginalPrice int64  `json:"original_price"`
	Stock         uint   `json:"stock"`
}
