package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type Product struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string `gorm:"not null"                 json:"name"`
	Description   string `gorm:"not null"                 json:"description"`
	Category      string `gorm:"index"                    json:"category"`
	Price         int64  `gorm:"not null"                 json:"price"`
	OriginalPrice int64  `json:"original_price,omitempty"`
	Stock         uint   `json:"stock"`
}

// Cart belongs to exactly one owner: an account or a guest session.
type Cart struct {
	ID         uint       `gorm:"primaryKey"      json:"id"`
	UserID     *uint      `gorm:"uniqueIndex"     json:"user_id,omitempty"`
	GuestToken *string    `gorm:"uniqueIndex"     json:"guest_token,omitempty"`
	CouponID   *uint      `json:"coupon_id,omitempty"`
	ItemCount  uint       `json:"item_count"`
	TotalPrice int64      `json:"total_price"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

// CartItem snapshots unit price and discount at add time.
type CartItem struct {
	ID        uint  `gorm:"primaryKey"                              json:"id"`
	CartID    uint  `gorm:"uniqueIndex:idx_cart_product;not null"   json:"cart_id"`
	ProductID uint  `gorm:"uniqueIndex:idx_cart_product;not null"   json:"product_id"`
	Quantity  uint  `gorm:"default:1;check:quantity>0"              json:"quantity"`
	UnitPrice int64 `gorm:"not null"                                json:"unit_price"`
	Discount  int64 `json:"discount"`
	LineTotal int64 `gorm:"not null"                                json:"line_total"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID                uint       `gorm:"primaryKey"      json:"id"`
	Code              string     `gorm:"unique;not null" json:"code"`
	Name              string     `gorm:"not null"        json:"name"`
	DiscountType      string     `gorm:"not null"        json:"discount_type"`
	Value             int64      `gorm:"not null"        json:"value"`
	MinPurchaseAmount int64      `json:"min_purchase_amount"`
	MaxDiscountAmount int64      `json:"max_discount_amount"`
	Active            bool       `gorm:"not null"        json:"active"`
	ValidUntil        *time.Time `json:"valid_until,omitempty"`
}

const (
	UserCouponAvailable = "available"
	UserCouponUsed      = "used"
	UserCouponExpired   = "expired"
)

type UserCoupon struct {
	ID       uint       `gorm:"primaryKey"                            json:"id"`
	UserID   uint       `gorm:"uniqueIndex:idx_user_coupon;not null"  json:"user_id"`
	CouponID uint       `gorm:"uniqueIndex:idx_user_coupon;not null"  json:"coupon_id"`
	Status   string     `gorm:"not null;default:available"            json:"status"`
	IssuedAt time.Time  `gorm:"not null"                              json:"issued_at"`
	UsedAt   *time.Time `json:"used_at,omitempty"`
}

const (
	OrderStatusPending         = "pending"
	OrderStatusPreparing       = "preparing"
	OrderStatusShipping        = "shipping"
	OrderStatusDelivered       = "delivered"
	OrderStatusCancelled       = "cancelled"
	OrderStatusRefundRequested = "refund_requested"
	OrderStatusRefunded        = "refunded"
)

// Order is an immutable checkout-time snapshot; only status and the
// payment/cancellation metadata change after creation.
type Order struct {
	ID      uint   `gorm:"primaryKey"      json:"id"`
	OrderNo string `gorm:"unique;not null" json:"order_no"`
	UserID  *uint  `gorm:"index"           json:"user_id,omitempty"`
	Status  string `gorm:"not null"        json:"status"`

	Subtotal       int64 `gorm:"not null" json:"subtotal"`
	CouponDiscount int64 `json:"coupon_discount"`
	ShippingFee    int64 `json:"shipping_fee"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`
	UserCouponID   *uint `json:"user_coupon_id,omitempty"`

	CustomerName  string `gorm:"not null" json:"customer_name"`
	CustomerPhone string `gorm:"not null" json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`

	Recipient    string `gorm:"not null" json:"recipient"`
	Address1     string `gorm:"not null" json:"address1"`
	Address2     string `json:"address2"`
	ZipCode      string `gorm:"not null" json:"zip_code"`
	ShippingNote string `json:"shipping_note"`

	PaymentKey    string `json:"payment_key,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`

	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID          uint   `gorm:"primaryKey"     json:"id"`
	OrderID     uint   `gorm:"index;not null" json:"order_id"`
	ProductID   uint   `gorm:"not null"       json:"product_id"`
	ProductName string `gorm:"not null"       json:"product_name"`
	UnitPrice   int64  `gorm:"not null"       json:"unit_price"`
	Quantity    uint   `gorm:"not null"       json:"quantity"`
	LineTotal   int64  `gorm:"not null"       json:"line_total"`
}

type Address struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	UserID    uint   `gorm:"index;not null" json:"user_id"`
	Label     string `json:"label"`
	Recipient string `gorm:"not null"       json:"recipient"`
	Phone     string `gorm:"not null"       json:"phone"`
	Address1  string `gorm:"not null"       json:"address1"`
	Address2  string `json:"address2"`
	ZipCode   string `gorm:"not null"       json:"zip_code"`
	IsDefault bool   `gorm:"default:false"  json:"is_default"`
}
