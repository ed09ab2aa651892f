package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-client/internal/cart"
)

type PaymentMethod struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Code  string `json:"code"`
}

type ShippingMethod struct {
	ID    int64           `json:"id"`
	Title string          `json:"title"`
	Cost  decimal.Decimal `json:"cost"`
}

// Coupon is held in process memory only; it never reaches the token store.
type Coupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// OrderInput is validated before it is sent.
type OrderInput struct {
	AddressID        int64  `json:"address_id" validate:"required,gt=0"`
	ShippingMethodID int64  `json:"shipping_method_id" validate:"required,gt=0"`
	PaymentMethodID  int64  `json:"payment_method_id" validate:"required,gt=0"`
	CouponCode       string `json:"coupon_code,omitempty" validate:"max=64"`
	Note             string `json:"note,omitempty" validate:"max=500"`
}

type Order struct {
	ID     int64           `json:"id"`
	Status string          `json:"status"`
	Total  decimal.Decimal `json:"total"`
}

// View is what the checkout screen renders.
type View struct {
	cart.Summary
	PaymentMethods []PaymentMethod `json:"payment_methods"`
}
