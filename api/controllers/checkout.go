package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/marketplace-client/api/responses"
	"github.com/angelmondragon/marketplace-client/api/validators"
	"github.com/angelmondragon/marketplace-client/internal/checkout"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

type CheckoutService interface {
	ShippingMethods() []checkout.ShippingMethod
	PaymentMethods() []checkout.PaymentMethod
	ApplyCoupon(code string) (checkout.Coupon, error)
	PlaceOrder(ctx context.Context, buyerID int64, in checkout.OrderInput) (checkout.Order, error)
}

type couponPayload struct {
	Code string `json:"code" validate:"required,max=64"`
}

func ShippingMethods(svc CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.ShippingMethods())
	}
}

func PaymentMethods(svc CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.PaymentMethods())
	}
}

func CouponApply(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body couponPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.ApplyCoupon(body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func OrderPlace(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body checkout.OrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.PlaceOrder(r.Context(), p.UserID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
