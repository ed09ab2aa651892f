package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-client/api/responses"
	"github.com/angelmondragon/marketplace-client/api/validators"
	"github.com/angelmondragon/marketplace-client/internal/state"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

type WishlistService interface {
	Wishlist(buyerID int64) []state.WishlistItem
	AddToWishlist(buyerID, productID int64) error
	RemoveFromWishlist(buyerID, productID int64) error
}

type addWishlistItemPayload struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

func WishlistList(svc WishlistService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, svc.Wishlist(p.UserID))
	}
}

// WishlistAdd answers 409 ALREADY_EXISTS when the product is already liked.
func WishlistAdd(svc WishlistService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body addWishlistItemPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.AddToWishlist(p.UserID, body.ProductID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int64{"product_id": body.ProductID})
	}
}

func WishlistRemove(svc WishlistService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.PathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveFromWishlist(p.UserID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
