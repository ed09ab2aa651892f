package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-client/api/responses"
	"github.com/angelmondragon/marketplace-client/internal/orders"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/pagination"
)

type OrdersService interface {
	BuyerOrders(buyerID int64, params pagination.Params) (*orders.List, error)
	SellerOrders(sellerID int64, params pagination.Params) (*orders.List, error)
}

func BuyerOrderList(svc OrdersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.BuyerOrders(p.UserID, pagination.ParamsFromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func SellerOrderList(svc OrdersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.SellerOrders(p.UserID, pagination.ParamsFromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
