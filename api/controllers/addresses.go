package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-client/api/responses"
	"github.com/angelmondragon/marketplace-client/api/validators"
	"github.com/angelmondragon/marketplace-client/internal/address"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

type AddressService interface {
	Addresses(buyerID int64) []address.Address
	AddAddress(buyerID int64, in address.Input) address.Address
	RemoveAddress(buyerID, id int64) error
}

func AddressList(svc AddressService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, svc.Addresses(p.UserID))
	}
}

func AddressCreate(svc AddressService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body address.Input
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, svc.AddAddress(p.UserID, body))
	}
}

func AddressDelete(svc AddressService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveAddress(p.UserID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
