package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/marketplace-client/api/responses"
	"github.com/angelmondragon/marketplace-client/api/validators"
	"github.com/angelmondragon/marketplace-client/internal/devserver"
	"github.com/angelmondragon/marketplace-client/internal/session"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

// AccountService is the account surface of the dev backend.
type AccountService interface {
	Register(ctx context.Context, role enums.Role, reg session.Registration) (*session.AuthResult, error)
	Login(ctx context.Context, role enums.Role, creds session.Credentials) (*session.AuthResult, error)
	Logout(p devserver.Principal)
	DeleteAccount(ctx context.Context, p devserver.Principal) error
}

func AuthRegister(role enums.Role, svc AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body session.Registration
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Register(r.Context(), role, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AuthLogin(role enums.Role, svc AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body session.Credentials
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Login(r.Context(), role, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AuthLogout(svc AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		svc.Logout(p)
		responses.WriteNoContent(w)
	}
}

func AccountDelete(svc AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		if err := svc.DeleteAccount(r.Context(), p); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
