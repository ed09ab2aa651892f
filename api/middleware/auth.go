package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/marketplace-client/api/responses"
	"github.com/angelmondragon/marketplace-client/internal/devserver"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

// Authenticator resolves a bearer token for one role.
type Authenticator interface {
	Authenticate(role enums.Role, token string) (devserver.Principal, error)
}

// Auth validates the role's bearer token and seeds the request context with
// the caller.
func Auth(role enums.Role, authn Authenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			principal, err := authn.Authenticate(role, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithUserID(ctx, strconv.FormatInt(principal.UserID, 10))
				ctx = logg.WithRole(ctx, principal.Role.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
