package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-client/api/middleware"
	"github.com/angelmondragon/marketplace-client/api/responses"
	"github.com/angelmondragon/marketplace-client/internal/devserver"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

// principal reads the caller seeded by middleware.Auth and writes a 500 when
// the route was mounted without it.
func principal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (devserver.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "route is missing auth middleware"))
	}
	return p, ok
}
