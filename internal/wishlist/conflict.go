package wishlist

import (
	"net/http"
	"regexp"

	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
)

// Older backends only say so in the message text.
var alreadyInWishlistRe = regexp.MustCompile(`(?i)already\s+(exists\s+)?in\s+(your\s+|the\s+)?wish\s?list`)

// IsAlreadyInWishlist reports whether err means the product is already on
// the server-side wishlist. The structured code and 409 status win; the
// message match is the fallback.
func IsAlreadyInWishlist(err error) bool {
	if err == nil {
		return false
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeAlreadyExists) {
		return true
	}
	if httpErr, ok := httpclient.AsHTTPError(err); ok {
		switch httpErr.ErrorCode() {
		case pkgerrors.CodeAlreadyExists, pkgerrors.CodeConflict:
			return true
		}
		if httpErr.StatusCode == http.StatusConflict {
			return true
		}
		return alreadyInWishlistRe.MatchString(httpErr.Message())
	}
	return alreadyInWishlistRe.MatchString(err.Error())
}
