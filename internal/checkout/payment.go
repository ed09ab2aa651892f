package checkout

import (
	"regexp"

	"github.com/angelmondragon/marketplace-client/internal/cart"
	"github.com/angelmondragon/marketplace-client/pkg/config"
)

var defaultWalletPattern = regexp.MustCompile(config.DefaultWalletPattern)

// FilterPaymentMethods offers only mobile-wallet methods when any line is a
// living good; otherwise every method is offered. A nil pattern uses the default.
func FilterPaymentMethods(lines []cart.Line, methods []PaymentMethod, walletPattern *regexp.Regexp) []PaymentMethod {
	out := make([]PaymentMethod, 0, len(methods))
	if !cart.HasLiving(lines) {
		return append(out, methods...)
	}
	if walletPattern == nil {
		walletPattern = defaultWalletPattern
	}
	for _, method := range methods {
		if walletPattern.MatchString(method.Title) {
			out = append(out, method)
		}
	}
	return out
}
