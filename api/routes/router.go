package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/marketplace-client/api/controllers"
	"github.com/angelmondragon/marketplace-client/api/middleware"
	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

// Backend is everything the dev API serves; *devserver.Backend satisfies it.
type Backend interface {
	middleware.Authenticator
	controllers.AccountService
	controllers.CartService
	controllers.WishlistService
	controllers.CheckoutService
	controllers.AddressService
	controllers.OrdersService
}

// Deps carries the optional collaborators of the router.
type Deps struct {
	// Counter backs the auth rate limits; nil disables them.
	Counter middleware.RateCounter
	// Ready lists the dependencies /health/ready pings.
	Ready map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, backend Backend, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.DevServer.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	r.Route(config.BuyerPathPrefix, func(r chi.Router) {
		mountAuth(r, enums.RoleBuyer, cfg, logg, backend, deps.Counter)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(enums.RoleBuyer, backend, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(backend, logg))
				r.Post("/", controllers.CartAdd(backend, logg))
				r.Get("/count", controllers.CartCount(backend, logg))
				r.Get("/shipping-cost", controllers.CartShippingCost(backend, logg))
				r.Put("/{lineID}", controllers.CartUpdate(backend, logg))
				r.Delete("/{lineID}", controllers.CartRemove(backend, logg))
				r.Delete("/sellers/{sellerID}", controllers.CartRemoveSeller(backend, logg))
			})
			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(backend, logg))
				r.Post("/", controllers.WishlistAdd(backend, logg))
				r.Delete("/{productID}", controllers.WishlistRemove(backend, logg))
			})
			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(backend, logg))
				r.Post("/", controllers.AddressCreate(backend, logg))
				r.Delete("/{addressID}", controllers.AddressDelete(backend, logg))
			})
			r.Get("/shipping-methods", controllers.ShippingMethods(backend))
			r.Get("/payment-methods", controllers.PaymentMethods(backend))
			r.Post("/coupons/apply", controllers.CouponApply(backend, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.BuyerOrderList(backend, logg))
				r.Post("/", controllers.OrderPlace(backend, logg))
			})
		})
	})

	r.Route(config.SellerPathPrefix, func(r chi.Router) {
		mountAuth(r, enums.RoleSeller, cfg, logg, backend, deps.Counter)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(enums.RoleSeller, backend, logg))
			r.Get("/orders", controllers.SellerOrderList(backend, logg))
		})
	})

	return r
}

// mountAuth registers the login surface of one role. Login and register are
// public and rate limited; logout and account deletion need the role's token.
func mountAuth(r chi.Router, role enums.Role, cfg *config.Config, logg *logger.Logger, backend Backend, counter middleware.RateCounter) {
	dev := cfg.DevServer
	loginPolicy := middleware.NewAuthRateLimitPolicy(role.String()+"-login", dev.LoginWindow, dev.LoginIPLimit, dev.LoginEmailLimit)
	registerPolicy := middleware.NewAuthRateLimitPolicy(role.String()+"-register", dev.LoginWindow, dev.LoginIPLimit, dev.LoginEmailLimit)

	r.With(middleware.AuthRateLimit(loginPolicy, counter, logg)).Post("/auth/login", controllers.AuthLogin(role, backend, logg))
	r.With(middleware.AuthRateLimit(registerPolicy, counter, logg)).Post("/auth/register", controllers.AuthRegister(role, backend, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(role, backend, logg))
		r.Post("/auth/logout", controllers.AuthLogout(backend, logg))
		r.Delete("/account", controllers.AccountDelete(backend, logg))
	})
}
