package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/marketplace-client/internal/address"
	"github.com/angelmondragon/marketplace-client/internal/cart"
	"github.com/angelmondragon/marketplace-client/internal/checkout"
	"github.com/angelmondragon/marketplace-client/internal/inflight"
	"github.com/angelmondragon/marketplace-client/internal/orders"
	"github.com/angelmondragon/marketplace-client/internal/session"
	"github.com/angelmondragon/marketplace-client/internal/smartclient"
	"github.com/angelmondragon/marketplace-client/internal/state"
	"github.com/angelmondragon/marketplace-client/internal/tokenstore"
	"github.com/angelmondragon/marketplace-client/internal/wishlist"
	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/metrics"
)

// Params collects what a client process injects into the stack.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	TokenStore tokenstore.Store
	// HTTPClient overrides the transport; tests pass httptest clients.
	HTTPClient *http.Client
	Metrics    *metrics.ClientMetrics
	Prompt     smartclient.PromptFunc
	Notifier   smartclient.Notifier
}

// Client is the assembled buyer/seller client: one state store, one raw and
// one gated transport per role, and the feature services on top.
type Client struct {
	Store     *state.Store
	Persister *tokenstore.Persister
	Raw       map[enums.Role]*httpclient.Client
	Gated     map[enums.Role]*smartclient.Client
	Tracker   *inflight.Tracker
	Errors    *smartclient.ErrorHandler

	Session   session.Service
	Cart      cart.Service
	Wishlist  wishlist.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Addresses address.Service

	tokens tokenstore.Store
}

// NewClient wires every service against the configured role base URLs.
func NewClient(p Params) (*Client, error) {
	if p.Config == nil {
		return nil, errors.New("config is required")
	}
	if p.TokenStore == nil {
		return nil, errors.New("token store is required")
	}

	persister := tokenstore.NewPersister(p.TokenStore)
	store := state.New(state.WithPersister(persister), state.WithLogger(p.Logger))
	c := &Client{
		Store:     store,
		Persister: persister,
		Raw:       make(map[enums.Role]*httpclient.Client, 2),
		Gated:     make(map[enums.Role]*smartclient.Client, 2),
		Tracker:   inflight.New(),
		Errors:    smartclient.NewErrorHandler(p.Logger, ""),
		tokens:    p.TokenStore,
	}

	baseURLs := map[enums.Role]string{
		enums.RoleBuyer:  p.Config.API.BuyerBaseURL,
		enums.RoleSeller: p.Config.API.SellerBaseURL,
	}
	for _, role := range []enums.Role{enums.RoleBuyer, enums.RoleSeller} {
		httpClient := p.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: p.Config.API.Timeout}
		}
		raw, err := httpclient.New(httpclient.Options{
			Role:           role,
			BaseURL:        baseURLs[role],
			HTTPClient:     httpClient,
			Credentials:    store,
			Logger:         p.Logger,
			Metrics:        p.Metrics,
			UserAgent:      p.Config.API.UserAgent,
			LanguageHeader: p.Config.API.LanguageHeader,
		})
		if err != nil {
			return nil, fmt.Errorf("building %s client: %w", role, err)
		}
		gated, err := smartclient.New(role, raw, store,
			smartclient.WithPrompt(p.Prompt),
			smartclient.WithNotifier(p.Notifier),
			smartclient.WithMetrics(p.Metrics),
			smartclient.WithLogger(p.Logger),
		)
		if err != nil {
			return nil, fmt.Errorf("building gated %s client: %w", role, err)
		}
		c.Raw[role] = raw
		c.Gated[role] = gated
	}

	if err := c.wireServices(p); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) wireServices(p Params) error {
	buyer := c.Gated[enums.RoleBuyer]
	seller := c.Gated[enums.RoleSeller]

	var err error
	c.Session, err = session.NewService(session.ServiceParams{
		Clients: map[enums.Role]session.API{
			enums.RoleBuyer:  c.Raw[enums.RoleBuyer],
			enums.RoleSeller: c.Raw[enums.RoleSeller],
		},
		Gated: map[enums.Role]session.API{
			enums.RoleBuyer:  buyer,
			enums.RoleSeller: seller,
		},
		Store:  c.Store,
		Loader: c.Persister,
		Logger: p.Logger,
	})
	if err != nil {
		return fmt.Errorf("session service: %w", err)
	}

	cartSvc, err := cart.NewService(buyer, c.Store, c.Tracker, p.Logger)
	if err != nil {
		return fmt.Errorf("cart service: %w", err)
	}
	c.Cart = cartSvc

	if c.Wishlist, err = wishlist.NewService(buyer, c.Store, c.Tracker, p.Logger); err != nil {
		return fmt.Errorf("wishlist service: %w", err)
	}

	wallet, err := p.Config.Checkout.WalletRegexp()
	if err != nil {
		return err
	}
	if c.Checkout, err = checkout.NewService(buyer, cartSvc, wallet, p.Logger); err != nil {
		return fmt.Errorf("checkout service: %w", err)
	}
	if c.Orders, err = orders.NewService(buyer, seller); err != nil {
		return fmt.Errorf("orders service: %w", err)
	}
	if c.Addresses, err = address.NewService(buyer); err != nil {
		return fmt.Errorf("address service: %w", err)
	}
	return nil
}

// Close releases the token store.
func (c *Client) Close() error {
	if c == nil || c.tokens == nil {
		return nil
	}
	return c.tokens.Close()
}
