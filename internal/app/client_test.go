package app_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-client/api/routes"
	"github.com/angelmondragon/marketplace-client/internal/address"
	"github.com/angelmondragon/marketplace-client/internal/app"
	"github.com/angelmondragon/marketplace-client/internal/cart"
	"github.com/angelmondragon/marketplace-client/internal/checkout"
	"github.com/angelmondragon/marketplace-client/internal/devserver"
	"github.com/angelmondragon/marketplace-client/internal/session"
	"github.com/angelmondragon/marketplace-client/internal/smartclient"
	"github.com/angelmondragon/marketplace-client/internal/state"
	"github.com/angelmondragon/marketplace-client/internal/tokenstore"
	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/pagination"
)

type harness struct {
	cfg     *config.Config
	backend *devserver.Backend
	srv     *httptest.Server
	tokens  tokenstore.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		DevServer: config.DevServerConfig{
			JWTSecret:         "e2e-secret",
			JWTIssuer:         "market-e2e",
			ExpirationMinutes: 60,
			SellerPassword:    "seller-pass",
			LoginWindow:       time.Minute,
			LoginIPLimit:      100,
			LoginEmailLimit:   100,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	}
	backend, err := devserver.New(cfg.DevServer, cfg.Password, cfg.Checkout)
	require.NoError(t, err)
	require.NoError(t, backend.Seed())

	router := routes.NewRouter(cfg, nil, backend, routes.Deps{Counter: devserver.NewCounter(time.Now)})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	cfg.API = config.APIConfig{
		BaseURL:        srv.URL,
		BuyerBaseURL:   srv.URL + config.BuyerPathPrefix,
		SellerBaseURL:  srv.URL + config.SellerPathPrefix,
		Timeout:        5 * time.Second,
		LanguageHeader: "lang",
	}
	return &harness{cfg: cfg, backend: backend, srv: srv, tokens: tokenstore.NewMemory()}
}

func (h *harness) client(t *testing.T) *app.Client {
	t.Helper()
	c, err := app.NewClient(app.Params{
		Config:     h.cfg,
		TokenStore: h.tokens,
		HTTPClient: h.srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func (h *harness) product(t *testing.T, name string) devserver.Product {
	t.Helper()
	for _, p := range h.backend.Products() {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("product %q not seeded", name)
	return devserver.Product{}
}

func TestBuyerCheckoutAgainstDevServer(t *testing.T) {
	h := newHarness(t)
	c := h.client(t)
	ctx := context.Background()

	_, err := c.Cart.SyncCount(ctx)
	_, gated := smartclient.AsAuthRequired(err)
	require.True(t, gated, "cart calls must be gated before login, got %v", err)

	_, err = c.Session.Register(ctx, enums.RoleBuyer, session.Registration{
		Name:     "Rumi",
		Email:    "rumi@buyer.test",
		Password: "buyer-pass1",
	})
	require.NoError(t, err)
	require.True(t, state.IsBuyerAuthenticated(c.Store.Snapshot()))
	require.False(t, state.IsSellerAuthenticated(c.Store.Snapshot()))

	tomato := h.product(t, "Tomato seeds")
	goldfish := h.product(t, "Goldfish")

	require.NoError(t, c.Cart.Add(ctx, cart.AddInput{ProductID: tomato.ID, Quantity: 1}))
	require.NoError(t, c.Cart.Add(ctx, cart.AddInput{ProductID: goldfish.ID, Quantity: 2}))
	assert.Equal(t, 2, c.Store.Snapshot().CartCount)

	liked, err := c.Wishlist.Toggle(ctx, state.WishlistItem{ProductID: tomato.ID, Name: tomato.Name})
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, state.InWishlist(c.Store.Snapshot(), tomato.ID))

	lines, err := c.Cart.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, cart.HasLiving(lines))

	addr, err := c.Addresses.Add(ctx, address.Input{
		Recipient:  "Rumi",
		Phone:      "+8801711000000",
		Line1:      "12 Lake Road",
		City:       "Dhaka",
		PostalCode: "1207",
	})
	require.NoError(t, err)
	assert.True(t, addr.IsDefault)

	methods, err := c.Checkout.ShippingMethods(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, methods)

	_, err = c.Checkout.ApplyCoupon(ctx, "save10")
	require.NoError(t, err)

	view, err := c.Checkout.Summary(ctx, lines, &methods[0])
	require.NoError(t, err)
	require.NotEmpty(t, view.PaymentMethods)
	for _, m := range view.PaymentMethods {
		assert.NotEqual(t, "cod", m.Code, "cash on delivery must be hidden for living goods")
	}

	order, err := c.Checkout.PlaceOrder(ctx, lines, checkout.OrderInput{
		AddressID:        addr.ID,
		ShippingMethodID: methods[0].ID,
		PaymentMethodID:  view.PaymentMethods[0].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", order.Status)
	assert.True(t, order.Total.Equal(view.Total), "server total %s, client total %s", order.Total, view.Total)
	assert.Equal(t, 0, c.Store.Snapshot().CartCount)

	list, err := c.Orders.BuyerOrders(ctx, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, order.ID, list.Orders[0].ID)

	_, err = c.Orders.SellerOrders(ctx, pagination.Params{})
	_, gated = smartclient.AsAuthRequired(err)
	require.True(t, gated, "seller orders need the seller token, got %v", err)

	_, err = c.Session.Login(ctx, enums.RoleSeller, session.Credentials{Email: "pets@seller.test", Password: "seller-pass"})
	require.NoError(t, err)
	sellerList, err := c.Orders.SellerOrders(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, sellerList.Orders, 1)
	assert.Equal(t, "Rumi", sellerList.Orders[0].BuyerName)

	require.NoError(t, c.Session.Logout(ctx, enums.RoleBuyer))
	snap := c.Store.Snapshot()
	assert.False(t, state.IsBuyerAuthenticated(snap))
	assert.True(t, state.IsSellerAuthenticated(snap), "buyer logout must not touch the seller session")
	assert.Zero(t, state.WishlistSize(snap))
}

func TestRehydrateRestoresPersistedSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.client(t)
	_, err := first.Session.Login(ctx, enums.RoleSeller, session.Credentials{Email: "farm@seller.test", Password: "seller-pass"})
	require.NoError(t, err)
	require.NoError(t, first.Session.SetLanguage(ctx, "bn"))

	second := h.client(t)
	require.False(t, state.IsSellerAuthenticated(second.Store.Snapshot()))

	persisted, err := second.Session.Rehydrate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, persisted.SellerToken)
	assert.Empty(t, persisted.BuyerToken)
	assert.Equal(t, "bn", second.Store.Language())

	list, err := second.Orders.SellerOrders(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, list.Orders)
}

func TestServerRejectionsReachTheCaller(t *testing.T) {
	h := newHarness(t)
	c := h.client(t)
	ctx := context.Background()

	_, err := c.Session.Register(ctx, enums.RoleBuyer, session.Registration{Name: "Nila", Email: "nila@buyer.test", Password: "buyer-pass1"})
	require.NoError(t, err)

	fishFood := h.product(t, "Fish food")
	err = c.Cart.Add(ctx, cart.AddInput{ProductID: fishFood.ID, Quantity: 1})
	require.Error(t, err)
	httpErr, ok := httpclient.AsHTTPError(err)
	require.True(t, ok, "expected server rejection, got %T", err)
	assert.Equal(t, 400, httpErr.StatusCode)
	assert.NotEmpty(t, httpclient.MessageFrom(err, "generic"))

	tomato := h.product(t, "Tomato seeds")
	require.NoError(t, c.Wishlist.Add(ctx, state.WishlistItem{ProductID: tomato.ID}))
	require.NoError(t, c.Wishlist.Add(ctx, state.WishlistItem{ProductID: tomato.ID}), "a duplicate like is reported as present, not failed")
	assert.Equal(t, 1, state.WishlistSize(c.Store.Snapshot()))

	_, err = c.Gated[enums.RoleBuyer].Post(ctx, "wishlist", map[string]int64{"product_id": tomato.ID})
	assert.Equal(t, devserver.AlreadyInWishlistMessage, httpclient.MessageFrom(err, "generic"))
}
